package splits

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reventa-app/reventa/internal/shared"
)

type memoryRepo struct {
	mu       sync.Mutex
	payments map[int64]*Payment
	splits   map[int64]*Split
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		payments: make(map[int64]*Payment),
		splits:   make(map[int64]*Split),
	}
}

func (r *memoryRepo) addPayment(id int64, amount float64, date time.Time) *Payment {
	p := &Payment{
		MovementID:   id,
		ResellerID:   1,
		ResellerName: "Juan",
		Date:         date,
		Amount:       amount,
	}
	r.payments[id] = p
	return p
}

// WithTx serialises transactions on one mutex, mirroring the row lock the
// real repository takes on the parent payment.
func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx, r)
}

func (r *memoryRepo) LockPayment(ctx context.Context, movementID int64) (*Payment, error) {
	return r.GetPayment(ctx, movementID)
}

func (r *memoryRepo) GetPayment(ctx context.Context, movementID int64) (*Payment, error) {
	p, ok := r.payments[movementID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *memoryRepo) ListMonthPayments(ctx context.Context, from, to time.Time) ([]Payment, error) {
	var out []Payment
	for _, p := range r.payments {
		if p.Date.Before(from) || p.Date.After(to) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *memoryRepo) ListSplits(ctx context.Context, movementID int64) ([]Split, error) {
	var out []Split
	for id := int64(1); id <= r.nextID; id++ {
		if s, ok := r.splits[id]; ok && s.MovementID == movementID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memoryRepo) GetSplit(ctx context.Context, id int64) (*Split, error) {
	s, ok := r.splits[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *memoryRepo) InsertSplit(ctx context.Context, s Split) (*Split, error) {
	r.nextID++
	s.ID = r.nextID
	r.splits[s.ID] = &s
	return &s, nil
}

func (r *memoryRepo) UpdateSplit(ctx context.Context, id int64, in UpdateSplitInput) error {
	s, ok := r.splits[id]
	if !ok {
		return shared.ErrNotFound
	}
	s.Portion, s.Divisor, s.Settled = in.Portion, in.Divisor, in.Settled
	return nil
}

func (r *memoryRepo) DeleteSplit(ctx context.Context, id int64) error {
	delete(r.splits, id)
	return nil
}

func mar(day int) time.Time {
	return time.Date(2025, time.March, day, 0, 0, 0, 0, time.UTC)
}

func TestGetOrInitCreatesDefaultSplitOnce(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.addPayment(10, 9000, mar(3))
	svc := NewService(repo)

	first, err := svc.GetOrInitSplits(ctx, 10)
	require.NoError(t, err)
	require.Len(t, first.Splits, 1)
	require.Equal(t, 9000.0, first.Splits[0].Portion)
	require.Equal(t, 1, first.Splits[0].Divisor)
	require.False(t, first.Splits[0].Settled)
	require.Equal(t, 0.0, first.Delta)

	second, err := svc.GetOrInitSplits(ctx, 10)
	require.NoError(t, err)
	require.Len(t, second.Splits, 1)
	require.Equal(t, first.Splits[0].ID, second.Splits[0].ID)
}

func TestConcurrentFirstOpensCreateOneDefault(t *testing.T) {
	repo := newMemoryRepo()
	repo.addPayment(10, 9000, mar(3))
	svc := NewService(repo)

	var wg sync.WaitGroup
	results := make([]*PaymentSplits, 2)
	errs := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.GetOrInitSplits(context.Background(), 10)
		}(i)
	}
	wg.Wait()

	require.Len(t, repo.splits, 1)
	for i, out := range results {
		require.NoError(t, errs[i])
		require.Len(t, out.Splits, 1)
		require.Equal(t, 9000.0, out.Splits[0].Portion)
	}
}

type monthRecorder struct {
	months []string
}

func (r *monthRecorder) InvalidateMonth(ctx context.Context, monthKey string) {
	r.months = append(r.months, monthKey)
}

func TestSplitWritesDropCachedMonthRollup(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.addPayment(10, 9000, mar(3))
	svc := NewService(repo)
	rec := &monthRecorder{}
	svc.SetOverviewInvalidator(rec)

	out, err := svc.GetOrInitSplits(ctx, 10)
	require.NoError(t, err)

	_, err = svc.UpdateSplit(ctx, out.Splits[0].ID, UpdateSplitInput{Portion: 9000, Divisor: 2})
	require.NoError(t, err)
	require.Equal(t, []string{"2025-03"}, rec.months)

	added, err := svc.AddSplit(ctx, 10, 500)
	require.NoError(t, err)
	require.Equal(t, []string{"2025-03", "2025-03"}, rec.months)

	require.NoError(t, svc.DeleteSplit(ctx, added.ID))
	require.Len(t, rec.months, 3)

	// Deleting an absent split touches nothing, so the cache stays put.
	require.NoError(t, svc.DeleteSplit(ctx, 404))
	require.Len(t, rec.months, 3)
}

func TestGetOrInitUnknownPayment(t *testing.T) {
	svc := NewService(newMemoryRepo())
	_, err := svc.GetOrInitSplits(context.Background(), 404)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestNinethousandBreakdown(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.addPayment(10, 9000, mar(3))
	svc := NewService(repo)

	initial, err := svc.GetOrInitSplits(ctx, 10)
	require.NoError(t, err)

	_, err = svc.UpdateSplit(ctx, initial.Splits[0].ID, UpdateSplitInput{Portion: 4000, Divisor: 2})
	require.NoError(t, err)
	_, err = svc.AddSplit(ctx, 10, 5000)
	require.NoError(t, err)

	out, err := svc.GetOrInitSplits(ctx, 10)
	require.NoError(t, err)
	require.Len(t, out.Splits, 2)

	markup := out.Splits[0]
	require.Equal(t, 2000.0, markup.Cost)
	require.Equal(t, 2000.0, markup.Profit)
	require.Equal(t, 1000.0, markup.HalfProfit)

	atCost := out.Splits[1]
	require.Equal(t, 5000.0, atCost.Cost)
	require.Equal(t, 0.0, atCost.Profit)
	require.Equal(t, 0.0, atCost.HalfProfit)

	require.Equal(t, 9000.0, out.PortionTotal)
	require.Equal(t, 0.0, out.Delta)
}

func TestSplitIdentityHoldsForAwkwardDivisors(t *testing.T) {
	for _, tc := range []struct {
		portion float64
		divisor int
	}{
		{1000, 3},
		{999.99, 7},
		{0.01, 2},
		{12345.67, 6},
	} {
		s := Split{Portion: tc.portion, Divisor: tc.divisor}
		f := s.Derive()
		require.InDelta(t, tc.portion, f.Cost+f.Profit, 0.01,
			"portion %.2f divisor %d", tc.portion, tc.divisor)
	}
}

func TestUpdateSplitRejectsBadDivisor(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.addPayment(10, 100, mar(3))
	svc := NewService(repo)

	out, err := svc.GetOrInitSplits(ctx, 10)
	require.NoError(t, err)

	_, err = svc.UpdateSplit(ctx, out.Splits[0].ID, UpdateSplitInput{Portion: 100, Divisor: 0})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeltaIsAdvisory(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.addPayment(10, 100, mar(3))
	svc := NewService(repo)

	out, err := svc.GetOrInitSplits(ctx, 10)
	require.NoError(t, err)

	_, err = svc.UpdateSplit(ctx, out.Splits[0].ID, UpdateSplitInput{Portion: 80, Divisor: 1})
	require.NoError(t, err)

	out, err = svc.GetOrInitSplits(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 20.0, out.Delta)

	_, err = svc.AddSplit(ctx, 10, 50)
	require.NoError(t, err)
	out, _ = svc.GetOrInitSplits(ctx, 10)
	require.Equal(t, -30.0, out.Delta)
}

func TestAddSplitCoercesNegativePortion(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.addPayment(10, 100, mar(3))
	svc := NewService(repo)

	created, err := svc.AddSplit(ctx, 10, -40)
	require.NoError(t, err)
	require.Equal(t, 40.0, created.Portion)
}

func TestSettledFlagRoundTrips(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.addPayment(10, 100, mar(3))
	svc := NewService(repo)

	out, _ := svc.GetOrInitSplits(ctx, 10)
	updated, err := svc.UpdateSplit(ctx, out.Splits[0].ID, UpdateSplitInput{
		Portion: 100, Divisor: 1, Settled: true,
	})
	require.NoError(t, err)
	require.True(t, updated.Settled)
}

func TestListMonthPaymentsFiltersWindow(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.addPayment(1, 100, mar(1))
	repo.addPayment(2, 200, mar(31))
	repo.addPayment(3, 300, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC))
	svc := NewService(repo)

	out, err := svc.ListMonthPayments(ctx, "2025-03")
	require.NoError(t, err)
	require.Len(t, out, 2)

	_, err = svc.ListMonthPayments(ctx, "März 2025")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeleteSplitAbsentIsNoop(t *testing.T) {
	svc := NewService(newMemoryRepo())
	require.NoError(t, svc.DeleteSplit(context.Background(), 404))
}
