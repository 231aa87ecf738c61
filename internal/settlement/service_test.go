package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reventa-app/reventa/internal/shared"
	"github.com/reventa-app/reventa/internal/splits"
)

type windowSplit struct {
	date  time.Time
	split splits.Split
}

type memoryRepo struct {
	splits   []windowSplit
	expenses map[int64]*Expense
	payouts  map[int64]*Payout
	months   []string
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		expenses: make(map[int64]*Expense),
		payouts:  make(map[int64]*Payout),
	}
}

func (r *memoryRepo) addSplit(date time.Time, portion float64, divisor int, settled bool) {
	r.splits = append(r.splits, windowSplit{
		date:  date,
		split: splits.Split{Portion: portion, Divisor: divisor, Settled: settled},
	})
}

func (r *memoryRepo) ListWindowSplits(ctx context.Context, from, to time.Time) ([]splits.Split, error) {
	var out []splits.Split
	for _, ws := range r.splits {
		if ws.date.Before(from) || ws.date.After(to) {
			continue
		}
		out = append(out, ws.split)
	}
	return out, nil
}

func (r *memoryRepo) ListExpenses(ctx context.Context, from, to time.Time) ([]Expense, error) {
	var out []Expense
	for _, e := range r.expenses {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (r *memoryRepo) GetExpense(ctx context.Context, id int64) (*Expense, error) {
	e, ok := r.expenses[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *memoryRepo) InsertExpense(ctx context.Context, in ExpenseInput) (*Expense, error) {
	r.nextID++
	e := &Expense{ID: r.nextID, Date: in.Date, Label: in.Label, Amount: in.Amount}
	r.expenses[e.ID] = e
	copied := *e
	return &copied, nil
}

func (r *memoryRepo) DeleteExpense(ctx context.Context, id int64) error {
	delete(r.expenses, id)
	return nil
}

func (r *memoryRepo) ListPayouts(ctx context.Context, from, to time.Time) ([]Payout, error) {
	var out []Payout
	for _, p := range r.payouts {
		if p.Date.Before(from) || p.Date.After(to) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *memoryRepo) GetPayout(ctx context.Context, id int64) (*Payout, error) {
	p, ok := r.payouts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *memoryRepo) InsertPayout(ctx context.Context, in PayoutInput) (*Payout, error) {
	r.nextID++
	p := &Payout{ID: r.nextID, Date: in.Date, Note: in.Note, Amount: in.Amount}
	r.payouts[p.ID] = p
	copied := *p
	return &copied, nil
}

func (r *memoryRepo) DeletePayout(ctx context.Context, id int64) error {
	delete(r.payouts, id)
	return nil
}

func (r *memoryRepo) AvailableMonths(ctx context.Context) ([]string, error) {
	return r.months, nil
}

func mar(day int) time.Time {
	return time.Date(2025, time.March, day, 0, 0, 0, 0, time.UTC)
}

func window(t *testing.T, key string) shared.MonthWindow {
	t.Helper()
	w, err := shared.ParseMonth(key)
	require.NoError(t, err)
	return w
}

func TestMarchSettlementScenario(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	// One split bought at half price: portion 12000, cost 6000, profit 6000.
	repo.addSplit(mar(4), 12000, 2, false)
	_, err := svc.AddExpense(ctx, ExpenseInput{Date: mar(10), Label: "envíos", Amount: 1200})
	require.NoError(t, err)
	_, err = svc.AddExpense(ctx, ExpenseInput{Date: mar(20), Label: "bolsas", Amount: 800})
	require.NoError(t, err)
	_, err = svc.AddPayout(ctx, PayoutInput{Date: mar(25), Note: "adelanto", Amount: 1500})
	require.NoError(t, err)

	out, err := svc.MonthOverview(ctx, "2025-03")
	require.NoError(t, err)
	require.Equal(t, 6000.0, out.Totals.GrossProfit)
	require.Equal(t, 3000.0, out.Totals.HalfProfitTotal)
	require.Equal(t, 2000.0, out.ExpensesTotal)
	require.Equal(t, 1500.0, out.PayoutsTotal)
	require.Equal(t, 2000.0, out.IndividualProfit)
	require.Equal(t, 500.0, out.PayoutDue)
	require.Equal(t, 4000.0, out.NetProfit)
}

func TestPayoutDueMayGoNegative(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	repo.addSplit(mar(4), 2000, 2, false) // profit 1000, half 500
	_, err := svc.AddPayout(ctx, PayoutInput{Date: mar(25), Amount: 800})
	require.NoError(t, err)

	out, err := svc.MonthOverview(ctx, "2025-03")
	require.NoError(t, err)
	require.Equal(t, 500.0, out.IndividualProfit)
	require.Equal(t, -300.0, out.PayoutDue)
}

func TestTotalsExcludeSplitsOutsideWindow(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	repo.addSplit(mar(4), 1000, 2, false)
	repo.addSplit(time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), 1000, 2, false)

	totals, err := svc.TotalsFromSplits(ctx, window(t, "2025-03"))
	require.NoError(t, err)
	require.Equal(t, 500.0, totals.GrossProfit)
	require.Equal(t, 250.0, totals.HalfProfitTotal)
}

func TestPendingHalfProfitSkipsSettledSplits(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	repo.addSplit(mar(4), 1000, 2, true)  // half 250, settled
	repo.addSplit(mar(5), 1000, 2, false) // half 250, pending

	totals, err := svc.TotalsFromSplits(ctx, window(t, "2025-03"))
	require.NoError(t, err)
	require.Equal(t, 500.0, totals.HalfProfitTotal)
	require.Equal(t, 250.0, totals.HalfProfitPending)
}

func TestDefaultSplitsYieldNoProfit(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	repo.addSplit(mar(4), 9000, 1, false)

	totals, err := svc.TotalsFromSplits(ctx, window(t, "2025-03"))
	require.NoError(t, err)
	require.Equal(t, 0.0, totals.GrossProfit)
	require.Equal(t, 0.0, totals.HalfProfitTotal)
}

func TestAddExpenseValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.AddExpense(ctx, ExpenseInput{Label: "   ", Amount: 10})
	require.ErrorIs(t, err, shared.ErrValidation)

	created, err := svc.AddExpense(ctx, ExpenseInput{Label: "envíos", Amount: -250})
	require.NoError(t, err)
	require.Equal(t, 250.0, created.Amount)
	require.False(t, created.Date.IsZero())
}

func TestAvailableMonthsFallsBackToCurrent(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return mar(15) }

	months, err := svc.AvailableMonths(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"2025-03"}, months)

	repo.months = []string{"2025-03", "2025-02"}
	months, err = svc.AvailableMonths(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"2025-03", "2025-02"}, months)
}

func TestMonthOverviewRejectsBadKey(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	_, err := svc.MonthOverview(context.Background(), "March 2025")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestExpenseAndPayoutDeletesAreNoops(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRepo(), nil)
	require.NoError(t, svc.DeleteExpense(ctx, 404))
	require.NoError(t, svc.DeletePayout(ctx, 404))
}
