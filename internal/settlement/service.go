package settlement

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/reventa-app/reventa/internal/shared"
	"github.com/reventa-app/reventa/internal/splits"
)

// RepositoryPort defines data access methods for settlement rollups.
type RepositoryPort interface {
	ListWindowSplits(ctx context.Context, from, to time.Time) ([]splits.Split, error)

	ListExpenses(ctx context.Context, from, to time.Time) ([]Expense, error)
	GetExpense(ctx context.Context, id int64) (*Expense, error)
	InsertExpense(ctx context.Context, in ExpenseInput) (*Expense, error)
	DeleteExpense(ctx context.Context, id int64) error

	ListPayouts(ctx context.Context, from, to time.Time) ([]Payout, error)
	GetPayout(ctx context.Context, id int64) (*Payout, error)
	InsertPayout(ctx context.Context, in PayoutInput) (*Payout, error)
	DeletePayout(ctx context.Context, id int64) error

	AvailableMonths(ctx context.Context) ([]string, error)
}

// Service handles settlement business logic. All operations are pure
// aggregations over the persisted rows.
type Service struct {
	repo  RepositoryPort
	cache *OverviewCache
	now   func() time.Time
}

// NewService builds a Service instance. cache may be nil.
func NewService(repo RepositoryPort, cache *OverviewCache) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

// TotalsFromSplits sums profit and half-profit over every split whose parent
// payment falls inside the window.
func (s *Service) TotalsFromSplits(ctx context.Context, w shared.MonthWindow) (SplitTotals, error) {
	rows, err := s.repo.ListWindowSplits(ctx, w.From, w.To)
	if err != nil {
		return SplitTotals{}, err
	}
	return sumSplits(rows), nil
}

// ExpensesTotal sums the window's shared expenses.
func (s *Service) ExpensesTotal(ctx context.Context, w shared.MonthWindow) (float64, error) {
	rows, err := s.repo.ListExpenses(ctx, w.From, w.To)
	if err != nil {
		return 0, err
	}
	return shared.F2(sumExpenses(rows)), nil
}

// AddExpense validates and appends one shared expense.
func (s *Service) AddExpense(ctx context.Context, in ExpenseInput) (*Expense, error) {
	in.Label = strings.TrimSpace(in.Label)
	if in.Label == "" {
		return nil, fmt.Errorf("%w: expense label required", shared.ErrValidation)
	}
	in.Amount = math.Abs(in.Amount)
	if in.Date.IsZero() {
		in.Date = s.now()
	}
	in.Date = truncateDay(in.Date)
	created, err := s.repo.InsertExpense(ctx, in)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, shared.MonthKey(created.Date))
	return created, nil
}

// DeleteExpense removes one expense; absent ids are a no-op.
func (s *Service) DeleteExpense(ctx context.Context, id int64) error {
	existing, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, shared.MonthKey(existing.Date))
	return nil
}

// ListExpenses returns the window's expenses, oldest first.
func (s *Service) ListExpenses(ctx context.Context, monthKey string) ([]Expense, error) {
	w, err := shared.ParseMonth(monthKey)
	if err != nil {
		return nil, err
	}
	return s.repo.ListExpenses(ctx, w.From, w.To)
}

// AddPayout records a cash transfer to the partner; the note is optional.
func (s *Service) AddPayout(ctx context.Context, in PayoutInput) (*Payout, error) {
	in.Note = strings.TrimSpace(in.Note)
	in.Amount = math.Abs(in.Amount)
	if in.Date.IsZero() {
		in.Date = s.now()
	}
	in.Date = truncateDay(in.Date)
	created, err := s.repo.InsertPayout(ctx, in)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, shared.MonthKey(created.Date))
	return created, nil
}

// DeletePayout removes one payout; absent ids are a no-op.
func (s *Service) DeletePayout(ctx context.Context, id int64) error {
	existing, err := s.repo.GetPayout(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.repo.DeletePayout(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, shared.MonthKey(existing.Date))
	return nil
}

// ListPayouts returns the window's payouts, oldest first.
func (s *Service) ListPayouts(ctx context.Context, monthKey string) ([]Payout, error) {
	w, err := shared.ParseMonth(monthKey)
	if err != nil {
		return nil, err
	}
	return s.repo.ListPayouts(ctx, w.From, w.To)
}

// AvailableMonths lists the months that have payment movements, newest
// first. With no payments at all it falls back to the current month so a
// fresh dataset still has a month to open.
func (s *Service) AvailableMonths(ctx context.Context) ([]string, error) {
	months, err := s.repo.AvailableMonths(ctx)
	if err != nil {
		return nil, err
	}
	if len(months) == 0 {
		months = []string{shared.MonthKey(s.now())}
	}
	return months, nil
}

// MonthOverview computes the full rollup for one month. The three ledgers
// are read concurrently; the arithmetic runs on decimals and is quantised to
// two decimals at the end.
func (s *Service) MonthOverview(ctx context.Context, monthKey string) (*MonthOverview, error) {
	w, err := shared.ParseMonth(monthKey)
	if err != nil {
		return nil, err
	}
	if cached, ok := s.cache.Get(ctx, w.Key); ok {
		return cached, nil
	}

	var (
		windowSplits []splits.Split
		expenses     []Expense
		payouts      []Payout
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		windowSplits, err = s.repo.ListWindowSplits(gctx, w.From, w.To)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.repo.ListExpenses(gctx, w.From, w.To)
		return err
	})
	g.Go(func() error {
		var err error
		payouts, err = s.repo.ListPayouts(gctx, w.From, w.To)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	totals := sumSplits(windowSplits)
	expensesTotal := sumExpenses(expenses)
	payoutsTotal := shared.Dec(0)
	for _, p := range payouts {
		payoutsTotal = payoutsTotal.Add(shared.Dec(p.Amount))
	}

	individual := shared.Round2(shared.Dec(totals.HalfProfitTotal).Sub(shared.Half(expensesTotal)))
	due := shared.Round2(individual.Sub(payoutsTotal))
	net := shared.Round2(shared.Dec(totals.GrossProfit).Sub(expensesTotal))

	out := &MonthOverview{
		Month:            w.Key,
		Totals:           totals,
		ExpensesTotal:    shared.F2(expensesTotal),
		PayoutsTotal:     shared.F2(payoutsTotal),
		NetProfit:        shared.F2(net),
		IndividualProfit: shared.F2(individual),
		PayoutDue:        shared.F2(due),
		Expenses:         expenses,
		Payouts:          payouts,
	}
	s.cache.Set(ctx, w.Key, out)
	return out, nil
}

// InvalidateMonth drops a cached overview after splits or movements change
// outside this module.
func (s *Service) InvalidateMonth(ctx context.Context, monthKey string) {
	s.cache.Invalidate(ctx, monthKey)
}

func sumSplits(rows []splits.Split) SplitTotals {
	gross, half, pending := shared.Dec(0), shared.Dec(0), shared.Dec(0)
	for _, sp := range rows {
		f := sp.Derive()
		gross = gross.Add(shared.Dec(f.Profit))
		half = half.Add(shared.Dec(f.HalfProfit))
		if !sp.Settled {
			pending = pending.Add(shared.Dec(f.HalfProfit))
		}
	}
	return SplitTotals{
		GrossProfit:       shared.F2(gross),
		HalfProfitTotal:   shared.F2(half),
		HalfProfitPending: shared.F2(pending),
	}
}

func sumExpenses(rows []Expense) decimal.Decimal {
	total := shared.Dec(0)
	for _, e := range rows {
		total = total.Add(shared.Dec(e.Amount))
	}
	return total
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
