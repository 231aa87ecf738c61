package splits

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/reventa-app/reventa/internal/shared"
)

// RepositoryPort defines data access methods for splits.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	GetPayment(ctx context.Context, movementID int64) (*Payment, error)
	ListMonthPayments(ctx context.Context, from, to time.Time) ([]Payment, error)

	ListSplits(ctx context.Context, movementID int64) ([]Split, error)
	GetSplit(ctx context.Context, id int64) (*Split, error)
	InsertSplit(ctx context.Context, s Split) (*Split, error)
	UpdateSplit(ctx context.Context, id int64, in UpdateSplitInput) error
	DeleteSplit(ctx context.Context, id int64) error
}

// OverviewInvalidator drops a cached month rollup after a split write; split
// rows are the primary input of the settlement overview.
type OverviewInvalidator interface {
	InvalidateMonth(ctx context.Context, monthKey string)
}

// Service handles payment split business logic.
type Service struct {
	repo      RepositoryPort
	overviews OverviewInvalidator
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// SetOverviewInvalidator wires the settlement rollup cache; nil disables it.
func (s *Service) SetOverviewInvalidator(inv OverviewInvalidator) {
	s.overviews = inv
}

// GetOrInitSplits returns the breakdown of one payment, creating the default
// whole-amount split (divisor 1) the first time the payment is opened. The
// check and the insert run in one transaction holding the payment row lock,
// so two concurrent first-opens cannot both create the default.
func (s *Service) GetOrInitSplits(ctx context.Context, movementID int64) (*PaymentSplits, error) {
	var (
		p        *Payment
		existing []Split
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		p, err = tx.LockPayment(ctx, movementID)
		if err != nil {
			return err
		}
		existing, err = tx.ListSplits(ctx, movementID)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			created, err := tx.InsertSplit(ctx, Split{
				MovementID: movementID,
				Portion:    p.Amount,
				Divisor:    1,
			})
			if err != nil {
				return err
			}
			existing = []Split{*created}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summarize(*p, existing), nil
}

// AddSplit appends one portion to a payment; the divisor starts at 1.
func (s *Service) AddSplit(ctx context.Context, movementID int64, portion float64) (*SplitView, error) {
	p, err := s.repo.GetPayment(ctx, movementID)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.InsertSplit(ctx, Split{
		MovementID: movementID,
		Portion:    math.Abs(portion),
		Divisor:    1,
	})
	if err != nil {
		return nil, err
	}
	s.dropMonthRollup(ctx, p.Date)
	return &SplitView{Split: *created, Figures: created.Derive()}, nil
}

// UpdateSplit overwrites a split's portion, divisor and settled flag.
func (s *Service) UpdateSplit(ctx context.Context, id int64, in UpdateSplitInput) (*SplitView, error) {
	if in.Divisor < 1 {
		return nil, fmt.Errorf("%w: divisor must be at least 1", shared.ErrValidation)
	}
	in.Portion = math.Abs(in.Portion)
	if err := s.repo.UpdateSplit(ctx, id, in); err != nil {
		return nil, err
	}
	updated, err := s.repo.GetSplit(ctx, id)
	if err != nil {
		return nil, err
	}
	s.dropPaymentMonthRollup(ctx, updated.MovementID)
	return &SplitView{Split: *updated, Figures: updated.Derive()}, nil
}

// DeleteSplit removes one split; deleting an absent id is a no-op.
func (s *Service) DeleteSplit(ctx context.Context, id int64) error {
	existing, err := s.repo.GetSplit(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.repo.DeleteSplit(ctx, id); err != nil {
		return err
	}
	s.dropPaymentMonthRollup(ctx, existing.MovementID)
	return nil
}

// ListMonthPayments returns the payments of one YYYY-MM month, oldest first,
// with reseller names resolved.
func (s *Service) ListMonthPayments(ctx context.Context, monthKey string) ([]Payment, error) {
	w, err := shared.ParseMonth(monthKey)
	if err != nil {
		return nil, err
	}
	return s.repo.ListMonthPayments(ctx, w.From, w.To)
}

func (s *Service) dropMonthRollup(ctx context.Context, date time.Time) {
	if s.overviews == nil {
		return
	}
	s.overviews.InvalidateMonth(ctx, shared.MonthKey(date))
}

// dropPaymentMonthRollup resolves the split's parent payment to find the
// affected month. A failed lookup leaves the cache to its TTL; the stored
// rows are already correct.
func (s *Service) dropPaymentMonthRollup(ctx context.Context, movementID int64) {
	if s.overviews == nil {
		return
	}
	p, err := s.repo.GetPayment(ctx, movementID)
	if err != nil {
		return
	}
	s.overviews.InvalidateMonth(ctx, shared.MonthKey(p.Date))
}

func summarize(p Payment, raw []Split) *PaymentSplits {
	out := &PaymentSplits{Payment: p, Splits: make([]SplitView, 0, len(raw))}
	portionTotal := shared.Dec(0)
	for _, sp := range raw {
		portionTotal = portionTotal.Add(shared.Dec(sp.Portion))
		out.Splits = append(out.Splits, SplitView{Split: sp, Figures: sp.Derive()})
	}
	out.PortionTotal = shared.F2(portionTotal)
	out.Delta = shared.F2(shared.Dec(p.Amount).Sub(portionTotal))
	return out
}
