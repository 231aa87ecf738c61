package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/reventa-app/reventa/internal/shared"
)

// RepositoryPort defines data access methods for the ledger.
type RepositoryPort interface {
	CreateReseller(ctx context.Context, name string) (*Reseller, error)
	RenameReseller(ctx context.Context, id int64, name string) error
	DeleteReseller(ctx context.Context, id int64) error
	GetReseller(ctx context.Context, id int64) (*Reseller, error)
	ListResellers(ctx context.Context, query string) ([]Reseller, error)

	InsertMovement(ctx context.Context, in AppendMovementInput) (*Movement, error)
	UpdateMovement(ctx context.Context, id int64, in UpdateMovementInput) error
	DeleteMovement(ctx context.Context, id int64) error
	GetMovement(ctx context.Context, id int64) (*Movement, error)
	ListMovements(ctx context.Context, resellerID int64) ([]Movement, error)
	ListOutgoings(ctx context.Context, resellerID int64) ([]Movement, error)

	Balance(ctx context.Context, resellerID int64) (float64, error)
}

// OverviewInvalidator drops a cached settlement rollup when a payment row
// changes; payment dates and amounts feed the month overview.
type OverviewInvalidator interface {
	InvalidateMonth(ctx context.Context, monthKey string)
}

// Service handles ledger business logic.
type Service struct {
	repo      RepositoryPort
	cache     *BalanceCache
	overviews OverviewInvalidator
	now       func() time.Time
}

// NewService builds a Service instance. cache may be nil.
func NewService(repo RepositoryPort, cache *BalanceCache) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

// SetOverviewInvalidator wires the settlement rollup cache; nil disables it.
func (s *Service) SetOverviewInvalidator(inv OverviewInvalidator) {
	s.overviews = inv
}

func (s *Service) dropMonthRollup(ctx context.Context, kind MovementKind, date time.Time) {
	if s.overviews == nil || kind != KindPayment {
		return
	}
	s.overviews.InvalidateMonth(ctx, shared.MonthKey(date))
}

// CreateReseller registers a new counterparty.
func (s *Service) CreateReseller(ctx context.Context, name string) (*Reseller, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: reseller name required", shared.ErrValidation)
	}
	return s.repo.CreateReseller(ctx, name)
}

// RenameReseller changes the unique name.
func (s *Service) RenameReseller(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: reseller name required", shared.ErrValidation)
	}
	return s.repo.RenameReseller(ctx, id, name)
}

// DeleteReseller removes the reseller and, through the store's referential
// integrity, all of its movements.
func (s *Service) DeleteReseller(ctx context.Context, id int64) error {
	if err := s.repo.DeleteReseller(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, id)
	return nil
}

// GetReseller fetches one reseller with its current balance.
func (s *Service) GetReseller(ctx context.Context, id int64) (*Reseller, error) {
	res, err := s.repo.GetReseller(ctx, id)
	if err != nil {
		return nil, err
	}
	res.Balance, err = s.Balance(ctx, id)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListResellers returns all resellers (optionally name-filtered), each with
// its balance for display.
func (s *Service) ListResellers(ctx context.Context, query string) ([]Reseller, error) {
	out, err := s.repo.ListResellers(ctx, query)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Balance, err = s.Balance(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// AppendMovement validates and appends one manual ledger entry. Amount and
// quantity are coerced non-negative; the date defaults to today.
func (s *Service) AppendMovement(ctx context.Context, in AppendMovementInput) (*Movement, error) {
	if !in.Kind.Valid() {
		return nil, fmt.Errorf("%w: movement kind %q", shared.ErrValidation, in.Kind)
	}
	if _, err := s.repo.GetReseller(ctx, in.ResellerID); err != nil {
		return nil, err
	}
	in.Description = strings.TrimSpace(in.Description)
	in.Amount = math.Abs(in.Amount)
	if in.Quantity < 0 {
		in.Quantity = -in.Quantity
	}
	if in.Date.IsZero() {
		in.Date = s.now()
	}
	in.Date = truncateDay(in.Date)

	m, err := s.repo.InsertMovement(ctx, in)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, in.ResellerID)
	s.dropMonthRollup(ctx, in.Kind, in.Date)
	return m, nil
}

// UpdateMovement overwrites an entry in place.
func (s *Service) UpdateMovement(ctx context.Context, id int64, in UpdateMovementInput) error {
	if !in.Kind.Valid() {
		return fmt.Errorf("%w: movement kind %q", shared.ErrValidation, in.Kind)
	}
	existing, err := s.repo.GetMovement(ctx, id)
	if err != nil {
		return err
	}
	in.Description = strings.TrimSpace(in.Description)
	in.Amount = math.Abs(in.Amount)
	if in.Quantity < 0 {
		in.Quantity = -in.Quantity
	}
	if in.Date.IsZero() {
		in.Date = existing.Date
	}
	in.Date = truncateDay(in.Date)

	if err := s.repo.UpdateMovement(ctx, id, in); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, existing.ResellerID)
	// Both the pre-edit and post-edit months can change totals.
	s.dropMonthRollup(ctx, existing.Kind, existing.Date)
	s.dropMonthRollup(ctx, in.Kind, in.Date)
	return nil
}

// DeleteMovement removes one entry; deleting an absent id is a no-op.
func (s *Service) DeleteMovement(ctx context.Context, id int64) error {
	existing, err := s.repo.GetMovement(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.repo.DeleteMovement(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, existing.ResellerID)
	s.dropMonthRollup(ctx, existing.Kind, existing.Date)
	return nil
}

// GetMovement fetches a single entry.
func (s *Service) GetMovement(ctx context.Context, id int64) (*Movement, error) {
	return s.repo.GetMovement(ctx, id)
}

// ListMovements returns a reseller's entries newest first.
func (s *Service) ListMovements(ctx context.Context, resellerID int64) ([]Movement, error) {
	return s.repo.ListMovements(ctx, resellerID)
}

// ListOutgoings returns only the delivery-debit entries.
func (s *Service) ListOutgoings(ctx context.Context, resellerID int64) ([]Movement, error) {
	return s.repo.ListOutgoings(ctx, resellerID)
}

// Balance returns the reseller's running balance, served from cache when
// possible and recomputed from the store otherwise.
func (s *Service) Balance(ctx context.Context, resellerID int64) (float64, error) {
	if v, ok := s.cache.Get(ctx, resellerID); ok {
		return v, nil
	}
	v, err := s.repo.Balance(ctx, resellerID)
	if err != nil {
		return 0, err
	}
	s.cache.Set(ctx, resellerID, v)
	return v, nil
}

// InvalidateBalance drops the cached balance; used by the delivery module
// after it posts or removes debit movements in its own transaction.
func (s *Service) InvalidateBalance(ctx context.Context, resellerID int64) {
	s.cache.Invalidate(ctx, resellerID)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
