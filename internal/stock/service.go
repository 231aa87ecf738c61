package stock

import (
	"context"
	"fmt"
	"strings"

	"github.com/reventa-app/reventa/internal/shared"
)

// RepositoryPort defines data access methods for stock counters.
type RepositoryPort interface {
	InsertItem(ctx context.Context, label string, count int) (*Item, error)
	DeleteItem(ctx context.Context, id int64) error
	GetItem(ctx context.Context, id int64) (*Item, error)
	ListItems(ctx context.Context, search string) ([]Item, error)
	ApplyDelta(ctx context.Context, id int64, delta int) error
	ApplyDeltaByLabel(ctx context.Context, label string, delta int) error
}

// Service handles stock counter business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// AddItem registers a counter under a unique label.
func (s *Service) AddItem(ctx context.Context, label string, count int) (*Item, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, fmt.Errorf("%w: stock label required", shared.ErrValidation)
	}
	if count < 0 {
		count = 0
	}
	return s.repo.InsertItem(ctx, label, count)
}

// DeleteItem removes one counter; absent ids are a no-op.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	return s.repo.DeleteItem(ctx, id)
}

// GetItem fetches one counter.
func (s *Service) GetItem(ctx context.Context, id int64) (*Item, error) {
	return s.repo.GetItem(ctx, id)
}

// ListItems returns counters, optionally filtered by a label substring.
func (s *Service) ListItems(ctx context.Context, search string) ([]Item, error) {
	return s.repo.ListItems(ctx, strings.TrimSpace(search))
}

// ApplyDelta shifts one counter by id; the store clamps at zero.
func (s *Service) ApplyDelta(ctx context.Context, id int64, delta int) error {
	return s.repo.ApplyDelta(ctx, id, delta)
}

// ApplyDeltaByLabel shifts the counter matching a delivery line label.
// Unmatched labels are ignored.
func (s *Service) ApplyDeltaByLabel(ctx context.Context, label string, delta int) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil
	}
	return s.repo.ApplyDeltaByLabel(ctx, label, delta)
}
