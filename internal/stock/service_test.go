package stock

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reventa-app/reventa/internal/shared"
)

type memoryRepo struct {
	items  map[int64]*Item
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[int64]*Item)}
}

func (r *memoryRepo) InsertItem(ctx context.Context, label string, count int) (*Item, error) {
	for _, it := range r.items {
		if strings.EqualFold(it.Label, label) {
			return nil, shared.ErrDuplicate
		}
	}
	r.nextID++
	it := &Item{ID: r.nextID, Label: label, Count: count}
	r.items[it.ID] = it
	copied := *it
	return &copied, nil
}

func (r *memoryRepo) DeleteItem(ctx context.Context, id int64) error {
	delete(r.items, id)
	return nil
}

func (r *memoryRepo) GetItem(ctx context.Context, id int64) (*Item, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *it
	return &copied, nil
}

func (r *memoryRepo) ListItems(ctx context.Context, search string) ([]Item, error) {
	var out []Item
	for _, it := range r.items {
		if search == "" || strings.Contains(strings.ToLower(it.Label), strings.ToLower(search)) {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (r *memoryRepo) ApplyDelta(ctx context.Context, id int64, delta int) error {
	it, ok := r.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	it.Count += delta
	if it.Count < 0 {
		it.Count = 0
	}
	return nil
}

func (r *memoryRepo) ApplyDeltaByLabel(ctx context.Context, label string, delta int) error {
	for id, it := range r.items {
		if strings.EqualFold(it.Label, label) {
			return r.ApplyDelta(ctx, id, delta)
		}
	}
	return nil
}

func TestCounterClampsAtZero(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo)

	it, err := svc.AddItem(ctx, "Remeras", 3)
	require.NoError(t, err)

	require.NoError(t, svc.ApplyDelta(ctx, it.ID, -5))
	got, err := svc.GetItem(ctx, it.ID)
	require.NoError(t, err)
	require.Equal(t, 0, got.Count)

	require.NoError(t, svc.ApplyDelta(ctx, it.ID, 7))
	got, _ = svc.GetItem(ctx, it.ID)
	require.Equal(t, 7, got.Count)
}

func TestAddItemValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRepo())

	_, err := svc.AddItem(ctx, "   ", 1)
	require.ErrorIs(t, err, shared.ErrValidation)

	it, err := svc.AddItem(ctx, "Remeras", -4)
	require.NoError(t, err)
	require.Equal(t, 0, it.Count)
}

func TestDuplicateLabelRejected(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRepo())

	_, err := svc.AddItem(ctx, "Remeras", 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "Remeras", 2)
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestApplyDeltaByUnknownLabelIsNoop(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRepo())
	require.NoError(t, svc.ApplyDeltaByLabel(ctx, "inexistente", -3))
	require.NoError(t, svc.ApplyDeltaByLabel(ctx, "  ", -3))
}

func TestApplyDeltaUnknownIDIsNotFound(t *testing.T) {
	svc := NewService(newMemoryRepo())
	err := svc.ApplyDelta(context.Background(), 404, -1)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListItemsFiltersBySubstring(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRepo())
	_, _ = svc.AddItem(ctx, "Remera azul", 1)
	_, _ = svc.AddItem(ctx, "Pantalón", 1)

	out, err := svc.ListItems(ctx, "remera")
	require.NoError(t, err)
	require.Len(t, out, 1)
}
