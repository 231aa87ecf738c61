package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reventa-app/reventa/internal/shared"
)

// Repository persists stock counters in Postgres. The label column carries a
// unique constraint; the count clamp lives in the update statements so the
// counter can never be driven negative.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) InsertItem(ctx context.Context, label string, count int) (*Item, error) {
	it := Item{Label: label, Count: count}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO stock_items (label, count) VALUES ($1, $2) RETURNING id`,
		label, count).Scan(&it.ID)
	if err != nil {
		return nil, shared.MapDBError(fmt.Errorf("insert stock item: %w", err))
	}
	return &it, nil
}

func (r *Repository) DeleteItem(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM stock_items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete stock item: %w", err)
	}
	return nil
}

func (r *Repository) GetItem(ctx context.Context, id int64) (*Item, error) {
	var it Item
	err := r.pool.QueryRow(ctx,
		`SELECT id, label, count FROM stock_items WHERE id = $1`, id).
		Scan(&it.ID, &it.Label, &it.Count)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get stock item: %w", err)
	}
	return &it, nil
}

func (r *Repository) ListItems(ctx context.Context, search string) ([]Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, label, count FROM stock_items
		 WHERE $1 = '' OR label ILIKE '%' || $1 || '%'
		 ORDER BY lower(label)`, search)
	if err != nil {
		return nil, fmt.Errorf("list stock items: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Label, &it.Count); err != nil {
			return nil, fmt.Errorf("scan stock item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ApplyDelta shifts one counter, clamped at zero. Unknown ids report
// not-found.
func (r *Repository) ApplyDelta(ctx context.Context, id int64, delta int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE stock_items SET count = GREATEST(0, count + $2) WHERE id = $1`, id, delta)
	if err != nil {
		return fmt.Errorf("apply stock delta: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ApplyDeltaByLabel shifts the counter matching label, clamped at zero.
// Labels with no counter are left alone; delivery lines are free text and
// only some of them track stock.
func (r *Repository) ApplyDeltaByLabel(ctx context.Context, label string, delta int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE stock_items SET count = GREATEST(0, count + $2) WHERE lower(label) = lower($1)`,
		label, delta)
	if err != nil {
		return fmt.Errorf("apply stock delta by label: %w", err)
	}
	return nil
}
