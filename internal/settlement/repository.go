package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reventa-app/reventa/internal/ledger"
	"github.com/reventa-app/reventa/internal/shared"
	"github.com/reventa-app/reventa/internal/splits"
)

// Repository reads the three underlying ledgers for settlement rollups.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListWindowSplits returns every split whose parent payment dates inside
// [from, to].
func (r *Repository) ListWindowSplits(ctx context.Context, from, to time.Time) ([]splits.Split, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.movement_id, s.portion, s.divisor, s.settled
		 FROM payment_splits s
		 JOIN movements m ON m.id = s.movement_id
		 WHERE m.kind = $1 AND m.date BETWEEN $2 AND $3
		 ORDER BY s.id`,
		ledger.KindPayment, from, to)
	if err != nil {
		return nil, fmt.Errorf("list window splits: %w", err)
	}
	defer rows.Close()

	var out []splits.Split
	for rows.Next() {
		var s splits.Split
		if err := rows.Scan(&s.ID, &s.MovementID, &s.Portion, &s.Divisor, &s.Settled); err != nil {
			return nil, fmt.Errorf("scan window split: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) ListExpenses(ctx context.Context, from, to time.Time) ([]Expense, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, date, label, amount FROM expenses
		 WHERE date BETWEEN $1 AND $2 ORDER BY date, id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.Date, &e.Label, &e.Amount); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) GetExpense(ctx context.Context, id int64) (*Expense, error) {
	var e Expense
	err := r.pool.QueryRow(ctx,
		`SELECT id, date, label, amount FROM expenses WHERE id = $1`, id).
		Scan(&e.ID, &e.Date, &e.Label, &e.Amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return &e, nil
}

func (r *Repository) InsertExpense(ctx context.Context, in ExpenseInput) (*Expense, error) {
	e := Expense{Date: in.Date, Label: in.Label, Amount: in.Amount}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO expenses (date, label, amount) VALUES ($1, $2, $3) RETURNING id`,
		in.Date, in.Label, in.Amount).Scan(&e.ID)
	if err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}
	return &e, nil
}

func (r *Repository) DeleteExpense(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

func (r *Repository) ListPayouts(ctx context.Context, from, to time.Time) ([]Payout, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, date, COALESCE(note, ''), amount FROM payouts
		 WHERE date BETWEEN $1 AND $2 ORDER BY date, id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}
	defer rows.Close()

	var out []Payout
	for rows.Next() {
		var p Payout
		if err := rows.Scan(&p.ID, &p.Date, &p.Note, &p.Amount); err != nil {
			return nil, fmt.Errorf("scan payout: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) GetPayout(ctx context.Context, id int64) (*Payout, error) {
	var p Payout
	err := r.pool.QueryRow(ctx,
		`SELECT id, date, COALESCE(note, ''), amount FROM payouts WHERE id = $1`, id).
		Scan(&p.ID, &p.Date, &p.Note, &p.Amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payout: %w", err)
	}
	return &p, nil
}

func (r *Repository) InsertPayout(ctx context.Context, in PayoutInput) (*Payout, error) {
	p := Payout{Date: in.Date, Note: in.Note, Amount: in.Amount}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO payouts (date, note, amount) VALUES ($1, $2, $3) RETURNING id`,
		in.Date, in.Note, in.Amount).Scan(&p.ID)
	if err != nil {
		return nil, fmt.Errorf("insert payout: %w", err)
	}
	return &p, nil
}

func (r *Repository) DeletePayout(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM payouts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete payout: %w", err)
	}
	return nil
}

// AvailableMonths lists the distinct YYYY-MM keys present among payment
// movements, newest first.
func (r *Repository) AvailableMonths(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT to_char(date, 'YYYY-MM') FROM movements
		 WHERE kind = $1 ORDER BY 1 DESC`, ledger.KindPayment)
	if err != nil {
		return nil, fmt.Errorf("available months: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan month: %w", err)
		}
		out = append(out, key)
	}
	return out, rows.Err()
}
