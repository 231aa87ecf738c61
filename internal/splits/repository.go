package splits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reventa-app/reventa/internal/ledger"
	"github.com/reventa-app/reventa/internal/platform/db"
	"github.com/reventa-app/reventa/internal/shared"
)

// Repository persists payment splits in Postgres. It reads payment rows from
// the movements table directly; splits always hang off a kind=payment row.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const paymentSelect = `
	SELECT m.id, m.reseller_id, r.name, m.date, m.description, m.amount, m.channel
	FROM movements m
	JOIN resellers r ON r.id = m.reseller_id
`

// TxRepository covers the reads and writes of split auto-initialisation,
// which must share one transaction: the first-open check and the default
// insert cannot interleave across two openings of the same payment.
type TxRepository interface {
	LockPayment(ctx context.Context, movementID int64) (*Payment, error)
	ListSplits(ctx context.Context, movementID int64) ([]Split, error)
	InsertSplit(ctx context.Context, s Split) (*Split, error)
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps fn in a single read-committed transaction. Initialisation
// serialises on the payment row lock; read-committed lets the re-read after
// the lock observe a default split a concurrent first-open just committed.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	return db.WithTxOptions(ctx, r.pool, opts, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// LockPayment fetches the payment and holds its row lock until commit.
func (t *txRepo) LockPayment(ctx context.Context, movementID int64) (*Payment, error) {
	row := t.tx.QueryRow(ctx, paymentSelect+` WHERE m.id = $1 AND m.kind = $2 FOR UPDATE OF m`,
		movementID, ledger.KindPayment)
	return scanPayment(row)
}

func (t *txRepo) ListSplits(ctx context.Context, movementID int64) ([]Split, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, movement_id, portion, divisor, settled
		 FROM payment_splits WHERE movement_id = $1 ORDER BY id`, movementID)
	if err != nil {
		return nil, fmt.Errorf("list splits: %w", err)
	}
	defer rows.Close()
	return collectSplits(rows)
}

func (t *txRepo) InsertSplit(ctx context.Context, s Split) (*Split, error) {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO payment_splits (movement_id, portion, divisor, settled)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		s.MovementID, s.Portion, s.Divisor, s.Settled).Scan(&s.ID)
	if err != nil {
		return nil, shared.MapDBError(fmt.Errorf("insert split: %w", err))
	}
	return &s, nil
}

func (r *Repository) GetPayment(ctx context.Context, movementID int64) (*Payment, error) {
	row := r.pool.QueryRow(ctx, paymentSelect+` WHERE m.id = $1 AND m.kind = $2`,
		movementID, ledger.KindPayment)
	return scanPayment(row)
}

func (r *Repository) ListMonthPayments(ctx context.Context, from, to time.Time) ([]Payment, error) {
	rows, err := r.pool.Query(ctx,
		paymentSelect+` WHERE m.kind = $1 AND m.date BETWEEN $2 AND $3 ORDER BY m.date, m.id`,
		ledger.KindPayment, from, to)
	if err != nil {
		return nil, fmt.Errorf("list month payments: %w", err)
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *Repository) ListSplits(ctx context.Context, movementID int64) ([]Split, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, movement_id, portion, divisor, settled
		 FROM payment_splits WHERE movement_id = $1 ORDER BY id`, movementID)
	if err != nil {
		return nil, fmt.Errorf("list splits: %w", err)
	}
	defer rows.Close()
	return collectSplits(rows)
}

func collectSplits(rows pgx.Rows) ([]Split, error) {
	var out []Split
	for rows.Next() {
		var s Split
		if err := rows.Scan(&s.ID, &s.MovementID, &s.Portion, &s.Divisor, &s.Settled); err != nil {
			return nil, fmt.Errorf("scan split: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) GetSplit(ctx context.Context, id int64) (*Split, error) {
	var s Split
	err := r.pool.QueryRow(ctx,
		`SELECT id, movement_id, portion, divisor, settled FROM payment_splits WHERE id = $1`, id).
		Scan(&s.ID, &s.MovementID, &s.Portion, &s.Divisor, &s.Settled)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get split: %w", err)
	}
	return &s, nil
}

func (r *Repository) InsertSplit(ctx context.Context, s Split) (*Split, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO payment_splits (movement_id, portion, divisor, settled)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		s.MovementID, s.Portion, s.Divisor, s.Settled).Scan(&s.ID)
	if err != nil {
		return nil, shared.MapDBError(fmt.Errorf("insert split: %w", err))
	}
	return &s, nil
}

func (r *Repository) UpdateSplit(ctx context.Context, id int64, in UpdateSplitInput) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE payment_splits SET portion = $2, divisor = $3, settled = $4 WHERE id = $1`,
		id, in.Portion, in.Divisor, in.Settled)
	if err != nil {
		return fmt.Errorf("update split: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteSplit(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM payment_splits WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete split: %w", err)
	}
	return nil
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.MovementID, &p.ResellerID, &p.ResellerName, &p.Date,
		&p.Description, &p.Amount, &p.Channel)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	return &p, nil
}
