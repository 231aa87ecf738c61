package delivery

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reventa-app/reventa/internal/ledger"
	"github.com/reventa-app/reventa/internal/platform/db"
	"github.com/reventa-app/reventa/internal/shared"
)

// Repository provides PostgreSQL backed persistence for deliveries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations that must share one transaction:
// sequence assignment, header + item inserts, the debit movement, and the
// back-link. A crash mid-way must never leave a delivery without its
// movement or vice versa.
type TxRepository interface {
	NextSeq(ctx context.Context) (int64, error)
	InsertDelivery(ctx context.Context, d Delivery) (int64, error)
	InsertItem(ctx context.Context, it Item) (int64, error)
	InsertDebitMovement(ctx context.Context, resellerID int64, date time.Time, description string, amount float64, seq int64) (int64, error)
	LinkMovement(ctx context.Context, deliveryID, movementID int64) error
	DeleteDelivery(ctx context.Context, id int64) error
	DeleteMovement(ctx context.Context, movementID int64) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps fn in a single transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// NextSeq assigns max(seq)+1, computed inside the caller's transaction so
// two concurrent posts cannot claim the same number. A dedicated sequence
// would replace this under a multi-writer deployment.
func (t *txRepo) NextSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := t.tx.QueryRow(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM deliveries`).Scan(&seq)
	return seq, err
}

func (t *txRepo) InsertDelivery(ctx context.Context, d Delivery) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO deliveries (seq, reseller_id, buyer_name, date, total) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		d.Seq, d.ResellerID, d.BuyerName, d.Date, d.Total).Scan(&id)
	if err != nil {
		return 0, shared.MapDBError(err)
	}
	return id, nil
}

func (t *txRepo) InsertItem(ctx context.Context, it Item) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO delivery_items (delivery_id, label, quantity, unit_price, total) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		it.DeliveryID, it.Label, it.Quantity, it.UnitPrice, it.Total).Scan(&id)
	return id, err
}

func (t *txRepo) InsertDebitMovement(ctx context.Context, resellerID int64, date time.Time, description string, amount float64, seq int64) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO movements (reseller_id, date, kind, description, quantity, amount, channel, delivery_seq)
VALUES ($1, $2, $3, $4, 0, $5, NULL, $6) RETURNING id`,
		resellerID, date, ledger.KindDeliveryDebit, description, amount, seq).Scan(&id)
	return id, err
}

func (t *txRepo) LinkMovement(ctx context.Context, deliveryID, movementID int64) error {
	_, err := t.tx.Exec(ctx, `UPDATE deliveries SET movement_id=$1 WHERE id=$2`, movementID, deliveryID)
	return err
}

func (t *txRepo) DeleteDelivery(ctx context.Context, id int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM deliveries WHERE id=$1`, id)
	return err
}

func (t *txRepo) DeleteMovement(ctx context.Context, movementID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM movements WHERE id=$1`, movementID)
	return err
}

const deliverySelect = `SELECT d.id, d.seq, d.date, d.total, d.reseller_id, d.movement_id,
COALESCE(r.name, NULLIF(d.buyer_name, ''), 'Particular') AS buyer
FROM deliveries d LEFT JOIN resellers r ON r.id = d.reseller_id`

// GetDelivery fetches one header with the buyer name resolved.
func (r *Repository) GetDelivery(ctx context.Context, id int64) (*Delivery, error) {
	row := r.pool.QueryRow(ctx, deliverySelect+` WHERE d.id=$1`, id)
	return scanDelivery(row)
}

// GetByMovement fetches the header explicitly linked to a movement.
func (r *Repository) GetByMovement(ctx context.Context, movementID int64) (*Delivery, error) {
	row := r.pool.QueryRow(ctx, deliverySelect+` WHERE d.movement_id=$1`, movementID)
	return scanDelivery(row)
}

// FindBySeq returns every header carrying the sequence number. Legacy data
// may hold more than one; the resolver decides what to do with that.
func (r *Repository) FindBySeq(ctx context.Context, seq int64) ([]Delivery, error) {
	rows, err := r.pool.Query(ctx, deliverySelect+` WHERE d.seq=$1 ORDER BY d.id`, seq)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Delivery
	for rows.Next() {
		d, err := scanDeliveryRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// ListDeliveries returns all headers, newest sequence first.
func (r *Repository) ListDeliveries(ctx context.Context) ([]Delivery, error) {
	rows, err := r.pool.Query(ctx, deliverySelect+` ORDER BY d.seq DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Delivery
	for rows.Next() {
		d, err := scanDeliveryRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// ListItems returns the ordered line items of one delivery.
func (r *Repository) ListItems(ctx context.Context, deliveryID int64) ([]Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, delivery_id, label, quantity, unit_price, total FROM delivery_items WHERE delivery_id=$1 ORDER BY id`,
		deliveryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.DeliveryID, &it.Label, &it.Quantity, &it.UnitPrice, &it.Total); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func scanDelivery(row pgx.Row) (*Delivery, error) {
	var d Delivery
	err := row.Scan(&d.ID, &d.Seq, &d.Date, &d.Total, &d.ResellerID, &d.MovementID, &d.BuyerName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanDeliveryRows(rows pgx.Rows) (*Delivery, error) {
	var d Delivery
	if err := rows.Scan(&d.ID, &d.Seq, &d.Date, &d.Total, &d.ResellerID, &d.MovementID, &d.BuyerName); err != nil {
		return nil, err
	}
	return &d, nil
}
