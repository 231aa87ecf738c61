package ledger

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reventa-app/reventa/internal/shared"
)

// Repository provides PostgreSQL backed persistence for resellers and
// movements. Deleting a reseller cascades to its movements through the
// foreign key, not application code.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateReseller inserts a reseller with a unique name.
func (r *Repository) CreateReseller(ctx context.Context, name string) (*Reseller, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO resellers (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	if err != nil {
		return nil, shared.MapDBError(err)
	}
	return &Reseller{ID: id, Name: name}, nil
}

// RenameReseller updates the unique name.
func (r *Repository) RenameReseller(ctx context.Context, id int64, name string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE resellers SET name=$1 WHERE id=$2`, name, id)
	if err != nil {
		return shared.MapDBError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteReseller removes the reseller; its movements go with it (FK cascade).
func (r *Repository) DeleteReseller(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM resellers WHERE id=$1`, id)
	return err
}

// GetReseller fetches one reseller without its balance.
func (r *Repository) GetReseller(ctx context.Context, id int64) (*Reseller, error) {
	var res Reseller
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM resellers WHERE id=$1`, id).
		Scan(&res.ID, &res.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ListResellers returns resellers ordered by name, optionally filtered.
func (r *Repository) ListResellers(ctx context.Context, query string) ([]Reseller, error) {
	sql := `SELECT id, name FROM resellers ORDER BY lower(name)`
	args := []any{}
	if query != "" {
		sql = `SELECT id, name FROM resellers WHERE name ILIKE $1 ORDER BY lower(name)`
		args = append(args, "%"+query+"%")
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Reseller
	for rows.Next() {
		var res Reseller
		if err := rows.Scan(&res.ID, &res.Name); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// InsertMovement appends one ledger entry.
func (r *Repository) InsertMovement(ctx context.Context, in AppendMovementInput) (*Movement, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO movements (reseller_id, date, kind, description, quantity, amount, channel, delivery_seq)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		in.ResellerID, in.Date, in.Kind, in.Description, in.Quantity, in.Amount, in.Channel, in.DeliverySeq).Scan(&id)
	if err != nil {
		return nil, shared.MapDBError(err)
	}
	return &Movement{
		ID:          id,
		ResellerID:  in.ResellerID,
		Date:        in.Date,
		Kind:        in.Kind,
		Description: in.Description,
		Quantity:    in.Quantity,
		Amount:      in.Amount,
		Channel:     in.Channel,
		DeliverySeq: in.DeliverySeq,
	}, nil
}

// UpdateMovement overwrites an entry in place.
func (r *Repository) UpdateMovement(ctx context.Context, id int64, in UpdateMovementInput) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE movements SET date=$1, kind=$2, description=$3, quantity=$4, amount=$5, channel=$6 WHERE id=$7`,
		in.Date, in.Kind, in.Description, in.Quantity, in.Amount, in.Channel, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteMovement removes one entry. Deleting an absent id is a no-op.
func (r *Repository) DeleteMovement(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM movements WHERE id=$1`, id)
	return err
}

// GetMovement fetches a single entry by id.
func (r *Repository) GetMovement(ctx context.Context, id int64) (*Movement, error) {
	var m Movement
	err := r.pool.QueryRow(ctx,
		`SELECT id, reseller_id, date, kind, description, quantity, amount, channel, delivery_seq
FROM movements WHERE id=$1`, id).
		Scan(&m.ID, &m.ResellerID, &m.Date, &m.Kind, &m.Description, &m.Quantity, &m.Amount, &m.Channel, &m.DeliverySeq)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMovements returns a reseller's entries, newest date first, ties broken
// by most recent insertion.
func (r *Repository) ListMovements(ctx context.Context, resellerID int64) ([]Movement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, reseller_id, date, kind, description, quantity, amount, channel, delivery_seq
FROM movements WHERE reseller_id=$1 ORDER BY date DESC, id DESC`, resellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMovements(rows)
}

// ListOutgoings returns only delivery-debit entries for a reseller.
func (r *Repository) ListOutgoings(ctx context.Context, resellerID int64) ([]Movement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, reseller_id, date, kind, description, quantity, amount, channel, delivery_seq
FROM movements WHERE reseller_id=$1 AND kind=$2 ORDER BY date DESC, id DESC`, resellerID, KindDeliveryDebit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMovements(rows)
}

func scanMovements(rows pgx.Rows) ([]Movement, error) {
	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.ResellerID, &m.Date, &m.Kind, &m.Description, &m.Quantity, &m.Amount, &m.Channel, &m.DeliverySeq); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Balance derives the running balance in a single aggregate pass:
// payments add, returns and delivery debits subtract.
func (r *Repository) Balance(ctx context.Context, resellerID int64) (float64, error) {
	var balance float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(CASE WHEN kind=$2 THEN amount ELSE -amount END), 0)
FROM movements WHERE reseller_id=$1`, resellerID, KindPayment).Scan(&balance)
	return balance, err
}
