package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reventa-app/reventa/internal/shared"
)

// RepositoryPort defines data access methods for deliveries.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetDelivery(ctx context.Context, id int64) (*Delivery, error)
	GetByMovement(ctx context.Context, movementID int64) (*Delivery, error)
	FindBySeq(ctx context.Context, seq int64) ([]Delivery, error)
	ListDeliveries(ctx context.Context) ([]Delivery, error)
	ListItems(ctx context.Context, deliveryID int64) ([]Item, error)
}

// BalanceInvalidator drops a reseller's cached balance after this module
// writes debit movements in its own transaction.
type BalanceInvalidator interface {
	InvalidateBalance(ctx context.Context, resellerID int64)
}

// StockKeeper consumes per-item negative quantity deltas after a delivery
// commits. Stock is an independent store outside the ledger's consistency
// domain, so failures are logged, never rolled back into the delivery.
type StockKeeper interface {
	ApplyDeltaByLabel(ctx context.Context, label string, delta int) error
}

// Service handles delivery business logic.
type Service struct {
	repo     RepositoryPort
	balances BalanceInvalidator
	stock    StockKeeper
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds a Service instance. balances may be nil.
func NewService(repo RepositoryPort, balances BalanceInvalidator, logger *slog.Logger) *Service {
	return &Service{repo: repo, balances: balances, logger: logger, now: time.Now}
}

// SetStockKeeper wires the stock-counter collaborator.
func (s *Service) SetStockKeeper(st StockKeeper) {
	s.stock = st
}

// PostDelivery commits a delivery header, its recomputed line items, and —
// for reseller buyers — the linked debit movement, all in one transaction.
func (s *Service) PostDelivery(ctx context.Context, in PostDeliveryInput) (*PostDeliveryResult, error) {
	in.Buyer.Name = strings.TrimSpace(in.Buyer.Name)
	if in.Buyer.ResellerID == nil && in.Buyer.Name == "" {
		return nil, fmt.Errorf("%w: buyer required (reseller or walk-in name)", shared.ErrValidation)
	}
	if in.Buyer.ResellerID != nil && in.Buyer.Name != "" {
		return nil, fmt.Errorf("%w: buyer must be a reseller or a walk-in name, not both", shared.ErrValidation)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: delivery needs at least one item", shared.ErrValidation)
	}

	items := make([]Item, 0, len(in.Items))
	total := shared.Dec(0)
	for i, raw := range in.Items {
		label := strings.TrimSpace(raw.Label)
		if label == "" {
			return nil, fmt.Errorf("%w: item %d: label required", shared.ErrValidation, i+1)
		}
		if raw.Quantity < 1 {
			return nil, fmt.Errorf("%w: item %d: quantity must be at least 1", shared.ErrValidation, i+1)
		}
		if raw.UnitPrice < 0 {
			return nil, fmt.Errorf("%w: item %d: unit price cannot be negative", shared.ErrValidation, i+1)
		}
		// Line totals are always recomputed here; they are the canonical total.
		lineTotal := shared.Round2(shared.Dec(raw.UnitPrice).Mul(shared.Dec(float64(raw.Quantity))))
		total = total.Add(lineTotal)
		items = append(items, Item{
			Label:     label,
			Quantity:  raw.Quantity,
			UnitPrice: raw.UnitPrice,
			Total:     shared.F2(lineTotal),
		})
	}

	date := in.Date
	if date.IsZero() {
		date = s.now()
	}
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	result := &PostDeliveryResult{Total: shared.F2(total)}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		seq, err := tx.NextSeq(ctx)
		if err != nil {
			return fmt.Errorf("next seq: %w", err)
		}
		deliveryID, err := tx.InsertDelivery(ctx, Delivery{
			Seq:        seq,
			Date:       date,
			Total:      result.Total,
			ResellerID: in.Buyer.ResellerID,
			BuyerName:  in.Buyer.Name,
		})
		if err != nil {
			return fmt.Errorf("insert delivery: %w", err)
		}
		for _, it := range items {
			it.DeliveryID = deliveryID
			if _, err := tx.InsertItem(ctx, it); err != nil {
				return fmt.Errorf("insert item: %w", err)
			}
		}
		if in.Buyer.ResellerID != nil {
			movementID, err := tx.InsertDebitMovement(ctx, *in.Buyer.ResellerID, date,
				fmt.Sprintf("Entrega N°%d", seq), result.Total, seq)
			if err != nil {
				return fmt.Errorf("insert debit movement: %w", err)
			}
			if err := tx.LinkMovement(ctx, deliveryID, movementID); err != nil {
				return fmt.Errorf("link movement: %w", err)
			}
		}
		result.DeliveryID = deliveryID
		result.Seq = seq
		return nil
	})
	if err != nil {
		return nil, err
	}

	if in.Buyer.ResellerID != nil && s.balances != nil {
		s.balances.InvalidateBalance(ctx, *in.Buyer.ResellerID)
	}
	s.decrementStock(ctx, items)

	return result, nil
}

// DeleteDelivery removes the header, its items (cascade) and the linked
// movement, if any, in one transaction. Absent ids are a no-op.
func (s *Service) DeleteDelivery(ctx context.Context, id int64) error {
	existing, err := s.repo.GetDelivery(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.DeleteDelivery(ctx, id); err != nil {
			return fmt.Errorf("delete delivery: %w", err)
		}
		if existing.MovementID != nil {
			if err := tx.DeleteMovement(ctx, *existing.MovementID); err != nil {
				return fmt.Errorf("delete movement: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if existing.ResellerID != nil && s.balances != nil {
		s.balances.InvalidateBalance(ctx, *existing.ResellerID)
	}
	return nil
}

// GetDelivery fetches one header.
func (s *Service) GetDelivery(ctx context.Context, id int64) (*Delivery, error) {
	return s.repo.GetDelivery(ctx, id)
}

// ListDeliveries returns every header, newest first.
func (s *Service) ListDeliveries(ctx context.Context) ([]Delivery, error) {
	return s.repo.ListDeliveries(ctx)
}

// GetDeliveryItems returns the ordered line items.
func (s *Service) GetDeliveryItems(ctx context.Context, id int64) ([]Item, error) {
	if _, err := s.repo.GetDelivery(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListItems(ctx, id)
}

// BuildReceipt assembles the finalized document for the PDF collaborator.
func (s *Service) BuildReceipt(ctx context.Context, id int64) (*Receipt, error) {
	d, err := s.repo.GetDelivery(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	receipt := &Receipt{
		DocumentID: uuid.New(),
		Seq:        d.Seq,
		Date:       d.Date,
		Buyer:      d.BuyerName,
		Total:      d.Total,
	}
	for _, it := range items {
		receipt.Lines = append(receipt.Lines, ReceiptLine{
			Label:     it.Label,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Total:     it.Total,
		})
	}
	return receipt, nil
}

func (s *Service) decrementStock(ctx context.Context, items []Item) {
	if s.stock == nil {
		return
	}
	for _, it := range items {
		if err := s.stock.ApplyDeltaByLabel(ctx, it.Label, -it.Quantity); err != nil && s.logger != nil {
			s.logger.Warn("stock decrement", slog.Any("error", err), slog.String("label", it.Label))
		}
	}
}
