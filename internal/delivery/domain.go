package delivery

import (
	"time"

	"github.com/google/uuid"
)

// Buyer is a tagged choice: a reseller reference or a free-text walk-in name.
// Exactly one side must be set.
type Buyer struct {
	ResellerID *int64
	Name       string
}

// Delivery is a header row; Seq is the globally unique delivery number.
// Numbers are gapless by construction but may show gaps after deletions.
type Delivery struct {
	ID         int64     `json:"id"`
	Seq        int64     `json:"seq"`
	Date       time.Time `json:"date"`
	Total      float64   `json:"total"`
	ResellerID *int64    `json:"reseller_id,omitempty"`
	BuyerName  string    `json:"buyer_name"`
	MovementID *int64    `json:"movement_id,omitempty"`
}

// Item is one priced line of a delivery.
type Item struct {
	ID         int64   `json:"id"`
	DeliveryID int64   `json:"delivery_id"`
	Label      string  `json:"label"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	Total      float64 `json:"total"`
}

// ItemInput is a requested line; its total is never trusted from the caller.
type ItemInput struct {
	Label     string  `json:"label"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// PostDeliveryInput carries a new delivery.
type PostDeliveryInput struct {
	Buyer Buyer
	Date  time.Time
	Items []ItemInput
}

// PostDeliveryResult reports the committed header.
type PostDeliveryResult struct {
	DeliveryID int64   `json:"delivery_id"`
	Seq        int64   `json:"seq"`
	Total      float64 `json:"total"`
}

// Receipt is the finalized document handed to the PDF-rendering
// collaborator. It has no bearing on ledger correctness.
type Receipt struct {
	DocumentID uuid.UUID     `json:"document_id"`
	Seq        int64         `json:"seq"`
	Date       time.Time     `json:"date"`
	Buyer      string        `json:"buyer"`
	Lines      []ReceiptLine `json:"lines"`
	Total      float64       `json:"total"`
}

// ReceiptLine mirrors one delivery item for rendering.
type ReceiptLine struct {
	Label     string  `json:"label"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}
