package ledger

import "time"

// MovementKind tags one ledger entry. Amounts are always stored
// non-negative; the kind decides the sign applied by the balance.
type MovementKind string

const (
	KindPayment       MovementKind = "payment"
	KindReturn        MovementKind = "return"
	KindDeliveryDebit MovementKind = "delivery_debit"
)

// Valid reports whether k is one of the three accepted kinds.
func (k MovementKind) Valid() bool {
	switch k {
	case KindPayment, KindReturn, KindDeliveryDebit:
		return true
	}
	return false
}

// Sign is the balance contribution factor: payments add, the rest subtract.
func (k MovementKind) Sign() float64 {
	if k == KindPayment {
		return 1
	}
	return -1
}

// Reseller is a counterparty with a running account balance.
type Reseller struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

// Movement is one ledger entry affecting a reseller's balance.
type Movement struct {
	ID          int64        `json:"id"`
	ResellerID  int64        `json:"reseller_id"`
	Date        time.Time    `json:"date"`
	Kind        MovementKind `json:"kind"`
	Description string       `json:"description"`
	Quantity    int          `json:"quantity"`
	Amount      float64      `json:"amount"`
	Channel     *string      `json:"channel,omitempty"`
	DeliverySeq *int64       `json:"delivery_seq,omitempty"`
}

// AppendMovementInput carries a new manual ledger entry.
type AppendMovementInput struct {
	ResellerID  int64
	Date        time.Time
	Kind        MovementKind
	Description string
	Quantity    int
	Amount      float64
	Channel     *string
	DeliverySeq *int64
}

// UpdateMovementInput overwrites an existing entry in place.
type UpdateMovementInput struct {
	Date        time.Time
	Kind        MovementKind
	Description string
	Quantity    int
	Amount      float64
	Channel     *string
}
