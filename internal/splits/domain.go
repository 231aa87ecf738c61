package splits

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/reventa-app/reventa/internal/shared"
)

// Split apportions part of one payment to purchased goods. Portion is the
// gross slice of the payment; Divisor expresses the markup (cost =
// portion / divisor, so divisor 2 means the goods were bought at half the
// collected price).
type Split struct {
	ID         int64   `json:"id"`
	MovementID int64   `json:"movement_id"`
	Portion    float64 `json:"portion"`
	Divisor    int     `json:"divisor"`
	Settled    bool    `json:"settled"`
}

// Figures are the amounts derived from one split, quantised to two decimals.
// cost + profit always reconstructs the portion within a cent.
type Figures struct {
	Cost       float64 `json:"cost"`
	Profit     float64 `json:"profit"`
	HalfProfit float64 `json:"half_profit"`
}

// Derive computes the split's cost, profit and partner half-profit.
func (s Split) Derive() Figures {
	portion := shared.Dec(s.Portion)
	cost := shared.Round2(portion.Div(decimal.NewFromInt(int64(s.Divisor))))
	profit := shared.Round2(portion.Sub(cost))
	return Figures{
		Cost:       shared.F2(cost),
		Profit:     shared.F2(profit),
		HalfProfit: shared.F2(shared.Half(profit)),
	}
}

// SplitView is a split with its derived figures, as served to callers.
type SplitView struct {
	Split
	Figures
}

// Payment is the slice of a ledger movement the splitter needs: a
// kind=payment row joined with its reseller's name.
type Payment struct {
	MovementID   int64     `json:"movement_id"`
	ResellerID   int64     `json:"reseller_id"`
	ResellerName string    `json:"reseller_name"`
	Date         time.Time `json:"date"`
	Description  string    `json:"description"`
	Amount       float64   `json:"amount"`
	Channel      *string   `json:"channel,omitempty"`
}

// PaymentSplits is the full breakdown of one payment. Delta is the
// reconciliation figure amount - sum(portions); it is advisory and a nonzero
// value never blocks writes.
type PaymentSplits struct {
	Payment      Payment     `json:"payment"`
	Splits       []SplitView `json:"splits"`
	PortionTotal float64     `json:"portion_total"`
	Delta        float64     `json:"delta"`
}

// UpdateSplitInput carries a full overwrite of one split.
type UpdateSplitInput struct {
	Portion float64
	Divisor int
	Settled bool
}
