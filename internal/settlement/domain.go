package settlement

import "time"

// Expense is one dated shared cost; an independent log, tied to no reseller.
type Expense struct {
	ID     int64     `json:"id"`
	Date   time.Time `json:"date"`
	Label  string    `json:"label"`
	Amount float64   `json:"amount"`
}

// Payout is cash already transferred to the non-operating partner.
type Payout struct {
	ID     int64     `json:"id"`
	Date   time.Time `json:"date"`
	Note   string    `json:"note,omitempty"`
	Amount float64   `json:"amount"`
}

// SplitTotals aggregates every split whose parent payment falls inside the
// month window. HalfProfitPending counts only splits not yet marked settled.
type SplitTotals struct {
	GrossProfit       float64 `json:"gross_profit"`
	HalfProfitTotal   float64 `json:"half_profit_total"`
	HalfProfitPending float64 `json:"half_profit_pending"`
}

// MonthOverview is the complete settlement rollup for one YYYY-MM month.
// PayoutDue may be negative when the partner was overpaid; it is reported
// as-is.
type MonthOverview struct {
	Month            string      `json:"month"`
	Totals           SplitTotals `json:"totals"`
	ExpensesTotal    float64     `json:"expenses_total"`
	PayoutsTotal     float64     `json:"payouts_total"`
	NetProfit        float64     `json:"net_profit"`
	IndividualProfit float64     `json:"individual_profit"`
	PayoutDue        float64     `json:"payout_due"`
	Expenses         []Expense   `json:"expenses"`
	Payouts          []Payout    `json:"payouts"`
}

// ExpenseInput carries a new expense row.
type ExpenseInput struct {
	Date   time.Time
	Label  string
	Amount float64
}

// PayoutInput carries a new payout row.
type PayoutInput struct {
	Date   time.Time
	Note   string
	Amount float64
}
