package shared

import "github.com/shopspring/decimal"

// Monetary amounts are stored as non-negative floats and quantised to two
// decimals whenever a derived figure is persisted or compared. Round performs
// half-away-from-zero, which equals round-half-up for the non-negative
// amounts this engine handles.

// Dec lifts a stored amount into decimal space.
func Dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// Round2 quantises to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// F2 returns the two-decimal float representation of d.
func F2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// Half divides d by two, quantised.
func Half(d decimal.Decimal) decimal.Decimal {
	return Round2(d.Div(decimal.NewFromInt(2)))
}
