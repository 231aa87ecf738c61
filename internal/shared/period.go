package shared

import (
	"fmt"
	"time"
)

const monthKeyLayout = "2006-01"

// MonthWindow is the inclusive [From, To] day range of one calendar month.
type MonthWindow struct {
	Key  string
	From time.Time
	To   time.Time
}

// ParseMonth expands a "YYYY-MM" key into its first and last day.
func ParseMonth(key string) (MonthWindow, error) {
	first, err := time.Parse(monthKeyLayout, key)
	if err != nil {
		return MonthWindow{}, fmt.Errorf("%w: month key %q", ErrValidation, key)
	}
	last := first.AddDate(0, 1, -1)
	return MonthWindow{Key: key, From: first, To: last}, nil
}

// MonthKey formats t as a "YYYY-MM" key.
func MonthKey(t time.Time) string {
	return t.Format(monthKeyLayout)
}
