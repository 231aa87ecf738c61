package stock

// Item is one tracked stock counter. Count never goes below zero.
type Item struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Count int    `json:"count"`
}
