// Package types contains common types used across the application
package types

// Entry represents one row of a per-day symbol ranking.
type Entry struct {
	Rank   int     `json:"rank"`
	Date   string  `json:"date"` // YYYY-MM-DD
	Symbol string  `json:"symbol"`
	Score  float64 `json:"score"`
}
