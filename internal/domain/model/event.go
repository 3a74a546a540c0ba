// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// Source partitions aspect comparisons by what the transit bodies were
// compared against. Wire values match the original output table.
type Source string

const (
	// SourceIPO compares transit bodies against the symbol's IPO-day chart.
	SourceIPO Source = "IPO"
	// SourceNYSE compares transit bodies against the fixed exchange chart.
	SourceNYSE Source = "NYSE"
	// SourceTransit compares the transit bodies pairwise with each other.
	SourceTransit Source = "Transit"
)

// Sources lists the three comparison categories in presentation order.
func Sources() []Source {
	return []Source{SourceIPO, SourceNYSE, SourceTransit}
}

// PairKey identifies one aspect relationship for deduplication: the
// comparison source, both point names, and the matched aspect name.
type PairKey struct {
	Source Source
	First  string
	Second string
	Aspect string
}

// String renders the key in a stable form usable as a map key or log tag.
func (k PairKey) String() string {
	return string(k.Source) + "|" + k.First + "|" + k.Second + "|" + k.Aspect
}

// AspectEvent is one row of the scored output table.
type AspectEvent struct {
	Date        time.Time `json:"date"`   // calendar day, truncated to midnight
	Symbol      string    `json:"symbol"` // ticker the scan belongs to
	Key         PairKey   `json:"-"`
	Description string    `json:"aspect"`
	Score       float64   `json:"score"`
	Source      Source    `json:"source"`
	Time        string    `json:"time,omitempty"` // "HH:MM" wall-clock tag
}

// Describe renders the human-readable aspect column. IPO and NYSE rows name
// the reference chart before the second point; transit-to-transit rows do
// not.
func Describe(key PairKey, residual, score float64) string {
	switch key.Source {
	case SourceTransit:
		return fmt.Sprintf("%s %s %s (%.1f°, Score: %+.1f)",
			key.First, key.Aspect, key.Second, residual, score)
	default:
		return fmt.Sprintf("%s %s %s %s (%.1f°, Score: %+.1f)",
			key.First, key.Aspect, key.Source, key.Second, residual, score)
	}
}

// Listing is one row of the symbol reference table: the ticker and the
// calendar date of its reference event (the IPO).
type Listing struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"listing_date"`
}

// Day truncates a time to its calendar day in the same location.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
