// Package repository holds the in-memory ranking and run stores.
package repository

import (
	"context"
	"time"

	"github.com/lunalira/transit/internal/domain/types"
)

// DateLayout is the wire form of a ranking day.
const DateLayout = "2006-01-02"

// Store provides read/write access to the per-day symbol rankings.
type Store interface {
	// AddScore folds an event score into the symbol's running total for the
	// day and returns the new total.
	AddScore(ctx context.Context, date time.Time, symbol string, delta float64) (float64, error)

	// Rank returns the symbol's current rank and total for the day.
	// Returns ErrNotFound when the symbol has no events on that day.
	Rank(ctx context.Context, date time.Time, symbol string) (types.Entry, error)

	// TopN returns the day's top-N entries ordered by total desc.
	TopN(ctx context.Context, date time.Time, n int) ([]types.Entry, error)

	// BestByDay returns the top entry of every tracked day, days ascending.
	BestByDay(ctx context.Context) ([]types.Entry, error)

	// Count returns the number of symbols ranked on the day.
	Count(ctx context.Context, date time.Time) int

	// Days returns every tracked day in DateLayout form, ascending.
	Days(ctx context.Context) []string
}
