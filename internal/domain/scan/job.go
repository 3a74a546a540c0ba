package scan

import (
	"time"

	"github.com/lunalira/transit/internal/domain/astro"
)

// Job is one unit of scan work flowing through the queue: one symbol of one
// analysis run. MinScore is applied to the scan's output before the events
// are recorded.
type Job struct {
	RunID       string
	Symbol      string
	ListingDate time.Time
	Start       time.Time
	End         time.Time
	Policy      TimePolicy
	MinScore    float64

	// Catalogue carries the run's aspect configuration when the request
	// overrode the default orbs or scores. Nil keeps the engine default.
	Catalogue *astro.Catalogue

	// TradingDaysOnly restricts the scan to exchange business days.
	TradingDaysOnly bool
}

// Spec converts the job into an engine scan specification.
func (j Job) Spec() Spec {
	return Spec{
		Symbol:          j.Symbol,
		ListingDate:     j.ListingDate,
		Start:           j.Start,
		End:             j.End,
		Policy:          j.Policy,
		Catalogue:       j.Catalogue,
		TradingDaysOnly: j.TradingDaysOnly,
	}
}
