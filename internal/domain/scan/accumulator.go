package scan

import (
	"context"
	"time"

	"github.com/lunalira/transit/internal/domain/astro"
	"github.com/lunalira/transit/internal/domain/model"
	"github.com/lunalira/transit/internal/domain/orbtrack"
)

// accumulator collects aspect events for one scan, enforcing the
// tightest-orb-wins rule: per (source, A, B, aspect) key, each calendar day
// carries at most one event, and an event is only written when its residual
// improves on the best residual seen for that key anywhere in the scan.
type accumulator struct {
	symbol  string
	tracker orbtrack.Tracker
	tag     bool

	events []model.AspectEvent
	index  map[string]int // key + day -> position in events
}

func newAccumulator(symbol string, tracker orbtrack.Tracker, tag bool) *accumulator {
	return &accumulator{
		symbol:  symbol,
		tracker: tracker,
		tag:     tag,
		index:   make(map[string]int),
	}
}

// observePairs evaluates every transit body against every reference point
// for one source category at one instant.
func (a *accumulator) observePairs(ctx context.Context, at time.Time, source model.Source, transit, refs []astro.Position, cat *astro.Catalogue) {
	for _, t := range transit {
		for _, r := range refs {
			sep := astro.Separation(t.Longitude, r.Longitude)
			m, ok := cat.Match(sep)
			if !ok {
				continue
			}
			a.record(ctx, at, model.PairKey{
				Source: source,
				First:  t.Name,
				Second: r.Name,
				Aspect: m.Name,
			}, m)
		}
	}
}

// observeMutual evaluates each unordered pair of distinct transit bodies
// exactly once (i<j) at one instant.
func (a *accumulator) observeMutual(ctx context.Context, at time.Time, transit []astro.Position, cat *astro.Catalogue) {
	for i := 0; i < len(transit); i++ {
		for j := i + 1; j < len(transit); j++ {
			sep := astro.Separation(transit[i].Longitude, transit[j].Longitude)
			m, ok := cat.Match(sep)
			if !ok {
				continue
			}
			a.record(ctx, at, model.PairKey{
				Source: model.SourceTransit,
				First:  transit[i].Name,
				Second: transit[j].Name,
				Aspect: m.Name,
			}, m)
		}
	}
}

// record writes or replaces the event for (key, day) when the residual
// improves on the key's best.
func (a *accumulator) record(ctx context.Context, at time.Time, key model.PairKey, m astro.Match) {
	if !a.tracker.Observe(ctx, key.String(), m.Residual) {
		return
	}

	day := model.Day(at)
	ev := model.AspectEvent{
		Date:        day,
		Symbol:      a.symbol,
		Key:         key,
		Description: model.Describe(key, m.Residual, m.Score),
		Score:       m.Score,
		Source:      key.Source,
	}
	if a.tag {
		ev.Time = at.Format("15:04")
	}

	dayKey := key.String() + "|" + day.Format("2006-01-02")
	if i, exists := a.index[dayKey]; exists {
		a.events[i] = ev
		return
	}
	a.index[dayKey] = len(a.events)
	a.events = append(a.events, ev)
}

// Events returns the accumulated table in emission order.
func (a *accumulator) Events() []model.AspectEvent {
	return a.events
}
