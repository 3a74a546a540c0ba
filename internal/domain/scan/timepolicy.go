// Package scan drives aspect computation across a date range, accumulating
// a scored, deduplicated event table for one symbol at a time.
package scan

import (
	"fmt"
	"sort"
	"time"
)

// Default sampling step for stepped time ranges.
const defaultStep = 30 * time.Minute

// minutesPerDay bounds a stepped sweep so a degenerate step can never spin.
const minutesPerDay = 24 * 60

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" into a TimeOfDay.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// MarketOpen is the NYSE opening bell, the stock sampling time.
func MarketOpen() TimeOfDay { return TimeOfDay{Hour: 9, Minute: 30} }

// String renders the time as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On combines the time of day with a calendar date, in the date's location.
func (t TimeOfDay) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		t.Hour, t.Minute, 0, 0, date.Location())
}

func (t TimeOfDay) minuteOfDay() int {
	return t.Hour*60 + t.Minute
}

// TimePolicy reduces a caller's time selection to the wall-clock times to
// sample on each calendar date. An empty slice skips the date entirely.
// Times must come back in ascending order so the engine samples each day's
// instants chronologically.
type TimePolicy interface {
	// Times returns the sampling times for one calendar date, ascending.
	Times(date time.Time) []TimeOfDay

	// Reference returns the time-of-day convention used when resolving a
	// symbol's fixed reference chart.
	Reference() TimeOfDay

	// Multiple reports whether any date can receive more than one sample,
	// which is when emitted events carry a wall-clock tag.
	Multiple() bool
}

// FixedDaily samples every date at one wall-clock time.
type FixedDaily struct {
	Time TimeOfDay
}

func (p FixedDaily) Times(time.Time) []TimeOfDay { return []TimeOfDay{p.Time} }
func (p FixedDaily) Reference() TimeOfDay        { return p.Time }
func (p FixedDaily) Multiple() bool              { return false }

// ExplicitTimes samples every date at each listed wall-clock time.
type ExplicitTimes struct {
	List []TimeOfDay
}

// Times returns the configured list sorted ascending with duplicates removed.
func (p ExplicitTimes) Times(time.Time) []TimeOfDay {
	return normalizeTimes(p.List)
}

// Reference is the earliest configured time.
func (p ExplicitTimes) Reference() TimeOfDay {
	ts := normalizeTimes(p.List)
	if len(ts) == 0 {
		return MarketOpen()
	}
	return ts[0]
}

func (p ExplicitTimes) Multiple() bool { return len(normalizeTimes(p.List)) > 1 }

// TaggedDaily samples every date at one wall-clock time, like FixedDaily,
// but keeps the wall-clock tag on emitted events. It is the per-time policy
// a multi-time request is split into, one scan per distinct time.
type TaggedDaily struct {
	Time TimeOfDay
}

func (p TaggedDaily) Times(time.Time) []TimeOfDay { return []TimeOfDay{p.Time} }
func (p TaggedDaily) Reference() TimeOfDay        { return p.Time }
func (p TaggedDaily) Multiple() bool              { return true }

// SteppedRange sweeps a time-of-day interval at a fixed step. Both endpoints
// are sampled when the step lands on them; a zero step defaults to 30
// minutes.
type SteppedRange struct {
	From TimeOfDay
	To   TimeOfDay
	Step time.Duration
}

func (p SteppedRange) Times(time.Time) []TimeOfDay {
	step := p.Step
	if step <= 0 {
		step = defaultStep
	}
	stepMin := int(step.Minutes())
	if stepMin < 1 {
		stepMin = 1
	}

	from, to := p.From, p.To
	if from.minuteOfDay() > to.minuteOfDay() {
		from, to = to, from
	}

	var out []TimeOfDay
	for m := from.minuteOfDay(); m <= to.minuteOfDay() && m < minutesPerDay; m += stepMin {
		out = append(out, TimeOfDay{Hour: m / 60, Minute: m % 60})
	}
	return out
}

func (p SteppedRange) Reference() TimeOfDay {
	from, to := p.From, p.To
	if from.minuteOfDay() > to.minuteOfDay() {
		from = to
	}
	return from
}

func (p SteppedRange) Multiple() bool {
	return len(p.Times(time.Time{})) > 1
}

// PerWeekday assigns one sampling time per weekday. Weekdays absent from the
// map are skipped outright and contribute no events.
type PerWeekday struct {
	ByDay map[time.Weekday]TimeOfDay
}

func (p PerWeekday) Times(date time.Time) []TimeOfDay {
	t, ok := p.ByDay[date.Weekday()]
	if !ok {
		return nil
	}
	return []TimeOfDay{t}
}

// Reference is the earliest time configured across the week.
func (p PerWeekday) Reference() TimeOfDay {
	best, found := TimeOfDay{}, false
	for _, t := range p.ByDay {
		if !found || t.minuteOfDay() < best.minuteOfDay() {
			best, found = t, true
		}
	}
	if !found {
		return MarketOpen()
	}
	return best
}

func (p PerWeekday) Multiple() bool { return false }

func normalizeTimes(list []TimeOfDay) []TimeOfDay {
	if len(list) == 0 {
		return nil
	}
	out := make([]TimeOfDay, 0, len(list))
	seen := make(map[int]struct{}, len(list))
	for _, t := range list {
		if _, dup := seen[t.minuteOfDay()]; dup {
			continue
		}
		seen[t.minuteOfDay()] = struct{}{}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].minuteOfDay() < out[j].minuteOfDay()
	})
	return out
}
