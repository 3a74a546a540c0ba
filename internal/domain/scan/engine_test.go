package scan_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lunalira/transit/internal/domain/astro"
	"github.com/lunalira/transit/internal/domain/model"
	scan "github.com/lunalira/transit/internal/domain/scan"
	"github.com/lunalira/transit/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// fakeEphemeris resolves longitudes through a caller-supplied function so
// tests can script exact geometries per instant.
type fakeEphemeris struct {
	fn    func(at time.Time) (map[string]float64, error)
	calls int
}

func (f *fakeEphemeris) LongitudesAt(_ context.Context, at time.Time) (map[string]float64, error) {
	f.calls++
	return f.fn(at)
}

// weekdayCalendar admits Monday through Friday.
type weekdayCalendar struct{}

func (weekdayCalendar) IsBusinessDay(date time.Time) bool {
	wd := date.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func conjunctionOnly() *astro.Catalogue {
	return astro.NewCatalogue(
		map[string]float64{astro.Conjunction: 5},
		map[string]float64{astro.Conjunction: 5},
	)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEngineScan(t *testing.T) {
	Convey("Given an engine tracking a single body against a pure conjunction catalogue", t, func() {
		listing := date(2024, 5, 1)

		Convey("When a transit body sits 2 degrees from its reference position", func() {
			eph := &fakeEphemeris{fn: func(at time.Time) (map[string]float64, error) {
				if model.Day(at).Equal(listing) {
					return map[string]float64{astro.Sun: 0.0}, nil
				}
				return map[string]float64{astro.Sun: 2.0}, nil
			}}
			eng := scan.NewEngine(eph, conjunctionOnly(), scan.WithBodies([]string{astro.Sun}))

			events, err := eng.Scan(context.Background(), scan.Spec{
				Symbol:      "ACME",
				ListingDate: listing,
				Start:       date(2024, 6, 3),
				End:         date(2024, 6, 3),
				Policy:      scan.FixedDaily{Time: scan.MarketOpen()},
			})

			Convey("Then exactly one scored conjunction event comes back", func() {
				So(err, ShouldBeNil)
				So(events, ShouldHaveLength, 1)
				So(events[0].Symbol, ShouldEqual, "ACME")
				So(events[0].Source, ShouldEqual, model.SourceIPO)
				So(events[0].Score, ShouldEqual, 5.0)
				So(events[0].Date, ShouldEqual, date(2024, 6, 3))
				So(events[0].Description, ShouldEqual, "Sun Conjunction IPO Sun (2.0°, Score: +5.0)")
			})

			Convey("Then single-sample policies leave the wall-clock tag empty", func() {
				So(err, ShouldBeNil)
				So(events[0].Time, ShouldBeEmpty)
			})
		})

		Convey("When the separation falls outside the orb", func() {
			eph := &fakeEphemeris{fn: func(at time.Time) (map[string]float64, error) {
				if model.Day(at).Equal(listing) {
					return map[string]float64{astro.Sun: 0.0}, nil
				}
				return map[string]float64{astro.Sun: 50.0}, nil
			}}
			eng := scan.NewEngine(eph, conjunctionOnly(), scan.WithBodies([]string{astro.Sun}))

			events, err := eng.Scan(context.Background(), scan.Spec{
				Symbol:      "ACME",
				ListingDate: listing,
				Start:       date(2024, 6, 3),
				End:         date(2024, 6, 3),
			})

			Convey("Then the scan succeeds with no events", func() {
				So(err, ShouldBeNil)
				So(events, ShouldBeEmpty)
			})
		})
	})
}

func TestEngineDeduplication(t *testing.T) {
	Convey("Given a multi-day scan where the same aspect recurs", t, func() {
		listing := date(2024, 5, 1)
		residualByDay := map[int]float64{3: 3.0, 4: 4.0, 5: 1.0}

		eph := &fakeEphemeris{fn: func(at time.Time) (map[string]float64, error) {
			if model.Day(at).Equal(listing) {
				return map[string]float64{astro.Sun: 0.0}, nil
			}
			return map[string]float64{astro.Sun: residualByDay[at.Day()]}, nil
		}}
		eng := scan.NewEngine(eph, conjunctionOnly(), scan.WithBodies([]string{astro.Sun}))

		events, err := eng.Scan(context.Background(), scan.Spec{
			Symbol:      "ACME",
			ListingDate: listing,
			Start:       date(2024, 6, 3),
			End:         date(2024, 6, 5),
			Policy:      scan.FixedDaily{Time: scan.MarketOpen()},
		})

		Convey("Then only days that tighten the orb produce rows", func() {
			So(err, ShouldBeNil)
			So(events, ShouldHaveLength, 2)

			So(events[0].Date, ShouldEqual, date(2024, 6, 3))
			So(events[0].Description, ShouldContainSubstring, "(3.0°")

			So(events[1].Date, ShouldEqual, date(2024, 6, 5))
			So(events[1].Description, ShouldContainSubstring, "(1.0°")
		})
	})

	Convey("Given intra-day sampling that tightens during the day", t, func() {
		listing := date(2024, 5, 1)

		eph := &fakeEphemeris{fn: func(at time.Time) (map[string]float64, error) {
			if model.Day(at).Equal(listing) {
				return map[string]float64{astro.Sun: 0.0}, nil
			}
			if at.Hour() < 10 {
				return map[string]float64{astro.Sun: 3.0}, nil
			}
			return map[string]float64{astro.Sun: 1.5}, nil
		}}
		eng := scan.NewEngine(eph, conjunctionOnly(), scan.WithBodies([]string{astro.Sun}))

		events, err := eng.Scan(context.Background(), scan.Spec{
			Symbol:      "ACME",
			ListingDate: listing,
			Start:       date(2024, 6, 3),
			End:         date(2024, 6, 3),
			Policy: scan.SteppedRange{
				From: scan.TimeOfDay{Hour: 9, Minute: 30},
				To:   scan.TimeOfDay{Hour: 10, Minute: 0},
			},
		})

		Convey("Then the day keeps one row holding the tightest sample and its time", func() {
			So(err, ShouldBeNil)
			So(events, ShouldHaveLength, 1)
			So(events[0].Description, ShouldContainSubstring, "(1.5°")
			So(events[0].Time, ShouldEqual, "10:00")
		})
	})
}

func TestEngineEndpointOrder(t *testing.T) {
	Convey("Given the same range expressed in both endpoint orders", t, func() {
		listing := date(2024, 5, 1)
		fn := func(at time.Time) (map[string]float64, error) {
			if model.Day(at).Equal(listing) {
				return map[string]float64{astro.Sun: 0.0}, nil
			}
			return map[string]float64{astro.Sun: float64(at.Day())}, nil
		}

		run := func(start, end time.Time) []model.AspectEvent {
			eng := scan.NewEngine(&fakeEphemeris{fn: fn}, conjunctionOnly(),
				scan.WithBodies([]string{astro.Sun}))
			events, err := eng.Scan(context.Background(), scan.Spec{
				Symbol:      "ACME",
				ListingDate: listing,
				Start:       start,
				End:         end,
			})
			So(err, ShouldBeNil)
			return events
		}

		Convey("Then reversed endpoints yield the identical event table", func() {
			forward := run(date(2024, 6, 3), date(2024, 6, 5))
			reversed := run(date(2024, 6, 5), date(2024, 6, 3))
			So(reversed, ShouldResemble, forward)
		})
	})
}

func TestEngineCalendarAndWeekdays(t *testing.T) {
	Convey("Given a trading calendar", t, func() {
		listing := date(2024, 5, 1)
		eph := &fakeEphemeris{fn: func(at time.Time) (map[string]float64, error) {
			return map[string]float64{astro.Sun: 0.0}, nil
		}}
		eng := scan.NewEngine(eph, conjunctionOnly(),
			scan.WithBodies([]string{astro.Sun}),
			scan.WithCalendar(weekdayCalendar{}),
		)

		Convey("When the range covers only a weekend", func() {
			events, err := eng.Scan(context.Background(), scan.Spec{
				Symbol:          "ACME",
				ListingDate:     listing,
				Start:           date(2024, 6, 8), // Saturday
				End:             date(2024, 6, 9), // Sunday
				TradingDaysOnly: true,
			})

			Convey("Then no instants are sampled beyond the reference chart", func() {
				So(err, ShouldBeNil)
				So(events, ShouldBeEmpty)
				So(eph.calls, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a per-weekday policy that skips the whole range", t, func() {
		listing := date(2024, 5, 1)
		eph := &fakeEphemeris{fn: func(at time.Time) (map[string]float64, error) {
			return map[string]float64{astro.Sun: 0.0}, nil
		}}
		eng := scan.NewEngine(eph, conjunctionOnly(), scan.WithBodies([]string{astro.Sun}))

		events, err := eng.Scan(context.Background(), scan.Spec{
			Symbol:      "ACME",
			ListingDate: listing,
			Start:       date(2024, 6, 3), // Monday
			End:         date(2024, 6, 4), // Tuesday
			Policy: scan.PerWeekday{ByDay: map[time.Weekday]scan.TimeOfDay{
				time.Friday: {Hour: 16},
			}},
		})

		Convey("Then the scan succeeds with zero events", func() {
			So(err, ShouldBeNil)
			So(events, ShouldBeEmpty)
		})
	})
}

func TestEngineFailureModes(t *testing.T) {
	Convey("Given an ephemeris that fails intermittently", t, func() {
		listing := date(2024, 5, 1)
		boom := errors.New("kernel unavailable")

		Convey("When a single instant fails mid-scan", func() {
			eph := &fakeEphemeris{fn: func(at time.Time) (map[string]float64, error) {
				if model.Day(at).Equal(listing) {
					return map[string]float64{astro.Sun: 0.0}, nil
				}
				if at.Day() == 4 {
					return nil, boom
				}
				return map[string]float64{astro.Sun: 2.0}, nil
			}}
			eng := scan.NewEngine(eph, conjunctionOnly(), scan.WithBodies([]string{astro.Sun}))

			events, err := eng.Scan(context.Background(), scan.Spec{
				Symbol:      "ACME",
				ListingDate: listing,
				Start:       date(2024, 6, 3),
				End:         date(2024, 6, 5),
			})

			Convey("Then the instant is skipped and the scan still completes", func() {
				So(err, ShouldBeNil)
				So(events, ShouldHaveLength, 1)
			})
		})

		Convey("When the reference chart itself cannot be resolved", func() {
			eph := &fakeEphemeris{fn: func(at time.Time) (map[string]float64, error) {
				return nil, boom
			}}
			eng := scan.NewEngine(eph, conjunctionOnly(), scan.WithBodies([]string{astro.Sun}))

			events, err := eng.Scan(context.Background(), scan.Spec{
				Symbol:      "ACME",
				ListingDate: listing,
				Start:       date(2024, 6, 3),
				End:         date(2024, 6, 5),
			})

			Convey("Then the whole scan fails", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, boom), ShouldBeTrue)
				So(events, ShouldBeNil)
			})
		})

		Convey("When the context is cancelled mid-scan", func() {
			ctx, cancel := context.WithCancel(context.Background())
			eph := &fakeEphemeris{fn: func(at time.Time) (map[string]float64, error) {
				if model.Day(at).Equal(listing) {
					return map[string]float64{astro.Sun: 0.0}, nil
				}
				cancel()
				return map[string]float64{astro.Sun: 2.0}, nil
			}}
			eng := scan.NewEngine(eph, conjunctionOnly(), scan.WithBodies([]string{astro.Sun}))

			events, err := eng.Scan(ctx, scan.Spec{
				Symbol:      "ACME",
				ListingDate: listing,
				Start:       date(2024, 6, 3),
				End:         date(2024, 6, 5),
			})

			Convey("Then the partial table is returned alongside the error", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(events, ShouldHaveLength, 1)
			})
		})
	})
}

func TestJobSpec(t *testing.T) {
	Convey("Given a queued scan job", t, func() {
		job := scan.Job{
			RunID:       "run-1",
			Symbol:      "ACME",
			ListingDate: date(2024, 5, 1),
			Start:       date(2024, 6, 3),
			End:         date(2024, 6, 5),
			MinScore:    2,
		}

		Convey("Then its engine spec carries everything but the filter", func() {
			So(job.Spec(), ShouldResemble, scan.Spec{
				Symbol:      "ACME",
				ListingDate: date(2024, 5, 1),
				Start:       date(2024, 6, 3),
				End:         date(2024, 6, 5),
			})
		})
	})
}
