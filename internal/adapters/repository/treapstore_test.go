package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lunalira/transit/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

func day(s string) time.Time {
	t, err := time.Parse(repository.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAddScoreAccumulates(t *testing.T) {
	Convey("Given a ranking store", t, func() {
		ctx := context.Background()
		store := repository.NewTreapStore(ctx)
		defer func() { So(store.Close(), ShouldBeNil) }()

		d := day("2024-06-03")

		Convey("When scores arrive for the same symbol on the same day", func() {
			total, err := store.AddScore(ctx, d, "ACME", 5)
			So(err, ShouldBeNil)
			So(total, ShouldEqual, 5.0)

			total, err = store.AddScore(ctx, d, "ACME", -3)
			So(err, ShouldBeNil)

			Convey("Then the day total is the running sum", func() {
				So(total, ShouldEqual, 2.0)

				entry, err := store.Rank(ctx, d, "ACME")
				So(err, ShouldBeNil)
				So(entry.Score, ShouldEqual, 2.0)
				So(entry.Rank, ShouldEqual, 1)
				So(entry.Date, ShouldEqual, "2024-06-03")
			})
		})

		Convey("When the same symbol scores on different days", func() {
			_, err := store.AddScore(ctx, d, "ACME", 5)
			So(err, ShouldBeNil)
			_, err = store.AddScore(ctx, day("2024-06-04"), "ACME", 3)
			So(err, ShouldBeNil)

			Convey("Then the days are ranked independently", func() {
				a, err := store.Rank(ctx, d, "ACME")
				So(err, ShouldBeNil)
				So(a.Score, ShouldEqual, 5.0)

				b, err := store.Rank(ctx, day("2024-06-04"), "ACME")
				So(err, ShouldBeNil)
				So(b.Score, ShouldEqual, 3.0)
			})
		})
	})
}

func TestTopNOrdering(t *testing.T) {
	Convey("Given a day with several ranked symbols", t, func() {
		ctx := context.Background()
		store := repository.NewTreapStore(ctx)
		defer func() { So(store.Close(), ShouldBeNil) }()

		d := day("2024-06-03")
		for symbol, score := range map[string]float64{
			"ACME": 7, "BETA": -2, "CORE": 7, "DYNE": 3,
		} {
			_, err := store.AddScore(ctx, d, symbol, score)
			So(err, ShouldBeNil)
		}

		Convey("When the full board is fetched", func() {
			entries, err := store.TopN(ctx, d, 10)
			So(err, ShouldBeNil)

			Convey("Then totals rank descending with symbol as tie-breaker", func() {
				So(entries, ShouldHaveLength, 4)
				So(entries[0].Symbol, ShouldEqual, "ACME")
				So(entries[1].Symbol, ShouldEqual, "CORE")
				So(entries[2].Symbol, ShouldEqual, "DYNE")
				So(entries[3].Symbol, ShouldEqual, "BETA")
			})

			Convey("Then tied totals share a rank", func() {
				So(entries[0].Rank, ShouldEqual, 1)
				So(entries[1].Rank, ShouldEqual, 1)
				So(entries[2].Rank, ShouldEqual, 2)
				So(entries[3].Rank, ShouldEqual, 3)
			})
		})

		Convey("When a smaller limit is requested", func() {
			entries, err := store.TopN(ctx, d, 2)
			So(err, ShouldBeNil)
			So(entries, ShouldHaveLength, 2)
			So(entries[0].Symbol, ShouldEqual, "ACME")
			So(entries[1].Symbol, ShouldEqual, "CORE")
		})

		Convey("When the limit is invalid", func() {
			_, err := store.TopN(ctx, d, 0)
			So(err, ShouldEqual, repository.ErrInvalidLimit)
		})

		Convey("When an untracked day is queried", func() {
			entries, err := store.TopN(ctx, day("2030-01-01"), 5)
			So(err, ShouldBeNil)
			So(entries, ShouldBeEmpty)
		})
	})
}

func TestRankNotFound(t *testing.T) {
	Convey("Given a store with one ranked symbol", t, func() {
		ctx := context.Background()
		store := repository.NewTreapStore(ctx)
		defer func() { So(store.Close(), ShouldBeNil) }()

		d := day("2024-06-03")
		_, err := store.AddScore(ctx, d, "ACME", 5)
		So(err, ShouldBeNil)

		Convey("Then unknown symbols and untracked days report ErrNotFound", func() {
			_, err := store.Rank(ctx, d, "GHOST")
			So(err, ShouldEqual, repository.ErrNotFound)

			_, err = store.Rank(ctx, day("2030-01-01"), "ACME")
			So(err, ShouldEqual, repository.ErrNotFound)
		})
	})
}

func TestBestByDay(t *testing.T) {
	Convey("Given scores spread over several days", t, func() {
		ctx := context.Background()
		store := repository.NewTreapStore(ctx)
		defer func() { So(store.Close(), ShouldBeNil) }()

		_, err := store.AddScore(ctx, day("2024-06-04"), "BETA", 9)
		So(err, ShouldBeNil)
		_, err = store.AddScore(ctx, day("2024-06-03"), "ACME", 5)
		So(err, ShouldBeNil)
		_, err = store.AddScore(ctx, day("2024-06-03"), "BETA", 1)
		So(err, ShouldBeNil)

		Convey("When the per-day winners are fetched", func() {
			best, err := store.BestByDay(ctx)
			So(err, ShouldBeNil)

			Convey("Then each day contributes its top symbol, days ascending", func() {
				So(best, ShouldHaveLength, 2)
				So(best[0].Date, ShouldEqual, "2024-06-03")
				So(best[0].Symbol, ShouldEqual, "ACME")
				So(best[1].Date, ShouldEqual, "2024-06-04")
				So(best[1].Symbol, ShouldEqual, "BETA")
			})
		})

		Convey("Then bookkeeping reflects the tracked days", func() {
			So(store.Days(ctx), ShouldResemble, []string{"2024-06-03", "2024-06-04"})
			So(store.Count(ctx, day("2024-06-03")), ShouldEqual, 2)
			So(store.Count(ctx, day("2024-06-04")), ShouldEqual, 1)
			So(store.Count(ctx, day("2030-01-01")), ShouldEqual, 0)
		})
	})
}

func TestConcurrentAddScore(t *testing.T) {
	Convey("Given concurrent writers on one day", t, func() {
		ctx := context.Background()
		store := repository.NewTreapStore(ctx)
		defer func() { So(store.Close(), ShouldBeNil) }()

		d := day("2024-06-03")
		const writers = 8
		const perWriter = 50

		var wg sync.WaitGroup
		for w := 0; w < writers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				symbol := fmt.Sprintf("SYM%d", w%4)
				for i := 0; i < perWriter; i++ {
					_, _ = store.AddScore(ctx, d, symbol, 1)
				}
			}(w)
		}
		wg.Wait()

		Convey("Then every increment lands exactly once", func() {
			entries, err := store.TopN(ctx, d, 10)
			So(err, ShouldBeNil)
			So(entries, ShouldHaveLength, 4)

			sum := 0.0
			for _, e := range entries {
				sum += e.Score
			}
			So(sum, ShouldEqual, float64(writers*perWriter))
		})
	})
}
