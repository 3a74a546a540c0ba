package model_test

import (
	"testing"
	"time"

	model "github.com/lunalira/transit/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPairKey(t *testing.T) {
	Convey("Given a pair key", t, func() {
		key := model.PairKey{
			Source: model.SourceIPO,
			First:  "Venus",
			Second: "Sun",
			Aspect: "Trine",
		}

		Convey("When rendered as a string", func() {
			s := key.String()

			Convey("Then all four parts appear in order", func() {
				So(s, ShouldEqual, "IPO|Venus|Sun|Trine")
			})
		})

		Convey("When two keys differ in any field", func() {
			other := key
			other.Second = "Moon"

			Convey("Then their renderings differ", func() {
				So(other.String(), ShouldNotEqual, key.String())
			})
		})
	})
}

func TestDescribe(t *testing.T) {
	Convey("Given matched aspect details", t, func() {
		Convey("When the source is the symbol's IPO chart", func() {
			desc := model.Describe(model.PairKey{
				Source: model.SourceIPO,
				First:  "Mars",
				Second: "Sun",
				Aspect: "Square",
			}, 1.25, -3)

			Convey("Then the source names the reference chart", func() {
				So(desc, ShouldEqual, "Mars Square IPO Sun (1.2°, Score: -3.0)")
			})
		})

		Convey("When the source is the exchange chart", func() {
			desc := model.Describe(model.PairKey{
				Source: model.SourceNYSE,
				First:  "Venus",
				Second: "ASC",
				Aspect: "Conjunction",
			}, 0.5, 5)

			So(desc, ShouldEqual, "Venus Conjunction NYSE ASC (0.5°, Score: +5.0)")
		})

		Convey("When the source is transit-to-transit", func() {
			desc := model.Describe(model.PairKey{
				Source: model.SourceTransit,
				First:  "Sun",
				Second: "Moon",
				Aspect: "Opposition",
			}, 2.0, -5)

			Convey("Then no reference chart is named", func() {
				So(desc, ShouldEqual, "Sun Opposition Moon (2.0°, Score: -5.0)")
			})
		})
	})
}

func TestDay(t *testing.T) {
	Convey("Given an instant with wall-clock precision", t, func() {
		loc, err := time.LoadLocation("America/New_York")
		So(err, ShouldBeNil)
		instant := time.Date(2024, 3, 15, 9, 30, 45, 123, loc)

		Convey("When truncated to its calendar day", func() {
			day := model.Day(instant)

			Convey("Then the clock resets but the day and zone stay", func() {
				So(day.Year(), ShouldEqual, 2024)
				So(day.Month(), ShouldEqual, time.March)
				So(day.Day(), ShouldEqual, 15)
				So(day.Hour(), ShouldEqual, 0)
				So(day.Minute(), ShouldEqual, 0)
				So(day.Location(), ShouldEqual, loc)
			})
		})
	})
}

func TestSources(t *testing.T) {
	Convey("Given the comparison categories", t, func() {
		Convey("Then they enumerate in presentation order", func() {
			So(model.Sources(), ShouldResemble, []model.Source{
				model.SourceIPO, model.SourceNYSE, model.SourceTransit,
			})
		})
	})
}
