package scan_test

import (
	"testing"
	"time"

	scan "github.com/lunalira/transit/internal/domain/scan"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseTimeOfDay(t *testing.T) {
	Convey("Given wall-clock strings", t, func() {
		Convey("When the string is well formed", func() {
			tod, err := scan.ParseTimeOfDay("09:30")
			So(err, ShouldBeNil)
			So(tod, ShouldResemble, scan.TimeOfDay{Hour: 9, Minute: 30})
			So(tod.String(), ShouldEqual, "09:30")
		})

		Convey("When the string is malformed", func() {
			_, err := scan.ParseTimeOfDay("25:99")
			So(err, ShouldNotBeNil)
			_, err = scan.ParseTimeOfDay("930")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestFixedDaily(t *testing.T) {
	Convey("Given a fixed daily policy", t, func() {
		p := scan.FixedDaily{Time: scan.TimeOfDay{Hour: 16, Minute: 0}}
		date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

		Convey("Then every date gets exactly that one time", func() {
			So(p.Times(date), ShouldResemble, []scan.TimeOfDay{{Hour: 16}})
			So(p.Reference(), ShouldResemble, scan.TimeOfDay{Hour: 16})
			So(p.Multiple(), ShouldBeFalse)
		})
	})
}

func TestTaggedDaily(t *testing.T) {
	Convey("Given a tagged daily policy", t, func() {
		p := scan.TaggedDaily{Time: scan.TimeOfDay{Hour: 11, Minute: 15}}
		date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

		Convey("Then it samples once per date but keeps wall-clock tags", func() {
			So(p.Times(date), ShouldResemble, []scan.TimeOfDay{{Hour: 11, Minute: 15}})
			So(p.Reference(), ShouldResemble, scan.TimeOfDay{Hour: 11, Minute: 15})
			So(p.Multiple(), ShouldBeTrue)
		})
	})
}

func TestExplicitTimes(t *testing.T) {
	Convey("Given an explicit time list", t, func() {
		p := scan.ExplicitTimes{List: []scan.TimeOfDay{
			{Hour: 16, Minute: 0},
			{Hour: 9, Minute: 30},
			{Hour: 16, Minute: 0},
		}}
		date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

		Convey("Then times come back ascending with duplicates removed", func() {
			So(p.Times(date), ShouldResemble, []scan.TimeOfDay{
				{Hour: 9, Minute: 30},
				{Hour: 16, Minute: 0},
			})
		})

		Convey("Then the reference convention is the earliest time", func() {
			So(p.Reference(), ShouldResemble, scan.TimeOfDay{Hour: 9, Minute: 30})
		})

		Convey("Then multiple samples per day are reported", func() {
			So(p.Multiple(), ShouldBeTrue)
		})
	})
}

func TestSteppedRange(t *testing.T) {
	Convey("Given a stepped time range", t, func() {
		date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

		Convey("When the step is left at zero", func() {
			p := scan.SteppedRange{
				From: scan.TimeOfDay{Hour: 9, Minute: 30},
				To:   scan.TimeOfDay{Hour: 11, Minute: 0},
			}

			Convey("Then it sweeps every 30 minutes inclusive of both ends", func() {
				So(p.Times(date), ShouldResemble, []scan.TimeOfDay{
					{Hour: 9, Minute: 30},
					{Hour: 10, Minute: 0},
					{Hour: 10, Minute: 30},
					{Hour: 11, Minute: 0},
				})
				So(p.Multiple(), ShouldBeTrue)
			})
		})

		Convey("When the endpoints are reversed", func() {
			p := scan.SteppedRange{
				From: scan.TimeOfDay{Hour: 11, Minute: 0},
				To:   scan.TimeOfDay{Hour: 10, Minute: 0},
				Step: time.Hour,
			}

			Convey("Then they are swapped before sweeping", func() {
				So(p.Times(date), ShouldResemble, []scan.TimeOfDay{
					{Hour: 10, Minute: 0},
					{Hour: 11, Minute: 0},
				})
				So(p.Reference(), ShouldResemble, scan.TimeOfDay{Hour: 10, Minute: 0})
			})
		})

		Convey("When from equals to", func() {
			p := scan.SteppedRange{
				From: scan.TimeOfDay{Hour: 9, Minute: 30},
				To:   scan.TimeOfDay{Hour: 9, Minute: 30},
			}

			Convey("Then exactly one sample is produced", func() {
				So(p.Times(date), ShouldResemble, []scan.TimeOfDay{{Hour: 9, Minute: 30}})
				So(p.Multiple(), ShouldBeFalse)
			})
		})
	})
}

func TestPerWeekday(t *testing.T) {
	Convey("Given a per-weekday time map", t, func() {
		p := scan.PerWeekday{ByDay: map[time.Weekday]scan.TimeOfDay{
			time.Monday: {Hour: 9, Minute: 30},
			time.Friday: {Hour: 16, Minute: 0},
		}}

		monday := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
		tuesday := monday.AddDate(0, 0, 1)
		friday := monday.AddDate(0, 0, 4)

		Convey("Then configured weekdays get their assigned time", func() {
			So(p.Times(monday), ShouldResemble, []scan.TimeOfDay{{Hour: 9, Minute: 30}})
			So(p.Times(friday), ShouldResemble, []scan.TimeOfDay{{Hour: 16, Minute: 0}})
		})

		Convey("Then unconfigured weekdays yield no instants at all", func() {
			So(p.Times(tuesday), ShouldBeEmpty)
		})

		Convey("Then the reference convention is the week's earliest time", func() {
			So(p.Reference(), ShouldResemble, scan.TimeOfDay{Hour: 9, Minute: 30})
		})
	})
}
