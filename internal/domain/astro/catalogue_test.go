package astro_test

import (
	"testing"

	astro "github.com/lunalira/transit/internal/domain/astro"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewCatalogue(t *testing.T) {
	Convey("Given per-aspect orbs and scores", t, func() {
		Convey("When built from the stock configuration", func() {
			c := astro.DefaultCatalogue()

			Convey("Then every canonical aspect is configured", func() {
				So(c.Len(), ShouldEqual, 9)
				for _, name := range astro.AspectNames() {
					def, ok := c.Definition(name)
					So(ok, ShouldBeTrue)
					angle, _ := astro.AspectAngle(name)
					So(def.Angle, ShouldEqual, angle)
					So(def.Orb, ShouldBeGreaterThan, 0)
				}
			})
		})

		Convey("When an orb is missing or non-positive", func() {
			orbs := astro.DefaultOrbs()
			delete(orbs, astro.Trine)
			orbs[astro.Square] = 0
			c := astro.NewCatalogue(orbs, astro.DefaultScores())

			Convey("Then those aspects are left out of the catalogue", func() {
				So(c.Len(), ShouldEqual, 7)
				_, ok := c.Definition(astro.Trine)
				So(ok, ShouldBeFalse)
				_, ok = c.Definition(astro.Square)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a name has an orb but no score", func() {
			c := astro.NewCatalogue(
				map[string]float64{astro.Sextile: 3},
				map[string]float64{},
			)

			Convey("Then it scores zero", func() {
				def, ok := c.Definition(astro.Sextile)
				So(ok, ShouldBeTrue)
				So(def.Score, ShouldEqual, 0)
			})
		})
	})
}

func TestCatalogueMatch(t *testing.T) {
	Convey("Given the stock catalogue", t, func() {
		c := astro.DefaultCatalogue()

		Convey("When the separation sits inside an orb", func() {
			m, ok := c.Match(2.0)

			Convey("Then the matching aspect is returned with its residual", func() {
				So(ok, ShouldBeTrue)
				So(m.Name, ShouldEqual, astro.Conjunction)
				So(m.Residual, ShouldEqual, 2.0)
				So(m.Score, ShouldEqual, 5)
			})
		})

		Convey("When the separation sits exactly on the orb boundary", func() {
			m, ok := c.Match(5.0)

			Convey("Then the boundary is inclusive", func() {
				So(ok, ShouldBeTrue)
				So(m.Name, ShouldEqual, astro.Conjunction)
				So(m.Residual, ShouldEqual, 5.0)
			})
		})

		Convey("When the separation sits just past the orb boundary", func() {
			c := astro.NewCatalogue(
				map[string]float64{astro.Conjunction: 5},
				map[string]float64{astro.Conjunction: 5},
			)
			_, ok := c.Match(5.0001)

			Convey("Then no match is returned", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When no configured aspect tolerates the separation", func() {
			_, ok := c.Match(75.0)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestCatalogueFirstMatchWins(t *testing.T) {
	Convey("Given two aspects whose orbs overlap on the same separation", t, func() {
		// Widen Trine's orb so 127 degrees qualifies for both Trine
		// (120+-10, residual 7) and Sesquisquare (135+-10, residual 8).
		// Then check the canonical-order winner, not the tighter residual,
		// by also probing 129 where Sesquisquare is tighter (6 vs 9).
		orbs := map[string]float64{
			astro.Trine:        10,
			astro.Sesquisquare: 10,
		}
		scores := map[string]float64{
			astro.Trine:        3,
			astro.Sesquisquare: -1,
		}
		c := astro.NewCatalogue(orbs, scores)

		Convey("When the earlier aspect has the larger residual", func() {
			m, ok := c.Match(129.0)

			Convey("Then the earlier aspect in canonical order still wins", func() {
				So(ok, ShouldBeTrue)
				So(m.Name, ShouldEqual, astro.Trine)
				So(m.Residual, ShouldEqual, 9.0)
			})
		})

		Convey("When only the later aspect tolerates the separation", func() {
			m, ok := c.Match(131.0)

			Convey("Then the later aspect is returned", func() {
				So(ok, ShouldBeTrue)
				So(m.Name, ShouldEqual, astro.Sesquisquare)
				So(m.Residual, ShouldEqual, 4.0)
			})
		})
	})
}

func TestNYSEChart(t *testing.T) {
	Convey("Given the fixed exchange reference chart", t, func() {
		chart := astro.NYSEChart()

		Convey("Then it holds the four frozen angles", func() {
			So(len(chart), ShouldEqual, 4)
			So(chart[0].Name, ShouldEqual, "ASC")
			So(chart[0].Longitude, ShouldEqual, 103.85)
			So(chart[1].Name, ShouldEqual, "MC")
			So(chart[1].Longitude, ShouldEqual, 353.33)
			So(chart[2].Name, ShouldEqual, "Neptune")
			So(chart[2].Longitude, ShouldEqual, 207.7)
			So(chart[3].Name, ShouldEqual, "Mars")
			So(chart[3].Longitude, ShouldEqual, 228.72)
		})
	})
}
