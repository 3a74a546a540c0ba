package astro

// The ten transit bodies tracked by every scan, in the order the original
// ephemeris tables list them.
const (
	Sun     = "Sun"
	Moon    = "Moon"
	Mercury = "Mercury"
	Venus   = "Venus"
	Mars    = "Mars"
	Jupiter = "Jupiter"
	Saturn  = "Saturn"
	Uranus  = "Uranus"
	Neptune = "Neptune"
	Pluto   = "Pluto"
)

// TransitBodies lists the tracked bodies in canonical order.
func TransitBodies() []string {
	return []string{
		Sun, Moon, Mercury, Venus, Mars,
		Jupiter, Saturn, Uranus, Neptune, Pluto,
	}
}

// NYSEChart returns the fixed reference chart of the New York Stock
// Exchange: ascendant, midheaven, and two planetary longitudes frozen at the
// exchange's founding instant. These angles are static configuration, never
// recomputed.
func NYSEChart() []Position {
	return []Position{
		{Name: "ASC", Longitude: 103.85},
		{Name: "MC", Longitude: 353.33},
		{Name: "Neptune", Longitude: 207.7},
		{Name: "Mars", Longitude: 228.72},
	}
}
