package ephemeris

import (
	"math"

	"github.com/lunalira/transit/internal/domain/astro"
)

// elements holds Keplerian mean elements at J2000 with per-century secular
// rates: semi-major axis (au), eccentricity, inclination, mean longitude,
// longitude of perihelion and longitude of the ascending node (degrees).
// Values are the JPL low-precision fits valid 1800-2050.
type elements struct {
	a, aDot       float64
	e, eDot       float64
	i, iDot       float64
	l, lDot       float64
	peri, periDot float64
	node, nodeDot float64
}

// elementsEarth is the Earth-Moon barycenter, used both for the Sun's
// geocentric longitude and to reduce planet positions to geocentric.
var elementsEarth = elements{
	a: 1.00000261, aDot: 0.00000562,
	e: 0.01671123, eDot: -0.00004392,
	i: -0.00001531, iDot: -0.01294668,
	l: 100.46457166, lDot: 35999.37244981,
	peri: 102.93768193, periDot: 0.32327364,
	node: 0.0, nodeDot: 0.0,
}

var elementsPlanets = map[string]elements{
	astro.Mercury: {
		a: 0.38709927, aDot: 0.00000037,
		e: 0.20563593, eDot: 0.00001906,
		i: 7.00497902, iDot: -0.00594749,
		l: 252.25032350, lDot: 149472.67411175,
		peri: 77.45779628, periDot: 0.16047689,
		node: 48.33076593, nodeDot: -0.12534081,
	},
	astro.Venus: {
		a: 0.72333566, aDot: 0.00000390,
		e: 0.00677672, eDot: -0.00004107,
		i: 3.39467605, iDot: -0.00078890,
		l: 181.97909950, lDot: 58517.81538729,
		peri: 131.60246718, periDot: 0.00268329,
		node: 76.67984255, nodeDot: -0.27769418,
	},
	astro.Mars: {
		a: 1.52371034, aDot: 0.00001847,
		e: 0.09339410, eDot: 0.00007882,
		i: 1.84969142, iDot: -0.00813131,
		l: -4.55343205, lDot: 19140.30268499,
		peri: -23.94362959, periDot: 0.44441088,
		node: 49.55953891, nodeDot: -0.29257343,
	},
	astro.Jupiter: {
		a: 5.20288700, aDot: -0.00011607,
		e: 0.04838624, eDot: -0.00013253,
		i: 1.30439695, iDot: -0.00183714,
		l: 34.39644051, lDot: 3034.74612775,
		peri: 14.72847983, periDot: 0.21252668,
		node: 100.47390909, nodeDot: 0.20469106,
	},
	astro.Saturn: {
		a: 9.53667594, aDot: -0.00125060,
		e: 0.05386179, eDot: -0.00050991,
		i: 2.48599187, iDot: 0.00193609,
		l: 49.95424423, lDot: 1222.49362201,
		peri: 92.59887831, periDot: -0.41897216,
		node: 113.66242448, nodeDot: -0.28867794,
	},
	astro.Uranus: {
		a: 19.18916464, aDot: -0.00196176,
		e: 0.04725744, eDot: -0.00004397,
		i: 0.77263783, iDot: -0.00242939,
		l: 313.23810451, lDot: 428.48202785,
		peri: 170.95427630, periDot: 0.40805281,
		node: 74.01692503, nodeDot: 0.04240589,
	},
	astro.Neptune: {
		a: 30.06992276, aDot: 0.00026291,
		e: 0.00859048, eDot: 0.00005105,
		i: 1.77004347, iDot: 0.00035372,
		l: -55.12002969, lDot: 218.45945325,
		peri: 44.96476227, periDot: -0.32241464,
		node: 131.78422574, nodeDot: -0.00508664,
	},
	astro.Pluto: {
		a: 39.48211675, aDot: -0.00031596,
		e: 0.24882730, eDot: 0.00005170,
		i: 17.14001206, iDot: 0.00004818,
		l: 238.92903833, lDot: 145.20780515,
		peri: 224.06891629, periDot: -0.04062942,
		node: 110.30393684, nodeDot: -0.01183482,
	},
}

// position is a heliocentric ecliptic position in astronomical units.
type position struct {
	x, y, z float64
}

// heliocentric evaluates the mean elements at time t (Julian centuries from
// J2000), solves Kepler's equation and rotates the orbital-plane position
// into ecliptic coordinates.
func heliocentric(el elements, t float64) position {
	a := el.a + el.aDot*t
	e := el.e + el.eDot*t
	i := radians(el.i + el.iDot*t)
	l := el.l + el.lDot*t
	peri := el.peri + el.periDot*t
	node := el.node + el.nodeDot*t

	m := radians(astro.Normalize(l - peri))
	w := radians(peri - node)
	omega := radians(node)

	ec := solveKepler(m, e)
	xp := a * (math.Cos(ec) - e)
	yp := a * math.Sqrt(1-e*e) * math.Sin(ec)

	cosW, sinW := math.Cos(w), math.Sin(w)
	cosO, sinO := math.Cos(omega), math.Sin(omega)
	cosI, sinI := math.Cos(i), math.Sin(i)

	return position{
		x: (cosW*cosO-sinW*sinO*cosI)*xp + (-sinW*cosO-cosW*sinO*cosI)*yp,
		y: (cosW*sinO+sinW*cosO*cosI)*xp + (-sinW*sinO+cosW*cosO*cosI)*yp,
		z: sinW*sinI*xp + cosW*sinI*yp,
	}
}

// solveKepler iterates Newton's method on E - e*sin(E) = M. The eccentric
// anomaly converges in a handful of steps for every planetary eccentricity.
func solveKepler(m, e float64) float64 {
	ec := m + e*math.Sin(m)
	for iter := 0; iter < 20; iter++ {
		delta := (ec - e*math.Sin(ec) - m) / (1 - e*math.Cos(ec))
		ec -= delta
		if math.Abs(delta) < 1e-9 {
			break
		}
	}
	return ec
}

// lunarLongitude evaluates the Moon's mean longitude plus the principal
// periodic terms (evection, variation, annual equation), in degrees.
// Accuracy is a fraction of a degree, well inside the tightest orb.
func lunarLongitude(t float64) float64 {
	lp := 218.3164477 + 481267.88123421*t // mean longitude
	d := radians(297.8501921 + 445267.1114034*t)
	ms := radians(357.5291092 + 35999.0502909*t)
	mp := radians(134.9633964 + 477198.8675055*t)
	f := radians(93.2720950 + 483202.0175233*t)

	lon := lp +
		6.288774*math.Sin(mp) +
		1.274027*math.Sin(2*d-mp) +
		0.658314*math.Sin(2*d) +
		0.213618*math.Sin(2*mp) -
		0.185116*math.Sin(ms) -
		0.114332*math.Sin(2*f)
	return astro.Normalize(lon)
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
