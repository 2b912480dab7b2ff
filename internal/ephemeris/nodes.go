package ephemeris

import (
	"math"

	"github.com/astrocore/involution/internal/models"
)

// MeanNodeLongitudeDeg returns the mean longitude of the Moon's ascending
// node on the ecliptic of date, in degrees [0,360), for Julian centuries T
// since J2000 (Meeus, "Astronomical Algorithms", ch. 47).
func MeanNodeLongitudeDeg(t float64) float64 {
	lon := 125.0445479 - 1934.1362891*t + 0.0020754*t*t + t*t*t/467441.0 - t*t*t*t/60616000.0
	return normalizeDeg(lon)
}

// TrueNodeLongitudeDeg derives the instantaneous (osculating) longitude of
// the Moon's ascending node from the Moon's geocentric ecliptic-of-date
// rectangular state: the ascending node is where the Moon's orbital plane
// crosses the ecliptic, found from the angular momentum vector h = r × v.
// The node direction is ẑ × h, projected onto the ecliptic plane.
func TrueNodeLongitudeDeg(moonEcliptic models.RectangularState) float64 {
	r := [3]float64{moonEcliptic.X, moonEcliptic.Y, moonEcliptic.Z}
	v := [3]float64{moonEcliptic.VX, moonEcliptic.VY, moonEcliptic.VZ}

	h := cross(r, v) // orbital angular momentum direction, ecliptic frame
	// Ascending node direction n = ẑ × h = (-h.y, h.x, 0).
	nx, ny := -h[1], h[0]
	lon := math.Atan2(ny, nx) * 180.0 / math.Pi
	return normalizeDeg(lon)
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func normalizeDeg(deg float64) float64 {
	deg = math.Mod(deg, 360.0)
	if deg < 0 {
		deg += 360.0
	}
	return deg
}
