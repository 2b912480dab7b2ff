package ephemeris

import (
	"math"

	"github.com/astrocore/involution/internal/models"
)

// JulianCenturiesTT returns T, the number of Julian centuries of 36525 days
// since J2000.0 (JD 2451545.0), for a given Julian Ephemeris Date. The
// sub-minute difference between TT and UTC (leap seconds, ΔT) is not
// modeled; at the day-level cadence this service serves, it is well inside
// the ≤1 arcminute invariant (§8.5).
func JulianCenturiesTT(jde float64) float64 {
	return (jde - 2451545.0) / 36525.0
}

// MeanObliquityDeg returns the IAU 1980 mean obliquity of the ecliptic, in
// degrees, for Julian centuries T since J2000.
func MeanObliquityDeg(t float64) float64 {
	arcsec := 84381.448 - 46.8150*t - 0.00059*t*t + 0.001813*t*t*t
	return arcsec / 3600.0
}

// precessionAnglesDeg returns the IAU 1976 (Lieske) precession angles zeta,
// z, theta in degrees, for Julian centuries T since J2000.
func precessionAnglesDeg(t float64) (zeta, z, theta float64) {
	t2 := t * t
	t3 := t2 * t
	zeta = (2306.2181*t + 0.30188*t2 + 0.017998*t3) / 3600.0
	z = (2306.2181*t + 1.09468*t2 + 0.018203*t3) / 3600.0
	theta = (2004.3109*t - 0.42665*t2 - 0.041833*t3) / 3600.0
	return
}

func rotateZ(v [3]float64, angleDeg float64) [3]float64 {
	a := angleDeg * math.Pi / 180.0
	c, s := math.Cos(a), math.Sin(a)
	return [3]float64{
		c*v[0] - s*v[1],
		s*v[0] + c*v[1],
		v[2],
	}
}

func rotateY(v [3]float64, angleDeg float64) [3]float64 {
	a := angleDeg * math.Pi / 180.0
	c, s := math.Cos(a), math.Sin(a)
	return [3]float64{
		c*v[0] + s*v[2],
		v[1],
		-s*v[0] + c*v[2],
	}
}

// PrecessEquatorialJ2000ToOfDate rotates a rectangular state from the mean
// equator/equinox of J2000 to the mean equator/equinox of date, using the
// IAU 1976 precession angles. Position and velocity are rotated with the
// same (time-invariant over the rotation) matrix; the slow drift of the
// matrix itself is not differentiated, which is adequate for the
// deg/day-level speed and retrograde-sign derivation this service performs.
func PrecessEquatorialJ2000ToOfDate(s models.RectangularState, t float64) models.RectangularState {
	zeta, z, theta := precessionAnglesDeg(t)

	rotate := func(v [3]float64) [3]float64 {
		v = rotateZ(v, -zeta)
		v = rotateY(v, theta)
		v = rotateZ(v, -z)
		return v
	}

	pos := rotate([3]float64{s.X, s.Y, s.Z})
	vel := rotate([3]float64{s.VX, s.VY, s.VZ})
	return models.RectangularState{
		X: pos[0], Y: pos[1], Z: pos[2],
		VX: vel[0], VY: vel[1], VZ: vel[2],
	}
}

// EquatorialToEcliptic rotates a rectangular state about the X axis by the
// obliquity of date, from equatorial to ecliptic coordinates.
func EquatorialToEcliptic(s models.RectangularState, obliquityDeg float64) models.RectangularState {
	eps := obliquityDeg * math.Pi / 180.0
	c, si := math.Cos(eps), math.Sin(eps)

	y, z := s.Y*c+s.Z*si, -s.Y*si+s.Z*c
	vy, vz := s.VY*c+s.VZ*si, -s.VY*si+s.VZ*c

	return models.RectangularState{
		X: s.X, Y: y, Z: z,
		VX: s.VX, VY: vy, VZ: vz,
	}
}

// EclipticLonLatDist derives ecliptic longitude (degrees, [0,360)), latitude
// (degrees) and distance (AU) from a rectangular ecliptic state.
func EclipticLonLatDist(s models.RectangularState) (lonDeg, latDeg, distAU float64) {
	dist := math.Sqrt(s.X*s.X + s.Y*s.Y + s.Z*s.Z)
	lon := math.Atan2(s.Y, s.X) * 180.0 / math.Pi
	if lon < 0 {
		lon += 360.0
	}
	lat := math.Asin(clamp(s.Z/dist, -1, 1)) * 180.0 / math.Pi
	return lon, lat, dist
}

// EclipticLongitudeRateDegPerDay returns d(longitude)/dt in degrees/day from
// a rectangular ecliptic state's position and velocity, using the standard
// closed-form rate of atan2(y,x): negative values indicate apparent
// retrograde motion.
func EclipticLongitudeRateDegPerDay(s models.RectangularState) float64 {
	denom := s.X*s.X + s.Y*s.Y
	if denom == 0 {
		return 0
	}
	radPerDay := (s.X*s.VY - s.Y*s.VX) / denom
	return radPerDay * 180.0 / math.Pi
}

// EquatorialRaDecDist derives right ascension (hours), declination (degrees)
// and distance (AU) from a rectangular equatorial state.
func EquatorialRaDecDist(s models.RectangularState) (raHours, decDeg, distAU float64) {
	dist := math.Sqrt(s.X*s.X + s.Y*s.Y + s.Z*s.Z)
	ra := math.Atan2(s.Y, s.X) * 180.0 / math.Pi
	if ra < 0 {
		ra += 360.0
	}
	dec := math.Asin(clamp(s.Z/dist, -1, 1)) * 180.0 / math.Pi
	return ra / 15.0, dec, dist
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
