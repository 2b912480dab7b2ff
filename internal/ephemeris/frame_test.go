package ephemeris

import (
	"math"
	"testing"

	"github.com/astrocore/involution/internal/models"
)

func TestJulianCenturiesTT(t *testing.T) {
	if got := JulianCenturiesTT(2451545.0); got != 0 {
		t.Errorf("JulianCenturiesTT(J2000) = %v, want 0", got)
	}
	got := JulianCenturiesTT(2451545.0 + 36525.0)
	if math.Abs(got-1.0) > 1e-12 {
		t.Errorf("JulianCenturiesTT(J2000+1 century) = %v, want 1", got)
	}
}

func TestMeanObliquityDeg_NearJ2000Value(t *testing.T) {
	got := MeanObliquityDeg(0)
	want := 23.439291 // 84381.448 arcsec
	if math.Abs(got-want) > 1e-4 {
		t.Errorf("MeanObliquityDeg(0) = %v, want ~%v", got, want)
	}
}

func TestEclipticLonLatDist_AxisAligned(t *testing.T) {
	lon, lat, dist := EclipticLonLatDist(models.RectangularState{X: 1, Y: 0, Z: 0})
	if lon != 0 {
		t.Errorf("lon = %v, want 0", lon)
	}
	if lat != 0 {
		t.Errorf("lat = %v, want 0", lat)
	}
	if dist != 1 {
		t.Errorf("dist = %v, want 1", dist)
	}

	lon2, _, _ := EclipticLonLatDist(models.RectangularState{X: 0, Y: 1, Z: 0})
	if math.Abs(lon2-90) > 1e-9 {
		t.Errorf("lon = %v, want 90", lon2)
	}
}

func TestEclipticLonLatDist_NegativeYWrapsTo360(t *testing.T) {
	lon, _, _ := EclipticLonLatDist(models.RectangularState{X: 0, Y: -1, Z: 0})
	if math.Abs(lon-270) > 1e-9 {
		t.Errorf("lon = %v, want 270 (wrapped from -90)", lon)
	}
}

func TestEclipticLongitudeRateDegPerDay_SignIndicatesDirection(t *testing.T) {
	prograde := EclipticLongitudeRateDegPerDay(models.RectangularState{X: 1, Y: 0, VX: 0, VY: 1})
	if prograde <= 0 {
		t.Errorf("expected positive rate for counterclockwise motion, got %v", prograde)
	}
	retrograde := EclipticLongitudeRateDegPerDay(models.RectangularState{X: 1, Y: 0, VX: 0, VY: -1})
	if retrograde >= 0 {
		t.Errorf("expected negative rate for clockwise motion, got %v", retrograde)
	}
}

func TestEclipticLongitudeRateDegPerDay_ZeroAtOrigin(t *testing.T) {
	if got := EclipticLongitudeRateDegPerDay(models.RectangularState{}); got != 0 {
		t.Errorf("rate at the origin should be 0, got %v", got)
	}
}

func TestEquatorialRaDecDist_BasicAxis(t *testing.T) {
	ra, dec, dist := EquatorialRaDecDist(models.RectangularState{X: 1, Y: 0, Z: 0})
	if ra != 0 || dec != 0 || dist != 1 {
		t.Errorf("RA/Dec/dist = %v/%v/%v, want 0/0/1", ra, dec, dist)
	}

	ra2, _, _ := EquatorialRaDecDist(models.RectangularState{X: 0, Y: 1, Z: 0})
	if math.Abs(ra2-6.0) > 1e-9 { // 90deg = 6h
		t.Errorf("RA = %vh, want 6h", ra2)
	}
}

func TestPrecessEquatorialJ2000ToOfDate_IdentityAtT0(t *testing.T) {
	s := models.RectangularState{X: 1, Y: 0.2, Z: 0.3, VX: 0.01, VY: -0.02, VZ: 0.005}
	out := PrecessEquatorialJ2000ToOfDate(s, 0)

	if math.Abs(out.X-s.X) > 1e-9 || math.Abs(out.Y-s.Y) > 1e-9 || math.Abs(out.Z-s.Z) > 1e-9 {
		t.Errorf("precession at T=0 should be the identity, got %+v want %+v", out, s)
	}
}

func TestEquatorialToEcliptic_PreservesMagnitude(t *testing.T) {
	s := models.RectangularState{X: 0.5, Y: 0.8, Z: 0.3}
	before := math.Sqrt(s.X*s.X + s.Y*s.Y + s.Z*s.Z)

	out := EquatorialToEcliptic(s, 23.4)
	after := math.Sqrt(out.X*out.X + out.Y*out.Y + out.Z*out.Z)

	if math.Abs(before-after) > 1e-9 {
		t.Errorf("rotation should preserve vector magnitude: before=%v after=%v", before, after)
	}
}
