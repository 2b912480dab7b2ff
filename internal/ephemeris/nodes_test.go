package ephemeris

import (
	"math"
	"testing"

	"github.com/astrocore/involution/internal/models"
)

func TestMeanNodeLongitudeDeg_InRange(t *testing.T) {
	for _, century := range []float64{-2, -1, 0, 1, 2} {
		got := MeanNodeLongitudeDeg(century)
		if got < 0 || got >= 360 {
			t.Errorf("MeanNodeLongitudeDeg(%v) = %v, out of [0,360)", century, got)
		}
	}
}

func TestMeanNodeLongitudeDeg_J2000Value(t *testing.T) {
	got := MeanNodeLongitudeDeg(0)
	want := 125.0445479
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("MeanNodeLongitudeDeg(0) = %v, want %v", got, want)
	}
}

func TestTrueNodeLongitudeDeg_OrbitInEclipticPlane(t *testing.T) {
	// A Moon state with zero inclination (orbit confined to the XY plane)
	// has no well-defined node normal vector in Z, but the computation must
	// still return a finite, normalized value rather than NaN-propagating.
	state := models.RectangularState{X: 1, Y: 0, Z: 0, VX: 0, VY: 1, VZ: 0}
	got := TrueNodeLongitudeDeg(state)
	if math.IsNaN(got) {
		t.Fatal("TrueNodeLongitudeDeg returned NaN for a planar orbit")
	}
	if got < 0 || got >= 360 {
		t.Errorf("TrueNodeLongitudeDeg = %v, out of [0,360)", got)
	}
}

func TestNormalizeDeg(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0}, {360, 0}, {-10, 350}, {725, 5}, {-725, 355},
	}
	for _, tt := range tests {
		if got := normalizeDeg(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("normalizeDeg(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
