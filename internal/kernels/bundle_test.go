package kernels

import (
	"math"
	"testing"
	"time"
)

func TestWindow_Contains(t *testing.T) {
	w := Window{StartJD: 2451545.0, EndJD: 2451545.0 + 365}
	if !w.Contains(2451545.0) {
		t.Error("expected the start instant to be contained")
	}
	if !w.Contains(2451545.0 + 365) {
		t.Error("expected the end instant to be contained")
	}
	if w.Contains(2451545.0 - 1) {
		t.Error("expected an instant before the window to be excluded")
	}
	if w.Contains(2451545.0 + 366) {
		t.Error("expected an instant after the window to be excluded")
	}
}

func TestTimeToJulianDay_J2000Epoch(t *testing.T) {
	j2000 := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	got := TimeToJulianDay(j2000)
	if math.Abs(got-2451545.0) > 1e-6 {
		t.Errorf("TimeToJulianDay(J2000 noon) = %v, want 2451545.0", got)
	}
}

func TestJulianDayRoundTrip(t *testing.T) {
	original := time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC)
	jd := TimeToJulianDay(original)
	back := JulianDayToTime(jd)

	if diff := back.Sub(original); diff > time.Millisecond || diff < -time.Millisecond {
		t.Errorf("round trip drifted by %v: got %v, want %v", diff, back, original)
	}
}

func TestStrippedExt(t *testing.T) {
	tests := []struct{ in, want string }{
		{"de440s.bsp", "de440s"},
		{"sub/dir/de440t.bsp", "de440t"},
	}
	for _, tt := range tests {
		if got := strippedExt(tt.in); got != tt.want {
			t.Errorf("strippedExt(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
