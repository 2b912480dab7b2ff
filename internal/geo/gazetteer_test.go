package geo

import "testing"

func TestGazetteer_Nearest_FindsCloseCity(t *testing.T) {
	g := NewGazetteer()
	city, dist, ok := g.Nearest(40.7128, -74.0060, 50)
	if !ok {
		t.Fatal("expected to find New York within 50km of its own coordinates")
	}
	if city.Name != "New York" {
		t.Errorf("Name = %q, want New York", city.Name)
	}
	if dist > 1.0 {
		t.Errorf("distance to exact coordinates should be ~0, got %v km", dist)
	}
}

func TestGazetteer_Nearest_OutsideRadiusMisses(t *testing.T) {
	g := NewGazetteer()
	// Mid-Pacific, far from every built-in city.
	if _, _, ok := g.Nearest(0, -150, 100); ok {
		t.Error("expected no city within 100km of open ocean coordinates")
	}
}

func TestCoarseZone(t *testing.T) {
	tests := []struct {
		lon  float64
		want string
	}{
		{0, "Etc/GMT"},
		{-74, "Etc/GMT+5"},
		{139, "Etc/GMT-9"},
		{200, "Etc/GMT-12"},  // clamped
		{-200, "Etc/GMT+12"}, // clamped
	}
	for _, tt := range tests {
		if got := CoarseZone(tt.lon); got != tt.want {
			t.Errorf("CoarseZone(%v) = %q, want %q", tt.lon, got, tt.want)
		}
	}
}
