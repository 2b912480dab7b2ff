package ayanamsha

import (
	"math"
	"testing"
)

func TestLoad_DefaultsWhenPathEmpty(t *testing.T) {
	r, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, id := range []string{"lahiri", "fagan_bradley", "fagan_bradley_fixed"} {
		if _, err := r.Resolve(id); err != nil {
			t.Errorf("expected default registry to include %q: %v", id, err)
		}
	}
}

func TestRegistry_Resolve_CaseInsensitive(t *testing.T) {
	r, _ := Load("")
	rec, err := r.Resolve("  LAHIRI ")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rec.ID != "lahiri" {
		t.Errorf("ID = %q, want lahiri", rec.ID)
	}
}

func TestRegistry_Resolve_UnknownID(t *testing.T) {
	r, _ := Load("")
	if _, err := r.Resolve("not_a_real_ayanamsha"); err == nil {
		t.Error("expected an error for an unregistered id")
	}
}

func TestValue_Fixed(t *testing.T) {
	rec := Record{ID: "x", Kind: Fixed, ValueDeg: 24.5}
	if got := Value(rec, 1.0); got != 24.5 {
		t.Errorf("Value(fixed) = %v, want 24.5 regardless of t", got)
	}
}

func TestValue_FormulaVariesLinearlyWithT(t *testing.T) {
	rec := Record{ID: "lahiri", Kind: Formula, FormulaID: "lahiri"}
	v0 := Value(rec, 0)
	v1 := Value(rec, 1)
	if v1 <= v0 {
		t.Errorf("expected ayanamsha value to increase with T (precession), got v0=%v v1=%v", v0, v1)
	}
	rate := v1 - v0
	if rate < 1.0 || rate > 1.6 {
		t.Errorf("drift rate %v deg/century outside plausible precession range", rate)
	}
}

func TestApplyUnapply_RoundTrip(t *testing.T) {
	for _, lon := range []float64{0, 45, 179.9, 350, 10} {
		for _, offset := range []float64{0, 24.1, 90} {
			sidereal := Apply(lon, offset)
			back := Unapply(sidereal, offset)
			diff := math.Mod(back-lon+360, 360)
			if diff > 1e-6 && diff < 360-1e-6 {
				t.Errorf("round trip failed for lon=%v offset=%v: got back=%v", lon, offset, back)
			}
		}
	}
}

func TestApply_AlwaysInRange(t *testing.T) {
	got := Apply(10, 350)
	if got < 0 || got >= 360 {
		t.Errorf("Apply result %v out of [0,360)", got)
	}
}

func TestRegistry_List_SortedByID(t *testing.T) {
	r, _ := Load("")
	list := r.List()
	for i := 1; i < len(list); i++ {
		if list[i-1].ID >= list[i].ID {
			t.Errorf("List() not sorted: %q >= %q", list[i-1].ID, list[i].ID)
		}
	}
}
