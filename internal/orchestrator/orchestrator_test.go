package orchestrator

import (
	"testing"
	"time"

	"github.com/astrocore/involution/internal/models"
)

func TestFingerprint_StableUnderBodyOrder(t *testing.T) {
	utc := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	a := Fingerprint(utc, models.Tropical, "-", models.EclipticOfDate, models.OfDate,
		uniqueSorted([]models.CelestialBody{models.Sun, models.Moon, models.Mars}))
	b := Fingerprint(utc, models.Tropical, "-", models.EclipticOfDate, models.OfDate,
		uniqueSorted([]models.CelestialBody{models.Mars, models.Sun, models.Moon}))

	if a != b {
		t.Errorf("fingerprint must be stable under body reordering: %q != %q", a, b)
	}
}

func TestFingerprint_DiffersOnSystem(t *testing.T) {
	utc := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	bodies := uniqueSorted([]models.CelestialBody{models.Sun})

	tropical := Fingerprint(utc, models.Tropical, "-", models.EclipticOfDate, models.OfDate, bodies)
	sidereal := Fingerprint(utc, models.Sidereal, "lahiri", models.EclipticOfDate, models.OfDate, bodies)

	if tropical == sidereal {
		t.Error("fingerprints for tropical vs. sidereal requests must differ")
	}
}

func TestFingerprint_Length(t *testing.T) {
	utc := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	fp := Fingerprint(utc, models.Tropical, "-", models.Equatorial, models.J2000,
		uniqueSorted([]models.CelestialBody{models.Sun}))
	if len(fp) != 16 {
		t.Errorf("expected a 16-hex-char fingerprint, got %d chars: %q", len(fp), fp)
	}
}

func TestUniqueSorted_DedupsAndOrders(t *testing.T) {
	in := []models.CelestialBody{models.Venus, models.Sun, models.Venus, models.Moon}
	out := uniqueSorted(in)

	if len(out) != 3 {
		t.Fatalf("expected 3 unique bodies, got %d: %v", len(out), out)
	}
	for i := 1; i < len(out); i++ {
		if out[i-1] >= out[i] {
			t.Errorf("expected strictly ascending order, got %v", out)
		}
	}
}

func TestValidate_RequiresAyanamshaForSidereal(t *testing.T) {
	req := PositionsRequest{
		UTC:    timePtr(time.Now()),
		System: models.Sidereal,
		Frame:  models.EclipticOfDate,
		Epoch:  models.OfDate,
		Bodies: []models.CelestialBody{models.Sun},
	}
	if err := validate(req); err == nil {
		t.Error("expected an error when system=sidereal and ayanamsha is nil")
	}
}

func TestValidate_RejectsAyanamshaForTropical(t *testing.T) {
	req := PositionsRequest{
		UTC:       timePtr(time.Now()),
		System:    models.Tropical,
		Ayanamsha: &models.AyanamshaRef{ID: "lahiri"},
		Frame:     models.EclipticOfDate,
		Epoch:     models.OfDate,
		Bodies:    []models.CelestialBody{models.Sun},
	}
	if err := validate(req); err == nil {
		t.Error("expected an error when system=tropical but an ayanamsha is supplied")
	}
}

func TestValidate_RejectsIncompatibleFrameEpoch(t *testing.T) {
	req := PositionsRequest{
		UTC:    timePtr(time.Now()),
		System: models.Tropical,
		Frame:  models.Equatorial,
		Epoch:  models.OfDate,
		Bodies: []models.CelestialBody{models.Sun},
	}
	if err := validate(req); err == nil {
		t.Error("expected an error for an unsupported frame/epoch pairing")
	}
}

func TestValidate_RejectsEmptyBodies(t *testing.T) {
	req := PositionsRequest{
		UTC:    timePtr(time.Now()),
		System: models.Tropical,
		Frame:  models.EclipticOfDate,
		Epoch:  models.OfDate,
		Bodies: nil,
	}
	if err := validate(req); err == nil {
		t.Error("expected an error for an empty bodies list")
	}
}

func TestValidate_RequiresTimeOrLocalWithPlace(t *testing.T) {
	req := PositionsRequest{
		System: models.Tropical,
		Frame:  models.EclipticOfDate,
		Epoch:  models.OfDate,
		Bodies: []models.CelestialBody{models.Sun},
	}
	if err := validate(req); err == nil {
		t.Error("expected an error when neither when.utc nor when.local_datetime+place is supplied")
	}
}

func timePtr(t time.Time) *time.Time { return &t }
