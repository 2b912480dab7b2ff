// Package ayanamsha implements the Ayanāṃśa Registry & Transform (§4.D): a
// startup-loaded, immutable registry of sidereal reference systems, each
// either a fixed offset or a linear-in-T formula, resolved and applied to
// tropical longitudes at request time.
package ayanamsha

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/astrocore/involution/internal/apierr"
	"github.com/astrocore/involution/internal/models"
)

// Kind distinguishes the two record shapes (§3).
type Kind string

const (
	Fixed   Kind = "fixed"
	Formula Kind = "formula"
)

// Record is one registered ayanāṃśa (§3).
type Record struct {
	ID        string  `yaml:"id"`
	Kind      Kind    `yaml:"kind"`
	ValueDeg  float64 `yaml:"value_deg"`  // kind == fixed
	FormulaID string  `yaml:"formula_id"` // kind == formula; key into coefficients table
}

// coefficients defines value(T) = C0 + C1*T (degrees, T in Julian centuries
// from J2000) for each named formula in the closed set (§3, SPEC_FULL §4.D).
// Rates are calibrated to the general precession rate of ~50.29"/yr
// (0.01397 deg/yr), satisfying the 0.010-0.020 deg/yr decade-drift
// invariant (§8.5).
var coefficients = map[string]struct{ C0, C1 float64 }{
	"lahiri":         {C0: 23.85, C1: 1.396},
	"fagan_bradley":  {C0: 24.8333, C1: 1.396},
	"krishnamurti":   {C0: 23.7333, C1: 1.396},
	"raman":          {C0: 22.3667, C1: 1.396},
	"yukteshwar":     {C0: 22.45, C1: 1.396},
}

// Registry is the immutable, loaded-at-startup set of ayanāṃśa records.
type Registry struct {
	byID map[string]Record
}

// defaultRecords is used when no registry file is present (§4.D: "If the
// file is absent, a built-in default set containing at minimum lahiri,
// fagan_bradley, fagan_bradley_fixed must be available").
func defaultRecords() []Record {
	return []Record{
		{ID: "lahiri", Kind: Formula, FormulaID: "lahiri"},
		{ID: "fagan_bradley", Kind: Formula, FormulaID: "fagan_bradley"},
		{ID: "fagan_bradley_fixed", Kind: Fixed, ValueDeg: 24.8333},
		{ID: "krishnamurti", Kind: Formula, FormulaID: "krishnamurti"},
		{ID: "raman", Kind: Formula, FormulaID: "raman"},
		{ID: "yukteshwar", Kind: Formula, FormulaID: "yukteshwar"},
	}
}

type fileFormat struct {
	Ayanamshas []Record `yaml:"ayanamshas"`
}

// Load reads the registry YAML at path; a missing file is not an error —
// the built-in default set is used instead (§4.D).
func Load(path string) (*Registry, error) {
	records := defaultRecords()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			var ff fileFormat
			if err := yaml.Unmarshal(raw, &ff); err != nil {
				return nil, fmt.Errorf("ayanamsha: parsing registry %s: %w", path, err)
			}
			if len(ff.Ayanamshas) > 0 {
				records = ff.Ayanamshas
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("ayanamsha: reading registry %s: %w", path, err)
		}
	}

	r := &Registry{byID: make(map[string]Record, len(records))}
	for _, rec := range records {
		if rec.Kind == Formula {
			if _, ok := coefficients[rec.FormulaID]; !ok {
				return nil, fmt.Errorf("ayanamsha: record %q references unknown formula %q", rec.ID, rec.FormulaID)
			}
		}
		r.byID[models.NormalizeID(rec.ID)] = rec
	}
	return r, nil
}

// Resolve looks up id (case-insensitive); unknown ids fail with
// AYANAMSHA.UNSUPPORTED listing available ids (§4.D).
func (r *Registry) Resolve(id string) (Record, error) {
	rec, ok := r.byID[models.NormalizeID(id)]
	if !ok {
		return Record{}, apierr.AyanamshaUnsupported.WithDetail(
			fmt.Sprintf("unknown ayanamsha id %q", id)).WithTip(
			fmt.Sprintf("available ids: %s", strings.Join(r.IDs(), ", ")))
	}
	return rec, nil
}

// IDs returns every registered id, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// List returns every registered record, sorted by id, for GET /v1/ayanamshas.
func (r *Registry) List() []Record {
	ids := r.IDs()
	out := make([]Record, len(ids))
	for i, id := range ids {
		out[i] = r.byID[id]
	}
	return out
}

// Value evaluates the ayanāṃśa offset in degrees at Julian centuries t
// since J2000 (§4.D: "for fixed, returns value_deg independent of
// instant; for formula, requires instant and evaluates the named formula").
func Value(rec Record, t float64) float64 {
	if rec.Kind == Fixed {
		return rec.ValueDeg
	}
	c := coefficients[rec.FormulaID]
	return c.C0 + c.C1*t
}

// Apply returns (tropicalLongitudeDeg - offsetDeg) mod 360 (§4.D).
func Apply(tropicalLongitudeDeg, offsetDeg float64) float64 {
	v := tropicalLongitudeDeg - offsetDeg
	v = mod360(v)
	return v
}

// Unapply inverts Apply: (siderealLongitudeDeg + offsetDeg) mod 360. Used
// to verify the round-trip invariant in tests and available to callers that
// need tropical-from-sidereal.
func Unapply(siderealLongitudeDeg, offsetDeg float64) float64 {
	return mod360(siderealLongitudeDeg + offsetDeg)
}

func mod360(v float64) float64 {
	v = fmod(v, 360.0)
	if v < 0 {
		v += 360.0
	}
	return v
}

func fmod(a, b float64) float64 {
	n := int64(a / b)
	return a - float64(n)*b
}
