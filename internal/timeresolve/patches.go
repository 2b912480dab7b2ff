package timeresolve

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/astrocore/involution/internal/models"
)

// patchFile is the on-disk historical-patch-rules JSON shape (§6.2):
// `{ "patches": { "<rule_id>": HistoricalPatchRule, ... } }`.
type patchFile struct {
	Patches map[string]models.HistoricalPatchRule `json:"patches"`
}

// LoadPatchRules reads the historical patch rules file at path, preserving
// registry (insertion) order for the "first rule in registry order wins"
// tie-break (§4.C step 3). A missing file yields an empty rule set rather
// than an error, since strict_history support is optional.
func LoadPatchRules(path string) ([]models.HistoricalPatchRule, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("timeresolve: reading patch rules %s: %w", path, err)
	}

	// Decode twice: once into an ordered token stream to recover key order
	// (encoding/json map iteration is unordered), once into the typed map.
	var pf patchFile
	if err := json.Unmarshal(raw, &pf); err != nil {
		return nil, fmt.Errorf("timeresolve: parsing patch rules %s: %w", path, err)
	}
	order, err := patchKeyOrder(raw)
	if err != nil {
		return nil, fmt.Errorf("timeresolve: parsing patch rule order %s: %w", path, err)
	}

	rules := make([]models.HistoricalPatchRule, 0, len(pf.Patches))
	for _, id := range order {
		if r, ok := pf.Patches[id]; ok {
			rules = append(rules, r)
		}
	}
	return rules, nil
}

// patchKeyOrder recovers the insertion order of the "patches" object's keys
// using json.Decoder's token stream, since map unmarshaling discards order.
func patchKeyOrder(raw []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	var order []string
	inPatches := false
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch v := tok.(type) {
		case json.Delim:
			if v == '{' || v == '[' {
				depth++
			} else if v == '}' || v == ']' {
				depth--
				if depth == 1 && inPatches {
					inPatches = false
				}
			}
		case string:
			if depth == 1 && v == "patches" {
				inPatches = true
				continue
			}
			if depth == 2 && inPatches {
				order = append(order, v)
				// Skip the value for this key to stay aligned: the
				// decoder auto-advances for scalar values, but object
				// values need their closing token consumed by the
				// normal token loop (depth tracking above handles it).
			}
		}
	}
	return order, nil
}

// matchesRule reports whether rule applies to (lat, lon, date) (§4.C step 3).
func matchesRule(rule models.HistoricalPatchRule, lat, lon float64, date string) bool {
	if !rule.Contains(lat, lon) {
		return false
	}
	if rule.DateRange.Start != "" && date < rule.DateRange.Start {
		return false
	}
	if rule.DateRange.End != "" && date > rule.DateRange.End {
		return false
	}
	return true
}

// historicalDSTActive evaluates a named historical DST scheme. Per
// SPEC_FULL §4.C, "us_standard" and "chicago_historical" are both the
// pre-1966 convention: last Sunday of April through last Sunday of October.
func historicalDSTActive(scheme string, local time.Time) bool {
	switch scheme {
	case "us_standard", "chicago_historical":
		year := local.Year()
		start := lastSunday(year, time.April)
		end := lastSunday(year, time.October)
		return !local.Before(start) && local.Before(end)
	default:
		return false
	}
}

func lastSunday(year int, month time.Month) time.Time {
	firstOfNext := time.Date(year, month+1, 1, 2, 0, 0, 0, time.UTC)
	for d := firstOfNext.AddDate(0, 0, -1); ; d = d.AddDate(0, 0, -1) {
		if d.Weekday() == time.Sunday {
			return d
		}
	}
}
