// Package timeresolve implements the Time Resolver (§4.C): a deterministic,
// seven-step pipeline converting a naive local civil datetime plus
// (lat, lon) into a UTC instant and its provenance metadata.
package timeresolve

import (
	"fmt"
	"sort"
	"time"

	"github.com/astrocore/involution/internal/apierr"
	"github.com/astrocore/involution/internal/geo"
	"github.com/astrocore/involution/internal/models"
)

const defaultRadiusKm = 100.0

// Input is the request to the resolver (§4.C "Inputs").
type Input struct {
	LocalDatetime     string // naive, second precision
	Lat, Lon          float64
	ParityProfile     models.ParityProfile
	UserProvidedZone  string
	UserProvidedOffset *int
	UserAssumeDST     *bool
}

// Resolver holds the immutable, loaded-at-startup rule set.
type Resolver struct {
	gazetteer      *geo.Gazetteer
	patches        []models.HistoricalPatchRule
	ruleSetVersion string
}

// NewResolver builds a Resolver over a gazetteer and an ordered patch-rule
// list (registry order, for the "first rule wins" tie-break).
func NewResolver(gazetteer *geo.Gazetteer, patches []models.HistoricalPatchRule, ruleSetVersion string) *Resolver {
	return &Resolver{gazetteer: gazetteer, patches: patches, ruleSetVersion: ruleSetVersion}
}

// RuleSetVersion reports the loaded rule-set version for provenance.
func (r *Resolver) RuleSetVersion() string { return r.ruleSetVersion }

// Resolve runs the seven-step pipeline (§4.C).
func (r *Resolver) Resolve(in Input) (models.TimeResolutionResult, error) {
	// Step 1: coordinate -> timezone base lookup. Applies under every
	// parity profile; regional overrides (step 3/5) only ever replace what
	// this step produces, and only under strict_history.
	zoneID, confidenceHint := r.baseZone(in.Lat, in.Lon)

	// Step 2: parse civil datetime.
	y, mo, d, hh, mi, se, err := ParseNaiveDatetime(in.LocalDatetime)
	if err != nil {
		return models.TimeResolutionResult{}, apierr.InputInvalid.WithDetail(err.Error())
	}
	dateStr := fmt.Sprintf("%04d-%02d-%02d", y, mo, d)

	loc, err := time.LoadLocation(zoneID)
	if err != nil {
		// Resolution must still be deterministic; fall back to UTC rather
		// than fail the request over an unrecognized base zone.
		loc = time.UTC
		confidenceHint = models.ConfidenceLow
	}

	// Step 4: compute initial UTC under the base zone.
	base := resolveCivil(y, mo, d, hh, mi, se, loc)

	var notes, warnings []string
	var patchesApplied []string
	if base.Ambiguous {
		warnings = append(warnings, "local time is ambiguous (DST fold); resolved to the earlier (first) occurrence")
	}
	if base.Nonexistent {
		warnings = append(warnings, "local time does not exist (DST spring-forward gap); moved forward by the gap's length")
	}

	resolvedUTC := base.UTC
	offsetSeconds := base.OffsetSec
	dstActive := base.DSTActive
	confidence := confidenceHint
	reason := "iana_zone_lookup"

	// Step 3: determine whether a regional override rule applies.
	var hit *models.HistoricalPatchRule
	if in.ParityProfile == models.StrictHistory {
		for i := range r.patches {
			rule := r.patches[i]
			if matchesRule(rule, in.Lat, in.Lon, dateStr) {
				if hit == nil {
					hit = &r.patches[i]
				} else {
					notes = append(notes, fmt.Sprintf("patch rule %s also matched but was superseded by registry order", rule.ID))
				}
			}
		}
	}

	// Step 5: apply the override, if any.
	if hit != nil {
		patchesApplied = append(patchesApplied, hit.ID)
		reason = "historical_patch_rule:" + hit.ID

		switch {
		case hit.Override.OffsetSeconds != nil:
			// A fixed offset bypasses the zone database entirely: used for
			// regions/eras no IANA zone models correctly.
			offsetSeconds = *hit.Override.OffsetSeconds
			localNaive := time.Date(y, time.Month(mo), d, hh, mi, se, 0, time.UTC)
			if hit.Override.DSTRules != "" && hit.Override.DSTRules != "none" {
				dstActive = historicalDSTActive(hit.Override.DSTRules, localNaive)
				if dstActive {
					offsetSeconds += 3600
				}
			} else {
				dstActive = false
			}
			resolvedUTC = localNaive.Add(-time.Duration(offsetSeconds) * time.Second)
			if hit.Override.ZoneID != nil {
				zoneID = *hit.Override.ZoneID
			}
		case hit.Override.ZoneID != nil:
			// Re-resolve the naive wall clock against the overridden zone's
			// own tzdata rules, so the override changes the computed
			// instant and not just the reported zone label.
			zoneID = *hit.Override.ZoneID
			if overrideLoc, locErr := time.LoadLocation(zoneID); locErr == nil {
				res := resolveCivil(y, mo, d, hh, mi, se, overrideLoc)
				resolvedUTC, offsetSeconds, dstActive = res.UTC, res.OffsetSec, res.DSTActive
				if res.Ambiguous {
					warnings = append(warnings, "overridden zone's local time is ambiguous (DST fold); resolved to the earlier (first) occurrence")
				}
				if res.Nonexistent {
					warnings = append(warnings, "overridden zone's local time does not exist (DST spring-forward gap); moved forward by the gap's length")
				}
			}
		}
		confidence = models.ConfidenceMedium
	}

	// Step 6: apply parity-profile semantics.
	switch in.ParityProfile {
	case models.StrictHistory:
		// Keep the (possibly overridden) result as-is.
	case models.AstroCom, models.Clairvision:
		if hit != nil {
			notes = append(notes, "patch overrides discarded under "+string(in.ParityProfile)+"; using raw IANA result")
			resolvedUTC = base.UTC
			offsetSeconds = base.OffsetSec
			dstActive = base.DSTActive
			patchesApplied = nil
			reason = "iana_zone_lookup"
			confidence = confidenceHint
		}
	case models.AsEntered:
		confidence = models.ConfidenceLow
		if in.UserProvidedZone != "" {
			if off, ok := fixedZoneOffsets[in.UserProvidedZone]; ok {
				if off != offsetSeconds {
					warnings = append(warnings, fmt.Sprintf("user-provided zone %s (%ds) disagrees with computed offset %ds", in.UserProvidedZone, off, offsetSeconds))
				}
				offsetSeconds = off
				localNaive := time.Date(y, time.Month(mo), d, hh, mi, se, 0, time.UTC)
				resolvedUTC = localNaive.Add(-time.Duration(off) * time.Second)
				dstActive = off == fixedZoneOffsets[daylightCounterpart(in.UserProvidedZone)]
				reason = "as_entered_zone_abbreviation"
			} else if l, err := time.LoadLocation(in.UserProvidedZone); err == nil {
				res := resolveCivil(y, mo, d, hh, mi, se, l)
				if res.OffsetSec != offsetSeconds {
					warnings = append(warnings, fmt.Sprintf("user-provided zone %s disagrees with computed offset", in.UserProvidedZone))
				}
				resolvedUTC, offsetSeconds, dstActive = res.UTC, res.OffsetSec, res.DSTActive
				reason = "as_entered_zone_id"
			} else {
				warnings = append(warnings, fmt.Sprintf("user-provided zone %q not recognized; ignored", in.UserProvidedZone))
			}
		}
		if in.UserProvidedOffset != nil {
			if *in.UserProvidedOffset != offsetSeconds {
				warnings = append(warnings, fmt.Sprintf("user-provided offset %ds disagrees with computed offset %ds", *in.UserProvidedOffset, offsetSeconds))
			}
			offsetSeconds = *in.UserProvidedOffset
			localNaive := time.Date(y, time.Month(mo), d, hh, mi, se, 0, time.UTC)
			resolvedUTC = localNaive.Add(-time.Duration(offsetSeconds) * time.Second)
			reason = "as_entered_offset"
		}
		if in.UserAssumeDST != nil {
			dstActive = *in.UserAssumeDST
		}
	}

	// Step 7: assign confidence (already seeded above; downgrade further
	// for ambiguous/gap/coarse-fallback cases not already at low).
	if confidence != models.ConfidenceLow && (base.Ambiguous || base.Nonexistent) {
		confidence = models.ConfidenceMedium
	}

	sort.Strings(patchesApplied)

	return models.TimeResolutionResult{
		UTC:            resolvedUTC.UTC().Format(time.RFC3339),
		ZoneID:         zoneID,
		OffsetSeconds:  offsetSeconds,
		DSTActive:      dstActive,
		Confidence:     confidence,
		Reason:         reason,
		Notes:          notes,
		Warnings:       warnings,
		PatchesApplied: patchesApplied,
	}, nil
}

func daylightCounterpart(standard string) string {
	switch standard {
	case "EST":
		return "EDT"
	case "CST":
		return "CDT"
	case "MST":
		return "MDT"
	case "PST":
		return "PDT"
	default:
		return ""
	}
}

// baseZone implements §4.C step 1(b)/(c): nearest-known-city within the
// default radius, else a coarse longitude-band zone.
func (r *Resolver) baseZone(lat, lon float64) (zoneID string, confidence models.Confidence) {
	if city, _, ok := r.gazetteer.Nearest(lat, lon, defaultRadiusKm); ok {
		return city.ZoneID, models.ConfidenceHigh
	}
	return geo.CoarseZone(lon), models.ConfidenceLow
}
