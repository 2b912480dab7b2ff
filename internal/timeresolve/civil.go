package timeresolve

import (
	"fmt"
	"time"
)

// civilResolution is the outcome of mapping a naive wall-clock datetime onto
// a concrete UTC instant within a given IANA zone.
type civilResolution struct {
	UTC         time.Time
	OffsetSec   int
	DSTActive   bool
	Ambiguous   bool
	Nonexistent bool
}

// resolveCivil attaches loc to the naive (y, mo, d, hh, mi, se) wall clock
// and determines the UTC instant, detecting DST folds (ambiguous) and gaps
// (nonexistent) by probing the zone's offset a few hours either side of the
// naive instant (§4.C "Ambiguous/gap times").
//
// Folds resolve to the earlier of the two valid UTC instants ("first
// occurrence", per the resolution pipeline); gaps move the naive wall time
// forward by the gap's length (02:30 in a one-hour gap resolves to 03:30).
func resolveCivil(y, mo, d, hh, mi, se int, loc *time.Location) civilResolution {
	naiveAsUTC := time.Date(y, time.Month(mo), d, hh, mi, se, 0, time.UTC)

	probe := time.Date(y, time.Month(mo), d, hh, mi, se, 0, loc)
	before := probe.Add(-3 * time.Hour)
	after := probe.Add(3 * time.Hour)
	_, offBefore := before.Zone()
	_, offAfter := after.Zone()

	utcIfBefore := naiveAsUTC.Add(-time.Duration(offBefore) * time.Second)
	utcIfAfter := naiveAsUTC.Add(-time.Duration(offAfter) * time.Second)

	matchesBefore := sameWall(utcIfBefore.In(loc), y, mo, d, hh, mi, se)
	matchesAfter := sameWall(utcIfAfter.In(loc), y, mo, d, hh, mi, se)

	switch {
	case offBefore == offAfter:
		return civilResolution{
			UTC:       utcIfBefore,
			OffsetSec: offBefore,
			DSTActive: isDST(loc, utcIfBefore),
		}
	case matchesBefore && matchesAfter:
		earlier, earlierOff := utcIfBefore, offBefore
		if utcIfAfter.Before(earlier) {
			earlier, earlierOff = utcIfAfter, offAfter
		}
		return civilResolution{
			UTC:       earlier,
			OffsetSec: earlierOff,
			DSTActive: isDST(loc, earlier),
			Ambiguous: true,
		}
	case matchesBefore && !matchesAfter:
		return civilResolution{UTC: utcIfBefore, OffsetSec: offBefore, DSTActive: isDST(loc, utcIfBefore)}
	case !matchesBefore && matchesAfter:
		return civilResolution{UTC: utcIfAfter, OffsetSec: offAfter, DSTActive: isDST(loc, utcIfAfter)}
	default:
		// Gap: neither side round-trips. Reading the wall time with the
		// pre-transition offset gives an instant at or after the
		// transition, whose local time is the wall time plus the gap.
		return civilResolution{
			UTC:         utcIfBefore,
			OffsetSec:   offAfter,
			DSTActive:   isDST(loc, utcIfBefore),
			Nonexistent: true,
		}
	}
}

func sameWall(t time.Time, y, mo, d, hh, mi, se int) bool {
	return t.Year() == y && int(t.Month()) == mo && t.Day() == d &&
		t.Hour() == hh && t.Minute() == mi && t.Second() == se
}

// isDST approximates whether t falls in daylight-saving time for loc by
// comparing its offset to the zone's offset on January 1 of the same year.
// This is a heuristic (it does not distinguish zones with no DST from a
// genuine January-is-DST southern-hemisphere zone beyond the comparison
// itself), adequate for the provenance `dst_active` flag this service
// reports rather than any DST-dependent computation.
func isDST(loc *time.Location, t time.Time) bool {
	jan1 := time.Date(t.Year(), 1, 1, 0, 0, 0, 0, loc)
	_, janOffset := jan1.Zone()
	_, curOffset := t.Zone()
	return curOffset != janOffset
}

// ParseNaiveDatetime parses a flexible ISO-ish naive datetime string (no
// zone suffix) into its components, rejecting years outside [1000, 3000]
// (§4.C step 2).
func ParseNaiveDatetime(s string) (y, mo, d, hh, mi, se int, err error) {
	layouts := []string{
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	}
	var t time.Time
	var parseErr error
	for _, layout := range layouts {
		t, parseErr = time.Parse(layout, s)
		if parseErr == nil {
			break
		}
	}
	if parseErr != nil {
		return 0, 0, 0, 0, 0, 0, fmt.Errorf("unrecognized naive datetime format: %q", s)
	}
	if t.Year() < 1000 || t.Year() > 3000 {
		return 0, 0, 0, 0, 0, 0, fmt.Errorf("year %d outside [1000, 3000]", t.Year())
	}
	return t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), nil
}
