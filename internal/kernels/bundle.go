// Package kernels manages bundles of JPL binary ephemeris kernels: manifest
// checksum verification, coverage-window bookkeeping, and kernel-tag policy
// selection for a given instant. It wraps github.com/mshafiee/jpleph, which
// supplies the single raw primitive this package builds guarantees on top
// of: CalculatePV(et, target, center) against one already-open kernel file.
package kernels

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mshafiee/jpleph"

	"github.com/astrocore/involution/internal/apierr"
	"github.com/astrocore/involution/internal/models"
)

// Window is an inclusive coverage interval expressed as Julian Day numbers.
type Window struct {
	StartJD float64
	EndJD   float64
}

// Contains reports whether the Julian Day jd falls within the window.
func (w Window) Contains(jd float64) bool {
	return jd >= w.StartJD && jd <= w.EndJD
}

// KernelInfo is one opened, checksum-verified kernel file within a bundle,
// exposed so the Compute Worker Pool can open its own per-worker handles
// against the same verified paths (§4.B).
type KernelInfo struct {
	Tag    string // derived from the file's base name, e.g. "short_range"
	Path   string
	window Window
}

type kernelHandle = KernelInfo

// Manager owns a bundle's opened kernels and answers coverage/policy
// questions. It does not itself perform CalculatePV calls — those belong to
// the Compute Worker Pool, which opens its own per-worker jpleph.Ephemeris
// handles against the same verified files (§4.B: the primitive's handles
// are not safe for concurrent use, so each worker gets its own).
type Manager struct {
	BundleTag string
	Dir       string
	Handles   []*kernelHandle

	// shortRange is the handle, if any, whose native window is the
	// narrowest — treated as the short-range kernel for policy() purposes.
	shortRange *kernelHandle
	longRange  *kernelHandle

	// coverage is the union-safe, intersection-of-all-kernels window used
	// to answer coverage(body) for ordinary bodies.
	coverage Window
}

// Initialize verifies every file listed in bundleDir/manifest.json against
// its recorded sha256, opens each through the ephemeris primitive, and
// computes the overall coverage window as the intersection of every
// kernel's native [EphemerisStartJD, EphemerisEndJD].
func Initialize(bundleName, kernelsRoot string) (*Manager, error) {
	dir := filepath.Join(kernelsRoot, bundleName)
	manifestPath := filepath.Join(dir, "manifest.json")

	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, apierr.KernelsNotAvailable.WithDetail(fmt.Sprintf("reading manifest: %v", err))
	}
	var manifest Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, apierr.KernelsNotAvailable.WithDetail(fmt.Sprintf("parsing manifest: %v", err))
	}
	if len(manifest.Files) == 0 {
		return nil, apierr.KernelsNotAvailable.WithDetail("manifest lists no kernel files")
	}

	// Deterministic order: verify and open files sorted by relative path.
	relPaths := make([]string, 0, len(manifest.Files))
	for rel := range manifest.Files {
		relPaths = append(relPaths, rel)
	}
	sort.Strings(relPaths)

	m := &Manager{BundleTag: bundleName, Dir: dir}
	for _, rel := range relPaths {
		wantSum := manifest.Files[rel]
		full := filepath.Join(dir, rel)

		got, err := sha256File(full)
		if err != nil {
			return nil, apierr.KernelsNotAvailable.WithDetail(fmt.Sprintf("hashing %s: %v", rel, err))
		}
		if got != wantSum {
			return nil, apierr.KernelsNotAvailable.WithDetail(fmt.Sprintf("checksum mismatch for %s: want %s got %s", rel, wantSum, got))
		}

		eph, err := jpleph.NewEphemeris(full, false)
		if err != nil {
			return nil, apierr.KernelsNotAvailable.WithDetail(fmt.Sprintf("opening kernel %s: %v", rel, err))
		}
		startJD := eph.GetEphemerisDouble(jpleph.JPL_EPHEM_START_JD)
		endJD := eph.GetEphemerisDouble(jpleph.JPL_EPHEM_END_JD)
		_ = eph.Close()

		h := &kernelHandle{
			Tag:    strippedExt(rel),
			Path:   full,
			window: Window{StartJD: startJD, EndJD: endJD},
		}
		m.Handles = append(m.Handles, h)
	}

	m.computeCoverageAndRangeTags()
	return m, nil
}

func (m *Manager) computeCoverageAndRangeTags() {
	cov := Window{StartJD: -1, EndJD: -1}
	for i, h := range m.Handles {
		if i == 0 {
			cov = h.window
			continue
		}
		if h.window.StartJD > cov.StartJD {
			cov.StartJD = h.window.StartJD
		}
		if h.window.EndJD < cov.EndJD {
			cov.EndJD = h.window.EndJD
		}
	}
	m.coverage = cov

	// The short-range kernel is whichever has the narrowest native span;
	// with a single kernel it doubles as both short- and long-range tag.
	for _, h := range m.Handles {
		span := h.window.EndJD - h.window.StartJD
		if m.shortRange == nil || span < (m.shortRange.window.EndJD-m.shortRange.window.StartJD) {
			m.shortRange = h
		}
		if m.longRange == nil || span > (m.longRange.window.EndJD-m.longRange.window.StartJD) {
			m.longRange = h
		}
	}
}

// Coverage returns the supported instant range for body. body is not
// consulted: every body, including the lunar nodes (derived from the Moon's
// state), gets the bundle-wide window.
func (m *Manager) Coverage(body models.CelestialBody) (start, end time.Time) {
	jdStart, jdEnd := m.coverage.StartJD, m.coverage.EndJD
	return JulianDayToTime(jdStart), JulianDayToTime(jdEnd)
}

// Policy selects which kernel tag should service a calculation at instant.
// The short-range kernel is preferred when the instant falls inside its
// native window; otherwise the long-range kernel is used.
func (m *Manager) Policy(instant time.Time) string {
	jd := TimeToJulianDay(instant)
	if m.shortRange != nil && m.shortRange.window.Contains(jd) {
		return m.shortRange.Tag
	}
	if m.longRange != nil {
		return m.longRange.Tag
	}
	if m.shortRange != nil {
		return m.shortRange.Tag
	}
	return m.BundleTag
}

// InCoverage reports whether jd (Julian Day) falls within the bundle's
// overall coverage window.
func (m *Manager) InCoverage(jd float64) bool {
	return m.coverage.Contains(jd)
}

// KernelPaths returns every verified kernel file path, for the Compute
// Worker Pool to open its own per-worker handles against.
func (m *Manager) KernelPaths() []string {
	paths := make([]string, len(m.Handles))
	for i, h := range m.Handles {
		paths[i] = h.Path
	}
	return paths
}

// TotalBytes sums the on-disk size of every verified kernel file, for
// startup logging (§6.2: the manifest already names every file Initialize
// opened, so this is a cheap stat pass over paths we've already verified).
func (m *Manager) TotalBytes() int64 {
	var total int64
	for _, h := range m.Handles {
		if info, err := os.Stat(h.Path); err == nil {
			total += info.Size()
		}
	}
	return total
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, 1<<20)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err != nil {
			break
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func strippedExt(rel string) string {
	base := filepath.Base(rel)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}

// julianDayUnixEpoch is the Julian Day number at 1970-01-01T00:00:00Z.
const julianDayUnixEpoch = 2440587.5

// TimeToJulianDay converts a UTC instant to a Julian Day number.
func TimeToJulianDay(t time.Time) float64 {
	return float64(t.UnixNano())/86400e9 + julianDayUnixEpoch
}

// JulianDayToTime converts a Julian Day number to a UTC instant.
func JulianDayToTime(jd float64) time.Time {
	seconds := (jd - julianDayUnixEpoch) * 86400.0
	return time.Unix(0, int64(seconds*1e9)).UTC()
}
