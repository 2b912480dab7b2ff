// Package orchestrator implements the Request Orchestrator & Cache (§4.E):
// the glue that validates, deduplicates, dispatches, post-processes,
// caches, and serializes a positions request.
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/astrocore/involution/internal/apierr"
	"github.com/astrocore/involution/internal/ayanamsha"
	"github.com/astrocore/involution/internal/cache"
	"github.com/astrocore/involution/internal/ephemeris"
	"github.com/astrocore/involution/internal/kernels"
	"github.com/astrocore/involution/internal/metrics"
	"github.com/astrocore/involution/internal/models"
	"github.com/astrocore/involution/internal/timeresolve"
)

// ruleSetVersion tags the fixed fingerprinting/resolution rules this build
// implements (§4.E.1 step 3, §9).
const ruleSetVersion = "involution-rules-1"

// PositionsRequest is the validated input to Positions (the HTTP layer maps
// the wire JSON body of §6.1 onto this).
type PositionsRequest struct {
	UTC           *time.Time
	LocalDatetime string
	Place         *models.Location
	System        models.ZodiacSystem
	Ayanamsha     *models.AyanamshaRef
	Frame         models.FrameType
	Epoch         models.Epoch
	Bodies        []models.CelestialBody
	ParityProfile models.ParityProfile
}

// Orchestrator wires together every other subsystem (§2).
type Orchestrator struct {
	kernelMgr  *kernels.Manager
	pool       *ephemeris.Pool
	ayanamshas *ayanamsha.Registry
	resolver   *timeresolve.Resolver
	cache      *cache.Cache
	deadline   time.Duration
	logger     *slog.Logger

	sf singleflight.Group
}

// New builds an Orchestrator over its already-initialized collaborators.
func New(
	kernelMgr *kernels.Manager,
	pool *ephemeris.Pool,
	ayanamshas *ayanamsha.Registry,
	resolver *timeresolve.Resolver,
	c *cache.Cache,
	deadline time.Duration,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		kernelMgr:  kernelMgr,
		pool:       pool,
		ayanamshas: ayanamshas,
		resolver:   resolver,
		cache:      c,
		deadline:   deadline,
		logger:     logger,
	}
}

// TimeResolveRequest is the input to the standalone POST /v1/time/resolve
// endpoint, which exposes the Time Resolver (§4.C) without a positions
// computation attached.
type TimeResolveRequest struct {
	LocalDatetime string
	Lat, Lon      float64
	ParityProfile models.ParityProfile
}

// TimeResolve runs the Time Resolver pipeline in isolation.
func (o *Orchestrator) TimeResolve(ctx context.Context, req TimeResolveRequest) (models.TimeResolutionResult, error) {
	if req.ParityProfile == "" {
		req.ParityProfile = models.StrictHistory
	}
	return o.resolver.Resolve(timeresolve.Input{
		LocalDatetime: req.LocalDatetime,
		Lat:           req.Lat,
		Lon:           req.Lon,
		ParityProfile: req.ParityProfile,
	})
}

// Positions runs the full request lifecycle (§4.E.1).
func (o *Orchestrator) Positions(ctx context.Context, req PositionsRequest) (models.PositionsResponse, error) {
	start := time.Now()

	// Step 1: validation.
	if err := validate(req); err != nil {
		return models.PositionsResponse{}, err
	}

	// Step 2: time resolution.
	var resolved *models.TimeResolutionResult
	var utc time.Time
	if req.UTC != nil {
		utc = req.UTC.UTC()
	} else {
		res, err := o.resolver.Resolve(timeresolve.Input{
			LocalDatetime: req.LocalDatetime,
			Lat:           req.Place.Lat,
			Lon:           req.Place.Lon,
			ParityProfile: req.ParityProfile,
		})
		if err != nil {
			return models.PositionsResponse{}, err
		}
		resolved = &res
		parsed, err := time.Parse(time.RFC3339, res.UTC)
		if err != nil {
			return models.PositionsResponse{}, apierr.ComputeWorkerFault.WithDetail("time resolver produced an unparsable instant")
		}
		utc = parsed
	}

	jd := kernels.TimeToJulianDay(utc)
	if !o.kernelMgr.InCoverage(jd) {
		return models.PositionsResponse{}, apierr.RangeEphemerisOutside.WithDetail(
			fmt.Sprintf("instant %s falls outside the loaded kernel bundle's coverage window", utc.Format(time.RFC3339)))
	}

	var ayanRec ayanamsha.Record
	if req.System == models.Sidereal {
		rec, err := o.ayanamshas.Resolve(req.Ayanamsha.ID)
		if err != nil {
			return models.PositionsResponse{}, err
		}
		ayanRec = rec
	}

	// Step 3: fingerprint.
	bodies := uniqueSorted(req.Bodies)
	fingerprint := Fingerprint(utc, req.System, ayanIDOrDash(req), req.Frame, req.Epoch, bodies)

	// Step 4: cache lookup.
	if entry, source, ok := o.cache.Get(ctx, fingerprint); ok {
		metrics.CacheOperationsTotal.WithLabelValues("hit").Inc()
		_ = source
		var resp models.PositionsResponse
		if err := json.Unmarshal(entry.Data, &resp); err == nil {
			metrics.PositionsCalculatedTotal.WithLabelValues(string(req.System), o.kernelMgr.BundleTag, "hit").Add(float64(len(resp.Bodies)))
			metrics.PositionsDuration.WithLabelValues(string(req.System)).Observe(time.Since(start).Seconds())
			return resp, nil
		}
	}
	metrics.CacheOperationsTotal.WithLabelValues("miss").Inc()

	// Step 5: single-flight coalescing; steps 6-8 happen inside the closure,
	// so concurrent callers with the same fingerprint share one compute.
	v, err, _ := o.sf.Do(fingerprint, func() (interface{}, error) {
		resp, err := o.computeAndAssemble(ctx, req, utc, jd, bodies, ayanRec, resolved, fingerprint)
		if err != nil {
			return nil, err
		}

		o.storeInCache(resp, fingerprint)
		return resp, nil
	})
	if err != nil {
		return models.PositionsResponse{}, err
	}
	resp := v.(models.PositionsResponse)

	// Step 10: metrics (logging is done by the HTTP layer, which has the
	// request context this package intentionally does not depend on).
	metrics.PositionsCalculatedTotal.WithLabelValues(string(req.System), o.kernelMgr.BundleTag, "miss").Add(float64(len(resp.Bodies)))
	metrics.PositionsDuration.WithLabelValues(string(req.System)).Observe(time.Since(start).Seconds())

	return resp, nil
}

func (o *Orchestrator) computeAndAssemble(
	ctx context.Context,
	req PositionsRequest,
	utc time.Time,
	jd float64,
	bodies []models.CelestialBody,
	ayanRec ayanamsha.Record,
	resolved *models.TimeResolutionResult,
	fingerprint string,
) (models.PositionsResponse, error) {
	deadline := o.deadline
	dctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	tag := o.kernelMgr.Policy(utc)
	t := ephemerisCenturies(jd)

	var moonState *models.RectangularState // cached for node derivation
	results := make([]models.PositionResult, 0, len(bodies))

	for i, body := range bodies {
		var state models.RectangularState
		switch body {
		case models.TrueNode, models.MeanNode:
			if moonState == nil {
				s, late, err := o.pool.Submit(dctx, ephemeris.Task{Body: models.Moon, JDE: jd, Tag: tag})
				if err != nil {
					metrics.WorkerTasksTotal.WithLabelValues("error").Inc()
					if late != nil {
						o.resumeAfterTimeout(req, utc, jd, tag, t, bodies, i, results, ayanRec, resolved, fingerprint, late)
					}
					return models.PositionsResponse{}, err
				}
				moonState = &s
			}
			state = *moonState
		default:
			s, late, err := o.pool.Submit(dctx, ephemeris.Task{Body: body, JDE: jd, Tag: tag})
			if err != nil {
				metrics.WorkerTasksTotal.WithLabelValues("error").Inc()
				if late != nil {
					o.resumeAfterTimeout(req, utc, jd, tag, t, bodies, i, results, ayanRec, resolved, fingerprint, late)
				}
				return models.PositionsResponse{}, err
			}
			state = s
		}
		metrics.WorkerTasksTotal.WithLabelValues("ok").Inc()

		result := o.postProcess(body, state, req.Frame, req.Epoch, t, req.System, ayanRec)
		results = append(results, result)
	}

	resp := o.assembleResponse(utc, tag, t, results, req, ayanRec, resolved, fingerprint)
	return resp, nil
}

// assembleResponse builds the final wire response (§4.E.1 step 8) once every
// body in the request has a PositionResult.
func (o *Orchestrator) assembleResponse(
	utc time.Time,
	tag string,
	t float64,
	results []models.PositionResult,
	req PositionsRequest,
	ayanRec ayanamsha.Record,
	resolved *models.TimeResolutionResult,
	fingerprint string,
) models.PositionsResponse {
	var ayanProv *models.AyanamshaProvenance
	if req.System == models.Sidereal {
		ayanProv = &models.AyanamshaProvenance{ID: ayanRec.ID, ValueDeg: ayanamsha.Value(ayanRec, t)}
	}

	resp := models.PositionsResponse{
		UTC:    utc.UTC().Format(time.RFC3339),
		Bodies: results,
		Provenance: models.Provenance{
			KernelBundleTag:        o.kernelMgr.BundleTag,
			EphemerisTagForInstant: tag,
			Frame:                  req.Frame,
			Epoch:                  req.Epoch,
			Ayanamsha:              ayanProv,
			TimeResolver:           resolved,
			RuleSetVersion:         ruleSetVersion,
		},
	}
	resp.ETag = fingerprint
	return resp
}

// resumeAfterTimeout honors §5's "wastes no prior work" invariant: the
// worker that was mid-call when the request deadline fired keeps running
// and still delivers into late. Rather than discard that compute, a
// detached goroutine waits for it, finishes off any bodies the timed-out
// request never got to, and inserts the completed response into the cache
// under the same fingerprint the synchronous caller already missed on —
// so the next request for this exact instant/body-set is a cache hit even
// though this one timed out.
func (o *Orchestrator) resumeAfterTimeout(
	req PositionsRequest,
	utc time.Time,
	jd float64,
	tag string,
	t float64,
	bodies []models.CelestialBody,
	timedOutIndex int,
	resultsSoFar []models.PositionResult,
	ayanRec ayanamsha.Record,
	resolved *models.TimeResolutionResult,
	fingerprint string,
	late <-chan ephemeris.Result,
) {
	results := append([]models.PositionResult(nil), resultsSoFar...)
	body := bodies[timedOutIndex]

	go func() {
		res := <-late
		if res.Err != nil {
			return
		}

		var moonState *models.RectangularState
		switch body {
		case models.TrueNode, models.MeanNode:
			moonState = &res.State
			results = append(results, o.postProcess(body, res.State, req.Frame, req.Epoch, t, req.System, ayanRec))
		default:
			results = append(results, o.postProcess(body, res.State, req.Frame, req.Epoch, t, req.System, ayanRec))
		}

		bg := context.Background()
		for _, b := range bodies[timedOutIndex+1:] {
			var state models.RectangularState
			switch b {
			case models.TrueNode, models.MeanNode:
				if moonState == nil {
					s, _, err := o.pool.Submit(bg, ephemeris.Task{Body: models.Moon, JDE: jd, Tag: tag})
					if err != nil {
						return
					}
					moonState = &s
				}
				state = *moonState
			default:
				s, _, err := o.pool.Submit(bg, ephemeris.Task{Body: b, JDE: jd, Tag: tag})
				if err != nil {
					return
				}
				state = s
			}
			results = append(results, o.postProcess(b, state, req.Frame, req.Epoch, t, req.System, ayanRec))
		}

		resp := o.assembleResponse(utc, tag, t, results, req, ayanRec, resolved, fingerprint)
		o.storeInCache(resp, fingerprint)
	}()
}

// storeInCache performs step 9 of §4.E.1: marshal and insert under
// fingerprint. Used both by the synchronous request path and by
// resumeAfterTimeout's late, detached completion.
func (o *Orchestrator) storeInCache(resp models.PositionsResponse, fingerprint string) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	o.cache.Set(context.Background(), fingerprint, cache.Entry{Data: data, ETag: resp.ETag})
	metrics.CacheOperationsTotal.WithLabelValues("set").Inc()
}

// postProcess converts a worker's native J2000-equatorial rectangular state
// into the requested frame/epoch, applies the sidereal transform if any, and
// derives the UI-facing fields (§4.E.1 step 7).
func (o *Orchestrator) postProcess(
	body models.CelestialBody,
	state models.RectangularState,
	frame models.FrameType,
	epoch models.Epoch,
	t float64,
	system models.ZodiacSystem,
	ayanRec ayanamsha.Record,
) models.PositionResult {
	var lonDeg, latDeg, distAU, speedDegPerDay float64
	var raHours, decDeg float64
	isEquatorial := frame == models.Equatorial

	switch frame {
	case models.Equatorial:
		// J2000 equatorial is the primitive's native frame: no rotation needed.
		raHours, decDeg, distAU = ephemeris.EquatorialRaDecDist(state)
		lonDeg = raHours * 15.0
		latDeg = decDeg
	default: // EclipticOfDate
		ofDate := ephemeris.PrecessEquatorialJ2000ToOfDate(state, t)
		obliquity := ephemeris.MeanObliquityDeg(t)
		ecliptic := ephemeris.EquatorialToEcliptic(ofDate, obliquity)

		switch body {
		case models.MeanNode:
			lonDeg = ephemeris.MeanNodeLongitudeDeg(t)
			latDeg = 0
			distAU = 0
		case models.TrueNode:
			lonDeg = ephemeris.TrueNodeLongitudeDeg(ecliptic)
			latDeg = 0
			distAU = 0
		default:
			lonDeg, latDeg, distAU = ephemeris.EclipticLonLatDist(ecliptic)
			speedDegPerDay = ephemeris.EclipticLongitudeRateDegPerDay(ecliptic)
		}
	}

	if system == models.Sidereal {
		offset := ayanamsha.Value(ayanRec, t)
		lonDeg = ayanamsha.Apply(lonDeg, offset)
	}
	lonDeg = normalizeLongitude(lonDeg)

	sign := models.Sign(lonDeg)
	degInSign := models.DegreeInSign(lonDeg)
	deg, min, sec := models.DMS(degInSign)

	result := models.PositionResult{
		Body:         body,
		LongitudeDeg: lonDeg,
		LatitudeDeg:  latDeg,
		Sign:         models.SignNames[sign],
		DegreeInSign: degInSign,
		Degrees:      deg,
		Minutes:      min,
		Seconds:      sec,
		IsRetrograde: speedDegPerDay < 0,
	}
	if body != models.MeanNode && body != models.TrueNode {
		d := distAU
		result.DistanceAU = &d
	}
	if speedDegPerDay != 0 {
		s := speedDegPerDay
		result.SpeedDegPerDay = &s
	}
	if isEquatorial {
		ra, dec := raHours, decDeg
		result.RAHours = &ra
		result.DecDeg = &dec
	}
	return result
}

func normalizeLongitude(deg float64) float64 {
	for deg < 0 {
		deg += 360
	}
	for deg >= 360 {
		deg -= 360
	}
	return deg
}

func ephemerisCenturies(jd float64) float64 {
	return ephemeris.JulianCenturiesTT(jd)
}

func ayanIDOrDash(req PositionsRequest) string {
	if req.System == models.Sidereal && req.Ayanamsha != nil {
		return models.NormalizeID(req.Ayanamsha.ID)
	}
	return "-"
}

func uniqueSorted(bodies []models.CelestialBody) []models.CelestialBody {
	seen := make(map[models.CelestialBody]bool, len(bodies))
	out := make([]models.CelestialBody, 0, len(bodies))
	for _, b := range bodies {
		if !seen[b] {
			seen[b] = true
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Fingerprint canonicalizes (utc, system, ayanāṃśa id or "-", frame, epoch,
// sorted bodies) and returns the first 16 hex characters of its SHA-256
// digest, used as both the cache key and the response ETag (§4.E "added").
func Fingerprint(utc time.Time, system models.ZodiacSystem, ayanID string, frame models.FrameType, epoch models.Epoch, sortedBodies []models.CelestialBody) string {
	names := make([]string, len(sortedBodies))
	for i, b := range sortedBodies {
		names[i] = string(b)
	}
	canonical := fmt.Sprintf("%d|%s|%s|%s|%s|%s",
		utc.Unix(), system, ayanID, frame, epoch, strings.Join(names, ","))
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])[:16]
}

func validate(req PositionsRequest) error {
	if req.UTC == nil && req.LocalDatetime == "" {
		return apierr.InputMissingRequired.WithDetail("either when.utc or when.local_datetime+place is required")
	}
	if req.UTC == nil && req.Place == nil {
		return apierr.InputMissingRequired.WithDetail("when.place is required alongside when.local_datetime")
	}
	if req.Place != nil {
		if err := req.Place.Validate(); err != nil {
			return apierr.InputInvalid.WithDetail(err.Error())
		}
	}
	if req.System != models.Tropical && req.System != models.Sidereal {
		return apierr.InputInvalid.WithDetail(fmt.Sprintf("unknown system %q", req.System))
	}
	if req.System == models.Sidereal && req.Ayanamsha == nil {
		return apierr.AyanamshaRequired
	}
	if req.System == models.Tropical && req.Ayanamsha != nil {
		return apierr.SystemIncompatible.WithDetail("tropical requests must not specify an ayanamsha")
	}
	if !models.ValidFrameEpoch(req.Frame, req.Epoch) {
		return apierr.InputInvalid.WithDetail(fmt.Sprintf("frame %q is incompatible with epoch %q", req.Frame, req.Epoch))
	}
	if len(req.Bodies) == 0 {
		return apierr.InputMissingRequired.WithDetail("bodies must include at least one body")
	}
	for _, b := range req.Bodies {
		if !b.Valid() {
			return apierr.BodiesUnsupported.WithDetail(fmt.Sprintf("unsupported body %q", b))
		}
	}
	return nil
}
