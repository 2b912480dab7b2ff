// Package handlers wires the HTTP surface of §6.1 onto the orchestrator and
// its supporting subsystems: JSON decoding/encoding, error-taxonomy mapping,
// rate-limit headers, and the ETag/provenance envelope.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/astrocore/involution/internal/apierr"
	"github.com/astrocore/involution/internal/ayanamsha"
	"github.com/astrocore/involution/internal/cache"
	"github.com/astrocore/involution/internal/ephemeris"
	"github.com/astrocore/involution/internal/kernels"
	"github.com/astrocore/involution/internal/models"
	"github.com/astrocore/involution/internal/orchestrator"
	"github.com/astrocore/involution/internal/ratelimit"
)

// positionsWireRequest mirrors the JSON body of POST /v1/positions (§6.1).
type positionsWireRequest struct {
	When struct {
		UTC           *time.Time        `json:"utc,omitempty"`
		LocalDatetime string            `json:"local_datetime,omitempty"`
		Place         *models.Location  `json:"place,omitempty"`
	} `json:"when"`
	System        models.ZodiacSystem   `json:"system"`
	Ayanamsha     *models.AyanamshaRef  `json:"ayanamsha,omitempty"`
	Frame         models.FrameType      `json:"frame"`
	Epoch         models.Epoch          `json:"epoch"`
	Bodies        []models.CelestialBody `json:"bodies"`
	ParityProfile models.ParityProfile  `json:"parity_profile,omitempty"`
}

// Handlers holds every collaborator the HTTP layer needs.
type Handlers struct {
	Orchestrator *orchestrator.Orchestrator
	RateLimiter  *ratelimit.Limiter
	Logger       *slog.Logger

	// Referenced directly by /healthz and /v1/ayanamshas, which report
	// subsystem status rather than going through the orchestrator.
	KernelMgr  *kernels.Manager
	Pool       *ephemeris.Pool
	Cache      *cache.Cache
	Ayanamshas *ayanamsha.Registry
	RuleSetVersion     string
	WorkerPoolSize     int
	QueueHighWaterMark int
}

// Positions handles POST /v1/positions.
func (h *Handlers) Positions(w http.ResponseWriter, r *http.Request) {
	if !h.applyRateLimit(w, r) {
		return
	}

	var wire positionsWireRequest
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		writeError(w, apierr.InputInvalid.WithDetail("request body is not valid JSON"))
		return
	}

	if wire.ParityProfile == "" {
		wire.ParityProfile = models.StrictHistory
	}

	req := orchestrator.PositionsRequest{
		UTC:           wire.When.UTC,
		LocalDatetime: wire.When.LocalDatetime,
		Place:         wire.When.Place,
		System:        wire.System,
		Ayanamsha:     wire.Ayanamsha,
		Frame:         wire.Frame,
		Epoch:         wire.Epoch,
		Bodies:        wire.Bodies,
		ParityProfile: wire.ParityProfile,
	}

	resp, err := h.Orchestrator.Positions(r.Context(), req)
	if err != nil {
		h.handleOrchestratorError(w, r, err)
		return
	}

	w.Header().Set("ETag", resp.ETag)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) handleOrchestratorError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		writeError(w, apiErr)
		return
	}
	h.Logger.Error("unhandled orchestrator error", "error", err, "path", r.URL.Path)
	writeError(w, apierr.ComputeWorkerFault)
}

func (h *Handlers) applyRateLimit(w http.ResponseWriter, r *http.Request) bool {
	if h.RateLimiter == nil {
		return true
	}
	clientID := ratelimit.ClientID(r.Header.Get("X-Forwarded-For"), r.RemoteAddr)
	result, err := h.RateLimiter.Check(r.Context(), clientID)
	if err != nil {
		h.Logger.Warn("rate limiter check failed; allowing request", "error", err)
		return true
	}

	w.Header().Set("X-RateLimit-Limit", itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", itoa64(result.ResetUnix))

	if !result.Allowed {
		w.Header().Set("Retry-After", itoa(result.RetryAfter))
		writeError(w, apierr.RateLimited)
		return false
	}
	return true
}
