package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/astrocore/involution/internal/apierr"
	"github.com/astrocore/involution/internal/models"
	"github.com/astrocore/involution/internal/orchestrator"
)

type timeResolveWireRequest struct {
	LocalDatetime string               `json:"local_datetime"`
	Place         models.Location      `json:"place"`
	ParityProfile models.ParityProfile `json:"parity_profile,omitempty"`
}

// TimeResolve handles POST /v1/time/resolve.
func (h *Handlers) TimeResolve(w http.ResponseWriter, r *http.Request) {
	if !h.applyRateLimit(w, r) {
		return
	}

	var wire timeResolveWireRequest
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		writeError(w, apierr.InputInvalid.WithDetail("request body is not valid JSON"))
		return
	}
	if wire.LocalDatetime == "" {
		writeError(w, apierr.InputMissingRequired.WithDetail("local_datetime is required"))
		return
	}
	if err := wire.Place.Validate(); err != nil {
		writeError(w, apierr.InputInvalid.WithDetail(err.Error()))
		return
	}

	result, err := h.Orchestrator.TimeResolve(r.Context(), orchestrator.TimeResolveRequest{
		LocalDatetime: wire.LocalDatetime,
		Lat:           wire.Place.Lat,
		Lon:           wire.Place.Lon,
		ParityProfile: wire.ParityProfile,
	})
	if err != nil {
		h.handleOrchestratorError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
