package handlers

import "net/http"

type ayanamshaWire struct {
	ID       string  `json:"id"`
	Kind     string  `json:"kind"`
	ValueDeg float64 `json:"value_deg,omitempty"`
}

// Ayanamshas handles GET /v1/ayanamshas, listing every registered ayanāṃśa.
func (h *Handlers) Ayanamshas(w http.ResponseWriter, r *http.Request) {
	records := h.Ayanamshas.List()
	out := make([]ayanamshaWire, len(records))
	for i, rec := range records {
		out[i] = ayanamshaWire{ID: rec.ID, Kind: string(rec.Kind), ValueDeg: rec.ValueDeg}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ayanamshas": out})
}
