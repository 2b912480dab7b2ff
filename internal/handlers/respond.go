package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/astrocore/involution/internal/apierr"
	"github.com/astrocore/involution/internal/metrics"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err *apierr.Error) {
	metrics.ErrorsTotal.WithLabelValues(err.Code, categoryOf(err.Code)).Inc()
	writeJSON(w, err.Status, err)
}

func categoryOf(code string) string {
	for i, c := range code {
		if c == '.' {
			return code[:i]
		}
	}
	return code
}

func itoa(n int) string     { return strconv.Itoa(n) }
func itoa64(n int64) string { return strconv.FormatInt(n, 10) }
