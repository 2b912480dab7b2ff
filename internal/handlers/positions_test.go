package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/astrocore/involution/internal/orchestrator"
)

func testHandlers(t *testing.T) *Handlers {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	orch := orchestrator.New(nil, nil, nil, nil, nil, 0, logger)
	return &Handlers{
		Orchestrator: orch,
		RateLimiter:  nil,
		Logger:       logger,
	}
}

func TestPositions_RejectsEmptyBodies(t *testing.T) {
	h := testHandlers(t)

	body := `{"when":{"local_datetime":"2024-06-15T12:00:00","place":{"lat":40.7,"lon":-74.0}},
	          "system":"tropical","frame":"ecliptic_of_date","epoch":"of_date","bodies":[]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/positions", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	h.Positions(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var out struct {
		Code string `json:"code"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "INPUT.MISSING_REQUIRED", out.Code)
}

func TestPositions_RejectsMalformedJSON(t *testing.T) {
	h := testHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/positions", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()

	h.Positions(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPositions_RejectsSiderealWithoutAyanamsha(t *testing.T) {
	h := testHandlers(t)

	body := `{"when":{"utc":"2024-06-15T12:00:00Z"},
	          "system":"sidereal","frame":"ecliptic_of_date","epoch":"of_date","bodies":["sun"]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/positions", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	h.Positions(rec, req)

	var out struct {
		Code string `json:"code"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "AYANAMSHA.REQUIRED", out.Code)
}
