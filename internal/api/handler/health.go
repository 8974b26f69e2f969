package handler

import (
	"net/http"

	"github.com/mcoot/raceboard/internal/api/response"
	"github.com/mcoot/raceboard/internal/model"
)

// RootMessage is the liveness text served at /
const RootMessage = "Race API is up"

// HealthHandler handles liveness and readiness endpoints
type HealthHandler struct {
	ledger Ledger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(ledger Ledger) *HealthHandler {
	return &HealthHandler{ledger: ledger}
}

// Root handles GET /
func (h *HealthHandler) Root(w http.ResponseWriter, _ *http.Request) {
	response.Text(w, http.StatusOK, RootMessage)
}

// Health handles GET /api/health. It reports 503 when the store cannot be reached.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.Ping(r.Context()); err != nil {
		response.JSON(w, http.StatusServiceUnavailable, response.HealthResponse{
			Status: "unavailable",
			Error:  model.ErrStoreUnavailable.Error(),
		})
		return
	}
	response.JSON(w, http.StatusOK, response.HealthResponse{Status: "ok"})
}
