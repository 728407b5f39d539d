package handler

import (
	"net/http"

	"github.com/capitalize-ai/assistant-evaluator/internal/store"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	store store.KV
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(kv store.KV) *HealthHandler {
	return &HealthHandler{
		store: kv,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.store.(store.Pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"reason": "store unavailable: " + err.Error(),
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
