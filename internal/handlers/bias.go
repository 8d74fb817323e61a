package handlers

import (
	"net/http"

	"careerpath-ai/internal/bias"
	"careerpath-ai/internal/contextutil"
)

// BiasHandler exposes the cumulative bias detection statistics.
type BiasHandler struct {
	detector *bias.Detector
}

// NewBiasHandler creates a BiasHandler.
func NewBiasHandler(detector *bias.Detector) *BiasHandler {
	return &BiasHandler{detector: detector}
}

// Stats handles GET /api/bias/stats.
func (h *BiasHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.detector.Stats())
}

// Reset handles POST /api/bias/reset.
func (h *BiasHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.detector.Reset()
	contextutil.LoggerFromContext(r.Context()).Info("bias statistics reset")
	writeJSON(w, r, http.StatusOK, h.detector.Stats())
}
