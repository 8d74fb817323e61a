package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"careerpath-ai/internal/bias"
	"careerpath-ai/internal/contextutil"
	"careerpath-ai/internal/rag"
	"careerpath-ai/internal/recommend"
)

// GuidanceHandler serves the guidance evaluation endpoint.
type GuidanceHandler struct {
	engine *rag.Engine
}

// NewGuidanceHandler creates a GuidanceHandler.
func NewGuidanceHandler(engine *rag.Engine) *GuidanceHandler {
	return &GuidanceHandler{engine: engine}
}

// guidanceResponse is the wire shape of an evaluation outcome. Answer always
// holds user-presentable text: the generated answer when generation
// succeeded, generic fallback guidance otherwise.
type guidanceResponse struct {
	RequestID       string                  `json:"request_id"`
	Answer          string                  `json:"answer"`
	Fallback        bool                    `json:"fallback"`
	FooterPresent   bool                    `json:"footer_present"`
	Attempts        int                     `json:"attempts"`
	ElapsedMs       int64                   `json:"elapsed_ms"`
	Recommendations []recommend.Item        `json:"recommendations,omitempty"`
	References      []rag.Reference         `json:"references,omitempty"`
	Bias            bias.TeachingBiasReport `json:"bias"`
	Distribution    bias.DistributionReport `json:"distribution"`
}

// Evaluate handles POST /api/guidance.
func (h *GuidanceHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())

	var req rag.EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.engine.Evaluate(r.Context(), req)
	if err != nil {
		handleEvaluateError(w, r, err)
		return
	}

	answer := result.Generation.Text
	if !result.Generation.Success {
		answer = rag.FallbackGuidance(result.Profile)
	}

	if result.Bias.HasBias {
		logger.Warn("biased recommendation set served",
			"request_id", result.RequestID,
			"teaching_percentage", result.Bias.TeachingPercentage,
			"severity", result.Bias.Severity)
	}

	writeJSON(w, r, http.StatusOK, guidanceResponse{
		RequestID:       result.RequestID,
		Answer:          answer,
		Fallback:        result.Fallback,
		FooterPresent:   result.Generation.FooterPresent,
		Attempts:        result.Generation.Attempts,
		ElapsedMs:       result.Generation.Elapsed.Milliseconds(),
		Recommendations: result.Recommendations,
		References:      result.References,
		Bias:            result.Bias,
		Distribution:    result.Distribution,
	})
}

// handleEvaluateError maps pipeline errors to HTTP status codes.
func handleEvaluateError(w http.ResponseWriter, r *http.Request, err error) {
	logger := contextutil.LoggerFromContext(r.Context())

	var validationErr *rag.ValidationError
	switch {
	case errors.Is(err, rag.ErrEmptyQuery):
		writeError(w, r, http.StatusBadRequest, "query must not be empty")
	case errors.As(err, &validationErr):
		writeError(w, r, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, rag.ErrEmbedding), errors.Is(err, rag.ErrSearch):
		logger.Error("upstream dependency failed", "error", err)
		writeError(w, r, http.StatusBadGateway, "a backing service is unavailable, please retry")
	default:
		logger.Error("evaluation failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
