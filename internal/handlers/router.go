package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"careerpath-ai/internal/contextutil"
	"careerpath-ai/internal/rag"
)

// NewRouter builds the HTTP router with all endpoints mounted.
func NewRouter(logger *slog.Logger, engine *rag.Engine) http.Handler {
	guidance := NewGuidanceHandler(engine)
	biasStats := NewBiasHandler(engine.Detector())

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/guidance", guidance.Evaluate)
		r.Route("/bias", func(r chi.Router) {
			r.Get("/stats", biasStats.Stats)
			r.Post("/reset", biasStats.Reset)
		})
	})

	return r
}

// requestLogger injects a request-scoped logger into the context and logs
// one line per completed request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestLogger := logger.With(
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
			)
			ctx := contextutil.WithLogger(r.Context(), requestLogger)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(ctx))

			requestLogger.Info("request completed",
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start))
		})
	}
}
