package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"careerpath-ai/internal/bias"
	"careerpath-ai/internal/config"
	"careerpath-ai/internal/contextutil"
	"careerpath-ai/internal/handlers"
	"careerpath-ai/internal/llm"
	"careerpath-ai/internal/rag"
	"careerpath-ai/internal/storage"
	"careerpath-ai/internal/vectorstore"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	ctx := contextutil.WithLogger(context.Background(), logger)

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	vectors, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		return fmt.Errorf("failed to create vector store: %w", err)
	}
	if err := vectors.EnsureCollection(ctx, cfg.QdrantCollection, cfg.EmbeddingVectorSize); err != nil {
		return fmt.Errorf("failed to ensure collection: %w", err)
	}

	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.EmbeddingVectorSize)
	generation := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)

	chunks := storage.NewChunkRepo(db)
	searcher := rag.NewHybridSearcher(vectors, chunks, cfg.QdrantCollection, cfg.VectorWeight, cfg.KeywordWeight)
	generator := rag.NewGenerator(generation, rag.GeneratorConfig{
		MaxRetries:     cfg.GenMaxRetries,
		AttemptTimeout: cfg.GenTimeout,
		InitialBackoff: cfg.GenInitialBackoff,
		MaxBackoff:     cfg.GenMaxBackoff,
	})
	detector := bias.New(bias.Config{
		DominanceThreshold: cfg.BiasThreshold,
		MinItems:           cfg.BiasMinItems,
	})

	engine := rag.NewEngine(embedder, searcher, generator, detector,
		cfg.DedupThreshold, cfg.MaxContextTokens, cfg.SearchLimit)

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           handlers.NewRouter(logger, engine),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-shutdownCtx.Done():
	}

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

// newLogger builds the process logger from the configured level and format.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
