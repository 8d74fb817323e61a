// Command ingest loads a JSON corpus file into the knowledge store.
//
// Usage: ingest -file corpus.json [-batch 32]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"careerpath-ai/internal/config"
	"careerpath-ai/internal/contextutil"
	"careerpath-ai/internal/ingest"
	"careerpath-ai/internal/llm"
	"careerpath-ai/internal/storage"
	"careerpath-ai/internal/vectorstore"
)

func main() {
	file := flag.String("file", "", "path to the JSON corpus file (required)")
	batch := flag.Int("batch", 32, "embedding batch size")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*file, *batch); err != nil {
		slog.Error("ingestion failed", "error", err)
		os.Exit(1)
	}
}

func run(file string, batch int) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
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

	chunks, err := ingest.LoadCorpus(file)
	if err != nil {
		return err
	}
	logger.Info("corpus loaded", "file", file, "chunks", len(chunks))

	pipeline := ingest.NewPipeline(embedder, storage.NewChunkRepo(db), vectors, cfg.QdrantCollection, batch)
	count, err := pipeline.Run(ctx, chunks)
	if err != nil {
		return err
	}

	logger.Info("ingestion complete", "chunks", count)
	return nil
}
