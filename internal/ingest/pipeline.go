// Package ingest loads knowledge corpus files into the two halves of the
// knowledge store: chunk rows with embeddings in sqlite and vector points
// with payload in Qdrant, joined by a shared UUID.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"careerpath-ai/internal/contextutil"
	"careerpath-ai/internal/storage"
	"careerpath-ai/internal/vectorstore"
)

// SourceChunk is one corpus entry as authored in the JSON file.
type SourceChunk struct {
	Text       string   `json:"text"`
	Category   string   `json:"category"`
	Tags       []string `json:"tags,omitempty"`
	SourceType string   `json:"source_type"`
	SourceID   string   `json:"source_id"`
}

// BatchEmbedder embeds a batch of texts in one provider call.
type BatchEmbedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Pipeline ingests corpus chunks into the knowledge store.
type Pipeline struct {
	embedder   BatchEmbedder
	chunks     storage.ChunkStore
	vectors    vectorstore.VectorStore
	collection string
	batchSize  int
}

// NewPipeline creates an ingestion pipeline. batchSize bounds how many texts
// go to the embedding provider per call.
func NewPipeline(embedder BatchEmbedder, chunks storage.ChunkStore, vectors vectorstore.VectorStore, collection string, batchSize int) *Pipeline {
	if batchSize <= 0 {
		batchSize = 32
	}
	return &Pipeline{
		embedder:   embedder,
		chunks:     chunks,
		vectors:    vectors,
		collection: collection,
		batchSize:  batchSize,
	}
}

// LoadCorpus reads a JSON array of source chunks from disk.
func LoadCorpus(path string) ([]SourceChunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file: %w", err)
	}
	var chunks []SourceChunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("failed to parse corpus file: %w", err)
	}
	return chunks, nil
}

// Run embeds and stores all chunks, returning how many were ingested.
// Each chunk gets a fresh UUID used as both the sqlite primary key and the
// Qdrant point ID. The Qdrant payload carries the chunk fields so search
// hits resolve without a sqlite round trip.
func (p *Pipeline) Run(ctx context.Context, chunks []SourceChunk) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)
	ingested := 0

	for start := 0; start < len(chunks); start += p.batchSize {
		end := start + p.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		embeddings, err := p.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return ingested, fmt.Errorf("failed to embed batch at %d: %w", start, err)
		}

		points := make([]vectorstore.Point, 0, len(batch))
		for i, chunk := range batch {
			record := &storage.ChunkRecord{
				ID:         uuid.NewString(),
				Text:       chunk.Text,
				Category:   chunk.Category,
				Tags:       chunk.Tags,
				SourceType: chunk.SourceType,
				SourceID:   chunk.SourceID,
				Embedding:  embeddings[i],
			}
			if err := p.chunks.Insert(ctx, record); err != nil {
				return ingested, fmt.Errorf("failed to store chunk: %w", err)
			}
			points = append(points, vectorstore.Point{
				ID:  record.ID,
				Vec: record.Embedding,
				Meta: map[string]any{
					"text":        record.Text,
					"category":    record.Category,
					"tags":        toAnySlice(record.Tags),
					"source_type": record.SourceType,
					"source_id":   record.SourceID,
				},
			})
		}

		if err := p.vectors.Upsert(ctx, p.collection, points); err != nil {
			return ingested, fmt.Errorf("failed to upsert vectors: %w", err)
		}

		ingested += len(batch)
		logger.Info("ingested batch", "count", len(batch), "total", ingested)
	}

	return ingested, nil
}

func toAnySlice(values []string) []any {
	result := make([]any, len(values))
	for i, v := range values {
		result[i] = v
	}
	return result
}
