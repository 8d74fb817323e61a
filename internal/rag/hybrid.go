package rag

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"careerpath-ai/internal/contextutil"
	"careerpath-ai/internal/storage"
	"careerpath-ai/internal/vectorstore"
)

// HybridSearcher merges vector similarity search with keyword search over
// the same knowledge store. The two halves are joined by chunk ID: sqlite
// rows and Qdrant points share identifiers, so a chunk found by both gets
// both scores.
type HybridSearcher struct {
	vectors       vectorstore.VectorStore
	chunks        storage.ChunkStore
	collection    string
	vectorWeight  float64
	keywordWeight float64
}

// NewHybridSearcher creates a HybridSearcher. Weights are normalized so they
// sum to 1, keeping combined scores in [0, 1].
func NewHybridSearcher(vectors vectorstore.VectorStore, chunks storage.ChunkStore, collection string, vectorWeight, keywordWeight float64) *HybridSearcher {
	total := vectorWeight + keywordWeight
	if total > 0 {
		vectorWeight /= total
		keywordWeight /= total
	}
	return &HybridSearcher{
		vectors:       vectors,
		chunks:        chunks,
		collection:    collection,
		vectorWeight:  vectorWeight,
		keywordWeight: keywordWeight,
	}
}

// Search runs the vector and keyword retrievals concurrently, merges the hits
// by chunk ID with a weighted score sum, and returns up to limit candidates
// ordered by combined score descending, ties broken by chunk ID ascending.
// No matches is a valid outcome and returns an empty list, not an error.
func (s *HybridSearcher) Search(ctx context.Context, query string, embedding []float32, limit int) ([]RankedCandidate, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}

	var (
		vectorHits  []vectorstore.SearchResult
		keywordHits []storage.KeywordHit
	)

	// The two retrievals are independent; run them in parallel.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := s.vectors.Search(gctx, s.collection, embedding, limit)
		if err != nil {
			return fmt.Errorf("vector search: %w", err)
		}
		vectorHits = hits
		return nil
	})
	g.Go(func() error {
		hits, err := s.chunks.KeywordSearch(gctx, query, limit)
		if err != nil {
			return fmt.Errorf("keyword search: %w", err)
		}
		keywordHits = hits
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearch, err)
	}

	merged := make(map[string]*RankedCandidate, len(vectorHits)+len(keywordHits))

	for _, hit := range vectorHits {
		chunk, err := s.chunkFromHit(ctx, hit)
		if err != nil {
			return nil, err
		}
		merged[hit.PointID] = &RankedCandidate{
			Chunk:       *chunk,
			VectorScore: clamp01(float64(hit.Score)),
		}
	}

	for _, hit := range keywordHits {
		if candidate, ok := merged[hit.Chunk.ID]; ok {
			candidate.KeywordScore = clamp01(hit.Score)
			continue
		}
		merged[hit.Chunk.ID] = &RankedCandidate{
			Chunk:        hit.Chunk,
			KeywordScore: clamp01(hit.Score),
		}
	}

	candidates := make([]RankedCandidate, 0, len(merged))
	for _, candidate := range merged {
		candidate.CombinedScore = s.vectorWeight*candidate.VectorScore + s.keywordWeight*candidate.KeywordScore
		candidates = append(candidates, *candidate)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].CombinedScore != candidates[j].CombinedScore {
			return candidates[i].CombinedScore > candidates[j].CombinedScore
		}
		return candidates[i].Chunk.ID < candidates[j].Chunk.ID
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// chunkFromHit reconstructs a chunk from a vector hit. The Qdrant payload
// carries the chunk fields; when the payload is incomplete (older points),
// the row is fetched from sqlite instead.
func (s *HybridSearcher) chunkFromHit(ctx context.Context, hit vectorstore.SearchResult) (*storage.ChunkRecord, error) {
	text := metaString(hit.Meta, "text")
	if text == "" {
		chunk, err := s.chunks.GetByID(ctx, hit.PointID)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %s: %v", ErrSearch, hit.PointID, err)
		}
		if len(chunk.Embedding) == 0 {
			chunk.Embedding = hit.Vector
		}
		return chunk, nil
	}

	chunk := &storage.ChunkRecord{
		ID:         hit.PointID,
		Text:       text,
		Category:   metaString(hit.Meta, "category"),
		Tags:       metaStrings(hit.Meta, "tags"),
		SourceType: metaString(hit.Meta, "source_type"),
		SourceID:   metaString(hit.Meta, "source_id"),
		Embedding:  hit.Vector,
	}
	contextutil.LoggerFromContext(ctx).Debug("vector hit resolved from payload", "chunk_id", chunk.ID)
	return chunk, nil
}

func metaString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

func metaStrings(meta map[string]any, key string) []string {
	if meta == nil {
		return nil
	}
	raw, ok := meta[key].([]any)
	if !ok {
		return nil
	}
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			values = append(values, s)
		}
	}
	return values
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
