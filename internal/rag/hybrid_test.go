package rag

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/mock/gomock"

	"careerpath-ai/internal/storage"
	storagemocks "careerpath-ai/internal/storage/mocks"
	"careerpath-ai/internal/vectorstore"
	vectormocks "careerpath-ai/internal/vectorstore/mocks"
)

func vectorHit(id string, score float32, text string) vectorstore.SearchResult {
	return vectorstore.SearchResult{
		PointID: id,
		Score:   score,
		Vector:  []float32{1, 0},
		Meta:    map[string]any{"text": text, "category": "Technology"},
	}
}

func keywordHit(id string, score float64, text string) storage.KeywordHit {
	return storage.KeywordHit{
		Chunk: storage.ChunkRecord{ID: id, Text: text, Embedding: []float32{0, 1}},
		Score: score,
	}
}

func TestHybridSearchMergesByChunkID(t *testing.T) {
	ctrl := gomock.NewController(t)
	vectors := vectormocks.NewMockVectorStore(ctrl)
	chunks := storagemocks.NewMockChunkStore(ctrl)

	vectors.EXPECT().
		Search(gomock.Any(), "knowledge", gomock.Any(), 10).
		Return([]vectorstore.SearchResult{
			vectorHit("both", 0.8, "shared chunk"),
			vectorHit("vector-only", 0.6, "vector chunk"),
		}, nil)
	chunks.EXPECT().
		KeywordSearch(gomock.Any(), "query", 10).
		Return([]storage.KeywordHit{
			keywordHit("both", 0.5, "shared chunk"),
			keywordHit("keyword-only", 0.9, "keyword chunk"),
		}, nil)

	searcher := NewHybridSearcher(vectors, chunks, "knowledge", 0.7, 0.3)
	candidates, err := searcher.Search(context.Background(), "query", []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(candidates))
	}

	byID := make(map[string]RankedCandidate)
	for _, c := range candidates {
		byID[c.Chunk.ID] = c
	}

	both := byID["both"]
	if got, want := both.CombinedScore, 0.7*0.8+0.3*0.5; math.Abs(got-want) > 1e-6 {
		t.Errorf("both: combined = %f, want %f", got, want)
	}
	if byID["vector-only"].KeywordScore != 0 {
		t.Errorf("vector-only: expected keyword score 0, got %f", byID["vector-only"].KeywordScore)
	}
	if byID["keyword-only"].VectorScore != 0 {
		t.Errorf("keyword-only: expected vector score 0, got %f", byID["keyword-only"].VectorScore)
	}

	// Ordered by combined score descending.
	for i := 1; i < len(candidates); i++ {
		if candidates[i].CombinedScore > candidates[i-1].CombinedScore {
			t.Errorf("candidates out of order at %d", i)
		}
	}
}

func TestHybridSearchTieBrokenByChunkID(t *testing.T) {
	ctrl := gomock.NewController(t)
	vectors := vectormocks.NewMockVectorStore(ctrl)
	chunks := storagemocks.NewMockChunkStore(ctrl)

	vectors.EXPECT().
		Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]vectorstore.SearchResult{
			vectorHit("zzz", 0.5, "z"),
			vectorHit("aaa", 0.5, "a"),
		}, nil)
	chunks.EXPECT().
		KeywordSearch(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, nil)

	searcher := NewHybridSearcher(vectors, chunks, "knowledge", 0.7, 0.3)
	candidates, err := searcher.Search(context.Background(), "q", []float32{1}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if candidates[0].Chunk.ID != "aaa" || candidates[1].Chunk.ID != "zzz" {
		t.Errorf("expected tie broken by ID ascending, got %s then %s",
			candidates[0].Chunk.ID, candidates[1].Chunk.ID)
	}
}

func TestHybridSearchTruncatesToLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	vectors := vectormocks.NewMockVectorStore(ctrl)
	chunks := storagemocks.NewMockChunkStore(ctrl)

	vectors.EXPECT().
		Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]vectorstore.SearchResult{
			vectorHit("a", 0.9, "a"),
			vectorHit("b", 0.8, "b"),
		}, nil)
	chunks.EXPECT().
		KeywordSearch(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]storage.KeywordHit{
			keywordHit("c", 0.9, "c"),
			keywordHit("d", 0.8, "d"),
		}, nil)

	searcher := NewHybridSearcher(vectors, chunks, "knowledge", 0.7, 0.3)
	candidates, err := searcher.Search(context.Background(), "q", []float32{1}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(candidates) != 2 {
		t.Fatalf("expected limit 2 respected, got %d", len(candidates))
	}
}

func TestHybridSearchEmptyStoreIsNotAnError(t *testing.T) {
	ctrl := gomock.NewController(t)
	vectors := vectormocks.NewMockVectorStore(ctrl)
	chunks := storagemocks.NewMockChunkStore(ctrl)

	vectors.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	chunks.EXPECT().KeywordSearch(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

	searcher := NewHybridSearcher(vectors, chunks, "knowledge", 0.7, 0.3)
	candidates, err := searcher.Search(context.Background(), "q", []float32{1}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("expected no candidates, got %d", len(candidates))
	}
}

func TestHybridSearchPropagatesStoreErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	vectors := vectormocks.NewMockVectorStore(ctrl)
	chunks := storagemocks.NewMockChunkStore(ctrl)

	vectors.EXPECT().
		Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("qdrant unreachable"))
	chunks.EXPECT().
		KeywordSearch(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, nil).
		AnyTimes()

	searcher := NewHybridSearcher(vectors, chunks, "knowledge", 0.7, 0.3)
	_, err := searcher.Search(context.Background(), "q", []float32{1}, 10)
	if !errors.Is(err, ErrSearch) {
		t.Errorf("expected ErrSearch, got %v", err)
	}
}

func TestHybridSearchFallsBackToChunkStoreForBarePayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	vectors := vectormocks.NewMockVectorStore(ctrl)
	chunks := storagemocks.NewMockChunkStore(ctrl)

	vectors.EXPECT().
		Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]vectorstore.SearchResult{
			{PointID: "bare", Score: 0.9, Vector: []float32{1, 0}},
		}, nil)
	chunks.EXPECT().
		KeywordSearch(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, nil)
	chunks.EXPECT().
		GetByID(gomock.Any(), "bare").
		Return(&storage.ChunkRecord{ID: "bare", Text: "resolved from sqlite"}, nil)

	searcher := NewHybridSearcher(vectors, chunks, "knowledge", 0.7, 0.3)
	candidates, err := searcher.Search(context.Background(), "q", []float32{1}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Chunk.Text != "resolved from sqlite" {
		t.Errorf("expected text resolved from store, got %q", candidates[0].Chunk.Text)
	}
	if len(candidates[0].Chunk.Embedding) == 0 {
		t.Error("expected embedding backfilled from the vector hit")
	}
}

func TestHybridSearchNormalizesWeights(t *testing.T) {
	ctrl := gomock.NewController(t)
	vectors := vectormocks.NewMockVectorStore(ctrl)
	chunks := storagemocks.NewMockChunkStore(ctrl)

	vectors.EXPECT().
		Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]vectorstore.SearchResult{vectorHit("a", 1.0, "a")}, nil)
	chunks.EXPECT().
		KeywordSearch(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]storage.KeywordHit{keywordHit("a", 1.0, "a")}, nil)

	// Weights 7 and 3 normalize to 0.7/0.3, so a perfect double hit scores 1.
	searcher := NewHybridSearcher(vectors, chunks, "knowledge", 7, 3)
	candidates, err := searcher.Search(context.Background(), "q", []float32{1}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := candidates[0].CombinedScore; math.Abs(got-1.0) > 1e-6 {
		t.Errorf("combined = %f, want 1.0", got)
	}
}
