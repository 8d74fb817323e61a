package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks careerpath-ai/internal/rag Embedder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"careerpath-ai/internal/bias"
	"careerpath-ai/internal/contextutil"
	"careerpath-ai/internal/llm"
	"careerpath-ai/internal/profile"
	"careerpath-ai/internal/recommend"
)

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Engine runs the full guidance pipeline: profile extraction, embedding,
// hybrid search, reranking, deduplication, context assembly, generation and
// bias analysis. Each request owns its own intermediate state; the engine
// itself holds only immutable collaborators plus the shared bias counters.
type Engine struct {
	embedder    Embedder
	extractor   *profile.Extractor
	searcher    *HybridSearcher
	reranker    *Reranker
	dedup       *Deduplicator
	assembler   *ContextAssembler
	generator   *Generator
	detector    *bias.Detector
	searchLimit int
}

// NewEngine wires the pipeline stages together.
func NewEngine(
	embedder Embedder,
	searcher *HybridSearcher,
	generator *Generator,
	detector *bias.Detector,
	dedupThreshold float64,
	maxContextTokens int,
	searchLimit int,
) *Engine {
	return &Engine{
		embedder:    embedder,
		extractor:   profile.NewExtractor(),
		searcher:    searcher,
		reranker:    NewReranker(),
		dedup:       NewDeduplicator(dedupThreshold),
		assembler:   NewContextAssembler(maxContextTokens),
		generator:   generator,
		detector:    detector,
		searchLimit: searchLimit,
	}
}

// Detector exposes the shared bias detector for the stats endpoints.
func (e *Engine) Detector() *bias.Detector {
	return e.detector
}

// Evaluate processes one guidance request end to end. Input problems return
// a ValidationError or ErrEmptyQuery; infrastructure failures from the
// embedder or the knowledge store propagate wrapped. Generation failures do
// not: they surface inside the result so the caller can fall back gracefully.
func (e *Engine) Evaluate(ctx context.Context, req EvaluateRequest) (*EvaluateResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	result := &EvaluateResult{
		RequestID: uuid.NewString(),
		Query:     query,
	}
	result.Profile = e.extractor.Extract(query, req.Fields)

	embedding, err := e.embedder.EmbedText(ctx, query)
	if err != nil {
		if errors.Is(err, llm.ErrEmptyInput) {
			return nil, ErrEmptyQuery
		}
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	candidates, err := e.searcher.Search(ctx, query, embedding, e.searchLimit)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		// Nothing retrievable: short-circuit to generic guidance without
		// calling the generation provider.
		logger.Info("no candidates retrieved, returning fallback guidance", "request_id", result.RequestID)
		result.Fallback = true
		result.Generation = fallbackResult(result.Profile)
		e.analyze(result)
		return result, nil
	}

	ranked := e.reranker.Rerank(candidates, result.Profile)
	deduplicated := e.dedup.Deduplicate(ranked)
	bundle := e.assembler.Assemble(deduplicated)

	logger.Debug("context assembled",
		"request_id", result.RequestID,
		"candidates", len(candidates),
		"after_dedup", len(deduplicated),
		"bundle_items", len(bundle.Items),
		"bundle_tokens", bundle.TokenCount)

	for _, item := range bundle.Items {
		result.References = append(result.References, Reference{
			ChunkID:    item.Candidate.Chunk.ID,
			Category:   item.Candidate.Chunk.Category,
			SourceType: item.Candidate.Chunk.SourceType,
			SourceID:   item.Candidate.Chunk.SourceID,
			Score:      item.Candidate.FinalScore,
			Truncated:  item.Truncated,
		})
	}

	result.Generation = e.generator.Generate(ctx, systemPrompt, buildUserPrompt(query, result.Profile, bundle))
	if !result.Generation.Success {
		// Exhausted retries: keep the failed result for diagnostics but mark
		// the response as a fallback so the caller shows generic guidance.
		result.Fallback = true
	}

	e.analyze(result)
	return result, nil
}

// analyze extracts recommendations from the answer text and runs the bias
// reports over them. A failed generation has no text and yields the normal
// insufficient-data outcome.
func (e *Engine) analyze(result *EvaluateResult) {
	if result.Generation.Success {
		result.Recommendations = recommend.Extract(result.Generation.Text)
	}

	items := make([]bias.Item, 0, len(result.Recommendations))
	for _, rec := range result.Recommendations {
		items = append(items, bias.Item{
			Title:       rec.Title,
			Description: rec.Description,
			Category:    rec.Category,
		})
	}

	result.Bias = e.detector.DetectTeachingBias(items)
	result.Distribution = e.detector.AnalyzeCategoryDistribution(items)
}

// fallbackResult is the GenerationResult used when retrieval finds nothing.
// No provider call happens, so it records zero attempts.
func fallbackResult(p profile.StudentProfile) GenerationResult {
	return GenerationResult{
		Success:       true,
		Text:          FallbackGuidance(p),
		State:         StateSucceeded,
		FooterPresent: true,
	}
}
