package rag

import (
	"time"

	"careerpath-ai/internal/bias"
	"careerpath-ai/internal/profile"
	"careerpath-ai/internal/recommend"
	"careerpath-ai/internal/storage"
)

// RankedCandidate wraps a knowledge chunk with its retrieval scores.
// HybridSearch creates it, the Reranker fills in ProfileRelevance and
// FinalScore, and the Deduplicator and ContextAssembler consume it.
// CombinedScore and ProfileRelevance are always in [0, 1].
type RankedCandidate struct {
	Chunk            storage.ChunkRecord
	VectorScore      float64
	KeywordScore     float64
	CombinedScore    float64
	ProfileRelevance float64
	FinalScore       float64
	FinalRank        int
}

// BundleItem is one chunk retained in the assembled context.
type BundleItem struct {
	Candidate RankedCandidate
	Text      string // Chunk text, possibly truncated
	Tokens    int    // Estimated token cost of Text
	Truncated bool
}

// ContextBundle is the ordered context handed to the Generator.
// TokenCount never exceeds the budget it was assembled under, and item
// order follows descending final rank.
type ContextBundle struct {
	Items      []BundleItem
	TokenCount int
}

// GenerationState tracks where a generation request is in its retry cycle.
type GenerationState string

const (
	StatePending    GenerationState = "pending"
	StateAttempting GenerationState = "attempting"
	StateRetrying   GenerationState = "retrying"
	StateSucceeded  GenerationState = "succeeded"
	StateFailed     GenerationState = "failed"
)

// GenerationResult is the outcome of one Generator invocation.
// It is created once and never mutated; the Generator always returns one,
// never an error.
type GenerationResult struct {
	Success       bool            `json:"success"`
	Text          string          `json:"text"`
	ErrorDetail   string          `json:"error_detail,omitempty"`
	Attempts      int             `json:"attempts"`
	State         GenerationState `json:"state"`
	Elapsed       time.Duration   `json:"elapsed"`
	FooterPresent bool            `json:"footer_present"`
}

// Reference records which chunk contributed to the answer, for provenance.
type Reference struct {
	ChunkID    string  `json:"chunk_id"`
	Category   string  `json:"category,omitempty"`
	SourceType string  `json:"source_type,omitempty"`
	SourceID   string  `json:"source_id,omitempty"`
	Score      float64 `json:"score"`
	Truncated  bool    `json:"truncated,omitempty"`
}

// EvaluateRequest is the engine's input: a free-text query plus optional
// structured profile fields.
type EvaluateRequest struct {
	Query  string          `json:"query"`
	Fields *profile.Fields `json:"profile,omitempty"`
}

// EvaluateResult is the full outcome of one guidance evaluation.
type EvaluateResult struct {
	RequestID       string                  `json:"request_id"`
	Query           string                  `json:"query"`
	Profile         profile.StudentProfile  `json:"-"`
	Generation      GenerationResult        `json:"generation"`
	Recommendations []recommend.Item        `json:"recommendations,omitempty"`
	Bias            bias.TeachingBiasReport `json:"bias"`
	Distribution    bias.DistributionReport `json:"distribution"`
	References      []Reference             `json:"references,omitempty"`
	Fallback        bool                    `json:"fallback"`
}
