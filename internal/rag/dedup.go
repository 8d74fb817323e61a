package rag

import "math"

// Deduplicator drops candidates that are near-duplicates of a higher-ranked
// candidate, using cosine similarity of their embeddings.
type Deduplicator struct {
	threshold float64
}

// NewDeduplicator creates a Deduplicator with the given similarity threshold.
// A candidate whose similarity against any already-accepted candidate is at
// or above the threshold is dropped.
func NewDeduplicator(threshold float64) *Deduplicator {
	return &Deduplicator{threshold: threshold}
}

// Deduplicate walks the candidates in rank order and keeps only those not
// too similar to an earlier accepted one, preserving relative order. The
// input must already be rank-ordered: the earlier, higher-ranked duplicate
// always wins. Candidates without embeddings cannot be compared and are kept.
// Quadratic in the candidate count, which search limits keep small.
func (d *Deduplicator) Deduplicate(ranked []RankedCandidate) []RankedCandidate {
	if len(ranked) <= 1 {
		return ranked
	}
	// A threshold of 1 (or more) disables deduplication entirely, including
	// for exact embedding copies.
	if d.threshold >= 1 {
		return ranked
	}

	accepted := make([]RankedCandidate, 0, len(ranked))
	for _, candidate := range ranked {
		duplicate := false
		if len(candidate.Chunk.Embedding) > 0 {
			for _, kept := range accepted {
				if len(kept.Chunk.Embedding) == 0 {
					continue
				}
				if cosineSimilarity(candidate.Chunk.Embedding, kept.Chunk.Embedding) >= d.threshold {
					duplicate = true
					break
				}
			}
		}
		if !duplicate {
			accepted = append(accepted, candidate)
		}
	}
	return accepted
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths or zero vectors yield 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
