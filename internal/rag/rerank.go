package rag

import (
	"fmt"
	"sort"
	"strings"

	"careerpath-ai/internal/profile"
	"careerpath-ai/internal/storage"
)

// Relevance signal weights. They sum to 1 so profile relevance stays in [0, 1].
const (
	subjectWeight    = 0.35
	interestWeight   = 0.30
	gradeWeight      = 0.15
	constraintWeight = 0.20
)

// Blend between the retrieval score and the profile signal.
const (
	retrievalBlend = 0.6
	relevanceBlend = 0.4
)

// Reranker reorders hybrid search candidates by how well each chunk matches
// the student's profile. Scoring is deterministic: identical inputs always
// produce identical order.
type Reranker struct{}

// NewReranker creates a Reranker.
func NewReranker() *Reranker {
	return &Reranker{}
}

// Rerank populates ProfileRelevance and FinalScore on every candidate and
// returns the same candidates reordered by FinalScore descending, ties broken
// by chunk ID ascending. FinalRank is assigned from the resulting position,
// so no two candidates share a rank. An empty input returns empty immediately.
func (r *Reranker) Rerank(candidates []RankedCandidate, p profile.StudentProfile) []RankedCandidate {
	if len(candidates) == 0 {
		return candidates
	}

	ranked := make([]RankedCandidate, len(candidates))
	copy(ranked, candidates)

	for i := range ranked {
		ranked[i].ProfileRelevance = profileRelevance(ranked[i].Chunk, p)
		ranked[i].FinalScore = retrievalBlend*ranked[i].CombinedScore + relevanceBlend*ranked[i].ProfileRelevance
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].FinalScore != ranked[j].FinalScore {
			return ranked[i].FinalScore > ranked[j].FinalScore
		}
		return ranked[i].Chunk.ID < ranked[j].Chunk.ID
	})

	for i := range ranked {
		ranked[i].FinalRank = i
	}
	return ranked
}

// profileRelevance scores a chunk against the profile in [0, 1].
// Each signal contributes the fraction of its profile values the chunk
// mentions, scaled by the signal's weight. Absent profile fields contribute
// nothing, so an empty profile scores every chunk 0 and the retrieval order
// carries through unchanged.
func profileRelevance(chunk storage.ChunkRecord, p profile.StudentProfile) float64 {
	haystack := chunkHaystack(chunk)

	score := subjectWeight * matchFraction(haystack, p.Subjects)
	score += interestWeight * matchFraction(haystack, p.Interests)

	if p.Grade != nil && hasTag(chunk.Tags, fmt.Sprintf("grade-%d", *p.Grade)) {
		score += gradeWeight
	}

	score += constraintWeight * constraintMatch(chunk, haystack, p.Constraints)
	return clamp01(score)
}

// chunkHaystack lowercases the chunk text and tags into one searchable string.
func chunkHaystack(chunk storage.ChunkRecord) string {
	var builder strings.Builder
	builder.Grow(len(chunk.Text) + 64)
	builder.WriteString(strings.ToLower(chunk.Text))
	for _, tag := range chunk.Tags {
		builder.WriteByte(' ')
		builder.WriteString(strings.ToLower(tag))
	}
	builder.WriteByte(' ')
	builder.WriteString(strings.ToLower(chunk.Category))
	return builder.String()
}

// matchFraction returns the fraction of values found in the haystack.
func matchFraction(haystack string, values []string) float64 {
	if len(values) == 0 {
		return 0
	}
	matched := 0
	for _, v := range values {
		if v == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(v)) {
			matched++
		}
	}
	return float64(matched) / float64(len(values))
}

// constraintMatch scores budget and location compatibility in [0, 1].
// Each expressed constraint contributes an equal share when satisfied.
func constraintMatch(chunk storage.ChunkRecord, haystack string, c profile.Constraints) float64 {
	expressed := 0
	satisfied := 0

	if c.Budget != nil {
		expressed++
		if hasTag(chunk.Tags, "budget-"+strings.ToLower(*c.Budget)) {
			satisfied++
		}
	}
	if c.Location != nil {
		expressed++
		if strings.Contains(haystack, strings.ToLower(*c.Location)) {
			satisfied++
		}
	}

	if expressed == 0 {
		return 0
	}
	return float64(satisfied) / float64(expressed)
}

func hasTag(tags []string, target string) bool {
	for _, tag := range tags {
		if strings.EqualFold(tag, target) {
			return true
		}
	}
	return false
}
