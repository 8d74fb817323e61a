package rag

import (
	"testing"

	"careerpath-ai/internal/profile"
	"careerpath-ai/internal/storage"
)

func strPtr(v string) *string { return &v }

func TestRerankIsPermutation(t *testing.T) {
	candidates := []RankedCandidate{
		{Chunk: storage.ChunkRecord{ID: "a", Text: "mathematics careers"}, CombinedScore: 0.3},
		{Chunk: storage.ChunkRecord{ID: "b", Text: "nursing in healthcare"}, CombinedScore: 0.8},
		{Chunk: storage.ChunkRecord{ID: "c", Text: "farming basics"}, CombinedScore: 0.5},
	}
	p := profile.StudentProfile{Subjects: []string{"mathematics"}}

	ranked := NewReranker().Rerank(candidates, p)

	if len(ranked) != len(candidates) {
		t.Fatalf("expected %d candidates, got %d", len(candidates), len(ranked))
	}
	seen := make(map[string]bool)
	for _, c := range ranked {
		seen[c.Chunk.ID] = true
	}
	for _, c := range candidates {
		if !seen[c.Chunk.ID] {
			t.Errorf("candidate %s missing from output", c.Chunk.ID)
		}
	}
}

func TestRerankBlendsProfileRelevance(t *testing.T) {
	// Chunk b retrieves better, but chunk a matches the student's subject
	// and interest, which outweighs the retrieval gap.
	candidates := []RankedCandidate{
		{Chunk: storage.ChunkRecord{ID: "a", Text: "software careers for mathematics students"}, CombinedScore: 0.5},
		{Chunk: storage.ChunkRecord{ID: "b", Text: "general study advice"}, CombinedScore: 0.6},
	}
	p := profile.StudentProfile{
		Subjects:  []string{"mathematics"},
		Interests: []string{"technology"},
	}

	ranked := NewReranker().Rerank(candidates, p)

	if ranked[0].Chunk.ID != "a" {
		t.Errorf("expected a first, got %s", ranked[0].Chunk.ID)
	}
	if ranked[0].ProfileRelevance <= ranked[1].ProfileRelevance {
		t.Errorf("expected a to have higher relevance: %f vs %f",
			ranked[0].ProfileRelevance, ranked[1].ProfileRelevance)
	}
}

func TestRerankEmptyProfilePreservesRetrievalOrder(t *testing.T) {
	candidates := []RankedCandidate{
		{Chunk: storage.ChunkRecord{ID: "low", Text: "x"}, CombinedScore: 0.2},
		{Chunk: storage.ChunkRecord{ID: "high", Text: "y"}, CombinedScore: 0.9},
		{Chunk: storage.ChunkRecord{ID: "mid", Text: "z"}, CombinedScore: 0.5},
	}

	ranked := NewReranker().Rerank(candidates, profile.StudentProfile{})

	for i, want := range []string{"high", "mid", "low"} {
		if ranked[i].Chunk.ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, ranked[i].Chunk.ID)
		}
	}
	for _, c := range ranked {
		if c.ProfileRelevance != 0 {
			t.Errorf("candidate %s: expected zero relevance for empty profile, got %f", c.Chunk.ID, c.ProfileRelevance)
		}
	}
}

func TestRerankRanksAreStable(t *testing.T) {
	candidates := []RankedCandidate{
		{Chunk: storage.ChunkRecord{ID: "b", Text: "same"}, CombinedScore: 0.5},
		{Chunk: storage.ChunkRecord{ID: "a", Text: "same"}, CombinedScore: 0.5},
		{Chunk: storage.ChunkRecord{ID: "c", Text: "same"}, CombinedScore: 0.5},
	}

	ranked := NewReranker().Rerank(candidates, profile.StudentProfile{})

	// Equal scores break ties by chunk ID ascending.
	for i, want := range []string{"a", "b", "c"} {
		if ranked[i].Chunk.ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, ranked[i].Chunk.ID)
		}
		if ranked[i].FinalRank != i {
			t.Errorf("position %d: expected rank %d, got %d", i, i, ranked[i].FinalRank)
		}
	}

	ranks := make(map[int]bool)
	for _, c := range ranked {
		if ranks[c.FinalRank] {
			t.Errorf("duplicate rank %d", c.FinalRank)
		}
		ranks[c.FinalRank] = true
	}
}

func TestRerankEmptyInput(t *testing.T) {
	if got := NewReranker().Rerank(nil, profile.StudentProfile{}); len(got) != 0 {
		t.Errorf("expected empty output, got %d", len(got))
	}
}

func TestProfileRelevance(t *testing.T) {
	grade := 11
	tests := []struct {
		name    string
		chunk   storage.ChunkRecord
		profile profile.StudentProfile
		want    float64
	}{
		{
			name:    "no signals",
			chunk:   storage.ChunkRecord{Text: "anything"},
			profile: profile.StudentProfile{},
			want:    0,
		},
		{
			name:  "all subjects match",
			chunk: storage.ChunkRecord{Text: "mathematics and accounting careers"},
			profile: profile.StudentProfile{
				Subjects: []string{"mathematics", "accounting"},
			},
			want: subjectWeight,
		},
		{
			name:  "half the interests match",
			chunk: storage.ChunkRecord{Text: "working in healthcare"},
			profile: profile.StudentProfile{
				Interests: []string{"healthcare", "finance"},
			},
			want: interestWeight / 2,
		},
		{
			name:  "grade tag match",
			chunk: storage.ChunkRecord{Text: "subject choices", Tags: []string{"grade-11"}},
			profile: profile.StudentProfile{
				Grade: &grade,
			},
			want: gradeWeight,
		},
		{
			name:  "budget constraint match",
			chunk: storage.ChunkRecord{Text: "bursary options", Tags: []string{"budget-low"}},
			profile: profile.StudentProfile{
				Constraints: profile.Constraints{Budget: strPtr("low")},
			},
			want: constraintWeight,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := profileRelevance(tt.chunk, tt.profile)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("profileRelevance() = %f, want %f", got, tt.want)
			}
		})
	}
}
