package rag

import (
	"fmt"
	"strings"
	"testing"

	"careerpath-ai/internal/storage"
)

// chunkOfTokens builds a candidate whose text estimates to exactly n tokens.
func chunkOfTokens(id string, n int) RankedCandidate {
	return RankedCandidate{
		Chunk: storage.ChunkRecord{
			ID:   id,
			Text: strings.Repeat("a", n*runesPerToken),
		},
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "short text costs at least one", text: "ab", want: 1},
		{name: "four runes per token", text: strings.Repeat("x", 1200), want: 300},
		{name: "multibyte runes counted as runes", text: strings.Repeat("ü", 8), want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := estimateTokens(tt.text); got != tt.want {
				t.Errorf("estimateTokens() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAssembleBudget(t *testing.T) {
	// 20 chunks of 300 tokens each against a 3000 token budget must retain
	// exactly 10, none truncated.
	candidates := make([]RankedCandidate, 20)
	for i := range candidates {
		candidates[i] = chunkOfTokens(fmt.Sprintf("chunk-%02d", i), 300)
	}

	bundle := NewContextAssembler(3000).Assemble(candidates)

	if len(bundle.Items) != 10 {
		t.Fatalf("expected 10 items, got %d", len(bundle.Items))
	}
	if bundle.TokenCount != 3000 {
		t.Errorf("expected token count 3000, got %d", bundle.TokenCount)
	}
	for i, item := range bundle.Items {
		if item.Truncated {
			t.Errorf("item %d unexpectedly truncated", i)
		}
	}
}

func TestAssembleNeverExceedsBudget(t *testing.T) {
	sizes := []int{500, 900, 700, 400, 1200, 100}
	candidates := make([]RankedCandidate, len(sizes))
	for i, n := range sizes {
		candidates[i] = chunkOfTokens(fmt.Sprintf("c%d", i), n)
	}

	for _, budget := range []int{100, 1000, 2000, 5000} {
		bundle := NewContextAssembler(budget).Assemble(candidates)
		if bundle.TokenCount > budget {
			t.Errorf("budget %d exceeded: %d", budget, bundle.TokenCount)
		}
		if len(bundle.Items) == 0 {
			t.Errorf("budget %d: bundle empty for non-empty input", budget)
		}
	}
}

func TestAssembleTruncatesOversizedFirstChunk(t *testing.T) {
	candidates := []RankedCandidate{chunkOfTokens("big", 500)}

	bundle := NewContextAssembler(100).Assemble(candidates)

	if len(bundle.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(bundle.Items))
	}
	item := bundle.Items[0]
	if !item.Truncated {
		t.Error("expected item to be flagged truncated")
	}
	if item.Tokens > 100 {
		t.Errorf("truncated item estimates %d tokens, budget is 100", item.Tokens)
	}
	if bundle.TokenCount > 100 {
		t.Errorf("token count %d exceeds budget", bundle.TokenCount)
	}
}

func TestAssembleStopsAtFirstOverflow(t *testing.T) {
	// The second chunk does not fit; assembly stops there even though the
	// third would fit. Chunks are rank-ordered, so no re-packing.
	candidates := []RankedCandidate{
		chunkOfTokens("a", 80),
		chunkOfTokens("b", 50),
		chunkOfTokens("c", 10),
	}

	bundle := NewContextAssembler(100).Assemble(candidates)

	if len(bundle.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(bundle.Items))
	}
	if bundle.Items[0].Candidate.Chunk.ID != "a" {
		t.Errorf("expected chunk a, got %s", bundle.Items[0].Candidate.Chunk.ID)
	}
}

func TestAssembleEmptyInput(t *testing.T) {
	bundle := NewContextAssembler(1000).Assemble(nil)
	if len(bundle.Items) != 0 || bundle.TokenCount != 0 {
		t.Errorf("expected empty bundle, got %d items, %d tokens", len(bundle.Items), bundle.TokenCount)
	}
}
