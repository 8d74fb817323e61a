package rag

import "unicode/utf8"

// runesPerToken is the deterministic token estimation heuristic: roughly one
// token per four characters of text. It must stay consistent across calls so
// assembly is reproducible for identical inputs.
const runesPerToken = 4

// estimateTokens estimates the token cost of a text. Non-empty text always
// costs at least one token.
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	tokens := utf8.RuneCountInString(text) / runesPerToken
	if tokens < 1 {
		return 1
	}
	return tokens
}

// ContextAssembler packs deduplicated candidates into a token-budgeted bundle.
type ContextAssembler struct {
	maxTokens int
}

// NewContextAssembler creates a ContextAssembler with the given token budget.
func NewContextAssembler(maxTokens int) *ContextAssembler {
	return &ContextAssembler{maxTokens: maxTokens}
}

// Assemble greedily walks the candidates in rank order and appends each chunk
// while the running total stays within the budget, stopping at the first
// chunk that does not fit. Chunks are already rank-ordered by relevance, so
// no re-packing is attempted. If the very first chunk alone exceeds the
// budget, its text is truncated to fit and flagged, which guarantees a
// non-empty bundle whenever at least one candidate exists.
func (a *ContextAssembler) Assemble(deduplicated []RankedCandidate) ContextBundle {
	bundle := ContextBundle{}

	for _, candidate := range deduplicated {
		text := candidate.Chunk.Text
		tokens := estimateTokens(text)

		if bundle.TokenCount+tokens > a.maxTokens {
			if len(bundle.Items) > 0 {
				break
			}
			text = truncateToTokens(text, a.maxTokens)
			bundle.Items = append(bundle.Items, BundleItem{
				Candidate: candidate,
				Text:      text,
				Tokens:    estimateTokens(text),
				Truncated: true,
			})
			bundle.TokenCount += estimateTokens(text)
			break
		}

		bundle.Items = append(bundle.Items, BundleItem{
			Candidate: candidate,
			Text:      text,
			Tokens:    tokens,
		})
		bundle.TokenCount += tokens
	}

	return bundle
}

// truncateToTokens cuts text down so its estimated cost fits maxTokens.
func truncateToTokens(text string, maxTokens int) string {
	budget := maxTokens * runesPerToken
	if utf8.RuneCountInString(text) <= budget {
		return text
	}
	runes := []rune(text)
	return string(runes[:budget])
}
