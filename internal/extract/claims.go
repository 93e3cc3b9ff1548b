package extract

import (
	"strings"
)

// claimMarkers are phrases that typically open a contribution statement in an abstract
var claimMarkers = []string{
	"we propose", "we present", "we introduce", "we show", "we demonstrate",
	"we develop", "we find", "we prove", "this paper", "this work",
	"our method", "our approach", "our model", "our results", "outperforms",
	"achieves", "state-of-the-art", "novel",
}

// findingMarkers narrow claims to reported outcomes
var findingMarkers = []string{
	"outperforms", "achieves", "improves", "reduces", "results show",
	"experiments show", "we find", "we show", "we demonstrate", "accuracy",
}

// ClaimSentences returns up to limit sentences of text that read like
// contribution statements, in order of appearance.
func ClaimSentences(text string, limit int) []string {
	return matchSentences(text, claimMarkers, limit)
}

// FindingSentences returns up to limit sentences that report results
func FindingSentences(text string, limit int) []string {
	return matchSentences(text, findingMarkers, limit)
}

func matchSentences(text string, markers []string, limit int) []string {
	var out []string
	seen := make(map[string]bool)
	for _, sentence := range splitSentences(text) {
		if limit > 0 && len(out) >= limit {
			break
		}
		lower := strings.ToLower(sentence)
		if seen[lower] {
			continue
		}
		for _, m := range markers {
			if strings.Contains(lower, m) {
				seen[lower] = true
				out = append(out, sentence)
				break // Only match once per sentence
			}
		}
	}
	return out
}

// splitSentences splits text into sentences (simple heuristic)
func splitSentences(text string) []string {
	text = strings.Join(strings.Fields(text), " ")

	var sentences []string
	var current strings.Builder

	keep := func() {
		sentence := strings.TrimSpace(current.String())
		if len(sentence) >= 30 && len(sentence) <= 500 {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	for i, r := range text {
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			// A terminator must be followed by a space to avoid splitting "e.g." or "3.5"
			if i+1 < len(text) && text[i+1] == ' ' {
				keep()
			}
		}
	}

	if current.Len() > 0 {
		keep()
	}

	return sentences
}
