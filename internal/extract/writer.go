package extract

import (
	"context"
	"fmt"

	"github.com/ppiankov/gapfinder/internal/report"
)

const baselineSummaryPrompt = `Topic: %s
Review papers analyzed: %d
Temporal coverage: %s

Research paradigms: %s
Mainstream methods: %s
Knowledge boundaries: %s

Write a comprehensive summary of this cognitive baseline in 3 to 5 paragraphs.`

const narrativePrompt = `Topic: %s

Cognitive baseline:
%s

Identified innovation clusters:
%s

Paths from consensus to innovation in the knowledge tree:
%s

Write a narrative in 5 to 7 paragraphs describing how knowledge in this field is evolving from consensus toward these innovations.`

const recommendationPrompt = `Topic: %s

Innovation clusters:
%s

Gap analysis by dimension:
%s

Write detailed recommendations for an automated literature review of this topic: how to organize it, which innovations to emphasize and which papers to cite first.`

// SummarizeBaseline writes the Part I prose
func (e *LLMExtractor) SummarizeBaseline(ctx context.Context, req report.BaselineSummaryRequest) (string, error) {
	return e.askProse(ctx, "baseline summary", fmt.Sprintf(baselineSummaryPrompt,
		req.Topic, req.ReviewCount, req.Span, req.Paradigms, req.Methods, req.Boundaries))
}

// Narrate writes the evolution narrative
func (e *LLMExtractor) Narrate(ctx context.Context, req report.NarrativeRequest) (string, error) {
	return e.askProse(ctx, "narrative", fmt.Sprintf(narrativePrompt,
		req.Topic, req.BaselineSummary, req.Clusters, req.Paths))
}

// Recommend writes recommendations for downstream review generation
func (e *LLMExtractor) Recommend(ctx context.Context, req report.RecommendationRequest) (string, error) {
	return e.askProse(ctx, "recommendations", fmt.Sprintf(recommendationPrompt,
		req.Topic, req.Clusters, req.Gaps))
}
