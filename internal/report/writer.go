package report

import "context"

// BaselineSummaryRequest carries the prepared baseline facts for the summary prose
type BaselineSummaryRequest struct {
	Topic       string
	ReviewCount int
	Paradigms   string
	Methods     string
	Boundaries  string
	Span        string
}

// NarrativeRequest carries clusters and innovation paths for the evolution narrative
type NarrativeRequest struct {
	Topic           string
	BaselineSummary string
	Clusters        string
	Paths           string
}

// RecommendationRequest carries clusters and gaps for the review recommendations
type RecommendationRequest struct {
	Topic    string
	Clusters string
	Gaps     string
}

// Writer produces the prose sections of a report. Every method may fail;
// the generator then falls back to a deterministic text.
type Writer interface {
	SummarizeBaseline(ctx context.Context, req BaselineSummaryRequest) (string, error)
	Narrate(ctx context.Context, req NarrativeRequest) (string, error)
	Recommend(ctx context.Context, req RecommendationRequest) (string, error)
}
