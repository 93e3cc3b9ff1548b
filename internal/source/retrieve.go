package source

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/gapfinder/internal/model"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTopKReviews is the review count used when the caller passes zero
	DefaultTopKReviews = 10
	// DefaultTopKResearch is the frontier count used when the caller passes zero
	DefaultTopKResearch = 30

	longDescription = 200
	recentYears     = 5
)

var (
	reviewKeywords   = []string{"survey", "review", "overview", "comprehensive", "systematic", "state-of-the-art"}
	frontierExcluded = []string{"survey", "review", "overview", "systematic review"}
	noveltyWords     = []string{"new", "novel", "recent", "emerging", "latest"}
)

// ReviewQueries returns the search queries used to find review articles
func ReviewQueries(topic string) []string {
	return []string{
		topic + " survey",
		topic + " review",
		topic + " overview",
		"systematic review of " + topic,
		topic + " state of the art",
	}
}

// FrontierQueries returns the search queries used to find recent research
func FrontierQueries(topic string) []string {
	return []string{
		topic,
		topic + " method",
		topic + " approach",
		topic + " model",
		topic + " framework",
		"recent advances in " + topic,
	}
}

// Retriever turns a topic into ranked review and frontier document sets
type Retriever struct {
	source  Source
	workers int
	logger  *zerolog.Logger
	now     func() time.Time
}

// NewRetriever creates a retriever; workers bounds concurrent queries
func NewRetriever(src Source, workers int, logger *zerolog.Logger) *Retriever {
	if workers <= 0 {
		workers = 3
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Retriever{source: src, workers: workers, logger: logger, now: time.Now}
}

// RetrieveReviews returns up to topK review-like documents, most relevant first
func (r *Retriever) RetrieveReviews(ctx context.Context, topic string, topK int) ([]model.SourceDocument, error) {
	if topK <= 0 {
		topK = DefaultTopKReviews
	}
	docs, err := r.search(ctx, ReviewQueries(topic))
	if err != nil {
		return nil, err
	}

	reviews := slices.DeleteFunc(docs, func(d model.SourceDocument) bool { return !isReviewLike(d) })
	lowerTopic := strings.ToLower(topic)
	slices.SortStableFunc(reviews, func(a, b model.SourceDocument) int {
		return compareDesc(relevance(a, lowerTopic), relevance(b, lowerTopic))
	})

	r.logger.Debug().Str("topic", topic).Int("candidates", len(docs)).Int("kept", min(len(reviews), topK)).Msg("reviews retrieved")
	return reviews[:min(len(reviews), topK)], nil
}

// RetrieveFrontier returns up to topK recent non-review documents, most
// recent first. URLs in exclude are skipped.
func (r *Retriever) RetrieveFrontier(ctx context.Context, topic string, topK int, exclude []string) ([]model.SourceDocument, error) {
	if topK <= 0 {
		topK = DefaultTopKResearch
	}
	docs, err := r.search(ctx, FrontierQueries(topic))
	if err != nil {
		return nil, err
	}

	skip := make(map[string]bool, len(exclude))
	for _, u := range exclude {
		skip[strings.TrimRight(u, "/")] = true
	}
	research := slices.DeleteFunc(docs, func(d model.SourceDocument) bool {
		return skip[strings.TrimRight(d.URL, "/")] || containsAny(strings.ToLower(d.Title), frontierExcluded)
	})

	year := r.now().Year()
	slices.SortStableFunc(research, func(a, b model.SourceDocument) int {
		return compareDesc(recency(a, year), recency(b, year))
	})

	r.logger.Debug().Str("topic", topic).Int("candidates", len(docs)).Int("kept", min(len(research), topK)).Msg("frontier retrieved")
	return research[:min(len(research), topK)], nil
}

// search runs queries concurrently and merges results in query order. Failed
// queries are logged and skipped; the error is returned only when all fail.
func (r *Retriever) search(ctx context.Context, queries []string) ([]model.SourceDocument, error) {
	results := make([][]model.SourceDocument, len(queries))
	errs := make([]error, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, q := range queries {
		g.Go(func() error {
			results[i], errs[i] = r.source.Retrieve(gctx, q)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	var firstErr error
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed++
		if firstErr == nil {
			firstErr = err
		}
		r.logger.Warn().Err(err).Str("query", queries[i]).Msg("search query failed")
	}
	if failed == len(queries) && firstErr != nil {
		return nil, firstErr
	}

	return Dedup(results...), nil
}

func isReviewLike(d model.SourceDocument) bool {
	return containsAny(strings.ToLower(d.Title), reviewKeywords) ||
		utf8.RuneCountInString(d.Description) > longDescription
}

func relevance(d model.SourceDocument, lowerTopic string) float64 {
	title := strings.ToLower(d.Title)
	score := 0.0
	if strings.Contains(title, lowerTopic) {
		score += 10
	}
	if strings.Contains(title, "survey") {
		score += 5
	}
	if strings.Contains(title, "review") {
		score += 5
	}
	return score + float64(utf8.RuneCountInString(d.Description))*0.01
}

// recency favors mentions of the last few years and novelty wording
func recency(d model.SourceDocument, currentYear int) float64 {
	text := strings.ToLower(d.Title + " " + d.Description)
	score := 0.0
	for y := currentYear; y > currentYear-recentYears; y-- {
		if strings.Contains(text, strconv.Itoa(y)) || d.Year == y {
			score += float64(y-2020) * 2
		}
	}
	for _, w := range noveltyWords {
		if strings.Contains(text, w) {
			score++
		}
	}
	return score
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func compareDesc(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}
