// Package pipeline wires the components together and runs the two analysis
// phases and report generation for a topic.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ppiankov/gapfinder/internal/baseline"
	"github.com/ppiankov/gapfinder/internal/cache"
	"github.com/ppiankov/gapfinder/internal/cluster"
	"github.com/ppiankov/gapfinder/internal/extract"
	"github.com/ppiankov/gapfinder/internal/llm"
	"github.com/ppiankov/gapfinder/internal/metrics"
	"github.com/ppiankov/gapfinder/internal/model"
	"github.com/ppiankov/gapfinder/internal/report"
	"github.com/ppiankov/gapfinder/internal/score"
	"github.com/ppiankov/gapfinder/internal/source"
	"github.com/ppiankov/gapfinder/internal/util"
	"github.com/ppiankov/gapfinder/internal/worker"
	"github.com/rs/zerolog"
)

// FrontierRetriever finds recent research for phase two
type FrontierRetriever interface {
	RetrieveFrontier(ctx context.Context, topic string, topK int, exclude []string) ([]model.SourceDocument, error)
}

// Components are the collaborators a pipeline runs
type Components struct {
	Builder      *baseline.Builder
	Frontier     FrontierRetriever
	Scorer       *score.Scorer
	Identifier   *cluster.Identifier
	Generator    *report.Generator
	Metrics      *metrics.Metrics
	TopKResearch int
}

// Pipeline orchestrates runs over one or more topics
type Pipeline struct {
	components Components
	outputDir  string
	logger     *zerolog.Logger
}

// New creates a pipeline from explicit components
func New(c Components, outputDir string, logger *zerolog.Logger) *Pipeline {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Pipeline{components: c, outputDir: outputDir, logger: logger}
}

// NewPipeline creates a pipeline with the given configuration
func NewPipeline(cfg *model.Config, logger *zerolog.Logger) (*Pipeline, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}
	if provider == nil {
		return nil, errors.New("no LLM provider configured (set llm.provider to openai, anthropic or ollama)")
	}

	m := metrics.New()
	store := cache.New(cfg.Cache)
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	client := llm.NewClient(provider,
		llm.WithCache(store, cfg.Cache.DiskTTL),
		llm.WithLimiter(limiter),
		llm.WithMetrics(m),
		llm.WithLogger(logger),
	)
	extractor := extract.New(client, logger)

	src, err := newSource(cfg, store, limiter, m, logger)
	if err != nil {
		return nil, err
	}
	retriever := source.NewRetriever(src, cfg.Concurrency.QueryWorkers, logger)

	return New(Components{
		Builder:      baseline.NewBuilder(retriever, extractor, cfg.Analysis.TopKReviews, logger),
		Frontier:     retriever,
		Scorer:       score.NewScorer(extractor, cfg.Analysis.Viewpoints, cfg.Concurrency.Workers, cfg.Concurrency.ViewpointWorkers, logger),
		Identifier:   cluster.NewIdentifier(extractor, cfg.Analysis.MinClusterSize, cfg.Analysis.DeviationThreshold, logger),
		Generator:    report.NewGenerator(extractor, logger),
		Metrics:      m,
		TopKResearch: cfg.Analysis.TopKResearch,
	}, cfg.Output.Dir, logger), nil
}

// newSource builds the configured search providers. Each one is wrapped
// with page enrichment (optional), caching and rate limiting.
func newSource(cfg *model.Config, c cache.Cache, limiter *worker.Limiter, m *metrics.Metrics, logger *zerolog.Logger) (source.Source, error) {
	h := cfg.HTTP
	httpClient := util.NewHTTPClient(h.Timeout, h.HTTPProxy, h.HTTPSProxy, h.NoProxy)

	var fetcher *source.Fetcher
	if cfg.Search.EnrichPages {
		fetcher = source.NewFetcher(h.Timeout, h.UserAgent, h.MaxBodyBytes, h.InsecureTLS, h.HTTPProxy, h.HTTPSProxy, h.NoProxy).
			WithRobots(util.NewRobotsChecker(h.UserAgent, httpClient, h.Timeout)).
			WithLimiter(limiter).
			WithMetrics(m)
	}

	var sources []source.Source
	for _, name := range cfg.Search.Providers {
		var src source.Source
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "arxiv":
			src = source.NewArxivSource(cfg.Search.ArxivURL, httpClient, h.UserAgent, cfg.Search.ResultsPerQuery)
		case "tavily":
			t, err := source.NewTavilySource(cfg.Search.TavilyURL, cfg.Search.TavilyAPIKey, httpClient, cfg.Search.ResultsPerQuery)
			if err != nil {
				return nil, fmt.Errorf("initialize tavily: %w", err)
			}
			src = t
		default:
			return nil, fmt.Errorf("unknown search provider: %s (supported: arxiv, tavily)", name)
		}
		if fetcher != nil {
			src = source.NewEnrichingSource(src, fetcher, cfg.Concurrency.Workers, logger)
		}
		sources = append(sources, source.NewCachedSource(src, c, cfg.Cache.DiskTTL, limiter, m))
	}
	if len(sources) == 0 {
		return nil, errors.New("no search providers configured")
	}
	if len(sources) == 1 {
		return sources[0], nil
	}
	return source.NewMultiSource(logger, sources...), nil
}

// Metrics returns the run's collectors; nil when none were configured
func (p *Pipeline) Metrics() *metrics.Metrics {
	return p.components.Metrics
}

// Session starts a run for topic writing into dir
func (p *Pipeline) Session(topic, dir string) *Session {
	return &Session{
		topic:      topic,
		components: p.components,
		store:      NewStore(dir),
		logger:     p.logger,
	}
}

// RunTopic runs every phase for topic into its own subdirectory of the
// output dir and returns that directory
func (p *Pipeline) RunTopic(ctx context.Context, topic string) (string, error) {
	dir := filepath.Join(p.outputDir, Slug(topic))
	if _, err := p.Session(topic, dir).Run(ctx, RunOptions{}); err != nil {
		return "", err
	}
	return dir, nil
}

// Slug turns a topic into a directory name
func Slug(topic string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(topic) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if slug == "" {
		return "topic"
	}
	return slug
}
