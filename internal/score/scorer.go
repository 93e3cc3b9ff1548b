// Package score assesses frontier documents against the cognitive baseline
// from a panel of independent viewpoints.
package score

import (
	"context"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/ppiankov/gapfinder/internal/baseline"
	"github.com/ppiankov/gapfinder/internal/model"
	"github.com/ppiankov/gapfinder/internal/worker"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// FallbackScore replaces a raw score that cannot be parsed
const FallbackScore = 0.5

// DeviationRequest is everything one viewpoint needs to assess a document
type DeviationRequest struct {
	Topic     string
	Viewpoint model.Viewpoint
	Document  model.FrontierDocument
	Consensus string   // Digest of top paradigms, methods, boundaries
	Concepts  []string // Baseline concept names
}

// RawDeviation is an adapter's unnormalized deviation assessment
type RawDeviation struct {
	MatchedConcepts     []string
	Dimensions          []string
	Description         string
	RawScore            string // Expected on a 0-10 scale
	Reasoning           string
	InnovationPotential string
}

// Analyst is the extraction capability the scorer depends on
type Analyst interface {
	ExtractFrontier(ctx context.Context, topic string, doc model.SourceDocument) (*model.FrontierDocument, error)
	AnalyzeDeviation(ctx context.Context, req DeviationRequest) (*RawDeviation, error)
}

// Scorer produces deviation records per document and viewpoint
type Scorer struct {
	analyst          Analyst
	viewpoints       []model.Viewpoint
	workers          int
	viewpointWorkers int
	logger           *zerolog.Logger
}

// NewScorer creates a scorer; an empty panel falls back to the default viewpoints
func NewScorer(analyst Analyst, viewpoints []model.Viewpoint, workers, viewpointWorkers int, logger *zerolog.Logger) *Scorer {
	if len(viewpoints) == 0 {
		viewpoints = model.DefaultViewpoints()
	}
	if viewpointWorkers <= 0 {
		viewpointWorkers = len(viewpoints)
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Scorer{
		analyst:          analyst,
		viewpoints:       viewpoints,
		workers:          workers,
		viewpointWorkers: viewpointWorkers,
		logger:           logger,
	}
}

// NormalizeScore converts a 0-10 raw score to [0,1]; unparseable input yields FallbackScore
func NormalizeScore(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return FallbackScore
	}
	return min(1, max(0, v/10))
}

// Analyze scores every document against the baseline. Documents whose
// metadata extraction fails are dropped; the rest keep input order.
func (s *Scorer) Analyze(ctx context.Context, topic string, docs []model.SourceDocument, bl *baseline.Baseline) []model.AnalyzedDocument {
	if len(docs) == 0 {
		return []model.AnalyzedDocument{}
	}

	consensus := bl.ConsensusDigest()
	concepts := bl.ConceptNames()

	pool := worker.NewPool(ctx, s.workers)
	pool.Start()
	for i, doc := range docs {
		pool.Submit(&documentJob{
			index:     i,
			topic:     topic,
			doc:       doc,
			consensus: consensus,
			concepts:  concepts,
			scorer:    s,
		})
	}

	results := pool.Wait()
	slices.SortFunc(results, func(a, b worker.Result) int {
		return a.(*documentResult).index - b.(*documentResult).index
	})

	analyzed := make([]model.AnalyzedDocument, 0, len(results))
	for _, r := range results {
		res := r.(*documentResult)
		if res.err != nil {
			s.logger.Warn().Err(res.err).Str("url", docs[res.index].URL).Msg("skipping frontier document")
			continue
		}
		analyzed = append(analyzed, *res.analyzed)
	}

	s.logger.Info().Int("analyzed", len(analyzed)).Int("retrieved", len(docs)).Msg("deviation analysis complete")
	return analyzed
}

// AnalyzeDocument extracts one document and runs every viewpoint on it.
// Only a metadata extraction failure is returned; viewpoint failures
// leave the record out.
func (s *Scorer) AnalyzeDocument(ctx context.Context, topic string, doc model.SourceDocument, consensus string, concepts []string) (*model.AnalyzedDocument, error) {
	frontier, err := s.analyst.ExtractFrontier(ctx, topic, doc)
	if err != nil {
		return nil, err
	}

	slots := make([]*model.DeviationRecord, len(s.viewpoints))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.viewpointWorkers)
	for i, vp := range s.viewpoints {
		g.Go(func() error {
			raw, err := s.analyst.AnalyzeDeviation(gctx, DeviationRequest{
				Topic:     topic,
				Viewpoint: vp,
				Document:  *frontier,
				Consensus: consensus,
				Concepts:  concepts,
			})
			if err != nil {
				s.logger.Debug().Err(err).Str("url", frontier.URL).Str("viewpoint", vp.Name).Msg("viewpoint skipped")
				return nil
			}
			slots[i] = toRecord(vp.Name, raw)
			return nil
		})
	}
	_ = g.Wait()

	records := make([]model.DeviationRecord, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			records = append(records, *r)
		}
	}

	return &model.AnalyzedDocument{Document: *frontier, Records: records}, nil
}

func toRecord(viewpoint string, raw *RawDeviation) *model.DeviationRecord {
	return &model.DeviationRecord{
		Viewpoint:           viewpoint,
		BaselinePath:        trimAll(raw.MatchedConcepts),
		Dimensions:          trimAll(raw.Dimensions),
		Description:         raw.Description,
		Score:               NormalizeScore(raw.RawScore),
		Reasoning:           raw.Reasoning,
		InnovationPotential: raw.InnovationPotential,
	}
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type documentJob struct {
	index     int
	topic     string
	doc       model.SourceDocument
	consensus string
	concepts  []string
	scorer    *Scorer
}

func (j *documentJob) Execute(ctx context.Context) worker.Result {
	analyzed, err := j.scorer.AnalyzeDocument(ctx, j.topic, j.doc, j.consensus, j.concepts)
	return &documentResult{index: j.index, analyzed: analyzed, err: err}
}

type documentResult struct {
	index    int
	analyzed *model.AnalyzedDocument
	err      error
}

func (r *documentResult) GetError() error { return r.err }
