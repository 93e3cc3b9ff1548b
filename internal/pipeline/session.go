package pipeline

import (
	"context"
	"errors"
	"os"

	"github.com/ppiankov/gapfinder/internal/annotate"
	"github.com/ppiankov/gapfinder/internal/baseline"
	"github.com/ppiankov/gapfinder/internal/model"
	"github.com/ppiankov/gapfinder/internal/report"
	"github.com/ppiankov/gapfinder/internal/tree"
	"github.com/rs/zerolog"
)

// RunOptions selects which phases run. A skipped phase loads its saved output instead.
type RunOptions struct {
	SkipPhase1 bool
	SkipPhase2 bool
	SkipReport bool
}

// Phase2Results is the persisted output of phase two
type Phase2Results struct {
	Clusters        []model.InnovationCluster    `json:"innovation_clusters"`
	Analyzed        []model.AnalyzedDocument     `json:"analyzed_papers"`
	InnovationPaths [][]string                   `json:"innovation_paths"`
	Distribution    map[model.Classification]int `json:"classification_distribution"`
	Tree            tree.ExportNode              `json:"knowledge_tree"`
}

// Session holds the state of one topic run. It is not safe for concurrent use.
type Session struct {
	topic      string
	components Components
	store      *Store
	logger     *zerolog.Logger

	baseline *baseline.Baseline
	phase2   *Phase2Results
	report   *report.Report
}

// Baseline returns the phase one result, nil before it ran or loaded
func (s *Session) Baseline() *baseline.Baseline { return s.baseline }

// Phase2 returns the phase two result, nil before it ran or loaded
func (s *Session) Phase2() *Phase2Results { return s.phase2 }

// Report returns the generated report, nil before generation
func (s *Session) Report() *report.Report { return s.report }

// RunPhase1 builds and saves the cognitive baseline
func (s *Session) RunPhase1(ctx context.Context) (*baseline.Baseline, error) {
	s.logger.Info().Str("topic", s.topic).Msg("phase 1: cognitive baseline construction")
	done := s.components.Metrics.ObservePhase("phase1")
	bl := s.components.Builder.Construct(ctx, s.topic)
	done()

	s.baseline = bl
	s.phase2 = nil
	s.report = nil
	if err := s.store.SaveBaseline(bl); err != nil {
		return nil, err
	}
	return bl, nil
}

// RunPhase2 scores frontier research against the baseline, clusters it and
// annotates a copy of the baseline tree
func (s *Session) RunPhase2(ctx context.Context) (*Phase2Results, error) {
	if s.baseline == nil {
		return nil, &model.SequenceError{Phase: "phase 2", Missing: "phase 1"}
	}
	s.logger.Info().Str("topic", s.topic).Msg("phase 2: innovative non-self identification")
	done := s.components.Metrics.ObservePhase("phase2")
	defer done()

	bl := s.baseline
	exclude := make([]string, 0, len(bl.Reviews))
	for _, r := range bl.Reviews {
		exclude = append(exclude, r.URL)
	}

	docs, err := s.components.Frontier.RetrieveFrontier(ctx, s.topic, s.components.TopKResearch, exclude)
	if err != nil {
		s.logger.Warn().Err(err).Str("topic", s.topic).Msg("frontier retrieval failed, continuing with empty set")
		docs = nil
	}
	s.logger.Info().Int("count", len(docs)).Msg("retrieved frontier papers")

	analyzed := s.components.Scorer.Analyze(ctx, s.topic, docs, bl)
	clusters := s.components.Identifier.Identify(ctx, s.topic, analyzed)
	if clusters == nil {
		clusters = make([]model.InnovationCluster, 0)
	}

	// Annotate a copy so the saved baseline stays consensus-only
	working, err := tree.FromExport(bl.Tree.Export())
	if err != nil {
		return nil, err
	}
	res := annotate.Annotate(working, analyzed, clusters, s.logger)

	dist := make(map[string]int, len(res.Distribution))
	for c, n := range res.Distribution {
		dist[string(c)] = n
	}
	s.components.Metrics.SetDistribution(dist)

	s.phase2 = &Phase2Results{
		Clusters:        clusters,
		Analyzed:        analyzed,
		InnovationPaths: res.InnovationPaths,
		Distribution:    res.Distribution,
		Tree:            res.Export,
	}
	s.report = nil
	s.logger.Info().
		Int("analyzed", len(analyzed)).
		Int("clusters", len(clusters)).
		Int("innovation_paths", len(res.InnovationPaths)).
		Msg("phase 2 complete")

	if err := s.store.SavePhase2(s.phase2); err != nil {
		return nil, err
	}
	return s.phase2, nil
}

// GenerateReport assembles and saves the report
func (s *Session) GenerateReport(ctx context.Context) (*report.Report, error) {
	if s.baseline == nil {
		return nil, &model.SequenceError{Phase: "report", Missing: "phase 1"}
	}
	if s.phase2 == nil {
		return nil, &model.SequenceError{Phase: "report", Missing: "phase 2"}
	}
	s.logger.Info().Str("topic", s.topic).Msg("generating innovation gap report")
	done := s.components.Metrics.ObservePhase("report")
	defer done()

	r := s.components.Generator.Generate(ctx, report.Input{
		Baseline: s.baseline,
		Clusters: s.phase2.Clusters,
		Analyzed: len(s.phase2.Analyzed),
		Annotation: annotate.Result{
			InnovationPaths: s.phase2.InnovationPaths,
			Distribution:    s.phase2.Distribution,
			Export:          s.phase2.Tree,
		},
	})
	if err := s.store.SaveReport(r); err != nil {
		return nil, err
	}
	s.report = r
	return r, nil
}

// Run executes the selected phases in order. Skipped phases load their saved
// output; a missing file is logged and the next phase reports the gap.
func (s *Session) Run(ctx context.Context, opts RunOptions) (*report.Report, error) {
	if opts.SkipPhase1 {
		s.logger.Info().Msg("skipping phase 1, loading saved baseline")
		bl, err := s.store.LoadBaseline()
		switch {
		case errors.Is(err, os.ErrNotExist):
			s.logger.Warn().Str("dir", s.store.Dir()).Msg("saved baseline not found")
		case err != nil:
			return nil, err
		default:
			s.baseline = bl
		}
	} else if _, err := s.RunPhase1(ctx); err != nil {
		return nil, err
	}

	if opts.SkipPhase2 {
		s.logger.Info().Msg("skipping phase 2, loading saved results")
		p2, err := s.store.LoadPhase2()
		switch {
		case errors.Is(err, os.ErrNotExist):
			s.logger.Warn().Str("dir", s.store.Dir()).Msg("saved phase 2 results not found")
		case err != nil:
			return nil, err
		default:
			s.phase2 = p2
		}
	} else if _, err := s.RunPhase2(ctx); err != nil {
		return nil, err
	}

	if opts.SkipReport {
		return s.report, nil
	}
	return s.GenerateReport(ctx)
}
