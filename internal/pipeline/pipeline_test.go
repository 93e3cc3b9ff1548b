package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/ppiankov/gapfinder/internal/baseline"
	"github.com/ppiankov/gapfinder/internal/cluster"
	"github.com/ppiankov/gapfinder/internal/model"
	"github.com/ppiankov/gapfinder/internal/report"
	"github.com/ppiankov/gapfinder/internal/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResearch struct {
	reviews  []model.SourceDocument
	frontier []model.SourceDocument
	coherent bool

	reviewCalls atomic.Int32
	gotExclude  []string
}

func (f *fakeResearch) RetrieveReviews(context.Context, string, int) ([]model.SourceDocument, error) {
	f.reviewCalls.Add(1)
	return f.reviews, nil
}

func (f *fakeResearch) RetrieveFrontier(_ context.Context, _ string, _ int, exclude []string) ([]model.SourceDocument, error) {
	f.gotExclude = exclude
	return f.frontier, nil
}

func (f *fakeResearch) ExtractReview(_ context.Context, _ string, doc model.SourceDocument) (*model.ReviewDocument, error) {
	return &model.ReviewDocument{
		Title: doc.Title,
		URL:   doc.URL,
		Year:  doc.Year,
		Consensus: model.ConsensusData{
			Paradigms: []model.Paradigm{{Name: "Message passing", Description: "local aggregation"}},
			Concepts:  []model.Concept{{Name: "Expressiveness", Subconcepts: []model.Concept{{Name: "WL test"}}}},
		},
	}, nil
}

func (f *fakeResearch) ExtractFrontier(_ context.Context, _ string, doc model.SourceDocument) (*model.FrontierDocument, error) {
	return &model.FrontierDocument{
		Title:      doc.Title,
		URL:        doc.URL,
		Year:       2025,
		CoreClaims: []string{"beyond 1-WL"},
	}, nil
}

func (f *fakeResearch) AnalyzeDeviation(context.Context, score.DeviationRequest) (*score.RawDeviation, error) {
	return &score.RawDeviation{
		MatchedConcepts: []string{"expressiveness"},
		Dimensions:      []string{"methodology"},
		Description:     "uses higher-order structure",
		RawScore:        "8",
	}, nil
}

func (f *fakeResearch) ValidateCluster(context.Context, cluster.ValidationRequest) (*cluster.Verdict, error) {
	return &cluster.Verdict{Coherent: f.coherent, Name: "Higher-order GNNs", Summary: "k-WL inspired models"}, nil
}

func newFake() *fakeResearch {
	return &fakeResearch{
		reviews: []model.SourceDocument{
			{Title: "GNN survey", URL: "https://r1", Year: 2019},
			{Title: "GNN review", URL: "https://r2", Year: 2022},
		},
		frontier: []model.SourceDocument{
			{Title: "Paper A", URL: "https://p1"},
			{Title: "Paper B", URL: "https://p2"},
			{Title: "Paper C", URL: "https://p3"},
		},
		coherent: true,
	}
}

func newTestPipeline(f *fakeResearch, dir string) *Pipeline {
	return New(Components{
		Builder:      baseline.NewBuilder(f, f, 10, nil),
		Frontier:     f,
		Scorer:       score.NewScorer(f, nil, 2, 2, nil),
		Identifier:   cluster.NewIdentifier(f, 2, 0.5, nil),
		Generator:    report.NewGenerator(nil, nil),
		TopKResearch: 30,
	}, dir, nil)
}

func TestSession_FullRun(t *testing.T) {
	dir := t.TempDir()
	f := newFake()
	s := newTestPipeline(f, dir).Session("graph neural networks", dir)

	r, err := s.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://r1", "https://r2"}, f.gotExclude)
	require.Len(t, r.Clusters, 1)
	assert.Len(t, r.Clusters[0].Members, 3)
	assert.Equal(t, 2, r.Statistics.ReviewsAnalyzed)
	assert.Equal(t, 3, r.Statistics.ResearchPapersAnalyzed)
	assert.Equal(t, 3, r.Statistics.Distribution[model.Innovation])
	assert.Len(t, r.InnovationPaths, 3)
	assert.Equal(t, []string{"graph neural networks", "Expressiveness", "Paper A"}, r.InnovationPaths[0])

	for _, name := range []string{BaselineFile, Phase2File, ReportJSONFile, ReportMarkdownFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	// The saved baseline is consensus-only
	saved, err := NewStore(dir).LoadBaseline()
	require.NoError(t, err)
	assert.Equal(t, 0, saved.Tree.Distribution()[model.Innovation])
	assert.Equal(t, 3, saved.Tree.Len())
	assert.Equal(t, 0, s.Baseline().Tree.Distribution()[model.Innovation])
}

func TestSession_RunPhase2Twice(t *testing.T) {
	dir := t.TempDir()
	s := newTestPipeline(newFake(), dir).Session("gnn", dir)
	ctx := context.Background()

	_, err := s.RunPhase1(ctx)
	require.NoError(t, err)
	first, err := s.RunPhase2(ctx)
	require.NoError(t, err)
	second, err := s.RunPhase2(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.Distribution, second.Distribution)
	assert.Equal(t, first.Tree, second.Tree)
}

func TestSession_SequenceErrors(t *testing.T) {
	dir := t.TempDir()
	s := newTestPipeline(newFake(), dir).Session("gnn", dir)
	ctx := context.Background()

	_, err := s.RunPhase2(ctx)
	var seq *model.SequenceError
	require.ErrorAs(t, err, &seq)
	assert.Equal(t, "phase 2", seq.Phase)
	assert.True(t, errors.Is(err, model.ErrSequence))

	_, err = s.GenerateReport(ctx)
	require.ErrorAs(t, err, &seq)
	assert.Equal(t, "phase 1", seq.Missing)

	_, err = s.RunPhase1(ctx)
	require.NoError(t, err)

	_, err = s.GenerateReport(ctx)
	require.ErrorAs(t, err, &seq)
	assert.Equal(t, "report", seq.Phase)
	assert.Equal(t, "phase 2", seq.Missing)
}

func TestSession_SkipPhasesLoadsSavedState(t *testing.T) {
	dir := t.TempDir()
	_, err := newTestPipeline(newFake(), dir).Session("gnn", dir).Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	f := newFake()
	f.coherent = false
	s := newTestPipeline(f, dir).Session("gnn", dir)
	r, err := s.Run(context.Background(), RunOptions{SkipPhase1: true, SkipPhase2: true})
	require.NoError(t, err)

	assert.Zero(t, f.reviewCalls.Load())
	assert.Nil(t, f.gotExclude)
	require.Len(t, r.Clusters, 1)
	assert.Equal(t, "Higher-order GNNs", r.Clusters[0].Name)
	assert.Equal(t, 2, r.Statistics.ReviewsAnalyzed)
	assert.Equal(t, 3, r.Statistics.ResearchPapersAnalyzed)

	loaded, err := NewStore(dir).LoadReport()
	require.NoError(t, err)
	assert.Equal(t, r.RunID, loaded.RunID)
}

func TestSession_SkipWithoutSavedState(t *testing.T) {
	dir := t.TempDir()
	s := newTestPipeline(newFake(), dir).Session("gnn", dir)

	_, err := s.Run(context.Background(), RunOptions{SkipPhase1: true})

	var seq *model.SequenceError
	require.ErrorAs(t, err, &seq)
	assert.Equal(t, "phase 2", seq.Phase)
}

func TestSession_EmptyRetrievalStillReports(t *testing.T) {
	dir := t.TempDir()
	f := &fakeResearch{coherent: true}
	r, err := newTestPipeline(f, dir).Session("obscure topic", dir).Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Empty(t, r.Clusters)
	assert.Equal(t, 0, r.Statistics.ReviewsAnalyzed)
	assert.Equal(t, 1, r.Statistics.Distribution[model.Established])

	md, err := os.ReadFile(filepath.Join(dir, ReportMarkdownFile))
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Innovation Gap Report: obscure topic")
}

func TestStore_BaselineRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := newTestPipeline(newFake(), dir).Session("gnn", dir)
	bl, err := s.RunPhase1(context.Background())
	require.NoError(t, err)

	loaded, err := NewStore(dir).LoadBaseline()
	require.NoError(t, err)

	assert.Equal(t, bl.Topic, loaded.Topic)
	assert.Equal(t, bl.Reviews, loaded.Reviews)
	assert.Equal(t, bl.Paradigms, loaded.Paradigms)
	assert.Equal(t, bl.Boundaries, loaded.Boundaries)
	assert.Equal(t, bl.Span, loaded.Span)
	assert.Equal(t, bl.Tree.Export(), loaded.Tree.Export())
}

func TestStore_MissingFile(t *testing.T) {
	_, err := NewStore(t.TempDir()).LoadPhase2()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunTopic(t *testing.T) {
	dir := t.TempDir()
	out, err := newTestPipeline(newFake(), dir).RunTopic(context.Background(), "Graph Neural Networks")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "graph-neural-networks"), out)
	_, err = os.Stat(filepath.Join(out, ReportJSONFile))
	assert.NoError(t, err)
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Graph Neural Networks":       "graph-neural-networks",
		"  LLM / agents: 2025?  ":     "llm-agents-2025",
		"Quantenmechanik für Anfänger": "quantenmechanik-für-anfänger",
		"???":                         "topic",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slug(in), in)
	}
}
