package report

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/gapfinder/internal/annotate"
	"github.com/ppiankov/gapfinder/internal/baseline"
	"github.com/ppiankov/gapfinder/internal/model"
	"github.com/rs/zerolog"
)

const (
	summaryItems   = 5
	narrativeItems = 5
	pathSeparator  = " → "
)

// Input is everything the generator reads. It never mutates any of it.
type Input struct {
	Baseline   *baseline.Baseline
	Clusters   []model.InnovationCluster
	Analyzed   int // Frontier documents with at least one deviation record
	Annotation annotate.Result
}

// Generator assembles reports. Prose comes from the writer when one is
// configured; each section falls back to a deterministic text on failure.
type Generator struct {
	writer Writer
	logger *zerolog.Logger
	now    func() time.Time
}

// NewGenerator creates a generator; a nil writer always uses the fallbacks
func NewGenerator(writer Writer, logger *zerolog.Logger) *Generator {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Generator{writer: writer, logger: logger, now: time.Now}
}

// Generate builds the report
func (g *Generator) Generate(ctx context.Context, in Input) *Report {
	bl := in.Baseline
	clusters := in.Clusters
	if clusters == nil {
		clusters = make([]model.InnovationCluster, 0)
	}
	paths := in.Annotation.InnovationPaths
	if paths == nil {
		paths = make([][]string, 0)
	}

	summary := g.baselineSummary(ctx, bl)
	gaps := GapAnalyses(clusters)

	r := &Report{
		RunID:           uuid.NewString(),
		Topic:           bl.Topic,
		GeneratedAt:     g.now().UTC().Truncate(time.Second),
		BaselineSummary: summary,
		Clusters:        clusters,
		GapAnalyses:     gaps,
		Narrative:       g.narrative(ctx, bl.Topic, summary, clusters, paths),
		Tree:            in.Annotation.Export,
		InnovationPaths: paths,
		Recommendations: g.recommendations(ctx, bl.Topic, clusters, gaps),
		Statistics:      Statistics(bl, clusters, in.Analyzed, in.Annotation),
	}
	return r
}

// Statistics compiles the appendix record
func Statistics(bl *baseline.Baseline, clusters []model.InnovationCluster, analyzed int, res annotate.Result) model.Statistics {
	inClusters := 0
	for _, c := range clusters {
		inClusters += len(c.Members)
	}

	dist := make(map[model.Classification]int, len(model.Classifications))
	for _, c := range model.Classifications {
		dist[c] = res.Distribution[c]
	}

	stats := model.Statistics{
		ReviewsAnalyzed:        len(bl.Reviews),
		ResearchPapersAnalyzed: analyzed,
		ClustersIdentified:     len(clusters),
		PapersInClusters:       inClusters,
		ParadigmsIdentified:    len(bl.Paradigms),
		MethodsIdentified:      len(bl.Methods),
		BoundariesIdentified:   len(bl.Boundaries),
		Distribution:           dist,
		InnovationPaths:        len(res.InnovationPaths),
	}
	if bl.Span != nil {
		span := *bl.Span
		stats.TemporalCoverage = &span
	}
	return stats
}

func (g *Generator) baselineSummary(ctx context.Context, bl *baseline.Baseline) string {
	req := BaselineSummaryRequest{
		Topic:       bl.Topic,
		ReviewCount: len(bl.Reviews),
		Paradigms:   orNone(paradigmList(bl.Paradigms)),
		Methods:     orNone(methodList(bl.Methods)),
		Boundaries:  orNone(boundaryList(bl.Boundaries)),
		Span:        spanText(bl.Span),
	}
	if text, ok := g.write(ctx, "baseline summary", func(w Writer) (string, error) {
		return w.SummarizeBaseline(ctx, req)
	}); ok {
		return text
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The cognitive baseline for %s is derived from %d review papers covering %s.", bl.Topic, req.ReviewCount, req.Span)
	if len(bl.Reviews) > 0 {
		b.WriteString(" " + bl.ConsensusDigest() + ".")
	}
	return b.String()
}

func (g *Generator) narrative(ctx context.Context, topic, summary string, clusters []model.InnovationCluster, paths [][]string) string {
	req := NarrativeRequest{
		Topic:           topic,
		BaselineSummary: summary,
		Clusters:        clusterList(clusters),
		Paths:           pathList(paths),
	}
	if text, ok := g.write(ctx, "narrative", func(w Writer) (string, error) {
		return w.Narrate(ctx, req)
	}); ok {
		return text
	}

	if len(clusters) == 0 {
		return fmt.Sprintf("No coherent innovation clusters were identified for %s. Frontier work remains close to the established consensus.", topic)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Frontier research on %s departs from the established consensus in %d coherent directions:\n\n", topic, len(clusters))
	b.WriteString(req.Clusters)
	b.WriteString("\n\nPaths from consensus to innovation:\n\n")
	b.WriteString(req.Paths)
	return b.String()
}

func (g *Generator) recommendations(ctx context.Context, topic string, clusters []model.InnovationCluster, gaps []model.GapAnalysis) string {
	req := RecommendationRequest{
		Topic:    topic,
		Clusters: clusterImpactList(clusters),
		Gaps:     gapList(gaps),
	}
	if text, ok := g.write(ctx, "recommendations", func(w Writer) (string, error) {
		return w.Recommend(ctx, req)
	}); ok {
		return text
	}

	var b strings.Builder
	fmt.Fprintf(&b, "- Open the review of %s with the established consensus from the cognitive baseline.\n", topic)
	for _, gap := range gaps {
		fmt.Fprintf(&b, "- Dedicate a section to %s (evidence strength %.2f, clusters: %s).\n",
			gap.Dimension, gap.EvidenceStrength, strings.Join(gap.ClusterIDs, ", "))
	}
	for _, c := range clusters {
		if len(c.Members) > 0 {
			fmt.Fprintf(&b, "- Cite %s as the lead paper for %s.\n", c.Members[0].Title, c.Name)
		}
	}
	if len(gaps) == 0 {
		b.WriteString("- No innovation gaps were found; focus on consolidating current methods.\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// write calls the writer and reports whether it produced usable text
func (g *Generator) write(ctx context.Context, section string, call func(Writer) (string, error)) (string, bool) {
	if g.writer == nil || ctx.Err() != nil {
		return "", false
	}
	text, err := call(g.writer)
	if err != nil {
		g.logger.Warn().Err(err).Str("section", section).Msg("writer failed, using fallback text")
		return "", false
	}
	text = strings.TrimSpace(text)
	return text, text != ""
}

func paradigmList(ps []model.Paradigm) string {
	parts := make([]string, 0, summaryItems)
	for _, p := range ps[:min(summaryItems, len(ps))] {
		parts = append(parts, p.Name+": "+p.Description)
	}
	return strings.Join(parts, "; ")
}

func methodList(ms []model.Method) string {
	parts := make([]string, 0, summaryItems)
	for _, m := range ms[:min(summaryItems, len(ms))] {
		parts = append(parts, m.Name+": "+m.Description)
	}
	return strings.Join(parts, "; ")
}

func boundaryList(bs []model.Boundary) string {
	parts := make([]string, 0, len(bs))
	for _, b := range bs {
		parts = append(parts, b.Dimension+": "+b.Description)
	}
	return strings.Join(parts, "; ")
}

func spanText(span *model.TimeSpan) string {
	if span == nil {
		return "Unknown to Unknown"
	}
	return strconv.Itoa(span.From) + " to " + strconv.Itoa(span.To)
}

func clusterList(clusters []model.InnovationCluster) string {
	lines := make([]string, 0, narrativeItems)
	for i, c := range clusters[:min(narrativeItems, len(clusters))] {
		lines = append(lines, fmt.Sprintf("%d. %s (%d papers): %s", i+1, c.Name, len(c.Members), c.Summary))
	}
	return strings.Join(lines, "\n")
}

func pathList(paths [][]string) string {
	if len(paths) == 0 {
		return "No clear paths identified"
	}
	lines := make([]string, 0, narrativeItems)
	for i, p := range paths[:min(narrativeItems, len(paths))] {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, strings.Join(p, pathSeparator)))
	}
	return strings.Join(lines, "\n")
}

func clusterImpactList(clusters []model.InnovationCluster) string {
	if len(clusters) == 0 {
		return "No clusters identified"
	}
	lines := make([]string, 0, len(clusters))
	for _, c := range clusters {
		lines = append(lines, fmt.Sprintf("- %s: %s (Impact: %s)", c.Name, c.Summary, c.PotentialImpact))
	}
	return strings.Join(lines, "\n")
}

func gapList(gaps []model.GapAnalysis) string {
	if len(gaps) == 0 {
		return "No gaps identified"
	}
	lines := make([]string, 0, len(gaps))
	for _, g := range gaps {
		lines = append(lines, fmt.Sprintf("- %s: %s (Evidence strength: %.2f)", g.Dimension, g.Description, g.EvidenceStrength))
	}
	return strings.Join(lines, "\n")
}

func orNone(s string) string {
	if s == "" {
		return "None identified"
	}
	return s
}
