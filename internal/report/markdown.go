package report

import (
	"fmt"
	"strings"

	"github.com/ppiankov/gapfinder/internal/model"
)

const clusterPapersShown = 5

// Markdown renders the report. Section order is fixed.
func Markdown(r *Report) string {
	var b strings.Builder
	s := r.Statistics

	fmt.Fprintf(&b, "# Innovation Gap Report: %s\n", r.Topic)
	fmt.Fprintf(&b, "\n**Generated:** %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))
	if r.RunID != "" {
		fmt.Fprintf(&b, "**Run ID:** %s\n\n", r.RunID)
	}
	b.WriteString("---\n")

	b.WriteString("## Executive Summary\n")
	fmt.Fprintf(&b, "This report identifies %d innovation clusters based on analysis of %d research papers, "+
		"contextualized against a cognitive baseline derived from %d review papers.\n",
		s.ClustersIdentified, s.ResearchPapersAnalyzed, s.ReviewsAnalyzed)

	b.WriteString("\n## Part I: Cognitive Baseline\n")
	b.WriteString(r.BaselineSummary)
	b.WriteString("\n")

	b.WriteString("\n## Part II: Identified Innovation Clusters\n")
	if len(r.Clusters) == 0 {
		b.WriteString("\nNo innovation clusters were identified.\n")
	}
	for i, c := range r.Clusters {
		writeCluster(&b, i+1, c)
	}

	b.WriteString("\n## Part III: Gap Analysis by Dimension\n")
	if len(r.GapAnalyses) == 0 {
		b.WriteString("\nNo gaps identified.\n")
	}
	for _, gap := range r.GapAnalyses {
		fmt.Fprintf(&b, "\n### %s\n", gap.Dimension)
		fmt.Fprintf(&b, "**Evidence Strength:** %.2f\n\n", gap.EvidenceStrength)
		fmt.Fprintf(&b, "**Gap Description:** %s\n\n", gap.Description)
		fmt.Fprintf(&b, "**Related Clusters:** %s\n\n", strings.Join(gap.ClusterIDs, ", "))
		if len(gap.Opportunities) > 0 {
			b.WriteString("**Research Opportunities:**\n")
			for _, o := range gap.Opportunities {
				fmt.Fprintf(&b, "- %s\n", o)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("\n## Part IV: Knowledge Evolution Narrative\n")
	b.WriteString(r.Narrative)
	b.WriteString("\n")

	b.WriteString("\n## Part V: Knowledge Tree Distribution\n")
	b.WriteString("**Classification Distribution:**\n")
	for _, c := range model.Classifications {
		fmt.Fprintf(&b, "- %s: %d\n", c, s.Distribution[c])
	}
	if len(r.InnovationPaths) > 0 {
		b.WriteString("\n**Innovation Paths:**\n")
		for _, p := range r.InnovationPaths {
			fmt.Fprintf(&b, "- %s\n", strings.Join(p, pathSeparator))
		}
	}
	b.WriteString("\n")

	b.WriteString("\n## Part VI: Recommendations for Review Generation\n")
	b.WriteString(r.Recommendations)
	b.WriteString("\n")

	b.WriteString("\n## Appendix: Statistics\n")
	writeStat(&b, "reviews_analyzed", s.ReviewsAnalyzed)
	writeStat(&b, "research_papers_analyzed", s.ResearchPapersAnalyzed)
	writeStat(&b, "innovation_clusters_identified", s.ClustersIdentified)
	writeStat(&b, "papers_in_clusters", s.PapersInClusters)
	if s.TemporalCoverage != nil {
		writeStat(&b, "temporal_coverage", fmt.Sprintf("%d to %d", s.TemporalCoverage.From, s.TemporalCoverage.To))
	} else {
		writeStat(&b, "temporal_coverage", "unknown")
	}
	writeStat(&b, "paradigms_identified", s.ParadigmsIdentified)
	writeStat(&b, "methods_identified", s.MethodsIdentified)
	writeStat(&b, "boundaries_identified", s.BoundariesIdentified)
	writeStat(&b, "innovation_paths", s.InnovationPaths)

	return b.String()
}

func writeCluster(b *strings.Builder, n int, c model.InnovationCluster) {
	fmt.Fprintf(b, "\n### %d. %s\n", n, c.Name)
	fmt.Fprintf(b, "**Cluster ID:** %s\n\n", c.ID)
	fmt.Fprintf(b, "**Summary:** %s\n\n", c.Summary)
	fmt.Fprintf(b, "**Core Papers:** %d\n", len(c.Members))
	for j, p := range c.Members[:min(clusterPapersShown, len(c.Members))] {
		fmt.Fprintf(b, "  %d. %s (%d)\n", j+1, p.Title, p.Year)
	}
	if extra := len(c.Members) - clusterPapersShown; extra > 0 {
		fmt.Fprintf(b, "  ... and %d more\n", extra)
	}
	fmt.Fprintf(b, "\n**Innovation Dimensions:** %s\n\n", strings.Join(c.Dimensions, ", "))
	fmt.Fprintf(b, "**Internal Coherence Score:** %.2f\n\n", c.Coherence)
	fmt.Fprintf(b, "**Deviation from Consensus:** %s\n\n", c.Aggregated.Description)
	fmt.Fprintf(b, "**Potential Impact:** %s\n\n", c.PotentialImpact)
}

func writeStat(b *strings.Builder, key string, value any) {
	fmt.Fprintf(b, "- **%s:** %v\n", key, value)
}
