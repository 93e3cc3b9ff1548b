// Package report assembles the innovation gap report from the outputs of both
// phases and renders it as Markdown and JSON.
package report

import (
	"time"

	"github.com/ppiankov/gapfinder/internal/model"
	"github.com/ppiankov/gapfinder/internal/tree"
)

// Report is the final aggregate of a run
type Report struct {
	RunID           string                    `json:"run_id"`
	Topic           string                    `json:"topic"`
	GeneratedAt     time.Time                 `json:"generation_date"`
	BaselineSummary string                    `json:"cognitive_baseline_summary"`
	Clusters        []model.InnovationCluster `json:"identified_clusters"`
	GapAnalyses     []model.GapAnalysis       `json:"gap_analysis_by_dimension"` // First-seen dimension order
	Narrative       string                    `json:"evolution_narrative"`
	Tree            tree.ExportNode           `json:"knowledge_tree"`
	InnovationPaths [][]string                `json:"innovation_paths"`
	Recommendations string                    `json:"recommendations_for_review"`
	Statistics      model.Statistics          `json:"statistics"`
}

const (
	gapClusterDescriptions = 3
	gapOpportunities       = 5
)

// EvidenceStrength grows with the number of clusters supporting a gap
func EvidenceStrength(clusters int) float64 {
	return min(1.0, 0.2*float64(clusters)+0.3)
}

// GapAnalyses groups clusters by innovation dimension. Dimensions appear in
// the order they are first seen across the clusters.
func GapAnalyses(clusters []model.InnovationCluster) []model.GapAnalysis {
	byDim := make(map[string][]model.InnovationCluster)
	var order []string
	for _, c := range clusters {
		for _, dim := range c.Dimensions {
			if _, ok := byDim[dim]; !ok {
				order = append(order, dim)
			}
			byDim[dim] = append(byDim[dim], c)
		}
	}

	gaps := make([]model.GapAnalysis, 0, len(order))
	for _, dim := range order {
		related := byDim[dim]

		gap := model.GapAnalysis{
			Dimension:        dim,
			ClusterIDs:       make([]string, 0, len(related)),
			EvidenceStrength: EvidenceStrength(len(related)),
			Opportunities:    make([]string, 0),
		}

		desc := "Innovation identified in " + dim + "."
		for i, c := range related {
			gap.ClusterIDs = append(gap.ClusterIDs, c.ID)
			if i < gapClusterDescriptions {
				desc += " " + c.Name + ": " + c.Summary
			}
			if c.PotentialImpact != "" && len(gap.Opportunities) < gapOpportunities {
				gap.Opportunities = append(gap.Opportunities, c.PotentialImpact)
			}
		}
		gap.Description = desc

		gaps = append(gaps, gap)
	}
	return gaps
}
