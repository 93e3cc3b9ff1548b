package model

import (
	"fmt"
	"slices"
	"strings"
)

// Classification labels a knowledge tree node relative to the consensus
type Classification string

const (
	Established  Classification = "established"   // Baseline consensus
	Continuation Classification = "continuation"  // Mean deviation <= 0.3
	PotentialGap Classification = "potential_gap" // Mean deviation in (0.3, 0.7]
	Deviation    Classification = "deviation"     // Mean deviation > 0.7
	Innovation   Classification = "innovation"    // Member of an accepted cluster
)

// Classifications lists every state in report order
var Classifications = []Classification{Established, Continuation, Deviation, Innovation, PotentialGap}

// Viewpoint is one analytical lens applied when scoring a document
type Viewpoint struct {
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Description string `json:"description" yaml:"description" mapstructure:"description"`
}

// DefaultViewpoints returns the standard expert panel
func DefaultViewpoints() []Viewpoint {
	return []Viewpoint{
		{Name: "Methodology", Description: "Research methods, techniques, and algorithmic approaches"},
		{Name: "Data Paradigm", Description: "Data collection, processing, and utilization patterns"},
		{Name: "Theoretical Framework", Description: "Underlying theories, models, and conceptual frameworks"},
		{Name: "Application Domain", Description: "Application scenarios, use cases, and problem domains"},
	}
}

// DeviationRecord is one viewpoint's assessment of one frontier document
type DeviationRecord struct {
	Viewpoint           string   `json:"viewpoint"`
	BaselinePath        []string `json:"baseline_path"` // Matched concept path, root excluded
	Dimensions          []string `json:"dimensions"`
	Description         string   `json:"description"`
	Score               float64  `json:"score"` // Normalized to [0,1]
	Reasoning           string   `json:"reasoning,omitempty"`
	InnovationPotential string   `json:"innovation_potential,omitempty"`
}

// DeviationMetrics is the summary attached to a classified tree node
type DeviationMetrics struct {
	Score       float64  `json:"score"`
	Dimensions  []string `json:"dimensions"`
	Description string   `json:"description"`
}

// AnalyzedDocument is a frontier document with its surviving viewpoint records
type AnalyzedDocument struct {
	Document FrontierDocument  `json:"document"`
	Records  []DeviationRecord `json:"records"` // Panel order; failed viewpoints absent
}

// ByViewpoint returns the viewpoint-name to record mapping
func (a AnalyzedDocument) ByViewpoint() map[string]DeviationRecord {
	m := make(map[string]DeviationRecord, len(a.Records))
	for _, r := range a.Records {
		m[r.Viewpoint] = r
	}
	return m
}

// MeanScore returns the mean record score; ok is false when there are no records
func (a AnalyzedDocument) MeanScore() (mean float64, ok bool) {
	if len(a.Records) == 0 {
		return 0, false
	}
	var sum float64
	for _, r := range a.Records {
		sum += r.Score
	}
	return sum / float64(len(a.Records)), true
}

// Dimensions returns the sorted, deduplicated union of record dimensions
func (a AnalyzedDocument) Dimensions() []string {
	seen := make(map[string]bool)
	dims := make([]string, 0)
	for _, r := range a.Records {
		for _, d := range r.Dimensions {
			d = strings.TrimSpace(d)
			if d == "" || seen[d] {
				continue
			}
			seen[d] = true
			dims = append(dims, d)
		}
	}
	slices.Sort(dims)
	return dims
}

// Metrics builds the node metrics for this document
func (a AnalyzedDocument) Metrics() *DeviationMetrics {
	mean, ok := a.MeanScore()
	if !ok {
		return nil
	}
	return &DeviationMetrics{
		Score:       mean,
		Dimensions:  a.Dimensions(),
		Description: a.Records[0].Description,
	}
}

// Evidence is one supporting item of an innovation cluster
type Evidence struct {
	DocumentURL   string  `json:"document_url"`
	DocumentTitle string  `json:"document_title"`
	Claim         string  `json:"claim"`
	Excerpt       string  `json:"supporting_text"`
	Confidence    float64 `json:"confidence"`
}

// InnovationCluster is a validated group of coherently deviating documents
type InnovationCluster struct {
	ID              string             `json:"cluster_id"`
	Name            string             `json:"name"`
	Members         []FrontierDocument `json:"core_papers"`
	Aggregated      DeviationRecord    `json:"deviation_analysis"`
	Coherence       float64            `json:"coherence_score"`
	Dimensions      []string           `json:"innovation_dimensions"`
	Evidence        []Evidence         `json:"evidence"`
	KnowledgePath   []string           `json:"knowledge_path"` // Topic first
	Summary         string             `json:"cluster_summary"`
	PotentialImpact string             `json:"potential_impact"`
}

// HasMember reports whether url belongs to the cluster
func (c InnovationCluster) HasMember(url string) bool {
	for _, m := range c.Members {
		if m.URL == url {
			return true
		}
	}
	return false
}

// ClusterID formats a display id from member count and url hash
func ClusterID(size int, hash uint32) string {
	return fmt.Sprintf("cluster_%d_%d", size, hash%10000)
}
