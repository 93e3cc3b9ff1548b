package model

// TimeSpan is the publication-year range covered by the reviews
type TimeSpan struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// GapAnalysis summarizes the gap found along one innovation dimension
type GapAnalysis struct {
	Dimension        string   `json:"dimension"`
	Description      string   `json:"gap_description"`
	ClusterIDs       []string `json:"related_clusters"`
	EvidenceStrength float64  `json:"evidence_strength"` // min(1, 0.2*clusters + 0.3)
	Opportunities    []string `json:"potential_opportunities"`
}

// Statistics is the appendix record of a report
type Statistics struct {
	ReviewsAnalyzed        int                    `json:"reviews_analyzed"`
	ResearchPapersAnalyzed int                    `json:"research_papers_analyzed"`
	ClustersIdentified     int                    `json:"innovation_clusters_identified"`
	PapersInClusters       int                    `json:"papers_in_clusters"`
	TemporalCoverage       *TimeSpan              `json:"temporal_coverage,omitempty"`
	ParadigmsIdentified    int                    `json:"paradigms_identified"`
	MethodsIdentified      int                    `json:"methods_identified"`
	BoundariesIdentified   int                    `json:"boundaries_identified"`
	Distribution           map[Classification]int `json:"classification_distribution"`
	InnovationPaths        int                    `json:"innovation_paths"`
}
