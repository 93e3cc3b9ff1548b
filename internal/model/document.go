package model

// SourceDocument is one ranked hit returned by a document source
type SourceDocument struct {
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Snippets    []string `json:"snippets,omitempty"`
	Year        int      `json:"year,omitempty"`    // Publication year when the source knows it (arXiv)
	Authors     []string `json:"authors,omitempty"` // Authors when the source knows them
}

// Content returns the text handed to extraction: description plus the first snippets
func (d SourceDocument) Content() string {
	content := d.Description
	for i, s := range d.Snippets {
		if i >= 5 {
			break
		}
		content += "\n" + s
	}
	return content
}

// ReviewDocument is a survey/review paper with its extracted consensus
type ReviewDocument struct {
	Title            string        `json:"title"`
	Authors          []string      `json:"authors"`
	Year             int           `json:"year"`
	URL              string        `json:"url"` // Unique key across a run
	Abstract         string        `json:"abstract"`
	Venue            string        `json:"venue,omitempty"`
	KeyContributions []string      `json:"key_contributions"`
	Consensus        ConsensusData `json:"consensus"`
}

// ConsensusData is the structured payload extracted from one review
type ConsensusData struct {
	DevelopmentHistory string     `json:"development_history,omitempty"`
	Paradigms          []Paradigm `json:"paradigms"`
	Methods            []Method   `json:"methods"`
	Boundaries         []Boundary `json:"boundaries"`
	Concepts           []Concept  `json:"concepts"` // Ordered concept hierarchy (two levels)
}

// Concept is one entry of a review's concept hierarchy
type Concept struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Subconcepts []Concept `json:"subconcepts,omitempty"`
}

// Paradigm is a research paradigm named by a review
type Paradigm struct {
	Name                 string   `json:"name"`
	Description          string   `json:"description"`
	KeyMethods           []string `json:"key_methods,omitempty"`
	Assumptions          []string `json:"assumptions,omitempty"`
	TypicalProblems      []string `json:"typical_problems,omitempty"`
	RepresentativePapers []string `json:"representative_papers,omitempty"`
}

// Method is a mainstream method named by a review
type Method struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category,omitempty"`
	Advantages  []string `json:"advantages,omitempty"`
	Limitations []string `json:"limitations,omitempty"`
}

// Boundary is a known limit of the field along one dimension
type Boundary struct {
	Dimension     string   `json:"dimension"` // Dedup key inside a baseline
	Description   string   `json:"description"`
	KnownLimits   []string `json:"known_limits,omitempty"`
	OpenQuestions []string `json:"open_questions,omitempty"`
}

// FrontierDocument is a recent research paper analyzed against the baseline
type FrontierDocument struct {
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Year        int      `json:"year"`
	URL         string   `json:"url"` // Unique key across a run
	Abstract    string   `json:"abstract"`
	Venue       string   `json:"venue,omitempty"`
	CoreClaims  []string `json:"core_claims"`
	Methodology string   `json:"methodology,omitempty"`
	KeyFindings []string `json:"key_findings"`
}

// Content returns the text given to deviation analysis
func (d FrontierDocument) Content() string {
	content := "Title: " + d.Title + "\nAbstract: " + d.Abstract
	if d.Methodology != "" {
		content += "\nMethodology: " + d.Methodology
	}
	for _, c := range d.CoreClaims {
		content += "\nClaim: " + c
	}
	for _, f := range d.KeyFindings {
		content += "\nFinding: " + f
	}
	return content
}
