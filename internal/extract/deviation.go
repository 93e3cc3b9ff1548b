package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/gapfinder/internal/cluster"
	"github.com/ppiankov/gapfinder/internal/score"
)

type deviationReply struct {
	MatchedConcepts     stringList `json:"matched_baseline_concepts"`
	Description         string     `json:"deviation_description"`
	Dimensions          stringList `json:"deviation_dimensions"`
	Score               flexString `json:"deviation_score"`
	InnovationPotential string     `json:"innovation_potential"`
	Reasoning           string     `json:"reasoning"`
}

const deviationPrompt = `Topic: %s
Your perspective: %s: %s

Paper under analysis:
%s

Established consensus: %s
Baseline concepts: %s

Compare the paper with the consensus from your perspective. Return JSON:
{"matched_baseline_concepts": ["baseline concepts most relevant to the paper, most general first"],
 "deviation_description": "how the paper departs from or extends the consensus",
 "deviation_dimensions": ["short lowercase labels such as methodology, data, theory, application"],
 "deviation_score": "0 to 10, where 0 is fully aligned and 10 is a completely new direction",
 "innovation_potential": "high, medium or low",
 "reasoning": "why you scored it this way"}`

// AnalyzeDeviation assesses one document from one viewpoint. The raw score
// is passed through for the scorer to normalize.
func (e *LLMExtractor) AnalyzeDeviation(ctx context.Context, req score.DeviationRequest) (*score.RawDeviation, error) {
	concepts := strings.Join(req.Concepts, ", ")
	if concepts == "" {
		concepts = "(none)"
	}
	prompt := fmt.Sprintf(deviationPrompt,
		req.Topic, req.Viewpoint.Name, req.Viewpoint.Description,
		req.Document.Content(), req.Consensus, concepts)

	var r deviationReply
	if err := e.askJSON(ctx, "deviation", prompt, &r); err != nil {
		return nil, err
	}
	if strings.TrimSpace(r.Description) == "" && len(r.Dimensions) == 0 {
		return nil, wrapf("deviation", "reply has neither description nor dimensions")
	}

	return &score.RawDeviation{
		MatchedConcepts:     r.MatchedConcepts,
		Dimensions:          r.Dimensions,
		Description:         strings.TrimSpace(r.Description),
		RawScore:            string(r.Score),
		Reasoning:           strings.TrimSpace(r.Reasoning),
		InnovationPotential: strings.ToLower(strings.TrimSpace(r.InnovationPotential)),
	}, nil
}

type clusterReply struct {
	Coherent        flexString `json:"is_coherent_cluster"`
	Name            string     `json:"cluster_name"`
	Reasoning       string     `json:"coherence_reasoning"`
	Dimensions      stringList `json:"innovation_dimensions"`
	Summary         string     `json:"cluster_summary"`
	PotentialImpact string     `json:"potential_impact"`
}

const clusterPrompt = `Topic: %s

These papers share a deviation pattern: Papers deviate in: %s

%s

Decide whether they form a logically coherent innovation cluster. Return JSON:
{"is_coherent_cluster": "yes or no",
 "cluster_name": "descriptive name, if coherent",
 "coherence_reasoning": "",
 "innovation_dimensions": ["key innovation dimensions"],
 "cluster_summary": "what makes this cluster innovative",
 "potential_impact": "potential impact on the field"}`

// ValidateCluster asks whether a candidate group is coherent
func (e *LLMExtractor) ValidateCluster(ctx context.Context, req cluster.ValidationRequest) (*cluster.Verdict, error) {
	var r clusterReply
	prompt := fmt.Sprintf(clusterPrompt, req.Topic, strings.Join(req.Dimensions, ", "), req.PaperGroup)
	if err := e.askJSON(ctx, "cluster validation", prompt, &r); err != nil {
		return nil, err
	}

	verdict := &cluster.Verdict{
		Coherent:        isYes(string(r.Coherent)),
		Name:            strings.TrimSpace(r.Name),
		Reasoning:       strings.TrimSpace(r.Reasoning),
		Summary:         strings.TrimSpace(r.Summary),
		PotentialImpact: strings.TrimSpace(r.PotentialImpact),
		Dimensions:      r.Dimensions,
	}
	if verdict.Coherent && verdict.Name == "" {
		verdict.Name = "Innovation in " + strings.Join(req.Dimensions, ", ")
	}
	return verdict, nil
}

func isYes(s string) bool {
	switch strings.ToLower(strings.Trim(strings.TrimSpace(s), ".!")) {
	case "yes", "true", "y":
		return true
	}
	return false
}
