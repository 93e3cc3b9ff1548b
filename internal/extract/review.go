package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/gapfinder/internal/model"
)

type metadataReply struct {
	Year             flexString `json:"year"`
	Authors          stringList `json:"authors"`
	Venue            string     `json:"venue"`
	KeyContributions stringList `json:"key_contributions"`
}

type paradigmReply struct {
	Name                 string     `json:"name"`
	Description          string     `json:"description"`
	KeyMethods           stringList `json:"key_methods"`
	Assumptions          stringList `json:"assumptions"`
	TypicalProblems      stringList `json:"typical_problems"`
	RepresentativePapers stringList `json:"representative_papers"`
}

type methodReply struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Advantages  stringList `json:"advantages"`
	Limitations stringList `json:"limitations"`
}

type boundaryReply struct {
	Dimension     string     `json:"dimension"`
	Description   string     `json:"description"`
	KnownLimits   stringList `json:"known_limits"`
	OpenQuestions stringList `json:"open_questions"`
}

type consensusReply struct {
	DevelopmentHistory string          `json:"development_history"`
	Paradigms          []paradigmReply `json:"research_paradigms"`
	Methods            []methodReply   `json:"mainstream_methods"`
	Boundaries         []boundaryReply `json:"knowledge_boundaries"`
	Concepts           conceptTree     `json:"key_concepts_hierarchy"`
}

const reviewMetadataPrompt = `Extract bibliographic metadata from this review paper.

Title: %s
URL: %s
Abstract:
%s

Return JSON:
{"year": "publication year, estimate if not stated",
 "authors": ["author names, or empty if unknown"],
 "venue": "conference or journal, or Unknown",
 "key_contributions": ["contributions stated in the abstract"]}`

const consensusPrompt = `Topic: %s
Review paper: %s

Content (abstract and excerpts):
%s

Extract the consensus knowledge this review establishes for the topic. Return JSON:
{"development_history": "brief history of the field with key milestones and approximate years",
 "research_paradigms": [{"name": "", "description": "", "key_methods": [], "assumptions": [], "typical_problems": [], "representative_papers": []}],
 "mainstream_methods": [{"name": "", "description": "", "category": "", "advantages": [], "limitations": []}],
 "knowledge_boundaries": [{"dimension": "", "description": "", "known_limits": [], "open_questions": []}],
 "key_concepts_hierarchy": {"Concept name": {"description": "", "subconcepts": [{"name": "", "description": ""}]}}}
List concepts from most to least central.`

// ExtractReview extracts metadata and consensus from one review. Metadata
// problems fall back to what the source knows; an unusable consensus reply
// fails the review.
func (e *LLMExtractor) ExtractReview(ctx context.Context, topic string, doc model.SourceDocument) (*model.ReviewDocument, error) {
	review := &model.ReviewDocument{
		Title:    doc.Title,
		URL:      doc.URL,
		Abstract: doc.Description,
		Authors:  doc.Authors,
		Year:     e.fallbackYear(doc),
	}

	var meta metadataReply
	if err := e.askJSON(ctx, "review metadata", fmt.Sprintf(reviewMetadataPrompt, doc.Title, doc.URL, doc.Description), &meta); err != nil {
		e.logger.Warn().Err(err).Str("url", doc.URL).Msg("review metadata unavailable, using source fields")
	} else {
		review.Year = parseYear(string(meta.Year), review.Year)
		review.Authors = orDefault(meta.Authors, doc.Authors)
		review.Venue = cleanVenue(meta.Venue)
		review.KeyContributions = meta.KeyContributions
	}

	var cons consensusReply
	if err := e.askJSON(ctx, "review consensus", fmt.Sprintf(consensusPrompt, topic, doc.Title, doc.Content()), &cons); err != nil {
		return nil, err
	}
	review.Consensus = cons.toModel()

	e.logger.Debug().
		Str("url", doc.URL).
		Int("paradigms", len(review.Consensus.Paradigms)).
		Int("methods", len(review.Consensus.Methods)).
		Int("concepts", len(review.Consensus.Concepts)).
		Msg("review extracted")

	return review, nil
}

func (c consensusReply) toModel() model.ConsensusData {
	out := model.ConsensusData{
		DevelopmentHistory: strings.TrimSpace(c.DevelopmentHistory),
		Concepts:           []model.Concept(c.Concepts),
	}
	for _, p := range c.Paradigms {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		out.Paradigms = append(out.Paradigms, model.Paradigm{
			Name:                 strings.TrimSpace(p.Name),
			Description:          p.Description,
			KeyMethods:           p.KeyMethods,
			Assumptions:          p.Assumptions,
			TypicalProblems:      p.TypicalProblems,
			RepresentativePapers: p.RepresentativePapers,
		})
	}
	for _, m := range c.Methods {
		if strings.TrimSpace(m.Name) == "" {
			continue
		}
		out.Methods = append(out.Methods, model.Method{
			Name:        strings.TrimSpace(m.Name),
			Description: m.Description,
			Category:    m.Category,
			Advantages:  m.Advantages,
			Limitations: m.Limitations,
		})
	}
	for _, b := range c.Boundaries {
		dim := strings.TrimSpace(b.Dimension)
		if dim == "" {
			dim = "Unknown"
		}
		out.Boundaries = append(out.Boundaries, model.Boundary{
			Dimension:     dim,
			Description:   b.Description,
			KnownLimits:   b.KnownLimits,
			OpenQuestions: b.OpenQuestions,
		})
	}
	return out
}
