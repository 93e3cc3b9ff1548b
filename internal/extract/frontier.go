package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/gapfinder/internal/model"
)

type frontierReply struct {
	Year        flexString `json:"year"`
	Authors     stringList `json:"authors"`
	Venue       string     `json:"venue"`
	CoreClaims  stringList `json:"core_claims"`
	Methodology string     `json:"methodology"`
	KeyFindings stringList `json:"key_findings"`
}

const frontierPrompt = `Extract structured metadata from this research paper.

Title: %s
URL: %s
Abstract and excerpts:
%s

Return JSON:
{"year": "publication year, estimate if not stated",
 "authors": ["author names, or empty if unknown"],
 "venue": "conference or journal, or Unknown",
 "core_claims": ["core claims made by the paper"],
 "methodology": "brief description of the methodology",
 "key_findings": ["key findings"]}`

const maxHeuristicSentences = 3

// ExtractFrontier extracts metadata, claims and findings for one frontier
// document. Empty claim or finding lists are filled from the abstract.
func (e *LLMExtractor) ExtractFrontier(ctx context.Context, topic string, doc model.SourceDocument) (*model.FrontierDocument, error) {
	var r frontierReply
	if err := e.askJSON(ctx, "frontier", fmt.Sprintf(frontierPrompt, doc.Title, doc.URL, doc.Content()), &r); err != nil {
		return nil, err
	}

	out := &model.FrontierDocument{
		Title:       doc.Title,
		Authors:     orDefault(r.Authors, doc.Authors),
		Year:        parseYear(string(r.Year), e.fallbackYear(doc)),
		URL:         doc.URL,
		Abstract:    doc.Description,
		Venue:       cleanVenue(r.Venue),
		CoreClaims:  r.CoreClaims,
		Methodology: strings.TrimSpace(r.Methodology),
		KeyFindings: r.KeyFindings,
	}
	if len(out.CoreClaims) == 0 {
		out.CoreClaims = ClaimSentences(doc.Content(), maxHeuristicSentences)
	}
	if len(out.KeyFindings) == 0 {
		out.KeyFindings = FindingSentences(doc.Content(), maxHeuristicSentences)
	}

	e.logger.Debug().Str("url", doc.URL).Str("topic", topic).Int("claims", len(out.CoreClaims)).Msg("frontier document extracted")
	return out, nil
}
