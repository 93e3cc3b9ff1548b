// Package baseline aggregates extracted review papers into the cognitive
// baseline: the consensus knowledge tree plus paradigm, method and boundary
// collections for a topic.
package baseline

import (
	"strings"

	"github.com/ppiankov/gapfinder/internal/model"
	"github.com/ppiankov/gapfinder/internal/tree"
)

const (
	digestItems  = 3  // Entries per collection in the consensus digest
	conceptDepth = 2  // Max depth below each top-level concept
	conceptLimit = 20 // Max concept names handed to deviation analysis
)

// Baseline is the aggregate output of phase one
type Baseline struct {
	Topic      string                 `json:"topic"`
	Reviews    []model.ReviewDocument `json:"review_papers"`
	Tree       *tree.Tree             `json:"consensus_map"`
	Paradigms  []model.Paradigm       `json:"research_paradigms"`
	Methods    []model.Method         `json:"mainstream_methods"`
	Boundaries []model.Boundary       `json:"knowledge_boundaries"` // Unique by dimension
	Span       *model.TimeSpan        `json:"temporal_coverage,omitempty"`
}

// Build aggregates reviews into a baseline. It never fails: no reviews
// yields a root-only tree, empty collections and no span.
func Build(topic string, reviews []model.ReviewDocument) *Baseline {
	b := &Baseline{
		Topic:      topic,
		Reviews:    make([]model.ReviewDocument, 0, len(reviews)),
		Tree:       tree.New(topic),
		Paradigms:  make([]model.Paradigm, 0),
		Methods:    make([]model.Method, 0),
		Boundaries: make([]model.Boundary, 0),
	}

	root := b.Tree.Root()
	boundaryAt := make(map[string]int)

	for _, r := range reviews {
		b.Reviews = append(b.Reviews, r)
		b.Tree.AddSource(root, r.URL)

		for _, c := range r.Consensus.Concepts {
			id := mergeConcept(b.Tree, root, c, r.URL)
			for _, sub := range c.Subconcepts {
				mergeConcept(b.Tree, id, sub, r.URL)
			}
		}

		b.Paradigms = append(b.Paradigms, r.Consensus.Paradigms...)
		b.Methods = append(b.Methods, r.Consensus.Methods...)

		for _, bd := range r.Consensus.Boundaries {
			if i, ok := boundaryAt[bd.Dimension]; ok {
				b.Boundaries[i] = bd
				continue
			}
			boundaryAt[bd.Dimension] = len(b.Boundaries)
			b.Boundaries = append(b.Boundaries, bd)
		}

		if r.Year == 0 {
			continue
		}
		if b.Span == nil {
			b.Span = &model.TimeSpan{From: r.Year, To: r.Year}
			continue
		}
		b.Span.From = min(b.Span.From, r.Year)
		b.Span.To = max(b.Span.To, r.Year)
	}

	return b
}

// mergeConcept finds a case-insensitive sibling or creates one, then records the source
func mergeConcept(t *tree.Tree, parent tree.NodeID, c model.Concept, source string) tree.NodeID {
	id, ok := t.FindChild(parent, c.Name)
	if !ok {
		id = t.AddChild(parent, c.Name, c.Description, model.Established)
	}
	t.AddSource(id, source)
	return id
}

// ConsensusDigest summarizes the top paradigms, methods and boundaries
func (b *Baseline) ConsensusDigest() string {
	var parts []string

	if len(b.Paradigms) > 0 {
		var names []string
		for _, p := range b.Paradigms[:min(digestItems, len(b.Paradigms))] {
			names = append(names, p.Name)
		}
		parts = append(parts, "Established paradigms: "+strings.Join(names, ", "))
	}

	if len(b.Methods) > 0 {
		var names []string
		for _, m := range b.Methods[:min(digestItems, len(b.Methods))] {
			names = append(names, m.Name)
		}
		parts = append(parts, "Mainstream methods: "+strings.Join(names, ", "))
	}

	if len(b.Boundaries) > 0 {
		var dims []string
		for _, bd := range b.Boundaries[:min(digestItems, len(b.Boundaries))] {
			dims = append(dims, bd.Dimension)
		}
		parts = append(parts, "Known boundaries: "+strings.Join(dims, ", "))
	}

	if len(parts) == 0 {
		return "No consensus established yet."
	}
	return strings.Join(parts, ". ")
}

// ConceptNames lists concept names in pre-order starting at each top-level
// concept, down to two levels below it, capped at twenty entries.
func (b *Baseline) ConceptNames() []string {
	names := make([]string, 0, conceptLimit)
	root, _ := b.Tree.Node(b.Tree.Root())
	for _, top := range root.Children {
		for depth, n := range b.Tree.Descendants(top) {
			if len(names) == conceptLimit {
				return names
			}
			if depth > conceptDepth {
				continue
			}
			names = append(names, n.Name)
		}
	}
	return names
}
