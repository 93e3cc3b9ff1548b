// Package annotate classifies analyzed documents and attaches them to the
// knowledge tree. Classification is computed first as a pure plan over an
// immutable snapshot of the inputs, then applied to the tree in one pass.
package annotate

import (
	"github.com/ppiankov/gapfinder/internal/model"
	"github.com/ppiankov/gapfinder/internal/tree"
	"github.com/rs/zerolog"
)

const (
	continuationMax = 0.3
	potentialGapMax = 0.7
	labelRunes      = 50
)

// Classify derives a document's state from its mean score and cluster
// membership. Membership overrides every score-derived state.
func Classify(mean float64, inCluster bool) model.Classification {
	switch {
	case inCluster:
		return model.Innovation
	case mean <= continuationMax:
		return model.Continuation
	case mean <= potentialGapMax:
		return model.PotentialGap
	default:
		return model.Deviation
	}
}

// Placement is one planned document attachment
type Placement struct {
	URL            string
	Label          string
	Path           []string
	Classification model.Classification
	Metrics        model.DeviationMetrics
}

// Result summarizes an annotation pass
type Result struct {
	Placements      []Placement
	InnovationPaths [][]string
	Distribution    map[model.Classification]int
	Export          tree.ExportNode
}

// Plan classifies every document with at least one record. It does not touch the tree.
func Plan(docs []model.AnalyzedDocument, clusters []model.InnovationCluster, logger *zerolog.Logger) []Placement {
	members := make(map[string]bool)
	for _, c := range clusters {
		for _, m := range c.Members {
			members[m.URL] = true
		}
	}

	plan := make([]Placement, 0, len(docs))
	for _, d := range docs {
		metrics := d.Metrics()
		if metrics == nil {
			if logger != nil {
				logger.Debug().Str("url", d.Document.URL).Msg("no surviving viewpoint records, not annotated")
			}
			continue
		}
		plan = append(plan, Placement{
			URL:            d.Document.URL,
			Label:          Label(d.Document.Title),
			Path:           d.Records[0].BaselinePath,
			Classification: Classify(metrics.Score, members[d.Document.URL]),
			Metrics:        *metrics,
		})
	}
	return plan
}

// Apply attaches planned documents under their matched concept paths
func Apply(t *tree.Tree, plan []Placement) {
	for _, p := range plan {
		at := t.FindOrCreatePath(t.Root(), p.Path)
		metrics := p.Metrics
		t.AttachDocument(at, p.URL, p.Classification, &metrics, p.Label)
	}
}

// Annotate plans, applies and summarizes in one call
func Annotate(t *tree.Tree, docs []model.AnalyzedDocument, clusters []model.InnovationCluster, logger *zerolog.Logger) Result {
	plan := Plan(docs, clusters, logger)
	Apply(t, plan)
	return Result{
		Placements:      plan,
		InnovationPaths: InnovationPaths(t),
		Distribution:    t.Distribution(),
		Export:          t.Export(),
	}
}

// InnovationPaths returns root-to-node names for every innovation node, in pre-order
func InnovationPaths(t *tree.Tree) [][]string {
	paths := make([][]string, 0)
	for n := range t.All() {
		if n.Classification == model.Innovation {
			paths = append(paths, t.Path(n.ID))
		}
	}
	return paths
}

// Label truncates a title for use as a node name
func Label(title string) string {
	r := []rune(title)
	if len(r) <= labelRunes {
		return title
	}
	return string(r[:labelRunes]) + "..."
}
