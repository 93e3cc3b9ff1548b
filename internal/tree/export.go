package tree

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/ppiankov/gapfinder/internal/model"
)

// ExportNode is the nested form of a tree, used for rendering and persistence
type ExportNode struct {
	Name           string                  `json:"name"`
	Summary        string                  `json:"summary,omitempty"`
	Classification model.Classification    `json:"classification"`
	Metrics        *model.DeviationMetrics `json:"deviation_metrics,omitempty"`
	Sources        []string                `json:"source_documents"`
	Children       []ExportNode            `json:"children"`
}

// Export returns the whole tree as a nested record
func (t *Tree) Export() ExportNode {
	return t.export(t.Root())
}

func (t *Tree) export(id NodeID) ExportNode {
	snap := t.snapshot(id)
	out := ExportNode{
		Name:           snap.Name,
		Summary:        snap.Summary,
		Classification: snap.Classification,
		Metrics:        snap.Metrics,
		Sources:        snap.Sources,
		Children:       make([]ExportNode, 0, len(snap.Children)),
	}
	if out.Sources == nil {
		out.Sources = []string{}
	}
	for _, c := range snap.Children {
		out.Children = append(out.Children, t.export(c))
	}
	return out
}

// FromExport rebuilds a tree from its nested record
func FromExport(root ExportNode) (*Tree, error) {
	if root.Name == "" {
		return nil, fmt.Errorf("tree export has no root name")
	}
	t := New(root.Name)
	t.fill(t.Root(), root)
	return t, nil
}

func (t *Tree) fill(id NodeID, e ExportNode) {
	n := t.nodes[id]
	n.summary = e.Summary
	if e.Classification != "" {
		n.classification = e.Classification
	}
	if e.Metrics != nil {
		m := *e.Metrics
		m.Dimensions = slices.Clone(e.Metrics.Dimensions)
		n.metrics = &m
	}
	for _, s := range e.Sources {
		t.AddSource(id, s)
	}
	for _, c := range e.Children {
		child := t.AddChild(id, c.Name, "", model.Established)
		t.fill(child, c)
	}
}

// MarshalJSON encodes the tree as its nested export
func (t *Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Export())
}

// UnmarshalJSON decodes a nested export into the tree
func (t *Tree) UnmarshalJSON(data []byte) error {
	var root ExportNode
	if err := json.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("decode tree: %w", err)
	}
	rebuilt, err := FromExport(root)
	if err != nil {
		return err
	}
	*t = *rebuilt
	return nil
}
