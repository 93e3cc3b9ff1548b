// Package tree implements the knowledge tree: an arena of concept nodes
// addressed by NodeID, each holding a non-owning parent index.
package tree

import (
	"iter"
	"slices"

	"github.com/ppiankov/gapfinder/internal/model"
	"golang.org/x/text/cases"
)

// NodeID addresses a node inside its Tree
type NodeID int

// NoParent is the parent index of the root
const NoParent NodeID = -1

// Node is a read-only snapshot of a tree node
type Node struct {
	ID             NodeID
	Name           string
	Summary        string
	Classification model.Classification
	Metrics        *model.DeviationMetrics
	Sources        []string
	Parent         NodeID
	Children       []NodeID
}

type node struct {
	name           string
	summary        string
	classification model.Classification
	metrics        *model.DeviationMetrics
	sources        []string
	sourceSet      map[string]struct{}
	parent         NodeID
	children       []NodeID
}

// Tree is a rooted knowledge tree. It is not safe for concurrent mutation.
type Tree struct {
	nodes []*node
	fold  cases.Caser
}

// New creates a tree with a single established root
func New(rootName string) *Tree {
	t := &Tree{fold: cases.Fold()}
	t.nodes = append(t.nodes, newNode(rootName, "", model.Established, NoParent))
	return t
}

func newNode(name, summary string, c model.Classification, parent NodeID) *node {
	return &node{
		name:           name,
		summary:        summary,
		classification: c,
		sourceSet:      make(map[string]struct{}),
		parent:         parent,
	}
}

// Root returns the root id
func (t *Tree) Root() NodeID { return 0 }

// Len returns the number of nodes
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns a snapshot of the node with the given id
func (t *Tree) Node(id NodeID) (Node, bool) {
	if !t.valid(id) {
		return Node{}, false
	}
	return t.snapshot(id), true
}

func (t *Tree) snapshot(id NodeID) Node {
	n := t.nodes[id]
	var metrics *model.DeviationMetrics
	if n.metrics != nil {
		m := *n.metrics
		m.Dimensions = slices.Clone(n.metrics.Dimensions)
		metrics = &m
	}
	return Node{
		ID:             id,
		Name:           n.name,
		Summary:        n.summary,
		Classification: n.classification,
		Metrics:        metrics,
		Sources:        slices.Clone(n.sources),
		Parent:         n.parent,
		Children:       slices.Clone(n.children),
	}
}

func (t *Tree) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

// FindChild returns the child of parent whose name matches case-insensitively
func (t *Tree) FindChild(parent NodeID, name string) (NodeID, bool) {
	if !t.valid(parent) {
		return 0, false
	}
	key := t.fold.String(name)
	for _, c := range t.nodes[parent].children {
		if t.fold.String(t.nodes[c].name) == key {
			return c, true
		}
	}
	return 0, false
}

// AddChild appends a new child under parent without name matching
func (t *Tree) AddChild(parent NodeID, name, summary string, c model.Classification) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, newNode(name, summary, c, parent))
	t.nodes[parent].children = append(t.nodes[parent].children, id)
	return id
}

// AddSource records a source document on a node; duplicates are ignored
func (t *Tree) AddSource(id NodeID, docID string) {
	n := t.nodes[id]
	if _, ok := n.sourceSet[docID]; ok {
		return
	}
	n.sourceSet[docID] = struct{}{}
	n.sources = append(n.sources, docID)
}

// FindOrCreatePath walks names from the given node, matching children
// case-insensitively and creating established nodes where none match.
// It returns the last node of the path, or from when names is empty.
func (t *Tree) FindOrCreatePath(from NodeID, names []string) NodeID {
	cur := from
	for _, name := range names {
		if next, ok := t.FindChild(cur, name); ok {
			cur = next
			continue
		}
		cur = t.AddChild(cur, name, "", model.Established)
	}
	return cur
}

// AttachDocument adds a leaf under at representing one document's contribution
func (t *Tree) AttachDocument(at NodeID, docID string, c model.Classification, metrics *model.DeviationMetrics, label string) NodeID {
	id := t.AddChild(at, label, "", c)
	if metrics != nil {
		m := *metrics
		m.Dimensions = slices.Clone(metrics.Dimensions)
		t.nodes[id].metrics = &m
		t.nodes[id].summary = metrics.Description
	}
	t.AddSource(id, docID)
	return id
}

// All yields every node in depth-first pre-order
func (t *Tree) All() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, n := range t.Descendants(t.Root()) {
			if !yield(n) {
				return
			}
		}
	}
}

// Descendants yields from and its subtree in depth-first pre-order,
// paired with the depth relative to from.
func (t *Tree) Descendants(from NodeID) iter.Seq2[int, Node] {
	return func(yield func(int, Node) bool) {
		if !t.valid(from) {
			return
		}
		type frame struct {
			id    NodeID
			depth int
		}
		stack := []frame{{id: from}}
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(f.depth, t.snapshot(f.id)) {
				return
			}
			children := t.nodes[f.id].children
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, frame{id: children[i], depth: f.depth + 1})
			}
		}
	}
}

// Path returns the names from the root down to id, inclusive
func (t *Tree) Path(id NodeID) []string {
	var path []string
	for cur := id; t.valid(cur); cur = t.nodes[cur].parent {
		path = append(path, t.nodes[cur].name)
	}
	slices.Reverse(path)
	return path
}

// Distribution counts nodes per classification; every state is present
func (t *Tree) Distribution() map[model.Classification]int {
	dist := make(map[model.Classification]int, len(model.Classifications))
	for _, c := range model.Classifications {
		dist[c] = 0
	}
	for _, n := range t.nodes {
		dist[n.classification]++
	}
	return dist
}
