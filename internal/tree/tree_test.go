package tree

import (
	"encoding/json"
	"testing"

	"github.com/ppiankov/gapfinder/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RootOnly(t *testing.T) {
	tr := New("graph neural networks")

	root, ok := tr.Node(tr.Root())
	require.True(t, ok)
	assert.Equal(t, "graph neural networks", root.Name)
	assert.Equal(t, model.Established, root.Classification)
	assert.Equal(t, NoParent, root.Parent)
	assert.Empty(t, root.Children)
	assert.Equal(t, 1, tr.Len())
}

func TestFindOrCreatePath_Idempotent(t *testing.T) {
	tr := New("topic")

	first := tr.FindOrCreatePath(tr.Root(), []string{"Expressiveness", "WL test"})
	second := tr.FindOrCreatePath(tr.Root(), []string{"Expressiveness", "WL test"})

	assert.Equal(t, first, second)
	assert.Equal(t, 3, tr.Len())
}

func TestFindOrCreatePath_CaseInsensitive(t *testing.T) {
	tr := New("topic")

	a := tr.FindOrCreatePath(tr.Root(), []string{"Message Passing"})
	b := tr.FindOrCreatePath(tr.Root(), []string{"message passing"})
	c := tr.FindOrCreatePath(tr.Root(), []string{"MESSAGE PASSING"})

	assert.Equal(t, a, b)
	assert.Equal(t, a, c)

	n, _ := tr.Node(a)
	assert.Equal(t, "Message Passing", n.Name, "first spelling wins")
}

func TestFindOrCreatePath_CreatesEstablishedIntermediates(t *testing.T) {
	tr := New("topic")

	leaf := tr.FindOrCreatePath(tr.Root(), []string{"a", "b", "c"})

	assert.Equal(t, []string{"topic", "a", "b", "c"}, tr.Path(leaf))
	for n := range tr.All() {
		assert.Equal(t, model.Established, n.Classification)
		assert.Nil(t, n.Metrics)
		assert.Empty(t, n.Sources)
	}
}

func TestFindOrCreatePath_EmptyReturnsStart(t *testing.T) {
	tr := New("topic")
	assert.Equal(t, tr.Root(), tr.FindOrCreatePath(tr.Root(), nil))
}

func TestAttachDocument_LeavesSiblingsUntouched(t *testing.T) {
	tr := New("topic")
	concept := tr.FindOrCreatePath(tr.Root(), []string{"concept"})
	sibling := tr.AttachDocument(concept, "https://a", model.Deviation, &model.DeviationMetrics{Score: 0.9, Dimensions: []string{"methodology"}}, "Paper A")
	before, _ := tr.Node(sibling)

	leaf := tr.AttachDocument(concept, "https://b", model.Continuation, &model.DeviationMetrics{Score: 0.1}, "Paper B")

	after, _ := tr.Node(sibling)
	assert.Equal(t, before, after)

	n, _ := tr.Node(leaf)
	assert.Equal(t, model.Continuation, n.Classification)
	assert.Equal(t, []string{"https://b"}, n.Sources)
	assert.Equal(t, concept, n.Parent)

	parent, _ := tr.Node(concept)
	assert.Equal(t, []NodeID{sibling, leaf}, parent.Children)
}

func TestAddSource_IgnoresDuplicates(t *testing.T) {
	tr := New("topic")
	tr.AddSource(tr.Root(), "r1")
	tr.AddSource(tr.Root(), "r1")
	tr.AddSource(tr.Root(), "r2")

	root, _ := tr.Node(tr.Root())
	assert.ElementsMatch(t, []string{"r1", "r2"}, root.Sources)
}

func TestAll_PreOrderAndRestartable(t *testing.T) {
	tr := New("root")
	a := tr.AddChild(tr.Root(), "a", "", model.Established)
	tr.AddChild(a, "a1", "", model.Established)
	tr.AddChild(a, "a2", "", model.Established)
	tr.AddChild(tr.Root(), "b", "", model.Established)

	collect := func() []string {
		var names []string
		for n := range tr.All() {
			names = append(names, n.Name)
		}
		return names
	}

	want := []string{"root", "a", "a1", "a2", "b"}
	assert.Equal(t, want, collect())
	assert.Equal(t, want, collect(), "second traversal sees the same nodes")
	assert.Equal(t, 5, tr.Len())
}

func TestAll_EarlyStop(t *testing.T) {
	tr := New("root")
	tr.AddChild(tr.Root(), "a", "", model.Established)
	tr.AddChild(tr.Root(), "b", "", model.Established)

	count := 0
	for range tr.All() {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestDescendants_Depth(t *testing.T) {
	tr := New("root")
	a := tr.AddChild(tr.Root(), "a", "", model.Established)
	tr.AddChild(a, "a1", "", model.Established)

	depths := map[string]int{}
	for d, n := range tr.Descendants(tr.Root()) {
		depths[n.Name] = d
	}
	assert.Equal(t, map[string]int{"root": 0, "a": 1, "a1": 2}, depths)
}

func TestDistribution_AllStatesPresent(t *testing.T) {
	tr := New("root")
	c := tr.FindOrCreatePath(tr.Root(), []string{"c"})
	tr.AttachDocument(c, "d1", model.Innovation, nil, "d1")

	dist := tr.Distribution()
	assert.Len(t, dist, 5)
	assert.Equal(t, 2, dist[model.Established])
	assert.Equal(t, 1, dist[model.Innovation])
	assert.Equal(t, 0, dist[model.PotentialGap])
}

func TestJSON_RoundTrip(t *testing.T) {
	tr := New("topic")
	tr.AddSource(tr.Root(), "r1")
	c := tr.AddChild(tr.Root(), "concept", "a description", model.Established)
	tr.AddSource(c, "r1")
	tr.AddSource(c, "r2")
	tr.AttachDocument(c, "https://x", model.PotentialGap, &model.DeviationMetrics{
		Score:       0.5,
		Dimensions:  []string{"data"},
		Description: "uses new data",
	}, "Paper X")

	data, err := json.Marshal(tr)
	require.NoError(t, err)

	var back Tree
	require.NoError(t, json.Unmarshal(data, &back))

	assert.Equal(t, tr.Export(), back.Export())
	assert.Equal(t, tr.Distribution(), back.Distribution())

	// the rebuilt tree is fully usable
	again := back.FindOrCreatePath(back.Root(), []string{"CONCEPT"})
	orig, _ := back.FindChild(back.Root(), "concept")
	assert.Equal(t, orig, again)
}

func TestFromExport_RequiresRoot(t *testing.T) {
	_, err := FromExport(ExportNode{})
	assert.Error(t, err)
}
