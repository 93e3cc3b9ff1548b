package cluster

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/gapfinder/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator struct {
	coherent bool
	err      error
	calls    []ValidationRequest
}

func (s *stubValidator) ValidateCluster(_ context.Context, req ValidationRequest) (*Verdict, error) {
	s.calls = append(s.calls, req)
	if s.err != nil {
		return nil, s.err
	}
	return &Verdict{
		Coherent:        s.coherent,
		Name:            "Learned message passing",
		Summary:         "papers replace fixed aggregation",
		PotentialImpact: "new architectures",
		Reasoning:       "shared methodology shift",
	}, nil
}

func analyzed(url string, dims []string, scores ...float64) model.AnalyzedDocument {
	doc := model.AnalyzedDocument{
		Document: model.FrontierDocument{
			Title:       "Paper " + url,
			URL:         url,
			Abstract:    strings.Repeat("é", 250),
			CoreClaims:  []string{"claim one", "claim two", "claim three"},
			KeyFindings: []string{"f1", "f2", "f3", "f4"},
		},
	}
	for _, s := range scores {
		doc.Records = append(doc.Records, model.DeviationRecord{
			Viewpoint:    "Methodology",
			BaselinePath: []string{"expressiveness"},
			Dimensions:   dims,
			Description:  "deviates",
			Score:        s,
		})
	}
	return doc
}

func threeDeviating() []model.AnalyzedDocument {
	return []model.AnalyzedDocument{
		analyzed("https://a", []string{"methodology"}, 0.8),
		analyzed("https://b", []string{"methodology"}, 0.75),
		analyzed("https://c", []string{"methodology"}, 0.9),
	}
}

func TestIdentify_CoherentGroup(t *testing.T) {
	v := &stubValidator{coherent: true}
	id := NewIdentifier(v, 2, 0.5, nil)

	clusters := id.Identify(context.Background(), "graph neural networks", threeDeviating())

	require.Len(t, clusters, 1)
	c := clusters[0]
	assert.Len(t, c.Members, 3)
	assert.Equal(t, Coherence, c.Coherence)
	assert.Equal(t, []string{"methodology"}, c.Aggregated.Dimensions)
	assert.Equal(t, []string{"methodology"}, c.Dimensions, "validator gave no dimensions, shared set used")
	assert.InDelta(t, (0.8+0.75+0.9)/3, c.Aggregated.Score, 1e-9)
	assert.Equal(t, "papers replace fixed aggregation", c.Aggregated.Description)
	assert.Equal(t, []string{"graph neural networks", "expressiveness"}, c.KnowledgePath)
	assert.True(t, strings.HasPrefix(c.ID, "cluster_3_"))

	require.Len(t, c.Evidence, 6, "two claims per member")
	for _, e := range c.Evidence {
		assert.Equal(t, EvidenceConfidence, e.Confidence)
		assert.Len(t, []rune(e.Excerpt), 200)
	}

	require.Len(t, v.calls, 1)
	assert.Equal(t, []string{"methodology"}, v.calls[0].Dimensions)
	assert.Contains(t, v.calls[0].PaperGroup, "1. Paper https://a\n   Key findings: f1, f2, f3")
	assert.NotContains(t, v.calls[0].PaperGroup, "f4")
}

func TestIdentify_IncoherentGroup(t *testing.T) {
	id := NewIdentifier(&stubValidator{coherent: false}, 2, 0.5, nil)
	assert.Empty(t, id.Identify(context.Background(), "t", threeDeviating()))
}

func TestIdentify_ValidatorErrorRejects(t *testing.T) {
	v := &stubValidator{err: &model.ExtractionError{Task: "cluster", Err: errors.New("garbled")}}
	id := NewIdentifier(v, 2, 0.5, nil)
	assert.Empty(t, id.Identify(context.Background(), "t", threeDeviating()))
}

func TestIdentify_InsufficientData(t *testing.T) {
	v := &stubValidator{coherent: true}
	id := NewIdentifier(v, 2, 0.5, nil)

	docs := []model.AnalyzedDocument{
		analyzed("a", []string{"x"}, 0.9),
		analyzed("b", []string{"x"}, 0.2),
		analyzed("c", nil), // no records
	}
	assert.Empty(t, id.Identify(context.Background(), "t", docs))
	assert.Empty(t, v.calls)

	_, err := id.candidates(docs)
	var insufficient *model.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 1, insufficient.Have)
	assert.ErrorIs(t, err, model.ErrInsufficientData)
}

func TestCandidates_ExactKeyAndMinSize(t *testing.T) {
	id := NewIdentifier(&stubValidator{}, 2, 0.5, nil)

	docs := []model.AnalyzedDocument{
		analyzed("a", []string{"data", "methodology"}, 0.6),
		analyzed("b", []string{"methodology"}, 0.6),
		analyzed("c", []string{"methodology", "data"}, 0.7),
		analyzed("d", []string{"methodology"}, 0.9),
		analyzed("e", []string{"theory"}, 0.9),
		analyzed("f", []string{"methodology"}, 0.4), // below threshold
	}

	groups, err := id.candidates(docs)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, []string{"data", "methodology"}, groups[0].dims)
	assert.Equal(t, []string{"methodology"}, groups[1].dims)

	for _, g := range groups {
		assert.GreaterOrEqual(t, len(g.members), 2)
		for _, m := range g.members {
			assert.Equal(t, g.dims, m.doc.Dimensions())
		}
	}
}

func TestCandidates_ThresholdInclusive(t *testing.T) {
	id := NewIdentifier(&stubValidator{}, 2, 0.5, nil)
	groups, err := id.candidates([]model.AnalyzedDocument{
		analyzed("a", []string{"x"}, 0.5),
		analyzed("b", []string{"x"}, 0.4, 0.6),
	})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].members, 2)
}

func TestClusterID_StableAcrossMemberOrder(t *testing.T) {
	assert.Equal(t, hashURLs([]string{"a", "b", "c"}), hashURLs([]string{"c", "a", "b"}))
	assert.NotEqual(t, hashURLs([]string{"ab", "c"}), hashURLs([]string{"a", "bc"}))
}

func TestInnovationCluster_JSONRoundTrip(t *testing.T) {
	id := NewIdentifier(&stubValidator{coherent: true}, 2, 0.5, nil)
	clusters := id.Identify(context.Background(), "t", threeDeviating())
	require.Len(t, clusters, 1)

	data, err := json.Marshal(clusters[0])
	require.NoError(t, err)

	var back model.InnovationCluster
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, clusters[0], back)
}
