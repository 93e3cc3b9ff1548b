package source

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/gapfinder/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func urlsOf(docs []model.SourceDocument) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.URL
	}
	return out
}

func TestRetrieveReviews_FiltersAndRanks(t *testing.T) {
	topic := "graph neural networks"
	stub := &stubSource{name: "s", docs: map[string][]model.SourceDocument{
		topic + " survey": {
			{URL: "plain", Title: "Message passing tricks", Description: "short"},
			{URL: "survey", Title: "Graph Neural Networks: A Survey", Description: "d"},
		},
		topic + " review": {
			{URL: "survey", Title: "duplicate"},
			{URL: "review", Title: "A review of message passing", Description: "d"},
			{URL: "long", Title: "Deep dive", Description: strings.Repeat("y", 201)},
		},
	}}

	docs, err := NewRetriever(stub, 2, nil).RetrieveReviews(context.Background(), topic, 10)
	require.NoError(t, err)

	// survey: 10+5+0.01, long: 2.01, review: 5.01
	assert.Equal(t, []string{"survey", "review", "long"}, urlsOf(docs))
	assert.Equal(t, "Graph Neural Networks: A Survey", docs[0].Title)
	assert.ElementsMatch(t, ReviewQueries(topic), stub.calls)
}

func TestRetrieveReviews_TopK(t *testing.T) {
	stub := &stubSource{name: "s", docs: map[string][]model.SourceDocument{
		"t survey": {{URL: "1", Title: "survey 1"}, {URL: "2", Title: "survey 2"}, {URL: "3", Title: "survey 3"}},
	}}
	docs, err := NewRetriever(stub, 1, nil).RetrieveReviews(context.Background(), "t", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, urlsOf(docs))
}

func TestRetrieveReviews_AllQueriesFail(t *testing.T) {
	stub := &stubSource{name: "s", err: &model.RetrievalError{Source: "s", Query: "q", Err: errors.New("down")}}
	_, err := NewRetriever(stub, 2, nil).RetrieveReviews(context.Background(), "t", 5)

	var rerr *model.RetrievalError
	assert.ErrorAs(t, err, &rerr)
}

func TestRetrieveFrontier_RecencyAndExclusions(t *testing.T) {
	stub := &stubSource{name: "s", docs: map[string][]model.SourceDocument{
		"gnn": {
			{URL: "old", Title: "Graph convolution", Description: "published 2019"},
			{URL: "recent", Title: "A novel sparse GNN", Description: "results from 2026"},
			{URL: "survey", Title: "GNN survey 2026"},
			{URL: "used", Title: "Latest GNN", Description: "2026"},
			{URL: "dated", Title: "Graph attention", Year: 2025},
		},
	}}
	r := NewRetriever(stub, 3, nil)
	r.now = func() time.Time { return time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC) }

	docs, err := r.RetrieveFrontier(context.Background(), "gnn", 10, []string{"used/"})
	require.NoError(t, err)

	// recent: 12+1, dated: 10, old: 0
	assert.Equal(t, []string{"recent", "dated", "old"}, urlsOf(docs))
}

func TestRecency(t *testing.T) {
	d := model.SourceDocument{Title: "Emerging methods", Description: "In 2024 and 2025 we saw new work"}
	// 2025: 10, 2024: 8, emerging + new: 2
	assert.InDelta(t, 20.0, recency(d, 2026), 1e-9)
}
