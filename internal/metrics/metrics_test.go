package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLLMRequest(t *testing.T) {
	m := New()

	m.LLMRequest("openai", time.Second, 120, nil)
	m.LLMRequest("openai", time.Second, 0, errors.New("boom"))

	families, err := m.Gatherer().Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				key := f.GetName()
				for _, l := range metric.GetLabel() {
					key += "," + l.GetValue()
				}
				values[key] = c.GetValue()
			}
		}
	}
	// labels are gathered in name order: outcome, provider
	assert.Equal(t, 1.0, values["gapfinder_llm_requests_total,ok,openai"])
	assert.Equal(t, 1.0, values["gapfinder_llm_requests_total,error,openai"])
	assert.Equal(t, 120.0, values["gapfinder_llm_tokens_total,openai"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	m.LLMRequest("x", 0, 1, nil)
	m.CacheLookup("llm", true)
	m.Retrieved("arxiv", 3)
	m.PageFetch("ok")
	m.SetDistribution(map[string]int{"innovation": 1})
	m.ObservePhase("phase1")()
	assert.NoError(t, m.WriteTextfile("/nonexistent/path.prom"))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Retrieved("arxiv", 7)
	m.CacheLookup("search", false)
	m.SetDistribution(map[string]int{"innovation": 2})
	m.ObservePhase("phase1")()

	path := filepath.Join(t.TempDir(), "gapfinder.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.Contains(out, `gapfinder_documents_retrieved_total{source="arxiv"} 7`), out)
	assert.Contains(t, out, `gapfinder_tree_nodes{classification="innovation"} 2`)
	assert.Contains(t, out, "gapfinder_phase_duration_seconds_count")

	assert.NoError(t, m.WriteTextfile(""))
}
