// Package metrics counts pipeline work for one CLI invocation and can dump
// the result as a node_exporter textfile.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors for one run. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	LLMRequests        *prometheus.CounterVec
	LLMTokens          *prometheus.CounterVec
	LLMRequestDuration *prometheus.HistogramVec
	CacheLookups       *prometheus.CounterVec
	DocumentsRetrieved *prometheus.CounterVec
	PageFetches        *prometheus.CounterVec
	PhaseDuration      *prometheus.HistogramVec
	Classifications    *prometheus.GaugeVec
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		LLMRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gapfinder_llm_requests_total",
			Help: "LLM completions by provider and outcome",
		}, []string{"provider", "outcome"}),

		LLMTokens: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gapfinder_llm_tokens_total",
			Help: "Tokens reported by the provider",
		}, []string{"provider"}),

		LLMRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gapfinder_llm_request_duration_seconds",
			Help:    "Duration of LLM requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gapfinder_cache_lookups_total",
			Help: "Cache lookups by namespace and result",
		}, []string{"namespace", "result"}),

		DocumentsRetrieved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gapfinder_documents_retrieved_total",
			Help: "Search results returned per source",
		}, []string{"source"}),

		PageFetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gapfinder_page_fetches_total",
			Help: "Page enrichment fetches by outcome",
		}, []string{"outcome"}),

		PhaseDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gapfinder_phase_duration_seconds",
			Help:    "Wall time per pipeline phase",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"phase"}),

		Classifications: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gapfinder_tree_nodes",
			Help: "Knowledge tree nodes by classification after the last analysis",
		}, []string{"classification"}),
	}
}

// LLMRequest records one completion attempt
func (m *Metrics) LLMRequest(provider string, d time.Duration, tokens int, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.LLMRequests.WithLabelValues(provider, outcome).Inc()
	m.LLMRequestDuration.WithLabelValues(provider).Observe(d.Seconds())
	if tokens > 0 {
		m.LLMTokens.WithLabelValues(provider).Add(float64(tokens))
	}
}

// CacheLookup records a hit or miss
func (m *Metrics) CacheLookup(namespace string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(namespace, result).Inc()
}

// Retrieved adds n documents for source
func (m *Metrics) Retrieved(source string, n int) {
	if m == nil {
		return
	}
	m.DocumentsRetrieved.WithLabelValues(source).Add(float64(n))
}

// PageFetch records a page enrichment outcome such as "ok", "robots", "error"
func (m *Metrics) PageFetch(outcome string) {
	if m == nil {
		return
	}
	m.PageFetches.WithLabelValues(outcome).Inc()
}

// ObservePhase returns a func that records the phase duration when called
func (m *Metrics) ObservePhase(phase string) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.PhaseDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
	}
}

// SetDistribution replaces the classification gauges
func (m *Metrics) SetDistribution(dist map[string]int) {
	if m == nil {
		return
	}
	for k, v := range dist {
		m.Classifications.WithLabelValues(k).Set(float64(v))
	}
}

// Gatherer exposes the registry, mainly for tests
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes all metrics in the Prometheus text format.
// An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
