package source

import (
	"context"
	"time"

	"github.com/ppiankov/gapfinder/internal/cache"
	"github.com/ppiankov/gapfinder/internal/metrics"
	"github.com/ppiankov/gapfinder/internal/model"
	"github.com/ppiankov/gapfinder/internal/worker"
)

const searchNamespace = "search"

// CachedSource adds caching, rate limiting and metrics around a source
type CachedSource struct {
	source  Source
	cache   cache.Cache
	ttl     time.Duration
	limiter *worker.Limiter
	metrics *metrics.Metrics
}

// NewCachedSource wraps src; nil cache and limiter disable those layers
func NewCachedSource(src Source, c cache.Cache, ttl time.Duration, limiter *worker.Limiter, m *metrics.Metrics) *CachedSource {
	if c == nil {
		c = cache.Nop{}
	}
	return &CachedSource{source: src, cache: c, ttl: ttl, limiter: limiter, metrics: m}
}

// Name returns the wrapped source name
func (s *CachedSource) Name() string { return s.source.Name() }

// Retrieve serves repeated queries from the cache
func (s *CachedSource) Retrieve(ctx context.Context, query string) ([]model.SourceDocument, error) {
	key := cache.Key(searchNamespace, s.source.Name(), query)

	var docs []model.SourceDocument
	if cache.GetJSON(s.cache, key, &docs) {
		s.metrics.CacheLookup(searchNamespace, true)
		return docs, nil
	}
	s.metrics.CacheLookup(searchNamespace, false)

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, s.source.Name()); err != nil {
			return nil, retrievalError(s.source.Name(), query, err)
		}
	}

	docs, err := s.source.Retrieve(ctx, query)
	if err != nil {
		return nil, retrievalError(s.source.Name(), query, err)
	}
	s.metrics.Retrieved(s.source.Name(), len(docs))

	_ = cache.SetJSON(s.cache, key, docs, s.ttl)
	return docs, nil
}
