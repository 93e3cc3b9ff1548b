package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/gapfinder/internal/cache"
	"github.com/ppiankov/gapfinder/internal/metrics"
	"github.com/ppiankov/gapfinder/internal/worker"
	"github.com/rs/zerolog"
)

// ErrDisabled is returned by a Client without a provider
var ErrDisabled = errors.New("llm: no provider configured")

// Client wraps a Provider with reply caching and per-provider rate limiting.
// It is safe for concurrent use.
type Client struct {
	provider Provider
	cache    cache.Cache
	limiter  *worker.Limiter
	ttl      time.Duration
	metrics  *metrics.Metrics
	logger   *zerolog.Logger
	retries  int
}

// retrySleep waits between attempts; tests replace it
var retrySleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithCache stores replies in c for ttl
func WithCache(c cache.Cache, ttl time.Duration) ClientOption {
	return func(cl *Client) {
		cl.cache = c
		cl.ttl = ttl
	}
}

// WithLimiter throttles requests keyed by provider name
func WithLimiter(l *worker.Limiter) ClientOption {
	return func(cl *Client) { cl.limiter = l }
}

// WithMetrics records request counts and latency
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(cl *Client) { cl.metrics = m }
}

// WithRetries sets how often a transient provider failure is retried
func WithRetries(n int) ClientOption {
	return func(cl *Client) { cl.retries = max(n, 0) }
}

// WithLogger sets the logger
func WithLogger(l *zerolog.Logger) ClientOption {
	return func(cl *Client) { cl.logger = l }
}

// NewClient creates a client. provider may be nil, in which case every call
// returns ErrDisabled.
func NewClient(provider Provider, opts ...ClientOption) *Client {
	nop := zerolog.Nop()
	c := &Client{
		provider: provider,
		cache:    cache.Nop{},
		logger:   &nop,
		retries:  2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether a provider is configured
func (c *Client) Enabled() bool {
	return c != nil && c.provider != nil
}

// ProviderName returns the provider name, or "none"
func (c *Client) ProviderName() string {
	if !c.Enabled() {
		return "none"
	}
	return c.provider.Name()
}

// Ask returns the reply text for req, serving identical requests from cache
func (c *Client) Ask(ctx context.Context, req CompletionRequest) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	name := c.provider.Name()

	key := cache.Key("llm", name, req.Model, req.System, req.Prompt)
	if data, ok := c.cache.Get(key); ok {
		c.metrics.CacheLookup("llm", true)
		return string(data), nil
	}
	c.metrics.CacheLookup("llm", false)

	var (
		resp    *CompletionResponse
		err     error
		elapsed time.Duration
	)
	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx, name); err != nil {
				return "", fmt.Errorf("rate limit wait: %w", err)
			}
		}

		start := time.Now()
		resp, err = c.provider.Complete(ctx, req)
		elapsed = time.Since(start)
		if err == nil {
			break
		}
		c.metrics.LLMRequest(name, elapsed, 0, err)
		if attempt >= c.retries || !IsTransient(err) {
			return "", err
		}

		backoff := time.Duration(1<<attempt) * 2 * time.Second
		c.logger.Warn().Err(err).Str("provider", name).Int("attempt", attempt+1).Dur("backoff", backoff).Msg("transient llm error, retrying")
		if err := retrySleep(ctx, backoff); err != nil {
			return "", err
		}
	}
	c.metrics.LLMRequest(name, elapsed, resp.TokensUsed, nil)

	c.logger.Debug().
		Str("provider", name).
		Str("model", resp.Model).
		Int("tokens", resp.TokensUsed).
		Dur("elapsed", elapsed).
		Msg("llm completion")

	if err := c.cache.Set(key, []byte(resp.Text), c.ttl); err != nil {
		c.logger.Warn().Err(err).Msg("cache llm reply")
	}
	return resp.Text, nil
}
