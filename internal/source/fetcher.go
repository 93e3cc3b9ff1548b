package source

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/ppiankov/gapfinder/internal/metrics"
	"github.com/ppiankov/gapfinder/internal/util"
	"github.com/ppiankov/gapfinder/internal/worker"
)

const (
	maxFetchAttempts = 3
	fetchBaseDelay   = time.Second
	maxRedirects     = 3
)

// fetchSleepFunc is overridden in tests
var fetchSleepFunc = time.Sleep

// ErrDisallowed is returned when robots.txt forbids fetching a page
var ErrDisallowed = errors.New("disallowed by robots.txt")

// Fetcher fetches landing pages for documents
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	metrics    *metrics.Metrics
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, insecureTLS bool, httpProxy, httpsProxy, noProxy string) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(httpProxy, httpsProxy, noProxy)
	if insecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via config
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: userAgent,
		maxBytes:  maxBytes,
	}
}

// WithRobots makes Text honor robots.txt
func (f *Fetcher) WithRobots(r *util.RobotsChecker) *Fetcher {
	f.robots = r
	return f
}

// WithLimiter applies per-host rate limiting to Text
func (f *Fetcher) WithLimiter(l *worker.Limiter) *Fetcher {
	f.limiter = l
	return f
}

// WithMetrics records fetch outcomes
func (f *Fetcher) WithMetrics(m *metrics.Metrics) *Fetcher {
	f.metrics = m
	return f
}

// FetchResult contains the fetched HTML and metadata
type FetchResult struct {
	HTML        string
	ContentType string
	FinalURL    string
}

// Fetch retrieves HTML content from the given URL
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &FetchResult{
		HTML:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

// FetchWithRetry retries transient failures with exponential backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	var lastErr error
	for attempt := range maxFetchAttempts {
		if attempt > 0 {
			fetchSleepFunc(fetchBaseDelay << (attempt - 1))
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// isRetryableFetchError reports whether err is a transport failure, a 429 or a 5xx
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	var serr *StatusError
	if errors.As(err, &serr) {
		return serr.Temporary()
	}

	msg := err.Error()
	if strings.HasPrefix(msg, "fetch: ") {
		return true
	}
	if rest, ok := strings.CutPrefix(msg, "unexpected status: "); ok {
		code, convErr := strconv.Atoi(strings.SplitN(rest, " ", 2)[0])
		if convErr != nil {
			return false
		}
		return (&StatusError{Code: code}).Temporary()
	}
	return false
}

// Page is the readable text of a fetched landing page
type Page struct {
	Title  string
	Byline string
	Text   string
}

// Text fetches a page and extracts its main readable text
func (f *Fetcher) Text(ctx context.Context, rawURL string) (*Page, error) {
	var crawlDelay time.Duration
	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			f.metrics.PageFetch("error")
			return nil, err
		}
		if !allowed {
			f.metrics.PageFetch("disallowed")
			return nil, fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
		}
		crawlDelay = delay
	}
	if f.limiter != nil {
		host, err := hostOf(rawURL)
		if err != nil {
			return nil, fmt.Errorf("parse url: %w", err)
		}
		if err := f.limiter.WaitWithDelay(ctx, host, crawlDelay); err != nil {
			return nil, err
		}
	}

	result, err := f.FetchWithRetry(ctx, rawURL)
	if err != nil {
		f.metrics.PageFetch("error")
		return nil, err
	}
	if ct := strings.ToLower(result.ContentType); ct != "" && !strings.Contains(ct, "html") {
		f.metrics.PageFetch("skipped")
		return nil, fmt.Errorf("unsupported content type %q", result.ContentType)
	}

	page := extractPage(result)
	f.metrics.PageFetch("ok")
	return page, nil
}

func extractPage(result *FetchResult) *Page {
	u, _ := url.Parse(result.FinalURL)
	article, err := readability.FromReader(bytes.NewReader([]byte(result.HTML)), u)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return &Page{
			Title:  collapseSpace(article.Title),
			Byline: collapseSpace(article.Byline),
			Text:   strings.TrimSpace(article.TextContent),
		}
	}
	return &Page{Text: VisibleText(result.HTML)}
}

func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return u.Host, nil
}
