package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/ppiankov/gapfinder/internal/model"
)

// ArxivSource queries the arXiv export API, which answers with an Atom feed
type ArxivSource struct {
	endpoint   string
	httpClient *http.Client
	userAgent  string
	maxResults int
	parser     *gofeed.Parser
}

// NewArxivSource creates an arXiv source
func NewArxivSource(endpoint string, client *http.Client, userAgent string, maxResults int) *ArxivSource {
	if maxResults <= 0 {
		maxResults = 10
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &ArxivSource{
		endpoint:   endpoint,
		httpClient: client,
		userAgent:  userAgent,
		maxResults: maxResults,
		parser:     gofeed.NewParser(),
	}
}

// Name returns the source name
func (s *ArxivSource) Name() string { return "arxiv" }

// Retrieve runs one search. Every query term must match somewhere in the record.
func (s *ArxivSource) Retrieve(ctx context.Context, query string) ([]model.SourceDocument, error) {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return nil, nil
	}
	for i, t := range terms {
		terms[i] = "all:" + t
	}

	params := url.Values{}
	params.Set("search_query", strings.Join(terms, " AND "))
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(s.maxResults))
	params.Set("sortBy", "relevance")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, retrievalError(s.Name(), query, fmt.Errorf("create request: %w", err))
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, retrievalError(s.Name(), query, fmt.Errorf("fetch feed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, retrievalError(s.Name(), query, &StatusError{Code: resp.StatusCode, Status: resp.Status})
	}

	feed, err := s.parser.Parse(resp.Body)
	if err != nil {
		return nil, retrievalError(s.Name(), query, fmt.Errorf("parse feed: %w", err))
	}

	docs := make([]model.SourceDocument, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil || item.Link == "" {
			continue
		}
		doc := model.SourceDocument{
			Title:       collapseSpace(item.Title),
			URL:         item.Link,
			Description: collapseSpace(item.Description),
		}
		for _, a := range item.Authors {
			if a != nil && a.Name != "" {
				doc.Authors = append(doc.Authors, a.Name)
			}
		}
		if item.PublishedParsed != nil {
			doc.Year = item.PublishedParsed.Year()
		} else if item.UpdatedParsed != nil {
			doc.Year = item.UpdatedParsed.Year()
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
