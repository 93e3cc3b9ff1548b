package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/araddon/dateparse"
	"github.com/ppiankov/gapfinder/internal/model"
)

// TavilySource queries the Tavily web search API
type TavilySource struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	maxResults int
}

type tavilyRequest struct {
	Query             string `json:"query"`
	MaxResults        int    `json:"max_results"`
	SearchDepth       string `json:"search_depth"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

type tavilyResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	RawContent    string  `json:"raw_content"`
	PublishedDate string  `json:"published_date"`
	Score         float64 `json:"score"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

const rawSnippetRunes = 1000

// NewTavilySource creates a Tavily source; an API key is required
func NewTavilySource(endpoint, apiKey string, client *http.Client, maxResults int) (*TavilySource, error) {
	if apiKey == "" {
		return nil, errors.New("tavily API key is required")
	}
	if maxResults <= 0 {
		maxResults = 10
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &TavilySource{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: client,
		maxResults: maxResults,
	}, nil
}

// Name returns the source name
func (s *TavilySource) Name() string { return "tavily" }

// Retrieve runs one search
func (s *TavilySource) Retrieve(ctx context.Context, query string) ([]model.SourceDocument, error) {
	body, err := json.Marshal(tavilyRequest{
		Query:             query,
		MaxResults:        s.maxResults,
		SearchDepth:       "advanced",
		IncludeRawContent: true,
	})
	if err != nil {
		return nil, retrievalError(s.Name(), query, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, retrievalError(s.Name(), query, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, retrievalError(s.Name(), query, fmt.Errorf("execute request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retrievalError(s.Name(), query, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, retrievalError(s.Name(), query, &StatusError{Code: resp.StatusCode, Status: resp.Status})
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, retrievalError(s.Name(), query, fmt.Errorf("unmarshal response: %w", err))
	}

	docs := make([]model.SourceDocument, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.URL == "" {
			continue
		}
		doc := model.SourceDocument{
			Title:       collapseSpace(r.Title),
			URL:         r.URL,
			Description: collapseSpace(r.Content),
		}
		if raw := collapseSpace(r.RawContent); raw != "" {
			doc.Snippets = []string{truncateRunes(raw, rawSnippetRunes)}
		}
		if r.PublishedDate != "" {
			if t, err := dateparse.ParseAny(r.PublishedDate); err == nil {
				doc.Year = t.Year()
			}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
