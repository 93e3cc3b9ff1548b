package source

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/gapfinder/internal/model"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	enrichMinDescription = 200
	maxSnippets          = 5
	snippetRunes         = 500
)

// PageReader extracts the readable text of a page
type PageReader interface {
	Text(ctx context.Context, rawURL string) (*Page, error)
}

// EnrichingSource fetches landing pages for documents whose description is
// too thin to analyze and appends the page text as snippets.
type EnrichingSource struct {
	source  Source
	reader  PageReader
	workers int
	logger  *zerolog.Logger
}

// NewEnrichingSource wraps src
func NewEnrichingSource(src Source, reader PageReader, workers int, logger *zerolog.Logger) *EnrichingSource {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &EnrichingSource{source: src, reader: reader, workers: workers, logger: logger}
}

// Name returns the wrapped source name
func (s *EnrichingSource) Name() string { return s.source.Name() }

// Retrieve runs the query and enriches thin results. Fetch failures leave the document unchanged.
func (s *EnrichingSource) Retrieve(ctx context.Context, query string) ([]model.SourceDocument, error) {
	docs, err := s.source.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range docs {
		if !needsEnrichment(docs[i]) {
			continue
		}
		g.Go(func() error {
			page, err := s.reader.Text(gctx, docs[i].URL)
			if err != nil {
				s.logger.Debug().Err(err).Str("url", docs[i].URL).Msg("page enrichment failed")
				return nil
			}
			docs[i] = enrich(docs[i], page)
			return nil
		})
	}
	_ = g.Wait()

	return docs, nil
}

func needsEnrichment(d model.SourceDocument) bool {
	return len(d.Snippets) == 0 && utf8.RuneCountInString(d.Description) < enrichMinDescription
}

func enrich(d model.SourceDocument, page *Page) model.SourceDocument {
	if d.Title == "" {
		d.Title = page.Title
	}
	if len(d.Authors) == 0 && page.Byline != "" {
		d.Authors = []string{page.Byline}
	}
	d.Snippets = append(d.Snippets, Snippets(page.Text, maxSnippets, snippetRunes)...)
	return d
}

// Snippets splits text into at most limit chunks of at most size runes,
// breaking on whitespace
func Snippets(text string, limit, size int) []string {
	words := strings.Fields(text)
	var out []string
	var cur strings.Builder
	curRunes := 0
	for _, w := range words {
		n := utf8.RuneCountInString(w)
		if curRunes > 0 && curRunes+1+n > size {
			out = append(out, cur.String())
			if len(out) == limit {
				return out
			}
			cur.Reset()
			curRunes = 0
		}
		if curRunes > 0 {
			cur.WriteByte(' ')
			curRunes++
		}
		cur.WriteString(w)
		curRunes += n
	}
	if curRunes > 0 && len(out) < limit {
		out = append(out, cur.String())
	}
	return out
}
