package source

import (
	"context"
	"errors"
	"strings"

	"github.com/ppiankov/gapfinder/internal/model"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// MultiSource queries several sources concurrently and merges their results
// in source order. A failing source is skipped unless every source fails.
type MultiSource struct {
	sources []Source
	logger  *zerolog.Logger
}

// NewMultiSource combines sources
func NewMultiSource(logger *zerolog.Logger, sources ...Source) *MultiSource {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &MultiSource{sources: sources, logger: logger}
}

// Name lists the combined source names
func (m *MultiSource) Name() string {
	names := make([]string, len(m.sources))
	for i, s := range m.sources {
		names[i] = s.Name()
	}
	return strings.Join(names, "+")
}

// Retrieve fans the query out to every source
func (m *MultiSource) Retrieve(ctx context.Context, query string) ([]model.SourceDocument, error) {
	if len(m.sources) == 0 {
		return nil, retrievalError("none", query, errors.New("no sources configured"))
	}

	results := make([][]model.SourceDocument, len(m.sources))
	errs := make([]error, len(m.sources))

	var g errgroup.Group
	for i, s := range m.sources {
		g.Go(func() error {
			results[i], errs[i] = s.Retrieve(ctx, query)
			return nil
		})
	}
	_ = g.Wait()

	var failed []error
	for i, err := range errs {
		if err != nil {
			m.logger.Warn().Err(err).Str("source", m.sources[i].Name()).Str("query", query).Msg("source failed")
			failed = append(failed, err)
		}
	}
	if len(failed) == len(m.sources) {
		return nil, retrievalError(m.Name(), query, errors.Join(failed...))
	}

	return Dedup(results...), nil
}

// Dedup concatenates result lists, keeping the first document per URL
func Dedup(lists ...[]model.SourceDocument) []model.SourceDocument {
	seen := make(map[string]bool)
	var out []model.SourceDocument
	for _, list := range lists {
		for _, d := range list {
			key := strings.TrimRight(d.URL, "/")
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, d)
		}
	}
	return out
}
