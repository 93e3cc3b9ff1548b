// Package source retrieves ranked documents for search queries and turns a
// topic into the review and frontier document sets the pipeline analyzes.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ppiankov/gapfinder/internal/model"
)

// Source returns ranked documents for one query
type Source interface {
	Name() string
	Retrieve(ctx context.Context, query string) ([]model.SourceDocument, error)
}

// StatusError is an unexpected HTTP status from a remote service
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// Temporary reports whether retrying may succeed
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

func retrievalError(source, query string, err error) error {
	var rerr *model.RetrievalError
	if errors.As(err, &rerr) {
		return err
	}
	return &model.RetrievalError{Source: source, Query: query, Err: err}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
