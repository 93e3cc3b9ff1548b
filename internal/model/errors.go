package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData marks a stage that had fewer documents than it needs
	ErrInsufficientData = errors.New("insufficient data")

	// ErrSequence marks a phase invoked out of order
	ErrSequence = errors.New("phase sequence violated")
)

// RetrievalError is returned when a document source is unreachable or fails
type RetrievalError struct {
	Source string
	Query  string
	Err    error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve %q from %s: %v", e.Query, e.Source, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// ExtractionError is returned when the extraction adapter fails or its output is malformed
type ExtractionError struct {
	Task string // e.g. "review", "frontier", "deviation"
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Task, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// InsufficientDataError reports that too few documents qualified for a stage
type InsufficientDataError struct {
	Stage string
	Have  int
	Need  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: have %d documents, need %d", e.Stage, e.Have, e.Need)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// SequenceError reports a phase invoked before its prerequisites completed
type SequenceError struct {
	Phase   string
	Missing string
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("%s requires %s to complete first", e.Phase, e.Missing)
}

func (e *SequenceError) Unwrap() error { return ErrSequence }
