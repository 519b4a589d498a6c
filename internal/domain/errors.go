package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by sinks when an article id is unknown.
	ErrNotFound = errors.New("article not found")
	// ErrDuplicate is returned by sinks when the source id is already stored.
	ErrDuplicate = errors.New("article already stored")
	// ErrEmptyInput marks a stage that was handed nothing to work on.
	ErrEmptyInput = errors.New("empty input")
)

// Stage names used in StageError.
const (
	StageEmbedding      = "embedding"
	StageTransform      = "transform"
	StageClassification = "classification"
)

// FetchError covers timeouts, connection errors and non-success statuses.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractionError means required markup was absent from a page.
type ExtractionError struct {
	URL    string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %s", e.URL, e.Reason)
}

// StageError attributes an enrichment failure to its stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError wraps err for stage unless it already is a StageError.
func NewStageError(stage string, err error) *StageError {
	var se *StageError
	if errors.As(err, &se) && se.Stage == stage {
		return se
	}
	return &StageError{Stage: stage, Err: err}
}
