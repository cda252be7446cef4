package usecase

import (
	"errors"
	"fmt"
)

const (
	StageRequest = "request"
	StageParse   = "parse"
)

// ExtractionError is recovered inside the extractor; it only reaches logs.
type ExtractionError struct {
	Stage string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction %s: %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func IsExtractionError(err error) bool {
	var target *ExtractionError
	return errors.As(err, &target)
}

// PersistenceError means every insert attempt failed.
type PersistenceError struct {
	Attempts int
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist lead: gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func IsPersistenceError(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}
