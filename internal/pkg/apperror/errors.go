package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both missing rows and rows owned by someone else.
	ErrNotFound         = errors.New("not found")
	ErrInvalidOperation = errors.New("invalid operation")
)

// NotFound returns an ErrNotFound carrying the resource name.
func NotFound(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// InvalidOperation returns an ErrInvalidOperation with a reason.
func InvalidOperation(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, reason)
}

type IngestionError struct {
	Err error
}

func (e *IngestionError) Error() string {
	if e == nil || e.Err == nil {
		return "document ingestion failed"
	}
	return "document ingestion failed: " + e.Err.Error()
}

func (e *IngestionError) Unwrap() error { return e.Err }

type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	if e == nil || e.Err == nil {
		return "document retrieval failed"
	}
	return "document retrieval failed: " + e.Err.Error()
}

func (e *RetrievalError) Unwrap() error { return e.Err }

func NewIngestionError(err error) error {
	return &IngestionError{Err: err}
}

func NewRetrievalError(err error) error {
	return &RetrievalError{Err: err}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

func IsIngestion(err error) bool {
	var target *IngestionError
	return errors.As(err, &target)
}

func IsRetrieval(err error) bool {
	var target *RetrievalError
	return errors.As(err, &target)
}
