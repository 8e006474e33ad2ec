// Package apperrors holds the error taxonomy shared by provider clients and pipelines.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind distinguishes provider failures so callers can pick a fallback policy
type Kind string

const (
	KindProviderUnavailable Kind = "provider_unavailable"
	KindRateLimited         Kind = "rate_limited"
	KindInvalidInput        Kind = "invalid_input"
	KindDimensionMismatch   Kind = "dimension_mismatch"
	KindCollectionExists    Kind = "collection_exists"
)

// Sentinels matching each Kind; errors.Is(err, ErrRateLimited) works on any *ProviderError of that kind.
var (
	ErrProviderUnavailable = errors.New(string(KindProviderUnavailable))
	ErrRateLimited         = errors.New(string(KindRateLimited))
	ErrInvalidInput        = errors.New(string(KindInvalidInput))
	ErrDimensionMismatch   = errors.New(string(KindDimensionMismatch))
	ErrCollectionExists    = errors.New(string(KindCollectionExists))
)

// Pipeline level errors
var (
	ErrBadRequest     = errors.New("bad request")
	ErrEmbedding      = errors.New("embedding failed")
	ErrRetrieval      = errors.New("retrieval failed")
	ErrGeneration     = errors.New("generation failed")
	ErrIngestionFetch = errors.New("ingestion fetch failed")
	ErrIngestionWrite = errors.New("ingestion write failed")
)

var kindSentinels = map[Kind]error{
	KindProviderUnavailable: ErrProviderUnavailable,
	KindRateLimited:         ErrRateLimited,
	KindInvalidInput:        ErrInvalidInput,
	KindDimensionMismatch:   ErrDimensionMismatch,
	KindCollectionExists:    ErrCollectionExists,
}

// ProviderError wraps a failure from an external provider with its kind and the operation that failed
type ProviderError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind
func (e *ProviderError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// New builds a ProviderError
func New(kind Kind, op string, err error) *ProviderError {
	return &ProviderError{Kind: kind, Op: op, Err: err}
}

// DimensionMismatch reports a vector whose length differs from the collection's
func DimensionMismatch(op string, want, got int) *ProviderError {
	return New(KindDimensionMismatch, op, fmt.Errorf("expected %d dimensions, got %d", want, got))
}

// KindOf returns the kind of the first ProviderError in the chain, or "" if there is none
func KindOf(err error) Kind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
