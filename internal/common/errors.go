// Package common defines shared sentinel errors and error types used across
// all layers of the workspace core. Callers should use errors.Is to match
// sentinels and errors.As for the typed errors.
package common

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Boundary errors: no principal vs. policy denial.
	ErrorUnauthenticated = errors.New("unauthenticated")
	ErrorForbidden       = errors.New("forbidden")

	// Validation of caller input. Wrap with ValidationError for field detail.
	ErrorValidation = errors.New("validation failed")

	// State machine / invariant violations (completing with zero deliveries,
	// manual system-folder creation, non-self staff edits, ...).
	ErrorStateConflict = errors.New("state conflict")

	// Storage or notifier transport failures.
	ErrorUpstream = errors.New("upstream failure")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)

// ValidationError reports malformed input with per-field detail.
// It matches ErrorValidation under errors.Is.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, detail string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: detail}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, d := range e.Fields {
		parts = append(parts, f+": "+d)
	}
	sort.Strings(parts)
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrorValidation }

// StateConflictError carries a human-readable reason for a rejected
// transition or invariant violation. Matches ErrorStateConflict.
type StateConflictError struct {
	Reason string
}

func (e *StateConflictError) Error() string { return e.Reason }

func (e *StateConflictError) Unwrap() error { return ErrorStateConflict }

// UpstreamError wraps a storage or notifier transport failure so callers can
// both match ErrorUpstream and inspect the cause.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *UpstreamError) Unwrap() error { return ErrorUpstream }

// Cause returns the underlying transport error.
func (e *UpstreamError) Cause() error { return e.Err }
