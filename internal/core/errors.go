package core

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrFutureDate    = errors.New("date cannot be in the future")
	ErrInvalidAmount = errors.New("invalid amount")
)

// FieldErrors maps a field name to the first rule it failed.
type FieldErrors map[string]string

// ValidationError carries per-field messages for rejected input.
type ValidationError struct {
	Fields FieldErrors
}

func NewValidationError(fields FieldErrors) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Is matches ErrFutureDate when a future date is the only problem.
func (e *ValidationError) Is(target error) bool {
	if target != ErrFutureDate {
		return false
	}
	return len(e.Fields) == 1 && e.Fields[FieldDate] == MsgDateInFuture
}

// UpstreamError wraps a failure of the record store or the cache.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Upstream wraps err as an UpstreamError unless it is nil or a not-found.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamError{Op: op, Err: err}
}
