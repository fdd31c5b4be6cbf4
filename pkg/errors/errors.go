// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package errors provides the error taxonomy for osti-sync. Each failure
// class has a sentinel for errors.Is and a struct type carrying detail for
// errors.As.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New is errors.New, re-exported so callers need a single import.
var New = errors.New

// Is, As, and Join are re-exported from the standard library.
var (
	Is   = errors.Is
	As   = errors.As
	Join = errors.Join
)

// Sentinel errors.
var (
	// ErrFetchProtocol means an upstream catalog broke its pagination or
	// completeness contract. The run must abort.
	ErrFetchProtocol = errors.New("fetch protocol violation")

	// ErrResolution means a DOI could not be resolved to a handle.
	ErrResolution = errors.New("DOI resolution failed")

	// ErrValidation means enrichment input is incomplete or inconsistent.
	ErrValidation = errors.New("validation failed")

	// ErrSubmission means OSTI rejected a record.
	ErrSubmission = errors.New("submission rejected")
)

// FetchProtocolError reports an upstream contract violation.
type FetchProtocolError struct {
	Source string
	Reason string
}

// Error implements the error interface
func (e *FetchProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Source, e.Reason)
}

// Is implements errors.Is support
func (e *FetchProtocolError) Is(target error) bool {
	return target == ErrFetchProtocol
}

// NewFetchProtocolError creates a new FetchProtocolError
func NewFetchProtocolError(source, format string, args ...any) *FetchProtocolError {
	return &FetchProtocolError{Source: source, Reason: fmt.Sprintf(format, args...)}
}

// ResolutionError reports a DOI whose redirect did not end in HTTP 200.
type ResolutionError struct {
	DOI        string
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *ResolutionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("resolving %s: HTTP %d", e.DOI, e.StatusCode)
	}
	return fmt.Sprintf("resolving %s: %v", e.DOI, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolution
}

// ValidationError reports one problem in the enrichment form or the join
// against catalog records.
type ValidationError struct {
	// Row is the DSpace ID of the offending row, or 0 for form-level problems.
	Row     int
	Field   string
	Value   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation failed")
	if e.Row != 0 {
		fmt.Fprintf(&b, " for row %d", e.Row)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field %q", e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a new ValidationError
func NewValidationError(row int, field, value, message string) *ValidationError {
	return &ValidationError{Row: row, Field: field, Value: value, Message: message}
}

// ValidationErrors collects every problem found in a batch so the whole
// batch can be reported at once.
type ValidationErrors []*ValidationError

// Error implements the error interface
func (v ValidationErrors) Error() string {
	if len(v) == 1 {
		return v[0].Error()
	}
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = "  " + e.Error()
	}
	return fmt.Sprintf("%d validation errors:\n%s", len(v), strings.Join(msgs, "\n"))
}

// Is implements errors.Is support
func (v ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

// ErrOrNil returns v as an error, or nil when v is empty.
func (v ValidationErrors) ErrOrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// SubmissionError reports a record OSTI did not accept. It never aborts a
// batch; it is collected into the run report.
type SubmissionError struct {
	Title   string
	Status  string
	Message string
}

// Error implements the error interface
func (e *SubmissionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%q: status %s: %s", e.Title, e.Status, e.Message)
	}
	return fmt.Sprintf("%q: status %s", e.Title, e.Status)
}

// Is implements errors.Is support
func (e *SubmissionError) Is(target error) bool {
	return target == ErrSubmission
}
