// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelMatching(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"fetch protocol", NewFetchProtocolError("osti", "no empty page in %d pages", 10), ErrFetchProtocol},
		{"resolution", &ResolutionError{DOI: "10.11578/1", StatusCode: 404}, ErrResolution},
		{"validation", NewValidationError(42, "Datatype", "XX", "unknown dataset type"), ErrValidation},
		{"validation batch", ValidationErrors{NewValidationError(1, "", "", "x")}, ErrValidation},
		{"submission", &SubmissionError{Title: "t", Status: "FAILURE"}, ErrSubmission},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.True(t, Is(wrapped, tt.target))
		})
	}
}

func TestResolutionErrorUnwrap(t *testing.T) {
	inner := New("connection refused")
	err := &ResolutionError{DOI: "10.11578/1", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestValidationErrorsMessage(t *testing.T) {
	v := ValidationErrors{
		NewValidationError(42, "Datatype", "XX", "unknown dataset type"),
		NewValidationError(0, "DOE Contract", "", "column missing"),
	}
	msg := v.Error()
	assert.Contains(t, msg, "2 validation errors")
	assert.Contains(t, msg, `row 42 field "Datatype"`)
	assert.Contains(t, msg, `field "DOE Contract": column missing`)

	var ve *ValidationError
	require.False(t, As(v, &ve), "batch is not a single error")
}

func TestValidationErrorsErrOrNil(t *testing.T) {
	var v ValidationErrors
	assert.NoError(t, v.ErrOrNil())

	v = append(v, NewValidationError(1, "Title", "", "empty"))
	assert.ErrorIs(t, v.ErrOrNil(), ErrValidation)
}
