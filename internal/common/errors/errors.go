// Package errors provides standardized error handling for the dialogue core.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Validation errors: a recognized span did not normalize to a catalog entry.
	ErrCodeInvalidPizza   ErrorCode = "INVALID_PIZZA"
	ErrCodeInvalidSize    ErrorCode = "INVALID_SIZE"
	ErrCodeInvalidCrust   ErrorCode = "INVALID_CRUST"
	ErrCodeInvalidTopping ErrorCode = "INVALID_TOPPING"

	// Backend errors: the order backend returned a non-success status.
	ErrCodeBackendRequestFailed ErrorCode = "BACKEND_REQUEST_FAILED"
	ErrCodeBackendDecodeFailed  ErrorCode = "BACKEND_DECODE_FAILED"
	ErrCodeBackendNotFound      ErrorCode = "BACKEND_NOT_FOUND"

	// Input format errors: the user's reply did not match the expected shape.
	ErrCodeChoiceNotNumeric     ErrorCode = "CHOICE_NOT_NUMERIC"
	ErrCodeChoiceOutOfRange     ErrorCode = "CHOICE_OUT_OF_RANGE"
	ErrCodeSegmentationNoAnchor ErrorCode = "SEGMENTATION_NO_ANCHOR"

	// NLU boundary errors.
	ErrCodeIntentPredictFailed ErrorCode = "INTENT_PREDICT_FAILED"
	ErrCodeEntityPredictFailed ErrorCode = "ENTITY_PREDICT_FAILED"

	ErrCodeTemplateNotFound ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeTemplateInvalid  ErrorCode = "TEMPLATE_INVALID"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ValidationError carries the entity kind that failed normalization and the
// offending raw values so handlers can render a "we don't carry X" reply.
type ValidationError struct {
	Code   ErrorCode
	Kind   string
	Values []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ValidationError[%s]: %s %v", e.Code, e.Kind, e.Values)
}

func NewValidationError(code ErrorCode, kind string, values []string) *ValidationError {
	return &ValidationError{Code: code, Kind: kind, Values: values}
}

// AsValidation unwraps err into a *ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// BackendError marks a failed call against the order backend. The pending
// dialogue state must be left untouched when one of these surfaces.
type BackendError struct {
	Code      ErrorCode
	Operation string
	Status    int
	Err       error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("BackendError[%s]: %s: %v", e.Code, e.Operation, e.Err)
	}
	return fmt.Sprintf("BackendError[%s]: %s: status %d", e.Code, e.Operation, e.Status)
}

func (e *BackendError) Unwrap() error { return e.Err }

func NewBackendError(operation string, status int) *BackendError {
	return &BackendError{Code: ErrCodeBackendRequestFailed, Operation: operation, Status: status}
}

func WrapBackendError(operation string, err error) *BackendError {
	return &BackendError{Code: ErrCodeBackendRequestFailed, Operation: operation, Err: err}
}

// AsBackend unwraps err into a *BackendError if it is one.
func AsBackend(err error) (*BackendError, bool) {
	var be *BackendError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// NewStandardError builds a StandardError with the current timestamp.
func NewStandardError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now(),
	}
}
