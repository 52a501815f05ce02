package errors

import (
	"errors"
	"fmt"
)

// Code identifies a class of pipeline error. Codes are stable strings so
// run reports and logs can be grepped across versions.
type Code string

const (
	CodeUnmappedCountry  Code = "UNMAPPED_COUNTRY"
	CodeMalformedRecord  Code = "MALFORMED_RECORD"
	CodeColumnOverwrite  Code = "COLUMN_OVERWRITE"
	CodeInsufficientData Code = "INSUFFICIENT_DATA"
	CodeProvider         Code = "PROVIDER_ERROR"
)

// PipelineError is the structured error type used across all pipeline
// stages. Details carries error-specific context for the run report.
type PipelineError struct {
	Code    Code        `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As chains.
func (e *PipelineError) Unwrap() error {
	return e.cause
}

// Is matches any PipelineError carrying the same code, so callers can test
// against the predeclared sentinel values below.
func (e *PipelineError) Is(target error) bool {
	var pe *PipelineError
	if errors.As(target, &pe) {
		return e.Code == pe.Code
	}
	return false
}

// New creates a new PipelineError with the given code and message.
func New(code Code, message string) *PipelineError {
	return &PipelineError{Code: code, Message: message}
}

// NewWithDetails creates a new PipelineError carrying additional details.
func NewWithDetails(code Code, message string, details interface{}) *PipelineError {
	return &PipelineError{Code: code, Message: message, Details: details}
}

// Sentinel values for errors.Is checks.
var (
	ErrUnmappedCountry  = New(CodeUnmappedCountry, "country identifier could not be resolved")
	ErrMalformedRecord  = New(CodeMalformedRecord, "record is missing a required dimension")
	ErrColumnOverwrite  = New(CodeColumnOverwrite, "column value overwritten by a later join")
	ErrInsufficientData = New(CodeInsufficientData, "too few complete rows for a stable fit")
	ErrProvider         = New(CodeProvider, "provider request failed")
)

// UnmappedCountry reports a raw country identifier that the resolver could
// not map to ISO3. This is fatal for the extraction that hit it: a silent
// drop would bias the panel without detection.
func UnmappedCountry(raw string) *PipelineError {
	return NewWithDetails(CodeUnmappedCountry,
		fmt.Sprintf("country identifier %q could not be resolved to ISO3", raw), raw)
}

// MalformedRecord reports a record that cannot be interpreted against an
// extraction rule. Malformed records are skipped and tallied, never
// silently ignored.
func MalformedRecord(reason string) *PipelineError {
	return New(CodeMalformedRecord, reason)
}

// InsufficientData reports a regression specification with fewer usable
// rows than the estimator needs.
func InsufficientData(specName string, rows, required int) *PipelineError {
	return NewWithDetails(CodeInsufficientData,
		fmt.Sprintf("regression %q has %d usable rows, needs at least %d", specName, rows, required),
		map[string]int{"rows": rows, "required": required})
}

// ProviderFailure wraps an upstream provider error for a single indicator.
// It is fatal for that indicator only; sibling indicators continue.
func ProviderFailure(provider, indicatorID string, cause error) *PipelineError {
	return &PipelineError{
		Code:    CodeProvider,
		Message: fmt.Sprintf("%s request for indicator %s failed", provider, indicatorID),
		Details: map[string]string{"provider": provider, "indicator": indicatorID},
		cause:   cause,
	}
}
