package errors

import (
	"errors"
	"fmt"
)

// Domain errors - the extraction pipeline's failure taxonomy
var (
	// ErrEmptyInput means the submitted news text was blank or whitespace.
	ErrEmptyInput = errors.New("news text is empty")

	// ErrUpstreamUnavailable means the generation service call itself failed:
	// network error, non-success status, missing credential, or a reply with
	// no extractable text content. Transient; not retried by the pipeline.
	ErrUpstreamUnavailable = errors.New("generation service unavailable")

	// ErrMalformedResponse means the generation service returned text from
	// which no valid structured record could be recovered.
	ErrMalformedResponse = errors.New("malformed generation response")

	// Generic
	ErrBadRequest  = errors.New("bad request")
	ErrInternal    = errors.New("internal server error")
	ErrRateLimited = errors.New("rate limit exceeded")
)

// MalformedResponseError carries the original and cleaned model text so a
// failure can be reproduced from the logs. Matches ErrMalformedResponse
// under errors.Is.
type MalformedResponseError struct {
	Original string
	Cleaned  string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed generation response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() []error {
	return []error{ErrMalformedResponse, e.Err}
}

// AppError wraps errors with additional context for HTTP responses
type AppError struct {
	Err        error  // The underlying error
	Message    string // User-friendly message
	Code       string // Machine-readable error code
	StatusCode int    // HTTP status code
	Details    map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error constructors for common cases
func NewBadRequestError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "BAD_REQUEST",
		StatusCode: 400,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "An unexpected error occurred",
		Code:       "INTERNAL_ERROR",
		StatusCode: 500,
	}
}

// ValidationErrors holds multiple field validation errors
type ValidationErrors struct {
	Errors map[string][]string `json:"errors"`
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make(map[string][]string),
	}
}

func (v *ValidationErrors) Add(field, message string) {
	v.Errors[field] = append(v.Errors[field], message)
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *ValidationErrors) Error() string {
	return fmt.Sprintf("validation failed: %d field(s) have errors", len(v.Errors))
}
