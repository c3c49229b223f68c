// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for the label generation pipeline
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeStore    = "STORE_ERROR"

	// Validation errors (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Batch pipeline failures
	CodeConfiguration = "CONFIGURATION_ERROR"
	CodeInvalidRange  = "INVALID_RANGE"
	CodeEncoding      = "ENCODING_ERROR"
	CodeComposition   = "COMPOSITION_FAILURE"
	CodeCanceled      = "CANCELED"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict = "CONFLICT"
)

// AppError is the standard error type for the service.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (offending identifier, config field, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewConfiguration creates a layout/composite configuration error (422).
// Surfaced before any batch work starts.
func NewConfiguration(message string) *AppError {
	return &AppError{
		Code:       CodeConfiguration,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewInvalidRange is returned when an explicit start would overlap numbers
// already issued within a variant's namespace.
func NewInvalidRange(variant string, start, end int64) *AppError {
	return &AppError{
		Code:       CodeInvalidRange,
		Message:    "Requested range overlaps already issued numbers",
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"variant": variant,
			"from":    start,
			"to":      end,
		},
	}
}

// NewEncoding wraps a symbol encoder failure for a specific identifier.
func NewEncoding(identifier string, err error) *AppError {
	return &AppError{
		Code:       CodeEncoding,
		Message:    "Symbol encoding failed",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"identifier": identifier},
		Err:        err,
	}
}

// NewComposition wraps a logo compositing failure for a specific identifier.
func NewComposition(identifier string, err error) *AppError {
	return &AppError{
		Code:       CodeComposition,
		Message:    "Symbol composition failed",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"identifier": identifier},
		Err:        err,
	}
}

// NewCanceled is returned when a batch is canceled before completion.
func NewCanceled(err error) *AppError {
	return &AppError{
		Code:       CodeCanceled,
		Message:    "Batch canceled",
		HTTPStatus: 499, // client closed request
		Err:        err,
	}
}

// NewStore wraps a sequence store failure (unreachable, corrupt record).
// Allocation is never committed when this is returned.
func NewStore(err error) *AppError {
	return &AppError{
		Code:       CodeStore,
		Message:    "Sequence store failure",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsCode checks if error carries the given code.
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

// IsInvalidRange checks if error is CodeInvalidRange
func IsInvalidRange(err error) bool {
	return IsCode(err, CodeInvalidRange)
}
