package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Standard error codes
const (
	CodeValidationError     = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeConfiguration       = "CONFIGURATION_ERROR"
	CodeCyclicRecipe        = "CYCLIC_RECIPE"
	CodeConstraintViolation = "CONSTRAINT_VIOLATION"
	CodeConflict            = "CONFLICT"
	CodeBusinessRule        = "BUSINESS_RULE"
	CodeInternalError       = "INTERNAL_ERROR"
)

// AppError represents a planning error with a stable code and HTTP status
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a single detail to the error
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Wrap wraps an existing error
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

// NewAppError creates a new AppError
func NewAppError(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// ErrValidation creates a validation error
func ErrValidation(message string) *AppError {
	return NewAppError(CodeValidationError, message, http.StatusBadRequest)
}

// ErrNotFound creates a not found error for a resource kind and id
func ErrNotFound(resource, id string) *AppError {
	return NewAppError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound).
		WithDetail("id", id)
}

// ErrConfiguration reports invalid master data, such as a recipe with a non-positive basis
func ErrConfiguration(message string) *AppError {
	return NewAppError(CodeConfiguration, message, http.StatusUnprocessableEntity)
}

// ErrCyclicRecipe reports an item that requires itself through its recipe chain.
// The path lists the items from the first repeated item back to itself.
func ErrCyclicRecipe(path []string) *AppError {
	return NewAppError(
		CodeCyclicRecipe,
		fmt.Sprintf("recipe cycle detected: %s", strings.Join(path, " -> ")),
		http.StatusUnprocessableEntity,
	).WithDetail("path", strings.Join(path, ","))
}

// ErrConstraintViolation reports a failed transactional write
func ErrConstraintViolation(message string) *AppError {
	return NewAppError(CodeConstraintViolation, message, http.StatusConflict)
}

// ErrConflict reports a request that collides with work already done or in progress
func ErrConflict(message string) *AppError {
	return NewAppError(CodeConflict, message, http.StatusConflict)
}

// ErrBusinessRule is reserved for upstream callers (credit checks and similar)
func ErrBusinessRule(message string) *AppError {
	return NewAppError(CodeBusinessRule, message, http.StatusUnprocessableEntity)
}

// ErrInternal creates an internal server error
func ErrInternal(message string) *AppError {
	if message == "" {
		message = "an internal error occurred"
	}
	return NewAppError(CodeInternalError, message, http.StatusInternalServerError)
}

// As extracts an AppError from an error chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether any AppError in the chain carries the given code
func Is(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// CodeOf returns the code of the first AppError in the chain, or INTERNAL_ERROR
func CodeOf(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeInternalError
}

// HTTPStatusOf maps an error to the status code an API should answer with
func HTTPStatusOf(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
