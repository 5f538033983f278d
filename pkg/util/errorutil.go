package util

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
)

// Generic codes shared by every handler; business codes live with the services.
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeTimeout          = "TIMEOUT"
	CodeInternal         = "INTERNAL_ERROR"
)

// DomainError is an error rendered to API clients as {code, message, details}.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewValidationError reports bad input; details maps field names to reasons.
func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewInternalError(err error) error {
	return internalError(err)
}

func notFound(resource string) *DomainError {
	return NewDomainError(CodeNotFound, resource+" not found", http.StatusNotFound, map[string]any{})
}

func internalError(err error) *DomainError {
	de := NewDomainError(CodeInternal, "internal server error", http.StatusInternalServerError, nil)
	de.Err = err
	return de
}

// ToDomainError converts any error into the DomainError rendered to clients.
// Missing rows become NOT_FOUND and an expired request deadline becomes
// TIMEOUT; everything else is an internal error wrapping the cause.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	switch {
	case errors.As(err, &domainErr):
		return domainErr
	case errors.Is(err, sql.ErrNoRows):
		return notFound("resource")
	case errors.Is(err, context.DeadlineExceeded):
		de := NewDomainError(CodeTimeout, "request timed out", http.StatusGatewayTimeout, nil)
		de.Err = err
		return de
	default:
		return internalError(err)
	}
}

// HasCode reports whether err carries a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code == code
}
