// Package apierror defines the error taxonomy surfaced to API clients.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindConflict     Kind = "CONFLICT"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindNotFound     Kind = "NOT_FOUND"
	KindBadRequest   Kind = "BAD_REQUEST"
	KindInternal     Kind = "INTERNAL"
)

// APIError is a terminal, client-facing error. It is never retried.
type APIError struct {
	Code    Kind              `json:"code"`
	Message string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPStatus maps the error kind to its response status.
func (e *APIError) HTTPStatus() int {
	switch e.Code {
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WithDetail returns a copy of e carrying an extra detail entry.
func (e *APIError) WithDetail(key, value string) *APIError {
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &APIError{Code: e.Code, Message: e.Message, Details: details}
}

func New(kind Kind, format string, args ...any) *APIError {
	return &APIError{Code: kind, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *APIError {
	return New(KindConflict, format, args...)
}

func Unauthorized(format string, args ...any) *APIError {
	return New(KindUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) *APIError {
	return New(KindForbidden, format, args...)
}

func NotFound(format string, args ...any) *APIError {
	return New(KindNotFound, format, args...)
}

func BadRequest(format string, args ...any) *APIError {
	return New(KindBadRequest, format, args...)
}

// Internal hides the cause; log it before returning this.
func Internal() *APIError {
	return New(KindInternal, "Internal server error")
}

// As extracts an *APIError from the chain.
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Is reports whether err carries an APIError of the given kind.
func Is(err error, kind Kind) bool {
	apiErr, ok := As(err)
	return ok && apiErr.Code == kind
}
