package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeInvalidState      = "INVALID_STATE"
	ErrCodeRangeNotSatisfied = "RANGE_NOT_SATISFIABLE"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeUpstream          = "UPSTREAM_FAILURE"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// Kind classifies a domain error so handlers can map it to a status code
// without string matching.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindAccessDenied
	KindInvalidState
	KindRangeNotSatisfiable
	KindConflict
	KindUpstream
)

// Error is the domain error carried between engine packages and handlers.
// Reason is an internal code ("cycle-detected", "not-a-member", ...) meant
// for logs and tests; access denial reasons are never written to the
// response body.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(reason string) *Error {
	return &Error{Kind: KindNotFound, Reason: reason}
}

func AccessDenied(reason string) *Error {
	return &Error{Kind: KindAccessDenied, Reason: reason}
}

func InvalidState(reason string) *Error {
	return &Error{Kind: KindInvalidState, Reason: reason}
}

func RangeNotSatisfiable(reason string) *Error {
	return &Error{Kind: KindRangeNotSatisfiable, Reason: reason}
}

func Conflict(reason string) *Error {
	return &Error{Kind: KindConflict, Reason: reason}
}

func Upstream(reason string, err error) *Error {
	return &Error{Kind: KindUpstream, Reason: reason, Err: err}
}

func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

func ReasonOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Reason
	}
	return ""
}

func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
		Details: details,
	})
}

// WriteDomainError maps a domain error onto the HTTP envelope. Access
// denials always come back as a generic message regardless of which rule
// produced them.
func WriteDomainError(w http.ResponseWriter, err error) {
	switch KindOf(err) {
	case KindNotFound:
		WriteError(w, http.StatusNotFound, ErrCodeNotFound, "Resource not found", nil)
	case KindAccessDenied:
		WriteError(w, http.StatusForbidden, ErrCodeForbidden, "Access denied", nil)
	case KindInvalidState:
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidState, err.Error(), nil)
	case KindRangeNotSatisfiable:
		WriteError(w, http.StatusRequestedRangeNotSatisfiable, ErrCodeRangeNotSatisfied, "Requested range not satisfiable", nil)
	case KindConflict:
		WriteError(w, http.StatusConflict, ErrCodeConflict, err.Error(), nil)
	case KindUpstream:
		WriteError(w, http.StatusBadGateway, ErrCodeUpstream, "Upstream failure, retry later", nil)
	default:
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "Internal error", nil)
	}
}
