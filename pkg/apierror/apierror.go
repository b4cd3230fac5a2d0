package apierror

import (
	"errors"
	"fmt"
)

// Kind groups error codes into the classes callers branch on.
type Kind string

const (
	KindNotFound        Kind = "NOT_FOUND"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindExpired         Kind = "EXPIRED"
	KindInvalid         Kind = "INVALID"
	KindConflict        Kind = "CONFLICT"
	KindForbidden       Kind = "FORBIDDEN"
	KindExternal        Kind = "EXTERNAL"
	KindInternal        Kind = "INTERNAL"
)

type APIError struct {
	Code       int    `json:"code"`
	Kind       Kind   `json:"-"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`

	// Fields carries per-field validation messages.
	Fields map[string]string `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%d %s: %s (%s)", e.Code, e.Kind, e.Message, e.Details)
	}

	return fmt.Sprintf("%d %s: %s", e.Code, e.Kind, e.Message)
}

// Is matches on the numeric code so a catalogue entry carrying details
// still compares equal to the bare entry.
func (e *APIError) Is(target error) bool {
	var other *APIError
	if !errors.As(target, &other) || e == nil || other == nil {
		return false
	}
	return e.Code == other.Code
}

// WithDetails returns a copy of e carrying details. Catalogue entries are
// shared values and must never be mutated in place.
func (e *APIError) WithDetails(details string) *APIError {
	clone := *e
	clone.Details = details
	return &clone
}

// Validation returns a ValidationFailed error carrying the rejected fields.
func Validation(fields map[string]string) *APIError {
	clone := *ValidationFailed
	clone.Fields = fields
	return &clone
}

func New(code int, kind Kind, message string, details string, status int) *APIError {
	return &APIError{Code: code, Kind: kind, Message: message, Details: details, HTTPStatus: status}
}

// KindOf reports the kind of err, or KindInternal when err is not an APIError.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindInternal
}
