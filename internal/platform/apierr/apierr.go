package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the single error type crossing the service boundary. Status maps
// directly to the HTTP response code; Fields carries the field-keyed detail
// map for validation failures.
type Error struct {
	Status int
	Code   string
	Fields map[string][]string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Validation reports malformed or duplicate input. The map keys are field
// names, values are the messages for that field.
func Validation(fields map[string][]string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: "validation_error", Fields: fields}
}

// FieldError is shorthand for a single-field validation error.
func FieldError(field, msg string) *Error {
	return Validation(map[string][]string{field: {msg}})
}

func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Code: "not_found", Err: errors.New(msg)}
}

func Forbidden(msg string) *Error {
	return &Error{Status: http.StatusForbidden, Code: "forbidden", Err: errors.New(msg)}
}

func Unauthorized(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: "unauthorized", Err: errors.New(msg)}
}

// Protected reports an attempt to delete a catalog row that is still
// referenced by foreign keys.
func Protected(msg string) *Error {
	return &Error{Status: http.StatusConflict, Code: "protected", Err: errors.New(msg)}
}

func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: "internal_error", Err: err}
}

// From extracts an *Error from err, wrapping unknown errors as Internal.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

func IsStatus(err error, status int) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Status == status
}
