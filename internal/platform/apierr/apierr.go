package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Status  int
	Code    string
	Details string
	Err     error
	// msg is the client-visible message; Err may carry an internal cause.
	msg string
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
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

// Message is safe to return to clients.
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	if e.msg != "" {
		return e.msg
	}
	if e.Status >= http.StatusInternalServerError {
		return "internal server error"
	}
	return e.Error()
}

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// WithDetails returns a copy carrying a client-visible details string.
func (e *Error) WithDetails(details string) *Error {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Details = details
	return &cp
}

func Unauthorized(msg string) *Error {
	return New(http.StatusUnauthorized, "unauthorized", errors.New(msg))
}

func Forbidden(msg string) *Error {
	return New(http.StatusForbidden, "forbidden", errors.New(msg))
}

func NotFound(msg string) *Error {
	return New(http.StatusNotFound, "not_found", errors.New(msg))
}

func BadRequest(msg string) *Error {
	return New(http.StatusBadRequest, "invalid_request", errors.New(msg))
}

func Conflict(msg string) *Error {
	return New(http.StatusConflict, "conflict", errors.New(msg))
}

func TooManyRequests(msg string) *Error {
	return New(http.StatusTooManyRequests, "rate_limited", errors.New(msg))
}

// Internal keeps the cause for logging; callers should not leak it to clients.
func Internal(msg string, cause error) *Error {
	e := New(http.StatusInternalServerError, "internal", errors.New(msg))
	if cause != nil {
		e.Err = fmt.Errorf("%s: %w", msg, cause)
	}
	e.msg = msg
	return e
}

// StatusOf reports the HTTP status carried by err, or 500 for anything untyped.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}
