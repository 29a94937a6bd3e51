package domain

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Error codes shared by every package. Handlers map them to HTTP statuses.
const (
	EINVALID   = "invalid"         // 400: bad parameters or malformed input
	EFORBIDDEN = "forbidden"       // 403: stale or missing CSRF token
	ENOTFOUND  = "not_found"       // 404
	ETOOLARGE  = "too_large"       // 413: request body over the limit
	EEMPTY     = "empty"           // 422: every line item was filtered out
	ERATELIMIT = "rate_limited"    // 429
	EINTERNAL  = "internal"        // 500: details are logged, never shown
	ENOTIMPL   = "not_implemented" // 501
)

// hiddenMessage replaces the message of any error coded EINTERNAL.
const hiddenMessage = "An internal error occurred. Please try again later."

// Error is a coded failure. Message is safe to show a user; Op and Err are
// for logs only.
type Error struct {
	Code    string
	Message string
	Op      string // e.g. "worksheet.calculate"
	Err     error
}

func (e *Error) Error() string {
	parts := make([]string, 0, 3)
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	parts = append(parts, e.Message)
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error { return e.Err }

// coded lets freight and pricing define their own error types without
// importing this package.
type coded interface {
	ErrorCode() string
	ErrorMessage() string
}

// classify finds the first coded error in err's chain.
func classify(err error) (code, message string) {
	var e *Error
	var c coded
	var v *ValidationError
	switch {
	case errors.As(err, &e):
		return e.Code, e.Message
	case errors.As(err, &c):
		return c.ErrorCode(), c.ErrorMessage()
	case errors.As(err, &v):
		return EINVALID, v.Error()
	}
	return EINTERNAL, ""
}

// ErrorCode returns the code carried by err. Uncoded errors are EINTERNAL;
// nil has no code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	code, _ := classify(err)
	return code
}

// ErrorMessage returns the user-facing text for err. Internal errors all
// read the same so nothing about the server leaks.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	code, message := classify(err)
	if code == EINTERNAL {
		return hiddenMessage
	}
	return message
}

// ErrorOp returns the operation recorded on err, if any.
func ErrorOp(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

func Errorf(code, op, format string, args ...interface{}) error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a code and user message to err. A nil err stays nil.
func WrapError(err error, code, op, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Message: message, Err: err}
}

func Invalid(op, message string) error {
	return &Error{Code: EINVALID, Op: op, Message: message}
}

// Internal wraps err so that users only ever see the generic message.
func Internal(err error, op, message string) error {
	return &Error{Code: EINTERNAL, Op: op, Message: message, Err: err}
}

// ValidationError collects per-field messages, keyed by form or JSON field name.
type ValidationError struct {
	Fields map[string]string
	Op     string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if len(e.Fields) == 1 {
		for field, msg := range e.Fields {
			fmt.Fprintf(&b, "%s: %s", field, msg)
		}
		return b.String()
	}
	fmt.Fprintf(&b, "validation failed for %d fields (%s)",
		len(e.Fields), strings.Join(slices.Sorted(maps.Keys(e.Fields)), ", "))
	return b.String()
}

func NewValidationError(op, field, message string) error {
	return &ValidationError{Op: op, Fields: map[string]string{field: message}}
}

// AddFieldError records field on the ValidationError in err's chain, or
// starts a new one when there is none.
func AddFieldError(err error, field, message string) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		ve.Fields[field] = message
		return ve
	}
	return &ValidationError{Fields: map[string]string{field: message}}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// GetValidationFields returns the field messages, or nil when err carries none.
func GetValidationFields(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}
