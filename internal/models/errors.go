package models

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCode is the machine-readable kind carried in an error envelope
type ErrorCode string

const (
	// Protocol errors
	ErrorCodeParse          ErrorCode = "parse_error"      // Frame is not valid JSON
	ErrorCodeInvalidRequest ErrorCode = "invalid_request"  // Envelope has no method
	ErrorCodeMethodNotFound ErrorCode = "method_not_found" // Method is not in the dispatch table

	// Validation errors
	ErrorCodeValidation ErrorCode = "validation_error" // Missing or malformed parameters

	// Upstream errors
	ErrorCodeUnauthorized ErrorCode = "unauthorized"   // GitHub rejected the token
	ErrorCodeForbidden    ErrorCode = "forbidden"      // Token lacks permission
	ErrorCodeNotFound     ErrorCode = "not_found"      // Remote resource does not exist
	ErrorCodeConflict     ErrorCode = "conflict"       // Stale sha or concurrent write
	ErrorCodeRateLimited  ErrorCode = "rate_limited"   // GitHub or gateway rate limit
	ErrorCodeUpstream     ErrorCode = "upstream_error" // Any other remote failure

	// System errors
	ErrorCodeInternal ErrorCode = "internal_error"
)

// Error is a failure that knows which envelope code it maps to.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
	// Stack is set for recovered panics, where no wrapped error carries one.
	Stack string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error with the given code and message
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewParseError reports a frame that could not be decoded
func NewParseError(err error) *Error {
	return &Error{Code: ErrorCodeParse, Message: "invalid JSON: " + err.Error(), Err: errors.WithStack(err)}
}

// NewInvalidRequestError reports a structurally invalid envelope
func NewInvalidRequestError(message string) *Error {
	return &Error{Code: ErrorCodeInvalidRequest, Message: message}
}

// NewMethodNotFoundError reports a method missing from the dispatch table
func NewMethodNotFoundError(method string) *Error {
	return &Error{Code: ErrorCodeMethodNotFound, Message: "unsupported method: " + method}
}

// NewValidationError reports invalid parameters
func NewValidationError(message string) *Error {
	return &Error{Code: ErrorCodeValidation, Message: message}
}

// NewMissingParametersError names every missing field, e.g. "owner and repo are required".
func NewMissingParametersError(fields []string) *Error {
	var subject string
	switch len(fields) {
	case 0:
		subject = "parameters"
	case 1:
		return NewValidationError(fields[0] + " is required")
	default:
		subject = strings.Join(fields[:len(fields)-1], ", ") + " and " + fields[len(fields)-1]
	}
	return NewValidationError(subject + " are required")
}

// NewUpstreamError wraps a remote failure with the operation that caused it.
func NewUpstreamError(code ErrorCode, op string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf("%s: %v", op, cause),
		Err:     errors.Wrap(cause, op),
	}
}

// NewInternalError wraps an unexpected failure
func NewInternalError(err error) *Error {
	return &Error{Code: ErrorCodeInternal, Message: err.Error(), Err: errors.WithStack(err)}
}

// CodeOf returns the envelope code for err; unknown failures are internal.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	return ErrorCodeInternal
}

// StackOf renders the deepest stack trace recorded for err, if any.
func StackOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Stack != "" {
		return e.Stack
	}

	type stackTracer interface {
		StackTrace() errors.StackTrace
	}

	var trace errors.StackTrace
	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		if st, ok := cur.(stackTracer); ok {
			trace = st.StackTrace()
		}
	}
	if trace == nil {
		return ""
	}
	return strings.TrimPrefix(fmt.Sprintf("%+v", trace), "\n")
}
