// Package errors defines the error kinds shared by the gateway so callers can
// tell "not found" from "ontology is broken" from "store unreachable".
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies an error for handling purposes
type Kind int

const (
	// KindInternal is any error that has no more specific kind
	KindInternal Kind = iota
	// KindNotFound means the class or instance is absent
	KindNotFound
	// KindInvalidParam means the request carried an unusable parameter
	KindInvalidParam
	// KindInvalidSchemaData means the ontology itself is inconsistent
	KindInvalidSchemaData
	// KindTransport means the triplestore could not be reached or answered badly
	KindTransport
	// KindTimeout means the request context expired while waiting on the triplestore
	KindTimeout
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidParam:
		return "invalid_param"
	case KindInvalidSchemaData:
		return "invalid_schema_data"
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	default:
		return "internal"
	}
}

// ErrNotFound is the sentinel wrapped by every not-found error
var ErrNotFound = errors.New("not found")

// NotFound builds an error wrapping ErrNotFound with a formatted message
func NotFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// InvalidSchemaDataError reports an inconsistency in the ontology, such as a
// non-integer cardinality or an unsupported predicate kind.
type InvalidSchemaDataError struct {
	Message string
}

func (e *InvalidSchemaDataError) Error() string {
	return "invalid schema data: " + e.Message
}

// InvalidSchemaData builds an InvalidSchemaDataError with a formatted message
func InvalidSchemaData(format string, args ...interface{}) error {
	return &InvalidSchemaDataError{Message: fmt.Sprintf(format, args...)}
}

// IsInvalidSchemaData reports whether err is an InvalidSchemaDataError
func IsInvalidSchemaData(err error) bool {
	var e *InvalidSchemaDataError
	return errors.As(err, &e)
}

// InvalidParamError reports a query-string parameter that cannot be used
type InvalidParamError struct {
	Param  string
	Reason string
}

func (e *InvalidParamError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid parameter %q", e.Param)
	}
	return fmt.Sprintf("invalid parameter %q: %s", e.Param, e.Reason)
}

// InvalidParam builds an InvalidParamError
func InvalidParam(param, reason string) error {
	return &InvalidParamError{Param: param, Reason: reason}
}

// IsInvalidParam reports whether err is an InvalidParamError
func IsInvalidParam(err error) bool {
	var e *InvalidParamError
	return errors.As(err, &e)
}

// TransportError wraps a failed call to the triplestore
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("triplestore %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("triplestore %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is a TransportError
func IsTransport(err error) bool {
	var e *TransportError
	return errors.As(err, &e)
}

// Classify returns the Kind of err. Timeouts are checked before transport
// errors because a cancelled triplestore call is wrapped in a TransportError.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case IsNotFound(err):
		return KindNotFound
	case IsInvalidParam(err):
		return KindInvalidParam
	case IsInvalidSchemaData(err):
		return KindInvalidSchemaData
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case IsTransport(err):
		return KindTransport
	default:
		return KindInternal
	}
}
