package domain

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. Each concrete error type below matches one of them.
var (
	ErrValidation    = errors.New("validation error")
	ErrTransport     = errors.New("transport error")
	ErrProtocol      = errors.New("protocol error")
	ErrUnknownAction = errors.New("unknown action")
)

// ValidationError is returned before any network activity when an argument
// is outside its documented range.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// RangeError builds a ValidationError for an integer outside [min, max].
func RangeError(field string, value, min, max int) *ValidationError {
	return &ValidationError{
		Field:  field,
		Value:  value,
		Reason: fmt.Sprintf("must be between %d and %d", min, max),
	}
}

// CheckRange returns a RangeError when value is outside [min, max].
func CheckRange(field string, value, min, max int) error {
	if value < min || value > max {
		return RangeError(field, value, min, max)
	}
	return nil
}

// TransportError means the round trip did not produce a usable JSON object:
// connection failure, timeout, bad HTTP status, or a body that is not JSON.
type TransportError struct {
	Command CommandName
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sending %s: %v", e.Command, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// ProtocolError means the device answered with JSON whose error_code is
// missing or non-zero.
type ProtocolError struct {
	Command CommandName
	Code    int
	// CodeKnown is false when error_code was absent or not an integer.
	CodeKnown bool
}

func (e *ProtocolError) Error() string {
	if !e.CodeKnown {
		return fmt.Sprintf("%s failed with error code: unknown", e.Command)
	}
	return fmt.Sprintf("%s failed with error code: %d", e.Command, e.Code)
}

func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }

// StatusError is wrapped in a TransportError when the device answers with a
// non-2xx HTTP status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d: %s", e.StatusCode, e.Body)
}

// Error kinds reported in ActionResult and the journal.
const (
	KindValidation    = "validation"
	KindTransport     = "transport"
	KindProtocol      = "protocol"
	KindUnknownAction = "unknown_action"
	KindInternal      = "internal"
)

// ErrorKind classifies err into one of the Kind constants. It returns "" for nil.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrProtocol):
		return KindProtocol
	case errors.Is(err, ErrTransport):
		return KindTransport
	case errors.Is(err, ErrUnknownAction):
		return KindUnknownAction
	default:
		return KindInternal
	}
}

// ErrorCode returns the device error code carried by err, if any.
func ErrorCode(err error) (int, bool) {
	var perr *ProtocolError
	if errors.As(err, &perr) && perr.CodeKnown {
		return perr.Code, true
	}
	return 0, false
}
