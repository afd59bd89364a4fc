package types

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// ErrorCode identifies the class of a platformlog error.
type ErrorCode int

const (
	// ErrCodeUnknown represents an unknown error
	ErrCodeUnknown ErrorCode = iota

	// Construction errors
	ErrCodeInvalidArgument
	ErrCodeInvalidConfig
	ErrCodePlatformUnsupported

	// Write errors
	ErrCodePlatformWrite
	ErrCodeFormatFailed

	// Event source errors
	ErrCodeSourceMismatch
	ErrCodeSourceManagement
	ErrCodeSourceNotFound
)

// Common errors that can be compared with errors.Is(). A *Error matches the
// sentinel of its code.
var (
	// ErrInvalidArgument is returned for missing or malformed constructor arguments
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidConfig is returned when configuration values cannot be used
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrPlatformUnsupported is returned when the requested log facility is not available on this host
	ErrPlatformUnsupported = errors.New("platform not supported")

	// ErrPlatformWrite is returned when the platform log store rejects a write
	ErrPlatformWrite = errors.New("platform write failed")

	// ErrFormatFailed is returned when a formatter cannot render an event
	ErrFormatFailed = errors.New("format failed")

	// ErrSourceMismatch is returned when a source is registered to a different log than the one written to
	ErrSourceMismatch = errors.New("source registered to a different log")

	// ErrSourceManagement is returned when creating or deleting an event source fails
	ErrSourceManagement = errors.New("event source management failed")

	// ErrSourceNotFound is returned when an event source does not exist
	ErrSourceNotFound = errors.New("event source not found")
)

var sentinels = map[ErrorCode]error{
	ErrCodeInvalidArgument:     ErrInvalidArgument,
	ErrCodeInvalidConfig:       ErrInvalidConfig,
	ErrCodePlatformUnsupported: ErrPlatformUnsupported,
	ErrCodePlatformWrite:       ErrPlatformWrite,
	ErrCodeFormatFailed:        ErrFormatFailed,
	ErrCodeSourceMismatch:      ErrSourceMismatch,
	ErrCodeSourceManagement:    ErrSourceManagement,
	ErrCodeSourceNotFound:      ErrSourceNotFound,
}

// String implements the Stringer interface for ErrorCode
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeUnknown:
		return "Unknown"
	case ErrCodeInvalidArgument:
		return "InvalidArgument"
	case ErrCodeInvalidConfig:
		return "InvalidConfig"
	case ErrCodePlatformUnsupported:
		return "PlatformUnsupported"
	case ErrCodePlatformWrite:
		return "PlatformWrite"
	case ErrCodeFormatFailed:
		return "FormatFailed"
	case ErrCodeSourceMismatch:
		return "SourceMismatch"
	case ErrCodeSourceManagement:
		return "SourceManagement"
	case ErrCodeSourceNotFound:
		return "SourceNotFound"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}

// Error is a structured error with the operation and target that failed.
type Error struct {
	Code    ErrorCode
	Op      string                 // Operation that failed (e.g., "emit", "create source")
	Target  string                 // Source, log or argument name
	Err     error                  // Underlying error
	Time    time.Time              // When the error occurred
	Context map[string]interface{} // Additional context
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s failed on %s: %v", e.Op, e.Target, e.cause())
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.cause())
}

func (e *Error) cause() error {
	if e.Err != nil {
		return e.Err
	}
	if s, ok := sentinels[e.Code]; ok {
		return s
	}
	return errors.New(e.Code.String())
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same code, or the sentinel for e's code.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	if s, ok := sentinels[e.Code]; ok && s == target {
		return true
	}
	return false
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewError creates a new Error. The underlying error is given a stack trace
// if it does not already carry one.
func NewError(code ErrorCode, op, target string, err error) *Error {
	if err != nil {
		if _, ok := err.(interface{ StackTrace() errors.StackTrace }); !ok {
			err = errors.WithStack(err)
		}
	}
	return &Error{
		Code:   code,
		Op:     op,
		Target: target,
		Err:    err,
		Time:   time.Now(),
	}
}

// InvalidArgument creates an ErrCodeInvalidArgument error for the named argument.
func InvalidArgument(op, name, reason string) *Error {
	return NewError(ErrCodeInvalidArgument, op, name, errors.New(reason))
}

// PlatformUnsupported creates an ErrCodePlatformUnsupported error.
func PlatformUnsupported(op, facility string, err error) *Error {
	if err == nil {
		err = errors.New("facility not available on this host")
	}
	return NewError(ErrCodePlatformUnsupported, op, facility, err)
}

// PlatformWrite wraps a failed platform write.
func PlatformWrite(target string, err error) *Error {
	return NewError(ErrCodePlatformWrite, "write entry", target, err)
}

// CodeOf returns the ErrorCode carried by err, or ErrCodeUnknown.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeUnknown
}
