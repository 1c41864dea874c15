package errorsx

import (
	"errors"
	"fmt"
)

// ClientError wraps an error with a reason code. It is the single root type of
// every error the SDK returns: callers match broadly with errors.As, or
// narrowly with HasReason.
type ClientError struct {
	Err    error
	Reason ReasonCode
}

func (e ClientError) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return e.Err.Error()
}

func (e ClientError) Unwrap() error {
	return e.Err
}

// New creates a reasoned error from a message.
func New(reason ReasonCode, msg string) error {
	return ClientError{Err: errors.New(msg), Reason: reason}
}

// Newf creates a reasoned error from a format string.
func Newf(reason ReasonCode, format string, args ...any) error {
	return ClientError{Err: fmt.Errorf(format, args...), Reason: reason}
}

// Wrap attaches a reason code to an error (no-op if err is nil or already reasoned).
func Wrap(err error, reason ReasonCode) error {
	if err == nil {
		return nil
	}
	var ce ClientError
	if errors.As(err, &ce) {
		return err
	}
	return ClientError{Err: err, Reason: reason}
}

// Reason extracts a reason code from an error, if present.
func Reason(err error) ReasonCode {
	if err == nil {
		return ReasonUnknown
	}
	var ce ClientError
	if errors.As(err, &ce) {
		return ce.Reason
	}
	return ReasonUnknown
}

// HasReason returns true if err carries the given reason code.
func HasReason(err error, reason ReasonCode) bool {
	return Reason(err) == reason
}
