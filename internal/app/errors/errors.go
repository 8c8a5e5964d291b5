package errors

import (
	"fmt"
)

// Common error types
var (
	// Configuration errors
	ErrMissingAPIKey    = New("API key is required")
	ErrInvalidConfig    = New("invalid configuration")
	ErrUnknownProvider  = New("unknown transcription provider")
	ErrInputDirNotFound = New("input folder not found")

	// Ledger errors
	ErrLedgerRead   = New("ledger read failed")
	ErrLedgerWrite  = New("ledger write failed")
	ErrBackupFailed = New("ledger backup failed")

	// Transcription errors
	ErrAudioDecode     = New("audio decode failed")
	ErrTranscription   = New("transcription failed")
	ErrResponseInvalid = New("invalid response")
)

// Error represents a standardized error
type Error struct {
	message string
	cause   error
}

// New creates a new error
func New(message string) *Error {
	return &Error{message: message}
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{
		message: fmt.Sprintf(format, args...),
		cause:   err,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is checks if the error matches target
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.message == t.message
}

// Mark attaches a sentinel to err so that errors.Is(result, sentinel) holds
// while the message keeps the original detail.
func Mark(err error, sentinel *Error) error {
	if err == nil {
		return nil
	}
	return &Error{
		message: sentinel.message,
		cause:   err,
	}
}
