// Package domain defines the core domain models for sqld.
package domain

import (
	"errors"
	"fmt"
)

// DomainError is an error carrying a stable, structured code.
//
// Codes have the form SQLD-<AREA>-<NNNN>; the leading digit of the number
// mirrors the HTTP status class the error maps to.
type DomainError struct {
	Code    string // Error code (e.g., "SQLD-SNAP-5003")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap is shorthand for WithCause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Snapshot Index Errors (SNAP)
// ============================================================================

var (
	// ErrSnapshotNotFound indicates no registered range covers the frame.
	// The index itself reports absence as a plain false; this code is used
	// at the API boundary.
	ErrSnapshotNotFound = NewDomainError("SQLD-SNAP-4040", "snapshot not found")

	// ErrInvalidRange indicates start_frame_no > end_frame_no.
	ErrInvalidRange = NewDomainError("SQLD-SNAP-4001", "invalid frame range")

	// ErrRangeOverlap indicates the range intersects an already registered
	// range of the same database.
	ErrRangeOverlap = NewDomainError("SQLD-SNAP-4090", "frame range overlaps a registered snapshot")

	// ErrIndexInit indicates the index table could not be created or opened.
	// Fatal at startup.
	ErrIndexInit = NewDomainError("SQLD-SNAP-5001", "snapshot index initialization failed")

	// ErrIndexTxn indicates a transaction could not begin, read, write or commit.
	ErrIndexTxn = NewDomainError("SQLD-SNAP-5002", "snapshot index transaction failed")

	// ErrIndexCorrupt indicates stored bytes do not match the expected layout.
	ErrIndexCorrupt = NewDomainError("SQLD-SNAP-5003", "snapshot index corrupted")
)

// IsInitialization reports whether err is an index initialization failure.
func IsInitialization(err error) bool {
	return errors.Is(err, ErrIndexInit)
}

// IsTransaction reports whether err is an index transaction failure.
func IsTransaction(err error) bool {
	return errors.Is(err, ErrIndexTxn)
}

// IsCorruption reports whether err is an index corruption failure.
func IsCorruption(err error) bool {
	return errors.Is(err, ErrIndexCorrupt)
}

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("SQLD-SYS-5000", "internal server error")

	// ErrServiceUnavailable indicates the service is temporarily unavailable.
	ErrServiceUnavailable = NewDomainError("SQLD-SYS-5030", "service unavailable")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("SQLD-SYS-4000", "bad request")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("SQLD-SYS-4290", "too many requests")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("SQLD-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("SQLD-ARG-1002", "missing required argument")
)
