package snirf

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by the typed errors below via errors.Is.
var (
	// ErrNotFound indicates that an input path does not exist.
	ErrNotFound = errors.New("not found")

	// ErrFormat indicates that a store lacks the expected SNIRF structure.
	ErrFormat = errors.New("invalid format")

	// ErrAccess indicates that a store cannot be opened or modified as requested.
	ErrAccess = errors.New("access denied")

	// ErrCopy indicates that a single probe field could not be copied.
	ErrCopy = errors.New("copy failed")

	// ErrReadOnly is returned when writing to a store opened read-only.
	ErrReadOnly = errors.New("store is read-only")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store is closed")
)

// NotFoundError reports a missing input path.
type NotFoundError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("file %s not found", e.Path)
}

// Is implements errors.Is support.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Unwrap implements errors.Unwrap.
func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// FormatError reports a store that is structurally invalid: not HDF5 at all,
// or missing an expected group.
type FormatError struct {
	Path   string
	Group  string // Missing group, empty when the file itself is unreadable.
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	switch {
	case e.Group != "":
		return fmt.Sprintf("%s: missing group %q", e.Path, e.Group)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Reason, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Path, e.Reason)
	}
}

// Is implements errors.Is support.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// Unwrap implements errors.Unwrap.
func (e *FormatError) Unwrap() error {
	return e.Err
}

// AccessError reports a store that cannot be opened for writing or whose
// changes cannot be committed.
type AccessError struct {
	Path string
	Op   string // "open", "create group", "close", ...
	Err  error
}

// Error implements the error interface.
func (e *AccessError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Is implements errors.Is support.
func (e *AccessError) Is(target error) bool {
	return target == ErrAccess
}

// Unwrap implements errors.Unwrap.
func (e *AccessError) Unwrap() error {
	return e.Err
}

// CopyError reports a failure to copy one probe field. It never aborts a run;
// the reconciler records it in the report and moves on to the next field.
type CopyError struct {
	Key string
	Err error
}

// Error implements the error interface.
func (e *CopyError) Error() string {
	return fmt.Sprintf("copy %q: %v", e.Key, e.Err)
}

// Is implements errors.Is support.
func (e *CopyError) Is(target error) bool {
	return target == ErrCopy
}

// Unwrap implements errors.Unwrap.
func (e *CopyError) Unwrap() error {
	return e.Err
}

// storeError is a contextual error used inside store implementations.
type storeError struct {
	Context string
	Cause   error
}

// Error implements the error interface.
func (e *storeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Context, e.Cause)
}

// Unwrap provides compatibility with errors.Unwrap().
func (e *storeError) Unwrap() error {
	return e.Cause
}

// wrapError creates a contextual error. It returns nil for a nil cause.
func wrapError(context string, cause error) error {
	if cause == nil {
		return nil
	}
	return &storeError{
		Context: context,
		Cause:   cause,
	}
}
