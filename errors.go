package fileref

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrNotExist        = errors.New("file does not exist")
	ErrNotAllowed      = errors.New("operation not allowed")
	ErrIsDir           = errors.New("is a directory")
	ErrNotDir          = errors.New("not a directory")
	ErrNotSupported    = errors.New("operation not supported")
	ErrInvalidSize     = errors.New("invalid file size")
	ErrTooLarge        = errors.New("file exceeds read limit")
	ErrSnapshotChanged = errors.New("file changed after it was selected")
	ErrInvalidFile     = errors.New("invalid file")

	// ErrNotAFile is wrapped by every DecodeError caused by a value that is
	// not structurally a file handle.
	ErrNotAFile = errors.New("expecting a file")

	// ErrUnknownSource is wrapped by a DecodeError when the value names a
	// source the host does not have.
	ErrUnknownSource = errors.New("unknown source")

	// ErrNoFiles is returned by single-file decoders given an empty selection.
	ErrNoFiles = errors.New("no files selected")
)

// PathError records an error and the operation and file path that caused it
type PathError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *PathError) Unwrap() error {
	return e.Err
}

// DecodeError reports a value that could not be decoded into a file.
type DecodeError struct {
	// Index is the position of the offending element when decoding a
	// sequence, or -1.
	Index int

	// Field names the offending field, if known.
	Field string

	Err error
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	msg := "decode file"
	if e.Index >= 0 {
		msg = fmt.Sprintf("decode file[%d]", e.Index)
	}
	if e.Field != "" {
		msg += " field " + e.Field
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

// Unwrap returns the underlying error
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// mismatch builds a DecodeError for a structural mismatch on field.
func mismatch(field, format string, args ...any) *DecodeError {
	return &DecodeError{
		Index: -1,
		Field: field,
		Err:   fmt.Errorf("%w: %s", ErrNotAFile, fmt.Sprintf(format, args...)),
	}
}

// IsDecodeError reports whether err is or wraps a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// IsNotExist reports whether an error indicates that a file does not exist
func IsNotExist(err error) bool {
	return errors.Is(err, ErrNotExist)
}

// IsSnapshotChanged reports whether a read failed because the file was
// modified after selection.
func IsSnapshotChanged(err error) bool {
	return errors.Is(err, ErrSnapshotChanged)
}
