package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Roost error code.
type ErrorCode string

const (
	ErrStoreUnavailable   ErrorCode = "STORE_UNAVAILABLE"
	ErrInvalidReference   ErrorCode = "INVALID_REFERENCE"
	ErrFetchFailure       ErrorCode = "FETCH_FAILURE"
	ErrEmptyArchive       ErrorCode = "EMPTY_ARCHIVE" // informational, exit 0
	ErrDuplicateReference ErrorCode = "DUPLICATE_REFERENCE"
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrFileNotFound       ErrorCode = "FILE_NOT_FOUND"
	ErrCancelled          ErrorCode = "CANCELLED"
	ErrInternal           ErrorCode = "INTERNAL"
)

// RoostError represents a structured error with code, process exit code, and details.
type RoostError struct {
	Code     ErrorCode
	ExitCode int
	Message  string
	Details  map[string]any
	Err      error
}

// Error implements the error interface.
func (e *RoostError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *RoostError) Unwrap() error {
	return e.Err
}

// NewStoreUnavailable creates an error for document store I/O failures.
func NewStoreUnavailable(op string, err error) *RoostError {
	msg := fmt.Sprintf("archive store unavailable during %s", op)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &RoostError{
		Code:     ErrStoreUnavailable,
		ExitCode: 1,
		Message:  msg,
		Details:  map[string]any{"op": op},
		Err:      err,
	}
}

// NewInvalidReference creates an error for input that does not identify a post.
func NewInvalidReference(ref string) *RoostError {
	return &RoostError{
		Code:     ErrInvalidReference,
		ExitCode: 1,
		Message:  fmt.Sprintf("not a post reference: %q", ref),
		Details:  map[string]any{"reference": ref},
	}
}

// NewFetchFailure creates an error for API or image download failures.
func NewFetchFailure(target string, err error) *RoostError {
	msg := fmt.Sprintf("fetch failed: %s", target)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &RoostError{
		Code:     ErrFetchFailure,
		ExitCode: 1,
		Message:  msg,
		Details:  map[string]any{"target": target},
		Err:      err,
	}
}

// NewEmptyArchive creates the informational error returned when there is nothing to render.
func NewEmptyArchive() *RoostError {
	return &RoostError{
		Code:     ErrEmptyArchive,
		ExitCode: 0,
		Message:  "no posts found",
	}
}

// NewDuplicateReference creates an error for a post id that is already archived.
func NewDuplicateReference(postID string) *RoostError {
	return &RoostError{
		Code:     ErrDuplicateReference,
		ExitCode: 1,
		Message:  fmt.Sprintf("post %s is already archived", postID),
		Details:  map[string]any{"id": postID},
	}
}

// NewInvalidRequest creates an error for invalid command parameters.
func NewInvalidRequest(msg string) *RoostError {
	return &RoostError{
		Code:     ErrInvalidRequest,
		ExitCode: 1,
		Message:  msg,
	}
}

// NewFileNotFound creates an error for a missing import file.
func NewFileNotFound(path string) *RoostError {
	return &RoostError{
		Code:     ErrFileNotFound,
		ExitCode: 1,
		Message:  fmt.Sprintf("file not found: %s", path),
		Details:  map[string]any{"path": path},
	}
}

// NewCancelled creates an error for an operation aborted by its context.
func NewCancelled(op string) *RoostError {
	return &RoostError{
		Code:     ErrCancelled,
		ExitCode: 1,
		Message:  fmt.Sprintf("%s cancelled", op),
	}
}

// NewInternal creates an error for unexpected internal errors.
func NewInternal(err error) *RoostError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &RoostError{
		Code:     ErrInternal,
		ExitCode: 1,
		Message:  msg,
		Err:      err,
	}
}

// Is checks if an error (or anything it wraps) is a RoostError with the given code.
func Is(err error, code ErrorCode) bool {
	var rErr *RoostError
	if stderrors.As(err, &rErr) {
		return rErr.Code == code
	}
	return false
}

// ExitCode returns the process exit code for err. Errors that are not a
// RoostError exit with 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var rErr *RoostError
	if stderrors.As(err, &rErr) {
		return rErr.ExitCode
	}
	return 1
}
