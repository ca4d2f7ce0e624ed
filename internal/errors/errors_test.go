package errors

import (
	"fmt"
	"testing"
)

func TestRoostError_Error(t *testing.T) {
	err := &RoostError{
		Code:     ErrInvalidReference,
		ExitCode: 1,
		Message:  "not a post reference",
	}

	expected := "INVALID_REFERENCE: not a post reference"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewStoreUnavailable(t *testing.T) {
	cause := fmt.Errorf("disk I/O error")
	err := NewStoreUnavailable("load", cause)

	if err.Code != ErrStoreUnavailable {
		t.Errorf("Code = %q, want %q", err.Code, ErrStoreUnavailable)
	}
	if err.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", err.ExitCode)
	}
	if err.Details["op"] != "load" {
		t.Errorf("Details[op] = %v, want %q", err.Details["op"], "load")
	}
	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want cause", err.Unwrap())
	}
}

func TestNewInvalidReference(t *testing.T) {
	err := NewInvalidReference("https://example.com/nope")

	if err.Code != ErrInvalidReference {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidReference)
	}
	if err.Details["reference"] != "https://example.com/nope" {
		t.Errorf("Details[reference] = %v", err.Details["reference"])
	}
}

func TestNewFetchFailure(t *testing.T) {
	err := NewFetchFailure("https://pbs.twimg.com/a.jpg", fmt.Errorf("status 404"))

	if err.Code != ErrFetchFailure {
		t.Errorf("Code = %q, want %q", err.Code, ErrFetchFailure)
	}
	if err.Message != "fetch failed: https://pbs.twimg.com/a.jpg: status 404" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestNewEmptyArchive_ExitsZero(t *testing.T) {
	err := NewEmptyArchive()

	if err.Code != ErrEmptyArchive {
		t.Errorf("Code = %q, want %q", err.Code, ErrEmptyArchive)
	}
	if err.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", err.ExitCode)
	}
}

func TestNewDuplicateReference(t *testing.T) {
	err := NewDuplicateReference("1234")

	if err.Code != ErrDuplicateReference {
		t.Errorf("Code = %q, want %q", err.Code, ErrDuplicateReference)
	}
	if err.Details["id"] != "1234" {
		t.Errorf("Details[id] = %v, want %q", err.Details["id"], "1234")
	}
}

func TestNewInternal_NilError(t *testing.T) {
	err := NewInternal(nil)

	if err.Message != "internal error" {
		t.Errorf("Message = %q, want %q", err.Message, "internal error")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"matching code", NewEmptyArchive(), ErrEmptyArchive, true},
		{"different code", NewEmptyArchive(), ErrInternal, false},
		{"wrapped", fmt.Errorf("add: %w", NewFetchFailure("x", nil)), ErrFetchFailure, true},
		{"plain error", fmt.Errorf("boom"), ErrInternal, false},
		{"nil", nil, ErrInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	if got := ExitCode(nil); got != 0 {
		t.Errorf("ExitCode(nil) = %d, want 0", got)
	}
	if got := ExitCode(NewEmptyArchive()); got != 0 {
		t.Errorf("ExitCode(EmptyArchive) = %d, want 0", got)
	}
	if got := ExitCode(NewInvalidReference("x")); got != 1 {
		t.Errorf("ExitCode(InvalidReference) = %d, want 1", got)
	}
	if got := ExitCode(fmt.Errorf("plain")); got != 1 {
		t.Errorf("ExitCode(plain) = %d, want 1", got)
	}
}
