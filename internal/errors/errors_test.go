package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestError_Message(t *testing.T) {
	err := NotFound("category not found")
	if err.Error() != "category not found" {
		t.Errorf("expected 'category not found', got %q", err.Error())
	}
}

func TestError_WrappedMessage(t *testing.T) {
	inner := stderrors.New("connection refused")
	err := Transport("failed to submit vote", inner)
	if err.Error() != "failed to submit vote: connection refused" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	inner := stderrors.New("boom")
	err := Wrap(inner, ErrInternal, "wrapped")
	if !stderrors.Is(err, inner) {
		t.Error("expected errors.Is to find the wrapped error")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err      error
		expected Kind
	}{
		{NotFound("x"), ErrNotFound},
		{NotFoundf("item %d", 3), ErrNotFound},
		{Validation("x"), ErrValidation},
		{Validationf("bad %s", "input"), ErrValidation},
		{Conflict("x"), ErrConflict},
		{Transport("x", nil), ErrTransport},
		{Private("x"), ErrPrivate},
		{Internal(stderrors.New("x")), ErrInternal},
		{Internalf("x %d", 1), ErrInternal},
		{stderrors.New("plain"), ErrInternal},
	}

	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.expected {
			t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.expected)
		}
	}
}

func TestKindOf_WrappedInFmt(t *testing.T) {
	err := fmt.Errorf("outer context: %w", Conflict("already voted"))
	if KindOf(err) != ErrConflict {
		t.Error("expected kind to survive fmt.Errorf wrapping")
	}
}

func TestIsKind(t *testing.T) {
	err := Private("Results are private until you vote")
	if !IsKind(err, ErrPrivate) {
		t.Error("expected IsKind to match ErrPrivate")
	}
	if IsKind(err, ErrNotFound) {
		t.Error("IsKind should not match a different kind")
	}
	if IsKind(stderrors.New("plain"), ErrInternal) {
		t.Error("IsKind should not match plain errors")
	}
	if IsKind(nil, ErrInternal) {
		t.Error("IsKind should not match nil")
	}
}
