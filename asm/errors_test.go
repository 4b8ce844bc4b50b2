package asm

import (
	"errors"
	"strconv"
	"strings"
	"testing"
)

func TestErrorUnwrapsWrappedCause(t *testing.T) {
	_, err := parseLiteralRaw(Position{}, "not-a-number")
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Wrapped == nil {
		t.Fatal("expected a wrapped cause")
	}

	var numErr *strconv.NumError
	if !errors.As(err, &numErr) {
		t.Error("errors.As should reach the wrapped *strconv.NumError")
	}
}

func TestErrorWithoutWrappedCauseUnwrapsToNil(t *testing.T) {
	err := newError(Position{}, ErrSyntax, "unexpected token")
	if err.Unwrap() != nil {
		t.Errorf("Unwrap() = %v, want nil", err.Unwrap())
	}
}

func TestErrorMessageIncludesWrappedCause(t *testing.T) {
	_, err := parseLiteralRaw(Position{Filename: "f.vx", Line: 1, Column: 1}, "0xZZ")
	if err == nil {
		t.Fatal("expected an error")
	}
	msg := err.Error()
	if msg == "" {
		t.Fatal("expected a non-empty message")
	}
	// The formatted message embeds the wrapped strconv error text.
	if wrapped := errors.Unwrap(err).Error(); !strings.Contains(msg, wrapped) {
		t.Errorf("message %q does not include wrapped cause %q", msg, wrapped)
	}
}
