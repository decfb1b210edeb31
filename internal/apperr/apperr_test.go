package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestKindOf(t *testing.T) {
	plain := errors.New("boom")
	if got := KindOf(plain); got != "" {
		t.Fatalf("expected empty kind for plain error, got %q", got)
	}

	err := New(KindNotFound, "missing")
	if got := KindOf(err); got != KindNotFound {
		t.Fatalf("expected %q, got %q", KindNotFound, got)
	}

	wrapped := fmt.Errorf("outer: %w", Wrap(KindStateConflict, "busy", plain))
	if got := KindOf(wrapped); got != KindStateConflict {
		t.Fatalf("expected kind to survive wrapping, got %q", got)
	}
	if !IsKind(wrapped, KindStateConflict) {
		t.Fatal("IsKind must see through fmt wrapping")
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		kind Kind
		want bool
	}{
		{KindIntegrity, false},
		{KindStateConflict, false},
		{KindConcurrentUpdate, true},
		{KindNotFound, false},
		{KindTransient, true},
	}
	for _, tc := range cases {
		if got := Retryable(New(tc.kind, "x")); got != tc.want {
			t.Errorf("Retryable(%s) = %v, want %v", tc.kind, got, tc.want)
		}
	}
	if Retryable(errors.New("plain")) {
		t.Error("unclassified errors must not be retryable")
	}
}

func TestErrorMessage(t *testing.T) {
	err := Wrap(KindTransient, "db down", errors.New("dial tcp: refused"))
	want := "TRANSIENT_INFRASTRUCTURE: db down (dial tcp: refused)"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}

func pgError(code, message string) error {
	return fmt.Errorf("query: %w", &pgconn.PgError{Code: code, Message: message})
}

func TestFromPG(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"lock timeout", pgError(PgErrLockNotAvailable, "lock not available"), KindTransient},
		{"deadlock", pgError(PgErrDeadlockDetected, "deadlock detected"), KindTransient},
		{"serialization", pgError(PgErrSerializationFail, "could not serialize"), KindTransient},
		{"duplicate", pgError(PgErrUniqueViolation, "duplicate key"), KindStateConflict},
		{"function not found", pgError(PgErrFulfillmentNotFound, "order not in session"), KindNotFound},
		{"function conflict", pgError(PgErrFulfillmentConflict, "no more units"), KindStateConflict},
		{"deadline", fmt.Errorf("exec: %w", context.DeadlineExceeded), KindTransient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FromPG(tc.err)
			if KindOf(got) != tc.want {
				t.Fatalf("FromPG(%v) classified as %q, want %q", tc.err, KindOf(got), tc.want)
			}
			if !errors.Is(got, errors.Unwrap(tc.err)) {
				t.Fatalf("FromPG lost the underlying error: %v", got)
			}
		})
	}
}

func TestFromPGKeepsStoredFunctionMessage(t *testing.T) {
	got := FromPG(pgError(PgErrFulfillmentConflict, "no more units available for product p1"))
	var appErr *Error
	if !errors.As(got, &appErr) {
		t.Fatalf("expected classified error, got %v", got)
	}
	if appErr.Message != "no more units available for product p1" {
		t.Fatalf("stored function message must surface verbatim, got %q", appErr.Message)
	}
}

func TestFromPGPassthrough(t *testing.T) {
	if FromPG(nil) != nil {
		t.Fatal("nil must stay nil")
	}

	already := New(KindIntegrity, "movements exist")
	if got := FromPG(already); got != already {
		t.Fatal("classified errors must pass through unchanged")
	}

	plain := errors.New("not a pg error")
	if got := FromPG(plain); got != plain {
		t.Fatal("unrecognized errors must pass through unchanged")
	}

	unknown := pgError("23503", "fk violation")
	if got := FromPG(unknown); KindOf(got) != "" {
		t.Fatalf("unmapped codes must not be classified, got %q", KindOf(got))
	}
}

func TestIsUndefinedFunction(t *testing.T) {
	if !IsUndefinedFunction(pgError(PgErrUndefinedFunction, "function increment_packing does not exist")) {
		t.Fatal("42883 must be detected")
	}
	if IsUndefinedFunction(pgError(PgErrUniqueViolation, "duplicate key")) {
		t.Fatal("other codes must not match")
	}
	if IsUndefinedFunction(errors.New("plain")) {
		t.Fatal("plain errors must not match")
	}
}
