package repository

import (
	"testing"
	"time"
)

func TestSessionCodeDateMatchesCounterBucket(t *testing.T) {
	// Just before midnight is where a second clock read could land on the
	// next day and disagree with the bucket the counter incremented.
	now := time.Date(2026, 8, 31, 23, 59, 59, 999999000, time.UTC)

	if got := sessionCodeBucket(now); got != "2026-08-31" {
		t.Fatalf("expected bucket 2026-08-31, got %s", got)
	}
	if got := formatSessionCode(now, 7); got != "FS-20260831-0007" {
		t.Fatalf("expected FS-20260831-0007, got %s", got)
	}
}

func TestFormatSessionCodePadsSequence(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		seq  int
		want string
	}{
		{1, "FS-20260901-0001"},
		{42, "FS-20260901-0042"},
		{9999, "FS-20260901-9999"},
		{10000, "FS-20260901-10000"},
	}
	for _, tc := range tests {
		if got := formatSessionCode(now, tc.seq); got != tc.want {
			t.Errorf("seq %d: expected %s, got %s", tc.seq, tc.want, got)
		}
	}
}
