package utils

import (
	"strings"
	"testing"
)

func TestTruncateString(t *testing.T) {
	if got := TruncateString("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}

	got := TruncateString("abcdefghij", 4)
	if !strings.HasPrefix(got, "abcd...") || !strings.Contains(got, "total: 10 chars") {
		t.Errorf("got %q", got)
	}

	long := strings.Repeat("x", DefaultMaxStringLength+1)
	if got := TruncateString(long, 0); !strings.Contains(got, "truncated") {
		t.Errorf("zero maxLen should fall back to the default, got len %d", len(got))
	}
}
