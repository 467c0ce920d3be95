package utils

import (
	"strings"
	"testing"
)

func TestChallengeCodeShape(t *testing.T) {
	code := ChallengeCode("Magnus Carlsen")
	if !strings.HasPrefix(code, "magnus-carlsen-") {
		t.Fatalf("expected slugged username prefix, got %q", code)
	}
	suffix := code[strings.LastIndex(code, "-")+1:]
	if len(suffix) != 6 {
		t.Fatalf("expected 6-char suffix, got %q", suffix)
	}
}

func TestChallengeCodeEmptyUsername(t *testing.T) {
	code := ChallengeCode("!!!")
	if !strings.HasPrefix(code, "challenge-") {
		t.Fatalf("expected fallback prefix for unsluggable username, got %q", code)
	}
}

func TestChallengeCodeUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code := ChallengeCode("alice")
		if seen[code] {
			t.Fatalf("duplicate code %q after %d iterations", code, i)
		}
		seen[code] = true
	}
}
