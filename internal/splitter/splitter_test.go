package splitter

import (
	"errors"
	"strings"
	"testing"
)

func TestSplitRejectsNonPositiveN(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := Split("hello", n, 0.2)
		if !errors.Is(err, ErrEmptyTarget) {
			t.Errorf("Split(_, %d) error = %v, want ErrEmptyTarget", n, err)
		}
	}
}

func TestSplitSingleIsIdentity(t *testing.T) {
	parts, err := Split("hello world", 1, 0.2)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(parts) != 1 || parts[0] != "hello world" {
		t.Errorf("Split(_, 1) = %v, want [%q]", parts, "hello world")
	}
}

func TestSplitAlwaysReturnsExactlyN(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog. It was a sunny day, and the birds were singing!"
	for n := 1; n <= 10; n++ {
		parts, err := Split(text, n, 0.2)
		if err != nil {
			t.Fatalf("Split(_, %d): %v", n, err)
		}
		if len(parts) != n {
			t.Fatalf("Split(_, %d) returned %d parts, want %d", n, len(parts), n)
		}
		for i, p := range parts {
			if p == "" {
				t.Errorf("part %d is empty", i)
			}
		}
	}
}

func TestSplitShortTextManyParts(t *testing.T) {
	// N == len(T): one character per part, still exactly N non-empty parts.
	text := "abcde"
	parts, err := Split(text, len(text), 0.2)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(parts) != len(text) {
		t.Fatalf("got %d parts, want %d", len(parts), len(text))
	}
	for _, p := range parts {
		if p == "" {
			t.Error("expected no empty parts")
		}
	}
}

func TestSplitEmptyTextPadsWithSpaces(t *testing.T) {
	parts, err := Split("", 3, 0.2)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(parts) != 3 {
		t.Fatalf("got %d parts, want 3", len(parts))
	}
	for _, p := range parts {
		if p != " " {
			t.Errorf("expected placeholder space, got %q", p)
		}
	}
}

func TestSplitPreservesNonWhitespaceCharacters(t *testing.T) {
	text := "alpha beta gamma delta epsilon zeta eta theta"
	parts, err := Split(text, 4, 0.2)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	joined := strings.Join(parts, "")
	strippedJoined := strings.ReplaceAll(joined, " ", "")
	strippedOriginal := strings.ReplaceAll(text, " ", "")
	if strippedJoined != strippedOriginal {
		t.Errorf("non-whitespace characters not preserved:\ngot:  %q\nwant: %q", strippedJoined, strippedOriginal)
	}
}

func TestSplitPrefersSentenceBoundaries(t *testing.T) {
	text := "First sentence here. Second sentence follows."
	parts, err := Split(text, 2, 0.2)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("got %d parts, want 2", len(parts))
	}
	if !strings.HasSuffix(strings.TrimSpace(parts[0]), ".") {
		t.Errorf("expected first part to end at a sentence boundary, got %q", parts[0])
	}
}
