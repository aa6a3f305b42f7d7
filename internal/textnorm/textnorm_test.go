package textnorm

import (
	"errors"
	"testing"
)

func TestNormalizeValidUTF8(t *testing.T) {
	got, err := Normalize("hello world")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got != "hello world" {
		t.Errorf("got %q, want %q", got, "hello world")
	}
}

func TestNormalizeComposesDecomposedAccents(t *testing.T) {
	// "e" (U+0065) followed by the combining acute accent (U+0301) is the
	// decomposed (NFD) spelling of U+00E9 ("e" with acute); Normalize
	// should fold the pair into the single composed code point.
	decomposed := "école"
	composed := "école"

	got, err := Normalize(decomposed)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got != composed {
		t.Errorf("Normalize(%q) = %q, want %q", decomposed, got, composed)
	}
	if len([]rune(got)) != len([]rune(decomposed))-1 {
		t.Errorf("expected normalization to merge two code points into one")
	}
}

func TestNormalizeRejectsInvalidUTF8(t *testing.T) {
	invalid := string([]byte{0xff, 0xfe, 0x00})
	_, err := Normalize(invalid)
	if !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("Normalize(invalid) error = %v, want ErrInvalidEncoding", err)
	}
}
