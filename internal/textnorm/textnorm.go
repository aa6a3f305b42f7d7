// Package textnorm validates and normalizes translator output before it
// reaches the voice synthesizer.
//
// The engine trusts that translated text is well-formed UTF-8; rather than
// guess at a source encoding when it isn't, Normalize fails loudly so the
// caller can surface the upstream translator bug instead of silently
// mangling text.
package textnorm

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidEncoding marks translator output that is not valid UTF-8.
var ErrInvalidEncoding = errors.New("invalid text encoding")

// Normalize validates that text is well-formed UTF-8 and returns it in NFC
// (canonical composition) form, which keeps per-character proportional
// splitting and length-based redistribution consistent regardless of how
// the translator composed accents and diacritics.
func Normalize(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", fmt.Errorf("textnorm: %w", ErrInvalidEncoding)
	}
	return norm.NFC.String(text), nil
}
