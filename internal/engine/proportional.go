package engine

import (
	"io"
	"os"
	"strings"

	"dubsync/internal/aligner"
	"dubsync/internal/job"
)

// clauseBoundaries lists the punctuation marks the proportional fallback
// splits on, in the order a clause ends, mirroring the Proportional
// Splitter's own break-preference list but applied without a target count.
var clauseBoundaries = []rune{'.', '!', '?', ';'}

// splitOnClauseBoundaries breaks text into sentence/clause-sized parts on
// ., !, ?, and ; without a target count, for the proportional fallback
// strategy which has no recognizer segment count to aim for.
func splitOnClauseBoundaries(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{" "}
	}

	var parts []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if isClauseBoundary(r) {
			part := strings.TrimSpace(current.String())
			if part != "" {
				parts = append(parts, part)
			}
			current.Reset()
		}
	}
	if rest := strings.TrimSpace(current.String()); rest != "" {
		parts = append(parts, rest)
	}
	if len(parts) == 0 {
		parts = append(parts, " ")
	}
	return parts
}

func isClauseBoundary(r rune) bool {
	for _, b := range clauseBoundaries {
		if r == b {
			return true
		}
	}
	return false
}

// allocateByCharacterProportion assigns each part a contiguous time slice
// of [0, originalDurationSecs] sized in proportion to its character
// weight, per spec.md §4.8 strategy 2.
func allocateByCharacterProportion(parts []string, originalDurationSecs float64) []job.TimedSegment {
	policy := aligner.CharacterCountPolicy{}
	weights := make([]float64, len(parts))
	total := 0.0
	for i, p := range parts {
		w := policy.Weight(p)
		weights[i] = w
		total += w
	}
	if total <= 0 {
		total = float64(len(parts))
		for i := range weights {
			weights[i] = 1
		}
	}

	segments := make([]job.TimedSegment, len(parts))
	cursor := 0.0
	for i, p := range parts {
		share := originalDurationSecs * weights[i] / total
		start := cursor
		end := cursor + share
		if i == len(parts)-1 {
			end = originalDurationSecs
		}
		segments[i] = job.TimedSegment{Text: p, StartSeconds: start, EndSeconds: end}
		cursor = end
	}
	return segments
}

func createFile(path string) (*os.File, error) {
	return os.Create(path)
}

func copyStream(dst io.Writer, src io.Reader) (int64, error) {
	return io.Copy(dst, src)
}
