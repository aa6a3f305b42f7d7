// Package aligner produces timed segments from translated text parts and
// recognizer intervals, handling the three count regimes the upstream
// splitter and recognizer can disagree on.
package aligner

import (
	"errors"
	"fmt"
	"math"

	"dubsync/internal/job"
)

// ErrInvalidTimestamps marks a recognizer segment with a non-finite or
// non-numeric start/end.
var ErrInvalidTimestamps = errors.New("aligner: invalid recognizer timestamps")

// minSegmentSeconds is the floor applied when repairing a recognizer
// segment whose end does not strictly exceed its start.
const minSegmentSeconds = 0.1

// maxReasonableGapSeconds is the threshold past which a gap between
// consecutive aligned segments is logged as a warning by the caller.
const maxReasonableGapSeconds = 5.0

// RedistributionPolicy decides how much weight a translated part
// contributes when Case C redistributes a shared interval across a run of
// parts that collapsed onto the same recognizer segment.
type RedistributionPolicy interface {
	Weight(text string) float64
}

// CharacterCountPolicy weighs by UTF-8 byte length, matching the
// reference behaviour of most one-to-one transliteration pipelines. It is
// the default policy.
type CharacterCountPolicy struct{}

func (CharacterCountPolicy) Weight(text string) float64 {
	if len(text) == 0 {
		return 1
	}
	return float64(len(text))
}

// RuneCountPolicy weighs by Unicode code point count instead of raw bytes,
// which better reflects spoken duration for character-dense scripts
// (Chinese, Japanese) where multi-byte runes would otherwise be
// overweighted by CharacterCountPolicy.
type RuneCountPolicy struct{}

func (RuneCountPolicy) Weight(text string) float64 {
	n := len([]rune(text))
	if n == 0 {
		return 1
	}
	return float64(n)
}

// Warning describes a non-fatal anomaly detected during alignment.
type Warning struct {
	Index   int
	Message string
}

// Result is the aligner's output: the repaired timed segments plus any
// warnings raised while repairing overlaps or gaps.
type Result struct {
	Segments []job.TimedSegment
	Warnings []Warning
}

// Align produces timed segments from translatedParts and recognized,
// clamping the final segment's end to originalDurationSecs. policy is used
// only in Case C's overlap redistribution; pass nil to use
// CharacterCountPolicy.
func Align(translatedParts []string, recognized []job.RecognizerSegment, originalDurationSecs float64, policy RedistributionPolicy) (Result, error) {
	if policy == nil {
		policy = CharacterCountPolicy{}
	}

	recognized, err := validateAndRepair(recognized)
	if err != nil {
		return Result{}, err
	}

	m := len(translatedParts)
	r := len(recognized)

	var segments []job.TimedSegment
	switch {
	case m == r:
		segments = alignCaseA(translatedParts, recognized)
	case m < r:
		segments = alignCaseB(translatedParts, recognized)
	default:
		segments = alignCaseC(translatedParts, recognized, policy)
	}

	result := Result{Segments: segments}
	repairOverlaps(&result)
	clampToOriginalDuration(&result, originalDurationSecs)
	return result, nil
}

func validateAndRepair(segments []job.RecognizerSegment) ([]job.RecognizerSegment, error) {
	out := make([]job.RecognizerSegment, len(segments))
	for i, s := range segments {
		if math.IsNaN(s.StartSeconds) || math.IsNaN(s.EndSeconds) || math.IsInf(s.StartSeconds, 0) || math.IsInf(s.EndSeconds, 0) {
			return nil, fmt.Errorf("%w: segment %d", ErrInvalidTimestamps, i)
		}
		if s.StartSeconds >= s.EndSeconds {
			s.EndSeconds = s.StartSeconds + minSegmentSeconds
		}
		out[i] = s
	}
	return out, nil
}

func alignCaseA(parts []string, recognized []job.RecognizerSegment) []job.TimedSegment {
	segments := make([]job.TimedSegment, len(parts))
	for i, p := range parts {
		segments[i] = job.TimedSegment{
			Text:         nonEmptyOrPlaceholder(p),
			StartSeconds: recognized[i].StartSeconds,
			EndSeconds:   recognized[i].EndSeconds,
		}
	}
	return segments
}

// alignCaseB handles fewer translated parts than recognizer segments: each
// recognizer segment maps onto one translated index by position, and
// translated indices that receive at least one recognizer segment inherit
// the span from the first to the last contributing recognizer interval.
func alignCaseB(parts []string, recognized []job.RecognizerSegment) []job.TimedSegment {
	m := len(parts)
	r := len(recognized)
	ratio := float64(m) / float64(r)

	type span struct {
		start, end float64
		has        bool
	}
	spans := make([]span, m)

	for i, seg := range recognized {
		idx := int(math.Floor(float64(i) * ratio))
		if idx >= m {
			idx = m - 1
		}
		if !spans[idx].has {
			spans[idx] = span{start: seg.StartSeconds, end: seg.EndSeconds, has: true}
			continue
		}
		if seg.StartSeconds < spans[idx].start {
			spans[idx].start = seg.StartSeconds
		}
		if seg.EndSeconds > spans[idx].end {
			spans[idx].end = seg.EndSeconds
		}
	}

	segments := make([]job.TimedSegment, 0, m)
	for i, sp := range spans {
		if !sp.has {
			continue
		}
		segments = append(segments, job.TimedSegment{
			Text:         nonEmptyOrPlaceholder(parts[i]),
			StartSeconds: sp.start,
			EndSeconds:   sp.end,
		})
	}
	return segments
}

// alignCaseC handles more translated parts than recognizer segments: each
// translated index picks one recognizer interval by position, then any run
// of consecutive translated indices sharing the same interval is made
// contiguous by redistributing that interval proportionally by weight.
func alignCaseC(parts []string, recognized []job.RecognizerSegment, policy RedistributionPolicy) []job.TimedSegment {
	m := len(parts)
	r := len(recognized)
	ratio := float64(r) / float64(m)

	recIndex := make([]int, m)
	for i := 0; i < m; i++ {
		j := int(math.Floor(float64(i) * ratio))
		if j >= r {
			j = r - 1
		}
		recIndex[i] = j
	}

	segments := make([]job.TimedSegment, m)
	i := 0
	for i < m {
		k := i
		for k+1 < m && recIndex[k+1] == recIndex[i] {
			k++
		}
		interval := recognized[recIndex[i]]
		redistributeRun(segments, parts, i, k, interval.StartSeconds, interval.EndSeconds, policy)
		i = k + 1
	}
	return segments
}

func redistributeRun(segments []job.TimedSegment, parts []string, lo, hi int, start, end float64, policy RedistributionPolicy) {
	if lo == hi {
		segments[lo] = job.TimedSegment{Text: nonEmptyOrPlaceholder(parts[lo]), StartSeconds: start, EndSeconds: end}
		return
	}

	weights := make([]float64, hi-lo+1)
	total := 0.0
	for i := lo; i <= hi; i++ {
		w := policy.Weight(parts[i])
		weights[i-lo] = w
		total += w
	}
	if total <= 0 {
		total = float64(hi - lo + 1)
		for i := range weights {
			weights[i] = 1
		}
	}

	duration := end - start
	cursor := start
	for i := lo; i <= hi; i++ {
		share := duration * weights[i-lo] / total
		segStart := cursor
		segEnd := cursor + share
		if i == hi {
			segEnd = end
		}
		segments[i] = job.TimedSegment{Text: nonEmptyOrPlaceholder(parts[i]), StartSeconds: segStart, EndSeconds: segEnd}
		cursor = segEnd
	}
}

func repairOverlaps(result *Result) {
	segs := result.Segments
	for i := 1; i < len(segs); i++ {
		if segs[i].StartSeconds < segs[i-1].EndSeconds {
			overlap := segs[i-1].EndSeconds - segs[i].StartSeconds
			segs[i].StartSeconds = segs[i-1].EndSeconds
			if segs[i].EndSeconds < segs[i].StartSeconds {
				segs[i].EndSeconds = segs[i].StartSeconds + minSegmentSeconds
			}
			result.Warnings = append(result.Warnings, Warning{
				Index:   i,
				Message: fmt.Sprintf("repaired %.3fs overlap with previous segment", overlap),
			})
		}
		gap := segs[i].StartSeconds - segs[i-1].EndSeconds
		if gap > maxReasonableGapSeconds {
			result.Warnings = append(result.Warnings, Warning{
				Index:   i,
				Message: fmt.Sprintf("gap of %.3fs before segment", gap),
			})
		}
	}
}

func clampToOriginalDuration(result *Result, originalDurationSecs float64) {
	segs := result.Segments
	if len(segs) == 0 {
		return
	}
	if segs[0].StartSeconds < 0 {
		segs[0].StartSeconds = 0
	}
	last := len(segs) - 1
	if segs[last].EndSeconds > originalDurationSecs {
		segs[last].EndSeconds = originalDurationSecs
		if segs[last].EndSeconds < segs[last].StartSeconds {
			segs[last].StartSeconds = segs[last].EndSeconds
		}
	}
}

func nonEmptyOrPlaceholder(text string) string {
	if text == "" {
		return " "
	}
	return text
}
