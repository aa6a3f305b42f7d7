package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidTimestamps = errors.New("invalid timestamps")
	ErrBadTimestamp      = errors.New("malformed timestamp")
	ErrSynthesisFailed   = errors.New("voice synthesis failed")
	ErrAudioToolFailed   = errors.New("audio tool failed")
	ErrCancelled         = errors.New("job cancelled")

	// Retained from the external-tool/config/transient taxonomy for stages
	// that wrap generic failures (temp directory setup, config loading)
	// rather than a TDSE-specific condition.
	ErrExternalTool  = errors.New("external tool error")
	ErrConfiguration = errors.New("configuration error")
	ErrTransient     = errors.New("transient failure")
)

// Decision is the outcome of classifying a stage failure against the
// fallback ladder: either the engine should retry the job at a cheaper
// strategy, or the job cannot proceed at all.
type Decision string

const (
	DecisionDegrade Decision = "degrade"
	DecisionFail    Decision = "fail"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureDecision maps a stage error to the action the engine's fallback
// ladder should take: degrade to a cheaper strategy, or give up entirely.
// Cancellation, malformed input, and audio-tool failures (spec.md §7:
// non-retryable, surfaced as job failure) are never recoverable by
// degrading; timestamp drift and synthesis failures are exactly what the
// ladder exists to route around.
func FailureDecision(err error) Decision {
	switch {
	case err == nil:
		return DecisionFail
	case errors.Is(err, ErrCancelled), errors.Is(err, ErrBadTimestamp), errors.Is(err, ErrConfiguration), errors.Is(err, ErrAudioToolFailed):
		return DecisionFail
	default:
		return DecisionDegrade
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
