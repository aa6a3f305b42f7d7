// Package assemble implements the Sequence Assembler and Final Micro-Trim:
// concatenating a job's queued artifacts with a chained triangular
// cross-fade into a single mono PCM WAV, then correcting any residual
// drift against the original duration with one global time-stretch.
package assemble

import (
	"context"
	"math"
	"os"

	"github.com/go-audio/audio"

	"dubsync/internal/audiotool"
	"dubsync/internal/fileutil"
	"dubsync/internal/job"
	"dubsync/internal/services"
)

// Report summarizes the assembled output for the end-of-job observability
// event.
type Report struct {
	OriginalDurationSecs float64
	FinalDurationSecs    float64
	DifferenceSecs       float64
	DifferencePercent    float64
	AccuracyPercent      float64
	SegmentCount         int
	FilesConcatenated    int
	Trimmed              bool
}

// Assemble concatenates artifacts in order, writes the result to
// outputPath, and applies a single global pitch-invariant time-stretch
// when the concatenated duration drifts from originalDurationSecs by more
// than toleranceFraction (a fraction, e.g. 0.01 for 1%). When crossfade is
// true, adjacent artifacts are joined with a triangular cross-fade of
// format.CrossfadeSeconds (the timestamp strategy); when false, a hard cut
// is used (the proportional fallback strategy).
// ffmpegBinary is used only for the corrective stretch.
func Assemble(ctx context.Context, ffmpegBinary, outputPath string, artifacts []job.AudioArtifact, originalDurationSecs float64, toleranceFraction float64, crossfade bool, format audiotool.Format) (Report, error) {
	if len(artifacts) == 0 {
		return Report{}, services.Wrap(services.ErrAudioToolFailed, "assemble", "concat", "no artifacts queued", nil)
	}

	buffers := make([]*audio.IntBuffer, 0, len(artifacts))
	for _, artifact := range artifacts {
		buf, err := audiotool.ReadPCM(artifact.Path)
		if err != nil {
			return Report{}, services.Wrap(services.ErrAudioToolFailed, "assemble", "read-artifact", artifact.Path, err)
		}
		buffers = append(buffers, buf)
	}

	concat := audiotool.ConcatPlain
	if crossfade {
		concat = format.ConcatWithCrossfade
	}
	merged, err := concat(buffers)
	if err != nil {
		return Report{}, services.Wrap(services.ErrAudioToolFailed, "assemble", "crossfade", "concatenate artifacts", err)
	}

	if err := format.WritePCM(outputPath, merged); err != nil {
		return Report{}, services.Wrap(services.ErrAudioToolFailed, "assemble", "write", outputPath, err)
	}

	finalDuration := audiotool.DurationSeconds(merged)
	report := Report{
		OriginalDurationSecs: originalDurationSecs,
		FinalDurationSecs:    finalDuration,
		SegmentCount:         len(artifacts),
		FilesConcatenated:    len(artifacts),
	}

	if originalDurationSecs > 0 {
		diffFraction := math.Abs(finalDuration-originalDurationSecs) / originalDurationSecs
		if diffFraction > toleranceFraction {
			trimmedPath := outputPath + ".trimmed.wav"
			tempo := finalDuration / originalDurationSecs
			if err := format.StretchTempo(ctx, ffmpegBinary, outputPath, trimmedPath, tempo); err != nil {
				return Report{}, services.Wrap(services.ErrAudioToolFailed, "assemble", "micro-trim", "final stretch", err)
			}
			trimmedBuf, err := audiotool.ReadPCM(trimmedPath)
			if err != nil {
				return Report{}, services.Wrap(services.ErrAudioToolFailed, "assemble", "micro-trim", "read trimmed output", err)
			}
			if err := fileutil.CopyFileVerified(trimmedPath, outputPath); err != nil {
				return Report{}, services.Wrap(services.ErrAudioToolFailed, "assemble", "micro-trim", "overwrite output", err)
			}
			os.Remove(trimmedPath)
			finalDuration = audiotool.DurationSeconds(trimmedBuf)
			report.Trimmed = true
		}
	}

	report.FinalDurationSecs = finalDuration
	report.DifferenceSecs = finalDuration - originalDurationSecs
	if originalDurationSecs > 0 {
		report.DifferencePercent = 100 * math.Abs(report.DifferenceSecs) / originalDurationSecs
		report.AccuracyPercent = 100 * (1 - math.Abs(report.DifferenceSecs)/originalDurationSecs)
	}

	return report, nil
}
