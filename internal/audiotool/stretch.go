package audiotool

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"dubsync/internal/media/ffprobe"
)

// StretchClampMin and StretchClampMax bound a single atempo filter
// application; a tempo factor outside this range is chained as two links
// so each stays in-range. The second link is clamped to the same range, so
// the product equals the requested factor only within [0.25, 4]; beyond
// that the applied factor stops at 0.25 or 4.
const (
	StretchClampMin = 0.5
	StretchClampMax = 2.0
)

// StretchTempo time-stretches the WAV at srcPath by tempo factor (source
// duration / target duration) using ffmpeg's atempo filter, writing the
// result to dstPath in f's format. Pitch is preserved. A factor outside
// [StretchClampMin, StretchClampMax] is applied as two chained atempo
// filters so each individual link stays in-range.
func (f Format) StretchTempo(ctx context.Context, ffmpegBinary, srcPath, dstPath string, tempo float64) error {
	if tempo <= 0 {
		return fmt.Errorf("audiotool: stretch: invalid tempo %v", tempo)
	}

	filter := atempoFilterChain(tempo)
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", srcPath,
		"-filter:a", filter,
		"-ac", strconv.Itoa(f.Channels),
		"-ar", strconv.Itoa(f.SampleRate),
		"-c:a", "pcm_s16le",
		dstPath,
	}
	cmd := exec.CommandContext(ctx, ffmpegBinary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("audiotool: ffmpeg stretch: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// atempoFilterChain builds an ffmpeg "atempo=..." filter expression for an
// arbitrary positive tempo factor, chaining two atempo links with "," when
// the factor falls outside ffmpeg's single-link [0.5, 2.0] range.
func atempoFilterChain(tempo float64) string {
	if tempo >= StretchClampMin && tempo <= StretchClampMax {
		return fmt.Sprintf("atempo=%.6f", tempo)
	}
	if tempo > StretchClampMax {
		first := StretchClampMax
		second := tempo / first
		return fmt.Sprintf("atempo=%.6f,atempo=%.6f", first, clampLink(second))
	}
	first := StretchClampMin
	second := tempo / first
	return fmt.Sprintf("atempo=%.6f,atempo=%.6f", first, clampLink(second))
}

func clampLink(v float64) float64 {
	if v < StretchClampMin {
		return StretchClampMin
	}
	if v > StretchClampMax {
		return StretchClampMax
	}
	return v
}

// ProbeDurationSeconds shells out to ffprobe to measure a file's duration.
func ProbeDurationSeconds(ctx context.Context, ffprobeBinary, path string) (float64, error) {
	result, err := ffprobe.Inspect(ctx, ffprobeBinary, path)
	if err != nil {
		return 0, fmt.Errorf("audiotool: probe: %w", err)
	}
	return result.DurationSeconds(), nil
}

// ConvertToInternalFormat converts an arbitrary audio/video file at
// srcPath into mono PCM WAV at dstPath in f's format, the format every
// buffer must have before reaching the Sequence Assembler.
func (f Format) ConvertToInternalFormat(ctx context.Context, ffmpegBinary, srcPath, dstPath string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", srcPath,
		"-vn", "-sn", "-dn",
		"-ac", strconv.Itoa(f.Channels),
		"-ar", strconv.Itoa(f.SampleRate),
		"-c:a", "pcm_s16le",
		dstPath,
	}
	cmd := exec.CommandContext(ctx, ffmpegBinary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("audiotool: ffmpeg convert: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
