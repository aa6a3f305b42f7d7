package contracts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"dubsync/internal/audiotool"
)

func defaultRemuxRun(ffmpegBinary string) func(ctx context.Context, args ...string) error {
	return func(ctx context.Context, args ...string) error {
		cmd := exec.CommandContext(ctx, ffmpegBinary, args...)
		out, err := cmd.CombinedOutput()
		if err != nil {
			return fmt.Errorf("%s: %w: %s", ffmpegBinary, err, strings.TrimSpace(string(out)))
		}
		return nil
	}
}

// LocalFileAcquirer resolves a source string that is already a path on
// disk, and fetches http(s) URLs into a scratch directory. It has no
// retry/resume logic; a real acquirer would add that without changing the
// interface.
type LocalFileAcquirer struct {
	ScratchDir string
	Client     *http.Client
}

func (a *LocalFileAcquirer) Acquire(ctx context.Context, source string) (string, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		if _, err := os.Stat(source); err != nil {
			return "", fmt.Errorf("contracts: acquire: %w", err)
		}
		return source, nil
	}

	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", fmt.Errorf("contracts: acquire: build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("contracts: acquire: fetch %s: %w", source, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("contracts: acquire: fetch %s: status %d", source, resp.StatusCode)
	}

	dst := filepath.Join(a.ScratchDir, filepath.Base(source))
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("contracts: acquire: stage destination: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("contracts: acquire: write destination: %w", err)
	}
	return dst, nil
}

// FFmpegDemuxer extracts mono PCM audio from a video container with
// ffmpeg, the same binary the synthesis pipeline already depends on.
type FFmpegDemuxer struct {
	FFmpegBinary string
	ScratchDir   string
}

func (d *FFmpegDemuxer) Demux(ctx context.Context, videoPath string) (string, float64, error) {
	wavPath := filepath.Join(d.ScratchDir, "demuxed.wav")
	if err := audiotool.DefaultFormat().ConvertToInternalFormat(ctx, d.FFmpegBinary, videoPath, wavPath); err != nil {
		return "", 0, fmt.Errorf("contracts: demux: %w", err)
	}
	buf, err := audiotool.ReadPCM(wavPath)
	if err != nil {
		return "", 0, fmt.Errorf("contracts: demux: measure: %w", err)
	}
	return wavPath, audiotool.DurationSeconds(buf), nil
}

// StaticRecognizer returns a fixed Recognition regardless of input,
// standing in for a real speech-to-text backend in local smoke runs and
// tests that only need the downstream engine exercised.
type StaticRecognizer struct {
	Recognition Recognition
}

func (r *StaticRecognizer) Recognize(ctx context.Context, wavPath string) (Recognition, error) {
	return r.Recognition, nil
}

// IdentityTranslator returns its input unchanged. Useful for smoke-testing
// the engine's timing behavior without a translation backend in the loop.
type IdentityTranslator struct{}

func (IdentityTranslator) Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error) {
	return text, nil
}

// FFmpegRemuxer replaces a video's audio track with a new one via stream
// copy, leaving the video codec and container untouched.
type FFmpegRemuxer struct {
	FFmpegBinary string
	Run          func(ctx context.Context, args ...string) error
}

func (r *FFmpegRemuxer) Remux(ctx context.Context, videoPath, dubbedAudioPath, outputPath string) error {
	run := r.Run
	if run == nil {
		run = defaultRemuxRun(r.FFmpegBinary)
	}
	args := []string{
		"-y",
		"-i", videoPath,
		"-i", dubbedAudioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-shortest",
		outputPath,
	}
	if err := run(ctx, args...); err != nil {
		return fmt.Errorf("contracts: remux: %w", err)
	}
	return nil
}

// LogSink writes each progress event through a plain callback, so a caller
// can wire it to a progress bar without this package depending on terminal
// libraries.
type LogSink struct {
	OnEvent func(ProgressEvent)
}

func (s LogSink) Report(e ProgressEvent) {
	if s.OnEvent != nil {
		s.OnEvent(e)
	}
}
