// Package synth implements the Segment Synthesizer and Silence Bookkeeper:
// for each aligned segment it generates leading silence, synthesizes or
// placeholder-silences the text, measures the result, time-stretches it to
// the segment's exact target duration, and queues the artifact onto the
// job. Calibration samples are recorded for the first K segments and the
// adaptive rate is frozen once that window closes.
package synth

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"dubsync/internal/audiotool"
	"dubsync/internal/calibrate"
	"dubsync/internal/job"
	"dubsync/internal/logging"
	"dubsync/internal/services"
	"dubsync/internal/services/ttsrpc"
	"dubsync/internal/voice"
)

// defaultMinSilenceSeconds is the shortest silence artifact the bookkeeper
// will enqueue when Config.MinSilenceSeconds is left zero; gaps shorter
// than this are absorbed rather than inserted.
const defaultMinSilenceSeconds = 0.02

// StretchEpsilonSeconds is the synthesized/target duration slack below which
// no time-stretch is applied.
const StretchEpsilonSeconds = 0.001

// Config carries the per-job settings the Synthesizer needs beyond the TTS
// client itself. When left zero-valued, Format defaults to
// audiotool.DefaultFormat and MinSilenceSeconds to
// defaultMinSilenceSeconds, so callers that don't resolve
// a config (tests, fixtures) keep working unchanged.
type Config struct {
	FFmpegBinary      string
	FFprobeBinary     string
	Language          string
	VoiceOverrides    map[string]string
	Format            audiotool.Format
	MinSilenceSeconds float64
}

// Synthesizer drives the per-segment synthesize/measure/stretch loop against
// a SynthesisJob's working directory.
type Synthesizer struct {
	client     *ttsrpc.Client
	cfg        Config
	logger     *slogLogger
	onProgress func(index, total int)
}

// New constructs a Synthesizer bound to the given TTS client and config.
func New(client *ttsrpc.Client, cfg Config) *Synthesizer {
	if cfg.Format == (audiotool.Format{}) {
		cfg.Format = audiotool.DefaultFormat()
	}
	if cfg.MinSilenceSeconds <= 0 {
		cfg.MinSilenceSeconds = defaultMinSilenceSeconds
	}
	return &Synthesizer{client: client, cfg: cfg}
}

// WithLogger returns a copy of the Synthesizer that emits per-segment
// observability records to logger.
func (s *Synthesizer) WithLogger(logger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
}) *Synthesizer {
	cp := *s
	cp.logger = &slogLogger{l: logger}
	return &cp
}

// WithProgress returns a copy of the Synthesizer that calls fn after each
// segment (placeholder or synthesized) is queued, for a live progress bar.
func (s *Synthesizer) WithProgress(fn func(index, total int)) *Synthesizer {
	cp := *s
	cp.onProgress = fn
	return &cp
}

type slogLogger struct {
	l interface {
		DebugContext(ctx context.Context, msg string, args ...any)
	}
}

// Run processes every aligned segment in order, threading leading silence,
// placeholder silence, and synthesized-and-stretched artifacts onto j.
// calibrationWindow is K as computed by calibrate.Window. It returns the
// rate frozen by collector once the calibration window closes (or the
// zero rate if the window never closed within this run).
func (s *Synthesizer) Run(ctx context.Context, j *job.SynthesisJob, segments []job.TimedSegment, collector *calibrate.Collector, calibrationWindow int, origDurationSecs float64) (job.AdaptiveRate, error) {
	voiceID := voice.ResolveVoiceID(s.cfg.Language, s.cfg.VoiceOverrides)

	rate := job.AdaptiveRate(0)
	frozen := false
	prevEnd := 0.0
	artifactIndex := 0

	for i, seg := range segments {
		select {
		case <-ctx.Done():
			return rate, services.Wrap(services.ErrCancelled, "synth", "run", "cancelled between segments", ctx.Err())
		default:
		}

		if i == calibrationWindow && !frozen {
			rate = collector.Freeze()
			frozen = true
		}
		calibrationPhase := i < calibrationWindow

		gap := seg.StartSeconds - prevEnd
		var silenceBefore float64
		if gap > s.cfg.MinSilenceSeconds {
			silencePath := filepath.Join(j.Dir, fmt.Sprintf("%04d-lead-silence.wav", artifactIndex))
			artifactIndex++
			if err := s.cfg.Format.WriteSilence(silencePath, gap); err != nil {
				return rate, services.Wrap(services.ErrAudioToolFailed, "synth", "leading-silence", "write leading silence", err)
			}
			if err := j.Enqueue(job.AudioArtifact{Path: silencePath, DurationSeconds: gap}); err != nil {
				return rate, err
			}
			silenceBefore = gap
		}

		target := seg.EndSeconds - seg.StartSeconds

		if strings.TrimSpace(seg.Text) == "" {
			placeholderPath := filepath.Join(j.Dir, fmt.Sprintf("%04d-placeholder-silence.wav", artifactIndex))
			artifactIndex++
			if err := s.cfg.Format.WriteSilence(placeholderPath, target); err != nil {
				return rate, services.Wrap(services.ErrAudioToolFailed, "synth", "placeholder-silence", "write placeholder silence", err)
			}
			if err := j.Enqueue(job.AudioArtifact{Path: placeholderPath, DurationSeconds: target}); err != nil {
				return rate, err
			}
			s.logSegment(ctx, i, len(segments), seg.Text, target, target, false, 0, "+0%", calibrationPhase, silenceBefore)
			prevEnd = seg.EndSeconds
			if s.onProgress != nil {
				s.onProgress(i+1, len(segments))
			}
			continue
		}

		effectiveRate := job.AdaptiveRate(0)
		if !calibrationPhase {
			effectiveRate = rate
		}

		finalPath, actual, stretched, err := s.synthesizeOne(ctx, j, artifactIndex, seg.Text, voiceID, effectiveRate, target)
		artifactIndex++
		if err != nil {
			return rate, services.Wrap(services.ErrSynthesisFailed, "synth", "segment", fmt.Sprintf("segment %d", i), err)
		}

		if calibrationPhase {
			collector.Record(job.CalibrationSample{TargetSeconds: target, ActualSeconds: actual})
		}

		finalBuf, err := audiotool.ReadPCM(finalPath)
		if err != nil {
			return rate, services.Wrap(services.ErrAudioToolFailed, "synth", "measure-final", "read synthesized artifact", err)
		}
		finalDuration := audiotool.DurationSeconds(finalBuf)

		if err := j.Enqueue(job.AudioArtifact{Path: finalPath, DurationSeconds: finalDuration}); err != nil {
			return rate, err
		}

		s.logSegment(ctx, i, len(segments), seg.Text, target, actual, stretched, target-actual, effectiveRate.String(), calibrationPhase, silenceBefore)
		prevEnd = seg.EndSeconds
		if s.onProgress != nil {
			s.onProgress(i+1, len(segments))
		}
	}

	if !frozen {
		rate = collector.Freeze()
	}

	finalSilence := origDurationSecs - prevEnd
	if finalSilence > s.cfg.MinSilenceSeconds {
		trailingPath := filepath.Join(j.Dir, fmt.Sprintf("%04d-trailing-silence.wav", artifactIndex))
		if err := s.cfg.Format.WriteSilence(trailingPath, finalSilence); err != nil {
			return rate, services.Wrap(services.ErrAudioToolFailed, "synth", "trailing-silence", "write trailing silence", err)
		}
		if err := j.Enqueue(job.AudioArtifact{Path: trailingPath, DurationSeconds: finalSilence}); err != nil {
			return rate, err
		}
	}

	return rate, nil
}

// synthesizeOne calls the voice synthesizer, converts its stream to the
// internal PCM format, measures it, and time-stretches it to target when
// the drift exceeds StretchEpsilonSeconds. It returns the path of the final
// artifact, the pre-stretch measured duration, and whether a stretch ran.
func (s *Synthesizer) synthesizeOne(ctx context.Context, j *job.SynthesisJob, idx int, text, voiceID string, rate job.AdaptiveRate, target float64) (string, float64, bool, error) {
	stream, err := s.client.Synthesize(ctx, text, voiceID, rate.String())
	if err != nil {
		return "", 0, false, err
	}
	defer stream.Close()

	rawPath := filepath.Join(j.Dir, fmt.Sprintf("%04d-raw.bin", idx))
	if err := writeStream(rawPath, stream); err != nil {
		return "", 0, false, err
	}
	defer os.Remove(rawPath)

	wavPath := filepath.Join(j.Dir, fmt.Sprintf("%04d-synth.wav", idx))
	if err := s.cfg.Format.ConvertToInternalFormat(ctx, s.cfg.FFmpegBinary, rawPath, wavPath); err != nil {
		return "", 0, false, err
	}

	buf, err := audiotool.ReadPCM(wavPath)
	if err != nil {
		return "", 0, false, err
	}
	actual := audiotool.DurationSeconds(buf)

	if math.Abs(target-actual) <= StretchEpsilonSeconds {
		return wavPath, actual, false, nil
	}

	tempo := actual / target
	stretchedPath := filepath.Join(j.Dir, fmt.Sprintf("%04d-stretched.wav", idx))
	if err := s.cfg.Format.StretchTempo(ctx, s.cfg.FFmpegBinary, wavPath, stretchedPath, tempo); err != nil {
		return "", 0, false, err
	}
	os.Remove(wavPath)
	return stretchedPath, actual, true, nil
}

func writeStream(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("synth: create %q: %w", path, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("synth: write %q: %w", path, err)
	}
	return nil
}

func (s *Synthesizer) logSegment(ctx context.Context, index, total int, text string, target, actual float64, stretched bool, difference float64, rate string, calibrationPhase bool, silenceBefore float64) {
	if s.logger == nil {
		return
	}
	s.logger.l.DebugContext(ctx, "segment synthesized", logging.Args(
		logging.Int("index", index),
		logging.Int("total", total),
		logging.String("text_preview", previewText(text)),
		logging.Float64("target_s", target),
		logging.Float64("actual_s", actual),
		logging.Bool("stretched", stretched),
		logging.Float64("difference_s", difference),
		logging.String("tts_rate", rate),
		logging.Bool("calibration_phase", calibrationPhase),
		logging.Float64("silence_before_s", silenceBefore),
	)...)
}

func previewText(text string) string {
	const maxLen = 40
	text = strings.TrimSpace(text)
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
