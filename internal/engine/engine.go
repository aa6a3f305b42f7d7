// Package engine drives the fallback ladder (timestamp strategy →
// proportional strategy → single-shot strategy), owning the job lifecycle,
// strategy selection, cooperative cancellation, and the per-job
// observability summary.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"

	"dubsync/internal/aligner"
	"dubsync/internal/assemble"
	"dubsync/internal/audiotool"
	"dubsync/internal/calibrate"
	"dubsync/internal/config"
	"dubsync/internal/job"
	"dubsync/internal/logging"
	"dubsync/internal/services"
	"dubsync/internal/services/ttsrpc"
	"dubsync/internal/splitter"
	"dubsync/internal/synth"
	"dubsync/internal/voice"
)

// Strategy names, in ladder order. Each successive strategy tolerates more
// upstream deviation at the cost of lip-sync fidelity.
const (
	StrategyTimestamp    = "timestamp"
	StrategyProportional = "proportional"
	StrategySingleShot   = "single-shot"
)

// Input is everything the engine needs to dub one job.
type Input struct {
	OriginalDurationSecs float64
	RecognizerSegments   []job.RecognizerSegment
	TranslatedText       string
	Language             string

	// OnSegmentProgress, if set, is called after each segment is queued
	// during the timestamp or proportional strategies, for a live CLI
	// progress bar. It is never called during the single-shot strategy,
	// which has no per-segment loop.
	OnSegmentProgress func(index, total int)
}

// Result is the outcome of a successful run.
type Result struct {
	Strategy string
	Report   assemble.Report
	Warnings []aligner.Warning
}

// Engine owns the config and synthesizer client shared across jobs.
type Engine struct {
	cfg       *config.Config
	ttsClient *ttsrpc.Client
	logger    *slog.Logger
}

// New constructs an Engine. logger may be nil, in which case log output is
// discarded.
func New(cfg *config.Config, ttsClient *ttsrpc.Client, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{cfg: cfg, ttsClient: ttsClient, logger: logger}
}

// audioFormat resolves the configured audio.* section into the Format every
// audiotool call in this run must agree on. Bit depth and channel count
// aren't exposed as config knobs (the pipeline is mono 16-bit throughout);
// sample rate and crossfade length are.
func (e *Engine) audioFormat() audiotool.Format {
	return audiotool.Format{
		SampleRate:       e.cfg.Audio.SampleRate,
		BitDepth:         16,
		Channels:         1,
		CrossfadeSeconds: float64(e.cfg.Audio.CrossfadeMS) / 1000,
	}
}

// minSilenceSeconds resolves audio.silence_threshold_ms into the Silence
// Bookkeeper's absorb-vs-insert threshold.
func (e *Engine) minSilenceSeconds() float64 {
	return float64(e.cfg.Audio.SilenceThresholdMS) / 1000
}

// Run dubs input, trying strategies in ladder order starting from
// StrategyTimestamp (or StrategyProportional if the recognizer segments
// carry invalid timestamps), and writes the final track to outputPath.
func (e *Engine) Run(ctx context.Context, input Input, outputPath string) (Result, error) {
	ladder := e.buildLadder(input.RecognizerSegments)

	var lastErr error
	for i, strategy := range ladder {
		ctx := services.WithStrategy(ctx, strategy)
		result, err := e.attempt(ctx, strategy, input, outputPath)
		if err == nil {
			e.logEndOfJob(ctx, strategy, result.Report)
			return result, nil
		}

		lastErr = err
		logging.WarnWithContext(e.logger, "strategy attempt failed", "strategy_failure",
			logging.String("strategy", strategy),
			logging.Error(err),
		)

		if services.FailureDecision(err) == services.DecisionFail {
			return Result{}, err
		}
		if i == len(ladder)-1 {
			return Result{}, fmt.Errorf("engine: exhausted fallback ladder: %w", err)
		}
	}
	return Result{}, lastErr
}

// buildLadder picks the strategies to try, in order, based on whether the
// recognizer segments carry usable timestamps.
func (e *Engine) buildLadder(segments []job.RecognizerSegment) []string {
	if hasValidTimestamps(segments) {
		return []string{StrategyTimestamp, StrategyProportional, StrategySingleShot}
	}
	return []string{StrategyProportional, StrategySingleShot}
}

func hasValidTimestamps(segments []job.RecognizerSegment) bool {
	if len(segments) == 0 {
		return false
	}
	for _, s := range segments {
		if math.IsNaN(s.StartSeconds) || math.IsNaN(s.EndSeconds) || math.IsInf(s.StartSeconds, 0) || math.IsInf(s.EndSeconds, 0) {
			return false
		}
	}
	return true
}

func (e *Engine) attempt(ctx context.Context, strategy string, input Input, outputPath string) (Result, error) {
	j, err := job.New(e.cfg.Job.TempRoot, input.OriginalDurationSecs, input.RecognizerSegments, input.TranslatedText)
	if err != nil {
		return Result{}, services.Wrap(services.ErrAudioToolFailed, "engine", "job-create", "create synthesis job", err)
	}
	defer j.Close()

	ctx = services.WithJobID(ctx, j.ID)

	switch strategy {
	case StrategyTimestamp:
		return e.runTimestamp(ctx, j, input, outputPath)
	case StrategyProportional:
		return e.runProportional(ctx, j, input, outputPath)
	case StrategySingleShot:
		return e.runSingleShot(ctx, j, input, outputPath)
	default:
		return Result{}, fmt.Errorf("engine: unknown strategy %q", strategy)
	}
}

func (e *Engine) runTimestamp(ctx context.Context, j *job.SynthesisJob, input Input, outputPath string) (Result, error) {
	parts, err := splitter.Split(input.TranslatedText, len(input.RecognizerSegments), e.cfg.Splitter.SearchWindowFraction)
	if err != nil {
		return Result{}, services.Wrap(services.ErrInvalidTimestamps, "engine", "split", "proportional splitter", err)
	}

	alignResult, err := aligner.Align(parts, input.RecognizerSegments, input.OriginalDurationSecs, nil)
	if err != nil {
		return Result{}, services.Wrap(services.ErrInvalidTimestamps, "engine", "align", "segment aligner", err)
	}
	for _, w := range alignResult.Warnings {
		logging.WarnWithContext(e.logger, w.Message, "alignment_warning", logging.Int("segment", w.Index))
	}

	report, err := e.synthesizeAndAssemble(ctx, j, alignResult.Segments, input, outputPath, e.cfg.Fallback.TimestampToleranceFraction, true)
	if err != nil {
		return Result{}, err
	}
	return Result{Strategy: StrategyTimestamp, Report: report, Warnings: alignResult.Warnings}, nil
}

// runProportional ignores recognizer timestamps entirely: it splits the
// translation on sentence/clause punctuation and allocates target
// durations by character-proportion of the original duration.
func (e *Engine) runProportional(ctx context.Context, j *job.SynthesisJob, input Input, outputPath string) (Result, error) {
	parts := splitOnClauseBoundaries(input.TranslatedText)
	segments := allocateByCharacterProportion(parts, input.OriginalDurationSecs)

	report, err := e.synthesizeAndAssemble(ctx, j, segments, input, outputPath, e.cfg.Fallback.ProportionalToleranceFraction, false)
	if err != nil {
		return Result{}, err
	}
	return Result{Strategy: StrategyProportional, Report: report}, nil
}

// runSingleShot synthesizes the whole translation in one call at +0% with
// no stretching, per spec.md §4.8 strategy 3.
func (e *Engine) runSingleShot(ctx context.Context, j *job.SynthesisJob, input Input, outputPath string) (Result, error) {
	voiceID := voice.ResolveVoiceID(input.Language, e.cfg.Synthesizer.VoiceOverrides)

	stream, err := e.ttsClient.Synthesize(ctx, input.TranslatedText, voiceID, job.AdaptiveRate(0).String())
	if err != nil {
		return Result{}, services.Wrap(services.ErrSynthesisFailed, "engine", "single-shot", "synthesize whole translation", err)
	}
	defer stream.Close()

	rawPath := filepath.Join(j.Dir, "singleshot-raw.bin")
	f, err := createFile(rawPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrAudioToolFailed, "engine", "single-shot", "stage raw stream", err)
	}
	if _, err := copyStream(f, stream); err != nil {
		f.Close()
		return Result{}, services.Wrap(services.ErrAudioToolFailed, "engine", "single-shot", "write raw stream", err)
	}
	f.Close()

	if err := e.audioFormat().ConvertToInternalFormat(ctx, e.cfg.Job.FFmpegBinary, rawPath, outputPath); err != nil {
		return Result{}, services.Wrap(services.ErrAudioToolFailed, "engine", "single-shot", "convert to PCM", err)
	}

	buf, err := audiotool.ReadPCM(outputPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrAudioToolFailed, "engine", "single-shot", "measure output", err)
	}
	finalDuration := audiotool.DurationSeconds(buf)

	report := assemble.Report{
		OriginalDurationSecs: input.OriginalDurationSecs,
		FinalDurationSecs:    finalDuration,
		SegmentCount:         1,
		FilesConcatenated:    1,
	}
	if input.OriginalDurationSecs > 0 {
		report.DifferenceSecs = finalDuration - input.OriginalDurationSecs
		report.DifferencePercent = 100 * math.Abs(report.DifferenceSecs) / input.OriginalDurationSecs
		report.AccuracyPercent = 100 * (1 - math.Abs(report.DifferenceSecs)/input.OriginalDurationSecs)
	}

	return Result{Strategy: StrategySingleShot, Report: report}, nil
}

// synthesizeAndAssemble runs the Segment Synthesizer over segments and
// assembles the queued artifacts into outputPath.
func (e *Engine) synthesizeAndAssemble(ctx context.Context, j *job.SynthesisJob, segments []job.TimedSegment, input Input, outputPath string, toleranceFraction float64, crossfade bool) (assemble.Report, error) {
	window := calibrate.Window(len(segments), e.cfg.Calibration.MaxSamples, e.cfg.Calibration.SampleFraction)
	collector := calibrate.New(e.cfg.Calibration.SigmaGate, e.cfg.Calibration.RateClampMin, e.cfg.Calibration.RateClampMax)

	s := synth.New(e.ttsClient, synth.Config{
		FFmpegBinary:      e.cfg.Job.FFmpegBinary,
		FFprobeBinary:     e.cfg.Job.FFprobeBinary,
		Language:          input.Language,
		VoiceOverrides:    e.cfg.Synthesizer.VoiceOverrides,
		Format:            e.audioFormat(),
		MinSilenceSeconds: e.minSilenceSeconds(),
	}).WithLogger(e.logger)
	if input.OnSegmentProgress != nil {
		s = s.WithProgress(input.OnSegmentProgress)
	}

	if _, err := s.Run(ctx, j, segments, collector, window, input.OriginalDurationSecs); err != nil {
		return assemble.Report{}, err
	}

	return assemble.Assemble(ctx, e.cfg.Job.FFmpegBinary, outputPath, j.Artifacts(), input.OriginalDurationSecs, toleranceFraction, crossfade, e.audioFormat())
}

func (e *Engine) logEndOfJob(ctx context.Context, strategy string, report assemble.Report) {
	logging.WithContext(ctx, e.logger).Info("job complete", logging.Args(
		logging.String("strategy", strategy),
		logging.Float64("original_duration_s", report.OriginalDurationSecs),
		logging.Float64("final_duration_s", report.FinalDurationSecs),
		logging.Float64("difference_s", report.DifferenceSecs),
		logging.Float64("difference_percent", report.DifferencePercent),
		logging.Int("segments", report.SegmentCount),
		logging.Float64("accuracy_percent", report.AccuracyPercent),
		logging.Int("files_concatenated", report.FilesConcatenated),
	)...)
}
