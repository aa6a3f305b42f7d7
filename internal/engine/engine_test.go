package engine

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"dubsync/internal/audiotool"
	"dubsync/internal/config"
	"dubsync/internal/job"
	"dubsync/internal/services/ttsrpc"
)

// writeEngineFfmpegStub writes an ffmpeg stand-in that emits plainFixture
// for ordinary conversions and stretchedFixture whenever the invocation's
// filter graph mentions atempo, mirroring synth's own test stub so the
// full ladder can run without a real ffmpeg binary.
func writeEngineFfmpegStub(t *testing.T, dir string, plainDuration, stretchedDuration float64) string {
	t.Helper()
	plainFixture := filepath.Join(dir, "plain-fixture.wav")
	if err := audiotool.DefaultFormat().WriteSilence(plainFixture, plainDuration); err != nil {
		t.Fatalf("write plain fixture: %v", err)
	}
	stretchedFixture := filepath.Join(dir, "stretched-fixture.wav")
	if err := audiotool.DefaultFormat().WriteSilence(stretchedFixture, stretchedDuration); err != nil {
		t.Fatalf("write stretched fixture: %v", err)
	}

	path := filepath.Join(dir, "ffmpeg")
	script := fmt.Sprintf(`#!/bin/bash
dst="${@: -1}"
for arg in "$@"; do
  case "$arg" in
    *atempo*)
      cp %q "$dst"
      exit 0
      ;;
  esac
done
cp %q "$dst"
exit 0
`, stretchedFixture, plainFixture)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}
	return path
}

func newEngineTestConfig(t *testing.T, endpoint, ffmpegBinary string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Job.TempRoot = t.TempDir()
	cfg.Job.FFmpegBinary = ffmpegBinary
	cfg.Job.FFprobeBinary = "ffprobe"
	cfg.Synthesizer.Endpoint = endpoint
	cfg.Synthesizer.APIKey = "test"
	cfg.Synthesizer.VoiceOverrides = map[string]string{}
	cfg.Calibration.MaxSamples = 15
	cfg.Calibration.SampleFraction = 0.2
	cfg.Calibration.SigmaGate = 0.3
	cfg.Calibration.RateClampMin = 0
	cfg.Calibration.RateClampMax = 0
	cfg.Fallback.TimestampToleranceFraction = 0.01
	cfg.Fallback.ProportionalToleranceFraction = 0.02
	return &cfg
}

func newAudioTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	body := []byte("fake-compressed-audio")
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(body)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}))
}

func TestRunTimestampStrategySucceedsWithinTolerance(t *testing.T) {
	dir := t.TempDir()
	// The synthesized clip measures 9.95s pre-stretch; the 0.05s drift from
	// the 10s target exceeds the 1ms stretch epsilon, so a stretch runs and
	// lands on 10.0s exactly.
	ffmpeg := writeEngineFfmpegStub(t, dir, 9.95, 10.0)

	server := newAudioTestServer(t)
	defer server.Close()

	cfg := newEngineTestConfig(t, server.URL, ffmpeg)
	client := ttsrpc.NewClient(ttsrpc.Config{Endpoint: cfg.Synthesizer.Endpoint, APIKey: cfg.Synthesizer.APIKey})
	e := New(cfg, client, nil)

	input := Input{
		OriginalDurationSecs: 10.0,
		RecognizerSegments: []job.RecognizerSegment{
			{StartSeconds: 0, EndSeconds: 10.0, Text: "hello"},
		},
		TranslatedText: "ciao",
		Language:       "it",
	}

	outputPath := filepath.Join(dir, "output.wav")
	result, err := e.Run(context.Background(), input, outputPath)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Strategy != StrategyTimestamp {
		t.Errorf("Strategy = %q, want %q", result.Strategy, StrategyTimestamp)
	}
	if math.Abs(result.Report.FinalDurationSecs-10.0) > 0.05 {
		t.Errorf("FinalDurationSecs = %v, want ~10.0", result.Report.FinalDurationSecs)
	}
	if _, err := os.Stat(outputPath); err != nil {
		t.Fatalf("expected output file: %v", err)
	}
}

func TestRunDegradesToProportionalWhenTimestampsInvalid(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := writeEngineFfmpegStub(t, dir, 5.0, 5.0)

	server := newAudioTestServer(t)
	defer server.Close()

	cfg := newEngineTestConfig(t, server.URL, ffmpeg)
	client := ttsrpc.NewClient(ttsrpc.Config{Endpoint: cfg.Synthesizer.Endpoint, APIKey: cfg.Synthesizer.APIKey})
	e := New(cfg, client, nil)

	input := Input{
		OriginalDurationSecs: 5.0,
		RecognizerSegments: []job.RecognizerSegment{
			{StartSeconds: 0, EndSeconds: math.NaN(), Text: "bad"},
		},
		TranslatedText: "uno. dos.",
		Language:       "es",
	}

	outputPath := filepath.Join(dir, "output.wav")
	result, err := e.Run(context.Background(), input, outputPath)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Strategy != StrategyProportional {
		t.Errorf("Strategy = %q, want %q", result.Strategy, StrategyProportional)
	}
}

func TestRunFailsWhenSynthesisFailsInEveryStrategy(t *testing.T) {
	dir := t.TempDir()

	callCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		// Every synth call fails, so the timestamp, proportional and
		// single-shot strategies each fail in turn; this exercises the
		// full degrade-to-failure path, asserting the error surfaces once
		// every strategy is exhausted.
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ffmpeg := writeEngineFfmpegStub(t, dir, 5.0, 5.0)
	cfg := newEngineTestConfig(t, server.URL, ffmpeg)
	client := ttsrpc.NewClient(ttsrpc.Config{Endpoint: cfg.Synthesizer.Endpoint, APIKey: cfg.Synthesizer.APIKey})
	e := New(cfg, client, nil)

	input := Input{
		OriginalDurationSecs: 5.0,
		RecognizerSegments: []job.RecognizerSegment{
			{StartSeconds: 0, EndSeconds: 5.0, Text: "hi"},
		},
		TranslatedText: "hola",
		Language:       "es",
	}

	outputPath := filepath.Join(dir, "output.wav")
	_, err := e.Run(context.Background(), input, outputPath)
	if err == nil {
		t.Fatal("expected every strategy to fail when synthesis always errors")
	}
	if callCount == 0 {
		t.Error("expected at least one synthesis attempt")
	}
}

func TestRunAllSilentSegmentsProducesPureSilence(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := writeEngineFfmpegStub(t, dir, 1.0, 1.0)

	server := newAudioTestServer(t)
	defer server.Close()

	cfg := newEngineTestConfig(t, server.URL, ffmpeg)
	client := ttsrpc.NewClient(ttsrpc.Config{Endpoint: cfg.Synthesizer.Endpoint, APIKey: cfg.Synthesizer.APIKey})
	e := New(cfg, client, nil)

	input := Input{
		OriginalDurationSecs: 30.0,
		RecognizerSegments: []job.RecognizerSegment{
			{StartSeconds: 0, EndSeconds: 6, Text: "a"},
			{StartSeconds: 6, EndSeconds: 12, Text: "b"},
			{StartSeconds: 12, EndSeconds: 18, Text: "c"},
			{StartSeconds: 18, EndSeconds: 24, Text: "d"},
			{StartSeconds: 24, EndSeconds: 30, Text: "e"},
		},
		TranslatedText: "",
		Language:       "en",
	}

	outputPath := filepath.Join(dir, "output.wav")
	result, err := e.Run(context.Background(), input, outputPath)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Strategy != StrategyTimestamp {
		t.Errorf("Strategy = %q, want %q", result.Strategy, StrategyTimestamp)
	}
	if math.Abs(result.Report.FinalDurationSecs-30.0) > 0.05 {
		t.Errorf("FinalDurationSecs = %v, want ~30.0", result.Report.FinalDurationSecs)
	}

	buf, err := audiotool.ReadPCM(outputPath)
	if err != nil {
		t.Fatalf("ReadPCM: %v", err)
	}
	for _, sample := range buf.Data {
		if sample != 0 {
			t.Fatalf("expected pure silence, found non-zero sample %d", sample)
		}
	}
}
