package synth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dubsync/internal/audiotool"
	"dubsync/internal/calibrate"
	"dubsync/internal/job"
	"dubsync/internal/services/ttsrpc"
)

// writeFfmpegStub writes an ffmpeg stand-in that copies a "converted" fixture
// to its destination for plain conversions, and a "stretched" fixture when
// the invocation's filter graph mentions atempo, so StretchTempo's code path
// is exercised without a real ffmpeg binary.
func writeFfmpegStub(t *testing.T, dir string, plainFixture, stretchedFixture string) string {
	t.Helper()
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

func newTestServer(t *testing.T, audioBody []byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(audioBody)))
		w.Header().Set("Content-Type", "audio/mpeg")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(audioBody)
	}))
}

func TestRunSynthesizesPlaceholderAsSilenceOnly(t *testing.T) {
	dir := t.TempDir()
	j, err := job.New(dir, 3.0, nil, "")
	if err != nil {
		t.Fatalf("job.New: %v", err)
	}
	defer j.Close()

	server := newTestServer(t, []byte("should not be called"))
	defer server.Close()

	client := ttsrpc.NewClient(ttsrpc.Config{Endpoint: server.URL, APIKey: "test"})
	s := New(client, Config{Language: "en"})
	collector := calibrate.New(0.3, 0, 0)

	segments := []job.TimedSegment{
		{Text: " ", StartSeconds: 0, EndSeconds: 3.0},
	}

	rate, err := s.Run(context.Background(), j, segments, collector, calibrate.Window(len(segments), 15, 0.20), 3.0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rate != 0 {
		t.Errorf("rate = %v, want 0 (no synthesis occurred)", rate)
	}

	artifacts := j.Artifacts()
	if len(artifacts) != 1 {
		t.Fatalf("len(artifacts) = %d, want 1", len(artifacts))
	}
	buf, err := audiotool.ReadPCM(artifacts[0].Path)
	if err != nil {
		t.Fatalf("ReadPCM: %v", err)
	}
	for _, sample := range buf.Data {
		if sample != 0 {
			t.Fatalf("expected pure silence, found non-zero sample %d", sample)
		}
	}
}

func TestRunSynthesizesAndStretchesSegment(t *testing.T) {
	dir := t.TempDir()

	plainFixture := filepath.Join(dir, "plain.wav")
	if err := audiotool.DefaultFormat().WriteSilence(plainFixture, 2.0); err != nil {
		t.Fatalf("write plain fixture: %v", err)
	}
	stretchedFixture := filepath.Join(dir, "stretched.wav")
	if err := audiotool.DefaultFormat().WriteSilence(stretchedFixture, 2.5); err != nil {
		t.Fatalf("write stretched fixture: %v", err)
	}
	ffmpeg := writeFfmpegStub(t, dir, plainFixture, stretchedFixture)

	j, err := job.New(dir, 2.5, nil, "")
	if err != nil {
		t.Fatalf("job.New: %v", err)
	}
	defer j.Close()

	server := newTestServer(t, []byte("fake-compressed-audio"))
	defer server.Close()

	client := ttsrpc.NewClient(ttsrpc.Config{Endpoint: server.URL, APIKey: "test"})
	s := New(client, Config{FFmpegBinary: ffmpeg, Language: "en"})
	collector := calibrate.New(0.3, 0, 0)

	segments := []job.TimedSegment{
		{Text: "ciao", StartSeconds: 0, EndSeconds: 2.5},
	}

	_, err = s.Run(context.Background(), j, segments, collector, calibrate.Window(len(segments), 15, 0.20), 2.5)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	artifacts := j.Artifacts()
	if len(artifacts) != 1 {
		t.Fatalf("len(artifacts) = %d, want 1", len(artifacts))
	}
	if !strings.Contains(artifacts[0].Path, "stretched") {
		t.Errorf("artifact path %q does not look stretched", artifacts[0].Path)
	}

	samples := collector.Samples()
	if len(samples) != 1 {
		t.Fatalf("len(samples) = %d, want 1", len(samples))
	}
	if samples[0].TargetSeconds != 2.5 || samples[0].ActualSeconds != 2.0 {
		t.Errorf("sample = %+v, want target 2.5 actual 2.0", samples[0])
	}
}

func TestRunEmitsLeadingAndTrailingSilence(t *testing.T) {
	dir := t.TempDir()

	plainFixture := filepath.Join(dir, "plain.wav")
	if err := audiotool.DefaultFormat().WriteSilence(plainFixture, 1.0); err != nil {
		t.Fatalf("write plain fixture: %v", err)
	}
	ffmpeg := writeFfmpegStub(t, dir, plainFixture, plainFixture)

	j, err := job.New(dir, 10.0, nil, "")
	if err != nil {
		t.Fatalf("job.New: %v", err)
	}
	defer j.Close()

	server := newTestServer(t, []byte("fake-compressed-audio"))
	defer server.Close()

	client := ttsrpc.NewClient(ttsrpc.Config{Endpoint: server.URL, APIKey: "test"})
	s := New(client, Config{FFmpegBinary: ffmpeg, Language: "en"})
	collector := calibrate.New(0.3, 0, 0)

	segments := []job.TimedSegment{
		{Text: "hola", StartSeconds: 2.0, EndSeconds: 3.0},
	}

	_, err = s.Run(context.Background(), j, segments, collector, calibrate.Window(len(segments), 15, 0.20), 10.0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	artifacts := j.Artifacts()
	// leading silence (2.0s), synthesized segment, trailing silence (7.0s)
	if len(artifacts) != 3 {
		t.Fatalf("len(artifacts) = %d, want 3: %+v", len(artifacts), artifacts)
	}
	if !strings.Contains(artifacts[0].Path, "lead-silence") {
		t.Errorf("artifacts[0].Path = %q, want leading silence", artifacts[0].Path)
	}
	if !strings.Contains(artifacts[2].Path, "trailing-silence") {
		t.Errorf("artifacts[2].Path = %q, want trailing silence", artifacts[2].Path)
	}
}

func TestRunRejectsOnSynthesisFailure(t *testing.T) {
	dir := t.TempDir()
	j, err := job.New(dir, 2.0, nil, "")
	if err != nil {
		t.Fatalf("job.New: %v", err)
	}
	defer j.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := ttsrpc.NewClient(ttsrpc.Config{Endpoint: server.URL, APIKey: "test"})
	s := New(client, Config{Language: "en"})
	collector := calibrate.New(0.3, 0, 0)

	segments := []job.TimedSegment{
		{Text: "hola", StartSeconds: 0, EndSeconds: 2.0},
	}

	_, err = s.Run(context.Background(), j, segments, collector, calibrate.Window(len(segments), 15, 0.20), 2.0)
	if err == nil {
		t.Fatal("expected synthesis failure to propagate")
	}
}
