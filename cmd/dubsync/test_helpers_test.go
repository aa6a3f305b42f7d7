package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dubsync/internal/audiotool"
)

// cliTestEnv bundles a scratch HOME, a config file pointing at a stub
// ffmpeg/ffprobe pair and a fake synthesizer server, mirroring the
// teacher's setupCLITestEnv but scoped to one TTS HTTP server instead of a
// daemon/IPC socket.
type cliTestEnv struct {
	configPath string
	server     *httptest.Server
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	dir := t.TempDir()

	body := []byte("fake-compressed-audio")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(body)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)

	ffmpeg := writeCLIFfmpegStub(t, dir)

	configPath := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf(`[job]
temp_root = %q
ffmpeg_binary = %q
ffprobe_binary = "ffprobe"

[synthesizer]
endpoint = %q
api_key = "test-key"
timeout_seconds = 30

[logging]
format = "json"
level = "error"
dir = %q
`, filepath.Join(dir, "jobs"), ffmpeg, server.URL, filepath.Join(dir, "logs"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{configPath: configPath, server: server}
}

// writeCLIFfmpegStub writes an ffmpeg stand-in that always produces a
// fixed-duration silent WAV, regardless of its filter graph, so CLI tests
// exercise real command wiring without real media processing.
func writeCLIFfmpegStub(t *testing.T, dir string) string {
	t.Helper()
	fixture := filepath.Join(dir, "fixture.wav")
	if err := audiotool.DefaultFormat().WriteSilence(fixture, 1.0); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	path := filepath.Join(dir, "ffmpeg")
	script := "#!/bin/bash\ndst=\"${@: -1}\"\ncp " + fixture + " \"$dst\"\nexit 0\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}
	return path
}

func writeJobSpec(t *testing.T, dir string, spec jobSpec) string {
	t.Helper()
	data, err := json.Marshal(spec)
	if err != nil {
		t.Fatalf("marshal job spec: %v", err)
	}
	path := filepath.Join(dir, "job.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write job spec: %v", err)
	}
	return path
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--config", configPath}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
