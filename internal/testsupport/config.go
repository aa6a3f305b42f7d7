package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"dubsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Synthesizer.APIKey = "test"
	cfgVal.Job.TempRoot = filepath.Join(base, "jobs")
	cfgVal.Logging.Dir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSynthAPIKey sets the synthesizer API key on the test config.
func WithSynthAPIKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Synthesizer.APIKey = key
	}
}

// WithSynthEndpoint overrides the synthesizer endpoint on the test config,
// typically pointed at an httptest.Server.
func WithSynthEndpoint(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Synthesizer.Endpoint = url
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH, then points the config's job binaries at them. If
// names is empty, the default ffmpeg/ffprobe pair is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})

		b.cfg.Job.FFmpegBinary = filepath.Join(binDir, "ffmpeg")
		b.cfg.Job.FFprobeBinary = filepath.Join(binDir, "ffprobe")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Job.TempRoot)
}
