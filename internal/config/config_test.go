package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"dubsync/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("DUBSYNC_SYNTH_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CACHE_HOME", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantTempRoot := filepath.Join(tempHome, ".cache", "dubsync", "jobs")
	if cfg.Job.TempRoot != wantTempRoot {
		t.Fatalf("unexpected temp root: got %q want %q", cfg.Job.TempRoot, wantTempRoot)
	}
	if cfg.Synthesizer.APIKey != "test-key" {
		t.Fatalf("expected synthesizer key from env, got %q", cfg.Synthesizer.APIKey)
	}
	if cfg.Synthesizer.Endpoint != config.Default().Synthesizer.Endpoint {
		t.Fatalf("unexpected synthesizer endpoint: %q", cfg.Synthesizer.Endpoint)
	}
	if cfg.Audio.SampleRate != config.Default().Audio.SampleRate {
		t.Fatalf("unexpected sample rate: %d", cfg.Audio.SampleRate)
	}
	if cfg.Calibration.RateClampMax <= cfg.Calibration.RateClampMin {
		t.Fatalf("expected rate clamp max > min, got %v <= %v", cfg.Calibration.RateClampMax, cfg.Calibration.RateClampMin)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	info, err := os.Stat(cfg.Job.TempRoot)
	if err != nil {
		t.Fatalf("expected temp root %q to exist: %v", cfg.Job.TempRoot, err)
	}
	if !info.IsDir() {
		t.Fatalf("expected %q to be a directory", cfg.Job.TempRoot)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "dubsync.toml")

	type payload struct {
		Synthesizer struct {
			Endpoint string `toml:"endpoint"`
			APIKey   string `toml:"api_key"`
		} `toml:"synthesizer"`
		Audio struct {
			SampleRate int `toml:"sample_rate"`
		} `toml:"audio"`
	}
	custom := payload{}
	custom.Synthesizer.Endpoint = "https://example.com/synthesize"
	custom.Synthesizer.APIKey = "abc123"
	custom.Audio.SampleRate = 48000
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Synthesizer.Endpoint != "https://example.com/synthesize" {
		t.Fatalf("expected endpoint override, got %q", cfg.Synthesizer.Endpoint)
	}
	if cfg.Synthesizer.APIKey != "abc123" {
		t.Fatalf("expected API key from file, got %q", cfg.Synthesizer.APIKey)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Fatalf("expected sample rate 48000, got %d", cfg.Audio.SampleRate)
	}
}

func TestEnvVarOverridesConfigFileForAPIKey(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "dubsync.toml")

	type payload struct {
		Synthesizer struct {
			APIKey string `toml:"api_key"`
		} `toml:"synthesizer"`
	}
	custom := payload{}
	custom.Synthesizer.APIKey = "file-key"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	t.Setenv("DUBSYNC_SYNTH_API_KEY", "env-key")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Synthesizer.APIKey != "file-key" {
		t.Errorf("expected config file key to win when already set, got %q", cfg.Synthesizer.APIKey)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Audio.SampleRate != config.Default().Audio.SampleRate {
		t.Fatalf("sample config sample rate mismatch: got %d", cfg.Audio.SampleRate)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Synthesizer.APIKey = "key"
	cfg.Audio.SampleRate = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive sample rate")
	}

	cfg = config.Default()
	cfg.Synthesizer.APIKey = "key"
	cfg.Calibration.RateClampMax = cfg.Calibration.RateClampMin
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when rate clamp max <= min")
	}

	cfg = config.Default()
	cfg.Synthesizer.APIKey = "key"
	cfg.Splitter.SearchWindowFraction = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for search window fraction out of range")
	}

	cfg = config.Default()
	cfg.Synthesizer.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when synthesizer API key is missing")
	}

	cfg = config.Default()
	cfg.Synthesizer.APIKey = "key"
	cfg.Job.TempRoot = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when job temp root is empty")
	}
}
