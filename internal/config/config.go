package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Audio contains sample-format and mixing settings shared by every stage
// that touches PCM data.
type Audio struct {
	SampleRate         int `toml:"sample_rate"`
	CrossfadeMS        int `toml:"crossfade_ms"`
	SilenceThresholdMS int `toml:"silence_threshold_ms"`
}

// Calibration contains the Rate Calibrator's sampling and clamp settings.
type Calibration struct {
	MaxSamples     int     `toml:"max_samples"`
	SampleFraction float64 `toml:"sample_fraction"`
	SigmaGate      float64 `toml:"sigma_gate"`
	RateClampMin   float64 `toml:"rate_clamp_min"`
	RateClampMax   float64 `toml:"rate_clamp_max"`
}

// Splitter contains the Proportional Splitter's break-point search settings.
type Splitter struct {
	SearchWindowFraction float64 `toml:"search_window_fraction"`
}

// Synthesizer contains connection settings for the neural voice synthesizer.
type Synthesizer struct {
	Endpoint       string            `toml:"endpoint"`
	APIKey         string            `toml:"api_key"`
	TimeoutSeconds int               `toml:"timeout_seconds"`
	VoiceOverrides map[string]string `toml:"voice_overrides"`
}

// Fallback contains the final-trim tolerances that drive the degrade
// ladder, expressed as fractions of the original duration (0.01 == 1%).
type Fallback struct {
	ProportionalToleranceFraction float64 `toml:"proportional_tolerance_fraction"`
	TimestampToleranceFraction    float64 `toml:"timestamp_tolerance_fraction"`
}

// Job contains temp-directory and external-binary settings for a synthesis run.
type Job struct {
	TempRoot      string `toml:"temp_root"`
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"dir"`
}

// Config encapsulates all configuration values for dubsync.
//
// Configuration sections by subsystem:
//   - Audio: sample rate, crossfade, and silence-detection settings
//   - Calibration: Rate Calibrator sampling and clamp behavior
//   - Splitter: Proportional Splitter break-point search window
//   - Synthesizer: neural voice synthesizer connection and voice overrides
//   - Fallback: degrade-ladder tolerances
//   - Job: temp root and external binary names
//   - Logging: log format, level, and directory
type Config struct {
	Audio       Audio       `toml:"audio"`
	Calibration Calibration `toml:"calibration"`
	Splitter    Splitter    `toml:"splitter"`
	Synthesizer Synthesizer `toml:"synthesizer"`
	Fallback    Fallback    `toml:"fallback"`
	Job         Job         `toml:"job"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/dubsync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/dubsync/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("dubsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run needs before it starts.
func (c *Config) EnsureDirectories() error {
	if strings.TrimSpace(c.Job.TempRoot) != "" {
		if err := os.MkdirAll(c.Job.TempRoot, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", c.Job.TempRoot, err)
		}
	}
	if strings.TrimSpace(c.Logging.Dir) != "" {
		if err := os.MkdirAll(c.Logging.Dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", c.Logging.Dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultTempRoot() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "dubsync", "jobs")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/dubsync/jobs"
	}
	return filepath.Join(home, ".cache", "dubsync", "jobs")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
