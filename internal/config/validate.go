package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateCalibration(); err != nil {
		return err
	}
	if err := c.validateSplitter(); err != nil {
		return err
	}
	if err := c.validateSynthesizer(); err != nil {
		return err
	}
	if err := c.validateFallback(); err != nil {
		return err
	}
	if err := c.validateJob(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAudio() error {
	if err := ensurePositiveMap(map[string]int{
		"audio.sample_rate":          c.Audio.SampleRate,
		"audio.crossfade_ms":         c.Audio.CrossfadeMS,
		"audio.silence_threshold_ms": c.Audio.SilenceThresholdMS,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCalibration() error {
	if c.Calibration.MaxSamples <= 0 {
		return errors.New("calibration.max_samples must be positive")
	}
	if c.Calibration.SampleFraction <= 0 || c.Calibration.SampleFraction > 1 {
		return errors.New("calibration.sample_fraction must be between 0 and 1")
	}
	if c.Calibration.SigmaGate <= 0 {
		return errors.New("calibration.sigma_gate must be positive")
	}
	if c.Calibration.RateClampMin <= 0 {
		return errors.New("calibration.rate_clamp_min must be positive")
	}
	if c.Calibration.RateClampMax <= c.Calibration.RateClampMin {
		return errors.New("calibration.rate_clamp_max must be greater than calibration.rate_clamp_min")
	}
	return nil
}

func (c *Config) validateSplitter() error {
	if c.Splitter.SearchWindowFraction <= 0 || c.Splitter.SearchWindowFraction > 1 {
		return errors.New("splitter.search_window_fraction must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateSynthesizer() error {
	if strings.TrimSpace(c.Synthesizer.Endpoint) == "" {
		return errors.New("synthesizer.endpoint must be set")
	}
	if c.Synthesizer.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/dubsync/config.toml"
		}
		return fmt.Errorf("synthesizer.api_key is required. Set DUBSYNC_SYNTH_API_KEY env var or edit %s", defaultPath)
	}
	if c.Synthesizer.TimeoutSeconds <= 0 {
		return errors.New("synthesizer.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateFallback() error {
	if c.Fallback.ProportionalToleranceFraction <= 0 || c.Fallback.ProportionalToleranceFraction > 1 {
		return errors.New("fallback.proportional_tolerance_fraction must be between 0 and 1")
	}
	if c.Fallback.TimestampToleranceFraction <= 0 || c.Fallback.TimestampToleranceFraction > 1 {
		return errors.New("fallback.timestamp_tolerance_fraction must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateJob() error {
	if strings.TrimSpace(c.Job.TempRoot) == "" {
		return errors.New("job.temp_root must be set")
	}
	if strings.TrimSpace(c.Job.FFmpegBinary) == "" {
		return errors.New("job.ffmpeg_binary must be set")
	}
	if strings.TrimSpace(c.Job.FFprobeBinary) == "" {
		return errors.New("job.ffprobe_binary must be set")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
