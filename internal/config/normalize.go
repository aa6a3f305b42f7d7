package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeJob(); err != nil {
		return err
	}
	c.normalizeAudio()
	c.normalizeCalibration()
	c.normalizeSplitter()
	c.normalizeSynthesizer()
	c.normalizeFallback()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeJob() error {
	var err error
	if strings.TrimSpace(c.Job.TempRoot) == "" {
		c.Job.TempRoot = defaultTempRoot()
	}
	if c.Job.TempRoot, err = expandPath(c.Job.TempRoot); err != nil {
		return fmt.Errorf("job.temp_root: %w", err)
	}
	c.Job.FFmpegBinary = strings.TrimSpace(c.Job.FFmpegBinary)
	if c.Job.FFmpegBinary == "" {
		c.Job.FFmpegBinary = defaultFFmpegBinary
	}
	c.Job.FFprobeBinary = strings.TrimSpace(c.Job.FFprobeBinary)
	if c.Job.FFprobeBinary == "" {
		c.Job.FFprobeBinary = defaultFFprobeBinary
	}
	return nil
}

func (c *Config) normalizeAudio() {
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = defaultSampleRate
	}
	if c.Audio.CrossfadeMS <= 0 {
		c.Audio.CrossfadeMS = defaultCrossfadeMS
	}
	if c.Audio.SilenceThresholdMS <= 0 {
		c.Audio.SilenceThresholdMS = defaultSilenceThresholdMS
	}
}

func (c *Config) normalizeCalibration() {
	if c.Calibration.MaxSamples <= 0 {
		c.Calibration.MaxSamples = defaultCalibrationMax
	}
	if c.Calibration.SampleFraction <= 0 {
		c.Calibration.SampleFraction = defaultCalibrationFraction
	}
	if c.Calibration.SigmaGate <= 0 {
		c.Calibration.SigmaGate = defaultSigmaGate
	}
	if c.Calibration.RateClampMin <= 0 {
		c.Calibration.RateClampMin = defaultRateClampMin
	}
	if c.Calibration.RateClampMax <= 0 {
		c.Calibration.RateClampMax = defaultRateClampMax
	}
}

func (c *Config) normalizeSplitter() {
	if c.Splitter.SearchWindowFraction <= 0 {
		c.Splitter.SearchWindowFraction = defaultSearchWindowFrac
	}
}

func (c *Config) normalizeSynthesizer() {
	c.Synthesizer.Endpoint = strings.TrimSpace(c.Synthesizer.Endpoint)
	if c.Synthesizer.Endpoint == "" {
		c.Synthesizer.Endpoint = defaultSynthEndpoint
	}
	if c.Synthesizer.APIKey == "" {
		if value, ok := os.LookupEnv("DUBSYNC_SYNTH_API_KEY"); ok {
			c.Synthesizer.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Synthesizer.TimeoutSeconds <= 0 {
		c.Synthesizer.TimeoutSeconds = defaultSynthTimeoutSeconds
	}
	if c.Synthesizer.VoiceOverrides == nil {
		c.Synthesizer.VoiceOverrides = map[string]string{}
	} else {
		normalized := make(map[string]string, len(c.Synthesizer.VoiceOverrides))
		for lang, voice := range c.Synthesizer.VoiceOverrides {
			key := strings.ToLower(strings.TrimSpace(lang))
			if key == "" {
				continue
			}
			normalized[key] = strings.TrimSpace(voice)
		}
		c.Synthesizer.VoiceOverrides = normalized
	}
}

func (c *Config) normalizeFallback() {
	if c.Fallback.ProportionalToleranceFraction <= 0 {
		c.Fallback.ProportionalToleranceFraction = defaultProportionalTolFraction
	}
	if c.Fallback.TimestampToleranceFraction <= 0 {
		c.Fallback.TimestampToleranceFraction = defaultTimestampTolFraction
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Dir = strings.TrimSpace(c.Logging.Dir)
}
