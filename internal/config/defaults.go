package config

const (
	defaultSampleRate          = 24000
	defaultCrossfadeMS         = 10
	defaultSilenceThresholdMS  = 200
	defaultCalibrationMax      = 5
	defaultCalibrationFraction = 0.2
	defaultSigmaGate           = 2.0
	defaultRateClampMin        = 0.7
	defaultRateClampMax        = 1.3
	defaultSearchWindowFrac    = 0.15
	defaultSynthTimeoutSeconds = 30
	defaultSynthEndpoint       = "https://api.dubsync.example/v1/synthesize"
	defaultProportionalTolFraction = 0.02
	defaultTimestampTolFraction    = 0.01
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Audio: Audio{
			SampleRate:         defaultSampleRate,
			CrossfadeMS:        defaultCrossfadeMS,
			SilenceThresholdMS: defaultSilenceThresholdMS,
		},
		Calibration: Calibration{
			MaxSamples:     defaultCalibrationMax,
			SampleFraction: defaultCalibrationFraction,
			SigmaGate:      defaultSigmaGate,
			RateClampMin:   defaultRateClampMin,
			RateClampMax:   defaultRateClampMax,
		},
		Splitter: Splitter{
			SearchWindowFraction: defaultSearchWindowFrac,
		},
		Synthesizer: Synthesizer{
			Endpoint:       defaultSynthEndpoint,
			TimeoutSeconds: defaultSynthTimeoutSeconds,
			VoiceOverrides: map[string]string{},
		},
		Fallback: Fallback{
			ProportionalToleranceFraction: defaultProportionalTolFraction,
			TimestampToleranceFraction:    defaultTimestampTolFraction,
		},
		Job: Job{
			TempRoot:      defaultTempRoot(),
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
