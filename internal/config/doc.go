// Package config loads, normalizes, and validates dubsync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DUBSYNC_SYNTH_API_KEY. The Config type centralizes every knob the engine
// and CLI need, from the job temp root to the voice synthesizer endpoint.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
