// Package services defines shared utilities consumed by the dub synthesis
// engine and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, fallback strategy names, segment
//     indices, and correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into a degrade-vs-fail decision for the fallback ladder.
//
// Use these helpers when wiring new engine stages so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
