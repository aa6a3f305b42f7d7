// Package main hosts the dubsync CLI entrypoint and command graph.
//
// The Cobra-based command tree drives one dubbing job at a time through
// the fallback ladder in internal/engine: resolve configuration, read a
// JSON job-spec file, run the ladder, and
// report the resulting accuracy summary. It centralizes configuration
// resolution and structured logging setup so subcommands can focus on
// output, not wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
