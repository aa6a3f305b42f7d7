// Package voice normalizes language codes and resolves them to synthesizer
// voice IDs.
//
// It normalizes ISO 639-1/639-2 codes and English language names, then
// layers a fixed language-to-voice-ID table on top so
// the rest of the engine can turn a target-language tag into a concrete
// voice without knowing the synthesizer's own naming scheme. Unrecognized
// codes resolve to the English voice rather than failing a job outright.
package voice
