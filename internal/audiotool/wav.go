// Package audiotool is the audio toolkit adapter: WAV encode/decode,
// silence generation, triangular crossfade concatenation, ffmpeg-based
// pitch-invariant time-stretch, and ffprobe-based duration probing.
//
// Every buffer that reaches the Sequence Assembler must be mono PCM WAV at
// a single configured sample rate and bit depth; the helpers in this
// package enforce that format at their boundaries rather than trusting
// callers to have converted already. Format carries the resolved settings
// (config.Audio in production, DefaultFormat in tests and fixtures).
package audiotool

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Format describes the internal PCM format and crossfade length every
// stage of the pipeline must agree on. Zero-value fields are invalid; use
// DefaultFormat or resolve one from config.Audio.
type Format struct {
	SampleRate       int
	BitDepth         int
	Channels         int
	CrossfadeSeconds float64
}

// DefaultFormat returns the engine's historical defaults: mono 44.1kHz
// 16-bit PCM with a 10ms crossfade. Used by tests and fixtures that don't
// resolve a config.
func DefaultFormat() Format {
	return Format{SampleRate: 44100, BitDepth: 16, Channels: 1, CrossfadeSeconds: 0.010}
}

// WriteSilence writes a mono silent WAV file of the given duration to path
// in f's format.
func (f Format) WriteSilence(path string, durationSeconds float64) error {
	if durationSeconds < 0 {
		durationSeconds = 0
	}
	frames := int(durationSeconds*float64(f.SampleRate) + 0.5)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: f.Channels, SampleRate: f.SampleRate},
		Data:           make([]int, frames),
		SourceBitDepth: f.BitDepth,
	}
	return f.WritePCM(path, buf)
}

// WritePCM encodes an audio.IntBuffer to a PCM WAV file at path in f's
// format.
func (f Format) WritePCM(path string, buf *audio.IntBuffer) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audiotool: create %q: %w", path, err)
	}
	defer out.Close()

	enc := wav.NewEncoder(out, f.SampleRate, f.BitDepth, f.Channels, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("audiotool: encode %q: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("audiotool: finalize %q: %w", path, err)
	}
	return nil
}

// ReadPCM decodes a WAV file at path into an audio.IntBuffer.
func ReadPCM(path string) (*audio.IntBuffer, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audiotool: open %q: %w", path, err)
	}
	defer in.Close()

	dec := wav.NewDecoder(in)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audiotool: decode %q: %w", path, err)
	}
	return buf, nil
}

// DurationSeconds returns a buffer's duration given its own sample rate.
func DurationSeconds(buf *audio.IntBuffer) float64 {
	if buf == nil || buf.Format == nil || buf.Format.SampleRate == 0 || buf.Format.NumChannels == 0 {
		return 0
	}
	frames := len(buf.Data) / buf.Format.NumChannels
	return float64(frames) / float64(buf.Format.SampleRate)
}
