// Package contracts describes the collaborators the dubbing engine sits
// between but does not implement itself: the video acquirer, audio
// demuxer, speech recognizer, translator, and video remuxer named in
// spec.md §1 as "out of scope, described by their contract only." Each
// interface is the minimal surface the engine actually calls; this package
// also carries small in-memory reference implementations used by tests that need a full pipeline without real
// network/media dependencies.
package contracts

import "context"

// VideoAcquirer yields a local video file path from either a remote URL
// download or a local file already on disk.
type VideoAcquirer interface {
	Acquire(ctx context.Context, source string) (localPath string, err error)
}

// AudioDemuxer extracts a mono PCM waveform at a fixed sample rate from a
// video container, returning the path to the extracted WAV and its
// duration in seconds.
type AudioDemuxer interface {
	Demux(ctx context.Context, videoPath string) (wavPath string, durationSeconds float64, err error)
}

// RecognizedSegment is the wire shape a speech recognizer returns: a
// timed, transcribed span in the source language.
type RecognizedSegment struct {
	StartSeconds float64
	EndSeconds   float64
	Text         string
}

// Recognition is a speech recognizer's full output for one audio track.
type Recognition struct {
	Text     string
	Language string
	Segments []RecognizedSegment
}

// SpeechRecognizer returns {text, language, segments:[{start,end,text}]}
// for a demuxed waveform, per spec.md §1.
type SpeechRecognizer interface {
	Recognize(ctx context.Context, wavPath string) (Recognition, error)
}

// Translator turns source-language text into target-language text. The
// engine requires the result to be well-formed UTF-8; translators that
// cannot guarantee this should fail rather than emit invalid bytes,
// per SPEC_FULL.md's "trust UTF-8, fail loudly" resolution.
type Translator interface {
	Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error)
}

// VideoRemuxer copies the original video stream and replaces the audio
// track with the dubbed track, leaving the container and video codec
// untouched.
type VideoRemuxer interface {
	Remux(ctx context.Context, videoPath, dubbedAudioPath, outputPath string) error
}

// ProgressEvent is one step of the job orchestrator's progress stream.
type ProgressEvent struct {
	Stage   string
	Message string
	Percent float64
}

// ProgressSink receives progress events from the job orchestrator. The CLI
// and any future UI both implement this against the same engine calls.
type ProgressSink interface {
	Report(ProgressEvent)
}
