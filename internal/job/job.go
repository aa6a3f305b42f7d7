// Package job owns the SynthesisJob lifecycle: a scoped, flock-exclusive
// temporary directory plus the data model the rest of the dubbing engine
// threads through it (recognizer segments, timed segments, calibration
// samples, the adaptive rate, and synthesized audio artifacts).
package job

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// RecognizerSegment is a speech-to-text interval with its transcript.
type RecognizerSegment struct {
	StartSeconds float64
	EndSeconds   float64
	Text         string
}

// TimedSegment is a translated part paired with a repaired, non-overlapping
// timing interval, the output of the Segment Aligner.
type TimedSegment struct {
	Text         string
	StartSeconds float64
	EndSeconds   float64
}

// CalibrationSample is one (target, actual) duration pair observed during
// the Rate Calibrator's collection window.
type CalibrationSample struct {
	TargetSeconds float64
	ActualSeconds float64
}

// AdaptiveRate is the frozen global synthesis-rate bias, an integer
// percentage in [-100, 100]. The zero value is the nominal +0% rate.
type AdaptiveRate int

// Clamp constrains the rate to the synthesizer's accepted range.
func (r AdaptiveRate) Clamp() AdaptiveRate {
	switch {
	case r < -100:
		return -100
	case r > 100:
		return 100
	default:
		return r
	}
}

// String renders the rate in the synthesizer RPC's "+N%"/"-N%" form.
func (r AdaptiveRate) String() string {
	if r >= 0 {
		return fmt.Sprintf("+%d%%", int(r))
	}
	return fmt.Sprintf("%d%%", int(r))
}

// AudioArtifact is an opaque handle to a PCM WAV buffer staged on disk
// inside the job's temp directory, with its duration cached so downstream
// stages don't re-probe it.
type AudioArtifact struct {
	Path            string
	DurationSeconds float64
}

var ErrClosed = errors.New("synthesis job is closed")

// SynthesisJob owns a job-scoped temporary directory, the original audio
// duration, and the queue of artifacts produced while dubbing. It is
// created at job start and torn down via Close on every exit path
// (success, failure, or cancellation), which removes the temp directory
// and releases its exclusive lock.
type SynthesisJob struct {
	ID                    string
	Dir                   string
	OriginalDurationSecs  float64
	RecognizerSegments    []RecognizerSegment
	TranslatedText        string

	mu       sync.Mutex
	lock     *flock.Flock
	closed   bool
	progress int
	segments int
	queued   []AudioArtifact
}

// New creates a fresh job-scoped temp directory under tempRoot, named by a
// new UUID, and takes an exclusive flock on a sentinel file inside it so a
// second process cannot take the same directory. The sweeps in
// internal/staging do not check this lock; they select directories by age
// or by job ID only.
func New(tempRoot string, originalDurationSecs float64, segments []RecognizerSegment, translatedText string) (*SynthesisJob, error) {
	id := uuid.NewString()
	dir := filepath.Join(tempRoot, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create job dir: %w", err)
	}

	lockPath := filepath.Join(dir, ".lock")
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("lock job dir: %w", err)
	}
	if !ok {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("lock job dir: already held")
	}

	return &SynthesisJob{
		ID:                   id,
		Dir:                  dir,
		OriginalDurationSecs: originalDurationSecs,
		RecognizerSegments:   segments,
		TranslatedText:       translatedText,
		lock:                 lock,
	}, nil
}

// ArtifactPath returns a path inside the job's temp directory for a new
// artifact file, named by its position in the enqueue sequence.
func (j *SynthesisJob) ArtifactPath(kind string, index int) string {
	return filepath.Join(j.Dir, fmt.Sprintf("%04d-%s.wav", index, kind))
}

// Enqueue appends a produced artifact to the job's ordered queue and
// advances the progress counter. Enqueue order is the Assembler's
// concatenation order.
func (j *SynthesisJob) Enqueue(artifact AudioArtifact) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}
	j.queued = append(j.queued, artifact)
	j.progress++
	return nil
}

// Artifacts returns the queued artifacts in enqueue order.
func (j *SynthesisJob) Artifacts() []AudioArtifact {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]AudioArtifact, len(j.queued))
	copy(out, j.queued)
	return out
}

// Progress returns the number of artifacts enqueued so far.
func (j *SynthesisJob) Progress() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progress
}

// Close releases the job's lock and removes its temp directory along with
// every artifact it ever held, on every exit path.
func (j *SynthesisJob) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	j.queued = nil

	var errs []error
	if j.lock != nil {
		if err := j.lock.Unlock(); err != nil {
			errs = append(errs, fmt.Errorf("unlock job dir: %w", err))
		}
	}
	if err := os.RemoveAll(j.Dir); err != nil {
		errs = append(errs, fmt.Errorf("remove job dir: %w", err))
	}
	return errors.Join(errs...)
}
