package audiotool

import (
	"fmt"
	"math"

	"github.com/go-audio/audio"
)

// ConcatWithCrossfade chains buffers left-to-right, applying a triangular
// crossfade of f.CrossfadeSeconds between each adjacent pair so the
// ordering (and therefore the output) is deterministic. A single buffer is
// returned unchanged; no crossfade is applied when there is only one.
func (f Format) ConcatWithCrossfade(buffers []*audio.IntBuffer) (*audio.IntBuffer, error) {
	if len(buffers) == 0 {
		return nil, fmt.Errorf("audiotool: concat: no buffers supplied")
	}
	if len(buffers) == 1 {
		return cloneBuffer(buffers[0]), nil
	}

	result := cloneBuffer(buffers[0])
	for _, next := range buffers[1:] {
		merged, err := crossfadePair(result, next, f.CrossfadeSeconds)
		if err != nil {
			return nil, err
		}
		result = merged
	}
	return result, nil
}

// ConcatPlain chains buffers left-to-right with a hard cut between each
// pair and no cross-fade, for strategies that trade click-free boundaries
// for simplicity (the proportional fallback strategy).
func ConcatPlain(buffers []*audio.IntBuffer) (*audio.IntBuffer, error) {
	if len(buffers) == 0 {
		return nil, fmt.Errorf("audiotool: concat: no buffers supplied")
	}
	result := cloneBuffer(buffers[0])
	for _, next := range buffers[1:] {
		if result.Format.SampleRate != next.Format.SampleRate || result.Format.NumChannels != next.Format.NumChannels {
			return nil, fmt.Errorf("audiotool: concat: mismatched format")
		}
		result = concatPlain(result, next)
	}
	return result, nil
}

func crossfadePair(a, b *audio.IntBuffer, crossfadeSeconds float64) (*audio.IntBuffer, error) {
	if a.Format.SampleRate != b.Format.SampleRate || a.Format.NumChannels != b.Format.NumChannels {
		return nil, fmt.Errorf("audiotool: crossfade: mismatched format")
	}

	fadeFrames := int(crossfadeSeconds * float64(a.Format.SampleRate))
	if fadeFrames > len(a.Data) {
		fadeFrames = len(a.Data)
	}
	if fadeFrames > len(b.Data) {
		fadeFrames = len(b.Data)
	}
	if fadeFrames <= 0 {
		return concatPlain(a, b), nil
	}

	aHead := a.Data[:len(a.Data)-fadeFrames]
	aFadeOut := a.Data[len(a.Data)-fadeFrames:]
	bFadeIn := b.Data[:fadeFrames]
	bTail := b.Data[fadeFrames:]

	blended := make([]int, fadeFrames)
	for i := 0; i < fadeFrames; i++ {
		t := float64(i) / float64(fadeFrames)
		gainOut := 1.0 - t
		gainIn := t
		blended[i] = int(math.Round(float64(aFadeOut[i])*gainOut + float64(bFadeIn[i])*gainIn))
	}

	data := make([]int, 0, len(aHead)+len(blended)+len(bTail))
	data = append(data, aHead...)
	data = append(data, blended...)
	data = append(data, bTail...)

	return &audio.IntBuffer{
		Format:         a.Format,
		Data:           data,
		SourceBitDepth: a.SourceBitDepth,
	}, nil
}

func concatPlain(a, b *audio.IntBuffer) *audio.IntBuffer {
	data := make([]int, 0, len(a.Data)+len(b.Data))
	data = append(data, a.Data...)
	data = append(data, b.Data...)
	return &audio.IntBuffer{
		Format:         a.Format,
		Data:           data,
		SourceBitDepth: a.SourceBitDepth,
	}
}

func cloneBuffer(buf *audio.IntBuffer) *audio.IntBuffer {
	data := make([]int, len(buf.Data))
	copy(data, buf.Data)
	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: buf.Format.NumChannels, SampleRate: buf.Format.SampleRate},
		Data:           data,
		SourceBitDepth: buf.SourceBitDepth,
	}
}
