package main

import (
	"encoding/json"
	"fmt"
	"os"

	"dubsync/internal/engine"
	"dubsync/internal/job"
)

// jobSpec is the on-disk shape `dub run` and `dub timestamp parse` read: the
// original track duration, the recognizer's segment list, and the
// translated text for one dubbing job.
type jobSpec struct {
	OriginalDurationSeconds float64          `json:"original_duration_s"`
	Language                string           `json:"language"`
	TranslatedText          string           `json:"translated_text"`
	OutputPath              string           `json:"output_path"`
	Segments                []jobSpecSegment `json:"segments"`
}

type jobSpecSegment struct {
	StartSeconds float64 `json:"start_s"`
	EndSeconds   float64 `json:"end_s"`
	Text         string  `json:"text"`
}

func loadJobSpec(path string) (jobSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return jobSpec{}, fmt.Errorf("read job spec %q: %w", path, err)
	}
	var spec jobSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return jobSpec{}, fmt.Errorf("parse job spec %q: %w", path, err)
	}
	if spec.OriginalDurationSeconds <= 0 {
		return jobSpec{}, fmt.Errorf("job spec %q: original_duration_s must be positive", path)
	}
	return spec, nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func (spec jobSpec) toEngineInput() engine.Input {
	segments := make([]job.RecognizerSegment, len(spec.Segments))
	for i, s := range spec.Segments {
		segments[i] = job.RecognizerSegment{StartSeconds: s.StartSeconds, EndSeconds: s.EndSeconds, Text: s.Text}
	}
	return engine.Input{
		OriginalDurationSecs: spec.OriginalDurationSeconds,
		RecognizerSegments:   segments,
		TranslatedText:       spec.TranslatedText,
		Language:             spec.Language,
	}
}
