package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunDubsJobFromSpecFile(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := t.TempDir()

	outputPath := filepath.Join(dir, "out.wav")
	specPath := writeJobSpec(t, dir, jobSpec{
		OriginalDurationSeconds: 1.0,
		Language:                "es",
		TranslatedText:          "hola",
		OutputPath:              outputPath,
		Segments: []jobSpecSegment{
			{StartSeconds: 0, EndSeconds: 1.0, Text: "hello"},
		},
	})

	out, _, err := runCLI(t, []string{"run", "--file", specPath}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Strategy: timestamp")
	if _, err := os.Stat(outputPath); err != nil {
		t.Fatalf("expected output file: %v", err)
	}
}

func TestRunRequiresSpecFile(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"run"}, env.configPath)
	if err == nil {
		t.Fatal("expected error when --file is omitted")
	}
}

func TestRunRequiresOutputPath(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := t.TempDir()
	specPath := writeJobSpec(t, dir, jobSpec{
		OriginalDurationSeconds: 1.0,
		Language:                "es",
		TranslatedText:          "hola",
		Segments: []jobSpecSegment{
			{StartSeconds: 0, EndSeconds: 1.0, Text: "hello"},
		},
	})

	_, _, err := runCLI(t, []string{"run", "--file", specPath}, env.configPath)
	if err == nil {
		t.Fatal("expected error when no output path is set")
	}
}
