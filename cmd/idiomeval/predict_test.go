package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stellarlinkco/idiom-eval/internal/config"
	"github.com/stellarlinkco/idiom-eval/internal/predict"
	"github.com/stellarlinkco/idiom-eval/internal/prompt"
)

func TestResolveModels(t *testing.T) {
	t.Parallel()

	if _, err := resolveModels(nil, ""); err == nil {
		t.Fatalf("expected error for nil config")
	}

	cfg := &config.Config{}
	if _, err := resolveModels(cfg, ""); err == nil || !strings.Contains(err.Error(), "no models configured") {
		t.Fatalf("expected no models error, got %v", err)
	}

	cfg = &config.Config{
		Models: []config.ModelConfig{
			{ID: "gpt-4o", Provider: "openai"},
			{ID: "claude-sonnet", Provider: "claude"},
		},
	}

	if _, err := resolveModels(cfg, "nope"); err == nil || !strings.Contains(err.Error(), "unknown model") {
		t.Fatalf("expected unknown model error, got %v", err)
	}

	models, err := resolveModels(cfg, " gpt-4o ")
	if err != nil {
		t.Fatalf("resolveModels(gpt-4o): %v", err)
	}
	if len(models) != 1 || models[0].ID != "gpt-4o" {
		t.Fatalf("resolveModels(gpt-4o): got %+v", models)
	}

	models, err = resolveModels(cfg, "")
	if err != nil {
		t.Fatalf("resolveModels(all): %v", err)
	}
	if len(models) != 2 || models[0].ID != "gpt-4o" || models[1].ID != "claude-sonnet" {
		t.Fatalf("resolveModels(all): got %+v", models)
	}
}

func TestLoadPromptLibrary(t *testing.T) {
	t.Parallel()

	lib, err := loadPromptLibrary(nil)
	if err != nil {
		t.Fatalf("loadPromptLibrary(nil): %v", err)
	}
	if _, err := lib.Get(prompt.DefaultDirectName); err != nil {
		t.Fatalf("builtin prompt missing: %v", err)
	}

	lib, err = loadPromptLibrary(&config.Config{})
	if err != nil {
		t.Fatalf("loadPromptLibrary(no dir): %v", err)
	}
	if _, err := lib.Get(prompt.DefaultVerifyName); err != nil {
		t.Fatalf("builtin prompt missing: %v", err)
	}

	// A configured but absent directory is not an error.
	cfg := &config.Config{}
	cfg.Prompts.Dir = filepath.Join(t.TempDir(), "missing")
	if _, err := loadPromptLibrary(cfg); err != nil {
		t.Fatalf("loadPromptLibrary(missing dir): %v", err)
	}

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "custom.yaml"), strings.TrimSpace(`
name: custom-direct
version: "2"
template: "Hvad betyder {{EXPRESSION}}?"
variables:
  - name: EXPRESSION
    required: true
`)+"\n")
	cfg = &config.Config{}
	cfg.Prompts.Dir = dir
	lib, err = loadPromptLibrary(cfg)
	if err != nil {
		t.Fatalf("loadPromptLibrary(dir): %v", err)
	}
	if _, err := lib.Get("custom-direct"); err != nil {
		t.Fatalf("expected custom prompt registered: %v", err)
	}

	writeFile(t, filepath.Join(dir, "broken.yaml"), "template: \"no name\"\n")
	if _, err := loadPromptLibrary(cfg); err == nil {
		t.Fatalf("expected error for invalid prompt file")
	}
}

func TestPrintRunReport(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printRunReport(&buf, nil)
	if buf.Len() != 0 {
		t.Fatalf("expected no output for nil report, got %q", buf.String())
	}

	printRunReport(&buf, &predict.RunReport{
		ModelID:   "gpt-4o",
		Total:     10,
		Processed: 4,
		Written:   3,
		Skipped:   1,
		Remaining: 6,
	})
	want := "gpt-4o: processed=4 written=3 skipped=1 remaining=6 (dataset 10)\n"
	if buf.String() != want {
		t.Fatalf("report line: got %q want %q", buf.String(), want)
	}
}
