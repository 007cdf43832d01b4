package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePrompt(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	path := writePrompt(t, t.TempDir(), "p.yaml", `
name: direct-choice-gpt4o
version: "2"
template: "Pick one: {{EXPRESSION}}"
variables:
  - name: EXPRESSION
    required: true
`)

	p, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if p.Name != "direct-choice-gpt4o" || p.Version != "2" {
		t.Fatalf("prompt: %+v", p)
	}
}

func TestLoadFromFile_Invalid(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	badYAML := writePrompt(t, dir, "bad.yaml", ":")
	if _, err := LoadFromFile(badYAML); err == nil || !strings.Contains(err.Error(), "prompt: parse") {
		t.Fatalf("bad yaml: got %v", err)
	}

	noTemplate := writePrompt(t, dir, "empty.yaml", "name: x")
	if _, err := LoadFromFile(noTemplate); err == nil || !strings.Contains(err.Error(), "missing template") {
		t.Fatalf("missing template: got %v", err)
	}

	if _, err := LoadFromFile(filepath.Join(dir, "absent.yaml")); err == nil {
		t.Fatalf("absent file: expected error")
	}
}

func TestLoadFromDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePrompt(t, dir, "b.yaml", "name: b\ntemplate: B")
	writePrompt(t, dir, "a.yml", "name: a\ntemplate: A")
	writePrompt(t, dir, "ignored.txt", "not yaml")

	prompts, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("LoadFromDir: %v", err)
	}
	if len(prompts) != 2 {
		t.Fatalf("len = %d, want 2", len(prompts))
	}
	if prompts[0].Name != "a" || prompts[1].Name != "b" {
		t.Fatalf("order: %q, %q", prompts[0].Name, prompts[1].Name)
	}
}

func TestLibraryOverride(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePrompt(t, dir, "direct.yaml", `
name: direct-choice
version: "2"
template: "Revised: {{EXPRESSION}}"
variables:
  - name: EXPRESSION
    required: true
`)

	lib := NewLibrary()
	if err := lib.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	p, err := lib.Get(DefaultDirectName)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Version != "2" || !strings.HasPrefix(p.Template, "Revised:") {
		t.Fatalf("override not applied: %+v", p)
	}

	if _, err := lib.Get("unknown"); err == nil || !strings.Contains(err.Error(), "unknown prompt") {
		t.Fatalf("unknown prompt: got %v", err)
	}

	names := lib.Names()
	if len(names) != 2 {
		t.Fatalf("Names = %v", names)
	}
}
