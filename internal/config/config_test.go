package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_ReadError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("Load: expected error")
	}
	if !strings.Contains(err.Error(), "config: read") {
		t.Fatalf("error: got %q", err)
	}
}

func TestLoad_ParseError(t *testing.T) {
	path := writeConfig(t, ":")
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load: expected error")
	}
	if !strings.Contains(err.Error(), "config: parse") {
		t.Fatalf("error: got %q", err)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, `
dataset:
  options_path: data/options.tsv
  labels_path: data/labels.tsv
models:
  - id: gpt-4
    provider: openai
    model: gpt-4
  - id: claude-3-5
    provider: claude
    model: claude-3-5-sonnet-latest
    protocol: verify
    calls_per_minute: 30
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Aggregation.Policy != PolicyCoerce {
		t.Fatalf("Policy: got %q want %q", cfg.Aggregation.Policy, PolicyCoerce)
	}
	if cfg.Export.Dir != "results" || cfg.Server.Addr != ":8080" {
		t.Fatalf("defaults: export=%q addr=%q", cfg.Export.Dir, cfg.Server.Addr)
	}

	m, err := cfg.Model("gpt-4")
	if err != nil {
		t.Fatalf("Model: %v", err)
	}
	if m.Protocol != ProtocolDirect {
		t.Fatalf("Protocol: got %q want %q", m.Protocol, ProtocolDirect)
	}
	if m.CallsPerMinute != DefaultCallsPerMinute {
		t.Fatalf("CallsPerMinute: got %d want %d", m.CallsPerMinute, DefaultCallsPerMinute)
	}
	if m.MaxTokens != DefaultMaxTokens {
		t.Fatalf("MaxTokens: got %d want %d", m.MaxTokens, DefaultMaxTokens)
	}
	if m.APIKeyEnv != "OPENAI_API_KEY" {
		t.Fatalf("APIKeyEnv: got %q", m.APIKeyEnv)
	}

	c, err := cfg.Model("claude-3-5")
	if err != nil {
		t.Fatalf("Model: %v", err)
	}
	if c.APIKeyEnv != "ANTHROPIC_API_KEY" {
		t.Fatalf("APIKeyEnv: got %q", c.APIKeyEnv)
	}
	if c.CallsPerMinute != 30 {
		t.Fatalf("CallsPerMinute: got %d want %d", c.CallsPerMinute, 30)
	}
}

func TestLoad_ExplicitKeyEnvKept(t *testing.T) {
	path := writeConfig(t, `
models:
  - id: deepseek-chat
    provider: openai
    model: deepseek-chat
    base_url: https://api.deepseek.com/v1
    api_key_env: DEEPSEEK_API_KEY
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	m, err := cfg.Model("deepseek-chat")
	if err != nil {
		t.Fatalf("Model: %v", err)
	}
	if m.APIKeyEnv != "DEEPSEEK_API_KEY" {
		t.Fatalf("APIKeyEnv: got %q want %q", m.APIKeyEnv, "DEEPSEEK_API_KEY")
	}
	if m.BaseURL != "https://api.deepseek.com/v1" {
		t.Fatalf("BaseURL: got %q", m.BaseURL)
	}
}

func TestLoad_DuplicateModelID(t *testing.T) {
	path := writeConfig(t, `
models:
  - id: m1
    provider: openai
    model: a
  - id: m1
    provider: openai
    model: b
`)

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "duplicate id") {
		t.Fatalf("error: got %v", err)
	}
}

func TestLoad_UnknownProtocol(t *testing.T) {
	path := writeConfig(t, `
models:
  - id: m1
    provider: openai
    model: a
    protocol: majority
`)

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "unknown protocol") {
		t.Fatalf("error: got %v", err)
	}
}

func TestLoad_UnknownPolicy(t *testing.T) {
	path := writeConfig(t, `
aggregation:
  policy: random
`)

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "unknown aggregation policy") {
		t.Fatalf("error: got %v", err)
	}
}

func TestModel_Unknown(t *testing.T) {
	cfg := &Config{Models: []ModelConfig{{ID: "m1"}}}
	if _, err := cfg.Model("nope"); err == nil || !strings.Contains(err.Error(), "unknown model") {
		t.Fatalf("error: got %v", err)
	}
	if _, err := cfg.Model("  "); err == nil {
		t.Fatalf("blank id: expected error")
	}
}

func TestModelIDs(t *testing.T) {
	cfg := &Config{Models: []ModelConfig{{ID: "a"}, {ID: "b"}}}
	ids := cfg.ModelIDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("ModelIDs: got %v", ids)
	}

	var nilCfg *Config
	if nilCfg.ModelIDs() != nil {
		t.Fatalf("nil config should return nil ids")
	}
}
