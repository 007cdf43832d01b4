package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/stellarlinkco/idiom-eval/internal/log"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

// Protocol names accepted in model entries.
const (
	ProtocolDirect = "direct"
	ProtocolVerify = "verify"
)

// Tie-break policy names for the verification protocol.
const (
	PolicyCoerce = "coerce"
	PolicyStrict = "strict"
)

const (
	DefaultCallsPerMinute = 60
	DefaultMaxTokens      = 16
)

type Config struct {
	Dataset     DatasetConfig     `yaml:"dataset"`
	Models      []ModelConfig     `yaml:"models"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Storage     StorageConfig     `yaml:"storage"`
	Prompts     PromptsConfig     `yaml:"prompts,omitempty"`
	Export      ExportConfig      `yaml:"export,omitempty"`
	Server      ServerConfig      `yaml:"server,omitempty"`
	Logging     log.Config        `yaml:"logging,omitempty"`
}

type DatasetConfig struct {
	OptionsPath string `yaml:"options_path"`
	LabelsPath  string `yaml:"labels_path"`
}

// ModelConfig describes one benchmarked service. One entry per model id; the
// id keys the prediction table. Credentials never live in the file: APIKeyEnv
// names the environment variable that must hold the secret.
type ModelConfig struct {
	ID               string  `yaml:"id"`
	Provider         string  `yaml:"provider"`
	Model            string  `yaml:"model"`
	BaseURL          string  `yaml:"base_url,omitempty"`
	APIKeyEnv        string  `yaml:"api_key_env,omitempty"`
	Protocol         string  `yaml:"protocol,omitempty"`
	Prompt           string  `yaml:"prompt,omitempty"`
	AffirmativeToken string  `yaml:"affirmative_token,omitempty"`
	MaxTokens        int     `yaml:"max_tokens,omitempty"`
	Temperature      float64 `yaml:"temperature,omitempty"`
	CallsPerMinute   int     `yaml:"calls_per_minute,omitempty"`
}

type AggregationConfig struct {
	Policy string `yaml:"policy,omitempty"` // "coerce" or "strict"
}

type StorageConfig struct {
	Type string `yaml:"type,omitempty"` // "sqlite" or "memory"
	Path string `yaml:"path,omitempty"` // SQLite file path
}

type PromptsConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

type ExportConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultPath
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Model finds the entry for a model id.
func (c *Config) Model(id string) (ModelConfig, error) {
	id = strings.TrimSpace(id)
	if c == nil || id == "" {
		return ModelConfig{}, fmt.Errorf("config: missing model id")
	}
	for _, m := range c.Models {
		if m.ID == id {
			return m, nil
		}
	}
	return ModelConfig{}, fmt.Errorf("config: unknown model %q", id)
}

// ModelIDs lists configured model ids in file order.
func (c *Config) ModelIDs() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.Models))
	for _, m := range c.Models {
		out = append(out, m.ID)
	}
	return out
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Aggregation.Policy) == "" {
		cfg.Aggregation.Policy = PolicyCoerce
	}
	if strings.TrimSpace(cfg.Export.Dir) == "" {
		cfg.Export.Dir = "results"
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		cfg.Server.Addr = ":8080"
	}

	for i := range cfg.Models {
		m := &cfg.Models[i]
		m.ID = strings.TrimSpace(m.ID)
		m.Provider = strings.ToLower(strings.TrimSpace(m.Provider))
		m.Protocol = strings.ToLower(strings.TrimSpace(m.Protocol))
		if m.Protocol == "" {
			m.Protocol = ProtocolDirect
		}
		if m.CallsPerMinute == 0 {
			m.CallsPerMinute = DefaultCallsPerMinute
		}
		if m.MaxTokens == 0 {
			m.MaxTokens = DefaultMaxTokens
		}
		if strings.TrimSpace(m.APIKeyEnv) == "" {
			switch m.Provider {
			case "claude", "anthropic":
				m.APIKeyEnv = "ANTHROPIC_API_KEY"
			case "openai":
				m.APIKeyEnv = "OPENAI_API_KEY"
			case "deepseek":
				m.APIKeyEnv = "DEEPSEEK_API_KEY"
			case "xai", "grok":
				m.APIKeyEnv = "XAI_API_KEY"
			case "gemini":
				m.APIKeyEnv = "GEMINI_API_KEY"
			}
		}
	}
}

func validate(cfg *Config) error {
	switch cfg.Aggregation.Policy {
	case PolicyCoerce, PolicyStrict:
	default:
		return fmt.Errorf("config: unknown aggregation policy %q", cfg.Aggregation.Policy)
	}

	seen := make(map[string]bool, len(cfg.Models))
	for i, m := range cfg.Models {
		if m.ID == "" {
			return fmt.Errorf("config: models[%d]: missing id", i)
		}
		if seen[m.ID] {
			return fmt.Errorf("config: models[%d]: duplicate id %q", i, m.ID)
		}
		seen[m.ID] = true

		if m.Provider == "" {
			return fmt.Errorf("config: models[%d] (%s): missing provider", i, m.ID)
		}
		switch m.Protocol {
		case ProtocolDirect, ProtocolVerify:
		default:
			return fmt.Errorf("config: models[%d] (%s): unknown protocol %q", i, m.ID, m.Protocol)
		}
		if m.CallsPerMinute < 0 {
			return fmt.Errorf("config: models[%d] (%s): negative calls_per_minute", i, m.ID)
		}
	}
	return nil
}
