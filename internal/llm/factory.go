package llm

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/stellarlinkco/idiom-eval/internal/config"
)

// NewClientForModel builds the provider client for one configured model,
// resolving its credential from the environment. A missing credential fails
// here, before any batch work starts.
func NewClientForModel(m config.ModelConfig) (Client, error) {
	id := strings.TrimSpace(m.ID)
	if id == "" {
		return nil, errors.New("llm: model config missing id")
	}

	env := strings.TrimSpace(m.APIKeyEnv)
	if env == "" {
		return nil, fmt.Errorf("llm: model %s: api_key_env not set", id)
	}
	key := strings.TrimSpace(os.Getenv(env))
	if key == "" {
		return nil, fmt.Errorf("llm: model %s: credential %s is empty or unset", id, env)
	}

	var c Client
	provider := strings.ToLower(strings.TrimSpace(m.Provider))
	switch provider {
	case "claude", "anthropic":
		c = NewClaudeClient(key, m.BaseURL, m.Model)
	case "openai":
		c = NewOpenAIClient(provider, key, m.BaseURL, m.Model)
	case "deepseek", "xai", "grok", "gemini", "llama", "openai-compatible":
		if strings.TrimSpace(m.BaseURL) == "" {
			return nil, fmt.Errorf("llm: model %s: provider %q requires base_url", id, provider)
		}
		c = NewOpenAIClient(provider, key, m.BaseURL, m.Model)
	default:
		return nil, fmt.Errorf("llm: model %s: unknown provider %q", id, m.Provider)
	}

	return WithRateLimit(c, m.CallsPerMinute), nil
}

// NewRegistryFromConfig constructs clients for every configured model, so an
// all-model run fails on a missing credential before the first call.
func NewRegistryFromConfig(cfg *config.Config) (*Registry, error) {
	if cfg == nil {
		return nil, errors.New("llm: nil config")
	}
	if len(cfg.Models) == 0 {
		return nil, errors.New("llm: no models configured")
	}

	r := NewRegistry()
	for _, m := range cfg.Models {
		c, err := NewClientForModel(m)
		if err != nil {
			return nil, err
		}
		r.Register(m.ID, c)
	}
	return r, nil
}
