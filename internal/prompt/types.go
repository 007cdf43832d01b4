// Package prompt manages the templates sent to the external services. The
// two protocol prompts ship as built-in defaults; a prompts directory can
// override them or add variants (e.g. a revised direct prompt for one model).
package prompt

import (
	"fmt"
	"strings"
)

// Prompt defines a named prompt template.
type Prompt struct {
	Name        string     `yaml:"name"`
	Version     string     `yaml:"version,omitempty"`
	Description string     `yaml:"description,omitempty"`
	Template    string     `yaml:"template"`
	Variables   []Variable `yaml:"variables,omitempty"`
}

// Variable declares a template variable and its default.
type Variable struct {
	Name     string `yaml:"name"`
	Required bool   `yaml:"required"`
	Default  string `yaml:"default,omitempty"`
}

// Validate checks the minimal prompt contract.
func (p *Prompt) Validate() error {
	if p == nil {
		return fmt.Errorf("prompt: nil prompt")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("prompt: missing name")
	}
	if strings.TrimSpace(p.Template) == "" {
		return fmt.Errorf("prompt: %s: missing template", p.Name)
	}
	return nil
}
