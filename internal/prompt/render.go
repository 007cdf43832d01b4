package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// Render substitutes {{VAR_NAME}} placeholders in the prompt template.
// Declared required variables must be supplied; declared defaults fill the
// rest. Placeholders left over after substitution fail the render.
func Render(p *Prompt, vars map[string]any) (string, error) {
	if p == nil {
		return "", errors.New("prompt: nil prompt")
	}

	data := make(map[string]any, len(vars)+len(p.Variables))
	for k, v := range vars {
		data[k] = v
	}
	for _, v := range p.Variables {
		if v.Name == "" {
			continue
		}
		if _, ok := data[v.Name]; ok {
			continue
		}
		if v.Required {
			return "", fmt.Errorf("prompt: %s: missing required variable %q", p.Name, v.Name)
		}
		if v.Default != "" {
			data[v.Name] = v.Default
		}
	}

	rendered := p.Template
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		if strings.Contains(rendered, placeholder) {
			rendered = strings.ReplaceAll(rendered, placeholder, fmt.Sprintf("%v", v))
		}
	}

	if i := strings.Index(rendered, "{{"); i >= 0 {
		rest := rendered[i:]
		if end := strings.Index(rest, "}}"); end >= 0 {
			return "", fmt.Errorf("prompt: %s: unresolved variable %s", p.Name, rest[:end+2])
		}
		return "", fmt.Errorf("prompt: %s: unmatched \"{{\"", p.Name)
	}
	if strings.Contains(rendered, "}}") {
		return "", fmt.Errorf("prompt: %s: unmatched \"}}\"", p.Name)
	}
	return rendered, nil
}
