package prompt

import (
	"fmt"
	"sort"
	"strings"
)

// Built-in prompt names used when a model entry names no override.
const (
	DefaultDirectName = "direct-choice"
	DefaultVerifyName = "verify-option"
)

// Template variable names shared with the predict package.
const (
	VarExpression = "EXPRESSION"
	VarOptionA    = "OPTION_A"
	VarOptionB    = "OPTION_B"
	VarOptionC    = "OPTION_C"
	VarOptionD    = "OPTION_D"
	VarDefinition = "DEFINITION"
)

func defaultDirect() *Prompt {
	return &Prompt{
		Name:        DefaultDirectName,
		Version:     "1",
		Description: "Forced choice over the four labeled definitions.",
		Template: "Choose the correct definition for the given metaphorical expression by " +
			"responding with only a single letter representing your choice (A, B, C, or D).\n\n" +
			"Expression: {{EXPRESSION}}\n" +
			"A) {{OPTION_A}}\n" +
			"B) {{OPTION_B}}\n" +
			"C) {{OPTION_C}}\n" +
			"D) {{OPTION_D}}\n\n" +
			"Your response should be exactly one letter: A, B, C, or D.",
		Variables: []Variable{
			{Name: VarExpression, Required: true},
			{Name: VarOptionA, Required: true},
			{Name: VarOptionB, Required: true},
			{Name: VarOptionC, Required: true},
			{Name: VarOptionD, Required: true},
		},
	}
}

func defaultVerify() *Prompt {
	return &Prompt{
		Name:        DefaultVerifyName,
		Version:     "1",
		Description: "Yes/no verification of a single candidate definition, answered in Danish.",
		Template: "Er \"{{DEFINITION}}\" den korrekte betydning af talemåden \"{{EXPRESSION}}\"?\n" +
			"Svar kun med ja eller nej.",
		Variables: []Variable{
			{Name: VarExpression, Required: true},
			{Name: VarDefinition, Required: true},
		},
	}
}

// Library resolves prompt names to templates. It starts with the built-in
// protocol prompts; LoadDir adds or replaces entries by name.
type Library struct {
	prompts map[string]*Prompt
}

// NewLibrary returns a library holding the built-in prompts.
func NewLibrary() *Library {
	l := &Library{prompts: make(map[string]*Prompt, 2)}
	l.put(defaultDirect())
	l.put(defaultVerify())
	return l
}

// LoadDir merges every prompt file in dir into the library. Later files win
// on name collisions, including collisions with the built-ins.
func (l *Library) LoadDir(dir string) error {
	if l == nil || l.prompts == nil {
		return fmt.Errorf("prompt: nil library")
	}
	prompts, err := LoadFromDir(dir)
	if err != nil {
		return err
	}
	for _, p := range prompts {
		l.put(p)
	}
	return nil
}

// Get returns the prompt registered under name.
func (l *Library) Get(name string) (*Prompt, error) {
	name = strings.TrimSpace(name)
	if l == nil || l.prompts == nil || name == "" {
		return nil, fmt.Errorf("prompt: missing prompt name")
	}
	p, ok := l.prompts[name]
	if !ok {
		return nil, fmt.Errorf("prompt: unknown prompt %q", name)
	}
	return p, nil
}

// Names lists registered prompt names, sorted.
func (l *Library) Names() []string {
	if l == nil {
		return nil
	}
	out := make([]string, 0, len(l.prompts))
	for name := range l.prompts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (l *Library) put(p *Prompt) {
	if p == nil {
		return
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return
	}
	l.prompts[name] = p
}
