// Package llm provides the completion clients the benchmark calls: one
// client per configured model, a registry built from config, and a
// rate-limit gate so batch runs stay inside per-service quotas.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Client is a synchronous text-completion surface over one configured model.
// Implementations wrap transport and provider failures in *ServiceError so
// callers can tell a failed call from a well-formed but wrong reply.
type Client interface {
	// Name reports the provider label, e.g. "openai" or "claude".
	Name() string
	Complete(ctx context.Context, req *Request) (*Response, error)
}

type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type Response struct {
	Text       string
	StopReason string
	Usage      Usage
}

// ServiceError reports a failed completion call: transport errors, HTTP
// errors from the provider, and replies the SDK could not decode.
type ServiceError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ServiceError) Error() string {
	if e == nil {
		return "llm: service error"
	}
	provider := strings.TrimSpace(e.Provider)
	if provider == "" {
		provider = "unknown"
	}
	if model := strings.TrimSpace(e.Model); model != "" {
		return fmt.Sprintf("llm: %s: model %s: %v", provider, model, e.Err)
	}
	return fmt.Sprintf("llm: %s: %v", provider, e.Err)
}

func (e *ServiceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func serviceError(provider, model string, err error) error {
	if err == nil {
		return nil
	}
	return &ServiceError{Provider: provider, Model: model, Err: err}
}

func clampMaxTokens(n int) int {
	if n <= 0 {
		return 0
	}
	return n
}
