package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/stellarlinkco/idiom-eval/internal/claude"
)

// ClaudeClient adapts internal/claude to the Client interface.
type ClaudeClient struct {
	client *claude.Client
	model  string
}

func NewClaudeClient(apiKey, baseURL, model string) *ClaudeClient {
	opts := make([]claude.Option, 0, 2)
	if v := strings.TrimSpace(baseURL); v != "" {
		opts = append(opts, claude.WithBaseURL(v))
	}
	m := strings.TrimSpace(model)
	if m != "" {
		opts = append(opts, claude.WithModel(m))
	}
	return &ClaudeClient{
		client: claude.NewClient(strings.TrimSpace(apiKey), opts...),
		model:  m,
	}
}

func (c *ClaudeClient) Name() string {
	return "claude"
}

func (c *ClaudeClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("llm: claude: nil client")
	}
	if ctx == nil {
		return nil, errors.New("llm: claude: nil context")
	}
	if req == nil {
		return nil, errors.New("llm: claude: nil request")
	}

	resp, err := c.client.Complete(ctx, &claude.Request{
		Messages:    []claude.Message{{Role: "user", Content: req.Prompt}},
		System:      req.System,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, serviceError("claude", c.model, err)
	}
	if resp == nil {
		return nil, serviceError("claude", c.model, errors.New("nil response"))
	}

	return &Response{
		Text:       claude.Text(resp),
		StopReason: resp.StopReason,
		Usage: Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}, nil
}
