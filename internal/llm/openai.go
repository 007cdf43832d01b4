package llm

import (
	"context"
	"errors"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient talks to the OpenAI chat-completions API or any compatible
// endpoint (DeepSeek, xAI Grok, Gemini's compatibility surface, hosted
// Llama) selected via base URL.
type OpenAIClient struct {
	client *openai.Client
	label  string
	model  string
}

// NewOpenAIClient builds a client for one model. label names the provider in
// errors and defaults to "openai"; baseURL overrides the platform endpoint.
func NewOpenAIClient(label, apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	if v := strings.TrimSpace(baseURL); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}

	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		l = "openai"
	}
	m := strings.TrimSpace(model)
	if m == "" {
		m = "gpt-4o"
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		label:  l,
		model:  m,
	}
}

func (c *OpenAIClient) Name() string {
	if c == nil {
		return "openai"
	}
	return c.label
}

func (c *OpenAIClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("llm: openai: nil client")
	}
	if ctx == nil {
		return nil, errors.New("llm: openai: nil context")
	}
	if req == nil {
		return nil, errors.New("llm: openai: nil request")
	}

	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if system := strings.TrimSpace(req.System); system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	// A zero temperature would be dropped by the SDK's omitempty and fall
	// back to the provider default; the smallest positive float32 survives
	// serialization as an effective zero.
	temp := float32(req.Temperature)
	if temp == 0 {
		temp = math.SmallestNonzeroFloat32
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		MaxTokens:   clampMaxTokens(req.MaxTokens),
		Temperature: temp,
	})
	if err != nil {
		return nil, serviceError(c.label, c.model, err)
	}
	if len(resp.Choices) == 0 {
		return nil, serviceError(c.label, c.model, errors.New("empty choices"))
	}

	choice := resp.Choices[0]
	return &Response{
		Text:       choice.Message.Content,
		StopReason: string(choice.FinishReason),
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}
