package predict

import (
	"context"
	"errors"
	"strings"

	"github.com/stellarlinkco/idiom-eval/internal/config"
	"github.com/stellarlinkco/idiom-eval/internal/gold"
	"github.com/stellarlinkco/idiom-eval/internal/llm"
	"github.com/stellarlinkco/idiom-eval/internal/log"
	"github.com/stellarlinkco/idiom-eval/internal/prompt"
)

// Direct implements the direct-choice protocol: one call with all four
// labeled definitions, answered with a single option letter.
type Direct struct {
	client llm.Client
	cfg    config.ModelConfig
	prompt *prompt.Prompt
	logger log.Logger
}

func NewDirect(client llm.Client, cfg config.ModelConfig, p *prompt.Prompt, logger log.Logger) (*Direct, error) {
	if client == nil {
		return nil, errors.New("predict: nil client")
	}
	if strings.TrimSpace(cfg.ID) == "" {
		return nil, errors.New("predict: missing model id")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Direct{client: client, cfg: cfg, prompt: p, logger: logger}, nil
}

func (d *Direct) Protocol() string {
	return config.ProtocolDirect
}

func (d *Direct) Predict(ctx context.Context, row gold.Row) (*Result, error) {
	if d == nil {
		return nil, errors.New("predict: nil direct predictor")
	}
	if ctx == nil {
		return nil, errors.New("predict: nil context")
	}
	if strings.TrimSpace(row.Expression) == "" {
		return nil, errors.New("predict: empty expression")
	}

	text, err := prompt.Render(d.prompt, map[string]any{
		prompt.VarExpression: row.Expression,
		prompt.VarOptionA:    row.Options[0],
		prompt.VarOptionB:    row.Options[1],
		prompt.VarOptionC:    row.Options[2],
		prompt.VarOptionD:    row.Options[3],
	})
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Complete(ctx, &llm.Request{
		Prompt:      text,
		MaxTokens:   d.cfg.MaxTokens,
		Temperature: d.cfg.Temperature,
	})
	if err != nil {
		return nil, err
	}

	raw := strings.TrimSpace(resp.Text)
	idx, err := extractOptionLetter(raw)
	if err != nil {
		return nil, &InvalidOutputError{
			Model:      d.cfg.ID,
			Expression: row.Expression,
			Output:     raw,
			Err:        err,
		}
	}

	d.logger.Debug("direct prediction",
		"model", d.cfg.ID,
		"expression", row.Expression,
		"choice", gold.Letter(idx),
	)
	return &Result{Index: idx, RawAnswer: raw}, nil
}
