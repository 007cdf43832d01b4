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

// DefaultAffirmativeToken is the Danish yes matched in verification replies.
const DefaultAffirmativeToken = "ja"

// rawAnswerSeparator joins the four per-option replies in RawAnswer.
const rawAnswerSeparator = " | "

// failedCallAnswer stands in for a reply when the option's call failed.
const failedCallAnswer = "call failed"

// Verifier implements the binary-verification protocol: four yes/no calls,
// one per option in canonical order, aggregated into a single choice.
type Verifier struct {
	client llm.Client
	cfg    config.ModelConfig
	prompt *prompt.Prompt
	policy Policy
	token  string
	logger log.Logger
}

func NewVerifier(client llm.Client, cfg config.ModelConfig, p *prompt.Prompt, policy Policy, logger log.Logger) (*Verifier, error) {
	if client == nil {
		return nil, errors.New("predict: nil client")
	}
	if strings.TrimSpace(cfg.ID) == "" {
		return nil, errors.New("predict: missing model id")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if policy == "" {
		policy = PolicyCoerce
	}
	switch policy {
	case PolicyCoerce, PolicyStrict:
	default:
		return nil, errors.New("predict: unknown aggregation policy " + string(policy))
	}
	token := strings.TrimSpace(cfg.AffirmativeToken)
	if token == "" {
		token = DefaultAffirmativeToken
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Verifier{client: client, cfg: cfg, prompt: p, policy: policy, token: token, logger: logger}, nil
}

func (v *Verifier) Protocol() string {
	return config.ProtocolVerify
}

// Predict asks one yes/no question per option. A failed call counts the
// option as negative instead of aborting the expression; only context
// cancellation aborts, so an interrupt never persists a half-asked row.
func (v *Verifier) Predict(ctx context.Context, row gold.Row) (*Result, error) {
	if v == nil {
		return nil, errors.New("predict: nil verifier")
	}
	if ctx == nil {
		return nil, errors.New("predict: nil context")
	}
	if strings.TrimSpace(row.Expression) == "" {
		return nil, errors.New("predict: empty expression")
	}

	var votes [gold.NumOptions]bool
	answers := make([]string, gold.NumOptions)

	for i := 0; i < gold.NumOptions; i++ {
		text, err := prompt.Render(v.prompt, map[string]any{
			prompt.VarExpression: row.Expression,
			prompt.VarDefinition: row.Options[i],
		})
		if err != nil {
			return nil, err
		}

		resp, err := v.client.Complete(ctx, &llm.Request{
			Prompt:      text,
			MaxTokens:   v.cfg.MaxTokens,
			Temperature: v.cfg.Temperature,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			v.logger.Warn("verification call failed; counting option as negative",
				"model", v.cfg.ID,
				"expression", row.Expression,
				"option", gold.Letter(i),
				"error", err,
			)
			answers[i] = failedCallAnswer
			continue
		}

		answers[i] = strings.TrimSpace(resp.Text)
		votes[i] = isAffirmative(answers[i], v.token)
	}

	raw := strings.Join(answers, rawAnswerSeparator)
	agg, err := Aggregate(votes, v.policy)
	if err != nil {
		return nil, &InvalidOutputError{
			Model:      v.cfg.ID,
			Expression: row.Expression,
			Output:     raw,
			Err:        err,
		}
	}

	if agg.AmbiguousZero {
		v.logger.Warn("no affirmative answers; defaulting to option A",
			"model", v.cfg.ID,
			"expression", row.Expression,
		)
	}
	if agg.AmbiguousMulti {
		v.logger.Warn("multiple affirmative answers; keeping first",
			"model", v.cfg.ID,
			"expression", row.Expression,
			"votes", FormatVotes(votes),
		)
	}

	return &Result{
		Index:          agg.Index,
		RawAnswer:      raw,
		Votes:          FormatVotes(votes),
		YesCount:       agg.YesCount,
		AmbiguousZero:  agg.AmbiguousZero,
		AmbiguousMulti: agg.AmbiguousMulti,
	}, nil
}
