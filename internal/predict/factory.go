package predict

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stellarlinkco/idiom-eval/internal/config"
	"github.com/stellarlinkco/idiom-eval/internal/llm"
	"github.com/stellarlinkco/idiom-eval/internal/log"
	"github.com/stellarlinkco/idiom-eval/internal/prompt"
)

// NewPredictor builds the protocol implementation a model entry asks for,
// resolving its prompt template from the library.
func NewPredictor(client llm.Client, cfg config.ModelConfig, lib *prompt.Library, policy Policy, logger log.Logger) (Predictor, error) {
	if lib == nil {
		return nil, errors.New("predict: nil prompt library")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Protocol)) {
	case config.ProtocolDirect, "":
		p, err := lib.Get(promptName(cfg.Prompt, prompt.DefaultDirectName))
		if err != nil {
			return nil, err
		}
		return NewDirect(client, cfg, p, logger)
	case config.ProtocolVerify:
		p, err := lib.Get(promptName(cfg.Prompt, prompt.DefaultVerifyName))
		if err != nil {
			return nil, err
		}
		return NewVerifier(client, cfg, p, policy, logger)
	default:
		return nil, fmt.Errorf("predict: unknown protocol %q", cfg.Protocol)
	}
}

func promptName(configured, fallback string) string {
	if name := strings.TrimSpace(configured); name != "" {
		return name
	}
	return fallback
}
