package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/idiom-eval/internal/config"
	"github.com/stellarlinkco/idiom-eval/internal/gold"
	"github.com/stellarlinkco/idiom-eval/internal/llm"
	"github.com/stellarlinkco/idiom-eval/internal/log"
	"github.com/stellarlinkco/idiom-eval/internal/predict"
	"github.com/stellarlinkco/idiom-eval/internal/prompt"
	"github.com/stellarlinkco/idiom-eval/internal/store"
)

type predictOptions struct {
	model string
	limit int
}

func newPredictCmd(st *cliState) *cobra.Command {
	var opts predictOptions

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run a prediction batch against the gold dataset",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(st.configPath)
			if err != nil {
				return err
			}
			st.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.model, "model", "", "model id from config (default: all configured models)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "max expressions per model this run (0 = no limit)")

	return cmd
}

func runPredict(cmd *cobra.Command, st *cliState, opts *predictOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("predict: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("predict: nil options")
	}
	if opts.limit < 0 {
		return fmt.Errorf("predict: --limit must be >= 0 (got %d)", opts.limit)
	}

	models, err := resolveModels(st.cfg, opts.model)
	if err != nil {
		return err
	}
	policy, err := predict.ParsePolicy(st.cfg.Aggregation.Policy)
	if err != nil {
		return err
	}

	dataset, err := gold.Load(st.cfg.Dataset.OptionsPath, st.cfg.Dataset.LabelsPath)
	if err != nil {
		return err
	}
	lib, err := loadPromptLibrary(st.cfg)
	if err != nil {
		return err
	}

	// Resolve every credential up front so an all-model run cannot fail
	// halfway through on a missing secret.
	clients := make(map[string]llm.Client, len(models))
	for _, m := range models {
		client, err := newClientForModel(m)
		if err != nil {
			return err
		}
		clients[m.ID] = client
	}

	db, err := store.Open(st.cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	logger := log.New(st.cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	for _, m := range models {
		predictor, err := predict.NewPredictor(clients[m.ID], m, lib, policy, logger)
		if err != nil {
			return err
		}
		runner, err := predict.NewRunner(m.ID, dataset, predictor, db, logger)
		if err != nil {
			return err
		}

		report, runErr := runner.Run(ctx, opts.limit)
		printRunReport(out, report)
		if runErr != nil {
			// Progress is committed per expression, so an interrupt is a
			// clean stop, not a failure.
			if errors.Is(runErr, context.Canceled) {
				fmt.Fprintln(out, "interrupted; progress saved, rerun to continue")
				return nil
			}
			return runErr
		}
	}
	return nil
}

func resolveModels(cfg *config.Config, modelFlag string) ([]config.ModelConfig, error) {
	if cfg == nil {
		return nil, fmt.Errorf("predict: missing config")
	}
	if id := strings.TrimSpace(modelFlag); id != "" {
		m, err := cfg.Model(id)
		if err != nil {
			return nil, err
		}
		return []config.ModelConfig{m}, nil
	}
	if len(cfg.Models) == 0 {
		return nil, fmt.Errorf("predict: no models configured")
	}
	return cfg.Models, nil
}

func loadPromptLibrary(cfg *config.Config) (*prompt.Library, error) {
	lib := prompt.NewLibrary()
	if cfg == nil {
		return lib, nil
	}
	dir := strings.TrimSpace(cfg.Prompts.Dir)
	if dir == "" {
		return lib, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		// A configured but absent directory just means no overrides.
		return lib, nil
	}
	if err := lib.LoadDir(dir); err != nil {
		return nil, err
	}
	return lib, nil
}

func printRunReport(w io.Writer, r *predict.RunReport) {
	if r == nil {
		return
	}
	fmt.Fprintf(w, "%s: processed=%d written=%d skipped=%d remaining=%d (dataset %d)\n",
		r.ModelID, r.Processed, r.Written, r.Skipped, r.Remaining, r.Total)
}
