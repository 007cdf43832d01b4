package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/idiom-eval/internal/config"
	"github.com/stellarlinkco/idiom-eval/internal/discrepancy"
	"github.com/stellarlinkco/idiom-eval/internal/gold"
	"github.com/stellarlinkco/idiom-eval/internal/log"
	"github.com/stellarlinkco/idiom-eval/internal/store"
)

type classifyOptions struct {
	model string
}

func newClassifyCmd(st *cliState) *cobra.Command {
	var opts classifyOptions

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Rebuild discrepancy rows from stored predictions",
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
			return runClassify(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.model, "model", "", "model id (default: every model with stored predictions)")

	return cmd
}

func runClassify(cmd *cobra.Command, st *cliState, opts *classifyOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("classify: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("classify: nil options")
	}

	dataset, err := gold.Load(st.cfg.Dataset.OptionsPath, st.cfg.Dataset.LabelsPath)
	if err != nil {
		return err
	}

	db, err := store.Open(st.cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	models := []string{strings.TrimSpace(opts.model)}
	if models[0] == "" {
		models, err = db.ListModels(ctx)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if len(models) == 0 {
		fmt.Fprintln(out, "no stored predictions to classify")
		return nil
	}

	classifier, err := discrepancy.NewClassifier(dataset, db, log.New(st.cfg.Logging))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tPREDICTIONS\tCORRECT\tDISCREPANCIES\tCONCRETE\tABSTRACT\tRANDOM\tUNKNOWN\tUNJOINED\tUNCOVERED")
	for _, modelID := range models {
		report, err := classifier.Classify(ctx, modelID)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			report.ModelID,
			report.Predictions,
			report.Correct,
			report.Discrepancies,
			report.Concrete,
			report.Abstract,
			report.Random,
			report.Unknown,
			report.Unjoined,
			report.Uncovered,
		)
	}
	return tw.Flush()
}
