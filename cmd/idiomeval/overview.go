package main

import (
	"encoding/csv"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/idiom-eval/internal/config"
	"github.com/stellarlinkco/idiom-eval/internal/export"
	"github.com/stellarlinkco/idiom-eval/internal/log"
	"github.com/stellarlinkco/idiom-eval/internal/metrics"
	"github.com/stellarlinkco/idiom-eval/internal/store"
)

type overviewOptions struct {
	csv bool
}

func newOverviewCmd(st *cliState) *cobra.Command {
	var opts overviewOptions

	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Show the cross-model accuracy overview",
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
			return runOverview(cmd, st, &opts)
		},
	}

	cmd.Flags().BoolVar(&opts.csv, "csv", false, "emit CSV instead of a table")

	return cmd
}

func runOverview(cmd *cobra.Command, st *cliState, opts *overviewOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("overview: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("overview: nil options")
	}

	db, err := store.Open(st.cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	agg, err := metrics.NewAggregator(db, log.New(st.cfg.Logging))
	if err != nil {
		return err
	}
	rows, err := agg.Overview(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.csv {
		w := csv.NewWriter(out)
		if err := w.WriteAll(export.OverviewRecords(rows)); err != nil {
			return fmt.Errorf("overview: write csv: %w", err)
		}
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tPREDICTIONS\tDISCREPANCIES\tACCURACY\tCONCRETE\tABSTRACT\tRANDOM\tUNKNOWN\tAMB_ZERO\tAMB_MULTI")
	for _, o := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			o.ModelID,
			o.Predictions,
			o.Discrepancies,
			o.AccuracyLabel(),
			o.Concrete,
			o.Abstract,
			o.Random,
			o.Unknown,
			o.AmbiguousZero,
			o.AmbiguousMulti,
		)
	}
	return tw.Flush()
}
