package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/idiom-eval/internal/config"
	"github.com/stellarlinkco/idiom-eval/internal/export"
	"github.com/stellarlinkco/idiom-eval/internal/log"
	"github.com/stellarlinkco/idiom-eval/internal/store"
)

type exportOptions struct {
	out string
}

func newExportCmd(st *cliState) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write prediction, discrepancy and overview CSV reports",
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
			return runExport(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.out, "out", "", "output directory (default: export dir from config)")

	return cmd
}

func runExport(cmd *cobra.Command, st *cliState, opts *exportOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("export: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("export: nil options")
	}

	dir := strings.TrimSpace(opts.out)
	if dir == "" {
		dir = st.cfg.Export.Dir
	}

	db, err := store.Open(st.cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	exporter, err := export.NewExporter(db, log.New(st.cfg.Logging))
	if err != nil {
		return err
	}
	summary, err := exporter.Export(cmd.Context(), dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, name := range summary.Files {
		fmt.Fprintf(out, "wrote %s\n", name)
	}
	fmt.Fprintf(out, "Exported %d file(s) for %d model(s) to %s\n", len(summary.Files), summary.Models, summary.Dir)
	return nil
}
