package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/idiom-eval/internal/config"
	"github.com/stellarlinkco/idiom-eval/internal/gold"
)

// errVerifyFailed signals that the dataset report was already printed; main
// exits non-zero without repeating it.
var errVerifyFailed = errors.New("idiomeval: dataset verification failed")

func newVerifyCmd(st *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the gold dataset files for contract violations",
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
			return runVerify(cmd, st)
		},
	}
	return cmd
}

func runVerify(cmd *cobra.Command, st *cliState) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("verify: missing config (internal error)")
	}

	audit, err := gold.AuditFiles(st.cfg.Dataset.OptionsPath, st.cfg.Dataset.LabelsPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "options rows: %d\n", audit.OptionRows)
	fmt.Fprintf(out, "labels rows:  %d\n", audit.LabelRows)
	if audit.OK() {
		fmt.Fprintln(out, "dataset OK")
		return nil
	}

	for _, p := range audit.Problems {
		fmt.Fprintln(out, p)
	}
	fmt.Fprintf(out, "%d problem(s) found\n", len(audit.Problems))
	return errVerifyFailed
}
