package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/idiom-eval/internal/config"
	"github.com/stellarlinkco/idiom-eval/internal/prompt"
)

func newModelsCmd(st *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the configured models",
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
			return runModels(cmd, st)
		},
	}
	return cmd
}

func runModels(cmd *cobra.Command, st *cliState) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("models: missing config (internal error)")
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPROVIDER\tMODEL\tPROTOCOL\tPROMPT\tCALLS/MIN")
	for _, m := range st.cfg.Models {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			m.ID, m.Provider, m.Model, m.Protocol, resolvedPromptName(m), m.CallsPerMinute)
	}
	return tw.Flush()
}

func resolvedPromptName(m config.ModelConfig) string {
	if name := strings.TrimSpace(m.Prompt); name != "" {
		return name
	}
	if m.Protocol == config.ProtocolVerify {
		return prompt.DefaultVerifyName
	}
	return prompt.DefaultDirectName
}
