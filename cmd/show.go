package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"confkeeper/internal/notify"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active configuration",
		Long: `Show every value of the active configuration.

The table format lists one row per value, with nested keys joined by dots.
Use -o yaml or -o json for machine-readable output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := newFormatter()
			if err != nil {
				return err
			}
			cfg, err := openConfig(notify.Nop{})
			if err != nil {
				return err
			}
			values, err := cfg.Get(false)
			if err != nil {
				return err
			}
			out, err := formatter.FormatTree(values)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
