package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"confkeeper/internal/notify"
)

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Replace the active configuration with the default template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := openConfig(notify.Nop{})
			if err != nil {
				return err
			}
			res := cfg.Reset()
			if !res.OK() {
				return fmt.Errorf("failed to reset %s: %w", res.Path, res.Err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %s to the defaults from %s\n", res.Path, cfg.Paths().Default)
			return nil
		},
	}
}
