package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"confkeeper/internal/notify"
)

func newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Print the configuration as it would be written, without saving",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := openConfig(notify.Nop{})
			if err != nil {
				return err
			}
			values, err := cfg.Get(false)
			if err != nil {
				return err
			}
			text, err := cfg.Render(values)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		},
	}
}
