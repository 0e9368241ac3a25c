package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"confkeeper/internal/notify"
)

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY[.SUB]",
		Short: "Print one value of the active configuration",
		Example: `  confkeeper get name -d default.yaml
  confkeeper get server.port -d default.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := newFormatter()
			if err != nil {
				return err
			}
			cfg, err := openConfig(notify.Nop{})
			if err != nil {
				return err
			}

			parts := strings.Split(args[0], ".")
			value, ok := cfg.Value(parts[0], parts[1:]...)
			if !ok {
				return fmt.Errorf("key %q not found", args[0])
			}
			out, err := formatter.FormatValue(value)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
