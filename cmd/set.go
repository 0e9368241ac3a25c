package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"confkeeper/internal/notify"
	"confkeeper/internal/tree"
)

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY[.SUB]=VALUE...",
		Short: "Change values and save the configuration",
		Long: `Change one or more values and write the configuration back to disk.

Values are parsed as YAML scalars, so "8080" becomes a number and "true" a
boolean. Only keys defined in the default template can be set; the file is
always written in the template's layout.`,
		Example: `  confkeeper set server.port=9000 name=mine -d default.yaml`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := openConfig(notify.Nop{})
			if err != nil {
				return err
			}
			values, err := cfg.Get(false)
			if err != nil {
				return err
			}
			def := cfg.Default()

			for _, arg := range args {
				key, raw, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("invalid assignment %q, expected KEY=VALUE", arg)
				}
				parts := strings.Split(key, ".")
				if _, known := tree.Lookup(def, parts[0], parts[1:]...); !known {
					return fmt.Errorf("unknown key %q: not defined in the default template", key)
				}
				if err := tree.Set(values, key, tree.ParseScalar(raw)); err != nil {
					return err
				}
			}

			res := cfg.Write(values)
			if !res.OK() {
				return fmt.Errorf("failed to save %s: %w", res.Path, res.Err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d value(s) to %s\n", len(args), res.Path)
			return nil
		},
	}
}
