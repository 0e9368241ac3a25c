package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"confkeeper/internal/notify"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade the active configuration to the template version",
		Long: `Upgrade the active configuration when the default template carries a newer
version. User values are kept, new template keys are added with their default
values and the previous file is saved next to it with a .backup suffix.

Every other command does this as well before it runs; migrate only reports it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := openConfig(notify.Nop{})
			if err != nil {
				return err
			}
			res := cfg.LastMigration()
			if res.Err != nil {
				return fmt.Errorf("failed to migrate %s: %w", cfg.Paths().Config, res.Err)
			}

			out := cmd.OutOrStdout()
			if res.Migrated {
				fmt.Fprintf(out, "Migrated %s from version %d to %d (backup: %s)\n",
					cfg.Paths().Config, res.From, res.To, res.BackupPath)
				return nil
			}
			fmt.Fprintf(out, "%s is up to date (version %d)\n", cfg.Paths().Config, cfg.Version())
			return nil
		},
	}
}
