package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"confkeeper/internal/formatting"
	"confkeeper/internal/notify"
	"confkeeper/internal/watcher"
	"confkeeper/pkg/logging"
)

func newWatchCmd() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reload the configuration whenever the file changes",
		Long: `Watch the active configuration file and reload it after every change,
printing one line per update until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := formatting.ParseFormat(rootOpts.output)
			if err != nil {
				return err
			}

			bus := notify.NewBus(0)
			defer bus.Close()

			var mu sync.Mutex
			out := cmd.OutOrStdout()
			bus.Subscribe(func(event notify.Event) {
				mu.Lock()
				defer mu.Unlock()
				printEvent(out, format, event)
			})

			cfg, err := openConfig(bus)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := watcher.New(cfg.Paths().Config, cfg, watcher.WithDebounce(debounce))
			if err := w.Start(ctx); err != nil {
				return fmt.Errorf("failed to watch %s: %w", cfg.Paths().Config, err)
			}
			defer w.Stop()

			mu.Lock()
			fmt.Fprintf(out, "Watching %s (press Ctrl+C to stop)\n", cfg.Paths().Config)
			mu.Unlock()

			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watcher.DefaultDebounce, "Quiet period before reloading after a change")
	return cmd
}

func printEvent(out io.Writer, format formatting.OutputFormat, event notify.Event) {
	switch format {
	case formatting.FormatJSON:
		fmt.Fprintln(out, formatting.PrettyJSON(event))
		return
	case formatting.FormatYAML:
		data, err := yaml.Marshal(event)
		if err != nil {
			logging.Error("Watch", err, "Failed to encode %s event", event.Kind)
			return
		}
		fmt.Fprintf(out, "---\n%s", data)
		return
	}
	fmt.Fprintf(out, "%s %s %s %s\n", event.Time.Format(time.RFC3339), event.Kind, event.Name, event.Path)
}
