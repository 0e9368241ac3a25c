package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"confkeeper/internal/config"
	"confkeeper/internal/formatting"
	"confkeeper/internal/notify"
	"confkeeper/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfigError indicates the template or the active config could not be read.
	ExitCodeConfigError = 2
)

const appName = "confkeeper"

type rootOptions struct {
	name        string
	defaultPath string
	configPath  string
	output      string
	logLevel    string
	debug       bool
}

var rootOpts = newRootOptions()

func newRootOptions() rootOptions {
	return rootOptions{
		name:     "app",
		output:   string(formatting.FormatTable),
		logLevel: "warn",
	}
}

// rootCmd represents the base command for the confkeeper application.
var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Keep YAML configuration files in step with their templates",
	Long: `confkeeper manages a user-editable YAML configuration file that is laid out
by a shipped default template. It seeds the file from the template, upgrades it
when the template version increases (keeping a .backup of the old file), and
writes changes back with the template's comments and key order intact.`,
	SilenceUsage:      true,
	PersistentPreRunE: initLogging,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "confkeeper version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		if detailed := detailedError(err); detailed != "" {
			fmt.Fprintln(os.Stderr, detailed)
		}
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var templateErr *config.TemplateReadError
	if errors.As(err, &templateErr) {
		return ExitCodeConfigError
	}

	var configErr *config.ConfigReadError
	if errors.As(err, &configErr) {
		return ExitCodeConfigError
	}

	return ExitCodeError
}

func detailedError(err error) string {
	var templateErr *config.TemplateReadError
	if errors.As(err, &templateErr) {
		return templateErr.DetailedError()
	}
	var configErr *config.ConfigReadError
	if errors.As(err, &configErr) {
		return configErr.DetailedError()
	}
	return ""
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&rootOpts.name, "name", "n", rootOpts.name, "Registry name of the configuration")
	flags.StringVarP(&rootOpts.defaultPath, "default", "d", rootOpts.defaultPath, "Path to the default template (required)")
	flags.StringVarP(&rootOpts.configPath, "config", "c", rootOpts.configPath, "Path to the active config (default is $HOME/.config/<name>/config.yaml)")
	flags.StringVarP(&rootOpts.output, "output", "o", rootOpts.output, "Output format: table, yaml or json")
	flags.StringVar(&rootOpts.logLevel, "log-level", rootOpts.logLevel, "Log level: debug, info, warn or error")
	flags.BoolVar(&rootOpts.debug, "debug", rootOpts.debug, "Shorthand for --log-level=debug")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newSetCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newRenderCmd())
	rootCmd.AddCommand(newWatchCmd())
}

func initLogging(cmd *cobra.Command, _ []string) error {
	level, err := logging.ParseLevel(rootOpts.logLevel)
	if err != nil {
		return err
	}
	if rootOpts.debug {
		level = logging.LevelDebug
	}
	logging.InitForCLI(level, cmd.ErrOrStderr())
	return nil
}

// openConfig builds a registry for this invocation and loads the
// configuration named by the persistent flags.
func openConfig(notifier notify.Notifier) (*config.Config, error) {
	if rootOpts.defaultPath == "" {
		return nil, errors.New("the --default flag is required")
	}

	configPath := rootOpts.configPath
	if configPath == "" {
		var err error
		configPath, err = config.UserConfigPath(rootOpts.name)
		if err != nil {
			return nil, err
		}
	}

	reg := config.NewRegistry(config.WithNotifier(notifier))
	return reg.Get(rootOpts.name, config.Paths{
		Default: rootOpts.defaultPath,
		Config:  configPath,
	})
}

func newFormatter() (formatting.Formatter, error) {
	format, err := formatting.ParseFormat(rootOpts.output)
	if err != nil {
		return nil, err
	}
	return formatting.New(formatting.Options{Format: format}), nil
}
