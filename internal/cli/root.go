package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/bond/internal/config"
	"github.com/roach88/bond/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // config file; empty falls back to BOND_CONFIG

	// Settings and Logger are resolved before a subcommand runs.
	Settings config.Settings
	Logger   *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the bond CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "bond",
		Short: "bond - spy point observations and reference files",
		Long: `Maintain bond reference observation files outside of go test.

Reconcile a recorded trace against its reference, rewrite reference files
canonically, and validate them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.resolve(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "settings file (.yaml or .cue); defaults to $"+config.EnvConfig)

	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewFmtCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

// resolve loads settings and builds the logger. Verbose forces debug
// logging to stderr.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	settings, err := config.Load(o.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeConfig+": load settings", err)
	}
	o.Settings = settings

	if o.Verbose {
		o.Logger = logging.NewWriter(cmd.ErrOrStderr(), slog.LevelDebug)
		return nil
	}
	level, enabled, err := logging.ParseLevel(settings.LogLevel)
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeConfig+": log level", err)
	}
	o.Logger = logging.NewNop()
	if enabled {
		o.Logger = logging.NewWriter(cmd.ErrOrStderr(), level)
	}
	return nil
}

// logger returns the resolved logger, or a no-op logger when a subcommand
// runs without the root.
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return logging.NewNop()
	}
	return o.Logger
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// settings returns the resolved settings, or the defaults when a
// subcommand runs without the root.
func (o *RootOptions) settings() config.Settings {
	if o.Settings == (config.Settings{}) {
		return config.Defaults()
	}
	return o.Settings
}
