package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/scenesync/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Env is read from SCENESYNC_* variables before any subcommand runs.
	// Flags take precedence over it.
	Env       config.Env
	envLoaded bool
}

// DispatcherDefaults returns the dispatcher options for scenarios with
// inline bindings: the environment's once it has been read, the built-in
// defaults otherwise.
func (o *RootOptions) DispatcherDefaults() config.DispatcherOptions {
	if !o.envLoaded {
		return config.DefaultDispatcherOptions()
	}
	return config.DispatcherOptions{
		SuppressSessionWrites: o.Env.SuppressSessionWrites,
		TickMillis:            o.Env.TickMillis,
	}
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the scenesync CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "scenesync",
		Short: "scenesync - scene synchronization dispatcher",
		Long: `Drive the scene synchronization dispatcher from YAML scenarios.

Scenarios bind translators to object types, apply session and native edits,
and assert on the translator calls the dispatcher makes. Runs can be
journaled to SQLite and inspected with trace.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			env, err := config.LoadEnv()
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid environment", err)
			}
			opts.Env = env
			opts.envLoaded = true
			return setupLogging(opts, cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))

	return cmd
}

// setupLogging installs the default slog handler. --verbose forces debug;
// otherwise SCENESYNC_LOG_LEVEL decides.
func setupLogging(opts *RootOptions, w io.Writer) error {
	level := slog.LevelDebug
	if !opts.Verbose {
		lvl, err := opts.Env.Level()
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid environment", err)
		}
		level = lvl
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
