package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/scenesync/internal/engine"
	"github.com/roach88/scenesync/internal/harness"
	"github.com/roach88/scenesync/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
}

// RunResult is the outcome of one scenario run.
type RunResult struct {
	Scenario string   `json:"scenario"`
	Pass     bool     `json:"pass"`
	Calls    []string `json:"calls"`
	Records  int      `json:"records"`
	Hash     string   `json:"hash"`
	Database string   `json:"database,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run one scenario and print its translator calls",
		Long: `Run a single scenario file against a fresh session and dispatcher.

Prints every translator call in order, followed by the trace hash. With
--db (or SCENESYNC_DB) every dispatch record is appended to a SQLite
journal; seq numbers continue from the last record already there.

Example:
  scenesync run ./scenarios/mesh_dedup.yaml
  scenesync run --db ./journal.db ./scenarios/mesh_dedup.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "append dispatch records to this SQLite journal")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	runOpts := []harness.Option{
		harness.WithContext(ctx),
		harness.WithDefaults(opts.DispatcherDefaults()),
		harness.WithLogger(slog.Default()),
	}

	db := opts.Database
	if db == "" {
		db = opts.Env.DB
	}
	if db != "" {
		slog.Debug("opening journal", "path", db)
		journal, err := store.Open(db)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := journal.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()

		last, err := journal.LastSeq(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		slog.Debug("resuming journal", "seq", last)
		runOpts = append(runOpts, harness.WithRecorder(journal), harness.WithSequencer(engine.NewClockAt(last)))
	}

	slog.Info("running scenario", "scenario", scenario.Name, "path", path)
	result, err := harness.Run(scenario, runOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	hash, err := harness.NewTraceSnapshot(scenario.Name, result).Hash()
	if err != nil {
		return fmt.Errorf("hash trace: %w", err)
	}

	out := RunResult{
		Scenario: scenario.Name,
		Pass:     result.Pass,
		Calls:    result.CallStrings(),
		Records:  len(result.Journal),
		Hash:     hash,
		Database: db,
		Errors:   result.Errors,
	}

	if opts.Format == "json" {
		return outputRunJSON(cmd, out)
	}
	return outputRunText(cmd, out)
}

func outputRunJSON(cmd *cobra.Command, out RunResult) error {
	response := CLIResponse{Status: "ok", Data: out}
	if !out.Pass {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_SCENARIO_FAILED",
			Message: fmt.Sprintf("scenario %s failed", out.Scenario),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}
	if !out.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", out.Scenario))
	}
	return nil
}

func outputRunText(cmd *cobra.Command, out RunResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Scenario: %s\n", out.Scenario)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Calls ===")
	if len(out.Calls) == 0 {
		fmt.Fprintln(w, "  (no calls)")
	}
	for i, call := range out.Calls {
		fmt.Fprintf(w, "  [%d] %s\n", i+1, call)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Records: %d\n", out.Records)
	if out.Database != "" {
		fmt.Fprintf(w, "Journal: %s\n", out.Database)
	}
	fmt.Fprintf(w, "Trace hash: %s\n", out.Hash)

	if !out.Pass {
		fmt.Fprintf(w, "✗ %s failed\n", out.Scenario)
		for _, e := range out.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", out.Scenario))
	}
	fmt.Fprintf(w, "✓ %s passed\n", out.Scenario)
	return nil
}
