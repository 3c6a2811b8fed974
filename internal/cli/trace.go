package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/scenesync/internal/dispatch"
	"github.com/roach88/scenesync/internal/harness"
	"github.com/roach88/scenesync/internal/ir"
	"github.com/roach88/scenesync/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Object   string // optional - filter to one object ID
	Kind     string // optional - filter to one record kind
	Outcome  string // optional - filter to one outcome
	Limit    int
}

// TraceRecord is one journal record as printed by trace.
type TraceRecord struct {
	ID         string `json:"id"`
	Seq        int64  `json:"seq"`
	Kind       string `json:"kind"`
	ObjectID   string `json:"object_id,omitempty"`
	ObjectType string `json:"object_type,omitempty"`
	Translator string `json:"translator,omitempty"`
	Outcome    string `json:"outcome"`
	Detail     string `json:"detail,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Records []TraceRecord `json:"records"`
	Stats   TraceStats    `json:"stats"`
}

// TraceStats counts the printed records by outcome.
type TraceStats struct {
	Total      int            `json:"total"`
	ByOutcome  map[string]int `json:"by_outcome"`
	Translated int            `json:"translated"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print the dispatch journal",
		Long: `Print dispatch records from a SQLite journal written by run --db.

Each line shows the record seq, kind, outcome, object and the translator
it was routed to. Filters narrow the output to one object, kind or outcome.

Examples:
  scenesync trace --db ./journal.db
  scenesync trace --db ./journal.db --object 0192f3c4-...
  scenesync trace --db ./journal.db --kind create --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (defaults to SCENESYNC_DB)")
	cmd.Flags().StringVar(&opts.Object, "object", "", "only records for this object ID")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only records of this kind (create, lock, ...)")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "only records with this outcome (dispatched, suppressed, ...)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "print at most this many records")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db := opts.Database
	if db == "" {
		db = opts.Env.DB
	}
	if db == "" {
		return NewExitError(ExitCommandError, "--db is required")
	}

	journal, err := store.Open(db)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer journal.Close()

	records, err := journal.ReadRecords(ctx, store.Filter{
		ObjectID: opts.Object,
		Kind:     opts.Kind,
		Outcome:  dispatch.Outcome(opts.Outcome),
		Limit:    opts.Limit,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	result, err := buildTrace(records)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{Status: "ok", Data: result})
	}
	return outputTraceText(cmd.OutOrStdout(), records, result, opts.Verbose)
}

func buildTrace(records []dispatch.Record) (TraceResult, error) {
	result := TraceResult{
		Records: make([]TraceRecord, 0, len(records)),
		Stats:   TraceStats{Total: len(records), ByOutcome: make(map[string]int)},
	}
	for _, rec := range records {
		id, err := rec.ID()
		if err != nil {
			return TraceResult{}, fmt.Errorf("record seq=%d: %w", rec.Seq, err)
		}
		tr := TraceRecord{
			ID:         id,
			Seq:        rec.Seq,
			Kind:       rec.Kind,
			ObjectID:   rec.ObjectID,
			ObjectType: rec.ObjectType,
			Translator: rec.Translator,
			Outcome:    string(rec.Outcome),
		}
		if len(rec.Detail) > 0 {
			tr.Detail = ir.Format(rec.Detail)
		}
		result.Records = append(result.Records, tr)
		result.Stats.ByOutcome[tr.Outcome]++
		if rec.Outcome == dispatch.OutcomeDispatched {
			result.Stats.Translated++
		}
	}
	return result, nil
}

func outputTraceText(w io.Writer, records []dispatch.Record, result TraceResult, verbose bool) error {
	fmt.Fprintln(w, "=== Journal ===")
	if len(records) == 0 {
		fmt.Fprintln(w, "  (no records)")
	}
	for i, rec := range records {
		fmt.Fprintf(w, "  %s\n", harness.JournalLine(rec))
		if !verbose {
			continue
		}
		tr := result.Records[i]
		if tr.ObjectType != "" {
			fmt.Fprintf(w, "       Type: %s\n", tr.ObjectType)
		}
		if tr.Detail != "" {
			fmt.Fprintf(w, "       Detail: %s\n", tr.Detail)
		}
		fmt.Fprintf(w, "       ID: %s\n", truncateID(tr.ID))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Records: %d\n", result.Stats.Total)
	fmt.Fprintf(w, "  Dispatched:    %d\n", result.Stats.Translated)
	return nil
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
