package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenesync/internal/dispatch"
	"github.com/roach88/scenesync/internal/ir"
	"github.com/roach88/scenesync/internal/store"
)

// seedJournal writes a small journal and returns its path.
func seedJournal(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	journal, err := store.Open(path)
	require.NoError(t, err)
	defer journal.Close()

	ctx := context.Background()
	for _, rec := range []dispatch.Record{
		{Seq: 1, Kind: dispatch.KindLifecycle, Outcome: dispatch.OutcomeBroadcast, Detail: ir.Object{"event": ir.String("initialize")}},
		{Seq: 2, Kind: dispatch.KindCreate, ObjectID: "obj-1", ObjectType: "Mesh", Translator: "A", Outcome: dispatch.OutcomeDispatched, Detail: ir.Object{"index": ir.Int(0)}},
		{Seq: 3, Kind: dispatch.KindLock, ObjectID: "obj-1", ObjectType: "Mesh", Translator: "A", Outcome: dispatch.OutcomeDispatched},
		{Seq: 4, Kind: dispatch.KindCreate, ObjectID: "obj-2", ObjectType: "Foo", Outcome: dispatch.OutcomeNoTranslator},
	} {
		require.NoError(t, journal.WriteRecord(ctx, rec))
	}
	return path
}

func TestTraceMissingDatabase(t *testing.T) {
	_, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "--db is required")
}

func TestTraceRejectsArgs(t *testing.T) {
	_, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}), "journal.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestTraceNonExistentDatabaseDir(t *testing.T) {
	_, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}), "--db", "/nonexistent/path/journal.db")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to open database")
}

func TestTraceEmptyJournal(t *testing.T) {
	out, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}), "--db", filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "(no records)")
	assert.Contains(t, out, "Total Records: 0")
}

func TestTraceText(t *testing.T) {
	out, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}), "--db", seedJournal(t))
	require.NoError(t, err)

	assert.Contains(t, out, "  1 lifecycle broadcast\n")
	assert.Contains(t, out, "  2 create dispatched obj-1 -> A\n")
	assert.Contains(t, out, "  4 create no_translator obj-2\n")
	assert.Contains(t, out, "Total Records: 4")
	assert.Contains(t, out, "Dispatched:    2")
	assert.NotContains(t, out, "Detail:")
}

func TestTraceTextVerbose(t *testing.T) {
	out, err := execute(t, NewTraceCommand(&RootOptions{Format: "text", Verbose: true}), "--db", seedJournal(t))
	require.NoError(t, err)

	assert.Contains(t, out, "Type: Mesh")
	assert.Contains(t, out, "Detail: {index:0}")
	assert.Contains(t, out, `Detail: {event:"initialize"}`)
	assert.Contains(t, out, "ID: ")
}

func TestTraceFilters(t *testing.T) {
	db := seedJournal(t)

	tests := []struct {
		name string
		args []string
		seqs []int64
	}{
		{"object", []string{"--object", "obj-1"}, []int64{2, 3}},
		{"kind", []string{"--kind", "create"}, []int64{2, 4}},
		{"outcome", []string{"--outcome", "no_translator"}, []int64{4}},
		{"limit", []string{"--limit", "2"}, []int64{1, 2}},
		{"object and kind", []string{"--object", "obj-1", "--kind", "lock"}, []int64{3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--db", db}, tt.args...)
			out, err := execute(t, NewTraceCommand(&RootOptions{Format: "json"}), args...)
			require.NoError(t, err)

			var resp struct {
				Status string      `json:"status"`
				Data   TraceResult `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "ok", resp.Status)

			var seqs []int64
			for _, r := range resp.Data.Records {
				seqs = append(seqs, r.Seq)
			}
			assert.Equal(t, tt.seqs, seqs)
			assert.Equal(t, len(tt.seqs), resp.Data.Stats.Total)
		})
	}
}

func TestTraceJSONRecord(t *testing.T) {
	out, err := execute(t, NewTraceCommand(&RootOptions{Format: "json"}), "--db", seedJournal(t), "--kind", "create", "--object", "obj-1")
	require.NoError(t, err)

	var resp struct {
		Data TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Records, 1)

	r := resp.Data.Records[0]
	assert.Equal(t, "create", r.Kind)
	assert.Equal(t, "Mesh", r.ObjectType)
	assert.Equal(t, "A", r.Translator)
	assert.Equal(t, "dispatched", r.Outcome)
	assert.Equal(t, "{index:0}", r.Detail)
	assert.Len(t, r.ID, 64)
	assert.Equal(t, map[string]int{"dispatched": 1}, resp.Data.Stats.ByOutcome)
}

func TestTraceReadsRunJournal(t *testing.T) {
	db := filepath.Join(t.TempDir(), "journal.db")
	_, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), meshDedupScenario, "--db", db)
	require.NoError(t, err)

	out, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "  2 create_request requested obj-1 -> A\n")
	assert.Contains(t, out, "  5 property_change no_translator obj-2\n")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "abcdefgh...stuvwxyz", truncateID("abcdefghijklmnopqrstuvwxyz"))
}
