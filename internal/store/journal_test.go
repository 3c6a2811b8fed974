package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenesync/internal/dispatch"
	"github.com/roach88/scenesync/internal/ir"
)

// createTestJournal opens a journal in a temp dir, closed on cleanup.
func createTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpen_CreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer j.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	j1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j1.WriteRecord(ctx, dispatch.Record{Seq: 1, Kind: dispatch.KindCreate, Outcome: dispatch.OutcomeDispatched}))
	require.NoError(t, j1.Close())

	j2, err := Open(path)
	require.NoError(t, err)
	defer j2.Close()

	n, err := j2.Count(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpen_Pragmas(t *testing.T) {
	j := createTestJournal(t)

	for name, want := range map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"busy_timeout": "5000",
		"user_version": "1",
	} {
		got, err := j.pragma(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestWriteRecord_RoundTrip(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	rec := dispatch.Record{
		Seq:        7,
		Kind:       dispatch.KindListAdd,
		ObjectID:   "obj-1",
		ObjectType: "Mesh",
		Translator: "mesh",
		Outcome:    dispatch.OutcomeDispatched,
		Detail: ir.Object{
			"path":  ir.String("points"),
			"index": ir.Int(9007199254740993),
			"count": ir.Int(1),
		},
	}
	require.NoError(t, j.WriteRecord(ctx, rec))

	got, err := j.ReadRecords(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.Seq, got[0].Seq)
	assert.Equal(t, rec.Kind, got[0].Kind)
	assert.Equal(t, rec.ObjectID, got[0].ObjectID)
	assert.Equal(t, rec.ObjectType, got[0].ObjectType)
	assert.Equal(t, rec.Translator, got[0].Translator)
	assert.Equal(t, rec.Outcome, got[0].Outcome)
	assert.True(t, ir.Equal(rec.Detail, got[0].Detail), "detail: %s", ir.Format(got[0].Detail))
}

func TestWriteRecord_Idempotent(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()
	rec := dispatch.Record{Seq: 1, Kind: dispatch.KindDelete, ObjectID: "obj-1", Outcome: dispatch.OutcomeNoTranslator}

	require.NoError(t, j.WriteRecord(ctx, rec))
	require.NoError(t, j.WriteRecord(ctx, rec))

	n, err := j.Count(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReadRecords_FilterAndOrder(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	// Written out of order; reads come back by seq.
	for _, rec := range []dispatch.Record{
		{Seq: 3, Kind: dispatch.KindPropertyChange, ObjectID: "obj-2", Outcome: dispatch.OutcomeNoTranslator},
		{Seq: 1, Kind: dispatch.KindCreate, ObjectID: "obj-1", Outcome: dispatch.OutcomeDispatched},
		{Seq: 2, Kind: dispatch.KindPropertyChange, ObjectID: "obj-1", Outcome: dispatch.OutcomeDispatched},
		{Seq: 4, Kind: dispatch.KindNativeChange, Outcome: dispatch.OutcomeSuppressed},
	} {
		require.NoError(t, j.WriteRecord(ctx, rec))
	}

	all, err := j.ReadRecords(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i, rec := range all {
		assert.Equal(t, int64(i+1), rec.Seq)
	}

	byObject, err := j.ReadRecords(ctx, Filter{ObjectID: "obj-1"})
	require.NoError(t, err)
	assert.Len(t, byObject, 2)

	byKind, err := j.ReadRecords(ctx, Filter{Kind: dispatch.KindPropertyChange, Outcome: dispatch.OutcomeNoTranslator})
	require.NoError(t, err)
	require.Len(t, byKind, 1)
	assert.Equal(t, "obj-2", byKind[0].ObjectID)

	tail, err := j.ReadRecords(ctx, Filter{AfterSeq: 2, Limit: 1})
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, int64(3), tail[0].Seq)

	none, err := j.ReadRecords(ctx, Filter{ObjectID: "missing"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestLastSeq(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	seq, err := j.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	require.NoError(t, j.WriteRecord(ctx, dispatch.Record{Seq: 12, Kind: dispatch.KindLock, Outcome: dispatch.OutcomeDispatched}))
	seq, err = j.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), seq)
}

func TestJournal_AsDispatchRecorder(t *testing.T) {
	var _ dispatch.Recorder = (*Journal)(nil)
}
