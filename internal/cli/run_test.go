package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenesync/internal/store"
)

const meshDedupScenario = "../harness/testdata/scenarios/mesh_dedup.yaml"

// execute runs cmd with args and returns its stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeFile writes content to dir/name and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const failingScenario = `
name: always_fails
description: asserts a creation that never happens
bindings:
  - {name: A, kind: recorder, types: [Mesh]}
steps:
  - do: initialize
assertions:
  - type: session_creates
    count: 3
`

func TestRunCommandMissingArgs(t *testing.T) {
	_, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestRunCommandScenarioNotFound(t *testing.T) {
	_, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), "/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load scenario")
}

func TestRunCommandText(t *testing.T) {
	out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), meshDedupScenario)
	require.NoError(t, err)

	assert.Contains(t, out, "Scenario: mesh_dedup")
	assert.Contains(t, out, "[1] A.Initialize()")
	assert.Contains(t, out, "[2] A.OnCreate(obj-1, index=0)")
	assert.Contains(t, out, "Records: 5")
	assert.Contains(t, out, "Trace hash: ")
	assert.Contains(t, out, "✓ mesh_dedup passed")
	assert.NotContains(t, out, "Journal:")
}

func TestRunCommandJSON(t *testing.T) {
	out, err := execute(t, NewRunCommand(&RootOptions{Format: "json"}), meshDedupScenario)
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   RunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Pass)
	assert.Equal(t, "mesh_dedup", resp.Data.Scenario)
	assert.Equal(t, []string{"A.Initialize()", "A.OnCreate(obj-1, index=0)"}, resp.Data.Calls)
	assert.Equal(t, 5, resp.Data.Records)
	assert.Len(t, resp.Data.Hash, 64)
}

func TestRunCommandHashIsStable(t *testing.T) {
	hash := func() string {
		out, err := execute(t, NewRunCommand(&RootOptions{Format: "json"}), meshDedupScenario)
		require.NoError(t, err)
		var resp struct {
			Data RunResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		return resp.Data.Hash
	}
	assert.Equal(t, hash(), hash())
}

func TestRunCommandFailingScenario(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fail.yaml", failingScenario)

	out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ always_fails failed")
	assert.Contains(t, out, "session_creates")
}

func TestRunCommandFailingScenarioJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fail.yaml", failingScenario)

	out, err := execute(t, NewRunCommand(&RootOptions{Format: "json"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_SCENARIO_FAILED", resp.Error.Code)
}

func TestRunCommandJournal(t *testing.T) {
	db := filepath.Join(t.TempDir(), "journal.db")

	for range 2 {
		out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), meshDedupScenario, "--db", db)
		require.NoError(t, err)
		assert.Contains(t, out, "Journal: "+db)
	}

	journal, err := store.Open(db)
	require.NoError(t, err)
	defer journal.Close()

	ctx := context.Background()
	n, err := journal.Count(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 10, n, "second run appends after the first")

	last, err := journal.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), last)

	recs, err := journal.ReadRecords(ctx, store.Filter{AfterSeq: 5})
	require.NoError(t, err)
	require.Len(t, recs, 5)
	assert.Equal(t, int64(6), recs[0].Seq)
	assert.Equal(t, "lifecycle", recs[0].Kind)
}

func TestRunCommandJournalFromEnv(t *testing.T) {
	db := filepath.Join(t.TempDir(), "env.db")
	opts := &RootOptions{Format: "text"}
	opts.Env.DB = db

	_, err := execute(t, NewRunCommand(opts), meshDedupScenario)
	require.NoError(t, err)

	_, err = os.Stat(db)
	assert.NoError(t, err)
}
