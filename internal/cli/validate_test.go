package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBindings = `
translators: {
	mesh:  {kind: "recorder", types: ["Mesh", "StaticMesh"]}
	actor: {kind: "mirror", types: ["Actor"]}
}
`

func TestValidateCommandMissingArgs(t *testing.T) {
	_, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestValidateCommandValid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bindings.cue", validBindings)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Bindings valid: 2 translator(s)")
	assert.Contains(t, out, "actor (mirror): Actor")
	assert.Contains(t, out, "mesh (recorder): Mesh, StaticMesh")
	assert.NotContains(t, out, "warning:")
}

func TestValidateCommandValidJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bindings.cue", validBindings)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), path)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	require.Len(t, resp.Data.Translators, 2)
	assert.Equal(t, "actor", resp.Data.Translators[0].Name)
	assert.Equal(t, "mesh", resp.Data.Translators[1].Name)
}

func TestValidateCommandHarnessBindings(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "../harness/testdata/scenarios/bindings.cue")
	require.NoError(t, err)
	assert.Contains(t, out, "scene (recorder): Mesh, Group, Prop")
}

func TestValidateCommandDuplicateTypeWarns(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bindings.cue", `
translators: {
	a: {kind: "recorder", types: ["Mesh"]}
	b: {kind: "recorder", types: ["Mesh"]}
}
`)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err, "duplicate claims are warnings")
	assert.Contains(t, out, "warning:")
	assert.Contains(t, out, "DUPLICATE_TYPE")
}

func TestValidateCommandSchemaError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bindings.cue", `translators: a: {kind: "proxy", types: ["Mesh"]}`)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "SCHEMA")
}

func TestValidateCommandNoTranslatorsJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bindings.cue", `dispatcher: tickMillis: 8`)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NO_TRANSLATORS", resp.Error.Code)
}

func TestValidateCommandNotFound(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "missing.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [NOT_FOUND]")
}
