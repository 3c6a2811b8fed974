package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenesync/internal/ir"
)

func TestMemory_EditFiresPreAndPost(t *testing.T) {
	host := NewMemory()
	cube := host.Spawn("cube", "StaticMeshActor")

	var phases []Phase
	var seenBeforeApply ir.Value
	host.OnObjectModified().Subscribe(func(mod *Modification) {
		phases = append(phases, mod.Phase)
		if mod.Phase == PreChange {
			seenBeforeApply = cube.Get("x")
			mod.Handled = true
		}
		assert.Equal(t, "x", mod.Property.Name())
		assert.Same(t, cube, mod.Object)
	})

	handled := host.Edit(cube, "x", ir.Int(5))
	assert.True(t, handled)
	assert.Equal(t, []Phase{PreChange, PostChange}, phases)
	assert.Nil(t, seenBeforeApply, "pre-change sees the old value")
	assert.Equal(t, ir.Int(5), cube.Get("x"))
	assert.Empty(t, host.Unhandled())
}

func TestMemory_UnhandledEditsAreCollected(t *testing.T) {
	host := NewMemory()
	cube := host.Spawn("cube", "StaticMeshActor")

	assert.False(t, host.Write(cube, "y", ir.Int(1)))

	unhandled := host.Unhandled()
	require.Len(t, unhandled, 1)
	assert.Equal(t, "y", unhandled[0].Property.Name())
	assert.Equal(t, PreChange, unhandled[0].Phase)
}

func TestMemory_UndoRedo(t *testing.T) {
	host := NewMemory()
	cube := host.Spawn("cube", "StaticMeshActor")

	var txns []Transaction
	host.OnUndoRedo().Subscribe(func(tx Transaction) { txns = append(txns, tx) })

	host.Edit(cube, "x", ir.Int(1))
	host.Edit(cube, "x", ir.Int(2))
	host.Write(cube, "y", ir.Int(7)) // not undoable

	require.True(t, host.Undo())
	assert.Equal(t, ir.Int(1), cube.Get("x"))
	require.True(t, host.Undo())
	assert.Nil(t, cube.Get("x"))
	assert.False(t, host.Undo())

	require.True(t, host.Redo())
	assert.Equal(t, ir.Int(1), cube.Get("x"))
	assert.Equal(t, ir.Int(7), cube.Get("y"))

	require.Len(t, txns, 3)
	assert.Equal(t, Undo, txns[0].Kind)
	assert.Equal(t, Redo, txns[2].Kind)
	assert.Equal(t, []Object{cube}, txns[2].Objects)
	assert.Equal(t, "Edit x", txns[2].Title)
}

func TestMemory_EditClearsRedo(t *testing.T) {
	host := NewMemory()
	cube := host.Spawn("cube", "StaticMeshActor")

	host.Edit(cube, "x", ir.Int(1))
	host.Undo()
	host.Edit(cube, "x", ir.Int(3))
	assert.False(t, host.Redo())
}

func TestMemory_SpawnFindDestroy(t *testing.T) {
	host := NewMemory()
	a := host.Spawn("a", "Actor")
	assert.Same(t, a, host.Spawn("a", "Other"), "spawn is idempotent per name")
	assert.Same(t, a, host.Find("a"))
	assert.Equal(t, "Actor:a", a.String())

	host.Edit(a, "x", ir.Int(1))
	host.Destroy(a)
	assert.Nil(t, host.Find("a"))
	assert.False(t, host.Undo(), "history of destroyed nodes is dropped")
}

func TestMemory_Replay(t *testing.T) {
	host := NewMemory()
	a := host.Spawn("a", "Actor")
	b := host.Spawn("b", "Actor")

	var got Transaction
	host.OnUndoRedo().Subscribe(func(tx Transaction) { got = tx })
	host.Replay(Undo, "Move", a, b)

	assert.Equal(t, []Object{a, b}, got.Objects)
	assert.Equal(t, "Move", got.Title)
}

func TestNode_Props(t *testing.T) {
	host := NewMemory()
	n := host.Spawn("n", "Actor")
	host.Write(n, "b", ir.Int(1))
	host.Write(n, "a", ir.Int(1))
	assert.Equal(t, []string{"a", "b"}, n.Props())
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "pre_change", PreChange.String())
	assert.Equal(t, "post_change", PostChange.String())
	assert.Equal(t, "undo", Undo.String())
	assert.Equal(t, "redo", Redo.String())
}
