package native

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/scenesync/internal/session"
)

func TestLinks_Bidirectional(t *testing.T) {
	links := NewLinks()
	host := NewMemory()
	n := host.Spawn("cube", "Actor")
	obj := session.NewObject("Actor", nil)

	links.Link(n, obj)
	assert.Same(t, obj, links.SyncObject(n))
	assert.Equal(t, Object(n), links.Native(obj))
	assert.Equal(t, 1, links.Len())

	assert.True(t, links.Unlink(n))
	assert.False(t, links.Unlink(n))
	assert.Nil(t, links.SyncObject(n))
	assert.Nil(t, links.Native(obj))
}

func TestLinks_RelinkReplacesBothSides(t *testing.T) {
	links := NewLinks()
	host := NewMemory()
	a := host.Spawn("a", "Actor")
	b := host.Spawn("b", "Actor")
	obj := session.NewObject("Actor", nil)

	links.Link(a, obj)
	links.Link(b, obj)

	assert.Nil(t, links.SyncObject(a))
	assert.Same(t, obj, links.SyncObject(b))
	assert.Equal(t, 1, links.Len())

	assert.True(t, links.UnlinkObject(obj))
	assert.Equal(t, 0, links.Len())
}

func TestLinks_NilNative(t *testing.T) {
	assert.Nil(t, NewLinks().SyncObject(nil))
}
