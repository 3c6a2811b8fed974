package translator

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenesync/internal/session"
)

func TestRegistry_GetUnregisteredType(t *testing.T) {
	r := NewRegistry(nil)

	assert.Nil(t, r.Get("Foo"))
	assert.Nil(t, r.GetFor(session.NewObject("Foo", nil)))
	assert.Nil(t, r.GetFor(nil))
	assert.Empty(t, r.Translators())
}

func TestRegistry_OneTranslatorManyTypes(t *testing.T) {
	log := NewCallLog()
	a := NewRecorder("A", log)

	r := NewRegistry(nil)
	r.Register("Mesh", a)
	r.Register("StaticMesh", a)

	assert.Same(t, a, r.Get("Mesh"))
	assert.Same(t, a, r.Get("StaticMesh"))
	require.Len(t, r.Translators(), 1, "a translator bound twice is iterated once")
	assert.Equal(t, []string{"Mesh", "StaticMesh"}, r.Types())
	assert.Equal(t, []string{"Mesh", "StaticMesh"}, r.TypesOf(a))
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_RegisterSameTranslatorTwice(t *testing.T) {
	a := NewRecorder("A", NewCallLog())

	r := NewRegistry(nil)
	r.Register("Mesh", a)
	r.Register("Mesh", a)

	assert.Len(t, r.Translators(), 1)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_ReplaceBinding(t *testing.T) {
	log := NewCallLog()
	a := NewRecorder("A", log)
	b := NewRecorder("B", log)

	r := NewRegistry(nil)
	r.Register("Mesh", a)
	r.Register("Light", a)
	r.Register("Mesh", b)

	assert.Same(t, b, r.Get("Mesh"), "last write wins")
	assert.Same(t, a, r.Get("Light"))
	assert.Equal(t, []Translator{a, b}, r.Translators())
}

func TestRegistry_ReplaceLastBindingKeepsTranslator(t *testing.T) {
	log := NewCallLog()
	a := NewRecorder("A", log)
	b := NewRecorder("B", log)

	r := NewRegistry(nil)
	r.Register("Mesh", a)
	r.Register("Mesh", b)

	assert.Equal(t, []Translator{a, b}, r.Translators(), "set is add-only")
	assert.Empty(t, r.TypesOf(a))
	assert.Same(t, b, r.Get("Mesh"))

	r.Register("Mesh", a)
	assert.Equal(t, []Translator{a, b}, r.Translators(), "re-adding does not reorder")
}

func TestRegistry_ReplaceBindingWarns(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	r := NewRegistry(logger)
	r.Register("Mesh", NewRecorder("A", NewCallLog()))
	assert.Empty(t, buf.String())

	r.Register("Mesh", NewRecorder("B", NewCallLog()))
	assert.Contains(t, buf.String(), "translator binding replaced")
	assert.Contains(t, buf.String(), "previous=A")
	assert.Contains(t, buf.String(), "translator=B")

	buf.Reset()
	r.Register("Mesh", nil)
	assert.Empty(t, buf.String(), "unbinding is silent")
}

func TestRegistry_RegisterNilUnbinds(t *testing.T) {
	a := NewRecorder("A", NewCallLog())

	r := NewRegistry(nil)
	r.Register("Mesh", a)
	r.Register("Mesh", nil)
	r.Register("Light", nil)

	assert.Nil(t, r.Get("Mesh"))
	assert.Nil(t, r.Get("Light"))
	assert.Equal(t, []Translator{a}, r.Translators())
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_TranslatorsOrderIsFirstRegistration(t *testing.T) {
	log := NewCallLog()
	a := NewRecorder("A", log)
	b := NewRecorder("B", log)
	c := NewRecorder("C", log)

	r := NewRegistry(nil)
	r.Register("Light", b)
	r.Register("Mesh", a)
	r.Register("Camera", c)
	r.Register("StaticMesh", b)

	assert.Equal(t, []Translator{b, a, c}, r.Translators())
}

func TestRegistry_TranslatorsReturnsCopy(t *testing.T) {
	a := NewRecorder("A", NewCallLog())
	r := NewRegistry(nil)
	r.Register("Mesh", a)

	list := r.Translators()
	list[0] = nil

	assert.Same(t, a, r.Translators()[0])
}

func TestNameOf(t *testing.T) {
	assert.Equal(t, "A", NameOf(NewRecorder("A", NewCallLog())))
	assert.Equal(t, "*translator.Base", NameOf(&Base{}))
	assert.Empty(t, NameOf(nil))
}
