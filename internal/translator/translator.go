// Package translator defines the per-type handler contract and the registry
// the dispatcher resolves handlers through.
//
// A Translator converts between native host objects and session objects of
// the types it is registered for, and reacts to their lifecycle and mutation
// events. One translator may be registered under several type identifiers.
package translator

import (
	"fmt"

	"github.com/roach88/scenesync/internal/native"
	"github.com/roach88/scenesync/internal/session"
)

// Translator handles events for the object types it is registered under.
//
// Implementations must be comparable (use pointer receivers): the registry
// deduplicates translators by interface identity.
type Translator interface {
	// Initialize is called once when the dispatcher starts.
	Initialize()
	// CleanUp is called once when the dispatcher stops.
	CleanUp()

	// Create returns a new, uncreated session object for n, or nil when
	// this translator does not handle n.
	Create(n native.Object) *session.Object

	OnCreate(obj *session.Object, childIndex int)
	OnDelete(obj *session.Object)
	OnLock(obj *session.Object)
	OnUnlock(obj *session.Object)
	OnLockOwnerChange(obj *session.Object)
	OnDirectLockChange(obj *session.Object)
	OnParentChange(obj *session.Object, childIndex int)
	OnPropertyChange(prop session.Property)
	OnRemoveField(dict *session.DictionaryProperty, name string)
	OnListAdd(list *session.ListProperty, index, count int)
	OnListRemove(list *session.ListProperty, index, count int)

	// OnUPropertyChange is called before the host applies a native edit.
	// It returns true when the change is accepted for synchronization.
	OnUPropertyChange(obj *session.Object, n native.Object, prop native.Property) bool
	// PostPropertyChange is called once the host has committed the edit.
	PostPropertyChange(n native.Object, prop native.Property)
	// OnUndoRedo is called per native object touched by an undo or redo.
	// obj is nil when n is not synchronized.
	OnUndoRedo(obj *session.Object, n native.Object)
}

// Named is implemented by translators that report a name for logs and traces.
type Named interface {
	Name() string
}

// NameOf returns t's name, or its dynamic type when t is not Named.
func NameOf(t Translator) string {
	if t == nil {
		return ""
	}
	if n, ok := t.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", t)
}

// Base implements every Translator method as a no-op.
// Embed it and override the handlers a translator needs.
type Base struct{}

func (Base) Initialize()                                       {}
func (Base) CleanUp()                                          {}
func (Base) Create(native.Object) *session.Object              { return nil }
func (Base) OnCreate(*session.Object, int)                     {}
func (Base) OnDelete(*session.Object)                          {}
func (Base) OnLock(*session.Object)                            {}
func (Base) OnUnlock(*session.Object)                          {}
func (Base) OnLockOwnerChange(*session.Object)                 {}
func (Base) OnDirectLockChange(*session.Object)                {}
func (Base) OnParentChange(*session.Object, int)               {}
func (Base) OnPropertyChange(session.Property)                 {}
func (Base) OnRemoveField(*session.DictionaryProperty, string) {}
func (Base) OnListAdd(*session.ListProperty, int, int)         {}
func (Base) OnListRemove(*session.ListProperty, int, int)      {}
func (Base) PostPropertyChange(native.Object, native.Property) {}
func (Base) OnUndoRedo(*session.Object, native.Object)         {}

func (Base) OnUPropertyChange(*session.Object, native.Object, native.Property) bool {
	return false
}
