// Package native models the host editor's object system as the dispatcher
// sees it: opaque object handles, named properties, modification
// notifications and undo/redo transactions.
//
// The dispatcher never owns native objects. It resolves them to session
// objects through Links and passes them through to translators.
package native

import (
	"fmt"

	"github.com/roach88/scenesync/internal/event"
)

// Object is an opaque handle to a host object.
// Implementations must be comparable; Links uses them as map keys.
type Object interface {
	Name() string
	Class() string
}

// Property identifies a property of a host object.
type Property interface {
	Name() string
}

// Phase distinguishes the notifications around a single native edit.
type Phase int

const (
	// PreChange fires before the host applies the edit.
	PreChange Phase = iota + 1
	// PostChange fires once the host has committed the edit.
	PostChange
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PreChange:
		return "pre_change"
	case PostChange:
		return "post_change"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Modification is one object-modified notification.
//
// Listeners set Handled on PreChange notifications they accept for
// synchronization; the host applies its own fallback to the rest.
type Modification struct {
	Object   Object
	Property Property
	Phase    Phase
	Handled  bool
}

// TransactionKind is undo or redo.
type TransactionKind int

const (
	Undo TransactionKind = iota + 1
	Redo
)

// String returns "undo" or "redo".
func (k TransactionKind) String() string {
	switch k {
	case Undo:
		return "undo"
	case Redo:
		return "redo"
	default:
		return fmt.Sprintf("transaction(%d)", int(k))
	}
}

// Transaction is a replayed host transaction. Objects lists every native
// object the replay touched, in the order the host reports them.
type Transaction struct {
	Kind    TransactionKind
	Title   string
	Objects []Object
}

// Host is the host notification surface the dispatcher subscribes to.
type Host interface {
	OnObjectModified() *event.Event[*Modification]
	OnUndoRedo() *event.Event[Transaction]
}
