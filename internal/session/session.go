package session

import (
	"github.com/roach88/scenesync/internal/event"
	"github.com/roach88/scenesync/internal/ir"
)

// Session is the part of the synchronization session the dispatcher uses.
type Session interface {
	// Channels returns the typed event channels. The same value is returned
	// for the lifetime of the session.
	Channels() *Channels

	// Create requests creation of obj (and its uncreated descendants) in the
	// shared session. Confirmation arrives on the Create channel.
	Create(obj *Object) error
}

// Scheduler runs session deliveries on the processing goroutine.
// engine.Loop implements it.
type Scheduler interface {
	Post(kind string, fn func() error) bool
}

// IDGenerator produces object identities.
type IDGenerator interface {
	Generate() string
}

// CreateEvent is delivered when an object is created.
type CreateEvent struct {
	Object     *Object
	ChildIndex int
}

// ParentChangeEvent is delivered when an object moves in the hierarchy.
type ParentChangeEvent struct {
	Object     *Object
	ChildIndex int
}

// RemoveFieldEvent is delivered when a dictionary field is removed.
type RemoveFieldEvent struct {
	Dictionary *DictionaryProperty
	Name       string
}

// ListEvent is delivered when elements are added to or removed from a list.
type ListEvent struct {
	List  *ListProperty
	Index int
	Count int
}

// Channels groups the session's typed event channels.
type Channels struct {
	Create           *event.Event[CreateEvent]
	Delete           *event.Event[*Object]
	Lock             *event.Event[*Object]
	Unlock           *event.Event[*Object]
	LockOwnerChange  *event.Event[*Object]
	DirectLockChange *event.Event[*Object]
	ParentChange     *event.Event[ParentChangeEvent]
	PropertyChange   *event.Event[Property]
	RemoveField      *event.Event[RemoveFieldEvent]
	ListAdd          *event.Event[ListEvent]
	ListRemove       *event.Event[ListEvent]
}

// NewChannels creates a Channels value with every channel allocated.
func NewChannels() *Channels {
	return &Channels{
		Create:           event.New[CreateEvent](),
		Delete:           event.New[*Object](),
		Lock:             event.New[*Object](),
		Unlock:           event.New[*Object](),
		LockOwnerChange:  event.New[*Object](),
		DirectLockChange: event.New[*Object](),
		ParentChange:     event.New[ParentChangeEvent](),
		PropertyChange:   event.New[Property](),
		RemoveField:      event.New[RemoveFieldEvent](),
		ListAdd:          event.New[ListEvent](),
		ListRemove:       event.New[ListEvent](),
	}
}

// Subscribers returns the total number of handlers across all channels.
func (c *Channels) Subscribers() int {
	return c.Create.Len() + c.Delete.Len() + c.Lock.Len() + c.Unlock.Len() +
		c.LockOwnerChange.Len() + c.DirectLockChange.Len() + c.ParentChange.Len() +
		c.PropertyChange.Len() + c.RemoveField.Len() + c.ListAdd.Len() + c.ListRemove.Len()
}

// OpKind identifies a local mutation sent to the session.
type OpKind string

const (
	OpCreate      OpKind = "create"
	OpSetValue    OpKind = "set_value"
	OpSetField    OpKind = "set_field"
	OpRemoveField OpKind = "remove_field"
	OpListInsert  OpKind = "list_insert"
	OpListRemove  OpKind = "list_remove"
)

// Op is a local mutation as it would be sent to the other collaborators.
type Op struct {
	Kind   OpKind
	Object ObjectID
	Type   string
	Path   string
	Field  string
	Value  ir.Value
	Index  int
	Count  int
}

type outbox interface {
	send(op Op)
}
