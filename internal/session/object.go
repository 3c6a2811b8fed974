package session

import "fmt"

// ObjectID is the stable identity the session assigns to a created object.
type ObjectID string

// LockState describes whether an object may be edited locally.
type LockState int

const (
	// Unlocked objects may be edited.
	Unlocked LockState = iota
	// PartiallyLocked objects are locked because an ancestor holds a direct
	// lock. The lock owner is the ancestor's owner.
	PartiallyLocked
	// FullyLocked objects hold a direct lock themselves.
	FullyLocked
)

// String returns the lock state name used in logs and traces.
func (s LockState) String() string {
	switch s {
	case Unlocked:
		return "unlocked"
	case PartiallyLocked:
		return "partially_locked"
	case FullyLocked:
		return "fully_locked"
	default:
		return fmt.Sprintf("lock_state(%d)", int(s))
	}
}

// Object is a synchronized entity.
//
// Objects are compared by pointer; the dispatcher uses *Object as a set key.
// The type identifier never changes after construction.
type Object struct {
	id       ObjectID
	objType  string
	props    *DictionaryProperty
	parent   *Object
	children []*Object

	directLock bool
	lockOwner  uint32

	created bool
	deleted bool

	out outbox
}

// NewObject creates an object that is not yet known to any session.
// props may be nil, in which case an empty dictionary is used.
func NewObject(objType string, props *DictionaryProperty) *Object {
	if props == nil {
		props = NewDictionary()
	}
	obj := &Object{objType: objType, props: props}
	props.attach(obj, nil, "")
	return obj
}

// ID returns the session-assigned identity. Empty until the object is created.
func (o *Object) ID() ObjectID { return o.id }

// Type returns the object's type identifier.
func (o *Object) Type() string { return o.objType }

// Property returns the root of the object's property tree.
func (o *Object) Property() *DictionaryProperty { return o.props }

// Parent returns the parent object, or nil for roots.
func (o *Object) Parent() *Object { return o.parent }

// Children returns a copy of the child list.
func (o *Object) Children() []*Object {
	out := make([]*Object, len(o.children))
	copy(out, o.children)
	return out
}

// ChildIndex returns the object's position in its parent's child list,
// or -1 for roots.
func (o *Object) ChildIndex() int {
	if o.parent == nil {
		return -1
	}
	for i, c := range o.parent.children {
		if c == o {
			return i
		}
	}
	return -1
}

// AddChild appends child to the hierarchy. Intended for building a subtree
// before it is created; use Memory.RemoteSetParent for created objects.
func (o *Object) AddChild(child *Object) {
	if child.parent != nil {
		child.parent.removeChild(child)
	}
	child.parent = o
	o.children = append(o.children, child)
}

func (o *Object) insertChild(child *Object, index int) {
	if index < 0 || index > len(o.children) {
		index = len(o.children)
	}
	child.parent = o
	o.children = append(o.children, nil)
	copy(o.children[index+1:], o.children[index:])
	o.children[index] = child
}

func (o *Object) removeChild(child *Object) {
	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// LockState reports the object's effective lock state.
func (o *Object) LockState() LockState {
	if o.directLock {
		return FullyLocked
	}
	for p := o.parent; p != nil; p = p.parent {
		if p.directLock {
			return PartiallyLocked
		}
	}
	return Unlocked
}

// IsLocked reports whether the object is locked directly or through an ancestor.
func (o *Object) IsLocked() bool {
	return o.LockState() != Unlocked
}

// IsDirectlyLocked reports whether the object holds a direct lock.
func (o *Object) IsDirectlyLocked() bool {
	return o.directLock
}

// LockOwner returns the user ID owning the effective lock, or 0 when unlocked.
func (o *Object) LockOwner() uint32 {
	for p := o; p != nil; p = p.parent {
		if p.directLock {
			return p.lockOwner
		}
	}
	return 0
}

// IsCreated reports whether the session has confirmed the object's creation.
func (o *Object) IsCreated() bool { return o.created }

// IsDeleted reports whether the object was deleted from the session.
func (o *Object) IsDeleted() bool { return o.deleted }

// String identifies the object in logs.
func (o *Object) String() string {
	if o.id == "" {
		return o.objType + "(uncreated)"
	}
	return fmt.Sprintf("%s(%s)", o.objType, o.id)
}

// walk visits o and its descendants depth-first, parents before children.
func (o *Object) walk(fn func(*Object)) {
	fn(o)
	for _, c := range o.children {
		c.walk(fn)
	}
}
