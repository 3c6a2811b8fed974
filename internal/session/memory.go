package session

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/scenesync/internal/ir"
)

var (
	// ErrNilObject is returned when an operation receives a nil object.
	ErrNilObject = errors.New("session: nil object")
	// ErrAlreadyCreated is returned by Create for objects the session already knows.
	ErrAlreadyCreated = errors.New("session: object already created")
	// ErrNotCreated is returned by remote operations on objects the session does not know.
	ErrNotCreated = errors.New("session: object not created")
	// ErrDeleted is returned for objects that were deleted.
	ErrDeleted = errors.New("session: object deleted")
	// ErrParentNotCreated is returned when creating a child of an uncreated parent.
	ErrParentNotCreated = errors.New("session: parent not created")
	// ErrRejected is returned when the session refuses to create an object type.
	ErrRejected = errors.New("session: creation rejected")
)

// MemoryOption configures a Memory session.
type MemoryOption func(*Memory)

// WithScheduler routes event deliveries through s instead of firing inline.
func WithScheduler(s Scheduler) MemoryOption {
	return func(m *Memory) {
		m.scheduler = s
	}
}

// WithIDGenerator sets the object ID generator. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) MemoryOption {
	return func(m *Memory) {
		m.ids = g
	}
}

// WithLogger sets the session's logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) MemoryOption {
	return func(m *Memory) {
		m.logger = logger
	}
}

// WithRejectedTypes makes Create fail with ErrRejected for the given types.
func WithRejectedTypes(types ...string) MemoryOption {
	return func(m *Memory) {
		for _, t := range types {
			m.rejected[t] = true
		}
	}
}

// Memory is an in-process Session.
//
// Not safe for concurrent use: all calls, and all deliveries, belong on the
// processing goroutine.
type Memory struct {
	channels  *Channels
	scheduler Scheduler
	ids       IDGenerator
	rejected  map[string]bool
	logger    *slog.Logger

	objects map[ObjectID]*Object
	roots   []*Object

	sent     []Op
	requests int
}

// NewMemory creates an empty in-memory session.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		channels: NewChannels(),
		ids:      UUIDv7Generator{},
		rejected: make(map[string]bool),
		objects:  make(map[ObjectID]*Object),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Channels implements Session.
func (m *Memory) Channels() *Channels {
	return m.channels
}

// Create implements Session. It creates obj and every uncreated descendant,
// then delivers one create event per object, parents first.
func (m *Memory) Create(obj *Object) error {
	if obj == nil {
		return ErrNilObject
	}
	if obj.deleted {
		return fmt.Errorf("%w: %s", ErrDeleted, obj)
	}
	if obj.created {
		return fmt.Errorf("%w: %s", ErrAlreadyCreated, obj)
	}
	if m.rejected[obj.objType] {
		return fmt.Errorf("%w: type %q", ErrRejected, obj.objType)
	}
	if obj.parent != nil && !obj.parent.created {
		return fmt.Errorf("%w: %s", ErrParentNotCreated, obj.parent)
	}

	m.requests++
	if obj.parent == nil {
		m.roots = append(m.roots, obj)
	}
	created := m.register(obj)
	m.sent = append(m.sent, Op{Kind: OpCreate, Object: obj.id, Type: obj.objType})
	m.deliverCreates(created)
	return nil
}

// CreateRequests returns how many Create calls were accepted.
func (m *Memory) CreateRequests() int {
	return m.requests
}

// Get returns the created object with the given ID, or nil.
func (m *Memory) Get(id ObjectID) *Object {
	return m.objects[id]
}

// Len returns the number of live objects.
func (m *Memory) Len() int {
	return len(m.objects)
}

// Roots returns a copy of the root object list.
func (m *Memory) Roots() []*Object {
	return slices.Clone(m.roots)
}

// Sent returns a copy of the local mutations sent so far.
func (m *Memory) Sent() []Op {
	return slices.Clone(m.sent)
}

func (m *Memory) send(op Op) {
	m.sent = append(m.sent, op)
}

// register assigns IDs to obj's uncreated subtree and returns the newly
// created objects in parent-before-child order.
func (m *Memory) register(obj *Object) []*Object {
	var created []*Object
	obj.walk(func(o *Object) {
		if o.created {
			return
		}
		o.id = ObjectID(m.ids.Generate())
		o.created = true
		o.out = m
		o.props.attach(o, nil, "")
		m.objects[o.id] = o
		created = append(created, o)
	})
	return created
}

func (m *Memory) childIndex(o *Object) int {
	if o.parent != nil {
		return o.ChildIndex()
	}
	return slices.Index(m.roots, o)
}

func (m *Memory) deliverCreates(created []*Object) {
	for _, o := range created {
		ev := CreateEvent{Object: o, ChildIndex: m.childIndex(o)}
		m.deliver("create", func() { m.channels.Create.Fire(ev) })
	}
}

// deliver fires an event now, or posts it to the scheduler when one is set.
func (m *Memory) deliver(kind string, fire func()) {
	if m.scheduler == nil {
		fire()
		return
	}
	ok := m.scheduler.Post(kind, func() error {
		fire()
		return nil
	})
	if !ok {
		m.logger.Debug("session event dropped: scheduler stopped", "event", kind)
	}
}

func (m *Memory) requireLive(obj *Object) error {
	switch {
	case obj == nil:
		return ErrNilObject
	case obj.deleted:
		return fmt.Errorf("%w: %s", ErrDeleted, obj)
	case !obj.created:
		return fmt.Errorf("%w: %s", ErrNotCreated, obj)
	}
	return nil
}

// RemoteCreate simulates another collaborator creating obj under parent
// (nil for a root) at index. Out-of-range indexes append.
func (m *Memory) RemoteCreate(obj, parent *Object, index int) error {
	if obj == nil {
		return ErrNilObject
	}
	if obj.created {
		return fmt.Errorf("%w: %s", ErrAlreadyCreated, obj)
	}
	if parent != nil {
		if err := m.requireLive(parent); err != nil {
			return fmt.Errorf("parent: %w", err)
		}
	}

	m.attach(obj, parent, index)
	m.deliverCreates(m.register(obj))
	return nil
}

func (m *Memory) attach(obj, parent *Object, index int) {
	if parent != nil {
		parent.insertChild(obj, index)
		return
	}
	if index < 0 || index > len(m.roots) {
		index = len(m.roots)
	}
	m.roots = slices.Insert(m.roots, index, obj)
}

func (m *Memory) detach(obj *Object) {
	if obj.parent != nil {
		obj.parent.removeChild(obj)
		return
	}
	if i := slices.Index(m.roots, obj); i >= 0 {
		m.roots = slices.Delete(m.roots, i, i+1)
	}
}

// RemoteDelete simulates another collaborator deleting obj and its subtree.
// One delete event is delivered, for obj itself.
func (m *Memory) RemoteDelete(obj *Object) error {
	if err := m.requireLive(obj); err != nil {
		return err
	}
	obj.walk(func(o *Object) {
		o.deleted = true
		delete(m.objects, o.id)
	})
	m.detach(obj)
	m.deliver("delete", func() { m.channels.Delete.Fire(obj) })
	return nil
}

// RemoteSetParent simulates a reparent. parent nil moves obj to the roots.
func (m *Memory) RemoteSetParent(obj, parent *Object, index int) error {
	if err := m.requireLive(obj); err != nil {
		return err
	}
	if parent != nil {
		if err := m.requireLive(parent); err != nil {
			return fmt.Errorf("parent: %w", err)
		}
		for p := parent; p != nil; p = p.parent {
			if p == obj {
				return fmt.Errorf("session: cannot parent %s under its own descendant", obj)
			}
		}
	}

	before := lockSnapshot(obj)
	m.detach(obj)
	m.attach(obj, parent, index)
	ev := ParentChangeEvent{Object: obj, ChildIndex: m.childIndex(obj)}
	m.deliver("parent_change", func() { m.channels.ParentChange.Fire(ev) })
	m.deliverLockDiff(obj, before)
	return nil
}

type lockInfo struct {
	locked bool
	owner  uint32
}

func lockSnapshot(obj *Object) map[*Object]lockInfo {
	snap := make(map[*Object]lockInfo)
	obj.walk(func(o *Object) {
		snap[o] = lockInfo{locked: o.IsLocked(), owner: o.LockOwner()}
	})
	return snap
}

// deliverLockDiff fires lock, unlock and lock-owner-change events for every
// object in obj's subtree whose effective lock changed since before.
func (m *Memory) deliverLockDiff(obj *Object, before map[*Object]lockInfo) {
	obj.walk(func(o *Object) {
		was := before[o]
		locked, owner := o.IsLocked(), o.LockOwner()
		switch {
		case !was.locked && locked:
			m.deliver("lock", func() { m.channels.Lock.Fire(o) })
		case was.locked && !locked:
			m.deliver("unlock", func() { m.channels.Unlock.Fire(o) })
		case locked && was.owner != owner:
			m.deliver("lock_owner_change", func() { m.channels.LockOwnerChange.Fire(o) })
		}
	})
}

// RemoteLock simulates user owner taking a direct lock on obj.
func (m *Memory) RemoteLock(obj *Object, owner uint32) error {
	if err := m.requireLive(obj); err != nil {
		return err
	}
	before := lockSnapshot(obj)
	wasDirect := obj.directLock
	obj.directLock = true
	obj.lockOwner = owner
	if !wasDirect {
		m.deliver("direct_lock_change", func() { m.channels.DirectLockChange.Fire(obj) })
	}
	m.deliverLockDiff(obj, before)
	return nil
}

// RemoteUnlock simulates the release of obj's direct lock.
func (m *Memory) RemoteUnlock(obj *Object) error {
	if err := m.requireLive(obj); err != nil {
		return err
	}
	if !obj.directLock {
		return nil
	}
	before := lockSnapshot(obj)
	obj.directLock = false
	obj.lockOwner = 0
	m.deliver("direct_lock_change", func() { m.channels.DirectLockChange.Fire(obj) })
	m.deliverLockDiff(obj, before)
	return nil
}

func (m *Memory) requireLiveProperty(p Property) error {
	if p == nil {
		return errors.New("session: nil property")
	}
	return m.requireLive(p.Owner())
}

// RemoteSetValue simulates a remote value change.
func (m *Memory) RemoteSetValue(prop *ValueProperty, v ir.Value) error {
	if err := m.requireLiveProperty(prop); err != nil {
		return err
	}
	if v == nil {
		v = ir.Null{}
	}
	prop.value = v
	m.deliver("property_change", func() { m.channels.PropertyChange.Fire(prop) })
	return nil
}

// RemoteSetField simulates a remote collaborator adding or replacing a field.
func (m *Memory) RemoteSetField(dict *DictionaryProperty, name string, prop Property) error {
	if err := m.requireLiveProperty(dict); err != nil {
		return err
	}
	if old, ok := dict.fields[name]; ok {
		old.attach(nil, nil, "")
	}
	dict.fields[name] = prop
	prop.attach(dict.owner, dict, name)
	m.deliver("property_change", func() { m.channels.PropertyChange.Fire(prop) })
	return nil
}

// RemoteRemoveField simulates a remote field removal.
func (m *Memory) RemoteRemoveField(dict *DictionaryProperty, name string) error {
	if err := m.requireLiveProperty(dict); err != nil {
		return err
	}
	if !dict.remove(name) {
		return fmt.Errorf("session: no field %q at %q", name, dict.Path())
	}
	ev := RemoveFieldEvent{Dictionary: dict, Name: name}
	m.deliver("remove_field", func() { m.channels.RemoveField.Fire(ev) })
	return nil
}

// RemoteListInsert simulates remote elements inserted into a list.
func (m *Memory) RemoteListInsert(list *ListProperty, index int, props ...Property) error {
	if err := m.requireLiveProperty(list); err != nil {
		return err
	}
	if len(props) == 0 {
		return nil
	}
	at := list.insert(index, props)
	ev := ListEvent{List: list, Index: at, Count: len(props)}
	m.deliver("list_add", func() { m.channels.ListAdd.Fire(ev) })
	return nil
}

// RemoteListRemove simulates remote elements removed from a list.
func (m *Memory) RemoteListRemove(list *ListProperty, index, count int) error {
	if err := m.requireLiveProperty(list); err != nil {
		return err
	}
	n := list.removeRange(index, count)
	if n == 0 {
		return fmt.Errorf("session: nothing to remove at %q[%d]", list.Path(), index)
	}
	ev := ListEvent{List: list, Index: index, Count: n}
	m.deliver("list_remove", func() { m.channels.ListRemove.Fire(ev) })
	return nil
}
