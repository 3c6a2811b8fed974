package translator

import (
	"log/slog"

	"github.com/roach88/scenesync/internal/ir"
	"github.com/roach88/scenesync/internal/native"
	"github.com/roach88/scenesync/internal/session"
)

// Mirror keeps native nodes and session objects in step.
//
// Each top-level field of a session object's property dictionary maps to
// the node property of the same name. Nested dictionaries and lists are
// mirrored as whole ir.Object and ir.Array values.
type Mirror struct {
	name    string
	host    *native.Memory
	links   *native.Links
	classes map[string]string // native class -> session type
	logger  *slog.Logger

	pending map[pendingKey]bool
	active  bool
}

type pendingKey struct {
	node string
	prop string
}

// NewMirror creates a Mirror writing to host and recording associations in
// links. classes maps native class names to the session type Create
// produces for them.
func NewMirror(name string, host *native.Memory, links *native.Links, classes map[string]string, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{
		name:    name,
		host:    host,
		links:   links,
		classes: classes,
		logger:  logger,
		pending: make(map[pendingKey]bool),
	}
}

// Name implements Named.
func (m *Mirror) Name() string { return m.name }

// Active reports whether Initialize has run without a matching CleanUp.
func (m *Mirror) Active() bool { return m.active }

func (m *Mirror) Initialize() {
	m.active = true
	m.logger.Debug("mirror initialized", "translator", m.name)
}

func (m *Mirror) CleanUp() {
	m.active = false
	clear(m.pending)
	m.logger.Debug("mirror cleaned up", "translator", m.name)
}

// Create builds a session object from a native node of a claimed class and
// links the two. The object is not yet known to the session.
func (m *Mirror) Create(n native.Object) *session.Object {
	objType, ok := m.classes[n.Class()]
	if !ok {
		return nil
	}
	node, ok := n.(*native.Node)
	if !ok {
		return nil
	}
	props := session.NewDictionary()
	for _, name := range node.Props() {
		props.SetValue(name, node.Get(name))
	}
	obj := session.NewObject(objType, props)
	m.links.Link(node, obj)
	return obj
}

// OnCreate spawns a node for an object created by another user. Objects
// created locally are already linked and left alone.
func (m *Mirror) OnCreate(obj *session.Object, childIndex int) {
	if m.links.Native(obj) != nil {
		return
	}
	node := m.host.Spawn(string(obj.ID()), obj.Type())
	m.links.Link(node, obj)
	dict := obj.Property()
	for _, name := range dict.Fields() {
		m.host.Write(node, name, valueOf(dict.Get(name)))
	}
	m.logger.Debug("mirrored remote object",
		"translator", m.name,
		"object_id", obj.ID(),
		"object_type", obj.Type(),
		"child_index", childIndex,
	)
}

func (m *Mirror) OnDelete(obj *session.Object) {
	node := m.node(obj)
	if node == nil {
		return
	}
	m.links.UnlinkObject(obj)
	m.host.Destroy(node)
}

func (m *Mirror) OnLock(*session.Object)              {}
func (m *Mirror) OnUnlock(*session.Object)            {}
func (m *Mirror) OnLockOwnerChange(*session.Object)   {}
func (m *Mirror) OnDirectLockChange(*session.Object)  {}
func (m *Mirror) OnParentChange(*session.Object, int) {}

func (m *Mirror) OnPropertyChange(prop session.Property) {
	m.sync(prop)
}

func (m *Mirror) OnRemoveField(dict *session.DictionaryProperty, name string) {
	if dict.Parent() == nil {
		if node := m.node(dict.Owner()); node != nil {
			m.host.Write(node, name, nil)
		}
		return
	}
	m.sync(dict)
}

func (m *Mirror) OnListAdd(list *session.ListProperty, _, _ int) {
	m.sync(list)
}

func (m *Mirror) OnListRemove(list *session.ListProperty, _, _ int) {
	m.sync(list)
}

// OnUPropertyChange accepts edits of unlocked objects. The new value is
// read in PostPropertyChange once the host has applied it.
func (m *Mirror) OnUPropertyChange(obj *session.Object, n native.Object, prop native.Property) bool {
	if obj.IsLocked() {
		m.logger.Debug("edit of locked object not synchronized",
			"translator", m.name,
			"object_id", obj.ID(),
			"lock_owner", obj.LockOwner(),
		)
		return false
	}
	m.pending[pendingKey{node: n.Name(), prop: prop.Name()}] = true
	return true
}

func (m *Mirror) PostPropertyChange(n native.Object, prop native.Property) {
	key := pendingKey{node: n.Name(), prop: prop.Name()}
	if !m.pending[key] {
		return
	}
	delete(m.pending, key)
	obj := m.links.SyncObject(n)
	node, ok := n.(*native.Node)
	if obj == nil || !ok {
		return
	}
	m.pull(obj, node, prop.Name())
}

// OnUndoRedo copies every node property back into the session object.
func (m *Mirror) OnUndoRedo(obj *session.Object, n native.Object) {
	node, ok := n.(*native.Node)
	if obj == nil || !ok {
		return
	}
	names := make(map[string]bool)
	for _, name := range node.Props() {
		names[name] = true
		m.pull(obj, node, name)
	}
	for _, name := range obj.Property().Fields() {
		if !names[name] {
			obj.Property().Remove(name)
		}
	}
}

func (m *Mirror) pull(obj *session.Object, node *native.Node, name string) {
	v := node.Get(name)
	if v == nil {
		obj.Property().Remove(name)
		return
	}
	obj.Property().SetValue(name, v)
}

func (m *Mirror) node(obj *session.Object) *native.Node {
	if obj == nil {
		return nil
	}
	node, _ := m.links.Native(obj).(*native.Node)
	return node
}

// sync writes the top-level field containing prop to the linked node.
func (m *Mirror) sync(prop session.Property) {
	node := m.node(prop.Owner())
	if node == nil {
		return
	}
	top := prop
	for top.Parent() != nil && top.Parent().Parent() != nil {
		top = top.Parent()
	}
	if top.Parent() == nil {
		dict := prop.Owner().Property()
		for _, name := range dict.Fields() {
			m.host.Write(node, name, valueOf(dict.Get(name)))
		}
		return
	}
	m.host.Write(node, top.Key(), valueOf(top))
}

// valueOf flattens a property tree into a single value.
func valueOf(p session.Property) ir.Value {
	switch p := p.(type) {
	case *session.ValueProperty:
		return p.Value()
	case *session.DictionaryProperty:
		obj := make(ir.Object, p.Len())
		for _, name := range p.Fields() {
			obj[name] = valueOf(p.Get(name))
		}
		return obj
	case *session.ListProperty:
		arr := make(ir.Array, 0, p.Len())
		for i := range p.Len() {
			arr = append(arr, valueOf(p.At(i)))
		}
		return arr
	default:
		return ir.Null{}
	}
}
