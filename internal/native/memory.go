package native

import (
	"fmt"
	"slices"

	"github.com/roach88/scenesync/internal/event"
	"github.com/roach88/scenesync/internal/ir"
)

// Node is a native object in the in-memory host.
type Node struct {
	name   string
	class  string
	values map[string]ir.Value
}

func (n *Node) Name() string  { return n.name }
func (n *Node) Class() string { return n.class }

// Get returns the value of prop, or nil when unset.
func (n *Node) Get(prop string) ir.Value {
	return n.values[prop]
}

// Props returns the set property names, sorted.
func (n *Node) Props() []string {
	names := make([]string, 0, len(n.values))
	for k := range n.values {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// String identifies the node in logs.
func (n *Node) String() string {
	return fmt.Sprintf("%s:%s", n.class, n.name)
}

type field string

func (f field) Name() string { return string(f) }

// Field returns the Property handle for a named node property.
func Field(name string) Property {
	return field(name)
}

type edit struct {
	node *Node
	prop string
	old  ir.Value
	new  ir.Value
}

// Memory is an in-process Host holding Nodes.
//
// Every value change, user edit or programmatic write, fires PreChange and
// PostChange modifications, as a real editor does. Only user edits enter the
// undo history.
type Memory struct {
	modified *event.Event[*Modification]
	undoRedo *event.Event[Transaction]

	nodes     map[string]*Node
	undo      []edit
	redo      []edit
	unhandled []Modification
}

// NewMemory creates an empty host.
func NewMemory() *Memory {
	return &Memory{
		modified: event.New[*Modification](),
		undoRedo: event.New[Transaction](),
		nodes:    make(map[string]*Node),
	}
}

// OnObjectModified implements Host.
func (m *Memory) OnObjectModified() *event.Event[*Modification] { return m.modified }

// OnUndoRedo implements Host.
func (m *Memory) OnUndoRedo() *event.Event[Transaction] { return m.undoRedo }

// Spawn creates a node. Spawning an existing name returns the existing node.
func (m *Memory) Spawn(name, class string) *Node {
	if n, ok := m.nodes[name]; ok {
		return n
	}
	n := &Node{name: name, class: class, values: make(map[string]ir.Value)}
	m.nodes[name] = n
	return n
}

// Find returns the node named name, or nil.
func (m *Memory) Find(name string) *Node {
	return m.nodes[name]
}

// Destroy removes a node. Its undo history entries are discarded.
func (m *Memory) Destroy(n *Node) {
	delete(m.nodes, n.name)
	drop := func(e edit) bool { return e.node == n }
	m.undo = slices.DeleteFunc(m.undo, drop)
	m.redo = slices.DeleteFunc(m.redo, drop)
}

// Edit applies a user edit: notifications fire and the edit becomes undoable.
// Returns whether a listener accepted the change for synchronization.
func (m *Memory) Edit(n *Node, prop string, v ir.Value) bool {
	old := n.values[prop]
	handled := m.apply(n, prop, v)
	m.undo = append(m.undo, edit{node: n, prop: prop, old: old, new: v})
	m.redo = nil
	return handled
}

// Write applies a programmatic change. Notifications fire, but nothing is
// added to the undo history.
func (m *Memory) Write(n *Node, prop string, v ir.Value) bool {
	return m.apply(n, prop, v)
}

func (m *Memory) apply(n *Node, prop string, v ir.Value) bool {
	pre := &Modification{Object: n, Property: Field(prop), Phase: PreChange}
	m.modified.Fire(pre)
	if !pre.Handled {
		m.unhandled = append(m.unhandled, *pre)
	}
	set(n, prop, v)
	m.modified.Fire(&Modification{Object: n, Property: Field(prop), Phase: PostChange})
	return pre.Handled
}

func set(n *Node, prop string, v ir.Value) {
	if v == nil {
		delete(n.values, prop)
		return
	}
	n.values[prop] = v
}

// Undo reverts the most recent user edit and fires an undo transaction.
// Returns false when there is nothing to undo.
func (m *Memory) Undo() bool {
	if len(m.undo) == 0 {
		return false
	}
	e := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	set(e.node, e.prop, e.old)
	m.redo = append(m.redo, e)
	m.undoRedo.Fire(Transaction{Kind: Undo, Title: "Edit " + e.prop, Objects: []Object{e.node}})
	return true
}

// Redo reapplies the most recently undone edit and fires a redo transaction.
func (m *Memory) Redo() bool {
	if len(m.redo) == 0 {
		return false
	}
	e := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	set(e.node, e.prop, e.new)
	m.undo = append(m.undo, e)
	m.undoRedo.Fire(Transaction{Kind: Redo, Title: "Edit " + e.prop, Objects: []Object{e.node}})
	return true
}

// Replay fires a transaction touching several objects at once without
// changing any values. Used to model multi-object host transactions.
func (m *Memory) Replay(kind TransactionKind, title string, objects ...Object) {
	m.undoRedo.Fire(Transaction{Kind: kind, Title: title, Objects: objects})
}

// Unhandled returns the PreChange notifications no listener accepted.
func (m *Memory) Unhandled() []Modification {
	return slices.Clone(m.unhandled)
}
