package session

import (
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/scenesync/internal/ir"
)

// PropertyKind distinguishes the property variants.
type PropertyKind int

const (
	// KindValue is a scalar ValueProperty.
	KindValue PropertyKind = iota + 1
	// KindDictionary is a DictionaryProperty.
	KindDictionary
	// KindList is a ListProperty.
	KindList
)

// String returns the kind name.
func (k PropertyKind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindDictionary:
		return "dictionary"
	case KindList:
		return "list"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Property is a node in an object's property tree.
// Only *ValueProperty, *DictionaryProperty and *ListProperty implement it.
type Property interface {
	Kind() PropertyKind
	// Owner returns the object the tree belongs to, or nil for detached properties.
	Owner() *Object
	// Parent returns the containing dictionary or list, nil for the root.
	Parent() Property
	// Key returns the field name inside a dictionary, or the element index
	// inside a list.
	Key() string
	// Path returns the dotted path from the root, e.g. "transform.points[2]".
	Path() string

	attach(owner *Object, parent Property, key string)
}

type node struct {
	owner  *Object
	parent Property
	key    string
}

func (n *node) Owner() *Object   { return n.owner }
func (n *node) Parent() Property { return n.parent }

func (n *node) attach(owner *Object, parent Property, key string) {
	n.owner = owner
	n.parent = parent
	n.key = key
}

func (n *node) keyOf(self Property) string {
	if list, ok := n.parent.(*ListProperty); ok {
		return strconv.Itoa(list.indexOf(self))
	}
	return n.key
}

func pathOf(p Property) string {
	var segments []string
	for cur := p; cur != nil && cur.Parent() != nil; cur = cur.Parent() {
		if _, ok := cur.Parent().(*ListProperty); ok {
			segments = append(segments, "["+cur.Key()+"]")
		} else {
			segments = append(segments, "."+cur.Key())
		}
	}
	slices.Reverse(segments)
	return strings.TrimPrefix(strings.Join(segments, ""), ".")
}

// send reports a local mutation to the owning session, if the owner has been
// created. Mutations of objects still being built are not sent.
func send(p Property, op Op) {
	owner := p.Owner()
	if owner == nil || !owner.created || owner.out == nil {
		return
	}
	op.Object = owner.id
	op.Path = p.Path()
	owner.out.send(op)
}

// ValueProperty holds a single scalar value.
type ValueProperty struct {
	node
	value ir.Value
}

// NewValue creates a detached value property.
func NewValue(v ir.Value) *ValueProperty {
	if v == nil {
		v = ir.Null{}
	}
	return &ValueProperty{value: v}
}

func (p *ValueProperty) Kind() PropertyKind { return KindValue }
func (p *ValueProperty) Key() string        { return p.keyOf(p) }
func (p *ValueProperty) Path() string       { return pathOf(p) }

// Value returns the current value.
func (p *ValueProperty) Value() ir.Value { return p.value }

// Set changes the value locally and sends the change to the session.
// Setting an equal value is a no-op and sends nothing.
func (p *ValueProperty) Set(v ir.Value) {
	if v == nil {
		v = ir.Null{}
	}
	if ir.Equal(p.value, v) {
		return
	}
	p.value = v
	send(p, Op{Kind: OpSetValue, Value: v})
}

// DictionaryProperty maps field names to properties. Field order is not
// significant; Fields returns names sorted.
type DictionaryProperty struct {
	node
	fields map[string]Property
}

// NewDictionary creates an empty detached dictionary.
func NewDictionary() *DictionaryProperty {
	return &DictionaryProperty{fields: make(map[string]Property)}
}

func (d *DictionaryProperty) Kind() PropertyKind { return KindDictionary }
func (d *DictionaryProperty) Key() string        { return d.keyOf(d) }
func (d *DictionaryProperty) Path() string       { return pathOf(d) }

func (d *DictionaryProperty) attach(owner *Object, parent Property, key string) {
	d.node.attach(owner, parent, key)
	for name, f := range d.fields {
		f.attach(owner, d, name)
	}
}

// Get returns the field named name, or nil.
func (d *DictionaryProperty) Get(name string) Property {
	return d.fields[name]
}

// Fields returns the field names in sorted order.
func (d *DictionaryProperty) Fields() []string {
	names := make([]string, 0, len(d.fields))
	for name := range d.fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of fields.
func (d *DictionaryProperty) Len() int { return len(d.fields) }

// Set stores prop under name, replacing any previous field, and sends the
// change to the session. prop must be detached.
func (d *DictionaryProperty) Set(name string, prop Property) {
	if old, ok := d.fields[name]; ok {
		old.attach(nil, nil, "")
	}
	d.fields[name] = prop
	prop.attach(d.owner, d, name)
	send(prop, Op{Kind: OpSetField, Field: name})
}

// SetValue is shorthand for Set(name, NewValue(v)) when the field does not
// exist, and for updating the existing value property otherwise.
func (d *DictionaryProperty) SetValue(name string, v ir.Value) {
	if existing, ok := d.fields[name].(*ValueProperty); ok {
		existing.Set(v)
		return
	}
	d.Set(name, NewValue(v))
}

// Remove deletes the field named name and sends the removal.
// Returns false if there was no such field.
func (d *DictionaryProperty) Remove(name string) bool {
	old, ok := d.fields[name]
	if !ok {
		return false
	}
	delete(d.fields, name)
	send(d, Op{Kind: OpRemoveField, Field: name})
	old.attach(nil, nil, "")
	return true
}

// remove deletes a field without sending; used for remote mutations.
func (d *DictionaryProperty) remove(name string) bool {
	old, ok := d.fields[name]
	if !ok {
		return false
	}
	delete(d.fields, name)
	old.attach(nil, nil, "")
	return true
}

// ListProperty is an ordered sequence of properties.
type ListProperty struct {
	node
	elems []Property
}

// NewList creates a detached list holding elems.
func NewList(elems ...Property) *ListProperty {
	l := &ListProperty{}
	l.elems = append(l.elems, elems...)
	return l
}

func (l *ListProperty) Kind() PropertyKind { return KindList }
func (l *ListProperty) Key() string        { return l.keyOf(l) }
func (l *ListProperty) Path() string       { return pathOf(l) }

func (l *ListProperty) attach(owner *Object, parent Property, key string) {
	l.node.attach(owner, parent, key)
	for _, e := range l.elems {
		e.attach(owner, l, "")
	}
}

// Len returns the number of elements.
func (l *ListProperty) Len() int { return len(l.elems) }

// At returns the element at index, or nil when out of range.
func (l *ListProperty) At(index int) Property {
	if index < 0 || index >= len(l.elems) {
		return nil
	}
	return l.elems[index]
}

func (l *ListProperty) indexOf(p Property) int {
	for i, e := range l.elems {
		if e == p {
			return i
		}
	}
	return -1
}

// Insert adds props at index (clamped to the list bounds) and sends the change.
func (l *ListProperty) Insert(index int, props ...Property) {
	index = l.insert(index, props)
	send(l, Op{Kind: OpListInsert, Index: index, Count: len(props)})
}

// Append adds props at the end of the list.
func (l *ListProperty) Append(props ...Property) {
	l.Insert(len(l.elems), props...)
}

// RemoveRange deletes count elements starting at index and sends the change.
// Returns the number of elements removed.
func (l *ListProperty) RemoveRange(index, count int) int {
	n := l.removeRange(index, count)
	if n > 0 {
		send(l, Op{Kind: OpListRemove, Index: index, Count: n})
	}
	return n
}

func (l *ListProperty) insert(index int, props []Property) int {
	if index < 0 || index > len(l.elems) {
		index = len(l.elems)
	}
	l.elems = slices.Insert(l.elems, index, props...)
	for _, p := range props {
		p.attach(l.owner, l, "")
	}
	return index
}

func (l *ListProperty) removeRange(index, count int) int {
	if index < 0 || index >= len(l.elems) || count <= 0 {
		return 0
	}
	end := min(index+count, len(l.elems))
	for _, p := range l.elems[index:end] {
		p.attach(nil, nil, "")
	}
	l.elems = slices.Delete(l.elems, index, end)
	return end - index
}
