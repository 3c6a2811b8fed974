package dispatch

import (
	"github.com/roach88/scenesync/internal/event"
	"github.com/roach88/scenesync/internal/native"
	"github.com/roach88/scenesync/internal/session"
)

// on subscribes fn to ev and remembers how to undo it.
func on[T any](d *Dispatcher, ev *event.Event[T], fn func(T)) {
	h := ev.Subscribe(fn)
	d.unsubscribe = append(d.unsubscribe, func() { ev.Unsubscribe(h) })
}

// subscribe attaches to the eleven session channels and the host's undo/redo
// channel.
func (d *Dispatcher) subscribe() {
	ch := d.session.Channels()

	on(d, ch.Create, func(ev session.CreateEvent) {
		d.fromSession(func() { d.OnCreate(ev.Object, ev.ChildIndex) })
	})
	on(d, ch.Delete, func(obj *session.Object) {
		d.fromSession(func() { d.OnDelete(obj) })
	})
	on(d, ch.Lock, func(obj *session.Object) {
		d.fromSession(func() { d.OnLock(obj) })
	})
	on(d, ch.Unlock, func(obj *session.Object) {
		d.fromSession(func() { d.OnUnlock(obj) })
	})
	on(d, ch.LockOwnerChange, func(obj *session.Object) {
		d.fromSession(func() { d.OnLockOwnerChange(obj) })
	})
	on(d, ch.DirectLockChange, func(obj *session.Object) {
		d.fromSession(func() { d.OnDirectLockChange(obj) })
	})
	on(d, ch.ParentChange, func(ev session.ParentChangeEvent) {
		d.fromSession(func() { d.OnParentChange(ev.Object, ev.ChildIndex) })
	})
	on(d, ch.PropertyChange, func(prop session.Property) {
		d.fromSession(func() { d.OnPropertyChange(prop) })
	})
	on(d, ch.RemoveField, func(ev session.RemoveFieldEvent) {
		d.fromSession(func() { d.OnRemoveField(ev.Dictionary, ev.Name) })
	})
	on(d, ch.ListAdd, func(ev session.ListEvent) {
		d.fromSession(func() { d.OnListAdd(ev.List, ev.Index, ev.Count) })
	})
	on(d, ch.ListRemove, func(ev session.ListEvent) {
		d.fromSession(func() { d.OnListRemove(ev.List, ev.Index, ev.Count) })
	})

	if d.host != nil {
		d.undoHandle = d.host.OnUndoRedo().Subscribe(d.handleUndoRedo)
	}
}

func (d *Dispatcher) unsubscribeAll() {
	for _, undo := range d.unsubscribe {
		undo()
	}
	d.unsubscribe = nil

	if d.host != nil && d.undoHandle.Valid() {
		d.host.OnUndoRedo().Unsubscribe(d.undoHandle)
	}
	d.undoHandle = 0
}

// fromSession runs a session event handler, inside a suppression window
// when session write suppression is enabled.
func (d *Dispatcher) fromSession(fn func()) {
	if d.suppressSession {
		end := d.BeginSuppress()
		defer end()
	}
	fn()
}

// EnableOnUObjectModified subscribes to the host's object-modified channel.
// Calling it while already enabled, or before Initialize, does nothing.
func (d *Dispatcher) EnableOnUObjectModified() {
	if !d.active || d.host == nil || d.modifyHandle.Valid() {
		return
	}
	d.modifyHandle = d.host.OnObjectModified().Subscribe(d.handleModification)
}

// DisableOnUObjectModified removes the object-modified subscription.
// Calling it while disabled does nothing.
func (d *Dispatcher) DisableOnUObjectModified() {
	if d.host == nil || !d.modifyHandle.Valid() {
		return
	}
	d.host.OnObjectModified().Unsubscribe(d.modifyHandle)
	d.modifyHandle = 0
}

// ObjectModifiedEnabled reports whether the object-modified subscription exists.
func (d *Dispatcher) ObjectModifiedEnabled() bool {
	return d.modifyHandle.Valid()
}

func (d *Dispatcher) handleUndoRedo(tx native.Transaction) {
	for _, n := range tx.Objects {
		d.OnUndoRedo(d.resolve(n), n)
	}
}
