package dispatch

import (
	"github.com/roach88/scenesync/internal/ir"
	"github.com/roach88/scenesync/internal/native"
	"github.com/roach88/scenesync/internal/session"
	"github.com/roach88/scenesync/internal/translator"
)

// route journals the event and invokes call on obj's translator.
// Objects whose type has no translator are journaled and skipped.
func (d *Dispatcher) route(kind string, obj *session.Object, detail ir.Object, call func(translator.Translator)) {
	t := d.registry.GetFor(obj)
	if t == nil {
		d.journal(objectRecord(kind, obj, OutcomeNoTranslator, nil, detail))
		return
	}
	d.journal(objectRecord(kind, obj, OutcomeDispatched, t, detail))
	call(t)
}

// OnCreate routes a creation confirmation.
func (d *Dispatcher) OnCreate(obj *session.Object, childIndex int) {
	d.route(KindCreate, obj, ir.Object{"child_index": ir.Int(childIndex)}, func(t translator.Translator) {
		t.OnCreate(obj, childIndex)
	})
}

// OnDelete routes a deletion.
func (d *Dispatcher) OnDelete(obj *session.Object) {
	d.route(KindDelete, obj, nil, func(t translator.Translator) {
		t.OnDelete(obj)
	})
}

// OnLock routes a lock.
func (d *Dispatcher) OnLock(obj *session.Object) {
	d.route(KindLock, obj, lockDetail(obj), func(t translator.Translator) {
		t.OnLock(obj)
	})
}

// OnUnlock routes an unlock.
func (d *Dispatcher) OnUnlock(obj *session.Object) {
	d.route(KindUnlock, obj, nil, func(t translator.Translator) {
		t.OnUnlock(obj)
	})
}

// OnLockOwnerChange routes a lock owner change.
func (d *Dispatcher) OnLockOwnerChange(obj *session.Object) {
	d.route(KindLockOwnerChange, obj, lockDetail(obj), func(t translator.Translator) {
		t.OnLockOwnerChange(obj)
	})
}

// OnDirectLockChange routes a change of direct lock status.
func (d *Dispatcher) OnDirectLockChange(obj *session.Object) {
	d.route(KindDirectLockChange, obj, lockDetail(obj), func(t translator.Translator) {
		t.OnDirectLockChange(obj)
	})
}

// OnParentChange routes a reparent.
func (d *Dispatcher) OnParentChange(obj *session.Object, childIndex int) {
	d.route(KindParentChange, obj, ir.Object{"child_index": ir.Int(childIndex)}, func(t translator.Translator) {
		t.OnParentChange(obj, childIndex)
	})
}

// OnPropertyChange routes a property change to the translator of the
// property's owner.
func (d *Dispatcher) OnPropertyChange(prop session.Property) {
	if prop == nil {
		return
	}
	d.route(KindPropertyChange, prop.Owner(), ir.Object{"path": ir.String(prop.Path())}, func(t translator.Translator) {
		t.OnPropertyChange(prop)
	})
}

// OnRemoveField routes a dictionary field removal.
func (d *Dispatcher) OnRemoveField(dict *session.DictionaryProperty, name string) {
	if dict == nil {
		return
	}
	detail := ir.Object{"path": ir.String(dict.Path()), "field": ir.String(name)}
	d.route(KindRemoveField, dict.Owner(), detail, func(t translator.Translator) {
		t.OnRemoveField(dict, name)
	})
}

// OnListAdd routes a list insertion.
func (d *Dispatcher) OnListAdd(list *session.ListProperty, index, count int) {
	if list == nil {
		return
	}
	d.route(KindListAdd, list.Owner(), listDetail(list, index, count), func(t translator.Translator) {
		t.OnListAdd(list, index, count)
	})
}

// OnListRemove routes a list removal.
func (d *Dispatcher) OnListRemove(list *session.ListProperty, index, count int) {
	if list == nil {
		return
	}
	d.route(KindListRemove, list.Owner(), listDetail(list, index, count), func(t translator.Translator) {
		t.OnListRemove(list, index, count)
	})
}

// OnUPropertyChange routes a native pre-change notification and returns
// whether the translator handled it. False when obj is nil or its type has
// no translator.
func (d *Dispatcher) OnUPropertyChange(obj *session.Object, n native.Object, prop native.Property) bool {
	detail := nativeDetail(n, prop)
	if obj == nil {
		d.journal(Record{Kind: KindNativeChange, Outcome: OutcomeNoTranslator, Detail: detail})
		return false
	}
	handled := false
	d.route(KindNativeChange, obj, detail, func(t translator.Translator) {
		handled = t.OnUPropertyChange(obj, n, prop)
	})
	return handled
}

// PostPropertyChange routes a native post-change notification to the
// translator of n's synchronized counterpart. Unsynchronized natives are
// ignored.
func (d *Dispatcher) PostPropertyChange(n native.Object, prop native.Property) {
	obj := d.resolve(n)
	detail := nativeDetail(n, prop)
	if obj == nil {
		d.journal(Record{Kind: KindNativePostChange, Outcome: OutcomeNoTranslator, Detail: detail})
		return
	}
	d.route(KindNativePostChange, obj, detail, func(t translator.Translator) {
		t.PostPropertyChange(n, prop)
	})
}

// OnUndoRedo routes an undo or redo touching n. When obj is nil the call
// goes to every distinct translator, each of which decides whether n is
// relevant to it.
func (d *Dispatcher) OnUndoRedo(obj *session.Object, n native.Object) {
	detail := nativeDetail(n, nil)
	if obj != nil {
		d.route(KindUndoRedo, obj, detail, func(t translator.Translator) {
			t.OnUndoRedo(obj, n)
		})
		return
	}

	translators := d.registry.Translators()
	detail["translators"] = ir.Int(len(translators))
	d.journal(Record{Kind: KindUndoRedo, Outcome: OutcomeBroadcast, Detail: detail})
	for _, t := range translators {
		t.OnUndoRedo(nil, n)
	}
}

// Create asks each distinct translator, in registration order, to build a
// session object for n and returns the first result. Returns nil when no
// translator claims n. The object is not queued or sent.
func (d *Dispatcher) Create(n native.Object) *session.Object {
	if n == nil {
		return nil
	}
	detail := nativeDetail(n, nil)
	for _, t := range d.registry.Translators() {
		obj := t.Create(n)
		if obj == nil {
			continue
		}
		d.journal(objectRecord(KindNativeCreate, obj, OutcomeDispatched, t, detail))
		return obj
	}
	d.journal(Record{Kind: KindNativeCreate, Outcome: OutcomeNoTranslator, Detail: detail})
	return nil
}

func lockDetail(obj *session.Object) ir.Object {
	if obj == nil {
		return nil
	}
	return ir.Object{
		"lock_state": ir.String(obj.LockState().String()),
		"lock_owner": ir.Int(obj.LockOwner()),
	}
}

func listDetail(list *session.ListProperty, index, count int) ir.Object {
	return ir.Object{
		"path":  ir.String(list.Path()),
		"index": ir.Int(index),
		"count": ir.Int(count),
	}
}

func nativeDetail(n native.Object, prop native.Property) ir.Object {
	detail := ir.Object{}
	if n != nil {
		detail["native"] = ir.String(n.Name())
		detail["class"] = ir.String(n.Class())
	}
	if prop != nil {
		detail["property"] = ir.String(prop.Name())
	}
	return detail
}
