package dispatch

import (
	"github.com/roach88/scenesync/internal/native"
)

// Suppress runs fn with native change listening disabled and restores the
// previous state when fn returns or panics. Windows nest.
func (d *Dispatcher) Suppress(fn func() error) error {
	end := d.BeginSuppress()
	defer end()
	return fn()
}

// BeginSuppress opens a suppression window and returns the function that
// closes it. Calling the returned function more than once has no effect.
func (d *Dispatcher) BeginSuppress() (end func()) {
	d.suppressed++
	closed := false
	return func() {
		if closed {
			return
		}
		closed = true
		d.suppressed--
	}
}

// Suppressed reports whether a suppression window is open.
func (d *Dispatcher) Suppressed() bool {
	return d.suppressed > 0
}

// Listening reports whether native change notifications currently reach
// translators.
func (d *Dispatcher) Listening() bool {
	return d.modifyHandle.Valid() && d.suppressed == 0
}

// handleModification is the host object-modified subscriber.
func (d *Dispatcher) handleModification(m *native.Modification) {
	if d.suppressed > 0 {
		kind := KindNativeChange
		if m.Phase == native.PostChange {
			kind = KindNativePostChange
		}
		d.journal(Record{Kind: kind, Outcome: OutcomeSuppressed, Detail: nativeDetail(m.Object, m.Property)})
		return
	}

	switch m.Phase {
	case native.PreChange:
		if d.OnUPropertyChange(d.resolve(m.Object), m.Object, m.Property) {
			m.Handled = true
		}
	case native.PostChange:
		d.PostPropertyChange(m.Object, m.Property)
	}
}
