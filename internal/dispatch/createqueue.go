package dispatch

import (
	"errors"

	"github.com/roach88/scenesync/internal/ir"
	"github.com/roach88/scenesync/internal/session"
)

// IsCreateQueued reports whether obj is waiting in the creation queue.
func (d *Dispatcher) IsCreateQueued(obj *session.Object) bool {
	_, ok := d.queued[obj]
	return ok
}

// QueueCreate appends obj to the creation queue. Returns false, changing
// nothing, when obj is nil or already queued.
func (d *Dispatcher) QueueCreate(obj *session.Object) bool {
	if obj == nil {
		return false
	}
	if _, ok := d.queued[obj]; ok {
		return false
	}
	d.queue = append(d.queue, obj)
	d.queued[obj] = struct{}{}
	return true
}

// QueueLen returns the number of queued objects.
func (d *Dispatcher) QueueLen() int {
	return len(d.queue)
}

// ProcessCreateQueue drains the creation queue in FIFO order, issuing one
// session Create request per entry, and returns how many were issued.
//
// Entries the session already created, typically children created along
// with a queued ancestor, are skipped without a request. Entries whose type
// has no translator, and entries the session refuses, are dropped. Their errors are joined and returned once the queue is
// empty. Objects queued while draining are processed in the same call.
func (d *Dispatcher) ProcessCreateQueue() (int, error) {
	var (
		requested int
		errs      []error
	)
	for len(d.queue) > 0 {
		obj := d.queue[0]
		d.queue[0] = nil
		d.queue = d.queue[1:]
		delete(d.queued, obj)

		if obj.IsCreated() {
			d.journal(objectRecord(KindCreateRequest, obj, OutcomeSkipped, d.registry.GetFor(obj), ir.Object{"reason": ir.String("already_created")}))
			d.logger.Debug("queued creation skipped", "object_id", obj.ID(), "object_type", obj.Type())
			continue
		}

		t := d.registry.GetFor(obj)
		if t == nil {
			err := &DispatchError{
				Code:       ErrCodeNoTranslator,
				Message:    "no translator for queued object",
				ObjectType: obj.Type(),
			}
			d.journal(objectRecord(KindCreateRequest, obj, OutcomeDropped, nil, ir.Object{"code": ir.String(err.Code)}))
			d.logger.Warn("queued creation dropped",
				"object_type", obj.Type(),
				"error", err,
			)
			errs = append(errs, err)
			continue
		}

		if err := d.session.Create(obj); err != nil {
			derr := &DispatchError{
				Code:       ErrCodeCreateFailed,
				Message:    "session refused creation",
				ObjectID:   string(obj.ID()),
				ObjectType: obj.Type(),
				Err:        err,
			}
			d.journal(objectRecord(KindCreateRequest, obj, OutcomeDropped, t, ir.Object{"code": ir.String(derr.Code)}))
			d.logger.Warn("queued creation dropped",
				"object_type", obj.Type(),
				"error", derr,
			)
			errs = append(errs, derr)
			continue
		}

		requested++
		d.journal(objectRecord(KindCreateRequest, obj, OutcomeRequested, t, nil))
	}
	if len(d.queue) == 0 {
		d.queue = nil
	}
	return requested, errors.Join(errs...)
}
