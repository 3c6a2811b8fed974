package event

import "sync"

// Handle identifies a subscription. The zero Handle is never issued.
type Handle uint64

// Valid reports whether h refers to a subscription that was issued.
func (h Handle) Valid() bool {
	return h != 0
}

type subscriber[T any] struct {
	handle Handle
	fn     func(T)
}

// Event is a typed notification channel.
//
// Thread-safety: Subscribe, Unsubscribe and Fire may be called from any
// goroutine. Handlers run on the goroutine that called Fire.
type Event[T any] struct {
	mu   sync.Mutex
	next Handle
	subs []subscriber[T]
}

// New creates an Event with no subscribers.
func New[T any]() *Event[T] {
	return &Event[T]{}
}

// Subscribe registers fn and returns the handle that removes it.
func (e *Event[T]) Subscribe(fn func(T)) Handle {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.next++
	e.subs = append(e.subs, subscriber[T]{handle: e.next, fn: fn})
	return e.next
}

// Unsubscribe removes the handler registered under h.
// Returns false if h is not currently subscribed.
func (e *Event[T]) Unsubscribe(h Handle) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, s := range e.subs {
		if s.handle == h {
			e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Fire delivers payload to every subscribed handler in subscription order.
//
// The subscriber list is snapshotted before delivery, so handlers may
// subscribe or unsubscribe while the event is firing. A handler removed
// during delivery still receives the current payload if it was in the
// snapshot.
func (e *Event[T]) Fire(payload T) {
	e.mu.Lock()
	snapshot := make([]subscriber[T], len(e.subs))
	copy(snapshot, e.subs)
	e.mu.Unlock()

	for _, s := range snapshot {
		s.fn(payload)
	}
}

// Len returns the number of subscribed handlers.
func (e *Event[T]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}
