// Package event provides typed notification channels.
//
// An Event[T] is a list of handlers keyed by a Handle. Subscribing returns the
// handle; the same handle unsubscribes. Fire delivers the payload to every
// handler in subscription order on the calling goroutine.
//
// Both external collaborators of the dispatcher publish through this type: the
// session exposes one Event per object event kind, and the host exposes its
// object-modified and undo/redo notifications.
package event
