package native

import "github.com/roach88/scenesync/internal/session"

// Links is a bidirectional map between native objects and session objects.
// It is the dispatcher's Resolver. Not safe for concurrent use.
type Links struct {
	toSync   map[Object]*session.Object
	toNative map[*session.Object]Object
}

// NewLinks creates an empty map.
func NewLinks() *Links {
	return &Links{
		toSync:   make(map[Object]*session.Object),
		toNative: make(map[*session.Object]Object),
	}
}

// Link associates n with obj, replacing any previous association of either.
func (l *Links) Link(n Object, obj *session.Object) {
	if prev, ok := l.toSync[n]; ok {
		delete(l.toNative, prev)
	}
	if prev, ok := l.toNative[obj]; ok {
		delete(l.toSync, prev)
	}
	l.toSync[n] = obj
	l.toNative[obj] = n
}

// Unlink removes the association of n. Returns false if n was not linked.
func (l *Links) Unlink(n Object) bool {
	obj, ok := l.toSync[n]
	if !ok {
		return false
	}
	delete(l.toSync, n)
	delete(l.toNative, obj)
	return true
}

// UnlinkObject removes the association of obj.
func (l *Links) UnlinkObject(obj *session.Object) bool {
	n, ok := l.toNative[obj]
	if !ok {
		return false
	}
	return l.Unlink(n)
}

// SyncObject returns the session object linked to n, or nil.
func (l *Links) SyncObject(n Object) *session.Object {
	if n == nil {
		return nil
	}
	return l.toSync[n]
}

// Native returns the native object linked to obj, or nil.
func (l *Links) Native(obj *session.Object) Object {
	return l.toNative[obj]
}

// Len returns the number of links.
func (l *Links) Len() int {
	return len(l.toSync)
}
