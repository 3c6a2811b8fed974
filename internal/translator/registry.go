package translator

import (
	"log/slog"
	"slices"

	"github.com/roach88/scenesync/internal/session"
)

// Registry maps type identifiers to translators.
//
// It keeps a keyed map for lookup and a separate identity set for
// broadcasts, so a translator bound under several types is visited once.
//
// INVARIANTS:
//   - a translator enters order the first time it is registered
//   - order only grows; unbinding or replacing a type leaves it untouched
type Registry struct {
	byType map[string]Translator
	order  []Translator
	seen   map[Translator]struct{}
	logger *slog.Logger
}

// NewRegistry creates an empty registry. A nil logger means slog.Default().
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		byType: make(map[string]Translator),
		seen:   make(map[Translator]struct{}),
		logger: logger,
	}
}

// Register binds objectType to t.
//
// Re-binding a bound type replaces the previous translator (last write wins)
// and logs a warning: two translators claiming one type is usually a
// configuration mistake. A nil t removes the binding. Either way the
// previous translator stays in the broadcast set.
func (r *Registry) Register(objectType string, t Translator) {
	prev, bound := r.byType[objectType]
	if bound && prev == t {
		return
	}
	if t == nil {
		delete(r.byType, objectType)
		return
	}
	if bound {
		r.logger.Warn("translator binding replaced",
			"object_type", objectType,
			"previous", NameOf(prev),
			"translator", NameOf(t),
		)
	}

	r.byType[objectType] = t
	if _, ok := r.seen[t]; !ok {
		r.seen[t] = struct{}{}
		r.order = append(r.order, t)
	}
}

// Get returns the translator bound to objectType, or nil.
// Absence is normal: it means the type is not synchronized.
func (r *Registry) Get(objectType string) Translator {
	return r.byType[objectType]
}

// GetFor returns the translator for obj's type, or nil for nil objects and
// unbound types.
func (r *Registry) GetFor(obj *session.Object) Translator {
	if obj == nil {
		return nil
	}
	return r.byType[obj.Type()]
}

// Translators returns every distinct translator ever registered, in
// first-registration order, including ones that no longer own a type.
func (r *Registry) Translators() []Translator {
	return slices.Clone(r.order)
}

// Types returns every bound type identifier, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.byType))
	for t := range r.byType {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// TypesOf returns the type identifiers bound to t, sorted.
func (r *Registry) TypesOf(t Translator) []string {
	var types []string
	for objectType, bound := range r.byType {
		if bound == t {
			types = append(types, objectType)
		}
	}
	slices.Sort(types)
	return types
}

// Len returns the number of bindings.
func (r *Registry) Len() int {
	return len(r.byType)
}
