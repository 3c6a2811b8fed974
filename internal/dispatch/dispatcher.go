package dispatch

import (
	"context"
	"log/slog"

	"github.com/roach88/scenesync/internal/engine"
	"github.com/roach88/scenesync/internal/event"
	"github.com/roach88/scenesync/internal/ir"
	"github.com/roach88/scenesync/internal/native"
	"github.com/roach88/scenesync/internal/session"
	"github.com/roach88/scenesync/internal/translator"
)

// Resolver maps native objects to their synchronized counterparts.
// native.Links implements it.
type Resolver interface {
	SyncObject(n native.Object) *session.Object
}

// Dispatcher routes events to translators.
//
// Thread-safety model: none. Every method, and every session or host
// delivery, must run on the same goroutine.
//
// INVARIANTS:
//   - queue and queued hold the same objects; no object appears twice
//   - session subscriptions exist only while active
//   - at most one object-modified subscription exists at any time, and
//     only while active
//   - CleanUp reaches exactly the translators Initialize reached
type Dispatcher struct {
	session  session.Session
	host     native.Host
	resolver Resolver
	registry *translator.Registry
	recorder Recorder
	seq      Sequencer
	ctx      context.Context
	logger   *slog.Logger

	suppressSession bool

	active       bool
	initialized  []translator.Translator
	unsubscribe  []func()
	undoHandle   event.Handle
	modifyHandle event.Handle
	suppressed   int

	queue  []*session.Object
	queued map[*session.Object]struct{}
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHost connects the dispatcher to a native host's modification and
// undo/redo notifications. Without a host, native toggles are no-ops.
func WithHost(h native.Host) Option {
	return func(d *Dispatcher) {
		d.host = h
	}
}

// WithResolver sets how native objects map to session objects.
// Without one, every native object is treated as unsynchronized.
func WithResolver(r Resolver) Option {
	return func(d *Dispatcher) {
		d.resolver = r
	}
}

// WithRecorder journals every routed event to r.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

// WithSequencer sets the record sequence source. Default: a fresh engine.Clock.
func WithSequencer(s Sequencer) Option {
	return func(d *Dispatcher) {
		d.seq = s
	}
}

// WithContext sets the context passed to the Recorder.
func WithContext(ctx context.Context) Option {
	return func(d *Dispatcher) {
		d.ctx = ctx
	}
}

// WithLogger sets the logger for the dispatcher and its registry.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithSessionWriteSuppression controls whether session events are handled
// inside a suppression window. Default: true.
func WithSessionWriteSuppression(enabled bool) Option {
	return func(d *Dispatcher) {
		d.suppressSession = enabled
	}
}

// New creates an inactive dispatcher for sess.
func New(sess session.Session, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		session:         sess,
		seq:             engine.NewClock(),
		ctx:             context.Background(),
		suppressSession: true,
		queued:          make(map[*session.Object]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	d.registry = translator.NewRegistry(d.logger)
	return d
}

// Register binds objectType to t. See translator.Registry.Register.
func (d *Dispatcher) Register(objectType string, t translator.Translator) {
	d.registry.Register(objectType, t)
}

// GetTranslator returns the translator for objectType, or nil.
func (d *Dispatcher) GetTranslator(objectType string) translator.Translator {
	return d.registry.Get(objectType)
}

// GetTranslatorFor returns the translator for obj's type, or nil.
func (d *Dispatcher) GetTranslatorFor(obj *session.Object) translator.Translator {
	return d.registry.GetFor(obj)
}

// Registry exposes the translator registry.
func (d *Dispatcher) Registry() *translator.Registry {
	return d.registry
}

// Active reports whether the dispatcher is between Initialize and CleanUp.
func (d *Dispatcher) Active() bool {
	return d.active
}

// Initialize subscribes to session and host events, enables native change
// listening, and calls Initialize once on each distinct translator.
// Translators registered while active are routed to but not initialized.
func (d *Dispatcher) Initialize() error {
	if d.active {
		return &DispatchError{
			Code:    ErrCodeAlreadyInitialized,
			Message: "dispatcher already initialized; call CleanUp first",
		}
	}
	d.active = true
	d.subscribe()
	d.EnableOnUObjectModified()

	translators := d.registry.Translators()
	for _, t := range translators {
		t.Initialize()
	}
	d.initialized = translators

	d.journal(Record{
		Kind:    KindLifecycle,
		Outcome: OutcomeBroadcast,
		Detail:  ir.Object{"hook": ir.String("initialize"), "translators": ir.Int(len(translators))},
	})
	d.logger.Info("dispatcher initialized",
		"translators", len(translators),
		"types", d.registry.Len(),
	)
	return nil
}

// CleanUp calls CleanUp once on each translator the last Initialize
// initialized, removes every
// subscription and empties the creation queue. Registry bindings survive.
// CleanUp on an inactive dispatcher does nothing.
func (d *Dispatcher) CleanUp() {
	if !d.active {
		return
	}

	translators := d.initialized
	d.initialized = nil
	for _, t := range translators {
		t.CleanUp()
	}

	d.unsubscribeAll()
	d.DisableOnUObjectModified()
	dropped := len(d.queue)
	clear(d.queue)
	d.queue = d.queue[:0]
	clear(d.queued)
	d.active = false

	d.journal(Record{
		Kind:    KindLifecycle,
		Outcome: OutcomeBroadcast,
		Detail:  ir.Object{"hook": ir.String("cleanup"), "translators": ir.Int(len(translators))},
	})
	d.logger.Info("dispatcher cleaned up",
		"translators", len(translators),
		"queued_dropped", dropped,
	)
}

// resolve returns the synchronized counterpart of n, or nil.
func (d *Dispatcher) resolve(n native.Object) *session.Object {
	if d.resolver == nil || n == nil {
		return nil
	}
	return d.resolver.SyncObject(n)
}

// journal stamps rec and hands it to the recorder. Recorder failures are
// logged and do not affect dispatch.
func (d *Dispatcher) journal(rec Record) {
	rec.Seq = d.seq.Next()
	d.logger.Debug("dispatch",
		"seq", rec.Seq,
		"event", rec.Kind,
		"object_id", rec.ObjectID,
		"object_type", rec.ObjectType,
		"translator", rec.Translator,
		"outcome", rec.Outcome,
	)
	if d.recorder == nil {
		return
	}
	if err := d.recorder.WriteRecord(d.ctx, rec); err != nil {
		d.logger.Error("dispatch journal write failed",
			"seq", rec.Seq,
			"event", rec.Kind,
			"error", err,
		)
	}
}

func objectRecord(kind string, obj *session.Object, outcome Outcome, t translator.Translator, detail ir.Object) Record {
	rec := Record{Kind: kind, Outcome: outcome, Detail: detail}
	if obj != nil {
		rec.ObjectID = string(obj.ID())
		rec.ObjectType = obj.Type()
	}
	if t != nil {
		rec.Translator = translator.NameOf(t)
	}
	return rec
}
