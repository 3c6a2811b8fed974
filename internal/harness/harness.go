package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/scenesync/internal/config"
	"github.com/roach88/scenesync/internal/dispatch"
	"github.com/roach88/scenesync/internal/engine"
	"github.com/roach88/scenesync/internal/ir"
	"github.com/roach88/scenesync/internal/native"
	"github.com/roach88/scenesync/internal/session"
	"github.com/roach88/scenesync/internal/testutil"
	"github.com/roach88/scenesync/internal/translator"
)

// Harness runs one scenario against an in-memory session and host.
//
// Session events are posted to an engine.Loop and drained after every
// step, so translators observe them in the order a live editor would.
type Harness struct {
	scenario   *Scenario
	loop       *engine.Loop
	session    *session.Memory
	host       *native.Memory
	links      *native.Links
	dispatcher *dispatch.Dispatcher
	journal    *dispatch.MemoryRecorder
	calls      *translator.CallLog
	logger     *slog.Logger

	objects map[string]*session.Object
	aliases []string
	result  *Result
}

// Option configures a run.
type Option func(*options)

type options struct {
	ctx      context.Context
	recorder dispatch.Recorder
	seq      dispatch.Sequencer
	defaults config.DispatcherOptions
	logger   *slog.Logger
}

// WithRecorder also sends every dispatch record to r, such as a
// store.Journal.
func WithRecorder(r dispatch.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithSequencer stamps records from s instead of a fresh clock.
func WithSequencer(s dispatch.Sequencer) Option {
	return func(o *options) { o.seq = s }
}

// WithDefaults sets the dispatcher options used by scenarios with inline
// bindings, e.g. values read from the environment.
func WithDefaults(d config.DispatcherOptions) Option {
	return func(o *options) { o.defaults = d }
}

// WithLogger sends the logs of every component in the run to logger.
// Default, and for a nil logger: a logger that discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithContext sets the context passed to recorders.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// teeRecorder writes to the run's in-memory journal and an optional extra
// recorder.
type teeRecorder struct {
	mem   *dispatch.MemoryRecorder
	extra dispatch.Recorder
}

func (t teeRecorder) WriteRecord(ctx context.Context, rec dispatch.Record) error {
	if err := t.mem.WriteRecord(ctx, rec); err != nil {
		return err
	}
	if t.extra == nil {
		return nil
	}
	return t.extra.WriteRecord(ctx, rec)
}

// Run executes a scenario and evaluates its assertions.
//
// The returned error reports a scenario that could not be run: bad
// bindings, unknown aliases, invalid paths. Failed expectations and
// assertions are reported in Result.Errors instead.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{ctx: context.Background(), defaults: config.DefaultDispatcherOptions()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	h, err := newHarness(scenario, o)
	if err != nil {
		return nil, err
	}
	return h.run()
}

func newHarness(scenario *Scenario, o options) (*Harness, error) {
	bindings, dopts, err := scenario.resolveBindings(o.defaults)
	if err != nil {
		return nil, err
	}

	var ids session.IDGenerator = testutil.NewSequentialIDs("")
	if len(scenario.IDs) > 0 {
		ids = testutil.NewFixedIDs(scenario.IDs...)
	}
	seq := o.seq
	if seq == nil {
		seq = testutil.NewDeterministicClock()
	}

	h := &Harness{
		scenario: scenario,
		host:     native.NewMemory(),
		links:    native.NewLinks(),
		journal:  &dispatch.MemoryRecorder{},
		calls:    translator.NewCallLog(),
		logger:   o.logger,
		objects:  make(map[string]*session.Object),
		result:   NewResult(),
	}
	h.loop = engine.NewLoop(
		engine.WithTick(dopts.Tick(), h.tick),
		engine.WithLogger(h.logger),
	)
	h.session = session.NewMemory(
		session.WithScheduler(h.loop),
		session.WithLogger(h.logger),
		session.WithIDGenerator(ids),
		session.WithRejectedTypes(scenario.RejectTypes...),
	)
	h.dispatcher = dispatch.New(h.session,
		dispatch.WithHost(h.host),
		dispatch.WithResolver(h.links),
		dispatch.WithRecorder(teeRecorder{mem: h.journal, extra: o.recorder}),
		dispatch.WithSequencer(seq),
		dispatch.WithContext(o.ctx),
		dispatch.WithSessionWriteSuppression(dopts.SuppressSessionWrites),
		dispatch.WithLogger(h.logger),
	)

	for _, b := range bindings {
		t := h.buildTranslator(b)
		for _, objType := range b.Types {
			h.dispatcher.Register(objType, t)
		}
	}
	return h, nil
}

// tick drains the creation queue when the loop is driven by Run rather
// than by step-wise Drain.
func (h *Harness) tick() {
	if _, err := h.dispatcher.ProcessCreateQueue(); err != nil {
		h.logger.Warn("tick: process create queue", "error", err)
	}
}

func (h *Harness) buildTranslator(b config.TranslatorBinding) translator.Translator {
	if b.Kind == config.KindMirror {
		return translator.NewMirror(b.Name, h.host, h.links, b.Classes, h.logger)
	}
	r := translator.NewRecorder(b.Name, h.calls)
	r.AcceptNative = b.Accept
	r.Claims = b.Classes
	return r
}

func (h *Harness) run() (*Result, error) {
	if err := h.runSteps("steps", h.scenario.Steps); err != nil {
		return nil, err
	}

	h.result.Trace = h.calls.Calls()
	h.result.Journal = h.journal.Records()
	for _, alias := range h.aliases {
		h.result.Objects[alias] = string(h.objects[alias].ID())
	}

	for _, msg := range EvaluateAssertions(h.result, h.scenario.Assertions, h.assertionContext()) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

func (h *Harness) assertionContext() *AssertionContext {
	queued := make(map[string]bool, len(h.aliases))
	for _, alias := range h.aliases {
		queued[alias] = h.dispatcher.IsCreateQueued(h.objects[alias])
	}
	return &AssertionContext{
		Queued:         queued,
		QueueLen:       h.dispatcher.QueueLen(),
		CreateRequests: h.session.CreateRequests(),
	}
}

func (h *Harness) runSteps(prefix string, steps []Step) error {
	for i, step := range steps {
		at := fmt.Sprintf("%s[%d]", prefix, i)
		err := h.runStep(at, step)
		h.loop.Drain()
		if err != nil {
			return fmt.Errorf("%s (%s): %w", at, step.Do, err)
		}
	}
	return nil
}

// runStep executes one step. Dispatch errors are checked against the
// step's expected error code; other errors abort the run.
func (h *Harness) runStep(at string, step Step) error {
	d := h.dispatcher

	switch step.Do {
	case StepInitialize:
		h.expect(at, step, d.Initialize())
		return nil

	case StepCleanUp:
		d.CleanUp()
		return nil

	case StepRemoteCreate:
		obj, err := h.newObject(step)
		if err != nil {
			return err
		}
		parent, err := h.optionalObject(step.Parent)
		if err != nil {
			return err
		}
		h.define(step.Object, obj)
		return h.session.RemoteCreate(obj, parent, step.Index)

	case StepLocalCreate:
		return h.localCreate(step)

	case StepQueueCreate:
		obj, err := h.object(step.Object)
		if err != nil {
			return err
		}
		d.QueueCreate(obj)
		return nil

	case StepProcessQueue:
		_, err := d.ProcessCreateQueue()
		h.expect(at, step, err)
		return nil

	case StepDelete:
		obj, err := h.object(step.Object)
		if err != nil {
			return err
		}
		return h.session.RemoteDelete(obj)

	case StepLock, StepSetLockOwner:
		obj, err := h.object(step.Object)
		if err != nil {
			return err
		}
		return h.session.RemoteLock(obj, step.Owner)

	case StepUnlock:
		obj, err := h.object(step.Object)
		if err != nil {
			return err
		}
		return h.session.RemoteUnlock(obj)

	case StepSetParent:
		obj, err := h.object(step.Object)
		if err != nil {
			return err
		}
		parent, err := h.optionalObject(step.Parent)
		if err != nil {
			return err
		}
		return h.session.RemoteSetParent(obj, parent, step.Index)

	case StepSetProperty:
		return h.setProperty(step)

	case StepRemoveField:
		dict, err := h.dictionary(step)
		if err != nil {
			return err
		}
		return h.session.RemoteRemoveField(dict, step.Field)

	case StepListAdd:
		list, err := h.list(step)
		if err != nil {
			return err
		}
		props := make([]session.Property, 0, len(step.Values))
		for _, v := range step.Values {
			p, err := propertyOf(v)
			if err != nil {
				return err
			}
			props = append(props, p)
		}
		return h.session.RemoteListInsert(list, step.Index, props...)

	case StepListRemove:
		list, err := h.list(step)
		if err != nil {
			return err
		}
		return h.session.RemoteListRemove(list, step.Index, step.Count)

	case StepNativeEdit:
		return h.nativeEdit(step)

	case StepUndo:
		h.host.Undo()
		return nil

	case StepRedo:
		h.host.Redo()
		return nil

	case StepSuppress:
		return d.Suppress(func() error {
			return h.runSteps(at+".steps", step.Steps)
		})

	case StepDisableNative:
		d.DisableOnUObjectModified()
		return nil

	case StepEnableNative:
		d.EnableOnUObjectModified()
		return nil

	default:
		return fmt.Errorf("unknown step %q", step.Do)
	}
}

// expect compares a dispatch error against the step's expected code.
func (h *Harness) expect(at string, step Step, err error) {
	switch {
	case step.Error == "" && err != nil:
		h.result.AddError(fmt.Sprintf("%s (%s): unexpected error: %v", at, step.Do, err))
	case step.Error != "" && !dispatch.HasCode(err, dispatch.ErrorCode(step.Error)):
		h.result.AddError(fmt.Sprintf("%s (%s): expected error %s, got %v", at, step.Do, step.Error, err))
	}
}

func (h *Harness) localCreate(step Step) error {
	if _, ok := h.objects[step.Object]; ok {
		return fmt.Errorf("alias %q already defined", step.Object)
	}

	var obj *session.Object
	if step.Native != "" {
		node := h.host.Spawn(step.Native, step.Class)
		obj = h.dispatcher.Create(node)
		if obj == nil {
			return fmt.Errorf("no translator claims native %s", node)
		}
		h.links.Link(node, obj)
	} else {
		var err error
		if obj, err = h.newObject(step); err != nil {
			return err
		}
	}

	parent, err := h.optionalObject(step.Parent)
	if err != nil {
		return err
	}
	if parent != nil {
		parent.AddChild(obj)
	}
	h.define(step.Object, obj)
	return nil
}

func (h *Harness) newObject(step Step) (*session.Object, error) {
	if _, ok := h.objects[step.Object]; ok {
		return nil, fmt.Errorf("alias %q already defined", step.Object)
	}
	props := session.NewDictionary()
	for _, name := range sortedKeys(step.Props) {
		p, err := propertyOf(step.Props[name])
		if err != nil {
			return nil, fmt.Errorf("props.%s: %w", name, err)
		}
		props.Set(name, p)
	}
	return session.NewObject(step.Type, props), nil
}

func (h *Harness) define(alias string, obj *session.Object) {
	h.objects[alias] = obj
	h.aliases = append(h.aliases, alias)
}

func (h *Harness) object(alias string) (*session.Object, error) {
	obj, ok := h.objects[alias]
	if !ok {
		return nil, fmt.Errorf("unknown object %q", alias)
	}
	return obj, nil
}

func (h *Harness) optionalObject(alias string) (*session.Object, error) {
	if alias == "" {
		return nil, nil
	}
	return h.object(alias)
}

func (h *Harness) property(step Step) (session.Property, error) {
	obj, err := h.object(step.Object)
	if err != nil {
		return nil, err
	}
	return resolvePath(obj.Property(), step.Path)
}

func (h *Harness) dictionary(step Step) (*session.DictionaryProperty, error) {
	p, err := h.property(step)
	if err != nil {
		return nil, err
	}
	dict, ok := p.(*session.DictionaryProperty)
	if !ok {
		return nil, fmt.Errorf("%s.%s is a %s, not a dictionary", step.Object, step.Path, p.Kind())
	}
	return dict, nil
}

func (h *Harness) list(step Step) (*session.ListProperty, error) {
	p, err := h.property(step)
	if err != nil {
		return nil, err
	}
	list, ok := p.(*session.ListProperty)
	if !ok {
		return nil, fmt.Errorf("%s.%s is a %s, not a list", step.Object, step.Path, p.Kind())
	}
	return list, nil
}

// setProperty updates an existing value field in place, or replaces the
// field when it is missing or not a value.
func (h *Harness) setProperty(step Step) error {
	dict, err := h.dictionary(step)
	if err != nil {
		return err
	}
	if existing, ok := dict.Get(step.Field).(*session.ValueProperty); ok {
		v, err := ir.FromAny(step.Value)
		if err != nil {
			return err
		}
		return h.session.RemoteSetValue(existing, v)
	}
	p, err := propertyOf(step.Value)
	if err != nil {
		return err
	}
	return h.session.RemoteSetField(dict, step.Field, p)
}

func (h *Harness) nativeEdit(step Step) error {
	var node *native.Node
	if step.Native != "" {
		node = h.host.Find(step.Native)
	} else {
		obj, err := h.object(step.Object)
		if err != nil {
			return err
		}
		node, _ = h.links.Native(obj).(*native.Node)
	}
	if node == nil {
		return fmt.Errorf("no native node for %q", step.Native+step.Object)
	}

	var v ir.Value
	if step.Value != nil {
		var err error
		if v, err = ir.FromAny(step.Value); err != nil {
			return err
		}
	}
	h.host.Edit(node, step.Field, v)
	return nil
}

// propertyOf converts a YAML value into a detached property tree.
func propertyOf(v any) (session.Property, error) {
	switch val := v.(type) {
	case map[string]any:
		dict := session.NewDictionary()
		for _, name := range sortedKeys(val) {
			p, err := propertyOf(val[name])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			dict.Set(name, p)
		}
		return dict, nil
	case []any:
		elems := make([]session.Property, 0, len(val))
		for i, e := range val {
			p, err := propertyOf(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			elems = append(elems, p)
		}
		return session.NewList(elems...), nil
	default:
		iv, err := ir.FromAny(val)
		if err != nil {
			return nil, err
		}
		return session.NewValue(iv), nil
	}
}

// resolvePath walks a session property path ("a.b[2].c") from root.
func resolvePath(root session.Property, path string) (session.Property, error) {
	cur := root
	rest := path
	for rest != "" {
		if rest[0] == '[' {
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, fmt.Errorf("path %q: unclosed index", path)
			}
			index, err := strconv.Atoi(rest[1:end])
			if err != nil {
				return nil, fmt.Errorf("path %q: bad index %q", path, rest[1:end])
			}
			list, ok := cur.(*session.ListProperty)
			if !ok {
				return nil, fmt.Errorf("path %q: %q is not a list", path, cur.Path())
			}
			if cur = list.At(index); cur == nil {
				return nil, fmt.Errorf("path %q: index %d out of range", path, index)
			}
			rest = strings.TrimPrefix(rest[end+1:], ".")
			continue
		}

		end := strings.IndexAny(rest, ".[")
		if end < 0 {
			end = len(rest)
		}
		name := rest[:end]
		dict, ok := cur.(*session.DictionaryProperty)
		if !ok {
			return nil, fmt.Errorf("path %q: %q is not a dictionary", path, cur.Path())
		}
		if cur = dict.Get(name); cur == nil {
			return nil, fmt.Errorf("path %q: no field %q", path, name)
		}
		rest = strings.TrimPrefix(rest[end:], ".")
	}
	return cur, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
