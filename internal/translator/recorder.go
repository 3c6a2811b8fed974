package translator

import (
	"fmt"
	"slices"

	"github.com/roach88/scenesync/internal/native"
	"github.com/roach88/scenesync/internal/session"
)

// Call is one translator method invocation captured by a Recorder.
type Call struct {
	Translator string `json:"translator" yaml:"translator"`
	Method     string `json:"method" yaml:"method"`
	Object     string `json:"object,omitempty" yaml:"object,omitempty"`
	Args       string `json:"args,omitempty" yaml:"args,omitempty"`
}

// String renders the call on one line.
func (c Call) String() string {
	s := c.Translator + "." + c.Method + "(" + c.Object
	if c.Args != "" {
		if c.Object != "" {
			s += ", "
		}
		s += c.Args
	}
	return s + ")"
}

// CallLog collects calls from one or more Recorders in invocation order.
type CallLog struct {
	calls []Call
}

// NewCallLog creates an empty log.
func NewCallLog() *CallLog {
	return &CallLog{}
}

func (l *CallLog) add(c Call) {
	l.calls = append(l.calls, c)
}

// Calls returns a copy of the recorded calls.
func (l *CallLog) Calls() []Call {
	return slices.Clone(l.calls)
}

// Count returns how many calls match translator and method.
// An empty translator matches every translator.
func (l *CallLog) Count(translator, method string) int {
	n := 0
	for _, c := range l.calls {
		if (translator == "" || c.Translator == translator) && c.Method == method {
			n++
		}
	}
	return n
}

// Len returns the number of recorded calls.
func (l *CallLog) Len() int {
	return len(l.calls)
}

// Reset discards all recorded calls.
func (l *CallLog) Reset() {
	l.calls = nil
}

// Recorder is a Translator that logs every call it receives.
//
// AcceptNative sets the OnUPropertyChange result. Claims maps native class
// names to the session type Create should produce for them.
type Recorder struct {
	name         string
	log          *CallLog
	AcceptNative bool
	Claims       map[string]string
}

// NewRecorder creates a Recorder writing to log.
func NewRecorder(name string, log *CallLog) *Recorder {
	return &Recorder{name: name, log: log, Claims: make(map[string]string)}
}

// Name implements Named.
func (r *Recorder) Name() string { return r.name }

func (r *Recorder) record(method string, obj *session.Object, args string) {
	c := Call{Translator: r.name, Method: method, Args: args}
	if obj != nil {
		c.Object = objectLabel(obj)
	}
	r.log.add(c)
}

func objectLabel(obj *session.Object) string {
	if obj.ID() != "" {
		return string(obj.ID())
	}
	return obj.String()
}

func nativeLabel(n native.Object) string {
	if n == nil {
		return "<nil>"
	}
	return n.Name()
}

func (r *Recorder) Initialize() { r.record("Initialize", nil, "") }
func (r *Recorder) CleanUp()    { r.record("CleanUp", nil, "") }

func (r *Recorder) Create(n native.Object) *session.Object {
	objType, ok := r.Claims[n.Class()]
	r.record("Create", nil, fmt.Sprintf("native=%s claimed=%t", n.Name(), ok))
	if !ok {
		return nil
	}
	return session.NewObject(objType, nil)
}

func (r *Recorder) OnCreate(obj *session.Object, childIndex int) {
	r.record("OnCreate", obj, fmt.Sprintf("index=%d", childIndex))
}

func (r *Recorder) OnDelete(obj *session.Object) { r.record("OnDelete", obj, "") }
func (r *Recorder) OnLock(obj *session.Object)   { r.record("OnLock", obj, "") }
func (r *Recorder) OnUnlock(obj *session.Object) { r.record("OnUnlock", obj, "") }

func (r *Recorder) OnLockOwnerChange(obj *session.Object) {
	r.record("OnLockOwnerChange", obj, fmt.Sprintf("owner=%d", obj.LockOwner()))
}

func (r *Recorder) OnDirectLockChange(obj *session.Object) {
	r.record("OnDirectLockChange", obj, fmt.Sprintf("direct=%t", obj.IsDirectlyLocked()))
}

func (r *Recorder) OnParentChange(obj *session.Object, childIndex int) {
	r.record("OnParentChange", obj, fmt.Sprintf("index=%d", childIndex))
}

func (r *Recorder) OnPropertyChange(prop session.Property) {
	r.record("OnPropertyChange", prop.Owner(), "path="+prop.Path())
}

func (r *Recorder) OnRemoveField(dict *session.DictionaryProperty, name string) {
	r.record("OnRemoveField", dict.Owner(), fmt.Sprintf("path=%s field=%s", dict.Path(), name))
}

func (r *Recorder) OnListAdd(list *session.ListProperty, index, count int) {
	r.record("OnListAdd", list.Owner(), fmt.Sprintf("path=%s index=%d count=%d", list.Path(), index, count))
}

func (r *Recorder) OnListRemove(list *session.ListProperty, index, count int) {
	r.record("OnListRemove", list.Owner(), fmt.Sprintf("path=%s index=%d count=%d", list.Path(), index, count))
}

func (r *Recorder) OnUPropertyChange(obj *session.Object, n native.Object, prop native.Property) bool {
	r.record("OnUPropertyChange", obj, fmt.Sprintf("native=%s prop=%s", nativeLabel(n), prop.Name()))
	return r.AcceptNative
}

func (r *Recorder) PostPropertyChange(n native.Object, prop native.Property) {
	r.record("PostPropertyChange", nil, fmt.Sprintf("native=%s prop=%s", nativeLabel(n), prop.Name()))
}

func (r *Recorder) OnUndoRedo(obj *session.Object, n native.Object) {
	r.record("OnUndoRedo", obj, "native="+nativeLabel(n))
}
