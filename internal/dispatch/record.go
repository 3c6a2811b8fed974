package dispatch

import (
	"context"
	"maps"

	"github.com/roach88/scenesync/internal/ir"
)

// Record kinds, one per routed event.
const (
	KindCreate           = "create"
	KindDelete           = "delete"
	KindLock             = "lock"
	KindUnlock           = "unlock"
	KindLockOwnerChange  = "lock_owner_change"
	KindDirectLockChange = "direct_lock_change"
	KindParentChange     = "parent_change"
	KindPropertyChange   = "property_change"
	KindRemoveField      = "remove_field"
	KindListAdd          = "list_add"
	KindListRemove       = "list_remove"
	KindNativeChange     = "native_change"
	KindNativePostChange = "native_post_change"
	KindUndoRedo         = "undo_redo"
	KindCreateRequest    = "create_request"
	KindNativeCreate     = "native_create"
	KindLifecycle        = "lifecycle"
)

// Outcome says what the dispatcher did with an event.
type Outcome string

const (
	OutcomeDispatched   Outcome = "dispatched"
	OutcomeNoTranslator Outcome = "no_translator"
	OutcomeSuppressed   Outcome = "suppressed"
	OutcomeRequested    Outcome = "requested"
	OutcomeDropped      Outcome = "dropped"
	OutcomeSkipped      Outcome = "skipped"
	OutcomeBroadcast    Outcome = "broadcast"
)

// Record is one dispatch journal entry.
type Record struct {
	Seq        int64     `json:"seq"`
	Kind       string    `json:"kind"`
	ObjectID   string    `json:"object_id,omitempty"`
	ObjectType string    `json:"object_type,omitempty"`
	Translator string    `json:"translator,omitempty"`
	Outcome    Outcome   `json:"outcome"`
	Detail     ir.Object `json:"detail,omitempty"`
}

// ID returns the content-addressed record identity.
// Outcome, type and translator are folded into the hashed detail.
func (r Record) ID() (string, error) {
	detail := make(ir.Object, len(r.Detail)+3)
	maps.Copy(detail, r.Detail)
	detail["outcome"] = ir.String(r.Outcome)
	if r.ObjectType != "" {
		detail["object_type"] = ir.String(r.ObjectType)
	}
	if r.Translator != "" {
		detail["translator"] = ir.String(r.Translator)
	}
	return ir.RecordID(r.Seq, r.Kind, r.ObjectID, detail)
}

// Recorder receives every dispatch record. store.Journal implements it.
type Recorder interface {
	WriteRecord(ctx context.Context, rec Record) error
}

// Sequencer stamps records. engine.Clock implements it.
type Sequencer interface {
	Next() int64
}

// MemoryRecorder keeps records in a slice. Not safe for concurrent use.
type MemoryRecorder struct {
	records []Record
}

// WriteRecord implements Recorder.
func (m *MemoryRecorder) WriteRecord(_ context.Context, rec Record) error {
	m.records = append(m.records, rec)
	return nil
}

// Records returns the recorded entries in order.
func (m *MemoryRecorder) Records() []Record {
	return append([]Record(nil), m.records...)
}

// Count returns how many records have the given kind and outcome.
// An empty kind matches any kind.
func (m *MemoryRecorder) Count(kind string, outcome Outcome) int {
	n := 0
	for _, r := range m.records {
		if (kind == "" || r.Kind == kind) && r.Outcome == outcome {
			n++
		}
	}
	return n
}
