package harness

import (
	"github.com/roach88/scenesync/internal/dispatch"
	"github.com/roach88/scenesync/internal/translator"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace lists every recorder translator call in invocation order.
	Trace []translator.Call `json:"trace"`

	// Journal lists every dispatch record in seq order.
	Journal []dispatch.Record `json:"journal"`

	// Errors holds step and assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Objects maps scenario aliases to session object IDs.
	// Objects that were never created map to "".
	Objects map[string]string `json:"objects,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []translator.Call{},
		Journal: []dispatch.Record{},
		Errors:  []string{},
		Objects: make(map[string]string),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// CallStrings renders the trace one call per entry.
func (r *Result) CallStrings() []string {
	out := make([]string, len(r.Trace))
	for i, c := range r.Trace {
		out[i] = c.String()
	}
	return out
}
