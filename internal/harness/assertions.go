package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/scenesync/internal/dispatch"
	"github.com/roach88/scenesync/internal/translator"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string            // Assertion type for categorization
	Expected string            // Human-readable expected outcome
	Actual   string            // Human-readable actual outcome
	Trace    []translator.Call // Full call trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, c := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, c)
		}
	}
	return buf.String()
}

// AssertionContext carries run state that is not part of the Result.
type AssertionContext struct {
	// Queued reports, per object alias, whether it is still in the
	// creation queue.
	Queued map[string]bool

	QueueLen       int
	CreateRequests int
}

// callMatcher filters calls by translator, method and object ID.
type callMatcher struct {
	translator string
	method     string
	object     string
}

func (m callMatcher) match(c translator.Call) bool {
	return (m.translator == "" || c.Translator == m.translator) &&
		(m.method == "" || c.Method == m.method) &&
		(m.object == "" || c.Object == m.object)
}

func (m callMatcher) String() string {
	parts := []string{}
	if m.translator != "" {
		parts = append(parts, "translator="+m.translator)
	}
	if m.method != "" {
		parts = append(parts, "method="+m.method)
	}
	if m.object != "" {
		parts = append(parts, "object="+m.object)
	}
	if len(parts) == 0 {
		return "any call"
	}
	return strings.Join(parts, " ")
}

func matcherFor(result *Result, a Assertion) (callMatcher, error) {
	m := callMatcher{translator: a.Translator, method: a.Method}
	if a.Object != "" {
		id, ok := result.Objects[a.Object]
		if !ok {
			return m, fmt.Errorf("unknown object %q", a.Object)
		}
		if id == "" {
			// never created, so no call can name it
			id = "<uncreated " + a.Object + ">"
		}
		m.object = id
	}
	return m, nil
}

func countCalls(trace []translator.Call, m callMatcher) int {
	n := 0
	for _, c := range trace {
		if m.match(c) {
			n++
		}
	}
	return n
}

func assertCallCount(result *Result, a Assertion) error {
	m, err := matcherFor(result, a)
	if err != nil {
		return err
	}
	if got := countCalls(result.Trace, m); got != *a.Count {
		return &AssertionError{
			Type:     AssertCallCount,
			Expected: fmt.Sprintf("%d calls matching %s", *a.Count, m),
			Actual:   fmt.Sprintf("%d calls", got),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertNoCalls(result *Result, a Assertion) error {
	m, err := matcherFor(result, a)
	if err != nil {
		return err
	}
	if got := countCalls(result.Trace, m); got != 0 {
		return &AssertionError{
			Type:     AssertNoCalls,
			Expected: fmt.Sprintf("no calls matching %s", m),
			Actual:   fmt.Sprintf("%d calls", got),
			Trace:    result.Trace,
		}
	}
	return nil
}

// matchesCall compares a call against an expectation. Expectations
// containing "(" are compared against the full rendering; others against
// "Translator.Method".
func matchesCall(c translator.Call, want string) bool {
	if strings.Contains(want, "(") {
		return c.String() == want
	}
	return c.Translator+"."+c.Method == want
}

// assertCallOrder checks that the expected calls occur in order. Other calls
// may appear between them.
func assertCallOrder(result *Result, a Assertion) error {
	next := 0
	for _, c := range result.Trace {
		if next < len(a.Calls) && matchesCall(c, a.Calls[next]) {
			next++
		}
	}
	if next < len(a.Calls) {
		return &AssertionError{
			Type:     AssertCallOrder,
			Expected: strings.Join(a.Calls, " -> "),
			Actual:   fmt.Sprintf("matched %d of %d, missing %q", next, len(a.Calls), a.Calls[next]),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertSessionCreates(result *Result, a Assertion, actx *AssertionContext) error {
	if actx.CreateRequests != *a.Count {
		return &AssertionError{
			Type:     AssertSessionCreates,
			Expected: fmt.Sprintf("%d session create requests", *a.Count),
			Actual:   fmt.Sprintf("%d", actx.CreateRequests),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertQueueEmpty(result *Result, a Assertion, actx *AssertionContext) error {
	if a.Object != "" {
		queued, ok := actx.Queued[a.Object]
		if !ok {
			return fmt.Errorf("unknown object %q", a.Object)
		}
		if queued {
			return &AssertionError{
				Type:     AssertQueueEmpty,
				Expected: fmt.Sprintf("%s not queued", a.Object),
				Actual:   "queued",
				Trace:    result.Trace,
			}
		}
		return nil
	}
	if actx.QueueLen != 0 {
		return &AssertionError{
			Type:     AssertQueueEmpty,
			Expected: "empty creation queue",
			Actual:   fmt.Sprintf("%d queued", actx.QueueLen),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertJournalCount(result *Result, a Assertion) error {
	got := 0
	for _, rec := range result.Journal {
		if (a.Kind == "" || rec.Kind == a.Kind) &&
			(a.Outcome == "" || rec.Outcome == dispatch.Outcome(a.Outcome)) &&
			(a.Translator == "" || rec.Translator == a.Translator) {
			got++
		}
	}
	if got != *a.Count {
		return &AssertionError{
			Type:     AssertJournalCount,
			Expected: fmt.Sprintf("%d records (kind=%q outcome=%q)", *a.Count, a.Kind, a.Outcome),
			Actual:   fmt.Sprintf("%d records", got),
			Trace:    result.Trace,
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	if actx == nil {
		actx = &AssertionContext{}
	}

	var errors []string
	for i, a := range assertions {
		if err := validateAssertion(i, &a); err != nil {
			errors = append(errors, err.Error())
			continue
		}

		var err error
		switch a.Type {
		case AssertCallCount:
			err = assertCallCount(result, a)
		case AssertCallOrder:
			err = assertCallOrder(result, a)
		case AssertNoCalls:
			err = assertNoCalls(result, a)
		case AssertSessionCreates:
			err = assertSessionCreates(result, a, actx)
		case AssertQueueEmpty:
			err = assertQueueEmpty(result, a, actx)
		case AssertJournalCount:
			err = assertJournalCount(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}

		if err != nil {
			errors = append(errors, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errors
}
