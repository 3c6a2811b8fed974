package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/scenesync/internal/dispatch"
	"github.com/roach88/scenesync/internal/ir"
)

// TraceSnapshot captures the observable output of a scenario run.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string   `json:"scenario_name"`
	Trace        []string `json:"trace"`
	Journal      []string `json:"journal"`
}

// NewTraceSnapshot renders result's calls and journal one line per entry.
func NewTraceSnapshot(scenarioName string, result *Result) *TraceSnapshot {
	journal := make([]string, len(result.Journal))
	for i, rec := range result.Journal {
		journal[i] = JournalLine(rec)
	}
	return &TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.CallStrings(),
		Journal:      journal,
	}
}

// JournalLine renders a record as "seq kind outcome [object_id] [-> translator]".
func JournalLine(rec dispatch.Record) string {
	s := fmt.Sprintf("%d %s %s", rec.Seq, rec.Kind, rec.Outcome)
	if rec.ObjectID != "" {
		s += " " + rec.ObjectID
	}
	if rec.Translator != "" {
		s += " -> " + rec.Translator
	}
	return s
}

// toCanonicalMap converts the snapshot for ir.MarshalCanonical, which only
// handles IR types and primitives.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, line := range s.Trace {
		trace[i] = line
	}
	journal := make([]any, len(s.Journal))
	for i, line := range s.Journal {
		journal[i] = line
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
		"journal":       journal,
	}
}

// MarshalCanonical returns the snapshot's canonical JSON.
func (s *TraceSnapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// Hash fingerprints the snapshot; equal runs hash equally.
func (s *TraceSnapshot) Hash() (string, error) {
	return ir.TraceHash(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	if !result.Pass {
		return fmt.Errorf("scenario %s failed: %v", scenario.Name, result.Errors)
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewTraceSnapshot(scenarioName, result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
