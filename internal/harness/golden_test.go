package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenesync/internal/dispatch"
	"github.com/roach88/scenesync/internal/translator"
)

// Golden files live in testdata/golden. To regenerate them, run:
//
//	go test ./internal/harness -run Golden -update
func TestRunWithGolden_Scenarios(t *testing.T) {
	for _, name := range []string{"mesh_dedup", "native_bridge", "reinit_clean", "property_routing", "mirror_roundtrip"} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)
			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestRunWithGolden_FailingScenario(t *testing.T) {
	err := RunWithGolden(t, &Scenario{
		Name:       "never_written",
		Bindings:   Bindings{Translators: []TranslatorSpec{{Name: "A", Kind: "recorder", Types: []string{"Mesh"}}}},
		Steps:      []Step{{Do: StepInitialize}},
		Assertions: []Assertion{{Type: AssertSessionCreates, Count: count(5)}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario never_written failed")
}

func TestAssertGolden_FromResult(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/reinit_clean.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NoError(t, AssertGolden(t, "reinit_clean", result))
}

func TestJournalLine(t *testing.T) {
	tests := []struct {
		rec  dispatch.Record
		want string
	}{
		{dispatch.Record{Seq: 1, Kind: dispatch.KindLifecycle, Outcome: dispatch.OutcomeBroadcast}, "1 lifecycle broadcast"},
		{dispatch.Record{Seq: 2, Kind: dispatch.KindCreate, ObjectID: "obj-1", Outcome: dispatch.OutcomeNoTranslator}, "2 create no_translator obj-1"},
		{dispatch.Record{Seq: 3, Kind: dispatch.KindLock, ObjectID: "obj-1", Translator: "A", Outcome: dispatch.OutcomeDispatched}, "3 lock dispatched obj-1 -> A"},
		{dispatch.Record{Seq: 4, Kind: dispatch.KindNativeCreate, Translator: "A", Outcome: dispatch.OutcomeDispatched}, "4 native_create dispatched -> A"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, JournalLine(tt.rec))
	}
}

func TestTraceSnapshot_CanonicalJSON(t *testing.T) {
	r := NewResult()
	r.Trace = []translator.Call{{Translator: "A", Method: "OnCreate", Object: "obj-1", Args: "index=0"}}
	r.Journal = []dispatch.Record{{Seq: 1, Kind: dispatch.KindCreate, ObjectID: "obj-1", Translator: "A", Outcome: dispatch.OutcomeDispatched}}

	data, err := NewTraceSnapshot("tiny", r).MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t,
		`{"journal":["1 create dispatched obj-1 -> A"],"scenario_name":"tiny","trace":["A.OnCreate(obj-1, index=0)"]}`,
		string(data))
}

func TestTraceSnapshot_HashDeterminism(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/property_routing.yaml")
	require.NoError(t, err)

	var hashes []string
	for range 3 {
		result, err := Run(scenario)
		require.NoError(t, err)
		h, err := NewTraceSnapshot(scenario.Name, result).Hash()
		require.NoError(t, err)
		hashes = append(hashes, h)
	}
	assert.Len(t, hashes[0], 64)
	assert.Equal(t, hashes[0], hashes[1])
	assert.Equal(t, hashes[0], hashes[2])

	other, err := NewTraceSnapshot("other", NewResult()).Hash()
	require.NoError(t, err)
	assert.NotEqual(t, hashes[0], other)
}
