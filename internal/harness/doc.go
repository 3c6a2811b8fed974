// Package harness runs scripted collaboration scenarios against the
// dispatcher.
//
// A scenario is a YAML file naming translator bindings, a list of steps and
// a list of assertions:
//
//	name: mesh_dedup
//	description: queueing the same object twice creates it once
//	bindings:
//	  - {name: A, kind: recorder, types: [Mesh, StaticMesh]}
//	steps:
//	  - {do: initialize}
//	  - {do: local_create, object: m1, type: Mesh}
//	  - {do: queue_create, object: m1}
//	  - {do: queue_create, object: m1}
//	  - {do: process_queue}
//	assertions:
//	  - {type: session_creates, count: 1}
//
// Each run builds a fresh in-memory session, host and dispatcher. Session
// events go through an engine.Loop that is drained after every step.
// Recorder translators share one call log, which becomes the trace; the
// dispatcher's records become the journal. Both are compared against
// golden files with RunWithGolden.
//
// Object IDs come from testutil.SequentialIDs (obj-1, obj-2, ...) unless
// the scenario lists ids, and records are stamped from a
// testutil.DeterministicClock, so traces are identical across runs.
package harness
