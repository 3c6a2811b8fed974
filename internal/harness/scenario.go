package harness

import (
	"bytes"
	"cmp"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/scenesync/internal/config"
)

// Scenario is a scripted collaboration session.
// Steps drive the session, the host and the dispatcher; assertions then
// check the translator calls and the dispatch journal the steps produced.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Bindings is either a list of translator bindings or the path of a
	// CUE binding manifest, relative to the scenario file.
	Bindings Bindings `yaml:"bindings"`

	// SuppressSessionWrites overrides the dispatcher option of the same name.
	SuppressSessionWrites *bool `yaml:"suppress_session_writes,omitempty"`

	// IDs, when set, are handed out in order as session object IDs.
	// Otherwise objects get obj-1, obj-2, ...
	IDs []string `yaml:"ids,omitempty"`

	// RejectTypes lists object types the session refuses to create.
	RejectTypes []string `yaml:"reject_types,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// Bindings holds the translator bindings of a scenario.
// Exactly one of File and Translators is set.
type Bindings struct {
	File        string
	Translators []TranslatorSpec
}

// UnmarshalYAML accepts a manifest path (scalar) or an inline list.
func (b *Bindings) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&b.File)
	case yaml.SequenceNode:
		return node.Decode(&b.Translators)
	default:
		return fmt.Errorf("line %d: bindings must be a manifest path or a list of translators", node.Line)
	}
}

// TranslatorSpec is an inline translator binding.
type TranslatorSpec struct {
	Name    string            `yaml:"name"`
	Kind    string            `yaml:"kind"`
	Types   []string          `yaml:"types"`
	Classes map[string]string `yaml:"classes,omitempty"`
	Accept  bool              `yaml:"accept,omitempty"`
}

// Step is one scripted action. Do selects the action; the other fields are
// its parameters.
//
// Objects are named by alias: the alias given to remote_create or
// local_create. Property paths use the session path syntax
// ("transform.location", "tags[1]"); an empty path is the root dictionary.
type Step struct {
	Do string `yaml:"do"`

	Object string `yaml:"object,omitempty"`
	Type   string `yaml:"type,omitempty"`
	Parent string `yaml:"parent,omitempty"`
	Index  int    `yaml:"index,omitempty"`
	Count  int    `yaml:"count,omitempty"`
	Owner  uint32 `yaml:"owner,omitempty"`

	Path   string         `yaml:"path,omitempty"`
	Field  string         `yaml:"field,omitempty"`
	Value  any            `yaml:"value,omitempty"`
	Values []any          `yaml:"values,omitempty"`
	Props  map[string]any `yaml:"props,omitempty"`

	// Native names a host node. Class is the node class for local_create.
	Native string `yaml:"native,omitempty"`
	Class  string `yaml:"class,omitempty"`

	// Steps are the nested steps of a suppress step.
	Steps []Step `yaml:"steps,omitempty"`

	// Error is the dispatch error code the step is expected to return.
	Error string `yaml:"error,omitempty"`
}

// Step actions.
const (
	StepInitialize    = "initialize"
	StepCleanUp       = "cleanup"
	StepRemoteCreate  = "remote_create"
	StepLocalCreate   = "local_create"
	StepQueueCreate   = "queue_create"
	StepProcessQueue  = "process_queue"
	StepDelete        = "delete"
	StepLock          = "lock"
	StepUnlock        = "unlock"
	StepSetLockOwner  = "set_lock_owner"
	StepSetParent     = "set_parent"
	StepSetProperty   = "set_property"
	StepRemoveField   = "remove_field"
	StepListAdd       = "list_add"
	StepListRemove    = "list_remove"
	StepNativeEdit    = "native_edit"
	StepUndo          = "undo"
	StepRedo          = "redo"
	StepSuppress      = "suppress"
	StepDisableNative = "disable_native"
	StepEnableNative  = "enable_native"
)

// Assertion checks the outcome of a scenario.
type Assertion struct {
	// Type is one of call_count, call_order, no_calls, session_creates,
	// queue_empty, journal_count.
	Type string `yaml:"type"`

	// Translator and Method filter calls. Empty matches any.
	Translator string `yaml:"translator,omitempty"`
	Method     string `yaml:"method,omitempty"`

	// Object filters calls by object alias (call_count, no_calls) or names
	// the object that must not be queued (queue_empty).
	Object string `yaml:"object,omitempty"`

	// Calls is the expected call order. Entries are "Translator.Method" or
	// a full call rendering such as "A.OnCreate(obj-1, index=0)".
	Calls []string `yaml:"calls,omitempty"`

	// Kind and Outcome filter journal records (journal_count).
	Kind    string `yaml:"kind,omitempty"`
	Outcome string `yaml:"outcome,omitempty"`

	Count *int `yaml:"count,omitempty"`
}

// Assertion types.
const (
	AssertCallCount      = "call_count"
	AssertCallOrder      = "call_order"
	AssertNoCalls        = "no_calls"
	AssertSessionCreates = "session_creates"
	AssertQueueEmpty     = "queue_empty"
	AssertJournalCount   = "journal_count"
)

// LoadScenario reads and validates a scenario YAML file. A bindings
// manifest path is resolved relative to the scenario's directory.
// Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if f := scenario.Bindings.File; f != "" && !filepath.IsAbs(f) {
		scenario.Bindings.File = filepath.Join(filepath.Dir(path), f)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// resolveBindings turns the scenario's bindings into config form. Inline
// bindings take their dispatcher options from defaults; a manifest carries
// its own.
func (s *Scenario) resolveBindings(defaults config.DispatcherOptions) ([]config.TranslatorBinding, config.DispatcherOptions, error) {
	opts := defaults
	var bindings []config.TranslatorBinding

	if s.Bindings.File != "" {
		b, errs := config.LoadBindings(s.Bindings.File)
		if len(errs) > 0 {
			return nil, opts, fmt.Errorf("bindings %s: %w", s.Bindings.File, errs[0])
		}
		bindings, opts = b.Translators, b.Dispatcher
	} else {
		for _, t := range s.Bindings.Translators {
			bindings = append(bindings, config.TranslatorBinding{
				Name:    t.Name,
				Kind:    t.Kind,
				Types:   t.Types,
				Classes: t.Classes,
				Accept:  t.Accept,
			})
		}
	}

	if s.SuppressSessionWrites != nil {
		opts.SuppressSessionWrites = *s.SuppressSessionWrites
	}
	return bindings, opts, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Bindings.File == "" && len(s.Bindings.Translators) == 0 {
		return fmt.Errorf("bindings are required")
	}
	if s.Bindings.File != "" {
		if _, err := os.Stat(s.Bindings.File); err != nil {
			return fmt.Errorf("bindings file not found: %s", s.Bindings.File)
		}
	}
	for i, t := range s.Bindings.Translators {
		if t.Name == "" {
			return fmt.Errorf("bindings[%d]: name is required", i)
		}
		if t.Kind != config.KindRecorder && t.Kind != config.KindMirror {
			return fmt.Errorf("bindings[%d]: unknown kind %q", i, t.Kind)
		}
		if len(t.Types) == 0 {
			return fmt.Errorf("bindings[%d]: types list is required and must be non-empty", i)
		}
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if err := validateSteps("steps", s.Steps); err != nil {
		return err
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateSteps(prefix string, steps []Step) error {
	for i, step := range steps {
		at := fmt.Sprintf("%s[%d]", prefix, i)
		need := func(ok bool, what string) error {
			if ok {
				return nil
			}
			return fmt.Errorf("%s: %s is required for %s", at, what, step.Do)
		}

		var err error
		switch step.Do {
		case StepInitialize, StepCleanUp, StepProcessQueue, StepUndo, StepRedo,
			StepDisableNative, StepEnableNative:
		case StepRemoteCreate:
			err = cmp.Or(need(step.Object != "", "object"), need(step.Type != "", "type"))
		case StepLocalCreate:
			err = need(step.Object != "", "object")
			if err == nil && step.Type == "" && step.Native == "" {
				err = fmt.Errorf("%s: type or native is required for %s", at, step.Do)
			}
		case StepQueueCreate, StepDelete, StepUnlock, StepSetParent:
			err = need(step.Object != "", "object")
		case StepLock, StepSetLockOwner:
			err = cmp.Or(need(step.Object != "", "object"), need(step.Owner != 0, "owner"))
		case StepSetProperty, StepRemoveField:
			err = cmp.Or(need(step.Object != "", "object"), need(step.Field != "", "field"))
		case StepListAdd:
			err = cmp.Or(need(step.Object != "", "object"), need(len(step.Values) > 0, "values"))
		case StepListRemove:
			err = cmp.Or(need(step.Object != "", "object"), need(step.Count > 0, "count"))
		case StepNativeEdit:
			err = cmp.Or(need(step.Native != "" || step.Object != "", "native or object"), need(step.Field != "", "field"))
		case StepSuppress:
			err = need(len(step.Steps) > 0, "steps")
			if err == nil {
				err = validateSteps(at+".steps", step.Steps)
			}
		case "":
			err = fmt.Errorf("%s: do is required", at)
		default:
			err = fmt.Errorf("%s: unknown step %q", at, step.Do)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCallCount, AssertSessionCreates, AssertJournalCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for %s", index, a.Type)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be >= 0", index)
		}
	case AssertCallOrder:
		if len(a.Calls) == 0 {
			return fmt.Errorf("assertions[%d]: calls list is required for call_order", index)
		}
	case AssertNoCalls, AssertQueueEmpty:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
