package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// Translator kinds understood by the CLI and harness.
const (
	KindRecorder = "recorder"
	KindMirror   = "mirror"
)

// schema constrains and defaults a binding manifest.
const schema = `
#Translator: {
	kind: "recorder" | "mirror"
	types: [string, ...string]
	classes?: {[string]: string}
	accept: bool | *false
}

translators: [string]: #Translator

dispatcher: {
	suppressSessionWrites: bool | *true
	tickMillis: int & >=0 | *16
}
`

// TranslatorBinding is one named translator and the types it claims.
type TranslatorBinding struct {
	Name  string
	Kind  string
	Types []string
	// Classes maps native class names to the session type Create produces.
	Classes map[string]string
	// Accept sets a recorder's OnUPropertyChange result.
	Accept bool
}

// DispatcherOptions are the dispatcher settings of a manifest.
type DispatcherOptions struct {
	SuppressSessionWrites bool
	TickMillis            int
}

// Tick returns TickMillis as a duration.
func (o DispatcherOptions) Tick() time.Duration {
	return time.Duration(o.TickMillis) * time.Millisecond
}

// Bindings is a compiled binding manifest.
type Bindings struct {
	// Translators in name order.
	Translators []TranslatorBinding
	Dispatcher  DispatcherOptions
	// Warnings are non-fatal diagnostics, e.g. DUPLICATE_TYPE.
	Warnings []error
}

// DefaultDispatcherOptions returns the settings used when a manifest has no
// dispatcher block.
func DefaultDispatcherOptions() DispatcherOptions {
	return DispatcherOptions{SuppressSessionWrites: true, TickMillis: 16}
}

// LoadBindings reads a manifest from a .cue file or a directory holding a
// CUE package. All errors found are returned.
func LoadBindings(path string) (*Bindings, []error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("bindings not found: %s", path)}}
	}

	ctx := cuecontext.New()
	var value cue.Value
	if info.IsDir() {
		instances := load.Instances([]string{"."}, &load.Config{Dir: path})
		if len(instances) == 0 {
			return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
		}
		if err := instances[0].Err; err != nil {
			return nil, fromCUE(ErrCodeLoadFailed, err)
		}
		value = ctx.BuildInstance(instances[0])
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}}
		}
		value = ctx.CompileBytes(data, cue.Filename(path))
	}
	return CompileBindings(value)
}

// ParseBindings compiles a manifest held in memory. filename is used in
// error positions only.
func ParseBindings(src, filename string) (*Bindings, []error) {
	ctx := cuecontext.New()
	return CompileBindings(ctx.CompileString(src, cue.Filename(filename)))
}

// CompileBindings validates v against the manifest schema and extracts the
// bindings.
func CompileBindings(v cue.Value) (*Bindings, []error) {
	if err := v.Err(); err != nil {
		return nil, fromCUE(ErrCodeBuildFailed, err)
	}

	unified := v.Context().CompileString(schema, cue.Filename("scenesync-schema.cue")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fromCUE(ErrCodeSchema, err)
	}

	var raw struct {
		Translators map[string]struct {
			Kind    string            `json:"kind"`
			Types   []string          `json:"types"`
			Classes map[string]string `json:"classes"`
			Accept  bool              `json:"accept"`
		} `json:"translators"`
		Dispatcher struct {
			SuppressSessionWrites bool `json:"suppressSessionWrites"`
			TickMillis            int  `json:"tickMillis"`
		} `json:"dispatcher"`
	}
	if err := unified.Decode(&raw); err != nil {
		return nil, fromCUE(ErrCodeSchema, err)
	}
	if len(raw.Translators) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoTranslators, Message: "no translators declared", Pos: v.Pos()}}
	}

	b := &Bindings{
		Dispatcher: DispatcherOptions{
			SuppressSessionWrites: raw.Dispatcher.SuppressSessionWrites,
			TickMillis:            raw.Dispatcher.TickMillis,
		},
	}
	names := make([]string, 0, len(raw.Translators))
	for name := range raw.Translators {
		names = append(names, name)
	}
	slices.Sort(names)

	claimed := make(map[string]string)
	for _, name := range names {
		t := raw.Translators[name]
		b.Translators = append(b.Translators, TranslatorBinding{
			Name:    name,
			Kind:    t.Kind,
			Types:   t.Types,
			Classes: t.Classes,
			Accept:  t.Accept,
		})
		for _, objType := range t.Types {
			if prev, ok := claimed[objType]; ok {
				pos := v.LookupPath(cue.MakePath(cue.Str("translators"), cue.Str(name), cue.Str("types"))).Pos()
				b.Warnings = append(b.Warnings, &LoadError{
					Code:    ErrCodeDuplicateType,
					Message: fmt.Sprintf("type %q claimed by %q and %q; %q wins", objType, prev, name, name),
					Pos:     pos,
				})
			}
			claimed[objType] = name
		}
	}
	return b, nil
}
