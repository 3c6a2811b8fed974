package config

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Load error codes.
const (
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeLoadFailed      = "LOAD_FAILED"
	ErrCodeBuildFailed     = "BUILD_FAILED"
	ErrCodeSchema          = "SCHEMA"
	ErrCodeNoTranslators   = "NO_TRANSLATORS"
	ErrCodeDuplicateType   = "DUPLICATE_TYPE"
	ErrCodeInvalidEnv      = "INVALID_ENV"
	ErrCodeInvalidLogLevel = "INVALID_LOG_LEVEL"
)

// LoadError is a configuration error or warning, with the CUE source
// position when one is known.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// fromCUE converts a CUE error into LoadErrors, one per underlying error,
// each carrying its first position.
func fromCUE(code string, err error) []error {
	cueErrs := errors.Errors(err)
	if len(cueErrs) == 0 {
		return []error{&LoadError{Code: code, Message: err.Error()}}
	}
	out := make([]error, 0, len(cueErrs))
	for _, e := range cueErrs {
		le := &LoadError{Code: code, Message: e.Error()}
		if pos := errors.Positions(e); len(pos) > 0 {
			le.Pos = pos[0]
		}
		out = append(out, le)
	}
	return out
}
