package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Env holds settings read from the environment.
type Env struct {
	DB                    string `env:"SCENESYNC_DB"`
	LogLevel              string `env:"SCENESYNC_LOG_LEVEL" envDefault:"info"`
	SuppressSessionWrites bool   `env:"SCENESYNC_SUPPRESS_SESSION_WRITES" envDefault:"true"`
	TickMillis            int    `env:"SCENESYNC_TICK_MILLIS" envDefault:"16"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadEnv parses Env from the process environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := ParseEnv(&e); err != nil {
		return Env{}, &LoadError{Code: ErrCodeInvalidEnv, Message: err.Error()}
	}
	if e.TickMillis < 0 {
		return Env{}, &LoadError{Code: ErrCodeInvalidEnv, Message: fmt.Sprintf("SCENESYNC_TICK_MILLIS must be >= 0, got %d", e.TickMillis)}
	}
	return e, nil
}

// Level parses LogLevel (debug, info, warn, error).
func (e Env) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(e.LogLevel))); err != nil {
		return slog.LevelInfo, &LoadError{Code: ErrCodeInvalidLogLevel, Message: fmt.Sprintf("unknown log level %q", e.LogLevel)}
	}
	return lvl, nil
}
