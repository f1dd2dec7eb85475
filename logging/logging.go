// Package logging bootstraps zerolog for the application and the lazy layer.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New creates a console logger tagged with a component name.
func New(component string) zerolog.Logger {
	return NewWithLevel(component, "info")
}

// NewWithLevel creates a console logger at the given level
// (trace|debug|info|warn|error). Unknown levels fall back to info.
func NewWithLevel(component, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}
