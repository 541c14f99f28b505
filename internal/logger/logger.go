// Package logger wraps zerolog with the process-wide root logger used by the
// services.
package logger

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

type Options struct {
	Level  string
	Format string
	Writer io.Writer
}

var root atomic.Pointer[zerolog.Logger]

// Init builds the root logger. Later calls replace it.
func Init(opt Options) {
	zerolog.TimeFieldFormat = time.RFC3339

	var w io.Writer = os.Stderr
	if opt.Writer != nil {
		w = opt.Writer
	}
	if strings.ToLower(opt.Format) != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: opt.Writer != nil}
	}

	log := zerolog.New(w).Level(parseLevel(opt.Level)).With().Timestamp().Logger()
	root.Store(&log)
}

func Get() *zerolog.Logger {
	if l := root.Load(); l != nil {
		return l
	}
	Init(Options{Level: "info"})
	return root.Load()
}

// Named returns a child logger tagged with component.
func Named(component string) *zerolog.Logger {
	l := Get().With().Str("component", component).Logger()
	return &l
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
