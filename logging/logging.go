// Package logging constructs the structured loggers used throughout this
// module, using logiface, backed by the stumpy JSON implementation.
//
// All components accept a *Logger, which may be nil, in which case logging is
// disabled.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

type (
	// Logger is the generic logiface logger, accepted by all components.
	Logger = logiface.Logger[logiface.Event]

	// Level is an alias of logiface.Level.
	Level = logiface.Level

	// Throttle limits the frequency of an abnormal, but potentially noisy,
	// condition being logged, e.g. per task or per peripheral. It must not be
	// used on a per-tick path.
	Throttle struct {
		limiter *catrate.Limiter
	}
)

// Common levels, re-exported for convenience.
const (
	LevelDisabled = logiface.LevelDisabled
	LevelError    = logiface.LevelError
	LevelWarning  = logiface.LevelWarning
	LevelNotice   = logiface.LevelNotice
	LevelInfo     = logiface.LevelInformational
	LevelDebug    = logiface.LevelDebug
	LevelTrace    = logiface.LevelTrace
)

// New returns a new logger, writing JSON lines to w, at the given level.
func New(w io.Writer, level Level) *Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	).Logger()
}

// Discard returns a logger that logs nothing.
func Discard() *Logger {
	return nil
}

// ParseLevel converts the (case-insensitive) name of a level to a Level.
// Accepted names are those returned by Level.String, in addition to "info",
// "warn", "error", "off", and "none".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case `off`, `none`, `disabled`:
		return LevelDisabled, nil
	case `emerg`, `emergency`:
		return logiface.LevelEmergency, nil
	case `alert`:
		return logiface.LevelAlert, nil
	case `crit`, `critical`:
		return logiface.LevelCritical, nil
	case `err`, `error`:
		return LevelError, nil
	case `warning`, `warn`:
		return LevelWarning, nil
	case `notice`:
		return LevelNotice, nil
	case `info`, `informational`:
		return LevelInfo, nil
	case `debug`:
		return LevelDebug, nil
	case `trace`:
		return LevelTrace, nil
	}
	return LevelDisabled, fmt.Errorf(`logging: unknown level: %q`, s)
}

// NewThrottle returns a Throttle allowing at most n events per category,
// within each window.
func NewThrottle(window time.Duration, n int) *Throttle {
	return &Throttle{limiter: catrate.NewLimiter(map[time.Duration]int{window: n})}
}

// Allow reports whether an event for category may be logged now. A nil
// Throttle allows everything.
func (x *Throttle) Allow(category any) bool {
	if x == nil {
		return true
	}
	_, ok := x.limiter.Allow(category)
	return ok
}
