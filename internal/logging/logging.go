// Package logging gates the standard logger behind a verbosity level.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
)

// Level is a verbosity setting, one step per -v flag.
type Level int32

const (
	// LevelWarn shows only warnings and errors (no -v)
	LevelWarn Level = iota
	// LevelInfo adds progress messages (-v)
	LevelInfo
	// LevelDebug adds resolved configuration and spawned commands (-vv)
	LevelDebug
	// LevelTrace adds everything else (-vvv)
	LevelTrace
)

// MaxVerbosity is the highest accepted -v count.
const MaxVerbosity = int(LevelTrace)

// ErrInvalidVerbosity is returned for a -v count above MaxVerbosity.
var ErrInvalidVerbosity = errors.New("invalid verbosity setting")

var (
	level  atomic.Int32
	logger = log.New(os.Stderr, "", 0)
)

// SetVerbosity sets the level from a -v count.
func SetVerbosity(count int) error {
	if count < 0 || count > MaxVerbosity {
		return fmt.Errorf("%w of %d. Use a setting between 0 and %d (-vvv)",
			ErrInvalidVerbosity, count, MaxVerbosity)
	}
	SetLevel(Level(count))
	return nil
}

// SetLevel sets the active level.
func SetLevel(l Level) {
	level.Store(int32(l))
}

// CurrentLevel returns the active level.
func CurrentLevel() Level {
	return Level(level.Load())
}

// SetOutput redirects log output. Intended for tests.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// Enabled reports whether messages at l are emitted.
func Enabled(l Level) bool {
	return CurrentLevel() >= l
}

func logf(l Level, prefix, format string, args ...any) {
	if !Enabled(l) {
		return
	}
	logger.Printf(prefix+format, args...)
}

// Warnf always logs.
func Warnf(format string, args ...any) {
	logger.Printf("WARN: "+format, args...)
}

func Infof(format string, args ...any) {
	logf(LevelInfo, "INFO: ", format, args...)
}

func Debugf(format string, args ...any) {
	logf(LevelDebug, "DEBUG: ", format, args...)
}

func Tracef(format string, args ...any) {
	logf(LevelTrace, "TRACE: ", format, args...)
}
