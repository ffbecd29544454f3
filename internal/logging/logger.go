// Package logging sets up mixplay's levelled subsystem loggers and renders
// the compiled mix as a plain-text stage table.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/decred/slog"
)

// Subsystem tags
const (
	TagMain    = "MAIN"
	TagMixer   = "MIXR"
	TagSession = "SESS"
)

// DefaultLevel is used when no level is requested
const DefaultLevel = "warn"

// DebugLogFile is where TUI mode sends log output, since the terminal belongs
// to the interface
const DebugLogFile = "mixplay-debug.log"

// Loggers holds one logger per subsystem, all sharing a backend
type Loggers struct {
	Main    slog.Logger
	Mixer   slog.Logger
	Session slog.Logger

	closer io.Closer
}

// New creates subsystem loggers writing to w at level (trace, debug, info,
// warn, error, critical or off)
func New(w io.Writer, level string) (*Loggers, error) {
	if level == "" {
		level = DefaultLevel
	}
	lvl, ok := slog.LevelFromString(strings.ToLower(level))
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	backend := slog.NewBackend(w)
	l := &Loggers{
		Main:    backend.Logger(TagMain),
		Mixer:   backend.Logger(TagMixer),
		Session: backend.Logger(TagSession),
	}
	l.SetLevel(lvl)
	return l, nil
}

// NewFile creates loggers appending to the file at path. Close releases it.
func NewFile(path, level string) (*Loggers, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	l, err := New(f, level)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	l.closer = f
	return l, nil
}

// SetLevel changes the level of every subsystem
func (l *Loggers) SetLevel(level slog.Level) {
	l.Main.SetLevel(level)
	l.Mixer.SetLevel(level)
	l.Session.SetLevel(level)
}

// Close releases the log file, if any
func (l *Loggers) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
