// Package log wraps gopkg.in/op/go-logging.v1 into the stdout/file/discard
// backend every component in this module logs through.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	logging "gopkg.in/op/go-logging.v1"
)

var logFormat = logging.MustStringFormatter(
	"%{color}%{level:.4s}%{color:reset} %{time:2006-01-02T15:04:05.000} %{module} %{message}",
)

// Backend is a process-wide logging sink: one gopkg.in/op/go-logging.v1
// leveled backend, with loggers handed out per module name.
type Backend struct {
	mu       sync.RWMutex
	backend  logging.LeveledBackend
	rotateFn func() error
}

// New builds a Backend writing to f ("", "-", or a file path), filtered at
// level, or a no-op Backend if disable is true.
func New(f, level string, disable bool) (*Backend, error) {
	b := &Backend{}
	backend, rotateFn, err := newBackend(f, level, disable)
	if err != nil {
		return nil, err
	}
	b.backend = backend
	b.rotateFn = rotateFn
	return b, nil
}

func newBackend(f, level string, disable bool) (logging.LeveledBackend, func() error, error) {
	lvl, err := logLevelFromString(level)
	if err != nil {
		return nil, nil, err
	}

	var w io.Writer
	var rotate func() error
	switch {
	case disable:
		w = io.Discard
		rotate = func() error { return nil }
	case f == "" || f == "-":
		w = os.Stdout
		rotate = func() error { return nil }
	default:
		rw, err := newRotatingWriter(f)
		if err != nil {
			return nil, nil, err
		}
		w = rw
		rotate = rw.Rotate
	}

	base := logging.NewLogBackend(w, "", 0)
	formatted := logging.NewBackendFormatter(base, logFormat)
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(lvl, "")
	return leveled, rotate, nil
}

// GetLogger returns a *logging.Logger scoped to module, backed by this
// Backend's current settings.
func (b *Backend) GetLogger(module string) *logging.Logger {
	l := logging.MustGetLogger(module)
	b.mu.RLock()
	defer b.mu.RUnlock()
	l.SetBackend(b.backend)
	return l
}

// SetLevel adjusts the filter level for all loggers sharing this backend.
func (b *Backend) SetLevel(level string) error {
	lvl, err := logLevelFromString(level)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.backend.SetLevel(lvl, "")
	return nil
}

// Rotate closes and reopens the underlying log file, a no-op for stdout or
// a disabled backend.
func (b *Backend) Rotate() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rotateFn == nil {
		return nil
	}
	return b.rotateFn()
}

func logLevelFromString(level string) (logging.Level, error) {
	switch strings.ToUpper(level) {
	case "ERROR":
		return logging.ERROR, nil
	case "WARNING", "WARN":
		return logging.WARNING, nil
	case "INFO", "":
		return logging.INFO, nil
	case "DEBUG":
		return logging.DEBUG, nil
	default:
		return 0, fmt.Errorf("log: invalid log level %q", level)
	}
}
