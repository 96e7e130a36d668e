package log

import (
	"os"
	"sync"
)

// rotatingWriter is an io.Writer over a log file that can be closed and
// reopened in place, for log rotation via an external tool like logrotate.
type rotatingWriter struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

func newRotatingWriter(path string) (*rotatingWriter, error) {
	f, err := openLogFile(path)
	if err != nil {
		return nil, err
	}
	return &rotatingWriter{path: path, f: f}, nil
}

func openLogFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Write(p)
}

// Rotate closes the current file handle and reopens path, picking up a
// file that an external rotation tool renamed out from under it.
func (w *rotatingWriter) Rotate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.f.Close(); err != nil {
		return err
	}
	f, err := openLogFile(w.path)
	if err != nil {
		return err
	}
	w.f = f
	return nil
}
