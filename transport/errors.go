package transport

import "fmt"

// TransportError is a fatal, connection-level failure: bad header, bad key
// hash, unsupported version, non-binary frame, wrong block size, block
// authentication failure.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func newTransportError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Err: err}
}

func newTransportErrorf(op, format string, a ...interface{}) error {
	return &TransportError{Op: op, Err: fmt.Errorf(format, a...)}
}
