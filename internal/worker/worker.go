// Package worker provides the halt-channel goroutine lifecycle shared by
// the components that run a background loop: spawn with Go, signal and
// await shutdown with Halt.
package worker

import "sync"

// Worker tracks a set of goroutines spawned with Go and lets a caller halt
// and await all of them with a single call.
type Worker struct {
	sync.WaitGroup

	initOnce sync.Once
	haltCh   chan interface{}
}

func (w *Worker) init() {
	w.initOnce.Do(func() {
		w.haltCh = make(chan interface{})
	})
}

// Go spawns fn as a goroutine tracked by the Worker's WaitGroup.
func (w *Worker) Go(fn func()) {
	w.init()
	w.Add(1)
	go func() {
		defer w.Done()
		fn()
	}()
}

// Halt closes the halt channel, signaling every tracked goroutine to stop,
// and blocks until all of them have returned. Idempotent.
func (w *Worker) Halt() {
	w.init()
	select {
	case <-w.haltCh:
		return
	default:
		close(w.haltCh)
	}
	w.Wait()
}

// HaltCh returns the channel that closes when Halt is called.
func (w *Worker) HaltCh() <-chan interface{} {
	w.init()
	return w.haltCh
}
