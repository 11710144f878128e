// Package testlog routes structured logs to the test log.
package testlog

import (
	"log/slog"
	"sync"
	"testing"
)

// New returns a debug-level logger that writes to t.Log. Records emitted
// after the test has finished are dropped.
func New(t testing.TB) *slog.Logger {
	t.Helper()

	w := &writer{t: t}
	t.Cleanup(w.stop)

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type writer struct {
	t testing.TB

	mu   sync.Mutex
	done bool
}

func (w *writer) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.done = true
}

func (w *writer) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.done {
		w.t.Helper()
		w.t.Log(string(p))
	}
	return len(p), nil
}
