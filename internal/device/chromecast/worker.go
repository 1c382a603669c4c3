// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package chromecast

import (
	"context"
	"sync"
)

// worker serializes all cast-protocol calls onto one goroutine. The
// underlying client library keeps per-connection state and is not safe for
// concurrent use, so every command for every Chromecast goes through here.
type worker struct {
	once  sync.Once
	calls chan func()
}

func newWorker() *worker {
	return &worker{calls: make(chan func(), 16)}
}

func (w *worker) start() {
	w.once.Do(func() {
		go func() {
			for fn := range w.calls {
				fn()
			}
		}()
	})
}

// do runs fn on the worker goroutine and waits for it, honouring ctx while
// waiting. The call itself is not interrupted by cancellation.
func (w *worker) do(ctx context.Context, fn func() error) error {
	w.start()

	done := make(chan error, 1)
	select {
	case w.calls <- func() { done <- fn() }:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
