// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package stream

import (
	"sync"
	"time"
)

// Debounce is a single-shot resettable delayed callback. At most one task is
// in flight; UpdateArgs cancels a pending task and re-arms with fresh
// arguments, Reschedule re-arms with the remembered ones.
type Debounce[T any] struct {
	timeout time.Duration
	fn      func(T)

	mu    sync.Mutex
	timer *time.Timer
	args  T
	fired bool
	done  bool
}

// NewDebounce creates an unarmed debounce. Nothing is scheduled until the
// first UpdateArgs call.
func NewDebounce[T any](timeout time.Duration, fn func(T)) *Debounce[T] {
	return &Debounce[T]{timeout: timeout, fn: fn}
}

// UpdateArgs cancels any pending task, remembers v and schedules fresh.
// Returns false without scheduling when the previously scheduled task has
// already run, or after Stop.
func (d *Debounce[T]) UpdateArgs(v T) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done {
		return false
	}
	if d.timer != nil {
		if d.fired {
			return false
		}
		d.timer.Stop()
	}
	d.args = v
	d.arm()
	return true
}

// Reschedule re-arms with the remembered arguments, even after the previous
// task completed. No-op after Stop.
func (d *Debounce[T]) Reschedule() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.arm()
}

// Stop cancels any pending task permanently.
func (d *Debounce[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.done = true
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *Debounce[T]) arm() {
	d.fired = false
	d.timer = time.AfterFunc(d.timeout, d.fire)
}

func (d *Debounce[T]) fire() {
	d.mu.Lock()
	if d.done {
		d.mu.Unlock()
		return
	}
	d.fired = true
	args := d.args
	d.mu.Unlock()
	d.fn(args)
}
