// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package stream

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls []int
}

func (r *recorder) fn(v int) {
	r.mu.Lock()
	r.calls = append(r.calls, v)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.calls...)
}

func TestDebounceLastArgsWin(t *testing.T) {
	rec := &recorder{}
	d := NewDebounce(20*time.Millisecond, rec.fn)

	assert.True(t, d.UpdateArgs(1))
	assert.True(t, d.UpdateArgs(2))

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []int{2}, rec.snapshot())
}

func TestDebounceUpdateAfterFire(t *testing.T) {
	rec := &recorder{}
	d := NewDebounce(10*time.Millisecond, rec.fn)

	require.True(t, d.UpdateArgs(1))
	time.Sleep(40 * time.Millisecond)
	require.Equal(t, []int{1}, rec.snapshot())

	assert.False(t, d.UpdateArgs(2), "completed task is not rescheduled by UpdateArgs")
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, []int{1}, rec.snapshot())
}

func TestDebounceRescheduleReusesArgs(t *testing.T) {
	rec := &recorder{}
	d := NewDebounce(10*time.Millisecond, rec.fn)

	require.True(t, d.UpdateArgs(7))
	time.Sleep(40 * time.Millisecond)
	require.Equal(t, []int{7}, rec.snapshot())

	d.Reschedule()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, []int{7, 7}, rec.snapshot())
}

func TestDebounceStop(t *testing.T) {
	rec := &recorder{}
	d := NewDebounce(10*time.Millisecond, rec.fn)

	require.True(t, d.UpdateArgs(1))
	d.Stop()

	time.Sleep(40 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
	assert.False(t, d.UpdateArgs(2))
}
