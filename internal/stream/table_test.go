// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package stream

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/castbridge/internal/token"
)

type closeRecorder struct {
	mu    sync.Mutex
	calls []float64
}

func (c *closeRecorder) handle(_ token.LocalToken, pct float64) {
	c.mu.Lock()
	c.calls = append(c.calls, pct)
	c.mu.Unlock()
}

func (c *closeRecorder) snapshot() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]float64(nil), c.calls...)
}

func TestReclaimWithoutDownloads(t *testing.T) {
	rec := &closeRecorder{}
	table := NewSessionTable(testBlockSize, 20*time.Millisecond, zerolog.Nop())
	table.SetCloseHandler(rec.handle)

	tok := token.New(1)
	table.Admit(tok, 10*testBlockSize)
	require.True(t, table.Admitted(tok))

	assert.Eventually(t, func() bool {
		return !table.Admitted(tok)
	}, time.Second, 10*time.Millisecond)

	calls := rec.snapshot()
	require.Len(t, calls, 1)
	assert.InDelta(t, 100.0, calls[0], 0.01, "no blocks downloaded, everything remains")
}

func TestReclaimComputesRemainingPercentage(t *testing.T) {
	rec := &closeRecorder{}
	table := NewSessionTable(testBlockSize, 20*time.Millisecond, zerolog.Nop())
	table.SetCloseHandler(rec.handle)

	// size spans blocks 0..9 plus the historical +1 in the total
	size := int64(10 * testBlockSize)
	tok := token.New(2)
	table.Admit(tok, size)
	for i := int64(0); i < 10; i++ {
		table.MarkDownloaded(tok, i*testBlockSize)
	}

	assert.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)

	// blocks = 11, downloaded = 10
	assert.InDelta(t, 100.0/11, rec.snapshot()[0], 0.01)
}

func TestReclaimReschedulesWhileTransportOpen(t *testing.T) {
	rec := &closeRecorder{}
	table := NewSessionTable(testBlockSize, 30*time.Millisecond, zerolog.Nop())
	table.SetCloseHandler(rec.handle)

	tok := token.New(3)
	table.Admit(tok, testBlockSize)

	done := make(chan struct{})
	table.AddTransport(tok, NewTransport(done))

	time.Sleep(100 * time.Millisecond)
	assert.True(t, table.Admitted(tok), "open transport keeps the session alive")
	assert.Empty(t, rec.snapshot())

	close(done)
	assert.Eventually(t, func() bool {
		return !table.Admitted(tok)
	}, time.Second, 10*time.Millisecond)
	assert.Len(t, rec.snapshot(), 1)
}

func TestCloseHandlerInvokedOnce(t *testing.T) {
	rec := &closeRecorder{}
	table := NewSessionTable(testBlockSize, 10*time.Millisecond, zerolog.Nop())
	table.SetCloseHandler(rec.handle)

	tok := token.New(4)
	table.Admit(tok, testBlockSize)

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Len(t, rec.snapshot(), 1)
	assert.False(t, table.Admitted(tok))
}

func TestEvictSkipsCloseHandler(t *testing.T) {
	rec := &closeRecorder{}
	table := NewSessionTable(testBlockSize, 20*time.Millisecond, zerolog.Nop())
	table.SetCloseHandler(rec.handle)

	tok := token.New(5)
	table.Admit(tok, testBlockSize)
	table.Evict(tok)

	assert.False(t, table.Admitted(tok))
	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, rec.snapshot(), "explicit eviction does not notify")
}

func TestTouchKeepsSessionAlive(t *testing.T) {
	rec := &closeRecorder{}
	table := NewSessionTable(testBlockSize, 40*time.Millisecond, zerolog.Nop())
	table.SetCloseHandler(rec.handle)

	tok := token.New(6)
	table.Admit(tok, testBlockSize)

	for i := 0; i < 5; i++ {
		time.Sleep(20 * time.Millisecond)
		table.Touch(tok, testBlockSize)
	}
	assert.True(t, table.Admitted(tok))

	assert.Eventually(t, func() bool {
		return !table.Admitted(tok)
	}, time.Second, 10*time.Millisecond)
}
