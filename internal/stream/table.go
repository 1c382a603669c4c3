// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package stream

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/castbridge/internal/metrics"
	"github.com/ManuGH/castbridge/internal/token"
)

// Transport is a handle over one client connection of a stream request.
type Transport struct {
	done <-chan struct{}
}

// NewTransport wraps a request's done channel.
func NewTransport(done <-chan struct{}) *Transport {
	return &Transport{done: done}
}

// Open reports whether the client connection is still alive.
func (t *Transport) Open() bool {
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

// CloseFunc is invoked exactly once when a session is reclaimed.
// remainingPct is the unfinished-block percentage.
type CloseFunc func(tok token.LocalToken, remainingPct float64)

type reclaim struct {
	tok  token.LocalToken
	size int64
}

// SessionTable maps admitted tokens to their streaming state: downloaded
// block offsets, open transports and the idle-reclaim debounce.
type SessionTable struct {
	blockSize int64
	timeout   time.Duration
	logger    zerolog.Logger

	mu         sync.Mutex
	onClose    CloseFunc
	admitted   map[token.LocalToken]struct{}
	downloaded map[token.LocalToken]map[int64]struct{}
	transports map[token.LocalToken]map[*Transport]struct{}
	debounces  map[token.LocalToken]*Debounce[reclaim]
}

// NewSessionTable creates an empty table. timeout is the idle window after
// which a session with no open transports is reclaimed.
func NewSessionTable(blockSize int64, timeout time.Duration, logger zerolog.Logger) *SessionTable {
	return &SessionTable{
		blockSize:  blockSize,
		timeout:    timeout,
		logger:     logger,
		admitted:   make(map[token.LocalToken]struct{}),
		downloaded: make(map[token.LocalToken]map[int64]struct{}),
		transports: make(map[token.LocalToken]map[*Transport]struct{}),
		debounces:  make(map[token.LocalToken]*Debounce[reclaim]),
	}
}

// SetCloseHandler installs the reclaim callback. Must be set before the
// first session is admitted.
func (t *SessionTable) SetCloseHandler(fn CloseFunc) {
	t.mu.Lock()
	t.onClose = fn
	t.mu.Unlock()
}

// Admit registers tok for streaming and arms its idle debounce, so a session
// whose device never connects is still reclaimed.
func (t *SessionTable) Admit(tok token.LocalToken, size int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.admitted[tok]; ok {
		return
	}
	t.admitted[tok] = struct{}{}
	t.downloaded[tok] = make(map[int64]struct{})
	t.transports[tok] = make(map[*Transport]struct{})
	d := NewDebounce(t.timeout, t.reclaimIdle)
	t.debounces[tok] = d
	d.UpdateArgs(reclaim{tok: tok, size: size})
	metrics.ActiveSessions.Inc()
}

// Admitted reports whether tok may stream.
func (t *SessionTable) Admitted(tok token.LocalToken) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.admitted[tok]
	return ok
}

// Evict removes tok without invoking the close handler. Used on explicit
// stop; the reclaim path removes and notifies itself.
func (t *SessionTable) Evict(tok token.LocalToken) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.remove(tok)
}

// Touch feeds the session's idle debounce. Called once per pump iteration.
func (t *SessionTable) Touch(tok token.LocalToken, size int64) {
	t.mu.Lock()
	d, ok := t.debounces[tok]
	t.mu.Unlock()
	if ok {
		d.UpdateArgs(reclaim{tok: tok, size: size})
	}
}

// AddTransport registers a client connection with the session. Idempotent.
func (t *SessionTable) AddTransport(tok token.LocalToken, tr *Transport) {
	t.mu.Lock()
	if set, ok := t.transports[tok]; ok {
		set[tr] = struct{}{}
	}
	t.mu.Unlock()
}

// MarkDownloaded records a successfully delivered block offset.
func (t *SessionTable) MarkDownloaded(tok token.LocalToken, offset int64) {
	t.mu.Lock()
	if set, ok := t.downloaded[tok]; ok {
		set[offset] = struct{}{}
	}
	t.mu.Unlock()
}

// reclaimIdle fires when the idle window elapses. A session with any open
// transport is given another window; otherwise it is removed and the close
// handler is invoked exactly once with the unfinished-block percentage.
func (t *SessionTable) reclaimIdle(a reclaim) {
	t.mu.Lock()
	if _, ok := t.admitted[a.tok]; !ok {
		t.mu.Unlock()
		return
	}

	for tr := range t.transports[a.tok] {
		if tr.Open() {
			t.debounces[a.tok].Reschedule()
			t.mu.Unlock()
			return
		}
	}

	blocks := a.size/t.blockSize + 1
	remaining := blocks - int64(len(t.downloaded[a.tok]))
	remainingPct := float64(remaining) / float64(blocks) * 100

	t.remove(a.tok)
	onClose := t.onClose
	t.mu.Unlock()

	metrics.SessionsReclaimed.Inc()
	metrics.ReclaimedRemainingPct.Observe(remainingPct)
	t.logger.Info().
		Str("token", a.tok.Hex()).
		Float64("remaining_pct", remainingPct).
		Msg("idle session reclaimed")

	if onClose != nil {
		onClose(a.tok, remainingPct)
	}
}

// remove purges all per-token state. Caller holds the lock.
func (t *SessionTable) remove(tok token.LocalToken) {
	if _, ok := t.admitted[tok]; !ok {
		return
	}
	if d := t.debounces[tok]; d != nil {
		d.Stop()
	}
	delete(t.admitted, tok)
	delete(t.downloaded, tok)
	delete(t.transports, tok)
	delete(t.debounces, tok)
	metrics.ActiveSessions.Dec()
}
