// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/castbridge/internal/device"
	"github.com/ManuGH/castbridge/internal/mstore"
	"github.com/ManuGH/castbridge/internal/token"
)

// Streamer is the slice of the streaming server the sessions need.
type Streamer interface {
	Admit(tok token.LocalToken, size int64)
	Evict(tok token.LocalToken)
	StreamURL(tok token.LocalToken) string
}

// Manager owns the playback sessions and the per-user default device.
// Sessions hold a back-reference for admission and removal; the manager is
// also the close handler for the streaming session table.
type Manager struct {
	streamer  Streamer
	store     mstore.Store
	registry  *device.Registry
	messenger ControlMessenger
	logger    zerolog.Logger

	mu          sync.Mutex
	sessions    map[token.LocalToken]*Session
	userDevices map[int64]device.Device
}

// NewManager assembles a manager. Install Manager.HandleClosed as the
// streaming server's close handler.
func NewManager(streamer Streamer, store mstore.Store, registry *device.Registry, messenger ControlMessenger, logger zerolog.Logger) *Manager {
	return &Manager{
		streamer:    streamer,
		store:       store,
		registry:    registry,
		messenger:   messenger,
		logger:      logger,
		sessions:    make(map[token.LocalToken]*Session),
		userDevices: make(map[int64]device.Device),
	}
}

// New creates a session with a fresh token for doc. When d is nil the user's
// default device is used, which may also be nil until one is selected.
func (m *Manager) New(doc mstore.DocumentRef, userID int64, controlID, linkID uint64, d device.Device) *Session {
	if d == nil {
		d = m.UserDevice(userID)
	}
	s := &Session{
		mgr:       m,
		tok:       token.New(doc.MessageID),
		userID:    userID,
		doc:       doc,
		controlID: controlID,
		linkID:    linkID,
		device:    d,
	}

	m.mu.Lock()
	m.sessions[s.tok] = s
	m.mu.Unlock()
	return s
}

// Get returns the live session for tok.
func (m *Manager) Get(tok token.LocalToken) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[tok]
	return s, ok
}

// Reconstruct rebuilds a session after a restart: the document is re-fetched
// and the device recovered from the rendered control text, falling back to
// the user default.
func (m *Manager) Reconstruct(ctx context.Context, tok token.LocalToken, userID int64, controlID uint64, controlText string) (*Session, error) {
	if s, ok := m.Get(tok); ok {
		return s, nil
	}

	doc, err := m.store.Message(ctx, tok.MessageID)
	if err != nil {
		return nil, fmt.Errorf("reconstruct session: %w", err)
	}

	var d device.Device
	if name := ParseDeviceFromText(controlText); name != "" && name != "NONE" {
		d, _ = m.registry.ByName(ctx, name)
	}
	if d == nil {
		d = m.UserDevice(userID)
	}

	s := &Session{
		mgr:       m,
		tok:       tok,
		userID:    userID,
		doc:       doc,
		controlID: controlID,
		device:    d,
	}

	m.mu.Lock()
	m.sessions[tok] = s
	m.mu.Unlock()
	return s, nil
}

// HandleClosed is the reclaim callback of the streaming session table.
func (m *Manager) HandleClosed(tok token.LocalToken, remainingPct float64) {
	s, ok := m.Get(tok)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.close(ctx, remainingPct)
}

// UserDevice returns the user's default device, or nil.
func (m *Manager) UserDevice(userID int64) device.Device {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userDevices[userID]
}

func (m *Manager) setUserDevice(userID int64, d device.Device) {
	m.mu.Lock()
	m.userDevices[userID] = d
	m.mu.Unlock()
}

func (m *Manager) remove(tok token.LocalToken) {
	m.mu.Lock()
	delete(m.sessions, tok)
	m.mu.Unlock()
}

// Dispatch decodes one inline-button payload and performs the action on the
// addressed session, reconstructing it when necessary. The returned string
// is the toast shown to the user; empty means no toast.
func (m *Manager) Dispatch(ctx context.Context, data string, userID int64, controlID uint64, controlText string) (string, error) {
	cb, err := ParseCallback(data)
	if err != nil {
		return "", err
	}

	s, err := m.Reconstruct(ctx, cb.Token, userID, controlID, controlText)
	if err != nil {
		return "", err
	}

	switch {
	case cb.Prefix == PrefixControl && isControlAction(cb.Action):
		return m.dispatchControl(ctx, s, cb.Action), nil

	// the menu actions historically shipped under the control prefix
	case (cb.Prefix == PrefixMenu || cb.Prefix == PrefixControl) && isMenuAction(cb.Action):
		if cb.Action == ActionRefresh {
			m.registry.Refresh(ctx)
		}
		if err := s.SendSelectMenu(ctx, m.registry.All(ctx)); err != nil {
			return "", err
		}
		return "", nil

	case cb.Prefix == PrefixSelect:
		d, ok := m.registry.ByName(ctx, cb.Action)
		if !ok {
			return "Wrong device", nil
		}
		if err := s.SelectDevice(ctx, d); err != nil {
			return "", err
		}
		return "", nil

	default:
		return "", ErrUnknownCallback
	}
}

func (m *Manager) dispatchControl(ctx context.Context, s *Session, action string) string {
	var err error
	var toast string
	switch action {
	case ActionPlay:
		err, toast = s.Play(ctx), "Playing"
	case ActionStop:
		err, toast = s.Stop(ctx), "Stopped"
	case ActionPause:
		err, toast = s.Pause(ctx), "Paused"
	case ActionResume:
		err, toast = s.Resume(ctx), "Resumed"
	}

	switch {
	case err == nil:
		return toast
	case errors.Is(err, ErrNoDevice):
		return "Device not selected"
	case errors.Is(err, ErrActionNotSupported):
		return "Action not supported by the device"
	default:
		m.logger.Error().Err(err).Str("action", action).Msg("device control failed")
		return "Internal error: " + err.Error()
	}
}

func isControlAction(a string) bool {
	switch a {
	case ActionPlay, ActionStop, ActionPause, ActionResume:
		return true
	}
	return false
}

func isMenuAction(a string) bool {
	return a == ActionDevice || a == ActionRefresh
}
