// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package playback implements the session state machine linking a local
// token, a playback device and a user-visible control message.
package playback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ManuGH/castbridge/internal/device"
	"github.com/ManuGH/castbridge/internal/metrics"
	"github.com/ManuGH/castbridge/internal/mstore"
	"github.com/ManuGH/castbridge/internal/token"
)

// State of a playback session.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

// Session drives one media item on one device. All operations are safe for
// concurrent use; device commands within one operation run in order.
type Session struct {
	mgr    *Manager
	tok    token.LocalToken
	userID int64
	doc    mstore.DocumentRef
	linkID uint64

	mu        sync.Mutex
	controlID uint64
	device    device.Device
	state     State
}

// Token returns the session identifier.
func (s *Session) Token() token.LocalToken { return s.tok }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Device returns the selected device, or nil.
func (s *Session) Device() device.Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device
}

// Play admits the token for streaming and starts the device: stop first, so
// a renderer already playing something switches over cleanly.
func (s *Session) Play(ctx context.Context) error {
	d := s.Device()
	if d == nil {
		return ErrNoDevice
	}

	s.mgr.streamer.Admit(s.tok, s.doc.Size)
	uri := s.mgr.streamer.StreamURL(s.tok)

	if err := timed("stop", func() error { return d.Stop(ctx) }); err != nil {
		return err
	}
	if err := timed("play", func() error { return d.Play(ctx, uri, s.doc.DisplayName(), s.tok) }); err != nil {
		return err
	}

	s.setState(StatePlaying)
	return s.updateControl(ctx, playingText(s.doc.MessageID, d), playingButtons(s.tok))
}

// Stop halts the device best-effort and revokes the streaming token. When no
// device is selected the control message is still re-rendered before
// ErrNoDevice is reported.
func (s *Session) Stop(ctx context.Context) error {
	d := s.Device()
	if d != nil {
		if err := timed("stop", func() error { return d.Stop(ctx) }); err != nil {
			s.mgr.logger.Warn().Err(err).Str("device", d.Name()).Msg("device stop failed")
		}
	}

	s.mgr.streamer.Evict(s.tok)
	s.setState(StateStopped)

	if err := s.updateControl(ctx, stoppedText(s.doc.MessageID, d), stoppedButtons(s.tok)); err != nil {
		return err
	}
	if d == nil {
		return ErrNoDevice
	}
	return nil
}

// Pause suspends playback on devices that support it.
func (s *Session) Pause(ctx context.Context) error {
	d := s.Device()
	if d == nil {
		return ErrNoDevice
	}
	pr, ok := d.(device.PauseResumer)
	if !ok {
		return ErrActionNotSupported
	}
	if err := timed("pause", func() error { return pr.Pause(ctx) }); err != nil {
		return err
	}
	s.setState(StatePaused)
	return s.updateControl(ctx, pausedText(s.doc.MessageID, d), pausedButtons(s.tok))
}

// Resume is symmetric to Pause.
func (s *Session) Resume(ctx context.Context) error {
	d := s.Device()
	if d == nil {
		return ErrNoDevice
	}
	pr, ok := d.(device.PauseResumer)
	if !ok {
		return ErrActionNotSupported
	}
	if err := timed("resume", func() error { return pr.Resume(ctx) }); err != nil {
		return err
	}
	s.setState(StatePlaying)
	return s.updateControl(ctx, playingText(s.doc.MessageID, d), playingButtons(s.tok))
}

// SelectDevice binds d to the session and remembers it as the user default.
func (s *Session) SelectDevice(ctx context.Context, d device.Device) error {
	s.mu.Lock()
	s.device = d
	s.mu.Unlock()
	s.mgr.setUserDevice(s.userID, d)
	return s.updateControl(ctx, stoppedText(s.doc.MessageID, d), stoppedButtons(s.tok))
}

// SendSelectMenu re-renders the control message as a device picker.
func (s *Session) SendSelectMenu(ctx context.Context, devices []device.Device) error {
	return s.updateControl(ctx, "Select a device", selectButtons(s.tok, devices))
}

// close runs the reclaim path: control message first, then the single
// on-close notification, then removal from the manager. Never raises.
func (s *Session) close(ctx context.Context, remainingPct float64) {
	s.mu.Lock()
	d := s.device
	s.state = StateStopped
	s.mu.Unlock()

	if err := s.updateControl(ctx, closedText(s.doc.MessageID, d, remainingPct), stoppedButtons(s.tok)); err != nil {
		s.mgr.logger.Warn().Err(err).Msg("closed-message update failed")
	}
	if d != nil {
		if err := timed("on_close", func() error { return d.OnClose(ctx, s.tok) }); err != nil {
			s.mgr.logger.Warn().Err(err).Str("device", d.Name()).Msg("device on_close failed")
		}
	}
	s.mgr.remove(s.tok)
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) updateControl(ctx context.Context, text string, buttons [][]Button) error {
	s.mu.Lock()
	controlID := s.controlID
	s.mu.Unlock()

	id, err := s.mgr.messenger.CreateOrUpdateControl(ctx, s.doc.MessageID, controlID, text, buttons)
	if err != nil {
		if errors.Is(err, ErrNotModified) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	s.controlID = id
	s.mu.Unlock()
	return nil
}

func timed(command string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.ObserveDeviceCommand(command, err, time.Since(start))
	return err
}
