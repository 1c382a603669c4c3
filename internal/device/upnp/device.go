// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package upnp discovers DLNA media renderers over SSDP and drives their
// AVTransport service, with a GENA event sink for transport-status feedback.
package upnp

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ManuGH/castbridge/internal/token"
)

// avClient is the AVTransport slice the device needs; the goupnp-backed
// implementation lives in finder.go.
type avClient interface {
	FriendlyName() string
	EventURL() string
	SetURI(ctx context.Context, uri, metadata string) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Device is a discovered DLNA renderer.
type Device struct {
	client avClient
	notify *NotifyHandler
	logger zerolog.Logger

	mu        sync.Mutex
	subscribe *subscribeTask
	lastURI   string
}

func newDevice(client avClient, notify *NotifyHandler, logger zerolog.Logger) *Device {
	return &Device{client: client, notify: notify, logger: logger}
}

// Name implements device.Device.
func (d *Device) Name() string { return d.client.FriendlyName() }

// Stop implements device.Device. Renderers answer "transition not available"
// or "action stop failed" when already idle; both are fine.
func (d *Device) Stop(ctx context.Context) error {
	err := d.client.Stop(ctx)
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "transition not available") || strings.Contains(msg, "action stop failed") {
		return nil
	}
	return err
}

// Play sets the transport URI with DIDL-Lite metadata, registers for events
// and starts playback.
func (d *Device) Play(ctx context.Context, streamURL, title string, tok token.LocalToken) error {
	meta := didlMetadata(title, streamURL)
	if err := d.client.SetURI(ctx, streamURL, meta); err != nil {
		return err
	}

	d.notify.add(tok, d)

	callback, err := notifyCallbackURL(streamURL, tok)
	if err != nil {
		return err
	}

	d.mu.Lock()
	if d.subscribe != nil {
		d.subscribe.close()
	}
	d.subscribe = newSubscribeTask(d.client.EventURL(), callback, d.logger)
	d.subscribe.start()
	d.lastURI = streamURL
	d.mu.Unlock()

	return d.client.Play(ctx)
}

// Pause implements device.PauseResumer.
func (d *Device) Pause(ctx context.Context) error {
	return d.client.Pause(ctx)
}

// Resume implements device.PauseResumer.
func (d *Device) Resume(ctx context.Context) error {
	return d.client.Play(ctx)
}

// reconnect reissues Play after an error/silence sequence.
func (d *Device) reconnect(ctx context.Context) error {
	return d.client.Play(ctx)
}

// OnClose tears down the event subscription and unregisters the token.
func (d *Device) OnClose(_ context.Context, tok token.LocalToken) error {
	d.mu.Lock()
	if d.subscribe != nil {
		d.subscribe.close()
		d.subscribe = nil
	}
	d.mu.Unlock()

	d.notify.remove(tok)
	return nil
}

// notifyCallbackURL derives the event-sink URL from the stream URL: same
// host and port, the notify path for this token.
func notifyCallbackURL(streamURL string, tok token.LocalToken) (string, error) {
	u, err := url.Parse(streamURL)
	if err != nil {
		return "", fmt.Errorf("parse stream url: %w", err)
	}
	u.Path = "/upnp/notify/" + tok.Hex()
	u.RawQuery = ""
	return u.String(), nil
}
