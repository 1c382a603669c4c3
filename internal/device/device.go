// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package device defines the playback-device abstraction and the discovery
// registry that aggregates pluggable finders.
package device

import (
	"context"
	"net/http"
	"time"

	"github.com/ManuGH/castbridge/internal/token"
)

// Device is a sink that can be instructed to play a URL. Identity is the
// display name; a device is eligible for selection only while present in the
// last finder scan.
type Device interface {
	// Name returns the display name.
	Name() string

	// Play instructs the device to fetch and render url. title is a human
	// label; tok identifies the session for close notifications.
	Play(ctx context.Context, url, title string, tok token.LocalToken) error

	// Stop halts playback.
	Stop(ctx context.Context) error

	// OnClose is invoked exactly once when the session owning tok is
	// reclaimed.
	OnClose(ctx context.Context, tok token.LocalToken) error
}

// PauseResumer is the optional capability pair. Sessions query for it with a
// type assertion; devices lacking it surface ErrActionNotSupported upstream.
type PauseResumer interface {
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
}

// Route is an auxiliary HTTP endpoint contributed by a finder, mounted by the
// streaming server.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Finder discovers or enumerates devices of one transport family.
type Finder interface {
	// Find scans for devices. Implementations respect ctx cancellation.
	Find(ctx context.Context) ([]Device, error)

	// Routes returns endpoints this finder needs on the HTTP surface.
	Routes() []Route

	// Timeout bounds one discovery scan.
	Timeout() time.Duration
}
