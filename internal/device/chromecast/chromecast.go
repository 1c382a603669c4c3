// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package chromecast discovers Google Cast receivers over mDNS and drives
// them through the go-chromecast client. The client library is synchronous
// and not goroutine-safe, so all calls are marshalled to a single worker.
package chromecast

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	castdev "github.com/ManuGH/castbridge/internal/device"
	"github.com/ManuGH/castbridge/internal/token"
)

// caster is the slice of the cast client the device needs. It exists so
// tests can substitute a fake; the production implementation lives in app.go.
type caster interface {
	Start(addr string, port int) error
	Load(url, contentType string) error
	Pause() error
	Unpause() error
	Stop() error
}

// entry is one discovered receiver.
type entry struct {
	Name string
	Addr string
	Port int
}

// Device is a discovered Chromecast.
type Device struct {
	name string
	addr string
	port int

	w       *worker
	app     caster
	started bool
}

// Name implements device.Device.
func (d *Device) Name() string { return d.name }

func (d *Device) connect() error {
	if d.started {
		return nil
	}
	if err := d.app.Start(d.addr, d.port); err != nil {
		return err
	}
	d.started = true
	return nil
}

// Play loads the URL on the receiver's default media app.
func (d *Device) Play(ctx context.Context, url, _ string, _ token.LocalToken) error {
	return d.w.do(ctx, func() error {
		if err := d.connect(); err != nil {
			return err
		}
		return d.app.Load(url, "video/mp4")
	})
}

// Stop implements device.Device. The receiver keeps its app running until
// the session closes; teardown happens in OnClose.
func (d *Device) Stop(context.Context) error { return nil }

// OnClose stops the media application.
func (d *Device) OnClose(ctx context.Context, _ token.LocalToken) error {
	return d.w.do(ctx, func() error {
		if !d.started {
			return nil
		}
		return d.app.Stop()
	})
}

// Pause implements device.PauseResumer.
func (d *Device) Pause(ctx context.Context) error {
	return d.w.do(ctx, func() error { return d.app.Pause() })
}

// Resume implements device.PauseResumer.
func (d *Device) Resume(ctx context.Context) error {
	return d.w.do(ctx, func() error { return d.app.Unpause() })
}

// Finder discovers receivers over mDNS. Devices are cached per address so a
// rediscovered receiver keeps its established connection.
type Finder struct {
	timeout  time.Duration
	logger   zerolog.Logger
	w        *worker
	discover func(ctx context.Context) ([]entry, error)
	newApp   func() caster

	mu    sync.Mutex
	cache map[string]*Device
}

// NewFinder creates a Chromecast finder.
func NewFinder(timeout time.Duration, logger zerolog.Logger) *Finder {
	f := &Finder{
		timeout: timeout,
		logger:  logger,
		w:       newWorker(),
		cache:   make(map[string]*Device),
	}
	f.discover = f.discoverDNS
	f.newApp = newCastApp
	return f
}

// Find implements device.Finder.
func (f *Finder) Find(ctx context.Context) ([]castdev.Device, error) {
	entries, err := f.discover(ctx)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]castdev.Device, 0, len(entries))
	for _, e := range entries {
		d, ok := f.cache[e.Addr]
		if !ok {
			d = &Device{
				name: e.Name,
				addr: e.Addr,
				port: e.Port,
				w:    f.w,
				app:  f.newApp(),
			}
			f.cache[e.Addr] = d
		}
		out = append(out, d)
	}
	return out, nil
}

// Routes implements device.Finder.
func (f *Finder) Routes() []castdev.Route { return nil }

// Timeout implements device.Finder.
func (f *Finder) Timeout() time.Duration { return f.timeout }
