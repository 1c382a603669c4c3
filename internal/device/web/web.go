// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package web implements the polled browser pseudo-device. A page registers
// itself for a shared password, receives a remote token, and long-polls for
// the next URL to play.
package web

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	castdev "github.com/ManuGH/castbridge/internal/device"
	"github.com/ManuGH/castbridge/internal/token"
)

// Device is one registered browser.
type Device struct {
	mu        sync.Mutex
	name      string
	remote    uint64
	urlToPlay string
	touched   time.Time

	finder *Finder
}

// Name implements device.Device.
func (d *Device) Name() string { return d.name }

// Play stores the URL for the next poll.
func (d *Device) Play(_ context.Context, url, _ string, _ token.LocalToken) error {
	d.mu.Lock()
	d.urlToPlay = url
	d.mu.Unlock()
	return nil
}

// Stop clears any pending URL.
func (d *Device) Stop(context.Context) error {
	d.mu.Lock()
	d.urlToPlay = ""
	d.mu.Unlock()
	return nil
}

// OnClose removes the device from its finder.
func (d *Device) OnClose(context.Context, token.LocalToken) error {
	d.finder.remove(d.remote)
	return nil
}

// RemoteToken returns the registration token.
func (d *Device) RemoteToken() uint64 { return d.remote }

// touch records a manipulation and returns the previous timestamp.
func (d *Device) touch() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	old := d.touched
	d.touched = time.Now()
	return old
}

// takeURL returns and clears the pending URL.
func (d *Device) takeURL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	url := d.urlToPlay
	d.urlToPlay = ""
	return url
}

// Finder tracks registered web devices and expires stale ones.
type Finder struct {
	password string
	timeout  time.Duration

	mu      sync.Mutex
	devices map[uint64]*Device
}

// NewFinder creates a web-device finder. password guards registration;
// timeout expires devices that stopped polling.
func NewFinder(password string, timeout time.Duration) *Finder {
	return &Finder{
		password: password,
		timeout:  timeout,
		devices:  make(map[uint64]*Device),
	}
}

// Timeout implements device.Finder.
func (f *Finder) Timeout() time.Duration { return f.timeout }

// Find returns the registered devices, dropping those whose last poll is
// older than the request timeout.
func (f *Finder) Find(context.Context) ([]castdev.Device, error) {
	min := time.Now().Add(-f.timeout)

	f.mu.Lock()
	defer f.mu.Unlock()

	for remote, d := range f.devices {
		if d.touch().Before(min) {
			delete(f.devices, remote)
		}
	}

	out := make([]castdev.Device, 0, len(f.devices))
	for _, d := range f.devices {
		out = append(out, d)
	}
	return out, nil
}

func (f *Finder) register(remoteAddr string) *Device {
	d := &Device{
		name:    fmt.Sprintf("web @(%s)", remoteAddr),
		remote:  randToken(),
		touched: time.Now(),
		finder:  f,
	}

	f.mu.Lock()
	f.devices[d.remote] = d
	f.mu.Unlock()
	return d
}

func (f *Finder) lookup(remote uint64) (*Device, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.devices[remote]
	return d, ok
}

func (f *Finder) remove(remote uint64) {
	f.mu.Lock()
	delete(f.devices, remote)
	f.mu.Unlock()
}

func randToken() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("web: rand: %v", err))
	}
	return binary.BigEndian.Uint64(buf[:])
}
