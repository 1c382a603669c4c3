// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package vlc drives a VLC instance over its telnet control interface.
// There is no discovery; the device comes straight from configuration.
package vlc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"

	castdev "github.com/ManuGH/castbridge/internal/device"
	"github.com/ManuGH/castbridge/internal/token"
)

const (
	readBuffer = 4096
	dialJitter = 2 * time.Second
)

var (
	lineEnd = []byte("\n\r")
	// telnet IAC WILL ECHO: VLC prompts for a password with this suffix.
	authMagic = []byte{0xff, 0xfb, 0x01}
	// telnet IAC WONT ECHO followed by the welcome banner on success.
	authOK = []byte("\xff\xfc\x01\r\nWelcome")
)

// ErrAuthFailed is returned when VLC rejects the configured password.
var ErrAuthFailed = errors.New("vlc: authentication failed")

// Params carries the connection settings for one VLC instance.
type Params struct {
	Host     string
	Port     int
	Password string
}

// Device is a config-listed VLC endpoint.
type Device struct {
	params Params
	logger zerolog.Logger
}

// NewDevice creates a VLC device.
func NewDevice(params Params, logger zerolog.Logger) *Device {
	return &Device{params: params, logger: logger}
}

// Name implements device.Device.
func (d *Device) Name() string {
	return fmt.Sprintf("vlc @%s", d.params.Host)
}

// Play queues the URL and starts playback.
func (d *Device) Play(ctx context.Context, url, _ string, _ token.LocalToken) error {
	if err := d.call(ctx, "add", url); err != nil {
		return err
	}
	return d.call(ctx, "play")
}

// Stop halts playback.
func (d *Device) Stop(ctx context.Context) error {
	return d.call(ctx, "stop")
}

// OnClose implements device.Device; VLC needs no teardown.
func (d *Device) OnClose(context.Context, token.LocalToken) error { return nil }

// Pause implements device.PauseResumer.
func (d *Device) Pause(ctx context.Context) error {
	return d.call(ctx, "pause")
}

// Resume implements device.PauseResumer. The telnet pause command toggles.
func (d *Device) Resume(ctx context.Context) error {
	return d.call(ctx, "pause")
}

// call opens a fresh telnet connection, completes the auth handshake when
// prompted, and writes one command line.
func (d *Device) call(ctx context.Context, command string, args ...string) error {
	addr := net.JoinHostPort(d.params.Host, fmt.Sprintf("%d", d.params.Port))

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("vlc dial %s: %w", addr, err)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(dialJitter + 3*time.Second))
	}

	banner := make([]byte, readBuffer)
	n, err := conn.Read(banner)
	if err != nil {
		return fmt.Errorf("vlc banner: %w", err)
	}

	if hasSuffix(banner[:n], authMagic) {
		if d.params.Password == "" {
			d.logger.Error().Str("host", d.params.Host).Msg("vlc needs a password")
			return ErrAuthFailed
		}

		if _, err := conn.Write(append([]byte(d.params.Password), lineEnd...)); err != nil {
			return fmt.Errorf("vlc auth: %w", err)
		}

		reply := make([]byte, readBuffer)
		n, err := conn.Read(reply)
		if err != nil {
			return fmt.Errorf("vlc auth reply: %w", err)
		}
		if !hasPrefix(reply[:n], authOK) {
			d.logger.Error().Str("host", d.params.Host).Msg("vlc rejected password")
			return ErrAuthFailed
		}
	}

	line := command
	if len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}
	if _, err := conn.Write(append([]byte(line), lineEnd...)); err != nil {
		return fmt.Errorf("vlc write: %w", err)
	}
	return nil
}

func hasSuffix(b, suffix []byte) bool {
	return len(b) >= len(suffix) && string(b[len(b)-len(suffix):]) == string(suffix)
}

func hasPrefix(b, prefix []byte) bool {
	return len(b) >= len(prefix) && string(b[:len(prefix)]) == string(prefix)
}

// Finder enumerates the single configured VLC device.
type Finder struct {
	device  *Device
	timeout time.Duration
}

// NewFinder creates a finder for one configured VLC instance.
func NewFinder(params Params, timeout time.Duration, logger zerolog.Logger) *Finder {
	return &Finder{device: NewDevice(params, logger), timeout: timeout}
}

// Find implements device.Finder.
func (f *Finder) Find(context.Context) ([]castdev.Device, error) {
	return []castdev.Device{f.device}, nil
}

// Routes implements device.Finder.
func (f *Finder) Routes() []castdev.Route { return nil }

// Timeout implements device.Finder.
func (f *Finder) Timeout() time.Duration { return f.timeout }
