// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package kodi drives a Kodi/XBMC instance over its JSON-RPC HTTP endpoint.
// Devices are config-listed; there is no discovery.
package kodi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	castdev "github.com/ManuGH/castbridge/internal/device"
	"github.com/ManuGH/castbridge/internal/token"
)

// Params carries the connection settings for one Kodi instance.
type Params struct {
	Host     string
	Port     int
	User     string
	Password string
}

// Device is a config-listed Kodi endpoint.
type Device struct {
	params Params
	client *http.Client
}

// NewDevice creates a Kodi device.
func NewDevice(params Params) *Device {
	return &Device{
		params: params,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Name implements device.Device.
func (d *Device) Name() string {
	return fmt.Sprintf("kodi @%s", d.params.Host)
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      int    `json:"id"`
}

type rpcResponse struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Result json.RawMessage `json:"result"`
}

func (d *Device) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("http://%s:%d/jsonrpc", d.params.Host, d.params.Port)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if d.params.User != "" {
		req.SetBasicAuth(d.params.User, d.params.Password)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kodi %s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kodi %s: status %d", method, resp.StatusCode)
	}

	var rpc rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
		return nil, fmt.Errorf("kodi %s: decode: %w", method, err)
	}
	if rpc.Error != nil {
		return nil, fmt.Errorf("kodi %s: %s (%d)", method, rpc.Error.Message, rpc.Error.Code)
	}
	return rpc.Result, nil
}

// activePlayers returns the IDs of players Kodi reports as active.
func (d *Device) activePlayers(ctx context.Context) ([]int, error) {
	result, err := d.call(ctx, "Player.GetActivePlayers", nil)
	if err != nil {
		return nil, err
	}
	var players []struct {
		PlayerID int `json:"playerid"`
	}
	if err := json.Unmarshal(result, &players); err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(players))
	for _, p := range players {
		ids = append(ids, p.PlayerID)
	}
	return ids, nil
}

// Play implements device.Device via Player.Open.
func (d *Device) Play(ctx context.Context, url, _ string, _ token.LocalToken) error {
	_, err := d.call(ctx, "Player.Open", map[string]any{
		"item": map[string]any{"file": url},
	})
	return err
}

// Stop halts all active players.
func (d *Device) Stop(ctx context.Context) error {
	ids, err := d.activePlayers(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := d.call(ctx, "Player.Stop", map[string]any{"playerid": id}); err != nil {
			return err
		}
	}
	return nil
}

// OnClose implements device.Device; Kodi needs no teardown.
func (d *Device) OnClose(context.Context, token.LocalToken) error { return nil }

// Pause implements device.PauseResumer via the PlayPause toggle.
func (d *Device) Pause(ctx context.Context) error {
	return d.playPause(ctx)
}

// Resume implements device.PauseResumer.
func (d *Device) Resume(ctx context.Context) error {
	return d.playPause(ctx)
}

func (d *Device) playPause(ctx context.Context) error {
	ids, err := d.activePlayers(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := d.call(ctx, "Player.PlayPause", map[string]any{"playerid": id}); err != nil {
			return err
		}
	}
	return nil
}

// Finder enumerates the single configured Kodi device.
type Finder struct {
	device  *Device
	timeout time.Duration
}

// NewFinder creates a finder for one configured Kodi instance.
func NewFinder(params Params, timeout time.Duration) *Finder {
	return &Finder{device: NewDevice(params), timeout: timeout}
}

// Find implements device.Finder.
func (f *Finder) Find(context.Context) ([]castdev.Device, error) {
	return []castdev.Device{f.device}, nil
}

// Routes implements device.Finder.
func (f *Finder) Routes() []castdev.Route { return nil }

// Timeout implements device.Finder.
func (f *Finder) Timeout() time.Duration { return f.timeout }
