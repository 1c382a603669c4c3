// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"
	"sort"
	"strings"
)

// Validate checks the configuration for fatal errors.
func (c Config) Validate() error {
	if c.HTTP.ListenPort < 1 || c.HTTP.ListenPort > 65535 {
		return errf("http.listen_port", "out of range: %d", c.HTTP.ListenPort)
	}
	if c.HTTP.ListenHost == "" {
		return errf("http.listen_host", "must not be empty")
	}
	if c.HTTP.BlockSize <= 0 {
		return errf("http.block_size", "must be positive, got %d", c.HTTP.BlockSize)
	}
	if c.HTTP.RequestGoneTimeout <= 0 {
		return errf("http.request_gone_timeout", "must be positive, got %d", c.HTTP.RequestGoneTimeout)
	}
	if c.Downloader.Concurrency <= 0 {
		return errf("downloader.concurrency", "must be positive, got %d", c.Downloader.Concurrency)
	}

	seen := make(map[string]struct{}, len(c.Devices))
	for i, d := range c.Devices {
		field := fmt.Sprintf("devices[%d]", i)
		if !knownDeviceType(d.Type) {
			return errf(field+".type", "unknown device type %q", d.Type)
		}
		switch d.Type {
		case "vlc", "kodi":
			if d.Host == "" || d.Port == 0 {
				return errf(field, "%s device needs host and port", d.Type)
			}
		}
		key := d.key()
		if _, dup := seen[key]; dup {
			return errf(field, "multiple same devices specified in config")
		}
		seen[key] = struct{}{}
	}
	return nil
}

// key identifies a device config for duplicate detection, order-insensitive
// over its settable fields.
func (d DeviceConfig) key() string {
	parts := []string{
		"type=" + d.Type,
		"host=" + d.Host,
		fmt.Sprintf("port=%d", d.Port),
		"user=" + d.User,
		"password=" + d.Password,
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

func knownDeviceType(t string) bool {
	for _, known := range DeviceTypes {
		if t == known {
			return true
		}
	}
	return false
}
