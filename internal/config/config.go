// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config loads and validates the castbridge configuration with
// precedence ENV > file > defaults.
package config

import "time"

// Config is the root configuration document.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	HTTP       HTTPConfig       `yaml:"http"`
	Devices    []DeviceConfig   `yaml:"devices"`
	Bot        BotConfig        `yaml:"bot"`
	Downloader DownloaderConfig `yaml:"downloader"`
}

// LogConfig controls the global logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// HTTPConfig controls the streaming server.
type HTTPConfig struct {
	ListenHost string `yaml:"listen_host"`
	ListenPort int    `yaml:"listen_port"`
	// RequestGoneTimeout is the idle window, in seconds, after which a
	// session with no open transports is reclaimed.
	RequestGoneTimeout int `yaml:"request_gone_timeout"`
	// BlockSize is the remote fetch unit in bytes.
	BlockSize int64 `yaml:"block_size"`
}

// GoneTimeout returns the idle window as a duration.
func (h HTTPConfig) GoneTimeout() time.Duration {
	return time.Duration(h.RequestGoneTimeout) * time.Second
}

// DeviceConfig selects and parameterises one device finder.
type DeviceConfig struct {
	Type           string `yaml:"type"`
	RequestTimeout int    `yaml:"request_timeout"`

	// vlc / kodi
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	User string `yaml:"user"`

	// vlc / web
	Password string `yaml:"password"`
}

// Timeout returns the finder request timeout as a duration.
func (d DeviceConfig) Timeout() time.Duration {
	return time.Duration(d.RequestTimeout) * time.Second
}

// BotConfig carries the keys the core consumes from the bot collaborator.
type BotConfig struct {
	Admins []int64 `yaml:"admins"`
}

// DownloaderConfig controls the URL ingest subprocess.
type DownloaderConfig struct {
	Tool        string `yaml:"tool"`
	Concurrency int    `yaml:"concurrency"`
}

// DeviceTypes enumerates the known finder types.
var DeviceTypes = []string{"upnp", "chromecast", "vlc", "kodi", "web"}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		HTTP: HTTPConfig{
			ListenHost:         "0.0.0.0",
			ListenPort:         8080,
			RequestGoneTimeout: 900,
			BlockSize:          1 << 20,
		},
		Downloader: DownloaderConfig{
			Tool:        "yt-dlp",
			Concurrency: 10,
		},
	}
}
