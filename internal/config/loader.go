// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Loader reads the configuration from an optional YAML file and applies
// environment overrides.
type Loader struct {
	path string
}

// NewLoader creates a loader for the given file path. An empty path skips the
// file layer.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load resolves defaults, file and environment in order and validates the
// result.
func (l *Loader) Load() (Config, error) {
	cfg := Default()

	if l.path != "" {
		raw, err := os.ReadFile(l.path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", l.path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", l.path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays CASTBRIDGE_* environment variables.
func applyEnv(cfg *Config) {
	cfg.Log.Level = ParseString("CASTBRIDGE_LOG_LEVEL", cfg.Log.Level)
	cfg.HTTP.ListenHost = ParseString("CASTBRIDGE_LISTEN_HOST", cfg.HTTP.ListenHost)
	cfg.HTTP.ListenPort = parseInt("CASTBRIDGE_LISTEN_PORT", cfg.HTTP.ListenPort)
	cfg.HTTP.RequestGoneTimeout = parseInt("CASTBRIDGE_REQUEST_GONE_TIMEOUT", cfg.HTTP.RequestGoneTimeout)
	cfg.HTTP.BlockSize = parseInt64("CASTBRIDGE_BLOCK_SIZE", cfg.HTTP.BlockSize)
	cfg.Downloader.Tool = ParseString("CASTBRIDGE_DOWNLOADER", cfg.Downloader.Tool)
}

// ParseString returns the environment value for key, or fallback when unset.
func ParseString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func parseInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func parseInt64(key string, fallback int64) int64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

// IsConfigError reports whether err is a configuration error (exit code 2).
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
