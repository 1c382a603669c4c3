// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package device

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Registry aggregates finders and caches the last scan.
type Registry struct {
	finders []Finder
	logger  zerolog.Logger

	mu      sync.RWMutex
	devices []Device
}

// NewRegistry creates a registry over the given finders.
func NewRegistry(finders []Finder, logger zerolog.Logger) *Registry {
	return &Registry{finders: finders, logger: logger}
}

// Refresh runs every finder concurrently and replaces the device cache with
// the concatenated results. Each scan is guarded by the finder timeout plus
// one second; timeouts and cancellations yield no devices from that finder.
func (r *Registry) Refresh(ctx context.Context) {
	results := make([][]Device, len(r.finders))

	g, gctx := errgroup.WithContext(ctx)
	for i, finder := range r.finders {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, finder.Timeout()+time.Second)
			defer cancel()

			devices, err := finder.Find(fctx)
			if err != nil {
				if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
					r.logger.Warn().Err(err).Msg("device scan failed")
				}
				return nil
			}
			results[i] = devices
			return nil
		})
	}
	_ = g.Wait()

	var all []Device
	for _, devices := range results {
		for _, d := range devices {
			if d != nil {
				all = append(all, d)
			}
		}
	}

	r.mu.Lock()
	r.devices = all
	r.mu.Unlock()

	r.logger.Debug().Int("devices", len(all)).Msg("device cache refreshed")
}

// All returns the cached devices, refreshing first when the cache is empty.
func (r *Registry) All(ctx context.Context) []Device {
	r.mu.RLock()
	cached := r.devices
	r.mu.RUnlock()
	if len(cached) > 0 {
		return cached
	}

	r.Refresh(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.devices
}

// ByName resolves a device by display name, refreshing lazily like All.
func (r *Registry) ByName(ctx context.Context, name string) (Device, bool) {
	for _, d := range r.All(ctx) {
		if d.Name() == name {
			return d, true
		}
	}
	return nil, false
}

// Routes concatenates the auxiliary endpoints of all finders.
func (r *Registry) Routes() []Route {
	var routes []Route
	for _, finder := range r.finders {
		routes = append(routes, finder.Routes()...)
	}
	return routes
}
