// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package middleware provides the HTTP ingress middleware stack for the
// streaming server.
package middleware

import (
	"github.com/go-chi/chi/v5"

	cblog "github.com/ManuGH/castbridge/internal/log"
)

// StackConfig configures the canonical ingress middleware stack.
type StackConfig struct {
	EnableMetrics  bool
	TracingService string // empty disables tracing
	EnableLogging  bool
}

// Apply installs the stack on r in canonical order.
func Apply(r chi.Router, cfg StackConfig) {
	// Recoverer first, RequestID early for correlation.
	r.Use(Recoverer)
	r.Use(RequestID)
	if cfg.EnableMetrics {
		r.Use(Metrics())
	}
	if cfg.TracingService != "" {
		r.Use(Tracing(cfg.TracingService))
	}
	if cfg.EnableLogging {
		r.Use(cblog.Middleware())
	}
}
