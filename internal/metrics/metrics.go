// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package metrics holds the Prometheus collectors for the streaming core.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BytesStreamed counts payload bytes written to stream clients.
	BytesStreamed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "castbridge_stream_bytes_total",
		Help: "Payload bytes written to streaming clients",
	})

	// BlocksFetched counts block fetches from the remote document store.
	BlocksFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "castbridge_store_blocks_total",
		Help: "Block fetches from the remote document store by result",
	}, []string{"result"})

	// ActiveSessions tracks tokens currently admitted for streaming.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "castbridge_sessions_active",
		Help: "Tokens currently admitted for streaming",
	})

	// SessionsReclaimed counts idle-timeout reclamations.
	SessionsReclaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "castbridge_sessions_reclaimed_total",
		Help: "Sessions torn down by the idle reclaimer",
	})

	// ReclaimedRemainingPct observes the unfinished-block percentage at
	// reclaim time.
	ReclaimedRemainingPct = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "castbridge_sessions_remaining_percent",
		Help:    "Unfinished-block percentage observed at session reclaim",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 75, 90, 100},
	})

	// DeviceCommandDuration tracks device command round-trips.
	DeviceCommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "castbridge_device_command_duration_seconds",
		Help:    "Device command latencies by command and outcome",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"command", "ok"})

	// DevicesDiscovered reports the size of the last finder scan.
	DevicesDiscovered = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "castbridge_devices_discovered",
		Help: "Devices present in the last registry scan",
	})
)

// ObserveDeviceCommand records one device command round-trip.
func ObserveDeviceCommand(command string, err error, duration time.Duration) {
	DeviceCommandDuration.WithLabelValues(command, strconv.FormatBool(err == nil)).Observe(duration.Seconds())
}

// IncBlockFetch records a block fetch outcome.
func IncBlockFetch(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	BlocksFetched.WithLabelValues(result).Inc()
}
