// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package upnp

import (
	"io"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ManuGH/castbridge/internal/token"
)

// deviceStatus tracks the eventing state of one playing session.
type deviceStatus struct {
	device  *Device
	playing bool
	errored bool
}

// NotifyHandler is the GENA event sink shared by all UPnP devices. Renderers
// POST AVT events to /upnp/notify/{token}; the handler reconnects a renderer
// that errors out mid-play and then goes silent.
type NotifyHandler struct {
	logger zerolog.Logger

	mu      sync.Mutex
	devices map[token.LocalToken]*deviceStatus
}

// NewNotifyHandler creates an empty event sink.
func NewNotifyHandler(logger zerolog.Logger) *NotifyHandler {
	return &NotifyHandler{
		logger:  logger,
		devices: make(map[token.LocalToken]*deviceStatus),
	}
}

func (h *NotifyHandler) add(tok token.LocalToken, d *Device) {
	h.mu.Lock()
	h.devices[tok] = &deviceStatus{device: d}
	h.mu.Unlock()
}

func (h *NotifyHandler) remove(tok token.LocalToken) {
	h.mu.Lock()
	delete(h.devices, tok)
	h.mu.Unlock()
}

// ServeNotify handles one NOTIFY request.
func (h *NotifyHandler) ServeNotify(w http.ResponseWriter, r *http.Request) {
	tok, err := token.Parse(chi.URLParam(r, "token"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	status, ok := h.devices[tok]
	h.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	event := parseEventStatus(body)

	h.mu.Lock()
	if event == StatusPlaying {
		status.playing = true
	}
	if event == StatusError && status.playing {
		status.errored = true
	}
	reconnect := status.errored && event == StatusNothing
	if reconnect {
		status.errored = false
		status.playing = false
	}
	device := status.device
	h.mu.Unlock()

	if reconnect {
		h.logger.Info().Str("device", device.Name()).Msg("renderer went silent after error, reissuing play")
		if err := device.reconnect(r.Context()); err != nil {
			h.logger.Warn().Err(err).Str("device", device.Name()).Msg("reconnect failed")
		}
	}

	w.WriteHeader(http.StatusOK)
}
