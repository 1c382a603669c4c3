// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	castdev "github.com/ManuGH/castbridge/internal/device"
)

// Routes implements device.Finder. Registration yields a fresh remote token;
// the poll endpoint answers 200 with a URL, 302 when nothing is queued.
func (f *Finder) Routes() []castdev.Route {
	return []castdev.Route{
		{Method: http.MethodGet, Pattern: "/web/api/register/{password}", Handler: f.handleRegister},
		{Method: http.MethodGet, Pattern: "/web/api/poll/{remote_token}", Handler: f.handlePoll},
	}
}

func (f *Finder) handleRegister(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "password") != f.password {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	d := f.register(r.RemoteAddr)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(strconv.FormatUint(d.RemoteToken(), 10)))
}

func (f *Finder) handlePoll(w http.ResponseWriter, r *http.Request) {
	remote, err := strconv.ParseUint(chi.URLParam(r, "remote_token"), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	d, ok := f.lookup(remote)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	d.touch()

	url := d.takeURL()
	if url == "" {
		w.WriteHeader(http.StatusFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(url))
}
