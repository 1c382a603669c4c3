// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package stream implements the ranged HTTP streaming server: it translates
// inbound range requests into block-aligned fetches from the remote document
// store, tracks per-session transports and downloaded blocks, and reclaims
// idle sessions.
package stream

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/castbridge/internal/config"
	"github.com/ManuGH/castbridge/internal/device"
	"github.com/ManuGH/castbridge/internal/mstore"
	"github.com/ManuGH/castbridge/internal/stream/middleware"
	"github.com/ManuGH/castbridge/internal/token"
)

//go:embed static
var staticFS embed.FS

// Server is the streaming HTTP server.
type Server struct {
	cfg       config.HTTPConfig
	blockSize int64
	store     mstore.Store
	table     *SessionTable
	registry  *device.Registry
	logger    zerolog.Logger
	router    *chi.Mux
}

// New assembles the server and its router. The session close handler is
// installed separately with SetCloseHandler before serving, the playback
// manager that provides it is constructed after the server.
func New(cfg config.HTTPConfig, store mstore.Store, registry *device.Registry, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		blockSize: cfg.BlockSize,
		store:     store,
		table:     NewSessionTable(cfg.BlockSize, cfg.GoneTimeout(), logger),
		registry:  registry,
		logger:    logger,
	}
	s.router = s.buildRouter()
	return s
}

// SetCloseHandler installs the reclaim callback on the session table.
func (s *Server) SetCloseHandler(fn CloseFunc) {
	s.table.SetCloseHandler(fn)
}

func (s *Server) buildRouter() *chi.Mux {
	r := chi.NewRouter()
	middleware.Apply(r, middleware.StackConfig{
		EnableMetrics:  true,
		TracingService: "castbridge",
		EnableLogging:  true,
	})

	r.Get("/healthcheck", s.handleHealthcheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/stream/{messageID}/{token}", func(r chi.Router) {
		r.Get("/", s.handleStream)
		r.Head("/", s.handleStream)
		r.Options("/", s.handleProbe)
		r.Put("/", s.handleProbe)
	})

	assets, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(fmt.Sprintf("stream: embedded assets: %v", err))
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(assets))))

	// device endpoints (web register/poll, event NOTIFY) are rate limited
	// per IP; the stream path never is, a renderer retrying into a 429
	// looks like a broken file to the user
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(120, time.Minute))
		for _, route := range s.registry.Routes() {
			if !standardMethod(route.Method) {
				chi.RegisterMethod(route.Method)
			}
			r.Method(route.Method, route.Pattern, route.Handler)
		}
	})

	return r
}

func standardMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}

// Router exposes the handler tree, mainly for tests.
func (s *Server) Router() http.Handler { return s.router }

// Admit registers tok for streaming.
func (s *Server) Admit(tok token.LocalToken, size int64) {
	s.table.Admit(tok, size)
}

// Evict removes tok without invoking the close handler.
func (s *Server) Evict(tok token.LocalToken) {
	s.table.Evict(tok)
}

// StreamURL derives the playback URI a device is pointed at.
func (s *Server) StreamURL(tok token.LocalToken) string {
	return fmt.Sprintf("http://%s/stream/%d/%s",
		net.JoinHostPort(s.cfg.ListenHost, strconv.Itoa(s.cfg.ListenPort)),
		tok.MessageID, tok.Hex())
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort(s.cfg.ListenHost, strconv.Itoa(s.cfg.ListenPort)),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		// no WriteTimeout: stream responses are open-ended
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info().Str("addr", srv.Addr).Msg("streaming server listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
