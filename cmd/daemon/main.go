// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/castbridge/internal/config"
	"github.com/ManuGH/castbridge/internal/device"
	cblog "github.com/ManuGH/castbridge/internal/log"
	"github.com/ManuGH/castbridge/internal/metrics"
	"github.com/ManuGH/castbridge/internal/playback"
	"github.com/ManuGH/castbridge/internal/stream"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

const (
	exitOK        = 0
	exitFailure   = 1
	exitBadConfig = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("castbridge", flag.ExitOnError)
	showVersion := fs.Bool("version", false, "print version and exit")
	configPath := fs.String("config", "", "path to config file (YAML)")
	healthcheck := fs.Bool("healthcheck", false, "probe a running daemon and exit")
	_ = fs.Parse(args)

	if *showVersion {
		fmt.Printf("castbridge %s (commit: %s, built: %s)\n", version, commit, buildDate)
		return exitOK
	}

	cblog.Configure(cblog.Config{Level: "info", Service: "castbridge", Version: version})
	logger := cblog.WithComponent("daemon")

	cfg, err := config.NewLoader(*configPath).Load()
	if err != nil {
		logger.Error().Err(err).Str("config_path", *configPath).Msg("failed to load configuration")
		return exitBadConfig
	}

	cblog.Reconfigure(cblog.Config{Level: cfg.Log.Level, Service: "castbridge", Version: version})

	if *healthcheck {
		return runHealthcheckCLI(cfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := buildStore()
	if err != nil {
		logger.Error().Err(err).Msg("store setup failed")
		return exitFailure
	}

	finders, err := buildFinders(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("device setup failed")
		return exitBadConfig
	}
	registry := device.NewRegistry(finders, cblog.WithComponent("devices"))

	server := stream.New(cfg.HTTP, store, registry, cblog.WithComponent("http"))
	manager := playback.NewManager(server, store, registry, newControlLog(cblog.WithComponent("control")), cblog.WithComponent("playback"))
	server.SetCloseHandler(manager.HandleClosed)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Run(gctx)
	})

	// an initial scan so the first device menu is not empty
	g.Go(func() error {
		registry.Refresh(gctx)
		metrics.DevicesDiscovered.Set(float64(len(registry.All(gctx))))
		return nil
	})

	if *configPath != "" {
		g.Go(func() error {
			return config.Watch(gctx, *configPath, cblog.WithComponent("config"), func() {
				logger.Info().Msg("configuration changed, refreshing devices")
				registry.Refresh(gctx)
			})
		})
	}

	logger.Info().Str("version", version).Msg("castbridge started")
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("daemon exited with error")
		return exitFailure
	}
	return exitOK
}
