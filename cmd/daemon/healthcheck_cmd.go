// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ManuGH/castbridge/internal/config"
)

// runHealthcheckCLI probes a running daemon, for container health checks.
func runHealthcheckCLI(cfg config.Config) int {
	host := cfg.HTTP.ListenHost
	if host == "0.0.0.0" || host == "" {
		host = "127.0.0.1"
	}
	url := fmt.Sprintf("http://%s:%d/healthcheck", host, cfg.HTTP.ListenPort)

	client := http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "healthcheck failed (network): %v\n", err)
		return exitFailure
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "healthcheck failed (status): %s\n", resp.Status)
		return exitFailure
	}

	fmt.Println("healthcheck successful")
	return exitOK
}
