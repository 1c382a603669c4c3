// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package ingest downloads media from URLs through an external downloader
// tool so it can be uploaded to the message store and cast from there.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/ManuGH/castbridge/internal/config"
)

// Result describes one completed download. The paths live inside a temp
// directory owned by the ingester; they are valid until the release callback
// runs.
type Result struct {
	VideoPath     string
	ThumbnailPath string // empty when the tool produces none
	Title         string
	Width         int
	Height        int
}

// Ingester runs the configured downloader tool with bounded concurrency.
type Ingester struct {
	tool   string
	sem    *semaphore.Weighted
	logger zerolog.Logger

	// runCommand is swapped by tests
	runCommand func(ctx context.Context, dir string, name string, args ...string) error
}

// New creates an ingester from the downloader configuration.
func New(cfg config.DownloaderConfig, logger zerolog.Logger) *Ingester {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Ingester{
		tool:       cfg.Tool,
		sem:        semaphore.NewWeighted(int64(concurrency)),
		logger:     logger,
		runCommand: runCommand,
	}
}

// Download fetches url into a fresh temp directory and returns the result
// plus a release callback. The callback removes the directory and must be
// called on every path, including after errors from the caller's own
// processing. On error the directory is already gone.
func (i *Ingester) Download(ctx context.Context, url string) (Result, func(), error) {
	if err := i.sem.Acquire(ctx, 1); err != nil {
		return Result{}, nil, err
	}

	dir, err := os.MkdirTemp("", "castbridge-ingest-*")
	if err != nil {
		i.sem.Release(1)
		return Result{}, nil, fmt.Errorf("ingest: temp dir: %w", err)
	}

	release := func() {
		if err := os.RemoveAll(dir); err != nil {
			i.logger.Warn().Err(err).Str("dir", dir).Msg("temp dir cleanup failed")
		}
		i.sem.Release(1)
	}

	result, err := i.run(ctx, dir, url)
	if err != nil {
		release()
		return Result{}, nil, err
	}
	return result, release, nil
}

func (i *Ingester) run(ctx context.Context, dir, url string) (Result, error) {
	switch i.tool {
	case "yt-dlp":
		return i.runYtDlp(ctx, dir, url)
	case "you-get":
		return i.runYouGet(ctx, dir, url)
	default:
		return Result{}, fmt.Errorf("ingest: unknown downloader tool %q", i.tool)
	}
}

func (i *Ingester) runYtDlp(ctx context.Context, dir, url string) (Result, error) {
	video := filepath.Join(dir, "video1.mp4")
	err := i.runCommand(ctx, dir, "yt-dlp",
		"-v", "-f", "mp4", "-o", video,
		"--write-thumbnail", "--write-info-json", "--convert-thumbnails", "jpg",
		url)
	if err != nil {
		return Result{}, fmt.Errorf("ingest: yt-dlp: %w", err)
	}

	info, err := parseInfoJSON(filepath.Join(dir, "video1.info.json"))
	if err != nil {
		return Result{}, err
	}

	return Result{
		VideoPath:     video,
		ThumbnailPath: filepath.Join(dir, "video1.jpg"),
		Title:         info.Title,
		Width:         info.Width,
		Height:        info.Height,
	}, nil
}

func (i *Ingester) runYouGet(ctx context.Context, dir, url string) (Result, error) {
	output := filepath.Join(dir, "video1")
	if err := i.runCommand(ctx, dir, "you-get", "-O", output, url); err != nil {
		return Result{}, fmt.Errorf("ingest: you-get: %w", err)
	}
	return Result{VideoPath: output + ".mp4"}, nil
}

type videoInfo struct {
	Title  string `json:"title"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func parseInfoJSON(path string) (videoInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return videoInfo{}, fmt.Errorf("ingest: info json: %w", err)
	}
	var info videoInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return videoInfo{}, fmt.Errorf("ingest: info json: %w", err)
	}
	return info, nil
}

func runCommand(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, truncate(out, 512))
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
