// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ManuGH/castbridge/internal/playback"
)

// controlLog renders control messages to the log. It stands in for the chat
// bot collaborator, which owns the real user-facing surface and implements
// playback.ControlMessenger against its messaging API.
type controlLog struct {
	logger zerolog.Logger
	nextID atomic.Uint64
}

func newControlLog(logger zerolog.Logger) *controlLog {
	c := &controlLog{logger: logger}
	c.nextID.Store(1)
	return c
}

func (c *controlLog) CreateOrUpdateControl(_ context.Context, videoMessageID, controlID uint64, text string, buttons [][]playback.Button) (uint64, error) {
	if controlID == 0 {
		controlID = c.nextID.Add(1)
	}

	labels := make([]string, 0, len(buttons))
	for _, row := range buttons {
		for _, b := range row {
			labels = append(labels, b.Text)
		}
	}

	c.logger.Info().
		Uint64("video_message", videoMessageID).
		Uint64("control_message", controlID).
		Strs("buttons", labels).
		Msg(text)
	return controlID, nil
}
