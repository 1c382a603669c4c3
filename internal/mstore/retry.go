// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package mstore

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Retrier wraps Block with bounded flood-control retries and a global fetch
// pacer so concurrent streams do not trip the remote throttle again.
type Retrier struct {
	Store

	limiter  *rate.Limiter
	attempts int
	sleep    func(ctx context.Context, d time.Duration) error
	logger   zerolog.Logger
}

// NewRetrier builds a Retrier. fetchRate bounds block fetches per second
// across all sessions; attempts bounds consecutive flood retries per block.
func NewRetrier(inner Store, fetchRate rate.Limit, attempts int, logger zerolog.Logger) *Retrier {
	if attempts <= 0 {
		attempts = 3
	}
	return &Retrier{
		Store:    inner,
		limiter:  rate.NewLimiter(fetchRate, 1),
		attempts: attempts,
		sleep:    sleepCtx,
		logger:   logger,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Block paces the fetch and retries on flood control.
func (r *Retrier) Block(ctx context.Context, doc DocumentRef, offset int64, size int64) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		block, err := r.Store.Block(ctx, doc, offset, size)
		if err == nil {
			return block, nil
		}
		lastErr = err

		wait, flood := IsFlood(err)
		if !flood {
			return nil, err
		}
		r.logger.Warn().
			Uint64("message_id", doc.MessageID).
			Int64("offset", offset).
			Dur("retry_after", wait).
			Msg("flood control, backing off")
		if err := r.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("flood retries exhausted: %w", lastErr)
}
