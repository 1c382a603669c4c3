// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package upnp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// resubscribeEvery is deliberately short. Renewing via SID (GENA
// re-subscription) is ignored by some Samsung TVs, so the task tears the
// subscription down and creates a fresh one each cycle.
const resubscribeEvery = 10 * time.Second

// subscribeTask maintains a GENA subscription on one AVTransport service.
type subscribeTask struct {
	eventURL string
	callback string
	logger   zerolog.Logger
	client   *http.Client

	cancel context.CancelFunc
	sid    string
}

func newSubscribeTask(eventURL, callback string, logger zerolog.Logger) *subscribeTask {
	return &subscribeTask{
		eventURL: eventURL,
		callback: callback,
		logger:   logger,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (t *subscribeTask) start() {
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	go t.loop(ctx)
}

func (t *subscribeTask) close() {
	if t.cancel != nil {
		t.cancel()
	}
	t.unsubscribe(context.Background())
}

func (t *subscribeTask) loop(ctx context.Context) {
	if err := t.subscribeOnce(ctx); err != nil {
		t.logger.Warn().Err(err).Str("event_url", t.eventURL).Msg("event subscribe failed")
	}

	ticker := time.NewTicker(resubscribeEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.unsubscribe(ctx)
			if err := t.subscribeOnce(ctx); err != nil {
				t.logger.Warn().Err(err).Str("event_url", t.eventURL).Msg("event resubscribe failed")
			}
		}
	}
}

func (t *subscribeTask) subscribeOnce(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "SUBSCRIBE", t.eventURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("CALLBACK", fmt.Sprintf("<%s>", t.callback))
	req.Header.Set("NT", "upnp:event")
	req.Header.Set("TIMEOUT", "Second-300")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("subscribe status %d", resp.StatusCode)
	}
	t.sid = resp.Header.Get("SID")
	return nil
}

func (t *subscribeTask) unsubscribe(ctx context.Context) {
	if t.sid == "" {
		return
	}
	req, err := http.NewRequestWithContext(ctx, "UNSUBSCRIBE", t.eventURL, nil)
	if err != nil {
		return
	}
	req.Header.Set("SID", t.sid)
	t.sid = ""

	resp, err := t.client.Do(req)
	if err != nil {
		return
	}
	_ = resp.Body.Close()
}
