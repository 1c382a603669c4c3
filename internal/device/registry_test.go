// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package device

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/castbridge/internal/token"
)

type fakeDevice struct{ name string }

func (d *fakeDevice) Name() string                                              { return d.name }
func (d *fakeDevice) Play(context.Context, string, string, token.LocalToken) error { return nil }
func (d *fakeDevice) Stop(context.Context) error                                { return nil }
func (d *fakeDevice) OnClose(context.Context, token.LocalToken) error           { return nil }

type fakeFinder struct {
	devices []Device
	delay   time.Duration
	timeout time.Duration
	calls   int
}

func (f *fakeFinder) Find(ctx context.Context) ([]Device, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.devices, nil
}

func (f *fakeFinder) Routes() []Route { return nil }

func (f *fakeFinder) Timeout() time.Duration {
	if f.timeout > 0 {
		return f.timeout
	}
	return 50 * time.Millisecond
}

func testLogger() zerolog.Logger { return zerolog.New(io.Discard) }

func TestRefreshConcatenatesFinders(t *testing.T) {
	a := &fakeFinder{devices: []Device{&fakeDevice{name: "tv"}}}
	b := &fakeFinder{devices: []Device{&fakeDevice{name: "vlc @10.0.0.5"}, nil}}
	r := NewRegistry([]Finder{a, b}, testLogger())

	r.Refresh(context.Background())

	all := r.All(context.Background())
	require.Len(t, all, 2, "nil devices are dropped")
	assert.Equal(t, "tv", all[0].Name())
}

func TestRefreshSwallowsSlowFinder(t *testing.T) {
	slow := &fakeFinder{
		devices: []Device{&fakeDevice{name: "never"}},
		delay:   time.Second,
		timeout: 10 * time.Millisecond,
	}
	fast := &fakeFinder{devices: []Device{&fakeDevice{name: "tv"}}}
	r := NewRegistry([]Finder{slow, fast}, testLogger())

	done := make(chan struct{})
	go func() {
		r.Refresh(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not finish")
	}

	all := r.All(context.Background())
	require.Len(t, all, 1)
	assert.Equal(t, "tv", all[0].Name())
}

func TestByNameLazilyRefreshes(t *testing.T) {
	f := &fakeFinder{devices: []Device{&fakeDevice{name: "tv"}}}
	r := NewRegistry([]Finder{f}, testLogger())

	d, ok := r.ByName(context.Background(), "tv")
	require.True(t, ok)
	assert.Equal(t, "tv", d.Name())
	assert.Equal(t, 1, f.calls, "single lazy refresh")

	_, ok = r.ByName(context.Background(), "unknown")
	assert.False(t, ok)
	assert.Equal(t, 1, f.calls, "cache reused while non-empty")
}
