// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package kodi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/castbridge/internal/token"
)

type rpcCall struct {
	Method string         `json:"method"`
	Params map[string]any `json:"params"`
}

func newFakeKodi(t *testing.T) (*Device, *[]rpcCall) {
	t.Helper()
	var calls []rpcCall

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/jsonrpc", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "kodi", user)
		require.Equal(t, "pw", pass)

		var call rpcCall
		require.NoError(t, json.NewDecoder(r.Body).Decode(&call))
		calls = append(calls, call)

		w.Header().Set("Content-Type", "application/json")
		switch call.Method {
		case "Player.GetActivePlayers":
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":[{"playerid":1,"type":"video"}]}`))
		default:
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"OK"}`))
		}
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	return NewDevice(Params{Host: u.Hostname(), Port: port, User: "kodi", Password: "pw"}), &calls
}

func TestPlayOpensFile(t *testing.T) {
	d, calls := newFakeKodi(t)

	require.NoError(t, d.Play(context.Background(), "http://host/stream/5/ff", "title", token.LocalToken{}))

	require.Len(t, *calls, 1)
	assert.Equal(t, "Player.Open", (*calls)[0].Method)
	item := (*calls)[0].Params["item"].(map[string]any)
	assert.Equal(t, "http://host/stream/5/ff", item["file"])
}

func TestStopStopsActivePlayers(t *testing.T) {
	d, calls := newFakeKodi(t)

	require.NoError(t, d.Stop(context.Background()))

	require.Len(t, *calls, 2)
	assert.Equal(t, "Player.GetActivePlayers", (*calls)[0].Method)
	assert.Equal(t, "Player.Stop", (*calls)[1].Method)
	assert.Equal(t, float64(1), (*calls)[1].Params["playerid"])
}

func TestPauseTogglesActivePlayers(t *testing.T) {
	d, calls := newFakeKodi(t)

	require.NoError(t, d.Pause(context.Background()))
	require.Len(t, *calls, 2)
	assert.Equal(t, "Player.PlayPause", (*calls)[1].Method)
}

func TestFinder(t *testing.T) {
	f := NewFinder(Params{Host: "10.1.1.1", Port: 8080}, 5*time.Second)

	devices, err := f.Find(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "kodi @10.1.1.1", devices[0].Name())
}
