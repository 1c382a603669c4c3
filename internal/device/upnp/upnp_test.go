// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package upnp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/castbridge/internal/token"
)

type fakeAV struct {
	mu    sync.Mutex
	calls []string
	stopE error
}

func (f *fakeAV) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeAV) FriendlyName() string { return "Bedroom TV" }
func (f *fakeAV) EventURL() string     { return "http://10.0.0.9:7676/event" }

func (f *fakeAV) SetURI(_ context.Context, uri, metadata string) error {
	f.record("seturi " + uri)
	f.mu.Lock()
	f.calls = append(f.calls, "meta:"+metadata)
	f.mu.Unlock()
	return nil
}

func (f *fakeAV) Play(context.Context) error  { f.record("play"); return nil }
func (f *fakeAV) Pause(context.Context) error { f.record("pause"); return nil }
func (f *fakeAV) Stop(context.Context) error  { f.record("stop"); return f.stopE }

func (f *fakeAV) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestParseEventStatus(t *testing.T) {
	const ns = `xmlns:avt="urn:schemas-upnp-org:metadata-1-0/AVT/"`

	tests := []struct {
		name string
		body string
		want PlayerStatus
	}{
		{
			name: "ok means playing",
			body: `<Event ` + ns + `><avt:TransportStatus val="OK"/></Event>`,
			want: StatusPlaying,
		},
		{
			name: "stopped",
			body: `<Event ` + ns + `><avt:TransportStatus val="STOPPED"/></Event>`,
			want: StatusStopped,
		},
		{
			name: "error",
			body: `<Event ` + ns + `><avt:TransportStatus val="ERROR_OCCURRED"/></Event>`,
			want: StatusError,
		},
		{
			name: "no status",
			body: `<Event ` + ns + `><avt:TransportState val="PLAYING"/></Event>`,
			want: StatusNothing,
		},
		{
			name: "entity encoded payload",
			body: `&lt;Event ` + strings.ReplaceAll(ns, `"`, `&quot;`) + `&gt;&lt;avt:TransportStatus val=&quot;OK&quot;/&gt;&lt;/Event&gt;`,
			want: StatusPlaying,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseEventStatus([]byte(tc.body)))
		})
	}
}

func notifyRouter(h *NotifyHandler) *chi.Mux {
	chi.RegisterMethod("NOTIFY")
	r := chi.NewRouter()
	r.Method("NOTIFY", "/upnp/notify/{token}", http.HandlerFunc(h.ServeNotify))
	return r
}

func TestNotifyUnknownToken(t *testing.T) {
	router := notifyRouter(NewNotifyHandler(zerolog.Nop()))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("NOTIFY", "/upnp/notify/"+token.New(1).Hex(), strings.NewReader(""))
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNotifyMalformedToken(t *testing.T) {
	router := notifyRouter(NewNotifyHandler(zerolog.Nop()))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("NOTIFY", "/upnp/notify/not-hex!", strings.NewReader(""))
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotifyReconnectAfterErrorThenSilence(t *testing.T) {
	av := &fakeAV{}
	handler := NewNotifyHandler(zerolog.Nop())
	d := newDevice(av, handler, zerolog.Nop())
	tok := token.New(5)
	handler.add(tok, d)

	router := notifyRouter(handler)
	send := func(body string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("NOTIFY", "/upnp/notify/"+tok.Hex(), strings.NewReader(body))
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	const ns = `xmlns:avt="urn:schemas-upnp-org:metadata-1-0/AVT/"`
	ok := `<Event ` + ns + `><avt:TransportStatus val="OK"/></Event>`
	errEvt := `<Event ` + ns + `><avt:TransportStatus val="ERROR_OCCURRED"/></Event>`
	nothing := `<Event ` + ns + `></Event>`

	assert.Equal(t, http.StatusOK, send(ok))
	assert.Equal(t, http.StatusOK, send(errEvt))
	assert.Empty(t, av.snapshot(), "no reconnect while still erroring")

	assert.Equal(t, http.StatusOK, send(nothing))
	assert.Equal(t, []string{"play"}, av.snapshot(), "silence after error reissues play")
}

func TestStopSwallowsIdleTransitionErrors(t *testing.T) {
	for _, msg := range []string{"Transition not available", "Action Stop failed"} {
		av := &fakeAV{stopE: &soapError{msg}}
		d := newDevice(av, NewNotifyHandler(zerolog.Nop()), zerolog.Nop())
		assert.NoError(t, d.Stop(context.Background()), msg)
	}

	av := &fakeAV{stopE: &soapError{"device unreachable"}}
	d := newDevice(av, NewNotifyHandler(zerolog.Nop()), zerolog.Nop())
	assert.Error(t, d.Stop(context.Background()))
}

type soapError struct{ msg string }

func (e *soapError) Error() string { return e.msg }

func TestPlaySetsURIWithMetadataThenPlays(t *testing.T) {
	av := &fakeAV{}
	d := newDevice(av, NewNotifyHandler(zerolog.Nop()), zerolog.Nop())
	tok := token.New(9)

	err := d.Play(context.Background(), "http://10.0.0.2:8080/stream/9/abc", "Movie — Näme.mp4", tok)
	require.NoError(t, err)
	defer func() { _ = d.OnClose(context.Background(), tok) }()

	calls := av.snapshot()
	require.Len(t, calls, 3)
	assert.Equal(t, "seturi http://10.0.0.2:8080/stream/9/abc", calls[0])
	assert.Contains(t, calls[1], "<dc:title>Movie  Nme.mp4</dc:title>", "non-ascii stripped")
	assert.Contains(t, calls[1], "DLNA.ORG_FLAGS=21700000000000000000000000000000")
	assert.Equal(t, "play", calls[2])
}

func TestNotifyCallbackURL(t *testing.T) {
	tok := token.Compose(7, 0xabc)
	got, err := notifyCallbackURL("http://192.168.1.10:8080/stream/7/abc?x=1", tok)
	require.NoError(t, err)
	assert.Equal(t, "http://192.168.1.10:8080/upnp/notify/"+tok.Hex(), got)
}

func TestFinderRoutesAndTimeout(t *testing.T) {
	f := NewFinder(3*time.Second, zerolog.Nop())
	routes := f.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, "NOTIFY", routes[0].Method)
	assert.Equal(t, 3*time.Second, f.Timeout())
}
