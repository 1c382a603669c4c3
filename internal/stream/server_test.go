// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/castbridge/internal/config"
	"github.com/ManuGH/castbridge/internal/device"
	"github.com/ManuGH/castbridge/internal/mstore"
	"github.com/ManuGH/castbridge/internal/token"
)

type fakeStore struct {
	docs      map[uint64]mstore.DocumentRef
	data      map[uint64][]byte
	healthErr error
}

func (f *fakeStore) Message(_ context.Context, messageID uint64) (mstore.DocumentRef, error) {
	doc, ok := f.docs[messageID]
	if !ok {
		return mstore.DocumentRef{}, mstore.ErrNotFound
	}
	return doc, nil
}

func (f *fakeStore) Block(_ context.Context, doc mstore.DocumentRef, offset, size int64) ([]byte, error) {
	data := f.data[doc.MessageID]
	if offset >= int64(len(data)) {
		return nil, nil
	}
	end := offset + size
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return data[offset:end], nil
}

func (f *fakeStore) HealthCheck(context.Context) error { return f.healthErr }

func newTestServer(t *testing.T, store *fakeStore) *Server {
	t.Helper()
	cfg := config.HTTPConfig{
		ListenHost:         "127.0.0.1",
		ListenPort:         8080,
		RequestGoneTimeout: 900,
		BlockSize:          testBlockSize,
	}
	registry := device.NewRegistry(nil, zerolog.Nop())
	return New(cfg, store, registry, zerolog.Nop())
}

func storeWithFile(messageID uint64, size int64, filename string) *fakeStore {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i)
	}
	return &fakeStore{
		docs: map[uint64]mstore.DocumentRef{
			messageID: {MessageID: messageID, DocumentID: messageID * 10, Size: size, Filename: filename},
		},
		data: map[uint64][]byte{messageID: data},
	}
}

func get(s *Server, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestStreamAdmission(t *testing.T) {
	s := newTestServer(t, storeWithFile(1, 2_000_000, "movie.mp4"))

	rec := get(s, "/stream/1/deadbeef", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	tok, err := token.ParseStreamToken(1, "deadbeef")
	require.NoError(t, err)
	s.Admit(tok, 2_000_000)

	rec = get(s, "/stream/1/deadbeef", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2_000_000, rec.Body.Len())
	s.Evict(tok)
}

func TestStreamMalformedPath(t *testing.T) {
	s := newTestServer(t, storeWithFile(1, 100, ""))

	assert.Equal(t, http.StatusUnauthorized, get(s, "/stream/abc/123", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, get(s, "/stream/1/zzzz", nil).Code)
}

func TestStreamUnknownMessage(t *testing.T) {
	s := newTestServer(t, storeWithFile(1, 100, ""))

	tok := token.New(99)
	s.Admit(tok, 100)
	defer s.Evict(tok)

	rec := get(s, "/stream/99/"+tok.Hex(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStreamRangedRequest(t *testing.T) {
	const size = 2_000_000
	s := newTestServer(t, storeWithFile(1, size, "movie.mp4"))

	tok := token.New(1)
	s.Admit(tok, size)
	defer s.Evict(tok)

	rec := get(s, "/stream/1/"+tok.Hex(), map[string]string{"Range": "bytes=1500000-"})
	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, fmt.Sprintf("bytes 1500000-%d/%d", size, size), rec.Header().Get("Content-Range"))
	assert.Equal(t, fmt.Sprintf("%d", size), rec.Header().Get("Content-Length"))
	assert.Equal(t, size-1500000, rec.Body.Len())

	// delivered bytes line up with the requested position
	assert.Equal(t, byte(1500000%256), rec.Body.Bytes()[0])
}

func TestStreamEOFTruncation(t *testing.T) {
	const size = 1_048_580
	s := newTestServer(t, storeWithFile(1, size, ""))

	tok := token.New(1)
	s.Admit(tok, size)
	defer s.Evict(tok)

	rec := get(s, "/stream/1/"+tok.Hex(), map[string]string{"Range": "bytes=1048576-"})
	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, 4, rec.Body.Len())
}

func TestStreamRejectsShortExplicitCap(t *testing.T) {
	s := newTestServer(t, storeWithFile(1, 2_000_000, ""))

	tok := token.New(1)
	s.Admit(tok, 2_000_000)
	defer s.Evict(tok)

	rec := get(s, "/stream/1/"+tok.Hex(), map[string]string{"Range": "bytes=0-100"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStreamRejectsStartPastEOF(t *testing.T) {
	s := newTestServer(t, storeWithFile(1, 1000, ""))

	tok := token.New(1)
	s.Admit(tok, 1000)
	defer s.Evict(tok)

	rec := get(s, "/stream/1/"+tok.Hex(), map[string]string{"Range": "bytes=2000-"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStreamBadRangeHeader(t *testing.T) {
	s := newTestServer(t, storeWithFile(1, 1000, ""))

	tok := token.New(1)
	s.Admit(tok, 1000)
	defer s.Evict(tok)

	rec := get(s, "/stream/1/"+tok.Hex(), map[string]string{"Range": "items=0-"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStreamHeadersAndDisposition(t *testing.T) {
	s := newTestServer(t, storeWithFile(1, 1000, "my movie.mp4"))

	tok := token.New(1)
	s.Admit(tok, 1000)
	defer s.Evict(tok)

	rec := get(s, "/stream/1/"+tok.Hex(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	h := rec.Header()
	assert.Equal(t, "video/mp4", h.Get("Content-Type"))
	assert.Equal(t, "bytes", h.Get("Accept-Ranges"))
	assert.Equal(t, `inline; filename="my%20movie.mp4"`, h.Get("Content-Disposition"))

	// DLNA keys keep their exact case
	assert.Equal(t, []string{"Streaming"}, h["transferMode.dlna.org"])
	assert.Equal(t, []string{"npt=0.00-"}, h["TimeSeekRange.dlna.org"])
	assert.Equal(t, []string{"DLNA.ORG_OP=01;DLNA.ORG_CI=0;"}, h["contentFeatures.dlna.org"])
}

func TestStreamHeadHasNoBody(t *testing.T) {
	s := newTestServer(t, storeWithFile(1, 1000, ""))

	tok := token.New(1)
	s.Admit(tok, 1000)
	defer s.Evict(tok)

	req := httptest.NewRequest(http.MethodHead, "/stream/1/"+tok.Hex(), nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, rec.Body.Len())
	assert.Equal(t, "1000", rec.Header().Get("Content-Length"))
}

func TestStreamProbeStubs(t *testing.T) {
	s := newTestServer(t, storeWithFile(1, 1000, ""))

	for _, method := range []string{http.MethodOptions, http.MethodPut} {
		req := httptest.NewRequest(method, "/stream/1/deadbeef", nil)
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, method)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), method)
		assert.Equal(t, []string{"Streaming"}, rec.Header()["transferMode.dlna.org"], method)
	}
}

func TestHealthcheck(t *testing.T) {
	store := storeWithFile(1, 10, "")
	s := newTestServer(t, store)

	rec := get(s, "/healthcheck", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	store.healthErr = mstore.ErrConnection
	rec = get(s, "/healthcheck", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "gone", rec.Body.String())
}

type routeFinder struct{}

func (routeFinder) Find(context.Context) ([]device.Device, error) { return nil, nil }
func (routeFinder) Timeout() time.Duration                        { return time.Second }
func (routeFinder) Routes() []device.Route {
	return []device.Route{{
		Method:  http.MethodGet,
		Pattern: "/aux/ping",
		Handler: func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("pong"))
		},
	}}
}

func TestRegistryRoutesMounted(t *testing.T) {
	cfg := config.HTTPConfig{ListenHost: "127.0.0.1", ListenPort: 8080, RequestGoneTimeout: 900, BlockSize: testBlockSize}
	registry := device.NewRegistry([]device.Finder{routeFinder{}}, zerolog.Nop())
	s := New(cfg, storeWithFile(1, 10, ""), registry, zerolog.Nop())

	rec := get(s, "/aux/ping", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestStreamURL(t *testing.T) {
	s := newTestServer(t, storeWithFile(1, 10, ""))
	tok := token.Compose(7, 0xfeed)
	assert.Equal(t, "http://127.0.0.1:8080/stream/7/"+tok.Hex(), s.StreamURL(tok))
}
