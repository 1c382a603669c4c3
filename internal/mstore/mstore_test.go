// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package mstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type countingStore struct {
	Store
	messages int
	blockErr []error
	calls    int
}

func (c *countingStore) Message(ctx context.Context, id uint64) (DocumentRef, error) {
	c.messages++
	if id == 404 {
		return DocumentRef{}, ErrNotFound
	}
	return DocumentRef{MessageID: id, DocumentID: id * 10, Size: 100}, nil
}

func (c *countingStore) Block(ctx context.Context, doc DocumentRef, offset, size int64) ([]byte, error) {
	i := c.calls
	c.calls++
	if i < len(c.blockErr) && c.blockErr[i] != nil {
		return nil, c.blockErr[i]
	}
	return make([]byte, size), nil
}

func (c *countingStore) HealthCheck(context.Context) error { return nil }

func TestCacheMemoizesMessages(t *testing.T) {
	inner := &countingStore{}
	cache := NewCache(inner)

	for i := 0; i < 3; i++ {
		doc, err := cache.Message(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, uint64(70), doc.DocumentID)
	}
	assert.Equal(t, 1, inner.messages)
}

func TestCacheDoesNotMemoizeErrors(t *testing.T) {
	inner := &countingStore{}
	cache := NewCache(inner)

	for i := 0; i < 2; i++ {
		_, err := cache.Message(context.Background(), 404)
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, 2, inner.messages)
}

func TestRetrierRetriesFlood(t *testing.T) {
	inner := &countingStore{blockErr: []error{
		&FloodError{RetryAfter: time.Millisecond},
		&FloodError{RetryAfter: time.Millisecond},
		nil,
	}}
	r := NewRetrier(inner, rate.Inf, 3, zerolog.New(io.Discard))

	block, err := r.Block(context.Background(), DocumentRef{}, 0, 16)
	require.NoError(t, err)
	assert.Len(t, block, 16)
	assert.Equal(t, 3, inner.calls)
}

func TestRetrierGivesUp(t *testing.T) {
	inner := &countingStore{blockErr: []error{
		&FloodError{RetryAfter: time.Millisecond},
		&FloodError{RetryAfter: time.Millisecond},
	}}
	r := NewRetrier(inner, rate.Inf, 2, zerolog.New(io.Discard))

	_, err := r.Block(context.Background(), DocumentRef{}, 0, 16)
	require.Error(t, err)
	var fe *FloodError
	assert.True(t, errors.As(err, &fe))
}

func TestRetrierPassesThroughHardErrors(t *testing.T) {
	inner := &countingStore{blockErr: []error{ErrConnection}}
	r := NewRetrier(inner, rate.Inf, 3, zerolog.New(io.Discard))

	_, err := r.Block(context.Background(), DocumentRef{}, 0, 16)
	assert.ErrorIs(t, err, ErrConnection)
	assert.Equal(t, 1, inner.calls)
}

func TestDirStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.mp4"), []byte("hello world"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.mp4"), []byte("xyz"), 0o600))

	s := NewDirStore(dir)
	require.NoError(t, s.HealthCheck(context.Background()))

	doc, err := s.Message(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "a.mp4", doc.Filename)
	assert.Equal(t, int64(11), doc.Size)

	block, err := s.Block(context.Background(), doc, 6, 1024)
	require.NoError(t, err)
	assert.Equal(t, "world", string(block), "short read near EOF")

	_, err = s.Message(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "movie.mp4", DocumentRef{Filename: "movie.mp4"}.DisplayName())
	assert.Equal(t, "file_42", DocumentRef{DocumentID: 42}.DisplayName())
}
