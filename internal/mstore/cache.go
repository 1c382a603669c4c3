// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package mstore

import (
	"context"
	"sync"
)

// Cache memoizes successful Message lookups. Block and HealthCheck pass
// through unchanged.
type Cache struct {
	Store

	mu   sync.RWMutex
	docs map[uint64]DocumentRef
}

// NewCache wraps inner with a document-lookup memo.
func NewCache(inner Store) *Cache {
	return &Cache{Store: inner, docs: make(map[uint64]DocumentRef)}
}

// Message returns the memoized descriptor when available.
func (c *Cache) Message(ctx context.Context, messageID uint64) (DocumentRef, error) {
	c.mu.RLock()
	doc, ok := c.docs[messageID]
	c.mu.RUnlock()
	if ok {
		return doc, nil
	}

	doc, err := c.Store.Message(ctx, messageID)
	if err != nil {
		return DocumentRef{}, err
	}

	c.mu.Lock()
	c.docs[messageID] = doc
	c.mu.Unlock()
	return doc, nil
}
