// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package mstore defines the boundary to the remote message-document store.
//
// The wire protocol itself lives outside this repository; the core consumes
// exactly three operations. Decorators in this package add memoization for
// document lookups and bounded retry for flood-controlled block fetches.
package mstore

import (
	"context"
	"fmt"
)

// DocumentRef describes a remote media document surfaced by a message.
type DocumentRef struct {
	MessageID  uint64
	DocumentID uint64
	Size       int64
	Filename   string
}

// DisplayName returns the document filename, or a synthetic name when the
// document carries no filename attribute.
func (d DocumentRef) DisplayName() string {
	if d.Filename != "" {
		return d.Filename
	}
	return fmt.Sprintf("file_%d", d.DocumentID)
}

// Store is the set of remote operations the streaming core consumes.
type Store interface {
	// Message resolves a message ID to its document descriptor. Returns
	// ErrNotFound when the message is absent or carries no document.
	Message(ctx context.Context, messageID uint64) (DocumentRef, error)

	// Block fetches up to size bytes at offset from the document. The
	// returned slice may be shorter near EOF.
	Block(ctx context.Context, doc DocumentRef, offset int64, size int64) ([]byte, error)

	// HealthCheck reports ErrConnection when the underlying sessions are
	// not alive.
	HealthCheck(ctx context.Context) error
}
