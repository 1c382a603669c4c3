// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package mstore

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound marks a message that is absent or not a document.
	ErrNotFound = errors.New("mstore: message not found")
	// ErrConnection marks a dead connection to the remote store.
	ErrConnection = errors.New("mstore: connection error")
)

// FloodError is a transient server-side throttle. Callers back off for
// RetryAfter before retrying.
type FloodError struct {
	RetryAfter time.Duration
}

func (e *FloodError) Error() string {
	return fmt.Sprintf("mstore: flood control, retry after %s", e.RetryAfter)
}

// IsFlood reports whether err is a transient flood-control error.
func IsFlood(err error) (time.Duration, bool) {
	var fe *FloodError
	if errors.As(err, &fe) {
		return fe.RetryAfter, true
	}
	return 0, false
}
