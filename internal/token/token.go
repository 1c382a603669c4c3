// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package token implements the 128-bit local session identifier.
//
// A LocalToken binds a remote message ID to a random admission secret. The
// on-wire form is the hex string of the full 128-bit value
// (random<<64 | message_id); the legacy wire form carries the two halves as
// separate decimal fields.
package token

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
)

// LocalToken identifies one playback session. Equality is by both halves.
type LocalToken struct {
	MessageID uint64
	Random    uint64
}

var (
	// ErrMalformed is returned for strings that are not a valid token form.
	ErrMalformed = errors.New("token: malformed")
	// ErrMismatch is returned when a full token names a different message.
	ErrMismatch = errors.New("token: message id mismatch")
)

// New creates a token for messageID with a fresh 64-bit random half.
func New(messageID uint64) LocalToken {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Sprintf("token: rand: %v", err))
	}
	return LocalToken{MessageID: messageID, Random: binary.BigEndian.Uint64(buf[:])}
}

// Compose builds a token from its two halves (legacy callback form).
func Compose(messageID, random uint64) LocalToken {
	return LocalToken{MessageID: messageID, Random: random}
}

// Hex returns the 32-character lowercase hex form of the 128-bit value.
func (t LocalToken) Hex() string {
	return fmt.Sprintf("%016x%016x", t.Random, t.MessageID)
}

// String implements fmt.Stringer with the wire form.
func (t LocalToken) String() string { return t.Hex() }

// Parse decodes the hex wire form produced by Hex. Shorter strings are
// accepted and interpreted as the same 128-bit value with leading zeros.
func Parse(s string) (LocalToken, error) {
	if s == "" || len(s) > 32 {
		return LocalToken{}, ErrMalformed
	}
	var hi, lo uint64
	for _, c := range []byte(s) {
		var v byte
		switch {
		case c >= '0' && c <= '9':
			v = c - '0'
		case c >= 'a' && c <= 'f':
			v = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			v = c - 'A' + 10
		default:
			return LocalToken{}, ErrMalformed
		}
		hi = hi<<4 | lo>>60
		lo = lo<<4 | uint64(v)
	}
	return LocalToken{MessageID: lo, Random: hi}, nil
}

// ParseStreamToken decodes the token path component of a stream URL for
// messageID. Accepted forms, in order:
//
//   - decimal: the random half as emitted by legacy clients
//   - hex up to 16 chars: the random half
//   - hex 17..32 chars: the full 128-bit token; its message half must match
func ParseStreamToken(messageID uint64, s string) (LocalToken, error) {
	if s == "" {
		return LocalToken{}, ErrMalformed
	}
	if random, err := strconv.ParseUint(s, 10, 64); err == nil {
		return LocalToken{MessageID: messageID, Random: random}, nil
	}
	t, err := Parse(s)
	if err != nil {
		return LocalToken{}, err
	}
	if len(s) <= 16 {
		// short hex carries only the random half
		return LocalToken{MessageID: messageID, Random: t.MessageID}, nil
	}
	if t.MessageID != messageID {
		return LocalToken{}, ErrMismatch
	}
	return t, nil
}
