// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

import "errors"

var (
	// ErrNoDevice means the operation requires a device but none is
	// selected. Reported to the caller, never fatal.
	ErrNoDevice = errors.New("playback: no device selected")

	// ErrActionNotSupported means the selected device lacks the pause or
	// resume capability. The session state is unchanged.
	ErrActionNotSupported = errors.New("playback: action not supported by the device")

	// ErrUnknownCallback means a control callback had an unrecognized
	// shape. Fatal for that callback only.
	ErrUnknownCallback = errors.New("playback: unknown callback")

	// ErrNotModified is returned by ControlMessenger implementations when
	// an edit produced no change; sessions absorb it silently.
	ErrNotModified = errors.New("playback: message not modified")
)
