// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

import "context"

// Button is one inline control button. Data carries the callback wire form
// produced by Callback.Encode.
type Button struct {
	Text string
	Data string
}

// ControlMessenger is the external bot surface the sessions talk to. The
// implementation edits the control message when controlID is non-zero, else
// replies fresh under the video message and returns the new control ID.
// Edits that change nothing return ErrNotModified.
type ControlMessenger interface {
	CreateOrUpdateControl(ctx context.Context, videoMessageID, controlID uint64, text string, buttons [][]Button) (uint64, error)
}
