// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ManuGH/castbridge/internal/token"
)

// Callback prefixes. Control carries PLAY/STOP/PAUSE/RESUME, Menu carries
// DEVICE/REFRESH, Select carries a device name.
const (
	PrefixControl = "c"
	PrefixMenu    = "d"
	PrefixSelect  = "s"
)

// Control actions.
const (
	ActionPlay    = "PLAY"
	ActionStop    = "STOP"
	ActionPause   = "PAUSE"
	ActionResume  = "RESUME"
	ActionDevice  = "DEVICE"
	ActionRefresh = "REFRESH"
)

// Callback is a decoded inline-button payload.
type Callback struct {
	Prefix string
	Token  token.LocalToken
	Action string
}

// Encode renders the wire form {prefix}:{token_hex}:{action}.
func (c Callback) Encode() string {
	return fmt.Sprintf("%s:%s:%s", c.Prefix, c.Token.Hex(), c.Action)
}

// ParseCallback decodes both wire forms: the current three-field form with a
// full hex token, and the legacy four-field form carrying message ID and
// random half as separate decimal fields.
func ParseCallback(data string) (Callback, error) {
	parts := strings.Split(data, ":")
	switch len(parts) {
	case 4:
		messageID, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return Callback{}, ErrUnknownCallback
		}
		random, err := strconv.ParseUint(parts[2], 10, 64)
		if err != nil {
			return Callback{}, ErrUnknownCallback
		}
		return Callback{
			Prefix: parts[0],
			Token:  token.Compose(messageID, random),
			Action: parts[3],
		}, nil

	case 3:
		tok, err := token.Parse(parts[1])
		if err != nil {
			return Callback{}, ErrUnknownCallback
		}
		return Callback{Prefix: parts[0], Token: tok, Action: parts[2]}, nil

	default:
		return Callback{}, ErrUnknownCallback
	}
}
