// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

import (
	"fmt"
	"html"
	"regexp"

	"github.com/ManuGH/castbridge/internal/device"
	"github.com/ManuGH/castbridge/internal/token"
)

var devicePattern = regexp.MustCompile(`on device ([^,]*)`)

// ParseDeviceFromText recovers the device name from a rendered control
// message, used to reconstruct sessions after a restart.
func ParseDeviceFromText(text string) string {
	m := devicePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

func messageStr(messageID uint64) string {
	return fmt.Sprintf("for file <code>%d</code>", messageID)
}

func deviceStr(d device.Device) string {
	name := "NONE"
	if d != nil {
		name = html.EscapeString(d.Name())
	}
	return fmt.Sprintf("on device <code>%s</code>", name)
}

func stoppedText(messageID uint64, d device.Device) string {
	return fmt.Sprintf("Controller %s %s", messageStr(messageID), deviceStr(d))
}

func closedText(messageID uint64, d device.Device, remainingPct float64) string {
	return fmt.Sprintf("Streaming closed %s %s, %0.2f%% remains", messageStr(messageID), deviceStr(d), remainingPct)
}

func playingText(messageID uint64, d device.Device) string {
	return fmt.Sprintf("Playing %s %s", messageStr(messageID), deviceStr(d))
}

func pausedText(messageID uint64, d device.Device) string {
	return fmt.Sprintf("Paused %s %s", messageStr(messageID), deviceStr(d))
}

func controlButton(tok token.LocalToken, action string) Button {
	return Button{Text: action, Data: Callback{Prefix: PrefixControl, Token: tok, Action: action}.Encode()}
}

func menuButton(tok token.LocalToken, action string) Button {
	return Button{Text: action, Data: Callback{Prefix: PrefixMenu, Token: tok, Action: action}.Encode()}
}

func selectButton(tok token.LocalToken, deviceName string) Button {
	return Button{Text: deviceName, Data: Callback{Prefix: PrefixSelect, Token: tok, Action: deviceName}.Encode()}
}

func stoppedButtons(tok token.LocalToken) [][]Button {
	return [][]Button{
		{menuButton(tok, ActionDevice)},
		{controlButton(tok, ActionPlay)},
	}
}

func playingButtons(tok token.LocalToken) [][]Button {
	return [][]Button{
		{controlButton(tok, ActionStop)},
		{controlButton(tok, ActionPause)},
	}
}

func pausedButtons(tok token.LocalToken) [][]Button {
	return [][]Button{
		{controlButton(tok, ActionStop)},
		{controlButton(tok, ActionResume)},
	}
}

func selectButtons(tok token.LocalToken, devices []device.Device) [][]Button {
	rows := make([][]Button, 0, len(devices)+1)
	for _, d := range devices {
		rows = append(rows, []Button{selectButton(tok, d.Name())})
	}
	return append(rows, []Button{menuButton(tok, ActionRefresh)})
}
