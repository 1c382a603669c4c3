// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package upnp

import (
	"encoding/xml"
	"html"
	"strings"
)

// PlayerStatus is the condensed transport state extracted from one AVT event.
type PlayerStatus int

const (
	// StatusNothing means the event carried no TransportStatus information.
	StatusNothing PlayerStatus = iota
	// StatusPlaying means the transport reported OK.
	StatusPlaying
	// StatusStopped means the transport reported STOPPED.
	StatusStopped
	// StatusError means the transport reported ERROR_OCCURRED.
	StatusError
)

const statusSpace = "urn:schemas-upnp-org:metadata-1-0/AVT/"

// parseEventStatus walks a GENA NOTIFY body. Renderers double-encode the
// LastChange document, so the payload is entity-unescaped before parsing.
func parseEventStatus(body []byte) PlayerStatus {
	decoded := html.UnescapeString(string(body))

	dec := xml.NewDecoder(strings.NewReader(decoded))
	dec.Strict = false

	reachedOK := false
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "TransportStatus" {
			continue
		}
		if start.Name.Space != "" && start.Name.Space != statusSpace {
			continue
		}
		for _, attr := range start.Attr {
			if attr.Name.Local != "val" {
				continue
			}
			switch attr.Value {
			case "OK":
				reachedOK = true
			case "STOPPED":
				return StatusStopped
			case "ERROR_OCCURRED":
				return StatusError
			}
		}
	}

	if reachedOK {
		return StatusPlaying
	}
	return StatusNothing
}
