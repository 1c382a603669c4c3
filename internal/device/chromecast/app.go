// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package chromecast

import (
	"context"

	"github.com/vishen/go-chromecast/application"
	castdns "github.com/vishen/go-chromecast/dns"
)

// castApp adapts the go-chromecast application to the caster interface.
type castApp struct {
	app *application.Application
}

func newCastApp() caster {
	return &castApp{app: application.NewApplication()}
}

func (c *castApp) Start(addr string, port int) error {
	return c.app.Start(addr, port)
}

func (c *castApp) Load(url, contentType string) error {
	// detach: playback continues without holding the media session
	return c.app.Load(url, 0, contentType, false, true, false)
}

func (c *castApp) Pause() error   { return c.app.Pause() }
func (c *castApp) Unpause() error { return c.app.Unpause() }
func (c *castApp) Stop() error    { return c.app.Stop() }

// discoverDNS runs an mDNS scan and drains the entry channel until the scan
// context expires.
func (f *Finder) discoverDNS(ctx context.Context) ([]entry, error) {
	entries, err := castdns.DiscoverCastDNSEntries(ctx, nil)
	if err != nil {
		return nil, err
	}

	var out []entry
	for e := range entries {
		name := e.DeviceName
		if name == "" {
			name = e.Device
		}
		out = append(out, entry{
			Name: name,
			Addr: e.AddrV4.String(),
			Port: e.Port,
		})
	}
	return out, nil
}
