// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"fmt"
	"os"

	"golang.org/x/time/rate"

	"github.com/ManuGH/castbridge/internal/config"
	"github.com/ManuGH/castbridge/internal/device"
	"github.com/ManuGH/castbridge/internal/device/chromecast"
	"github.com/ManuGH/castbridge/internal/device/kodi"
	"github.com/ManuGH/castbridge/internal/device/upnp"
	"github.com/ManuGH/castbridge/internal/device/vlc"
	"github.com/ManuGH/castbridge/internal/device/web"
	cblog "github.com/ManuGH/castbridge/internal/log"
	"github.com/ManuGH/castbridge/internal/mstore"
)

// buildStore assembles the document store with its memoization and retry
// decorators. CASTBRIDGE_MEDIA_DIR selects the local-directory backend; the
// remote message-store client plugs in through the same interface.
func buildStore() (mstore.Store, error) {
	dir := config.ParseString("CASTBRIDGE_MEDIA_DIR", "")
	if dir == "" {
		return nil, fmt.Errorf("no store backend configured, set CASTBRIDGE_MEDIA_DIR")
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("media dir: %w", err)
	}

	var store mstore.Store = mstore.NewDirStore(dir)
	store = mstore.NewRetrier(store, rate.Limit(50), 5, cblog.WithComponent("mstore"))
	return mstore.NewCache(store), nil
}

// buildFinders maps each device config entry to its finder.
func buildFinders(cfg config.Config) ([]device.Finder, error) {
	finders := make([]device.Finder, 0, len(cfg.Devices))
	for _, dc := range cfg.Devices {
		switch dc.Type {
		case "upnp":
			finders = append(finders, upnp.NewFinder(dc.Timeout(), cblog.WithComponent("upnp")))
		case "chromecast":
			finders = append(finders, chromecast.NewFinder(dc.Timeout(), cblog.WithComponent("chromecast")))
		case "vlc":
			params := vlc.Params{Host: dc.Host, Port: dc.Port, Password: dc.Password}
			finders = append(finders, vlc.NewFinder(params, dc.Timeout(), cblog.WithComponent("vlc")))
		case "kodi":
			params := kodi.Params{Host: dc.Host, Port: dc.Port, User: dc.User, Password: dc.Password}
			finders = append(finders, kodi.NewFinder(params, dc.Timeout()))
		case "web":
			finders = append(finders, web.NewFinder(dc.Password, dc.Timeout()))
		default:
			// Validate rejects unknown types before we get here
			return nil, fmt.Errorf("unknown device type %q", dc.Type)
		}
	}
	return finders, nil
}
