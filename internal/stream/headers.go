// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package stream

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/ManuGH/castbridge/internal/mstore"
)

// setRawHeader bypasses Go's key canonicalization. The DLNA headers are
// matched case-sensitively by some renderers.
func setRawHeader(h http.Header, key, value string) {
	h[key] = []string{value}
}

func writeCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeDLNAHeaders(h http.Header) {
	setRawHeader(h, "transferMode.dlna.org", "Streaming")
	setRawHeader(h, "TimeSeekRange.dlna.org", "npt=0.00-")
	setRawHeader(h, "contentFeatures.dlna.org", "DLNA.ORG_OP=01;DLNA.ORG_CI=0;")
}

// writeStreamHeaders writes the full header set of a stream response.
// Content-Length carries the full document size even on partial responses;
// renderers key their progress bar off it.
func writeStreamHeaders(h http.Header, doc mstore.DocumentRef, start, upper int64) {
	writeCORSHeaders(h)
	writeDLNAHeaders(h)
	h.Set("Content-Type", "video/mp4")
	h.Set("Accept-Ranges", "bytes")
	h.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, upper, doc.Size))
	h.Set("Content-Length", fmt.Sprintf("%d", doc.Size))
	h.Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", url.PathEscape(doc.DisplayName())))
}
