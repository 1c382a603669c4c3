// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package stream

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	cblog "github.com/ManuGH/castbridge/internal/log"
	"github.com/ManuGH/castbridge/internal/metrics"
	"github.com/ManuGH/castbridge/internal/mstore"
	"github.com/ManuGH/castbridge/internal/token"
)

// handleStream serves GET and HEAD on /stream/{messageID}/{token}.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	logger := cblog.WithComponentFromContext(r.Context(), "stream")

	messageID, err := strconv.ParseUint(chi.URLParam(r, "messageID"), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	tok, err := token.ParseStreamToken(messageID, chi.URLParam(r, "token"))
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if !s.table.Admitted(tok) {
		logger.Warn().Uint64(cblog.FieldMessageID, messageID).Msg("stream request for unadmitted token")
		w.WriteHeader(http.StatusForbidden)
		return
	}

	doc, err := s.store.Message(r.Context(), messageID)
	if err != nil {
		if errors.Is(err, mstore.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Uint64(cblog.FieldMessageID, messageID).Msg("message lookup failed")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	header := r.Header.Get("Range")
	if header == "" {
		header = "bytes=0-"
	}
	br, err := ParseRange(header, s.blockSize)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if br.Skip > s.blockSize {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	upper := doc.Size
	if br.End >= 0 {
		// explicit caps below the file size are rejected, renderers that
		// send them expect a full-length stream anyway
		if br.End < doc.Size {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		upper = br.End
	}
	if br.Start > doc.Size {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	writeStreamHeaders(w.Header(), doc, br.Start, upper)

	status := http.StatusOK
	if br.Start > 0 || upper != doc.Size {
		status = http.StatusPartialContent
	}
	w.WriteHeader(status)

	if r.Method == http.MethodHead {
		return
	}

	logger.Info().
		Str(cblog.FieldToken, tok.Hex()).
		Uint64(cblog.FieldMessageID, messageID).
		Int64("offset", br.Offset).
		Int64("upper", upper).
		Msg("stream started")

	s.pump(w, r, tok, doc, br, upper, logger)
}

// pump streams block-aligned fetches from the store into the response until
// upper is reached or the client goes away. Once the head is written, errors
// end the stream quietly; they are never surfaced as 5xx.
func (s *Server) pump(w http.ResponseWriter, r *http.Request, tok token.LocalToken, doc mstore.DocumentRef, br ByteRange, upper int64, logger zerolog.Logger) {
	ctx := r.Context()
	tr := NewTransport(ctx.Done())
	flusher, _ := w.(http.Flusher)

	offset := br.Offset
	skip := br.Skip

	for offset < upper {
		s.table.Touch(tok, doc.Size)

		block, err := s.store.Block(ctx, doc, offset, s.blockSize)
		metrics.IncBlockFetch(err)
		if err != nil {
			logger.Warn().Err(err).Int64("offset", offset).Msg("block fetch failed, ending stream")
			return
		}
		if len(block) == 0 {
			return
		}
		fetched := int64(len(block))

		if offset+fetched > upper {
			block = block[:upper-offset]
		}
		if skip > 0 {
			if skip >= int64(len(block)) {
				block = nil
			} else {
				block = block[skip:]
			}
			skip = 0
		}

		if !tr.Open() {
			logger.Debug().Str(cblog.FieldToken, tok.Hex()).Msg("transport closing, ending stream")
			return
		}
		s.table.AddTransport(tok, tr)

		if len(block) > 0 {
			if _, err := w.Write(block); err != nil {
				// broken pipe / connection reset from the renderer
				logger.Warn().Err(err).Str(cblog.FieldToken, tok.Hex()).Msg("stream write failed")
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
			metrics.BytesStreamed.Add(float64(len(block)))
		}

		s.table.MarkDownloaded(tok, offset)
		offset += fetched
	}
}

// handleProbe answers OPTIONS and PUT on the stream path. Some renderers
// probe the URL before playing; 200 with the CORS and DLNA headers is all
// they need.
func (s *Server) handleProbe(w http.ResponseWriter, _ *http.Request) {
	writeCORSHeaders(w.Header())
	writeDLNAHeaders(w.Header())
	w.WriteHeader(http.StatusOK)
}

// handleHealthcheck delegates to the store health check.
func (s *Server) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	if err := s.store.HealthCheck(r.Context()); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("gone"))
		return
	}
	_, _ = w.Write([]byte("ok"))
}
