package input

import (
	"bufio"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/zstd"
	"navplug.szuro.net/internal/logger"
	"navplug.szuro.net/pkg/signalk"
)

const (
	EVENTS_ENDPOINT   = "events"
	NMEA0183_ENDPOINT = "nmea0183"
)

// HTTPInput accepts NDJSON events on POST /events and raw NMEA 0183 lines on
// POST /nmea0183. Bodies may be gzip, deflate or zstd encoded.
type HTTPInput struct {
	baseInput
}

func NewHTTPInput(publisher Publisher) *HTTPInput {
	return &HTTPInput{baseInput{publisher: publisher}}
}

func (hi *HTTPInput) RegisterRoutes(r chi.Router) {
	r.Post("/events", hi.handleEvents)
	r.Post("/nmea0183", hi.handleSentences)
	for _, endpoint := range []string{EVENTS_ENDPOINT, NMEA0183_ENDPOINT} {
		ndjsonLinesReceived.WithLabelValues(endpoint).Add(0)
		ndjsonParseErrors.WithLabelValues(endpoint).Add(0)
	}
}

func (hi *HTTPInput) Start(ctx context.Context) error {
	return nil
}

func (hi *HTTPInput) Stop() error {
	return nil
}

// rejectedFromInput names the reason an input may not inject eventType, or
// returns "" when it may. Plugin events only come from plugins.
func rejectedFromInput(eventType string) string {
	switch signalk.ClassifyEvent(eventType) {
	case signalk.KindUnknown:
		return "unknown_type"
	case signalk.KindPlugin:
		return "plugin_type"
	}
	return ""
}

func (hi *HTTPInput) handleEvents(w http.ResponseWriter, r *http.Request) {
	hi.handleNDJSON(w, r, func(line string) error {
		e, err := signalk.ParseEvent([]byte(line))
		if err != nil {
			logger.Error("Failed to parse event line", slog.String("line", line), slog.Any("error", err))
			ndjsonParseErrors.WithLabelValues(EVENTS_ENDPOINT).Inc()
			return nil
		}
		if reason := rejectedFromInput(e.Type); reason != "" {
			logger.Warn("Event type not accepted from input", slog.String("type", e.Type), slog.String("reason", reason))
			eventsRejected.WithLabelValues(reason).Inc()
			return nil
		}
		ndjsonLinesReceived.WithLabelValues(EVENTS_ENDPOINT).Inc()
		e.From = ""
		return hi.publisher.Publish(r.Context(), e)
	})
}

func (hi *HTTPInput) handleSentences(w http.ResponseWriter, r *http.Request) {
	hi.handleNDJSON(w, r, func(line string) error {
		ndjsonLinesReceived.WithLabelValues(NMEA0183_ENDPOINT).Inc()
		return hi.publishSentence(r.Context(), line, time.Now().UnixMilli())
	})
}

// maxLineSize bounds a single NDJSON line.
const maxLineSize = 1 << 20

var errUnsupportedEncoding = errors.New("unsupported Content-Encoding")

// decodeBody wraps the request body in the reader its Content-Encoding
// calls for.
func decodeBody(r *http.Request) (io.ReadCloser, error) {
	switch ce := strings.ToLower(r.Header.Get("Content-Encoding")); ce {
	case "", "identity":
		return r.Body, nil
	case "gzip":
		return gzip.NewReader(r.Body)
	case "deflate":
		return zlib.NewReader(r.Body)
	case "zstd":
		dec, err := zstd.NewReader(r.Body)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedEncoding, ce)
	}
}

// handleNDJSON feeds every non-blank body line to handleLine. A publish
// failure aborts the request with 503.
func (hi *HTTPInput) handleNDJSON(w http.ResponseWriter, r *http.Request, handleLine func(string) error) {
	defer r.Body.Close()

	body, err := decodeBody(r)
	if err != nil {
		logger.Error("Cannot decode request body", slog.Any("error", err))
		if errors.Is(err, errUnsupportedEncoding) {
			w.WriteHeader(http.StatusUnsupportedMediaType)
		} else {
			w.WriteHeader(http.StatusBadRequest)
		}
		return
	}
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := handleLine(line); err != nil {
			logger.Warn("Request aborted while publishing", slog.Any("error", err))
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Error("Error reading request body", slog.Any("error", err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}
