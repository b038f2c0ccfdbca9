package input

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
	"navplug.szuro.net/internal/config"
	"navplug.szuro.net/pkg/signalk"
)

type collector struct {
	mu     sync.Mutex
	events []signalk.Event
}

func (c *collector) Publish(ctx context.Context, e signalk.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *collector) received() []signalk.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]signalk.Event(nil), c.events...)
}

func texts(t *testing.T, events []signalk.Event) []string {
	t.Helper()
	out := make([]string, 0, len(events))
	for _, e := range events {
		require.Equal(t, signalk.EventNMEA0183, e.Type)
		text, ok := e.Text()
		require.True(t, ok)
		out = append(out, text)
	}
	return out
}

const rmc = "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A"
const gga = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"

func TestFileInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nmea.log")
	require.NoError(t, os.WriteFile(path, []byte(rmc+"\n\n"+gga+"\n"), 0o600))

	c := &collector{}
	fi := NewFileInput(config.InputConf{Files: []string{path}, FromStart: true, Poll: true}, c)
	require.NoError(t, fi.Start(context.Background()))
	defer fi.Stop()

	require.Eventually(t, func() bool { return len(c.received()) == 2 }, 5*time.Second, 20*time.Millisecond)
	require.Equal(t, []string{rmc, gga}, texts(t, c.received()))
}

func TestFileInputMissingFile(t *testing.T) {
	fi := NewFileInput(config.InputConf{Files: []string{filepath.Join(t.TempDir(), "none", "x.log")}, Poll: true}, &collector{})
	require.NoError(t, fi.Start(context.Background()))
	require.NoError(t, fi.Stop())
}

func newRouter(c *collector) http.Handler {
	r := chi.NewRouter()
	NewHTTPInput(c).RegisterRoutes(r)
	return r
}

func gzipBody(t *testing.T, s string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return &buf
}

func zstdBody(t *testing.T, s string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return &buf
}

func TestHTTPSentences(t *testing.T) {
	tests := []struct {
		name     string
		encoding string
		body     func(t *testing.T) *bytes.Buffer
		status   int
		lines    []string
	}{
		{
			name:   "Plain",
			body:   func(t *testing.T) *bytes.Buffer { return bytes.NewBufferString(rmc + "\n" + gga) },
			status: http.StatusOK,
			lines:  []string{rmc, gga},
		},
		{
			name:     "Gzip",
			encoding: "gzip",
			body:     func(t *testing.T) *bytes.Buffer { return gzipBody(t, rmc+"\n") },
			status:   http.StatusOK,
			lines:    []string{rmc},
		},
		{
			name:     "Zstd",
			encoding: "zstd",
			body:     func(t *testing.T) *bytes.Buffer { return zstdBody(t, "\n"+gga+"\n\n") },
			status:   http.StatusOK,
			lines:    []string{gga},
		},
		{
			name:     "Broken gzip",
			encoding: "gzip",
			body:     func(t *testing.T) *bytes.Buffer { return bytes.NewBufferString("not gzip") },
			status:   http.StatusBadRequest,
		},
		{
			name:     "Unsupported encoding",
			encoding: "br",
			body:     func(t *testing.T) *bytes.Buffer { return bytes.NewBufferString(rmc) },
			status:   http.StatusUnsupportedMediaType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &collector{}
			req := httptest.NewRequest(http.MethodPost, "/nmea0183", tt.body(t))
			if tt.encoding != "" {
				req.Header.Set("Content-Encoding", tt.encoding)
			}
			rec := httptest.NewRecorder()
			newRouter(c).ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)
			if tt.lines == nil {
				require.Empty(t, c.received())
				return
			}
			require.Equal(t, tt.lines, texts(t, c.received()))
		})
	}
}

func TestHTTPEvents(t *testing.T) {
	body := `{"type":"SERVERSTATISTICS","data":{"deltaRate":12.5},"timestamp":1700000000000}
not json
{"type":"PLUGIN_FAKE","data":{}}
{"type":"UNKNOWN","data":{}}
{"type":"nmea0183","from":"spoofed","data":"` + `$GPGGA,1` + `"}
`
	c := &collector{}
	rec := httptest.NewRecorder()
	newRouter(c).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/events", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	got := c.received()
	require.Len(t, got, 2)
	require.Equal(t, signalk.EventServerStatistics, got[0].Type)
	require.Equal(t, int64(1700000000000), got[0].Timestamp)
	require.JSONEq(t, `{"deltaRate":12.5}`, string(got[0].Data))
	require.Equal(t, signalk.EventNMEA0183, got[1].Type)
	require.Empty(t, got[1].From)
}

func TestRejectedFromInput(t *testing.T) {
	tests := []struct {
		eventType string
		reason    string
	}{
		{signalk.EventNMEA0183, ""},
		{signalk.EventServerStatistics, ""},
		{"PLUGIN_FAKE", "plugin_type"},
		{"UNKNOWN", "unknown_type"},
		{"", "unknown_type"},
	}
	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			require.Equal(t, tt.reason, rejectedFromInput(tt.eventType))
		})
	}
}

func TestHTTPMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&collector{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
