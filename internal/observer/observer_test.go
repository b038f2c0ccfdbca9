package observer

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"navplug.szuro.net/internal/config"
	"navplug.szuro.net/internal/filter"
	"navplug.szuro.net/pkg/signalk"
)

func anchorDelta() signalk.Delta {
	return signalk.NewDelta(
		signalk.PathValue{Path: "navigation.anchor.state", Value: "on"},
		signalk.PathValue{Path: "navigation.anchor.maxRadius", Value: 50},
	)
}

func TestPrint(t *testing.T) {
	tests := []struct {
		name   string
		filter filter.Filter
		lines  int
	}{
		{"No filter", filter.Filter{}, 2},
		{"Accept anchor paths", filter.Filter{Accepted: []string{"navigation.anchor.*"}}, 1},
		{"Reject statistics", filter.Filter{Rejected: []string{signalk.EventServerStatistics}}, 1},
		{"Accept nothing matching", filter.Filter{Accepted: []string{"environment.*"}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrintTo("console", &out)
			tt.filter.Activate()
			p.SetFilter(tt.filter)
			p.PrepareMetrics()

			p.SaveDelta("anchor-watch", anchorDelta())
			p.SaveEvent(signalk.NewTextEvent(signalk.EventServerStatistics, "x", 1))

			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			if out.Len() == 0 {
				lines = nil
			}
			require.Len(t, lines, tt.lines)
		})
	}
}

func TestPrintMessageFormat(t *testing.T) {
	var out bytes.Buffer
	p := NewPrintTo("console", &out)
	require.True(t, p.SaveDelta("anchor-watch", anchorDelta()))

	var msg Message
	require.NoError(t, json.Unmarshal(out.Bytes(), &msg))
	require.Equal(t, DELTA, msg.Kind)
	require.Equal(t, "anchor-watch", msg.Plugin)
	require.NotNil(t, msg.Delta)
	require.ElementsMatch(t, []string{"navigation.anchor.state", "navigation.anchor.maxRadius"}, msg.Delta.Paths())
}

func TestFromTarget(t *testing.T) {
	obs, err := FromTarget(config.Target{Name: "p", Type: config.PRINT_TARGET, Connection: STDERR})
	require.NoError(t, err)
	require.Equal(t, "p", obs.GetName())

	s, err := FromTarget(config.Target{Name: "s", Type: config.STREAM_TARGET})
	require.NoError(t, err)
	s.Cleanup()

	_, err = FromTarget(config.Target{Name: "x", Type: "kafka"})
	require.Error(t, err)
}

func TestStream(t *testing.T) {
	s := NewStream("ws")
	defer s.Cleanup()
	s.PrepareMetrics()

	srv := httptest.NewServer(s)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.True(t, s.SaveDelta("anchor-watch", anchorDelta()))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	require.Equal(t, DELTA, msg.Kind)
	require.Equal(t, "anchor-watch", msg.Plugin)

	conn.Close()
	require.Eventually(t, func() bool { return s.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
