package anchorwatch

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"navplug.szuro.net/pkg/geo"
	"navplug.szuro.net/pkg/plugin"
	"navplug.szuro.net/pkg/plugin/plugintest"
	"navplug.szuro.net/pkg/signalk"
)

const armedConfig = `{"anchorLat":60.1699,"anchorLon":24.9384,"maxRadius":80}`

func startedMonitor(t *testing.T, config string) (*Monitor, *plugintest.Recorder) {
	t.Helper()
	rec := &plugintest.Recorder{}
	m := NewMonitor(rec)
	require.Equal(t, plugin.StatusOK, m.Start([]byte(config)))
	return m, rec
}

func nmeaEvent(t *testing.T, line string) []byte {
	t.Helper()
	raw, err := json.Marshal(signalk.NewTextEvent(signalk.EventNMEA0183, line, 1700000000000))
	require.NoError(t, err)
	return raw
}

func TestStartDefaults(t *testing.T) {
	m, rec := startedMonitor(t, `{}`)

	st := m.State()
	require.True(t, st.Running)
	require.False(t, st.AlarmActive)
	require.Equal(t, DefaultMaxRadius, st.Config.MaxRadius)
	require.Equal(t, DefaultCheckInterval, st.Config.CheckInterval)

	require.Equal(t, []string{"Anchor watch active"}, rec.Statuses)
	require.Len(t, rec.PutHandlers, 3)
	require.Equal(t, [][]string{{signalk.EventNMEA0183}}, rec.Subscriptions)

	// origin anchor: only the state label is published
	d, ok := rec.LastDelta()
	require.True(t, ok)
	require.Equal(t, signalk.SelfContext, d.Context)
	require.Equal(t, []string{PathState}, d.Paths())
	v, _ := d.Value(PathState)
	require.Equal(t, StateOn, v)
}

func TestStartArmedEmitsFullState(t *testing.T) {
	_, rec := startedMonitor(t, armedConfig)

	d, ok := rec.LastDelta()
	require.True(t, ok)
	require.Equal(t, []string{PathPosition, PathMaxRadius, PathState}, d.Paths())

	pos, _ := d.Value(PathPosition)
	require.Equal(t, signalk.Position{Latitude: 60.1699, Longitude: 24.9384}, pos)
	radius, _ := d.Value(PathMaxRadius)
	require.Equal(t, 80.0, radius)
}

func TestStartRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		message string
	}{
		{"malformed json", `{"maxRadius":`, "Failed to parse config"},
		{"empty payload", ``, "Failed to parse config"},
		{"wrong type", `{"anchorLat":"north"}`, "Failed to parse config"},
		{"radius too small", `{"maxRadius":5}`, radiusMessage},
		{"radius too large", `{"maxRadius":1001}`, radiusMessage},
		{"interval out of range", `{"checkInterval":0}`, "Check interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &plugintest.Recorder{}
			m := NewMonitor(rec)
			before := m.State()

			require.Equal(t, plugin.StatusConfigError, m.Start([]byte(tt.payload)))
			require.Equal(t, before, m.State())
			require.Len(t, rec.Errors, 1)
			require.Contains(t, rec.Errors[0], tt.message)
			require.Empty(t, rec.Deltas)
			require.Empty(t, rec.PutHandlers)
		})
	}
}

func TestRestartWithInvalidConfigKeepsState(t *testing.T) {
	m, _ := startedMonitor(t, armedConfig)
	before := m.State()

	require.Equal(t, plugin.StatusConfigError, m.Start([]byte(`{"maxRadius":2}`)))
	require.Equal(t, before, m.State())
}

func TestStopEmitsOff(t *testing.T) {
	m, rec := startedMonitor(t, armedConfig)
	rec.Reset()

	require.Equal(t, plugin.StatusOK, m.Stop())
	require.False(t, m.State().Running)
	require.Equal(t, "Stopped", rec.LastStatus())

	d, ok := rec.LastDelta()
	require.True(t, ok)
	require.Equal(t, []string{PathState}, d.Paths())
	v, _ := d.Value(PathState)
	require.Equal(t, StateOff, v)
}

func TestUpdatePosition(t *testing.T) {
	rec := &plugintest.Recorder{}
	m := NewMonitor(rec)

	require.False(t, m.UpdatePosition(geo.Point{Lat: 1, Lon: 1}))
	require.Empty(t, rec.Deltas)

	require.Equal(t, plugin.StatusOK, m.Start([]byte(armedConfig)))
	rec.Reset()

	// roughly 100m north of the anchor, outside the 80m radius
	require.True(t, m.UpdatePosition(geo.Point{Lat: 60.1708, Lon: 24.9384}))
	st := m.State()
	require.InDelta(t, 100.08, st.LastDistance, 0.1)
	require.False(t, st.AlarmActive)
	require.True(t, st.HasVessel)

	d, ok := rec.LastDelta()
	require.True(t, ok)
	require.Equal(t, []string{PathPosition, PathMaxRadius, PathState}, d.Paths())
}

func TestPutMaxRadius(t *testing.T) {
	m, rec := startedMonitor(t, armedConfig)
	rec.Reset()

	resp := m.HandlePut(signalk.SelfContext, PathMaxRadius, []byte(`5000`))
	require.Equal(t, signalk.StateCompleted, resp.State)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, radiusMessage, resp.Message)
	require.Equal(t, 80.0, m.State().Config.MaxRadius)
	require.Empty(t, rec.Deltas)
	require.Len(t, rec.Errors, 1)

	resp = m.HandlePut(signalk.SelfContext, PathMaxRadius, []byte(`"wide"`))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, resp.Message, "Invalid radius")

	resp = m.HandlePut(signalk.SelfContext, PathMaxRadius, []byte(`500`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 500.0, m.State().Config.MaxRadius)
	d, ok := rec.LastDelta()
	require.True(t, ok)
	radius, _ := d.Value(PathMaxRadius)
	require.Equal(t, 500.0, radius)
}

func TestPutPosition(t *testing.T) {
	m, rec := startedMonitor(t, `{}`)
	rec.Reset()

	resp := m.HandlePut(signalk.SelfContext, PathPosition, []byte(`[1,2]`))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, resp.Message, "Invalid position format")

	resp = m.HandlePut(signalk.SelfContext, PathPosition, []byte(`{"latitude":-33.86,"longitude":151.21}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cfg := m.State().Config
	require.Equal(t, -33.86, cfg.AnchorLat)
	require.Equal(t, 151.21, cfg.AnchorLon)

	d, ok := rec.LastDelta()
	require.True(t, ok)
	require.Equal(t, []string{PathPosition, PathMaxRadius, PathState}, d.Paths())
}

func TestPutPositionWhileStopped(t *testing.T) {
	rec := &plugintest.Recorder{}
	m := NewMonitor(rec)

	resp := m.HandlePut(signalk.SelfContext, PathPosition, []byte(`{"latitude":10,"longitude":20}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	d, ok := rec.LastDelta()
	require.True(t, ok)
	require.Equal(t, []string{PathState}, d.Paths())
	v, _ := d.Value(PathState)
	require.Equal(t, StateOff, v)
}

func TestPutStateAndUnknownPath(t *testing.T) {
	m, _ := startedMonitor(t, `{}`)

	resp := m.HandlePut(signalk.SelfContext, PathState, []byte(`"off"`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Message, "enabling/disabling the plugin")
	require.True(t, m.State().Running)

	resp = m.HandlePut(signalk.SelfContext, "navigation.speedOverGround", []byte(`1`))
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestOnEventFollowsVessel(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		moves bool
	}{
		{"active RMC", "$GPRMC,123519,A,6010.248,N,02456.304,E,000.5,084.4,230394,003.1,W*6A", true},
		{"void RMC", "$GPRMC,123519,V,6010.248,N,02456.304,E,000.5,084.4,230394,003.1,W*6A", false},
		{"GGA with fix", "$GPGGA,123519,6010.248,N,02456.304,E,1,08,0.9,545.4,M,46.9,M,,*47", true},
		{"GGA without fix", "$GPGGA,123519,6010.248,N,02456.304,E,0,08,0.9,545.4,M,46.9,M,,*47", false},
		{"short RMC", "$GPRMC,123519,A*00", false},
		{"bad coordinate", "$GPRMC,123519,A,60,N,02456.304,E,000.5,084.4,230394,003.1,W*6A", false},
		{"unsupported sentence", "$GPVTG,054.7,T,034.4,M,005.5,N,010.2,K*48", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, rec := startedMonitor(t, armedConfig)
			rec.Reset()

			m.OnEvent(nmeaEvent(t, tt.line))
			require.Equal(t, tt.moves, m.State().HasVessel)
			if tt.moves {
				require.InDelta(t, 60.1708, m.State().Vessel.Lat, 1e-4)
				require.Len(t, rec.Deltas, 1)
			} else {
				require.Empty(t, rec.Deltas)
			}
		})
	}
}

func TestOnEventIgnoredWhenStopped(t *testing.T) {
	rec := &plugintest.Recorder{}
	m := NewMonitor(rec)
	m.OnEvent(nmeaEvent(t, "$GPRMC,123519,A,6010.248,N,02456.304,E,000.5,084.4,230394,003.1,W*6A"))
	require.False(t, m.State().HasVessel)
	require.Empty(t, rec.Deltas)
}

func TestOnEventDropsOtherKinds(t *testing.T) {
	m, rec := startedMonitor(t, armedConfig)
	rec.Reset()

	m.OnEvent([]byte(`{"type":"SERVERSTATISTICS","data":{"deltaRate":3},"timestamp":1}`))
	m.OnEvent([]byte(`not json`))
	m.OnEvent([]byte(`{"type":"nmea0183","data":{"sentence":"x"},"timestamp":1}`))

	require.Empty(t, rec.Deltas)
	require.Len(t, rec.Debugs, 3)
}
