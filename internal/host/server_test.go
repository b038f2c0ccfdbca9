package host

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"navplug.szuro.net/internal/anchorwatch"
	"navplug.szuro.net/internal/config"
	"navplug.szuro.net/internal/deltarate"
	"navplug.szuro.net/internal/filter"
	"navplug.szuro.net/internal/observer"
	"navplug.szuro.net/pkg/plugin"
	"navplug.szuro.net/pkg/signalk"
)

// recordingPlugin subscribes to a fixed list of event types and keeps
// every event it receives.
type recordingPlugin struct {
	plugin.Base
	subscribe []string
	emit      string
	release   chan struct{}

	mu     sync.Mutex
	events []signalk.Event
}

func (p *recordingPlugin) Start(raw []byte) int {
	p.Host.SubscribeEvents(p.subscribe)
	if p.release != nil {
		<-p.release
	}
	return plugin.StatusOK
}

func (p *recordingPlugin) Stop() int { return plugin.StatusOK }

func (p *recordingPlugin) OnEvent(raw []byte) {
	e, err := signalk.ParseEvent(raw)
	if err != nil {
		return
	}
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
	if p.emit != "" {
		p.Host.EmitEvent(p.emit, []byte(`{"seen":true}`))
	}
}

func (p *recordingPlugin) received() []signalk.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]signalk.Event(nil), p.events...)
}

func recordingFactory(p *recordingPlugin, id string) plugin.Factory {
	return func(h plugin.Host) plugin.Plugin {
		p.Base = plugin.NewBase(h, plugin.PluginInfo{ID: id, Name: id})
		return p
	}
}

type recordingObserver struct {
	observer.Print
	mu     sync.Mutex
	deltas []signalk.Delta
	events []signalk.Event
}

func (o *recordingObserver) SaveDelta(pluginID string, d signalk.Delta) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deltas = append(o.deltas, d)
	return true
}

func (o *recordingObserver) SaveEvent(e signalk.Event) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
	return true
}

func (o *recordingObserver) SetFilter(filter.Filter) {}

func (o *recordingObserver) deltaCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.deltas)
}

func newTestServer(t *testing.T, observers ...observer.Observer) *Server {
	t.Helper()
	conf := config.NavConf{BufferSize: 100, StartBuffer: 100, StatisticsInterval: time.Second}
	s, err := NewServer(conf, observers)
	require.NoError(t, err)
	t.Cleanup(s.Shutdown)
	return s
}

func addPlugin(t *testing.T, s *Server, id string, factory plugin.Factory, configuration map[string]any) *Instance {
	t.Helper()
	inst, err := s.Add(config.PluginConf{ID: id, Configuration: configuration}, factory)
	require.NoError(t, err)
	return inst
}

func nmeaEvent(text string) signalk.Event {
	return signalk.NewTextEvent(signalk.EventNMEA0183, text, 0)
}

func TestRoutingBySubscription(t *testing.T) {
	s := newTestServer(t)
	nmea := &recordingPlugin{subscribe: []string{signalk.EventNMEA0183}}
	stats := &recordingPlugin{subscribe: []string{signalk.EventServerStatistics}}
	require.Equal(t, plugin.StatusOK, addPlugin(t, s, "nmea", recordingFactory(nmea, "nmea"), nil).Start())
	require.Equal(t, plugin.StatusOK, addPlugin(t, s, "stats", recordingFactory(stats, "stats"), nil).Start())

	ctx := context.Background()
	require.NoError(t, s.Publish(ctx, nmeaEvent("$GPRMC,1")))
	require.NoError(t, s.Publish(ctx, signalk.Event{Type: signalk.EventServerStatistics, Data: json.RawMessage(`{}`)}))

	require.Eventually(t, func() bool { return len(stats.received()) == 1 }, time.Second, 5*time.Millisecond)
	got := nmea.received()
	require.Len(t, got, 1)
	require.Equal(t, signalk.EventNMEA0183, got[0].Type)
	require.NotZero(t, got[0].Timestamp)
}

func TestSubscribeFiltersDisallowedTypes(t *testing.T) {
	s := newTestServer(t)
	p := &recordingPlugin{subscribe: []string{"NOT_AN_EVENT", signalk.EventVesselInfo}}
	inst := addPlugin(t, s, "p", recordingFactory(p, "p"), nil)
	require.Equal(t, plugin.StatusOK, inst.Start())
	require.Equal(t, []string{signalk.EventVesselInfo}, inst.Status().Subscriptions)

	caps := capabilities{inst: inst}
	require.False(t, caps.SubscribeEvents([]string{"bogus"}))
	require.True(t, caps.SubscribeEvents(nil))
}

func TestPluginEventsArePrefixed(t *testing.T) {
	s := newTestServer(t)
	listener := &recordingPlugin{subscribe: []string{"PLUGIN_ALERT"}}
	emitter := &recordingPlugin{subscribe: []string{}, emit: "ALERT"}
	addPlugin(t, s, "listener", recordingFactory(listener, "listener"), nil).Start()
	addPlugin(t, s, "emitter", recordingFactory(emitter, "emitter"), nil).Start()

	require.NoError(t, s.Publish(context.Background(), signalk.Event{Type: signalk.EventVesselInfo, Data: json.RawMessage(`{}`)}))

	require.Eventually(t, func() bool { return len(listener.received()) == 1 }, time.Second, 5*time.Millisecond)
	e := listener.received()[0]
	require.Equal(t, "PLUGIN_ALERT", e.Type)
	require.Equal(t, "emitter", e.From)
	require.JSONEq(t, `{"seen":true}`, string(e.Data))

	// the emitter subscribed to everything but never sees its own event
	require.Len(t, emitter.received(), 1)
	require.Equal(t, signalk.EventVesselInfo, emitter.received()[0].Type)
}

func TestEventsBufferedDuringStart(t *testing.T) {
	s := newTestServer(t)
	p := &recordingPlugin{subscribe: []string{signalk.EventNMEA0183}, release: make(chan struct{})}
	inst := addPlugin(t, s, "slow", recordingFactory(p, "slow"), nil)

	done := make(chan int)
	go func() { done <- inst.Start() }()

	require.Eventually(t, func() bool { return len(inst.Status().Subscriptions) == 1 }, time.Second, 5*time.Millisecond)
	for _, line := range []string{"a", "b", "c"} {
		require.NoError(t, s.Publish(context.Background(), nmeaEvent(line)))
	}
	require.Eventually(t, func() bool { return s.buffer.Len("slow") == 3 }, time.Second, 5*time.Millisecond)
	require.Empty(t, p.received())

	close(p.release)
	require.Equal(t, plugin.StatusOK, <-done)

	got := p.received()
	require.Len(t, got, 3)
	for i, want := range []string{"a", "b", "c"} {
		text, ok := got[i].Text()
		require.True(t, ok)
		require.Equal(t, want, text)
	}
	require.Equal(t, 0, s.buffer.Len("slow"))
}

func TestAnchorWatchPut(t *testing.T) {
	obs := &recordingObserver{}
	s := newTestServer(t, obs)
	inst := addPlugin(t, s, anchorwatch.ID, anchorwatch.New, map[string]any{
		"anchorLat": 60.1699, "anchorLon": 24.9384, "maxRadius": 80,
	})
	require.Equal(t, plugin.StatusOK, inst.Start())
	require.True(t, inst.Running())
	require.Equal(t, "Anchor watch active", inst.Status().Status)
	require.Equal(t, 1, obs.deltaCount())

	resp := s.Put(signalk.SelfContext, anchorwatch.PathPosition, []byte(`{"latitude":60.17,"longitude":24.94}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 2, obs.deltaCount())

	resp = s.Put(signalk.SelfContext, anchorwatch.PathMaxRadius, []byte(`5`))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Radius must be between 10 and 1000 meters", resp.Message)

	resp = s.Put(signalk.SelfContext, "navigation.speedOverGround", []byte(`1`))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	require.Equal(t, plugin.StatusOK, inst.Stop())
	require.False(t, inst.Running())
	resp = s.Put(signalk.SelfContext, anchorwatch.PathPosition, []byte(`{"latitude":1,"longitude":2}`))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPutPathOwnership(t *testing.T) {
	s := newTestServer(t)
	addPlugin(t, s, anchorwatch.ID, anchorwatch.New, nil).Start()
	other := addPlugin(t, s, "other", recordingFactory(&recordingPlugin{}, "other"), nil)

	caps := capabilities{inst: other}
	require.False(t, caps.RegisterPutHandler(signalk.SelfContext, anchorwatch.PathPosition))
	require.True(t, caps.RegisterPutHandler(signalk.SelfContext, "steering.autopilot.state"))
}

func TestStartConfigError(t *testing.T) {
	s := newTestServer(t)
	inst := addPlugin(t, s, anchorwatch.ID, anchorwatch.New, map[string]any{"maxRadius": 5000})
	require.Equal(t, plugin.StatusConfigError, inst.Start())

	status := inst.Status()
	require.False(t, status.Running)
	require.Equal(t, "Radius must be between 10 and 1000 meters", status.Error)
	_, owned := s.puts.Owner(signalk.SelfContext, anchorwatch.PathPosition)
	require.False(t, owned)
}

func TestDuplicatePlugin(t *testing.T) {
	s := newTestServer(t)
	addPlugin(t, s, "dup", recordingFactory(&recordingPlugin{}, "dup"), nil)
	_, err := s.Add(config.PluginConf{ID: "dup"}, recordingFactory(&recordingPlugin{}, "dup"))
	require.Error(t, err)
}

func TestStatistics(t *testing.T) {
	s := newTestServer(t)
	delta := signalk.NewDelta(signalk.PathValue{Path: "navigation.speedOverGround", Value: 3.2})
	for i := 0; i < 10; i++ {
		require.True(t, s.handleDelta("p", delta))
	}
	require.False(t, s.handleDelta("p", signalk.Delta{}))

	now := s.started.Add(30 * time.Second)
	stats := s.statistics(2*time.Second, now)
	require.InDelta(t, 5.0, stats.DeltaRate, 1e-9)
	require.InDelta(t, 30.0, stats.Uptime, 1e-9)
	require.Equal(t, 0, stats.WSClients)

	stats = s.statistics(2*time.Second, now)
	require.Zero(t, stats.DeltaRate)
}

func TestDeltaRateAlertReachesSubscribers(t *testing.T) {
	s := newTestServer(t)
	listener := &recordingPlugin{subscribe: []string{"PLUGIN_" + deltarate.EventHighDeltaRate}}
	addPlugin(t, s, "listener", recordingFactory(listener, "listener"), nil).Start()
	monitor := addPlugin(t, s, deltarate.ID, deltarate.New, map[string]any{"deltaRateThreshold": 50})
	require.Equal(t, plugin.StatusOK, monitor.Start())

	s.publishStatistics(time.Second, time.Now())
	require.NoError(t, s.Publish(context.Background(), signalk.Event{
		Type: signalk.EventServerStatistics,
		Data: json.RawMessage(`{"deltaRate":120,"wsClients":2,"uptime":60}`),
	}))

	require.Eventually(t, func() bool { return len(listener.received()) == 1 }, time.Second, 5*time.Millisecond)
	var alert deltarate.HighDeltaRate
	require.NoError(t, json.Unmarshal(listener.received()[0].Data, &alert))
	require.Equal(t, 120.0, alert.CurrentRate)
	require.Equal(t, 50.0, alert.Threshold)
	require.Equal(t, deltarate.ID, listener.received()[0].From)
}
