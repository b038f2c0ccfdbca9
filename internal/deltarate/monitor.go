// Package deltarate watches server statistics and raises an alert event
// when the delta rate crosses a threshold. Alerts use hysteresis: one
// HIGH_DELTA_RATE when the rate rises above the threshold and one
// HIGH_DELTA_RATE_CLEARED when it falls back to or below it.
package deltarate

import (
	"encoding/json"
	"fmt"
	"net/http"

	"navplug.szuro.net/pkg/plugin"
	"navplug.szuro.net/pkg/signalk"
)

const ID = "delta-rate-monitor"

const (
	EventHighDeltaRate        = "HIGH_DELTA_RATE"
	EventHighDeltaRateCleared = "HIGH_DELTA_RATE_CLEARED"
	EventMonitorStopped       = "MONITOR_STOPPED"
)

// statusEvery is how many events pass between periodic status refreshes.
const statusEvery = 12

const statusMonitoring = "Monitoring server events"

var Info = plugin.PluginInfo{
	ID:          ID,
	Name:        "Delta Rate Monitor",
	Version:     "1.0.0",
	Description: "Alerts when the server delta rate exceeds a threshold",
	Author:      "navplug",
}

// State is the observable state of the monitor.
type State struct {
	Config         Config
	Running        bool
	EventsReceived uint64
	LastDeltaRate  float64
	AlertActive    bool
	WSClients      uint32
	UptimeSeconds  float64
}

// HighDeltaRate is the payload of EventHighDeltaRate.
type HighDeltaRate struct {
	CurrentRate   float64 `json:"currentRate"`
	Threshold     float64 `json:"threshold"`
	WSClients     uint32  `json:"wsClients"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
	Message       string  `json:"message"`
}

// HighDeltaRateCleared is the payload of EventHighDeltaRateCleared.
type HighDeltaRateCleared struct {
	CurrentRate float64 `json:"currentRate"`
	Threshold   float64 `json:"threshold"`
	Message     string  `json:"message"`
}

// MonitorStopped is the payload of EventMonitorStopped.
type MonitorStopped struct {
	EventsReceived uint64 `json:"eventsReceived"`
	AlertActive    bool   `json:"alertActive"`
}

// serverStatistics fields are optional; only present ones are merged.
type serverStatistics struct {
	DeltaRate *float64 `json:"deltaRate"`
	WSClients *uint32  `json:"wsClients"`
	Uptime    *float64 `json:"uptime"`
}

// Monitor is the delta rate plugin.
type Monitor struct {
	plugin.Base
	state State
}

func New(host plugin.Host) plugin.Plugin {
	return NewMonitor(host)
}

func NewMonitor(host plugin.Host) *Monitor {
	return &Monitor{
		Base:  plugin.NewBase(host, Info),
		state: State{Config: DefaultConfig()},
	}
}

func (m *Monitor) State() State {
	return m.state
}

func (m *Monitor) Schema() string {
	return configSchema
}

func (m *Monitor) Start(raw []byte) int {
	cfg, err := ParseConfig(raw)
	if err != nil {
		m.ReportError(err)
		return plugin.StatusConfigError
	}
	if !m.Host.SubscribeEvents([]string{signalk.EventServerStatistics, signalk.EventVesselInfo}) {
		m.Host.SetError("Failed to subscribe to server events")
		return plugin.StatusConfigError
	}

	m.state = State{Config: cfg, Running: true}
	m.Debugf("Delta rate monitor started, threshold %.1f/s", cfg.DeltaRateThreshold)
	m.Host.SetStatus(statusMonitoring)
	return plugin.StatusOK
}

func (m *Monitor) Stop() int {
	m.state.Running = false
	m.EmitJSON(EventMonitorStopped, MonitorStopped{
		EventsReceived: m.state.EventsReceived,
		AlertActive:    m.state.AlertActive,
	})
	m.Debugf("Delta rate monitor stopped after %d events", m.state.EventsReceived)
	m.Host.SetStatus("Stopped")
	return plugin.StatusOK
}

func (m *Monitor) OnEvent(raw []byte) {
	if !m.state.Running {
		return
	}
	event, err := signalk.ParseEvent(raw)
	if err != nil {
		m.Debugf("Dropping malformed event: %v", err)
		return
	}

	m.state.EventsReceived++
	if m.state.Config.EnableDebug {
		m.Debugf("Received %s event from %q", event.Type, event.From)
	}

	switch event.Kind() {
	case signalk.KindServerStatistics:
		m.handleStatistics(event)
	case signalk.KindVesselInfo:
		if m.state.Config.EnableDebug {
			m.Debugf("Vessel info: %s", string(event.Data))
		}
	default:
		if m.state.Config.EnableDebug {
			m.Debugf("Ignoring %s event", event.Type)
		}
	}

	if m.state.EventsReceived%statusEvery == 0 {
		m.Host.SetStatus(fmt.Sprintf("Delta rate: %.1f/s, WS clients: %d, Uptime: %.0fs",
			m.state.LastDeltaRate, m.state.WSClients, m.state.UptimeSeconds))
	}
}

func (m *Monitor) handleStatistics(event signalk.Event) {
	var stats serverStatistics
	if err := json.Unmarshal(event.Data, &stats); err != nil {
		m.Debugf("%s", plugin.UserMessage(plugin.NewEventPayloadError(event.Type, err)))
		return
	}
	if stats.DeltaRate != nil {
		m.state.LastDeltaRate = *stats.DeltaRate
	}
	if stats.WSClients != nil {
		m.state.WSClients = *stats.WSClients
	}
	if stats.Uptime != nil {
		m.state.UptimeSeconds = *stats.Uptime
	}

	rate := m.state.LastDeltaRate
	threshold := m.state.Config.DeltaRateThreshold

	switch {
	case rate > threshold && !m.state.AlertActive:
		m.state.AlertActive = true
		alert := HighDeltaRate{
			CurrentRate:   rate,
			Threshold:     threshold,
			WSClients:     m.state.WSClients,
			UptimeSeconds: m.state.UptimeSeconds,
			Message:       fmt.Sprintf("Delta rate (%.1f/s) exceeded threshold (%.1f/s)", rate, threshold),
		}
		if m.EmitJSON(EventHighDeltaRate, alert) {
			m.Debugf("Emitted %s: %s", EventHighDeltaRate, alert.Message)
		}
		m.Host.SetStatus(fmt.Sprintf("Alert: High delta rate (%.1f/s)", rate))

	case rate <= threshold && m.state.AlertActive:
		m.state.AlertActive = false
		cleared := HighDeltaRateCleared{
			CurrentRate: rate,
			Threshold:   threshold,
			Message:     fmt.Sprintf("Delta rate (%.1f/s) returned to normal (threshold: %.1f/s)", rate, threshold),
		}
		if m.EmitJSON(EventHighDeltaRateCleared, cleared) {
			m.Debugf("Emitted %s: %s", EventHighDeltaRateCleared, cleared.Message)
		}
		m.Host.SetStatus(statusMonitoring)
	}
}

func (m *Monitor) Endpoints() []signalk.Endpoint {
	return []signalk.Endpoint{{Method: http.MethodGet, Path: "/api/status", Handler: "status"}}
}

func (m *Monitor) ServeEndpoint(handler string, req signalk.HTTPRequest) signalk.HTTPResponse {
	if handler != "status" {
		return m.Base.ServeEndpoint(handler, req)
	}
	return signalk.JSONResponse(http.StatusOK, map[string]any{
		"running":        m.state.Running,
		"eventsReceived": m.state.EventsReceived,
		"deltaRate":      m.state.LastDeltaRate,
		"threshold":      m.state.Config.DeltaRateThreshold,
		"alertActive":    m.state.AlertActive,
		"wsClients":      m.state.WSClients,
		"uptimeSeconds":  m.state.UptimeSeconds,
	})
}
