// Package anchorwatch implements a geofence monitor for an anchored vessel.
// It keeps the anchor position and swing radius, follows the vessel
// position from NMEA 0183 RMC/GGA sentences and publishes the watch state
// as Signal K deltas under navigation.anchor.
package anchorwatch

import (
	"encoding/json"
	"fmt"
	"net/http"

	"navplug.szuro.net/pkg/geo"
	"navplug.szuro.net/pkg/nmea"
	"navplug.szuro.net/pkg/plugin"
	"navplug.szuro.net/pkg/signalk"
)

const ID = "anchor-watch"

const (
	PathPosition  = "navigation.anchor.position"
	PathMaxRadius = "navigation.anchor.maxRadius"
	PathState     = "navigation.anchor.state"
)

const (
	StateOn  = "on"
	StateOff = "off"
)

var Info = plugin.PluginInfo{
	ID:          ID,
	Name:        "Anchor Watch",
	Version:     "1.0.0",
	Description: "Geofence monitor for an anchored vessel",
	Author:      "navplug",
}

// State is the observable state of the monitor.
type State struct {
	Config       Config
	Running      bool
	LastDistance float64
	AlarmActive  bool
	Vessel       geo.Point
	HasVessel    bool
}

// Monitor is the anchor watch plugin.
type Monitor struct {
	plugin.Base
	state State
}

// New is the plugin.Factory of the anchor watch.
func New(host plugin.Host) plugin.Plugin {
	return NewMonitor(host)
}

func NewMonitor(host plugin.Host) *Monitor {
	return &Monitor{
		Base:  plugin.NewBase(host, Info),
		state: State{Config: DefaultConfig()},
	}
}

// State returns a copy of the current state.
func (m *Monitor) State() State {
	return m.state
}

func (m *Monitor) Schema() string {
	return configSchema
}

func (m *Monitor) anchor() geo.Point {
	return geo.Point{Lat: m.state.Config.AnchorLat, Lon: m.state.Config.AnchorLon}
}

func (m *Monitor) Start(raw []byte) int {
	cfg, err := ParseConfig(raw)
	if err != nil {
		m.ReportError(err)
		return plugin.StatusConfigError
	}

	m.state.Config = cfg
	m.state.Running = true
	m.state.AlarmActive = false
	m.state.LastDistance = 0
	m.state.HasVessel = false
	m.Debugf("Anchor watch starting: anchor %.6f,%.6f radius %.0fm check every %ds",
		cfg.AnchorLat, cfg.AnchorLon, cfg.MaxRadius, cfg.CheckInterval)

	for _, path := range []string{PathPosition, PathMaxRadius, PathState} {
		if !m.Host.RegisterPutHandler(signalk.SelfContext, path) {
			m.Debugf("PUT handler for %s not registered", path)
		}
	}
	if !m.Host.SubscribeEvents([]string{signalk.EventNMEA0183}) {
		m.Debugf("Vessel position subscription rejected")
	}

	m.Host.SetStatus("Anchor watch active")
	m.emitState(true)
	return plugin.StatusOK
}

func (m *Monitor) Stop() int {
	m.state.Running = false
	m.emitState(false)
	m.Debugf("Anchor watch stopped")
	m.Host.SetStatus("Stopped")
	return plugin.StatusOK
}

// UpdatePosition records a vessel fix while the watch is armed and
// re-publishes the watch state. It reports whether the fix was used.
// The alarm flag is left to the host to decide from LastDistance.
func (m *Monitor) UpdatePosition(p geo.Point) bool {
	if !m.state.Running {
		return false
	}
	m.state.Vessel = p
	m.state.HasVessel = true
	m.state.LastDistance = geo.Distance(m.anchor(), p)
	m.emitState(true)
	return true
}

// UpdateAnchor moves the anchor and re-publishes the watch state.
func (m *Monitor) UpdateAnchor(lat, lon float64) {
	m.state.Config.AnchorLat = lat
	m.state.Config.AnchorLon = lon
	if m.state.HasVessel {
		m.state.LastDistance = geo.Distance(m.anchor(), m.state.Vessel)
	}
	m.emitState(m.state.Running)
	m.Host.SetStatus(fmt.Sprintf("Anchor position set to %.6f, %.6f", lat, lon))
}

// UpdateRadius changes the swing radius. Out of range values are rejected
// without changing state.
func (m *Monitor) UpdateRadius(radius float64) error {
	if err := plugin.CheckRange("maxRadius", radius, MinRadius, MaxRadius, radiusMessage); err != nil {
		m.ReportError(err)
		return err
	}
	m.state.Config.MaxRadius = radius
	m.emitState(m.state.Running)
	m.Host.SetStatus(fmt.Sprintf("Max radius set to %.0fm", radius))
	return nil
}

// emitState publishes the watch state. The full state is only sent while
// enabled with a non-origin anchor; otherwise just the state label.
func (m *Monitor) emitState(enabled bool) {
	label := StateOff
	if enabled {
		label = StateOn
	}

	var values []signalk.PathValue
	if enabled && !m.anchor().IsOrigin() {
		values = append(values,
			signalk.PathValue{Path: PathPosition, Value: signalk.Position{
				Latitude:  m.state.Config.AnchorLat,
				Longitude: m.state.Config.AnchorLon,
			}},
			signalk.PathValue{Path: PathMaxRadius, Value: m.state.Config.MaxRadius},
		)
	}
	values = append(values, signalk.PathValue{Path: PathState, Value: label})

	if !m.Host.HandleMessage(signalk.NewDelta(values...)) {
		m.Debugf("Anchor state delta rejected")
	}
}

func (m *Monitor) HandlePut(context, path string, value []byte) signalk.PutResponse {
	switch path {
	case PathPosition:
		var pos signalk.Position
		if err := json.Unmarshal(value, &pos); err != nil {
			verr := plugin.NewInvalidValueError("position", err, fmt.Sprintf("Invalid position format: %v", err))
			m.ReportError(verr)
			return signalk.PutFailed(http.StatusBadRequest, plugin.UserMessage(verr))
		}
		m.UpdateAnchor(pos.Latitude, pos.Longitude)
		return signalk.PutOK("")

	case PathMaxRadius:
		var radius float64
		if err := json.Unmarshal(value, &radius); err != nil {
			verr := plugin.NewInvalidValueError("maxRadius", err, fmt.Sprintf("Invalid radius: %v", err))
			m.ReportError(verr)
			return signalk.PutFailed(http.StatusBadRequest, plugin.UserMessage(verr))
		}
		if err := m.UpdateRadius(radius); err != nil {
			return signalk.PutFailed(http.StatusBadRequest, plugin.UserMessage(err))
		}
		return signalk.PutOK("")

	case PathState:
		return signalk.PutOK("Anchor watch state is controlled by enabling/disabling the plugin")
	}

	return m.Base.HandlePut(context, path, value)
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

	switch event.Kind() {
	case signalk.KindNMEA0183:
		line, ok := event.Text()
		if !ok {
			m.Debugf("Dropping nmea0183 event without sentence text")
			return
		}
		if p, ok := vesselFix(line); ok {
			m.UpdatePosition(p)
		}
	default:
		m.Debugf("Ignoring %s event", event.Type)
	}
}

// vesselFix extracts a usable position from an RMC or GGA sentence.
func vesselFix(line string) (geo.Point, bool) {
	s, ok := nmea.Parse(line)
	if !ok || len(s.Fields) < 10 {
		return geo.Point{}, false
	}

	var latIdx int
	switch s.Type {
	case nmea.TypeRMC:
		if s.Field(2) != "A" {
			return geo.Point{}, false
		}
		latIdx = 3
	case nmea.TypeGGA:
		if q := s.Field(6); q == "" || q == "0" {
			return geo.Point{}, false
		}
		latIdx = 2
	default:
		return geo.Point{}, false
	}

	lat, okLat := nmea.DecodeCoordinate(s.Field(latIdx), s.Field(latIdx+1))
	lon, okLon := nmea.DecodeCoordinate(s.Field(latIdx+2), s.Field(latIdx+3))
	if !okLat || !okLon {
		return geo.Point{}, false
	}
	return geo.Point{Lat: lat, Lon: lon}, true
}
