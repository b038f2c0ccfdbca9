// Package n2kbridge translates NMEA 0183 position sentences into NMEA 2000
// PGN messages in canboat JSON form.
//
// RMC sentences with an active status become PGN 129025 (position) and
// PGN 129026 (COG/SOG); GGA sentences with a fix become PGN 129025.
package n2kbridge

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"navplug.szuro.net/pkg/nmea"
	"navplug.szuro.net/pkg/plugin"
	"navplug.szuro.net/pkg/signalk"
)

const ID = "nmea0183-to-n2k"

const (
	// KnotsToMetersPerSecond converts speed over ground.
	KnotsToMetersPerSecond = 0.514444

	// minFields is the field count both RMC and GGA need to be translated.
	minFields = 10

	// statusEvery is how many sentences pass between status refreshes.
	statusEvery = 60
)

var Info = plugin.PluginInfo{
	ID:          ID,
	Name:        "NMEA 0183 to NMEA 2000",
	Version:     "1.0.0",
	Description: "Translates RMC and GGA sentences into PGN 129025 and 129026",
	Author:      "navplug",
}

// Counters are the translator statistics.
type Counters struct {
	SentencesReceived uint64 `json:"sentencesReceived"`
	PGNsEmitted       uint64 `json:"pgnsEmitted"`
	ParseErrors       uint64 `json:"parseErrors"`
}

type State struct {
	Config  Config
	Running bool
	Counters
}

// Translator is the protocol translation plugin.
type Translator struct {
	plugin.Base
	state State
}

func New(host plugin.Host) plugin.Plugin {
	return NewTranslator(host)
}

func NewTranslator(host plugin.Host) *Translator {
	return &Translator{
		Base:  plugin.NewBase(host, Info),
		state: State{Config: DefaultConfig()},
	}
}

func (t *Translator) State() State {
	return t.state
}

func (t *Translator) Schema() string {
	return configSchema
}

func (t *Translator) Start(raw []byte) int {
	cfg, err := ParseConfig(raw)
	if err != nil {
		t.ReportError(err)
		return plugin.StatusConfigError
	}
	if !t.Host.SubscribeEvents([]string{signalk.EventNMEA0183}) {
		t.Host.SetError("Failed to subscribe to nmea0183 events")
		return plugin.StatusConfigError
	}

	t.state = State{Config: cfg, Running: true}
	t.Debugf("Translator started with source address %d", cfg.SourceAddress)
	t.Host.SetStatus("Translating NMEA 0183 to NMEA 2000")
	return plugin.StatusOK
}

func (t *Translator) Stop() int {
	t.state.Running = false
	t.Host.SetStatus(t.statusText())
	t.Debugf("Translator stopped: %s", t.statusText())
	return plugin.StatusOK
}

func (t *Translator) statusText() string {
	return fmt.Sprintf("Received: %d sentences, Emitted: %d PGNs, Errors: %d",
		t.state.SentencesReceived, t.state.PGNsEmitted, t.state.ParseErrors)
}

func (t *Translator) OnEvent(raw []byte) {
	if !t.state.Running {
		return
	}
	event, err := signalk.ParseEvent(raw)
	if err != nil {
		t.state.ParseErrors++
		t.Debugf("Dropping malformed event: %v", err)
		return
	}

	switch event.Kind() {
	case signalk.KindNMEA0183:
		line, ok := event.Text()
		if !ok {
			t.state.ParseErrors++
			t.Debugf("%s", plugin.UserMessage(plugin.NewEventPayloadError(event.Type, fmt.Errorf("data is not a sentence"))))
			return
		}
		t.HandleSentence(line)
	default:
		if t.state.Config.EnableDebug {
			t.Debugf("Ignoring %s event", event.Type)
		}
	}
}

// HandleSentence translates one NMEA 0183 line.
func (t *Translator) HandleSentence(line string) {
	t.state.SentencesReceived++

	if s, ok := nmea.Parse(line); ok {
		switch s.Type {
		case nmea.TypeRMC:
			t.translateRMC(s)
		case nmea.TypeGGA:
			t.translateGGA(s)
		}
	} else if t.state.Config.EnableDebug {
		t.Debugf("Skipping unsupported sentence %q", line)
	}

	if t.state.SentencesReceived%statusEvery == 0 {
		t.Host.SetStatus(t.statusText())
	}
}

func (t *Translator) translateRMC(s nmea.Sentence) {
	if len(s.Fields) < minFields {
		t.state.ParseErrors++
		t.Debugf("RMC sentence has %d fields, need %d", len(s.Fields), minFields)
		return
	}
	if s.Field(2) != "A" {
		return
	}

	lat, lon, ok := t.position(s, 3)
	if !ok {
		return
	}
	t.emit(signalk.PGNPositionRapid, map[string]any{
		"Latitude":  lat,
		"Longitude": lon,
	})

	fields := map[string]any{"COG Reference": "True"}
	if cog, ok := nmea.ParseFloat(s.Field(8)); ok {
		fields["COG"] = cog * math.Pi / 180
	}
	if sog, ok := nmea.ParseFloat(s.Field(7)); ok {
		fields["SOG"] = sog * KnotsToMetersPerSecond
	}
	t.emit(signalk.PGNCOGSOGRapid, fields)
}

func (t *Translator) translateGGA(s nmea.Sentence) {
	if len(s.Fields) < minFields {
		t.state.ParseErrors++
		t.Debugf("GGA sentence has %d fields, need %d", len(s.Fields), minFields)
		return
	}
	if q := s.Field(6); q == "" || q == "0" {
		return
	}

	lat, lon, ok := t.position(s, 2)
	if !ok {
		return
	}
	t.emit(signalk.PGNPositionRapid, map[string]any{
		"Latitude":  lat,
		"Longitude": lon,
	})
}

// position decodes the lat/hemisphere/lon/hemisphere run starting at idx.
func (t *Translator) position(s nmea.Sentence, idx int) (float64, float64, bool) {
	lat, okLat := nmea.DecodeCoordinate(s.Field(idx), s.Field(idx+1))
	lon, okLon := nmea.DecodeCoordinate(s.Field(idx+2), s.Field(idx+3))
	if !okLat || !okLon {
		t.Debugf("%s sentence without decodable position", s.Type)
		return 0, 0, false
	}
	return lat, lon, true
}

func (t *Translator) emit(pgn int, fields map[string]any) {
	msg := signalk.NewPGNMessage(pgn, t.state.Config.SourceAddress, fields)
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Debugf("Failed to encode PGN %d: %v", pgn, err)
		return
	}
	if !t.Host.EmitEvent(signalk.EventNMEA2000JSONOut, raw) {
		t.Debugf("PGN %d rejected by host", pgn)
		return
	}
	t.state.PGNsEmitted++
	if t.state.Config.EnableDebug {
		t.Debugf("Emitted PGN %d", pgn)
	}
}

func (t *Translator) Endpoints() []signalk.Endpoint {
	return []signalk.Endpoint{{Method: http.MethodGet, Path: "/api/stats", Handler: "stats"}}
}

func (t *Translator) ServeEndpoint(handler string, req signalk.HTTPRequest) signalk.HTTPResponse {
	if handler != "stats" {
		return t.Base.ServeEndpoint(handler, req)
	}
	return signalk.JSONResponse(http.StatusOK, struct {
		Running bool `json:"running"`
		Counters
	}{t.state.Running, t.state.Counters})
}
