// Package signalk defines the records exchanged between the host and the
// navigation plugins: server and NMEA events, Signal K deltas, PUT
// responses, plugin HTTP requests and NMEA 2000 JSON messages.
package signalk

import (
	"encoding/json"
	"strings"
)

// Server events a plugin may subscribe to.
const (
	EventServerStatistics = "SERVERSTATISTICS"
	EventVesselInfo       = "VESSEL_INFO"
	EventDebugSettings    = "DEBUG_SETTINGS"
	EventServerMessage    = "SERVERMESSAGE"
	EventProviderStatus   = "PROVIDERSTATUS"
	EventSourcePriorities = "SOURCEPRIORITIES"
)

// Generic data events carried on the server bus.
const (
	EventNMEA0183             = "nmea0183"
	EventNMEA0183Out          = "nmea0183out"
	EventNMEA2000JSONOut      = "nmea2000JsonOut"
	EventNMEA2000Out          = "nmea2000out"
	EventNMEA2000OutAvailable = "nmea2000OutAvailable"
	EventCanboatError         = "canboatjs:error"
	EventCanboatWarning       = "canboatjs:warning"
	EventCanboatUnparsed      = "canboatjs:unparsed:data"
)

// PluginEventPrefix marks events emitted by plugins.
const PluginEventPrefix = "PLUGIN_"

// EventKind is the closed set of event variants plugins dispatch on.
type EventKind int

const (
	KindUnknown EventKind = iota
	KindServerStatistics
	KindVesselInfo
	KindDebugSettings
	KindServerMessage
	KindProviderStatus
	KindSourcePriorities
	KindNMEA0183
	KindNMEA0183Out
	KindNMEA2000JSONOut
	KindNMEA2000Out
	KindNMEA2000OutAvailable
	KindCanboat
	KindPlugin
)

var kindByType = map[string]EventKind{
	EventServerStatistics:     KindServerStatistics,
	EventVesselInfo:           KindVesselInfo,
	EventDebugSettings:        KindDebugSettings,
	EventServerMessage:        KindServerMessage,
	EventProviderStatus:       KindProviderStatus,
	EventSourcePriorities:     KindSourcePriorities,
	EventNMEA0183:             KindNMEA0183,
	EventNMEA0183Out:          KindNMEA0183Out,
	EventNMEA2000JSONOut:      KindNMEA2000JSONOut,
	EventNMEA2000Out:          KindNMEA2000Out,
	EventNMEA2000OutAvailable: KindNMEA2000OutAvailable,
	EventCanboatError:         KindCanboat,
	EventCanboatWarning:       KindCanboat,
	EventCanboatUnparsed:      KindCanboat,
}

// ClassifyEvent maps an event type tag to its kind.
func ClassifyEvent(eventType string) EventKind {
	if kind, ok := kindByType[eventType]; ok {
		return kind
	}
	if strings.HasPrefix(eventType, PluginEventPrefix) && len(eventType) > len(PluginEventPrefix) {
		return KindPlugin
	}
	return KindUnknown
}

func (k EventKind) String() string {
	switch k {
	case KindServerStatistics:
		return EventServerStatistics
	case KindVesselInfo:
		return EventVesselInfo
	case KindDebugSettings:
		return EventDebugSettings
	case KindServerMessage:
		return EventServerMessage
	case KindProviderStatus:
		return EventProviderStatus
	case KindSourcePriorities:
		return EventSourcePriorities
	case KindNMEA0183:
		return EventNMEA0183
	case KindNMEA0183Out:
		return EventNMEA0183Out
	case KindNMEA2000JSONOut:
		return EventNMEA2000JSONOut
	case KindNMEA2000Out:
		return EventNMEA2000Out
	case KindNMEA2000OutAvailable:
		return EventNMEA2000OutAvailable
	case KindCanboat:
		return "canboatjs"
	case KindPlugin:
		return "plugin"
	default:
		return "unknown"
	}
}

// Event is the envelope delivered to plugin event handlers.
type Event struct {
	Type      string          `json:"type"`
	From      string          `json:"from,omitempty"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// Kind classifies the event by its type tag.
func (e Event) Kind() EventKind {
	return ClassifyEvent(e.Type)
}

// ParseEvent decodes a serialized event envelope.
func ParseEvent(raw []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(raw, &e)
	return e, err
}

// Text decodes the payload of events whose data is a plain JSON string,
// such as raw nmea0183 sentences.
func (e Event) Text() (string, bool) {
	var s string
	if err := json.Unmarshal(e.Data, &s); err != nil {
		return "", false
	}
	return s, true
}

// NewTextEvent builds an event whose data is a JSON string.
func NewTextEvent(eventType, text string, timestamp int64) Event {
	data, _ := json.Marshal(text)
	return Event{Type: eventType, Data: data, Timestamp: timestamp}
}
