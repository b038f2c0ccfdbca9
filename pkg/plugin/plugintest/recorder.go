// Package plugintest provides a recording Host for plugin tests.
package plugintest

import (
	"encoding/json"

	"navplug.szuro.net/pkg/plugin"
	"navplug.szuro.net/pkg/signalk"
)

// Emitted is one EmitEvent call.
type Emitted struct {
	Type string
	Data []byte
}

// Decode unmarshals the event data into v.
func (e Emitted) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

// PutHandler is one RegisterPutHandler call.
type PutHandler struct {
	Context string
	Path    string
}

// Recorder implements plugin.Host and records every call.
// Set the Reject* fields to make the corresponding capability fail.
type Recorder struct {
	Debugs        []string
	Statuses      []string
	Errors        []string
	Deltas        []signalk.Delta
	Events        []Emitted
	Subscriptions [][]string
	PutHandlers   []PutHandler

	RejectDeltas    bool
	RejectEvents    bool
	RejectSubscribe bool
}

var _ plugin.Host = (*Recorder)(nil)

func (r *Recorder) Debug(msg string) {
	r.Debugs = append(r.Debugs, msg)
}

func (r *Recorder) SetStatus(msg string) {
	r.Statuses = append(r.Statuses, msg)
}

func (r *Recorder) SetError(msg string) {
	r.Errors = append(r.Errors, msg)
}

func (r *Recorder) HandleMessage(delta signalk.Delta) bool {
	if r.RejectDeltas {
		return false
	}
	r.Deltas = append(r.Deltas, delta)
	return true
}

func (r *Recorder) EmitEvent(eventType string, data []byte) bool {
	if r.RejectEvents {
		return false
	}
	r.Events = append(r.Events, Emitted{Type: eventType, Data: append([]byte(nil), data...)})
	return true
}

func (r *Recorder) SubscribeEvents(eventTypes []string) bool {
	if r.RejectSubscribe {
		return false
	}
	r.Subscriptions = append(r.Subscriptions, eventTypes)
	return true
}

func (r *Recorder) RegisterPutHandler(context, path string) bool {
	r.PutHandlers = append(r.PutHandlers, PutHandler{Context: context, Path: path})
	return true
}

// LastStatus returns the most recent status or an empty string.
func (r *Recorder) LastStatus() string {
	if len(r.Statuses) == 0 {
		return ""
	}
	return r.Statuses[len(r.Statuses)-1]
}

// LastDelta returns the most recent delta.
func (r *Recorder) LastDelta() (signalk.Delta, bool) {
	if len(r.Deltas) == 0 {
		return signalk.Delta{}, false
	}
	return r.Deltas[len(r.Deltas)-1], true
}

// EventsOfType returns the recorded events with the given type.
func (r *Recorder) EventsOfType(eventType string) []Emitted {
	var out []Emitted
	for _, e := range r.Events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Reset clears everything recorded so far.
func (r *Recorder) Reset() {
	r.Debugs = nil
	r.Statuses = nil
	r.Errors = nil
	r.Deltas = nil
	r.Events = nil
	r.Subscriptions = nil
	r.PutHandlers = nil
}
