// Package plugin defines the contract between the navplug host and its
// event-pipeline plugins.
//
// A plugin is a state machine driven by the host through a small set of
// callbacks: Start with a JSON configuration, Stop, OnEvent for every
// subscribed event, HandlePut for registered Signal K PUT paths and
// ServeEndpoint for plugin-defined HTTP routes. The host guarantees that
// callbacks into one instance never run concurrently, so plugins keep their
// state in plain fields without locking.
//
// Everything a plugin can do to the outside world goes through the Host
// capability interface it receives at construction time. That keeps plugins
// deterministic and lets tests drive them with a recording fake.
//
// Plugins run either in-process (registered as builtin factories) or as
// separate executables served with HashiCorp go-plugin over net/rpc:
//
//	package main
//
//	import (
//	    "github.com/hashicorp/go-plugin"
//	    navplugin "navplug.szuro.net/pkg/plugin"
//	)
//
//	func main() {
//	    plugin.Serve(&plugin.ServeConfig{
//	        HandshakeConfig: navplugin.Handshake,
//	        Plugins: map[string]plugin.Plugin{
//	            navplugin.PluginName: &navplugin.NetRPCPlugin{Factory: New},
//	        },
//	    })
//	}
package plugin

import "navplug.szuro.net/pkg/signalk"

// Start status codes.
const (
	StatusOK          = 0
	StatusConfigError = 1
)

// PluginInfo contains metadata about a plugin.
type PluginInfo struct {
	// ID is the stable identifier used in configuration and URLs.
	ID string `json:"id"`

	// Name is the human-readable name of the plugin.
	Name string `json:"name"`

	// Version is the semantic version of the plugin (e.g., "1.0.0").
	Version string `json:"version"`

	// Description provides a brief description of what the plugin does.
	Description string `json:"description"`

	// Author identifies who created or maintains the plugin.
	Author string `json:"author"`
}

// Host is the capability set the host grants to a plugin instance.
// Every method is fire-and-forget or reports acceptance as a bool;
// rejections are expected and must not abort the caller.
type Host interface {
	// Debug writes a debug log line attributed to the plugin.
	Debug(msg string)

	// SetStatus replaces the plugin status text shown to users.
	SetStatus(msg string)

	// SetError reports an error text shown to users.
	SetError(msg string)

	// HandleMessage publishes a Signal K delta. It returns false if the
	// host rejected the delta.
	HandleMessage(delta signalk.Delta) bool

	// EmitEvent publishes an event on the server bus. Types that are not
	// generic output events are prefixed with PLUGIN_ by the host.
	EmitEvent(eventType string, data []byte) bool

	// SubscribeEvents sets the event types delivered to OnEvent. An empty
	// list subscribes to every allowed type.
	SubscribeEvents(eventTypes []string) bool

	// RegisterPutHandler claims a context and path for HandlePut.
	RegisterPutHandler(context, path string) bool
}

// Plugin is implemented by every event-pipeline plugin.
type Plugin interface {
	// Info returns plugin metadata.
	Info() PluginInfo

	// Schema returns the JSON schema of the configuration accepted by Start.
	Schema() string

	// Start applies the configuration and begins processing. It returns
	// StatusConfigError, without changing state, when the configuration is
	// malformed or out of range.
	Start(config []byte) int

	// Stop ends processing. It always returns StatusOK.
	Stop() int

	// HandlePut handles a PUT request for a registered path.
	HandlePut(context, path string, value []byte) signalk.PutResponse

	// OnEvent handles one serialized signalk.Event. Failures are logged
	// through the host and never returned.
	OnEvent(event []byte)

	// Endpoints lists the HTTP routes served by ServeEndpoint.
	Endpoints() []signalk.Endpoint

	// ServeEndpoint handles a request for one of the routes from Endpoints.
	ServeEndpoint(handler string, req signalk.HTTPRequest) signalk.HTTPResponse
}

// Factory builds a plugin instance bound to its host capabilities.
type Factory func(host Host) Plugin
