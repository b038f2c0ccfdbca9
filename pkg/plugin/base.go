package plugin

import (
	"encoding/json"
	"fmt"
	"net/http"

	"navplug.szuro.net/pkg/signalk"
)

// Base provides the defaults shared by all plugins. Plugins embed it and
// override the callbacks they care about.
type Base struct {
	// Host is the capability set granted at construction.
	Host Host

	info PluginInfo
}

// NewBase binds plugin metadata to its host.
func NewBase(host Host, info PluginInfo) Base {
	return Base{Host: host, info: info}
}

// Info returns the metadata passed to NewBase.
func (b *Base) Info() PluginInfo {
	return b.info
}

// Schema returns an empty object schema.
func (b *Base) Schema() string {
	return `{"type":"object","properties":{}}`
}

// HandlePut rejects every path.
func (b *Base) HandlePut(context, path string, value []byte) signalk.PutResponse {
	return signalk.PutFailed(http.StatusMethodNotAllowed, fmt.Sprintf("PUT not supported for %s", path))
}

// Endpoints returns no routes.
func (b *Base) Endpoints() []signalk.Endpoint {
	return nil
}

// ServeEndpoint answers 404 for every handler.
func (b *Base) ServeEndpoint(handler string, req signalk.HTTPRequest) signalk.HTTPResponse {
	return signalk.ErrorResponse(http.StatusNotFound, "Not found")
}

// Debugf formats and writes a debug line through the host.
func (b *Base) Debugf(format string, args ...any) {
	b.Host.Debug(fmt.Sprintf(format, args...))
}

// EmitJSON marshals data and emits it as eventType.
func (b *Base) EmitJSON(eventType string, data any) bool {
	raw, err := json.Marshal(data)
	if err != nil {
		b.Debugf("Failed to encode %s event: %v", eventType, err)
		return false
	}
	return b.Host.EmitEvent(eventType, raw)
}

// ReportError sends the user message of err to the host error channel.
func (b *Base) ReportError(err error) {
	b.Host.SetError(UserMessage(err))
}
