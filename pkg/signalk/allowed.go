package signalk

import "strings"

var serverEvents = []string{
	EventServerStatistics,
	EventVesselInfo,
	EventDebugSettings,
	EventServerMessage,
	EventProviderStatus,
	EventSourcePriorities,
}

var genericEvents = []string{
	EventNMEA0183,
	EventNMEA0183Out,
	EventNMEA2000JSONOut,
	EventNMEA2000Out,
	EventNMEA2000OutAvailable,
	EventCanboatError,
	EventCanboatWarning,
	EventCanboatUnparsed,
}

// Generic events plugins may emit without the plugin prefix.
var outputEvents = map[string]bool{
	EventNMEA0183Out:     true,
	EventNMEA2000JSONOut: true,
	EventNMEA2000Out:     true,
}

// ServerEvents lists the server events open to plugin subscriptions.
func ServerEvents() []string {
	return append([]string(nil), serverEvents...)
}

// GenericEvents lists the generic data events open to plugin subscriptions.
func GenericEvents() []string {
	return append([]string(nil), genericEvents...)
}

// IsAllowed reports whether plugins may subscribe to eventType.
func IsAllowed(eventType string) bool {
	kind := ClassifyEvent(eventType)
	return kind != KindUnknown
}

// IsOutputEvent reports whether a plugin may emit eventType unprefixed.
func IsOutputEvent(eventType string) bool {
	return outputEvents[eventType]
}

// EmittedType returns the bus type for an event emitted by a plugin.
func EmittedType(eventType string) string {
	if IsOutputEvent(eventType) || strings.HasPrefix(eventType, PluginEventPrefix) {
		return eventType
	}
	return PluginEventPrefix + eventType
}
