package config

import "encoding/json"

// PluginConf configures one plugin instance. Plugins without a path are
// builtin; otherwise path names a go-plugin executable.
type PluginConf struct {
	ID            string         `yaml:"id"`
	Path          string         `yaml:"path"`
	Enabled       *bool          `yaml:"enabled"`
	Configuration map[string]any `yaml:"configuration"`
}

// IsEnabled defaults to true when enabled is not set.
func (pc PluginConf) IsEnabled() bool {
	return pc.Enabled == nil || *pc.Enabled
}

// IsBuiltin reports whether the plugin runs in process.
func (pc PluginConf) IsBuiltin() bool {
	return pc.Path == ""
}

// Payload is the JSON start configuration handed to the plugin.
func (pc PluginConf) Payload() ([]byte, error) {
	if pc.Configuration == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(pc.Configuration)
}
