package anchorwatch

import (
	"encoding/json"

	"navplug.szuro.net/pkg/plugin"
)

const (
	DefaultMaxRadius     = 50.0
	DefaultCheckInterval = 10

	MinRadius = 10.0
	MaxRadius = 1000.0

	MinCheckInterval = 1
	MaxCheckInterval = 300
)

const radiusMessage = "Radius must be between 10 and 1000 meters"

// Config is the start configuration of the anchor watch.
type Config struct {
	AnchorLat     float64 `json:"anchorLat"`
	AnchorLon     float64 `json:"anchorLon"`
	MaxRadius     float64 `json:"maxRadius"`
	CheckInterval int     `json:"checkInterval"`
}

func DefaultConfig() Config {
	return Config{
		MaxRadius:     DefaultMaxRadius,
		CheckInterval: DefaultCheckInterval,
	}
}

// ParseConfig decodes a start payload, filling defaults for missing fields.
func ParseConfig(raw []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, plugin.NewConfigError(err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := plugin.CheckRange("maxRadius", c.MaxRadius, MinRadius, MaxRadius, radiusMessage); err != nil {
		return err
	}
	return plugin.CheckRange("checkInterval", float64(c.CheckInterval), MinCheckInterval, MaxCheckInterval,
		"Check interval must be between 1 and 300 seconds")
}

const configSchema = `{
  "type": "object",
  "title": "Anchor Watch",
  "properties": {
    "anchorLat": {"type": "number", "title": "Anchor latitude", "default": 0},
    "anchorLon": {"type": "number", "title": "Anchor longitude", "default": 0},
    "maxRadius": {"type": "number", "title": "Alarm radius (m)", "default": 50, "minimum": 10, "maximum": 1000},
    "checkInterval": {"type": "integer", "title": "Check interval (s)", "default": 10, "minimum": 1, "maximum": 300}
  }
}`
