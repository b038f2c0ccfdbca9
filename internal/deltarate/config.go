package deltarate

import (
	"encoding/json"

	"navplug.szuro.net/pkg/plugin"
)

const (
	DefaultThreshold = 100.0
	MinThreshold     = 10.0
	MaxThreshold     = 10000.0
)

// Config is the start configuration of the delta rate monitor.
type Config struct {
	DeltaRateThreshold float64 `json:"deltaRateThreshold"`
	EnableDebug        bool    `json:"enableDebug"`
}

func DefaultConfig() Config {
	return Config{DeltaRateThreshold: DefaultThreshold}
}

func ParseConfig(raw []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, plugin.NewConfigError(err)
	}
	if err := plugin.CheckRange("deltaRateThreshold", cfg.DeltaRateThreshold, MinThreshold, MaxThreshold,
		"Delta rate threshold must be between 10 and 10000 deltas/s"); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

const configSchema = `{
  "type": "object",
  "title": "Delta Rate Monitor",
  "properties": {
    "deltaRateThreshold": {"type": "number", "title": "Alert threshold (deltas/s)", "default": 100, "minimum": 10, "maximum": 10000},
    "enableDebug": {"type": "boolean", "title": "Log every received event", "default": false}
  }
}`
