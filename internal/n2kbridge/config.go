package n2kbridge

import (
	"encoding/json"

	"navplug.szuro.net/pkg/plugin"
)

const (
	DefaultSourceAddress = 100
	MaxSourceAddress     = 253
)

// Config is the start configuration of the translator.
type Config struct {
	// SourceAddress is the NMEA 2000 source address stamped on emitted PGNs.
	SourceAddress int  `json:"sourceAddress"`
	EnableDebug   bool `json:"enableDebug"`
}

func DefaultConfig() Config {
	return Config{SourceAddress: DefaultSourceAddress}
}

func ParseConfig(raw []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, plugin.NewConfigError(err)
	}
	if err := plugin.CheckRange("sourceAddress", float64(cfg.SourceAddress), 0, MaxSourceAddress,
		"Source address must be between 0 and 253"); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

const configSchema = `{
  "type": "object",
  "title": "NMEA 0183 to NMEA 2000",
  "properties": {
    "sourceAddress": {"type": "integer", "title": "NMEA 2000 source address", "default": 100, "minimum": 0, "maximum": 253},
    "enableDebug": {"type": "boolean", "title": "Log translation details", "default": false}
  }
}`
