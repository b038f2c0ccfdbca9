package config

import "navplug.szuro.net/internal/filter"

const (
	PRINT_TARGET  = "print"
	STREAM_TARGET = "stream"
)

// Target configures an output receiving published deltas and events.
type Target struct {
	Name       string
	Type       string `yaml:"type"`
	Connection string
	Filter     filter.Filter `yaml:"filter"`
}
