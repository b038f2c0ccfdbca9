package observer

import (
	"fmt"

	"navplug.szuro.net/internal/config"
)

// FromTarget builds the observer a configured target describes.
func FromTarget(t config.Target) (Observer, error) {
	var obs Observer
	switch t.Type {
	case config.PRINT_TARGET:
		obs = NewPrint(t.Name, t.Connection)
	case config.STREAM_TARGET:
		obs = NewStream(t.Name)
	default:
		return nil, fmt.Errorf("unsupported target type %q", t.Type)
	}
	obs.SetFilter(t.Filter)
	obs.PrepareMetrics()
	return obs, nil
}
