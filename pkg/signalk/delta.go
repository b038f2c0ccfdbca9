package signalk

import "encoding/json"

// SelfContext addresses the own vessel.
const SelfContext = "vessels.self"

// Delta is a Signal K delta message.
type Delta struct {
	Context string   `json:"context"`
	Updates []Update `json:"updates"`
}

type Update struct {
	Source    *Source     `json:"$source,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
	Values    []PathValue `json:"values"`
}

type Source struct {
	Label string `json:"label"`
}

type PathValue struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// Position is the value of navigation.*.position paths.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewDelta wraps values into a single update for the own vessel.
func NewDelta(values ...PathValue) Delta {
	return Delta{
		Context: SelfContext,
		Updates: []Update{{Values: values}},
	}
}

// Paths lists every path carried by the delta, in order.
func (d Delta) Paths() []string {
	var paths []string
	for _, u := range d.Updates {
		for _, v := range u.Values {
			paths = append(paths, v.Path)
		}
	}
	return paths
}

// Value returns the value carried for path, if any.
func (d Delta) Value(path string) (any, bool) {
	for _, u := range d.Updates {
		for _, v := range u.Values {
			if v.Path == path {
				return v.Value, true
			}
		}
	}
	return nil, false
}

// Valid reports whether the delta carries at least one value.
func (d Delta) Valid() bool {
	return len(d.Paths()) > 0
}

// ParseDelta decodes a serialized delta.
func ParseDelta(raw []byte) (Delta, error) {
	var d Delta
	err := json.Unmarshal(raw, &d)
	return d, err
}
