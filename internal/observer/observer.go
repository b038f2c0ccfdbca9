package observer

import (
	"encoding/json"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"navplug.szuro.net/internal/filter"
	"navplug.szuro.net/pkg/signalk"
)

const (
	DELTA = "delta"
	EVENT = "event"
)

// Observer receives every delta and event published by the host.
type Observer interface {
	Cleanup()
	GetName() string
	SetName(name string)
	SaveDelta(pluginID string, d signalk.Delta) bool
	SaveEvent(e signalk.Event) bool
	SetFilter(filter filter.Filter)
	PrepareMetrics()
}

// Message is the JSON record written by observers.
type Message struct {
	Kind   string         `json:"kind"`
	Plugin string         `json:"plugin,omitempty"`
	Delta  *signalk.Delta `json:"delta,omitempty"`
	Event  *signalk.Event `json:"event,omitempty"`
}

func deltaMessage(pluginID string, d signalk.Delta) ([]byte, error) {
	return json.Marshal(Message{Kind: DELTA, Plugin: pluginID, Delta: &d})
}

func eventMessage(e signalk.Event) ([]byte, error) {
	return json.Marshal(Message{Kind: EVENT, Plugin: e.From, Event: &e})
}

var (
	shippingOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "navplug_shipping_operations_total",
			Help: "Total number of shipping operations",
		},
		[]string{"target_name", "target_type", "export_type"},
	)
	shippingErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "navplug_shipping_errors_total",
			Help: "Total number of shipping errors",
		},
		[]string{"target_name", "target_type", "export_type"},
	)
)

type baseObserver struct {
	name         string
	observerType string
	localFilter  filter.Filter
}

// GetName returns the name of the observer.
func (bo *baseObserver) GetName() string {
	return bo.name
}

// SetName sets the name of the baseObserver to the provided string.
func (bo *baseObserver) SetName(name string) {
	bo.name = name
}

// SetFilter sets the local filter for the observer.
func (bo *baseObserver) SetFilter(filter filter.Filter) {
	bo.localFilter = filter
}

func (bo *baseObserver) Cleanup() {}

// PrepareMetrics initialises the shipping counters so they are exported at zero.
func (bo *baseObserver) PrepareMetrics() {
	for _, export := range []string{DELTA, EVENT} {
		shippingOperations.WithLabelValues(bo.name, bo.observerType, export).Add(0)
		shippingErrors.WithLabelValues(bo.name, bo.observerType, export).Add(0)
	}
}

func (bo *baseObserver) acceptDelta(d signalk.Delta) bool {
	return bo.localFilter.EvaluateFilter(d.Paths())
}

func (bo *baseObserver) acceptEvent(e signalk.Event) bool {
	return bo.localFilter.Accept(e.Type)
}

func (bo *baseObserver) shipped(export string) {
	shippingOperations.WithLabelValues(bo.name, bo.observerType, export).Inc()
}

func (bo *baseObserver) failed(export string) {
	shippingErrors.WithLabelValues(bo.name, bo.observerType, export).Inc()
}
