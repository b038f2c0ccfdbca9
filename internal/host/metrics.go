package host

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "navplug_events_routed_total",
			Help: "Events delivered to plugins",
		},
		[]string{"plugin"},
	)
	eventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "navplug_events_dropped_total",
			Help: "Events dropped before reaching a plugin",
		},
		[]string{"reason"},
	)
	deltasHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "navplug_deltas_total",
			Help: "Deltas emitted by plugins",
		},
		[]string{"plugin", "result"},
	)
	pluginEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "navplug_plugin_events_total",
			Help: "Events emitted by plugins",
		},
		[]string{"plugin", "result"},
	)
	pluginRunning = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "navplug_plugin_running",
			Help: "1 when the plugin is running",
		},
		[]string{"plugin"},
	)
	queueUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "navplug_router_queue_usage",
		Help: "Events waiting in the router queue",
	})
)

const (
	resultAccepted = "accepted"
	resultRejected = "rejected"
)
