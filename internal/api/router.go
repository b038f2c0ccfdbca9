// Package api is the host's HTTP surface: plugin management, Signal K PUT,
// plugin endpoints, the delta stream and metrics.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouteRegistrar adds its routes to a router.
type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// NewRouter mounts every registrar plus /metrics. stream, when not nil,
// serves /signalk/v1/stream.
func NewRouter(stream http.Handler, registrars ...RouteRegistrar) chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)

	for _, reg := range registrars {
		reg.RegisterRoutes(r)
	}
	if stream != nil {
		r.Get("/signalk/v1/stream", stream.ServeHTTP)
	}
	r.Handle("/metrics", promhttp.Handler())
	return r
}
