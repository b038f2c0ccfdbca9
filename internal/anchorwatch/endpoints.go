package anchorwatch

import (
	"encoding/json"
	"fmt"
	"net/http"

	"navplug.szuro.net/pkg/geo"
	"navplug.szuro.net/pkg/signalk"
)

const (
	handlerStatus   = "status"
	handlerPosition = "position"
	handlerDrop     = "drop"
)

func (m *Monitor) Endpoints() []signalk.Endpoint {
	return []signalk.Endpoint{
		{Method: http.MethodGet, Path: "/api/status", Handler: handlerStatus},
		{Method: http.MethodGet, Path: "/api/position", Handler: handlerPosition},
		{Method: http.MethodPost, Path: "/api/drop", Handler: handlerDrop},
	}
}

type statusResponse struct {
	Running       bool             `json:"running"`
	AlarmActive   bool             `json:"alarmActive"`
	Position      signalk.Position `json:"position"`
	MaxRadius     float64          `json:"maxRadius"`
	CheckInterval int              `json:"checkInterval"`
	LastDistance  float64          `json:"lastDistance"`
}

type dropRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	MaxRadius *float64 `json:"maxRadius"`
}

func (m *Monitor) ServeEndpoint(handler string, req signalk.HTTPRequest) signalk.HTTPResponse {
	switch handler {
	case handlerStatus:
		return signalk.JSONResponse(http.StatusOK, statusResponse{
			Running:       m.state.Running,
			AlarmActive:   m.state.AlarmActive,
			Position:      signalk.Position{Latitude: m.state.Config.AnchorLat, Longitude: m.state.Config.AnchorLon},
			MaxRadius:     m.state.Config.MaxRadius,
			CheckInterval: m.state.Config.CheckInterval,
			LastDistance:  m.state.LastDistance,
		})
	case handlerPosition:
		return signalk.JSONResponse(http.StatusOK, signalk.Position{
			Latitude:  m.state.Config.AnchorLat,
			Longitude: m.state.Config.AnchorLon,
		})
	case handlerDrop:
		return m.drop(req)
	}
	return m.Base.ServeEndpoint(handler, req)
}

// drop moves the anchor. A stopped watch stays disarmed and only
// publishes its state label.
func (m *Monitor) drop(req signalk.HTTPRequest) signalk.HTTPResponse {
	var body dropRequest
	if err := json.Unmarshal(req.Body, &body); err != nil {
		return signalk.ErrorResponse(http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
	}
	if body.Latitude == nil || body.Longitude == nil {
		return signalk.ErrorResponse(http.StatusBadRequest, "latitude and longitude are required")
	}
	lat, lon := *body.Latitude, *body.Longitude
	if lat < -90 || lat > 90 {
		return signalk.ErrorResponse(http.StatusBadRequest, "Latitude must be between -90 and 90")
	}
	if lon < -180 || lon > 180 {
		return signalk.ErrorResponse(http.StatusBadRequest, "Longitude must be between -180 and 180")
	}

	radius := DefaultMaxRadius
	if body.MaxRadius != nil {
		radius = *body.MaxRadius
	}
	if radius < MinRadius || radius > MaxRadius {
		return signalk.ErrorResponse(http.StatusBadRequest, radiusMessage)
	}

	m.state.Config.AnchorLat = lat
	m.state.Config.AnchorLon = lon
	m.state.Config.MaxRadius = radius
	m.state.AlarmActive = false
	if m.state.HasVessel {
		m.state.LastDistance = geo.Distance(m.anchor(), m.state.Vessel)
	}
	m.emitState(m.state.Running)
	m.Debugf("Anchor dropped at %.6f, %.6f radius %.0fm", lat, lon, radius)

	return signalk.JSONResponse(http.StatusOK, map[string]any{
		"success":  true,
		"position": signalk.Position{Latitude: lat, Longitude: lon},
		"radius":   radius,
	})
}
