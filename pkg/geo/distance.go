// Package geo holds spherical earth helpers.
package geo

import "math"

// EarthRadius is the mean earth radius in meters used by Distance.
const EarthRadius = 6371000.0

// Point is a position in decimal degrees.
type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// IsOrigin reports whether p is exactly 0,0, which is treated as "not set".
func (p Point) IsOrigin() bool {
	return p.Lat == 0 && p.Lon == 0
}

// Distance returns the haversine great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	return 2 * EarthRadius * math.Asin(math.Sqrt(h))
}
