package geo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Point
		expected float64
		delta    float64
	}{
		{"same point", Point{48.1173, 11.5167}, Point{48.1173, 11.5167}, 0, 1e-9},
		{"one degree of latitude", Point{0, 0}, Point{1, 0}, 111194.93, 0.5},
		{"one degree of longitude at equator", Point{0, 0}, Point{0, 1}, 111194.93, 0.5},
		{"quarter meridian", Point{0, 0}, Point{90, 0}, 10007543.4, 1},
		{"short harbour hop", Point{60.1699, 24.9384}, Point{60.1708, 24.9384}, 100.08, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.expected, Distance(tt.a, tt.b), tt.delta)
		})
	}
}

func TestDistanceSymmetric(t *testing.T) {
	points := []Point{{48.1173, 11.5167}, {-33.86, 151.21}, {0, 0}, {60.17, -24.94}}
	for _, a := range points {
		for _, b := range points {
			require.InDelta(t, Distance(a, b), Distance(b, a), 1e-6)
			require.GreaterOrEqual(t, Distance(a, b), 0.0)
		}
	}
}

func TestIsOrigin(t *testing.T) {
	require.True(t, Point{}.IsOrigin())
	require.False(t, Point{Lat: 0.0001}.IsOrigin())
}
