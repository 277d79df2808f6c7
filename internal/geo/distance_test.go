package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceZeroForIdenticalPoints(t *testing.T) {
	assert.InDelta(t, 0, Distance(timesSquare, timesSquare), 1e-6)
}

func TestDistanceSymmetric(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
	}{
		{name: "midtown to downtown", a: timesSquare, b: nycCenter},
		{name: "cross hemisphere", a: Point{Lat: 51.5074, Lon: -0.1278}, b: Point{Lat: -33.8688, Lon: 151.2093}},
		{name: "antimeridian", a: Point{Lat: 0, Lon: 179.9}, b: Point{Lat: 0, Lon: -179.9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ab := Distance(tt.a, tt.b)
			ba := Distance(tt.b, tt.a)
			assert.InDelta(t, ab, ba, 1e-6)
			assert.GreaterOrEqual(t, ab, 0.0)
		})
	}
}

func TestDistanceTimesSquareToNYCCenter(t *testing.T) {
	d := Distance(timesSquare, nycCenter)
	// Roughly 5.1-5.3 km with a ±100 m tolerance band.
	assert.InDelta(t, 5250, d, 160)
}

func TestDistanceKnownOffsets(t *testing.T) {
	tests := []struct {
		name   string
		meters float64
	}{
		{name: "100m", meters: 100},
		{name: "600m", meters: 600},
		{name: "1200m", meters: 1200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Distance(timesSquare, northOf(timesSquare, tt.meters))
			assert.InDelta(t, tt.meters, d, 1.0)
		})
	}
}

func TestBoundingBoxContainsCircle(t *testing.T) {
	box := BoundingBox(timesSquare, 500)

	// Points on the cardinal edges of the circle stay inside the box.
	assert.True(t, box.Contains(northOf(timesSquare, 499)))
	assert.True(t, box.Contains(northOf(timesSquare, -499)))
	assert.True(t, box.Contains(timesSquare))

	// A point well outside the radius in latitude falls out of the box.
	assert.False(t, box.Contains(northOf(timesSquare, 700)))
}
