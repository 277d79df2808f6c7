// Package geo implements the proximity core: haversine distance, radius
// filtering, nearest-record selection, and approximate borough
// classification over validated coordinates.
//
// The functions in this package assume pre-validated input. Coordinate and
// radius validation happens once, at Point and Query construction; Distance,
// FilterByRadius, and Nearest do not re-validate.
package geo

import (
	"math"

	"github.com/rotisserie/eris"
)

// ErrInvalidCoordinate is returned when a latitude/longitude pair is
// out of range or non-finite.
var ErrInvalidCoordinate = eris.New("geo: invalid coordinate")

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewPoint validates and constructs a Point. Latitude must be in [-90, 90],
// longitude in [-180, 180], and both finite.
func NewPoint(lat, lon float64) (Point, error) {
	if !finite(lat) || lat < -90 || lat > 90 {
		return Point{}, eris.Wrapf(ErrInvalidCoordinate, "latitude %v", lat)
	}
	if !finite(lon) || lon < -180 || lon > 180 {
		return Point{}, eris.Wrapf(ErrInvalidCoordinate, "longitude %v", lon)
	}
	return Point{Lat: lat, Lon: lon}, nil
}

// Valid reports whether the point satisfies the NewPoint invariants.
func (p Point) Valid() bool {
	_, err := NewPoint(p.Lat, p.Lon)
	return err == nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
