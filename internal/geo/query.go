package geo

import "github.com/rotisserie/eris"

// DefaultMaxRadiusMeters caps the search radius of a Query unless the caller
// supplies its own limit.
const DefaultMaxRadiusMeters = 5000.0

// ErrInvalidRadius is returned when a query radius is non-positive or
// exceeds the configured maximum.
var ErrInvalidRadius = eris.New("geo: invalid radius")

// Query is a validated proximity search: a center point plus a radius in
// meters. Construct with NewQuery or NewQueryWithMax.
type Query struct {
	Center       Point
	RadiusMeters float64
}

// NewQuery validates center and radius against DefaultMaxRadiusMeters.
func NewQuery(center Point, radiusMeters float64) (Query, error) {
	return NewQueryWithMax(center, radiusMeters, DefaultMaxRadiusMeters)
}

// NewQueryWithMax validates center and radius against a caller-supplied
// maximum radius.
func NewQueryWithMax(center Point, radiusMeters, maxRadiusMeters float64) (Query, error) {
	if _, err := NewPoint(center.Lat, center.Lon); err != nil {
		return Query{}, err
	}
	if !finite(radiusMeters) || radiusMeters <= 0 {
		return Query{}, eris.Wrapf(ErrInvalidRadius, "radius %v must be positive", radiusMeters)
	}
	if radiusMeters > maxRadiusMeters {
		return Query{}, eris.Wrapf(ErrInvalidRadius, "radius %v exceeds maximum %v", radiusMeters, maxRadiusMeters)
	}
	return Query{Center: center, RadiusMeters: radiusMeters}, nil
}

// Box returns the bounding-box prefilter for the query circle.
func (q Query) Box() Box {
	return BoundingBox(q.Center, q.RadiusMeters)
}
