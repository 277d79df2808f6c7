package geo

// testRecord is a minimal Locatable used across the package tests.
type testRecord struct {
	id string
	pt Point
}

func (r testRecord) Location() Point { return r.pt }

// Shared fixtures: Times Square and the conventional NYC center point.
var (
	timesSquare = Point{Lat: 40.7580, Lon: -73.9855}
	nycCenter   = Point{Lat: 40.7128, Lon: -74.0060}
)

// northOf returns a point approximately meters north of p. One degree of
// latitude is ~111,195 m under the spherical model.
func northOf(p Point, meters float64) Point {
	return Point{Lat: p.Lat + meters/111194.93, Lon: p.Lon}
}
