package geo

import "sort"

// Locatable is any record with a coordinate.
type Locatable interface {
	Location() Point
}

// Ranked pairs a record with its computed distance from a query center.
type Ranked[T Locatable] struct {
	Record         T       `json:"record"`
	DistanceMeters float64 `json:"distance_meters"`
}

// FilterByRadius returns the records whose distance from the query center is
// at most the query radius (inclusive boundary), each annotated with its
// distance. When sortAscending is set, results are ordered by distance with
// ties keeping input order. The input slice is never modified.
func FilterByRadius[T Locatable](records []T, q Query, sortAscending bool) []Ranked[T] {
	out := make([]Ranked[T], 0, len(records))
	for _, r := range records {
		d := Distance(r.Location(), q.Center)
		if d <= q.RadiusMeters {
			out = append(out, Ranked[T]{Record: r, DistanceMeters: d})
		}
	}

	if sortAscending {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].DistanceMeters < out[j].DistanceMeters
		})
	}
	return out
}
