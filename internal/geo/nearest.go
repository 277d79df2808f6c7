package geo

// Nearest scans all records and returns the one closest to center, with its
// distance. When two records are equidistant the earlier one in input order
// wins. There is no distance cutoff: any nonempty input yields a result
// however far away it is; callers wanting a bounded search should compose
// FilterByRadius instead. The second return value is false only for empty
// input.
func Nearest[T Locatable](records []T, center Point) (Ranked[T], bool) {
	if len(records) == 0 {
		var zero Ranked[T]
		return zero, false
	}

	best := Ranked[T]{
		Record:         records[0],
		DistanceMeters: Distance(records[0].Location(), center),
	}
	for _, r := range records[1:] {
		d := Distance(r.Location(), center)
		if d < best.DistanceMeters {
			best = Ranked[T]{Record: r, DistanceMeters: d}
		}
	}
	return best, true
}
