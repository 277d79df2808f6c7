package geo

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// boroughPriority fixes rule order for shapefile-derived bounds, matching
// the ordering of the embedded defaults.
var boroughPriority = []Borough{
	BoroughManhattan,
	BoroughStatenIsland,
	BoroughBronx,
	BoroughBrooklyn,
	BoroughQueens,
}

// LoadBoundsFromShapefile reads a borough-boundary shapefile and derives one
// bounding box per borough from the polygon extents. The shapefile must
// carry a BoroName attribute (the layout of the city's published borough
// boundaries). Returned rules follow the same priority order as the
// embedded defaults.
func LoadBoundsFromShapefile(path string) ([]Bound, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	nameIdx := -1
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		if strings.EqualFold(name, "BoroName") {
			nameIdx = i
		}
	}
	if nameIdx < 0 {
		return nil, eris.New("geo: shapefile has no BoroName field")
	}

	found := make(map[Borough]Bound)
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}

		name := strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00"))
		bound, ok := boundFromPolygon(name, flatCoords(poly.Points))
		if !ok {
			skipped++
			continue
		}

		if prev, seen := found[bound.Borough]; seen {
			bound = mergeBounds(prev, bound)
		}
		found[bound.Borough] = bound
	}

	if skipped > 0 {
		zap.L().Debug("geo: skipped shapefile records", zap.Int("skipped", skipped))
	}
	if len(found) == 0 {
		return nil, eris.Errorf("geo: no borough polygons in %s", path)
	}

	bounds := make([]Bound, 0, len(found))
	for _, b := range boroughPriority {
		if bound, ok := found[b]; ok {
			bounds = append(bounds, bound)
		}
	}
	return bounds, nil
}

// boundFromPolygon maps an attribute name to a Borough and computes the
// extent of the polygon's flat XY coordinates.
func boundFromPolygon(name string, coords []float64) (Bound, bool) {
	borough, ok := boroughFromName(name)
	if !ok || len(coords) == 0 {
		return Bound{}, false
	}

	ext := geom.NewMultiPointFlat(geom.XY, coords).Bounds()
	return Bound{
		Borough: borough,
		MinLat:  ext.Min(1),
		MinLon:  ext.Min(0),
		MaxLat:  ext.Max(1),
		MaxLon:  ext.Max(0),
	}, true
}

func boroughFromName(name string) (Borough, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "manhattan":
		return BoroughManhattan, true
	case "brooklyn":
		return BoroughBrooklyn, true
	case "queens":
		return BoroughQueens, true
	case "bronx", "the bronx":
		return BoroughBronx, true
	case "staten island":
		return BoroughStatenIsland, true
	}
	return BoroughUnknown, false
}

func flatCoords(points []shp.Point) []float64 {
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	return flat
}

func mergeBounds(a, b Bound) Bound {
	if b.MinLat < a.MinLat {
		a.MinLat = b.MinLat
	}
	if b.MinLon < a.MinLon {
		a.MinLon = b.MinLon
	}
	if b.MaxLat > a.MaxLat {
		a.MaxLat = b.MaxLat
	}
	if b.MaxLon > a.MaxLon {
		a.MaxLon = b.MaxLon
	}
	return a
}
