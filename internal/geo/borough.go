package geo

import (
	_ "embed"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Borough labels. The classifier output is a coarse display grouping, not
// authoritative boundary geometry.
type Borough string

const (
	BoroughManhattan    Borough = "manhattan"
	BoroughBrooklyn     Borough = "brooklyn"
	BoroughQueens       Borough = "queens"
	BoroughBronx        Borough = "bronx"
	BoroughStatenIsland Borough = "staten_island"
	BoroughUnknown      Borough = "unknown"
)

// Bound is one rectangular classification rule. Rules are evaluated in
// slice order and the first containing box wins.
type Bound struct {
	Borough Borough `yaml:"borough"`
	MinLat  float64 `yaml:"min_lat"`
	MinLon  float64 `yaml:"min_lon"`
	MaxLat  float64 `yaml:"max_lat"`
	MaxLon  float64 `yaml:"max_lon"`
}

// Box returns the rule's bounding box.
func (b Bound) Box() Box {
	return Box{MinLat: b.MinLat, MinLon: b.MinLon, MaxLat: b.MaxLat, MaxLon: b.MaxLon}
}

//go:embed bounds.yaml
var defaultBoundsYAML []byte

// Classifier maps points to boroughs through an ordered list of bounding
// boxes.
type Classifier struct {
	bounds []Bound
}

// NewClassifier returns a classifier over the built-in approximate borough
// boxes.
func NewClassifier() *Classifier {
	return &Classifier{bounds: defaultBounds()}
}

// NewClassifierFromBounds returns a classifier over caller-supplied rules,
// evaluated in the given order.
func NewClassifierFromBounds(bounds []Bound) *Classifier {
	return &Classifier{bounds: bounds}
}

// Classify returns the first borough whose box contains the point, or
// BoroughUnknown when no rule matches.
func (c *Classifier) Classify(p Point) Borough {
	for _, b := range c.bounds {
		if b.Box().Contains(p) {
			return b.Borough
		}
	}
	return BoroughUnknown
}

// ParseBounds decodes an ordered rule list from YAML.
func ParseBounds(data []byte) ([]Bound, error) {
	var doc struct {
		Bounds []Bound `yaml:"bounds"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "geo: parse bounds")
	}
	return doc.Bounds, nil
}

func defaultBounds() []Bound {
	bounds, err := ParseBounds(defaultBoundsYAML)
	if err != nil {
		// The embedded file is fixed at build time; a parse failure is a
		// packaging bug, not a runtime condition.
		panic(err)
	}
	return bounds
}
