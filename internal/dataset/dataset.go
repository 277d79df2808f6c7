// Package dataset syncs the city's parking datasets into the store. Each
// dataset streams rows from the open-data portal (or a local CSV export),
// validates coordinates at the boundary, and upserts typed records.
package dataset

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/parkscout-nyc/parkscout/internal/config"
	"github.com/parkscout-nyc/parkscout/internal/geo"
	"github.com/parkscout-nyc/parkscout/internal/model"
	"github.com/parkscout-nyc/parkscout/internal/store"
	"github.com/parkscout-nyc/parkscout/pkg/socrata"
)

// batchSize is the number of records upserted per store call.
const batchSize = 500

// Source supplies raw rows to a sync: the portal client, or a local CSV
// export when FilePath is set.
type Source struct {
	Client   *socrata.Client
	FilePath string
}

// Dataset is one syncable dataset.
type Dataset interface {
	// Name is the registry key ("signs", "meters", "violations").
	Name() string

	// Description is a one-line summary for status output.
	Description() string

	// Sync streams all rows from the source into the store and reports
	// fetched/loaded/rejected counts.
	Sync(ctx context.Context, src Source, st store.Store) (*model.SyncResult, error)
}

// Registry holds the known datasets in a stable order.
type Registry struct {
	order    []string
	datasets map[string]Dataset
}

// NewRegistry builds the registry from configured dataset identifiers.
func NewRegistry(cfg config.SocrataConfig) *Registry {
	r := &Registry{datasets: make(map[string]Dataset)}
	r.register(&signsDataset{id: cfg.SignsID})
	r.register(&metersDataset{id: cfg.MetersID})
	r.register(&violationsDataset{id: cfg.ViolationsID})
	return r
}

func (r *Registry) register(d Dataset) {
	r.order = append(r.order, d.Name())
	r.datasets[d.Name()] = d
}

// Get returns the dataset registered under name.
func (r *Registry) Get(name string) (Dataset, error) {
	d, ok := r.datasets[name]
	if !ok {
		return nil, eris.Errorf("dataset: unknown dataset %q", name)
	}
	return d, nil
}

// List returns all datasets in registration order.
func (r *Registry) List() []Dataset {
	out := make([]Dataset, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.datasets[name])
	}
	return out
}

// normalizeStreet collapses whitespace and uppercases a street name so the
// same street compares equal across datasets.
func normalizeStreet(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// parsePoint validates a raw coordinate pair from a dataset row.
func parsePoint(latStr, lonStr string) (geo.Point, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return geo.Point{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return geo.Point{}, false
	}
	pt, err := geo.NewPoint(lat, lon)
	if err != nil {
		return geo.Point{}, false
	}
	// The portal fills unmapped rows with zeroed coordinates; treat them as
	// missing rather than a point off the African coast.
	if pt.Lat == 0 && pt.Lon == 0 {
		return geo.Point{}, false
	}
	return pt, true
}
