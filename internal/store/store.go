// Package store persists dataset records, import runs, and search history,
// with SQLite and Postgres backends.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/parkscout-nyc/parkscout/internal/config"
	"github.com/parkscout-nyc/parkscout/internal/geo"
	"github.com/parkscout-nyc/parkscout/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = eris.New("store: not found")

// Dataset table names accepted by Count.
var validDatasets = map[string]bool{
	"signs":      true,
	"meters":     true,
	"violations": true,
}

// Store is the persistence interface shared by both backends.
//
// The *Within methods apply only the rectangular prefilter; callers rank and
// trim the candidates with geo.FilterByRadius.
type Store interface {
	Migrate(ctx context.Context) error
	Close() error

	UpsertSigns(ctx context.Context, signs []model.Sign) (int, error)
	UpsertMeters(ctx context.Context, meters []model.Meter) (int, error)
	UpsertViolations(ctx context.Context, violations []model.Violation) (int, error)

	SignsWithin(ctx context.Context, box geo.Box) ([]model.Sign, error)
	MetersWithin(ctx context.Context, box geo.Box) ([]model.Meter, error)
	Meters(ctx context.Context) ([]model.Meter, error)
	ViolationsWithin(ctx context.Context, box geo.Box) ([]model.Violation, error)

	Count(ctx context.Context, dataset string) (int64, error)

	StartImportRun(ctx context.Context, dataset string) (*model.ImportRun, error)
	FinishImportRun(ctx context.Context, runID string, result model.SyncResult, runErr error) error
	LastImportRun(ctx context.Context, dataset string) (*model.ImportRun, error)

	AddSearch(ctx context.Context, entry model.SearchEntry) error
	RecentSearches(ctx context.Context, limit int) ([]model.SearchEntry, error)
	PruneSearches(ctx context.Context, keep int) (int64, error)
	ClearSearches(ctx context.Context) (int64, error)
}

// Open constructs the backend selected by config.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.Path)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

func validateDataset(dataset string) error {
	if !validDatasets[dataset] {
		return eris.Errorf("store: invalid dataset %q", dataset)
	}
	return nil
}
