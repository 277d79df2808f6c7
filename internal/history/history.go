// Package history records recent proximity searches so they can be replayed.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/parkscout-nyc/parkscout/internal/model"
	"github.com/parkscout-nyc/parkscout/internal/store"
)

// DefaultMaxEntries caps retained history when config leaves it unset.
const DefaultMaxEntries = 100

// Recorder persists searches and keeps the history bounded.
type Recorder struct {
	store      store.Store
	maxEntries int
}

// NewRecorder wires the recorder to a store. maxEntries <= 0 falls back to
// DefaultMaxEntries.
func NewRecorder(st store.Store, maxEntries int) *Recorder {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Recorder{store: st, maxEntries: maxEntries}
}

// Record stores one search and prunes anything beyond the retention cap.
// Oldest entries are discarded first.
func (r *Recorder) Record(ctx context.Context, kind string, lat, lon, radiusMeters float64, resultCount int) (*model.SearchEntry, error) {
	entry := model.SearchEntry{
		ID:           uuid.New().String(),
		Kind:         kind,
		Latitude:     lat,
		Longitude:    lon,
		RadiusMeters: radiusMeters,
		ResultCount:  resultCount,
		SearchedAt:   time.Now().UTC(),
	}

	if err := r.store.AddSearch(ctx, entry); err != nil {
		return nil, eris.Wrap(err, "history: record search")
	}
	if _, err := r.store.PruneSearches(ctx, r.maxEntries); err != nil {
		return nil, eris.Wrap(err, "history: prune searches")
	}
	return &entry, nil
}

// Recent returns up to limit entries, newest first. limit <= 0 or beyond the
// retention cap returns the full retained history.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]model.SearchEntry, error) {
	if limit <= 0 || limit > r.maxEntries {
		limit = r.maxEntries
	}
	entries, err := r.store.RecentSearches(ctx, limit)
	if err != nil {
		return nil, eris.Wrap(err, "history: recent searches")
	}
	return entries, nil
}

// Clear drops all history and returns the number of entries removed.
func (r *Recorder) Clear(ctx context.Context) (int64, error) {
	n, err := r.store.ClearSearches(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "history: clear searches")
	}
	return n, nil
}
