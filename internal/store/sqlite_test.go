package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkscout-nyc/parkscout/internal/geo"
	"github.com/parkscout-nyc/parkscout/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteUpsertAndQuerySigns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	signs := []model.Sign{
		{ID: "s1", Street: "W 45 ST", Description: "NO STANDING", Latitude: 40.758, Longitude: -73.985},
		{ID: "s2", Street: "CANAL ST", Description: "NO PARKING", Latitude: 40.718, Longitude: -74.001},
	}
	n, err := s.UpsertSigns(ctx, signs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Upsert again with changed description: still two rows.
	signs[0].Description = "NO STANDING ANYTIME"
	_, err = s.UpsertSigns(ctx, signs)
	require.NoError(t, err)

	count, err := s.Count(ctx, "signs")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	// Box around midtown catches only s1.
	box := geo.BoundingBox(geo.Point{Lat: 40.758, Lon: -73.985}, 500)
	got, err := s.SignsWithin(ctx, box)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].ID)
	assert.Equal(t, "NO STANDING ANYTIME", got[0].Description)
}

func TestSQLiteUpsertEmptySlice(t *testing.T) {
	s := newTestStore(t)
	n, err := s.UpsertSigns(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteMeters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	meters := []model.Meter{
		{ID: "m1", Street: "BROADWAY", Rate: "$4.50/hr", Latitude: 40.758, Longitude: -73.985},
		{ID: "m2", Street: "CHURCH ST", Rate: "$2.50/hr", Latitude: 40.713, Longitude: -74.009},
	}
	_, err := s.UpsertMeters(ctx, meters)
	require.NoError(t, err)

	all, err := s.Meters(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	box := geo.BoundingBox(geo.Point{Lat: 40.713, Lon: -74.009}, 300)
	within, err := s.MetersWithin(ctx, box)
	require.NoError(t, err)
	require.Len(t, within, 1)
	assert.Equal(t, "m2", within[0].ID)
}

func TestSQLiteViolations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	issued := time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)
	violations := []model.Violation{
		{ID: "v1", Code: "21", Description: "STREET CLEANING", FineAmount: 65, IssuedAt: issued, Latitude: 40.758, Longitude: -73.985},
	}
	_, err := s.UpsertViolations(ctx, violations)
	require.NoError(t, err)

	box := geo.BoundingBox(geo.Point{Lat: 40.758, Lon: -73.985}, 200)
	got, err := s.ViolationsWithin(ctx, box)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "v1", got[0].ID)
	assert.True(t, got[0].IssuedAt.Equal(issued))
}

func TestSQLiteCountInvalidDataset(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Count(context.Background(), "companies; DROP TABLE signs")
	assert.Error(t, err)
}

func TestSQLiteImportRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.LastImportRun(ctx, "signs")
	assert.True(t, eris.Is(err, ErrNotFound))

	run, err := s.StartImportRun(ctx, "signs")
	require.NoError(t, err)
	assert.Equal(t, model.ImportStatusRunning, run.Status)

	result := model.SyncResult{Fetched: 10, Loaded: 9, Rejected: 1}
	require.NoError(t, s.FinishImportRun(ctx, run.ID, result, nil))

	last, err := s.LastImportRun(ctx, "signs")
	require.NoError(t, err)
	assert.Equal(t, run.ID, last.ID)
	assert.Equal(t, model.ImportStatusComplete, last.Status)
	assert.Equal(t, result, last.Result)
	require.NotNil(t, last.FinishedAt)
}

func TestSQLiteImportRunFailure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run, err := s.StartImportRun(ctx, "meters")
	require.NoError(t, err)

	require.NoError(t, s.FinishImportRun(ctx, run.ID, model.SyncResult{}, eris.New("portal unreachable")))

	last, err := s.LastImportRun(ctx, "meters")
	require.NoError(t, err)
	assert.Equal(t, model.ImportStatusFailed, last.Status)
	assert.Contains(t, last.Error, "portal unreachable")
}

func TestSQLiteFinishUnknownRun(t *testing.T) {
	s := newTestStore(t)
	err := s.FinishImportRun(context.Background(), "no-such-run", model.SyncResult{}, nil)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLiteSearchHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		entry := model.SearchEntry{
			ID:           uuid.New().String(),
			Kind:         "signs",
			Latitude:     40.758,
			Longitude:    -73.985,
			RadiusMeters: 500,
			ResultCount:  i,
			SearchedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.AddSearch(ctx, entry))
	}

	recent, err := s.RecentSearches(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	// Newest first.
	assert.Equal(t, 4, recent[0].ResultCount)
	assert.Equal(t, 2, recent[2].ResultCount)

	pruned, err := s.PruneSearches(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, pruned)

	cleared, err := s.ClearSearches(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, cleared)

	recent, err = s.RecentSearches(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestOpenSelectsDriver(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(context.Background(), testStoreConfig(filepath.Join(dir, "open.db")))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(context.Background(), testStoreConfigDriver("mysql"))
	assert.Error(t, err)
}
