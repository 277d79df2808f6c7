package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkscout-nyc/parkscout/internal/config"
	"github.com/parkscout-nyc/parkscout/internal/model"
	"github.com/parkscout-nyc/parkscout/internal/store"
)

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "parkscout.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	cfg := config.Config{}
	cfg.Geo.MaxRadiusMeters = 5000
	cfg.History.MaxEntries = 50
	cfg.Server.AllowedOrigins = []string{"*"}

	return NewServer(st, nil, cfg), st
}

func seedSigns(t *testing.T, st store.Store) {
	t.Helper()
	// Times Square, ~160m north of it, and one in Brooklyn.
	signs := []model.Sign{
		{ID: "near", OrderNumber: "S-1", Description: "NO STANDING", Latitude: 40.7580, Longitude: -73.9855},
		{ID: "close", OrderNumber: "S-2", Description: "NO PARKING", Latitude: 40.75944, Longitude: -73.9855},
		{ID: "far", OrderNumber: "S-3", Description: "METERED", Latitude: 40.6782, Longitude: -73.9442},
	}
	_, err := st.UpsertSigns(context.Background(), signs)
	require.NoError(t, err)
}

func doRequest(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSigns(t *testing.T) {
	s, st := newTestServer(t)
	seedSigns(t, st)

	rec := doRequest(t, s, http.MethodGet, "/api/signs?lat=40.7580&lon=-73.9855&radius=1000")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Query struct {
			RadiusMeters float64 `json:"radius_meters"`
		} `json:"query"`
		Count   int `json:"count"`
		Results []struct {
			Record         model.Sign `json:"record"`
			DistanceMeters float64    `json:"distance_meters"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 1000.0, resp.Query.RadiusMeters)
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "near", resp.Results[0].Record.ID)
	assert.Equal(t, "close", resp.Results[1].Record.ID)
	assert.Less(t, resp.Results[0].DistanceMeters, resp.Results[1].DistanceMeters)
}

func TestSignsEmptyResults(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/signs?lat=40.7580&lon=-73.9855&radius=100")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"results":[]`)
}

func TestSignsCSV(t *testing.T) {
	s, st := newTestServer(t)
	seedSigns(t, st)

	rec := doRequest(t, s, http.MethodGet, "/api/signs?lat=40.7580&lon=-73.9855&radius=1000&format=csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "distance_meters,"))
}

func TestSignsBadParams(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name   string
		target string
	}{
		{name: "missing lat", target: "/api/signs?lon=-73.9855"},
		{name: "non numeric lat", target: "/api/signs?lat=abc&lon=-73.9855"},
		{name: "lat out of range", target: "/api/signs?lat=91&lon=-73.9855"},
		{name: "negative radius", target: "/api/signs?lat=40.7&lon=-73.9&radius=-5"},
		{name: "radius above cap", target: "/api/signs?lat=40.7&lon=-73.9&radius=6000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodGet, tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestNearestMeter(t *testing.T) {
	s, st := newTestServer(t)

	meters := []model.Meter{
		{ID: "M-far", Street: "FLATBUSH AVE", Latitude: 40.6782, Longitude: -73.9442},
		{ID: "M-near", Street: "BROADWAY", Latitude: 40.7585, Longitude: -73.9850},
	}
	_, err := st.UpsertMeters(context.Background(), meters)
	require.NoError(t, err)

	rec := doRequest(t, s, http.MethodGet, "/api/meters/nearest?lat=40.7580&lon=-73.9855")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Record         model.Meter `json:"record"`
		DistanceMeters float64     `json:"distance_meters"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "M-near", resp.Record.ID)
	assert.Greater(t, resp.DistanceMeters, 0.0)
}

func TestNearestMeterNotFound(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/meters/nearest?lat=40.7580&lon=-73.9855")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestBorough(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/borough?lat=40.7580&lon=-73.9855")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"borough":"manhattan"`)

	rec = doRequest(t, s, http.MethodGet, "/api/borough?lat=0&lon=0")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"borough":"unknown"`)
}

func TestTrends(t *testing.T) {
	s, st := newTestServer(t)

	violations := []model.Violation{
		{ID: "v1", FineAmount: 65, IssuedAt: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), Latitude: 40.7580, Longitude: -73.9855},
		{ID: "v2", FineAmount: 35, IssuedAt: time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC), Latitude: 40.7581, Longitude: -73.9856},
	}
	_, err := st.UpsertViolations(context.Background(), violations)
	require.NoError(t, err)

	rec := doRequest(t, s, http.MethodGet, "/api/violations/trends?lat=40.7580&lon=-73.9855&radius=500")
	require.Equal(t, http.StatusOK, rec.Code)

	var report struct {
		Total      int     `json:"total"`
		TotalFines float64 `json:"total_fines"`
		Monthly    []struct {
			Month string `json:"month"`
			Count int    `json:"count"`
		} `json:"monthly"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 2, report.Total)
	assert.InDelta(t, 100, report.TotalFines, 0.001)
	require.Len(t, report.Monthly, 2)
	assert.Equal(t, "2026-01", report.Monthly[0].Month)
}

func TestHistoryLifecycle(t *testing.T) {
	s, st := newTestServer(t)
	seedSigns(t, st)

	// Two searches.
	doRequest(t, s, http.MethodGet, "/api/signs?lat=40.7580&lon=-73.9855&radius=1000")
	doRequest(t, s, http.MethodGet, "/api/meters/nearest?lat=40.7128&lon=-74.0060")

	rec := doRequest(t, s, http.MethodGet, "/api/history")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count   int                 `json:"count"`
		Entries []model.SearchEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "meters", resp.Entries[0].Kind)
	assert.Equal(t, "signs", resp.Entries[1].Kind)
	assert.Equal(t, 2, resp.Entries[1].ResultCount)

	rec = doRequest(t, s, http.MethodGet, "/api/history?limit=1")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)

	rec = doRequest(t, s, http.MethodGet, "/api/history?limit=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodDelete, "/api/history")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed":2}`, rec.Body.String())

	rec = doRequest(t, s, http.MethodGet, "/api/history")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Count)
	assert.NotNil(t, resp.Entries)
}
