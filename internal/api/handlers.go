package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/parkscout-nyc/parkscout/internal/export"
	"github.com/parkscout-nyc/parkscout/internal/geo"
	"github.com/parkscout-nyc/parkscout/internal/model"
)

// queryEcho reflects the parsed search parameters back in list responses.
type queryEcho struct {
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	RadiusMeters float64 `json:"radius_meters"`
}

type listResponse struct {
	Query   queryEcho `json:"query"`
	Count   int       `json:"count"`
	Results any       `json:"results"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSigns(w http.ResponseWriter, r *http.Request) {
	q, ok := s.parseQuery(w, r)
	if !ok {
		return
	}

	candidates, err := s.store.SignsWithin(r.Context(), q.Box())
	if err != nil {
		s.serverError(w, "query signs", err)
		return
	}
	ranked := geo.FilterByRadius(candidates, q, sortAscending(r))
	s.record(r, "signs", q.Center, q.RadiusMeters, len(ranked))

	if wantsCSV(r) {
		writeCSV(w, "signs.csv", export.SignRows(ranked))
		return
	}
	writeJSON(w, http.StatusOK, listResponse{
		Query:   echo(q),
		Count:   len(ranked),
		Results: ranked,
	})
}

func (s *Server) handleNearestMeter(w http.ResponseWriter, r *http.Request) {
	center, ok := s.parseCenter(w, r)
	if !ok {
		return
	}

	meters, err := s.store.Meters(r.Context())
	if err != nil {
		s.serverError(w, "load meters", err)
		return
	}

	nearest, found := geo.Nearest(meters, center)
	if !found {
		s.record(r, "meters", center, 0, 0)
		writeError(w, http.StatusNotFound, "no meters found")
		return
	}
	s.record(r, "meters", center, 0, 1)
	writeJSON(w, http.StatusOK, nearest)
}

func (s *Server) handleViolations(w http.ResponseWriter, r *http.Request) {
	q, ok := s.parseQuery(w, r)
	if !ok {
		return
	}

	candidates, err := s.store.ViolationsWithin(r.Context(), q.Box())
	if err != nil {
		s.serverError(w, "query violations", err)
		return
	}
	ranked := geo.FilterByRadius(candidates, q, sortAscending(r))
	s.record(r, "violations", q.Center, q.RadiusMeters, len(ranked))

	if wantsCSV(r) {
		writeCSV(w, "violations.csv", export.ViolationRows(ranked))
		return
	}
	writeJSON(w, http.StatusOK, listResponse{
		Query:   echo(q),
		Count:   len(ranked),
		Results: ranked,
	})
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	q, ok := s.parseQuery(w, r)
	if !ok {
		return
	}

	report, err := s.analyzer.Analyze(r.Context(), q)
	if err != nil {
		s.serverError(w, "analyze violations", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleBorough(w http.ResponseWriter, r *http.Request) {
	center, ok := s.parseCenter(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"lat":     center.Lat,
		"lon":     center.Lon,
		"borough": s.classifier.Classify(center),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := s.recorder.Recent(r.Context(), limit)
	if err != nil {
		s.serverError(w, "load history", err)
		return
	}
	if entries == nil {
		entries = []model.SearchEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(entries),
		"entries": entries,
	})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	removed, err := s.recorder.Clear(r.Context())
	if err != nil {
		s.serverError(w, "clear history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

// parseCenter reads and validates lat/lon. On failure it writes a 400 and
// returns ok=false.
func (s *Server) parseCenter(w http.ResponseWriter, r *http.Request) (geo.Point, bool) {
	lat, err := floatParam(r, "lat")
	if err != nil {
		writeError(w, http.StatusBadRequest, "lat must be a number")
		return geo.Point{}, false
	}
	lon, err := floatParam(r, "lon")
	if err != nil {
		writeError(w, http.StatusBadRequest, "lon must be a number")
		return geo.Point{}, false
	}

	center, err := geo.NewPoint(lat, lon)
	if err != nil {
		writeError(w, http.StatusBadRequest, "coordinate out of range")
		return geo.Point{}, false
	}
	return center, true
}

// parseQuery reads lat/lon/radius and validates them against the configured
// radius cap. A missing radius falls back to DefaultRadiusMeters.
func (s *Server) parseQuery(w http.ResponseWriter, r *http.Request) (geo.Query, bool) {
	center, ok := s.parseCenter(w, r)
	if !ok {
		return geo.Query{}, false
	}

	radius := DefaultRadiusMeters
	if raw := r.URL.Query().Get("radius"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "radius must be a number")
			return geo.Query{}, false
		}
		radius = f
	}

	q, err := geo.NewQueryWithMax(center, radius, s.maxRadius)
	if err != nil {
		writeError(w, http.StatusBadRequest, "radius out of range")
		return geo.Query{}, false
	}
	return q, true
}

// record appends to search history. Failures are logged, not surfaced; a
// history hiccup should not fail the search itself.
func (s *Server) record(r *http.Request, kind string, center geo.Point, radius float64, count int) {
	if _, err := s.recorder.Record(r.Context(), kind, center.Lat, center.Lon, radius, count); err != nil {
		zap.L().Warn("record search failed", zap.String("kind", kind), zap.Error(err))
	}
}

func (s *Server) serverError(w http.ResponseWriter, action string, err error) {
	zap.L().Error(action, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func sortAscending(r *http.Request) bool {
	return r.URL.Query().Get("sort") != "none"
}

func wantsCSV(r *http.Request) bool {
	return r.URL.Query().Get("format") == "csv"
}

func floatParam(r *http.Request, name string) (float64, error) {
	return strconv.ParseFloat(r.URL.Query().Get(name), 64)
}

func echo(q geo.Query) queryEcho {
	return queryEcho{Lat: q.Center.Lat, Lon: q.Center.Lon, RadiusMeters: q.RadiusMeters}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeCSV(w http.ResponseWriter, filename string, rows any) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	if err := export.WriteCSV(w, rows); err != nil {
		zap.L().Error("write csv", zap.Error(err))
	}
}
