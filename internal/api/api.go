// Package api serves proximity queries over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/parkscout-nyc/parkscout/internal/config"
	"github.com/parkscout-nyc/parkscout/internal/geo"
	"github.com/parkscout-nyc/parkscout/internal/history"
	"github.com/parkscout-nyc/parkscout/internal/store"
	"github.com/parkscout-nyc/parkscout/internal/trends"
)

// DefaultRadiusMeters applies when a radius query omits the radius param.
const DefaultRadiusMeters = 500.0

// Server wires the query handlers to their dependencies.
type Server struct {
	store      store.Store
	classifier *geo.Classifier
	recorder   *history.Recorder
	analyzer   *trends.Analyzer
	maxRadius  float64
	origins    []string
}

// NewServer builds the server. A nil classifier falls back to the embedded
// borough bounds.
func NewServer(st store.Store, classifier *geo.Classifier, cfg config.Config) *Server {
	if classifier == nil {
		classifier = geo.NewClassifier()
	}
	maxRadius := cfg.Geo.MaxRadiusMeters
	if maxRadius <= 0 {
		maxRadius = geo.DefaultMaxRadiusMeters
	}
	return &Server{
		store:      st,
		classifier: classifier,
		recorder:   history.NewRecorder(st, cfg.History.MaxEntries),
		analyzer:   trends.NewAnalyzer(st, classifier),
		maxRadius:  maxRadius,
		origins:    cfg.Server.AllowedOrigins,
	}
}

// Router assembles the chi handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/signs", s.handleSigns)
		r.Get("/meters/nearest", s.handleNearestMeter)
		r.Get("/violations", s.handleViolations)
		r.Get("/violations/trends", s.handleTrends)
		r.Get("/borough", s.handleBorough)
		r.Get("/history", s.handleHistory)
		r.Delete("/history", s.handleClearHistory)
	})
	return r
}

// ListenAndServe runs the server until ctx is cancelled, then drains.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "api: listen")
	}
	return nil
}

// requestLogger logs one line per request with status and latency.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
