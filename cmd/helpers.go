package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/parkscout-nyc/parkscout/internal/export"
	"github.com/parkscout-nyc/parkscout/internal/geo"
	"github.com/parkscout-nyc/parkscout/internal/store"
	"github.com/parkscout-nyc/parkscout/pkg/socrata"
)

// openStore opens the configured backend with migrations applied.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func newSocrataClient() *socrata.Client {
	opts := []socrata.Option{
		socrata.WithRateLimit(cfg.Socrata.RateLimit),
		socrata.WithPageSize(cfg.Socrata.PageSize),
	}
	if cfg.Socrata.AppToken != "" {
		opts = append(opts, socrata.WithAppToken(cfg.Socrata.AppToken))
	}
	return socrata.New(cfg.Socrata.BaseURL, opts...)
}

// newClassifier prefers a configured borough shapefile over the embedded
// bounding boxes.
func newClassifier() (*geo.Classifier, error) {
	if cfg.Geo.BoundsFile == "" {
		return geo.NewClassifier(), nil
	}
	bounds, err := geo.LoadBoundsFromShapefile(cfg.Geo.BoundsFile)
	if err != nil {
		return nil, err
	}
	return geo.NewClassifierFromBounds(bounds), nil
}

// addQueryFlags registers the shared proximity-query flags.
func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("lat", 0, "search center latitude (required)")
	cmd.Flags().Float64("lon", 0, "search center longitude (required)")
	cmd.Flags().Float64("radius", 500, "search radius in meters")
	cmd.Flags().String("sort", "distance", "result order: distance or none")
	cmd.MarkFlagRequired("lat")
	cmd.MarkFlagRequired("lon")
	addOutputFlags(cmd)
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "json", "output format: json, csv, or xlsx")
	cmd.Flags().String("out", "", "write output to file instead of stdout")
}

// parseQueryFlags validates --lat/--lon/--radius against the configured cap
// and reads the sort order.
func parseQueryFlags(cmd *cobra.Command) (geo.Query, bool, error) {
	lat, _ := cmd.Flags().GetFloat64("lat")
	lon, _ := cmd.Flags().GetFloat64("lon")
	radius, _ := cmd.Flags().GetFloat64("radius")
	sortFlag, _ := cmd.Flags().GetString("sort")

	center, err := geo.NewPoint(lat, lon)
	if err != nil {
		return geo.Query{}, false, err
	}
	q, err := geo.NewQueryWithMax(center, radius, cfg.Geo.MaxRadiusMeters)
	if err != nil {
		return geo.Query{}, false, err
	}
	return q, sortFlag != "none", nil
}

// parseCenterFlags validates --lat/--lon only.
func parseCenterFlags(cmd *cobra.Command) (geo.Point, error) {
	lat, _ := cmd.Flags().GetFloat64("lat")
	lon, _ := cmd.Flags().GetFloat64("lon")
	return geo.NewPoint(lat, lon)
}

// writeOutput writes rows per --format/--out. Without --out it streams to
// stdout.
func writeOutput(cmd *cobra.Command, sheetName string, rows any) error {
	formatFlag, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	format, err := export.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	if out != "" {
		return export.WriteFile(out, format, sheetName, rows)
	}
	return eris.Wrap(export.Write(os.Stdout, format, sheetName, rows), "write output")
}
