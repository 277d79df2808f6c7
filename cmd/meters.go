package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/parkscout-nyc/parkscout/internal/export"
	"github.com/parkscout-nyc/parkscout/internal/geo"
	"github.com/parkscout-nyc/parkscout/internal/history"
	"github.com/parkscout-nyc/parkscout/internal/model"
)

var metersCmd = &cobra.Command{
	Use:   "meters",
	Short: "List parking meters within a radius",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		q, sortAsc, err := parseQueryFlags(cmd)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		candidates, err := st.MetersWithin(ctx, q.Box())
		if err != nil {
			return err
		}
		ranked := geo.FilterByRadius(candidates, q, sortAsc)

		rec := history.NewRecorder(st, cfg.History.MaxEntries)
		if _, err := rec.Record(ctx, "meters", q.Center.Lat, q.Center.Lon, q.RadiusMeters, len(ranked)); err != nil {
			zap.L().Warn("record search failed", zap.Error(err))
		}

		return writeOutput(cmd, "meters", export.MeterRows(ranked))
	},
}

var metersNearestCmd = &cobra.Command{
	Use:   "nearest",
	Short: "Find the single closest parking meter",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		center, err := parseCenterFlags(cmd)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		meters, err := st.Meters(ctx)
		if err != nil {
			return err
		}

		nearest, found := geo.Nearest(meters, center)
		rec := history.NewRecorder(st, cfg.History.MaxEntries)
		resultCount := 0
		if found {
			resultCount = 1
		}
		if _, err := rec.Record(ctx, "meters", center.Lat, center.Lon, 0, resultCount); err != nil {
			zap.L().Warn("record search failed", zap.Error(err))
		}

		if !found {
			return eris.New("no meters found")
		}
		return writeOutput(cmd, "meters", export.MeterRows([]geo.Ranked[model.Meter]{nearest}))
	},
}

func init() {
	addQueryFlags(metersCmd)

	metersNearestCmd.Flags().Float64("lat", 0, "search center latitude (required)")
	metersNearestCmd.Flags().Float64("lon", 0, "search center longitude (required)")
	metersNearestCmd.MarkFlagRequired("lat")
	metersNearestCmd.MarkFlagRequired("lon")
	addOutputFlags(metersNearestCmd)

	metersCmd.AddCommand(metersNearestCmd)
	rootCmd.AddCommand(metersCmd)
}
