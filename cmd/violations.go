package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/parkscout-nyc/parkscout/internal/export"
	"github.com/parkscout-nyc/parkscout/internal/geo"
	"github.com/parkscout-nyc/parkscout/internal/history"
)

var violationsCmd = &cobra.Command{
	Use:   "violations",
	Short: "List parking violations within a radius",
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

		candidates, err := st.ViolationsWithin(ctx, q.Box())
		if err != nil {
			return err
		}
		ranked := geo.FilterByRadius(candidates, q, sortAsc)

		rec := history.NewRecorder(st, cfg.History.MaxEntries)
		if _, err := rec.Record(ctx, "violations", q.Center.Lat, q.Center.Lon, q.RadiusMeters, len(ranked)); err != nil {
			zap.L().Warn("record search failed", zap.Error(err))
		}

		return writeOutput(cmd, "violations", export.ViolationRows(ranked))
	},
}

func init() {
	addQueryFlags(violationsCmd)
	rootCmd.AddCommand(violationsCmd)
}
