package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/parkscout-nyc/parkscout/internal/geo"
	"github.com/parkscout-nyc/parkscout/internal/trends"
)

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Summarize violations near a point",
	Long:  "Rolls up violations within the search radius into monthly counts, per-borough totals, and the percent change between the first and last month.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		center, err := parseCenterFlags(cmd)
		if err != nil {
			return err
		}
		radius, _ := cmd.Flags().GetFloat64("radius")
		q, err := geo.NewQueryWithMax(center, radius, cfg.Geo.MaxRadiusMeters)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		classifier, err := newClassifier()
		if err != nil {
			return err
		}

		report, err := trends.NewAnalyzer(st, classifier).Analyze(ctx, q)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(report), "trends: encode report")
	},
}

func init() {
	trendsCmd.Flags().Float64("lat", 0, "search center latitude (required)")
	trendsCmd.Flags().Float64("lon", 0, "search center longitude (required)")
	trendsCmd.Flags().Float64("radius", 500, "search radius in meters")
	trendsCmd.MarkFlagRequired("lat")
	trendsCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(trendsCmd)
}
