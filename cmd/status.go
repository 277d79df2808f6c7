package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/parkscout-nyc/parkscout/internal/dataset"
	"github.com/parkscout-nyc/parkscout/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-dataset row counts and last import",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		for _, d := range dataset.NewRegistry(cfg.Socrata).List() {
			count, err := st.Count(ctx, d.Name())
			if err != nil {
				return err
			}

			fmt.Printf("%-12s %8d rows    %s\n", d.Name(), count, d.Description())

			run, err := st.LastImportRun(ctx, d.Name())
			switch {
			case eris.Is(err, store.ErrNotFound):
				fmt.Printf("%-12s never imported\n", "")
			case err != nil:
				return err
			default:
				line := fmt.Sprintf("last import %s  status=%s  fetched=%d loaded=%d rejected=%d",
					run.StartedAt.Format("2006-01-02 15:04:05"), run.Status,
					run.Result.Fetched, run.Result.Loaded, run.Result.Rejected)
				if run.Error != "" {
					line += "  error=" + run.Error
				}
				fmt.Printf("%-12s %s\n", "", line)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
