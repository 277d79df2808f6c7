package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/parkscout-nyc/parkscout/internal/dataset"
	"github.com/parkscout-nyc/parkscout/internal/model"
	"github.com/parkscout-nyc/parkscout/internal/store"
)

var importFile string

var importCmd = &cobra.Command{
	Use:   "import [dataset...]",
	Short: "Sync parking datasets into the store",
	Long: `Sync datasets from the open-data portal into the local store.

With no arguments all datasets are synced concurrently. Pass dataset names
(signs, meters, violations) to restrict the run. Use --file to load a single
dataset from a local CSV export instead of the portal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		reg := dataset.NewRegistry(cfg.Socrata)

		var datasets []dataset.Dataset
		if len(args) == 0 {
			datasets = reg.List()
		} else {
			for _, name := range args {
				d, err := reg.Get(name)
				if err != nil {
					return err
				}
				datasets = append(datasets, d)
			}
		}

		if importFile != "" && len(datasets) != 1 {
			return eris.New("import: --file requires exactly one dataset")
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		client := newSocrataClient()

		g, gctx := errgroup.WithContext(ctx)
		for _, d := range datasets {
			g.Go(func() error {
				return syncDataset(gctx, st, d, dataset.Source{
					Client:   client,
					FilePath: importFile,
				})
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		fmt.Println("Import complete")
		return nil
	},
}

// syncDataset runs one dataset sync inside a recorded import run.
func syncDataset(ctx context.Context, st store.Store, d dataset.Dataset, src dataset.Source) error {
	run, err := st.StartImportRun(ctx, d.Name())
	if err != nil {
		return err
	}

	res, syncErr := d.Sync(ctx, src, st)
	if res == nil {
		res = &model.SyncResult{}
	}
	if err := st.FinishImportRun(ctx, run.ID, *res, syncErr); err != nil {
		zap.L().Error("finish import run", zap.String("dataset", d.Name()), zap.Error(err))
	}
	return syncErr
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "load from a local CSV export")
	rootCmd.AddCommand(importCmd)
}
