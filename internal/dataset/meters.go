package dataset

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/parkscout-nyc/parkscout/internal/fetcher"
	"github.com/parkscout-nyc/parkscout/internal/model"
	"github.com/parkscout-nyc/parkscout/internal/store"
	"github.com/parkscout-nyc/parkscout/pkg/socrata"
)

// meterRow is the raw portal row for the parking-meters dataset.
type meterRow struct {
	MeterNumber string `json:"meter_number"`
	Borough     string `json:"borough"`
	OnStreet    string `json:"on_street"`
	Status      string `json:"status"`
	Rate        string `json:"meter_hours"` // e.g. "$4.50 per hour"
	HoursActive string `json:"hours_in_effect"`
	Latitude    string `json:"latitude"`
	Longitude   string `json:"longitude"`
}

type metersDataset struct {
	id string
}

func (d *metersDataset) Name() string        { return "meters" }
func (d *metersDataset) Description() string { return "Parking meters and rates" }

func (d *metersDataset) Sync(ctx context.Context, src Source, st store.Store) (*model.SyncResult, error) {
	res := &model.SyncResult{}
	batch := make([]model.Meter, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := st.UpsertMeters(ctx, batch)
		if err != nil {
			return err
		}
		res.Loaded += n
		batch = batch[:0]
		return nil
	}

	handle := func(row meterRow) error {
		res.Fetched++
		meter, ok := parseMeter(row)
		if !ok {
			res.Rejected++
			return nil
		}
		batch = append(batch, meter)
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	}

	var err error
	if src.FilePath != "" {
		err = streamCSVRows(ctx, src.FilePath, func(row fetcher.Row) error {
			return handle(meterRowFromCSV(row))
		})
	} else {
		_, err = socrata.Records(ctx, src.Client, d.id, handle)
	}
	if err != nil {
		return res, eris.Wrap(err, "dataset: sync meters")
	}

	if err := flush(); err != nil {
		return res, eris.Wrap(err, "dataset: sync meters")
	}

	zap.L().Info("synced meters",
		zap.Int("fetched", res.Fetched),
		zap.Int("loaded", res.Loaded),
		zap.Int("rejected", res.Rejected),
	)
	return res, nil
}

func parseMeter(row meterRow) (model.Meter, bool) {
	pt, ok := parsePoint(row.Latitude, row.Longitude)
	if !ok {
		return model.Meter{}, false
	}
	if row.MeterNumber == "" {
		return model.Meter{}, false
	}

	return model.Meter{
		ID:          row.MeterNumber,
		Borough:     normalizeStreet(row.Borough),
		Street:      normalizeStreet(row.OnStreet),
		Status:      row.Status,
		Rate:        row.Rate,
		HoursActive: row.HoursActive,
		Latitude:    pt.Lat,
		Longitude:   pt.Lon,
	}, true
}

func meterRowFromCSV(row fetcher.Row) meterRow {
	return meterRow{
		MeterNumber: row.Get("meter_number"),
		Borough:     row.Get("borough"),
		OnStreet:    row.Get("on_street"),
		Status:      row.Get("status"),
		Rate:        row.Get("meter_hours"),
		HoursActive: row.Get("hours_in_effect"),
		Latitude:    row.Get("latitude"),
		Longitude:   row.Get("longitude"),
	}
}
