package dataset

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/parkscout-nyc/parkscout/internal/fetcher"
	"github.com/parkscout-nyc/parkscout/internal/model"
	"github.com/parkscout-nyc/parkscout/internal/store"
	"github.com/parkscout-nyc/parkscout/pkg/socrata"
)

// signRow is the raw portal row for the parking-signs dataset. SODA encodes
// numbers as strings; parsing happens in parseSign.
type signRow struct {
	OrderNumber string `json:"order_number"`
	SignSeq     string `json:"sign_seqno"`
	Borough     string `json:"borough"`
	OnStreet    string `json:"on_street"`
	Side        string `json:"side_of_street"`
	Description string `json:"sign_description"`
	Latitude    string `json:"latitude"`
	Longitude   string `json:"longitude"`
}

type signsDataset struct {
	id string
}

func (d *signsDataset) Name() string        { return "signs" }
func (d *signsDataset) Description() string { return "Parking regulation signs" }

func (d *signsDataset) Sync(ctx context.Context, src Source, st store.Store) (*model.SyncResult, error) {
	res := &model.SyncResult{}
	batch := make([]model.Sign, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := st.UpsertSigns(ctx, batch)
		if err != nil {
			return err
		}
		res.Loaded += n
		batch = batch[:0]
		return nil
	}

	handle := func(row signRow) error {
		res.Fetched++
		sign, ok := parseSign(row)
		if !ok {
			res.Rejected++
			return nil
		}
		batch = append(batch, sign)
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	}

	var err error
	if src.FilePath != "" {
		err = streamCSVRows(ctx, src.FilePath, func(row fetcher.Row) error {
			return handle(signRowFromCSV(row))
		})
	} else {
		_, err = socrata.Records(ctx, src.Client, d.id, handle)
	}
	if err != nil {
		return res, eris.Wrap(err, "dataset: sync signs")
	}

	if err := flush(); err != nil {
		return res, eris.Wrap(err, "dataset: sync signs")
	}

	zap.L().Info("synced signs",
		zap.Int("fetched", res.Fetched),
		zap.Int("loaded", res.Loaded),
		zap.Int("rejected", res.Rejected),
	)
	return res, nil
}

// parseSign validates one raw row. Rows without a usable coordinate, order
// number, or description are rejected.
func parseSign(row signRow) (model.Sign, bool) {
	pt, ok := parsePoint(row.Latitude, row.Longitude)
	if !ok {
		return model.Sign{}, false
	}
	if row.OrderNumber == "" || row.Description == "" {
		return model.Sign{}, false
	}

	id := row.OrderNumber
	if row.SignSeq != "" {
		id += "-" + row.SignSeq
	}

	return model.Sign{
		ID:          id,
		OrderNumber: row.OrderNumber,
		Borough:     normalizeStreet(row.Borough),
		Street:      normalizeStreet(row.OnStreet),
		Side:        row.Side,
		Description: row.Description,
		Latitude:    pt.Lat,
		Longitude:   pt.Lon,
	}, true
}

func signRowFromCSV(row fetcher.Row) signRow {
	return signRow{
		OrderNumber: row.Get("order_number"),
		SignSeq:     row.Get("sign_seqno"),
		Borough:     row.Get("borough"),
		OnStreet:    row.Get("on_street"),
		Side:        row.Get("side_of_street"),
		Description: row.Get("sign_description"),
		Latitude:    row.Get("latitude"),
		Longitude:   row.Get("longitude"),
	}
}

// streamCSVRows feeds each row of a local CSV export to handle.
func streamCSVRows(ctx context.Context, path string, handle func(fetcher.Row) error) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close()

	rowCh, errCh := fetcher.StreamCSV(ctx, f, fetcher.CSVOptions{TrimSpace: true})
	for row := range rowCh {
		if err := handle(row); err != nil {
			return err
		}
	}
	return <-errCh
}
