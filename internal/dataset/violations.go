package dataset

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/parkscout-nyc/parkscout/internal/fetcher"
	"github.com/parkscout-nyc/parkscout/internal/model"
	"github.com/parkscout-nyc/parkscout/internal/store"
	"github.com/parkscout-nyc/parkscout/pkg/socrata"
)

// violationRow is the raw portal row for the violations dataset.
type violationRow struct {
	SummonsNumber string `json:"summons_number"`
	Code          string `json:"violation_code"`
	Description   string `json:"violation_description"`
	FineAmount    string `json:"fine_amount"`
	IssueDate     string `json:"issue_date"`
	Street        string `json:"street_name"`
	Latitude      string `json:"latitude"`
	Longitude     string `json:"longitude"`
}

// issueDateFormats covers the portal's floating timestamp plus the
// MM/DD/YYYY form used in CSV exports.
var issueDateFormats = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
}

type violationsDataset struct {
	id string
}

func (d *violationsDataset) Name() string        { return "violations" }
func (d *violationsDataset) Description() string { return "Issued parking violations" }

func (d *violationsDataset) Sync(ctx context.Context, src Source, st store.Store) (*model.SyncResult, error) {
	res := &model.SyncResult{}
	batch := make([]model.Violation, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := st.UpsertViolations(ctx, batch)
		if err != nil {
			return err
		}
		res.Loaded += n
		batch = batch[:0]
		return nil
	}

	handle := func(row violationRow) error {
		res.Fetched++
		v, ok := parseViolation(row)
		if !ok {
			res.Rejected++
			return nil
		}
		batch = append(batch, v)
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	}

	var err error
	if src.FilePath != "" {
		err = streamCSVRows(ctx, src.FilePath, func(row fetcher.Row) error {
			return handle(violationRowFromCSV(row))
		})
	} else {
		_, err = socrata.Records(ctx, src.Client, d.id, handle)
	}
	if err != nil {
		return res, eris.Wrap(err, "dataset: sync violations")
	}

	if err := flush(); err != nil {
		return res, eris.Wrap(err, "dataset: sync violations")
	}

	zap.L().Info("synced violations",
		zap.Int("fetched", res.Fetched),
		zap.Int("loaded", res.Loaded),
		zap.Int("rejected", res.Rejected),
	)
	return res, nil
}

func parseViolation(row violationRow) (model.Violation, bool) {
	pt, ok := parsePoint(row.Latitude, row.Longitude)
	if !ok {
		return model.Violation{}, false
	}
	if row.SummonsNumber == "" {
		return model.Violation{}, false
	}

	issued, ok := parseIssueDate(row.IssueDate)
	if !ok {
		return model.Violation{}, false
	}

	var fine float64
	if row.FineAmount != "" {
		f, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(row.FineAmount), "$"), 64)
		if err == nil {
			fine = f
		}
	}

	return model.Violation{
		ID:          row.SummonsNumber,
		Code:        row.Code,
		Description: row.Description,
		FineAmount:  fine,
		IssuedAt:    issued,
		Street:      normalizeStreet(row.Street),
		Latitude:    pt.Lat,
		Longitude:   pt.Lon,
	}, true
}

func parseIssueDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range issueDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func violationRowFromCSV(row fetcher.Row) violationRow {
	return violationRow{
		SummonsNumber: row.Get("summons_number"),
		Code:          row.Get("violation_code"),
		Description:   row.Get("violation_description"),
		FineAmount:    row.Get("fine_amount"),
		IssueDate:     row.Get("issue_date"),
		Street:        row.Get("street_name"),
		Latitude:      row.Get("latitude"),
		Longitude:     row.Get("longitude"),
	}
}
