// Package export writes ranked query results to JSON, CSV, or XLSX.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/parkscout-nyc/parkscout/internal/geo"
	"github.com/parkscout-nyc/parkscout/internal/model"
)

// Format selects the output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat normalizes a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", eris.Errorf("export: unknown format %q", s)
	}
}

// SignRow is one exported sign result. Distance comes first so spreadsheet
// output reads like a ranked list.
type SignRow struct {
	DistanceMeters float64 `csv:"distance_meters"`
	ID             string  `csv:"id"`
	OrderNumber    string  `csv:"order_number"`
	Borough        string  `csv:"borough"`
	Street         string  `csv:"street"`
	Side           string  `csv:"side"`
	Description    string  `csv:"description"`
	Latitude       float64 `csv:"lat"`
	Longitude      float64 `csv:"lon"`
}

// MeterRow is one exported meter result.
type MeterRow struct {
	DistanceMeters float64 `csv:"distance_meters"`
	ID             string  `csv:"id"`
	Borough        string  `csv:"borough"`
	Street         string  `csv:"street"`
	Status         string  `csv:"status"`
	Rate           string  `csv:"rate"`
	HoursActive    string  `csv:"hours_active"`
	Latitude       float64 `csv:"lat"`
	Longitude      float64 `csv:"lon"`
}

// ViolationRow is one exported violation result.
type ViolationRow struct {
	DistanceMeters float64 `csv:"distance_meters"`
	ID             string  `csv:"id"`
	Code           string  `csv:"code"`
	Description    string  `csv:"description"`
	FineAmount     float64 `csv:"fine_amount"`
	IssuedAt       string  `csv:"issued_at"`
	Street         string  `csv:"street"`
	Latitude       float64 `csv:"lat"`
	Longitude      float64 `csv:"lon"`
}

// SignRows flattens ranked signs for tabular output.
func SignRows(ranked []geo.Ranked[model.Sign]) []SignRow {
	rows := make([]SignRow, len(ranked))
	for i, r := range ranked {
		s := r.Record
		rows[i] = SignRow{
			DistanceMeters: r.DistanceMeters,
			ID:             s.ID,
			OrderNumber:    s.OrderNumber,
			Borough:        s.Borough,
			Street:         s.Street,
			Side:           s.Side,
			Description:    s.Description,
			Latitude:       s.Latitude,
			Longitude:      s.Longitude,
		}
	}
	return rows
}

// MeterRows flattens ranked meters for tabular output.
func MeterRows(ranked []geo.Ranked[model.Meter]) []MeterRow {
	rows := make([]MeterRow, len(ranked))
	for i, r := range ranked {
		m := r.Record
		rows[i] = MeterRow{
			DistanceMeters: r.DistanceMeters,
			ID:             m.ID,
			Borough:        m.Borough,
			Street:         m.Street,
			Status:         m.Status,
			Rate:           m.Rate,
			HoursActive:    m.HoursActive,
			Latitude:       m.Latitude,
			Longitude:      m.Longitude,
		}
	}
	return rows
}

// ViolationRows flattens ranked violations for tabular output.
func ViolationRows(ranked []geo.Ranked[model.Violation]) []ViolationRow {
	rows := make([]ViolationRow, len(ranked))
	for i, r := range ranked {
		v := r.Record
		rows[i] = ViolationRow{
			DistanceMeters: r.DistanceMeters,
			ID:             v.ID,
			Code:           v.Code,
			Description:    v.Description,
			FineAmount:     v.FineAmount,
			IssuedAt:       v.IssuedAt.Format("2006-01-02"),
			Street:         v.Street,
			Latitude:       v.Latitude,
			Longitude:      v.Longitude,
		}
	}
	return rows
}

// Write encodes rows in the requested format. rows must be a slice of one of
// the exported row types (or any csvutil-taggable slice for CSV/XLSX).
func Write(w io.Writer, format Format, sheetName string, rows any) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, rows)
	case FormatCSV:
		return WriteCSV(w, rows)
	case FormatXLSX:
		return WriteXLSX(w, sheetName, rows)
	default:
		return eris.Errorf("export: unknown format %q", format)
	}
}

// WriteFile writes rows to path, creating or truncating it.
func WriteFile(path string, format Format, sheetName string, rows any) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	if err := Write(f, format, sheetName, rows); err != nil {
		f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "export: close %s", path)
}

// WriteJSON writes rows as indented JSON.
func WriteJSON(w io.Writer, rows any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(rows), "export: encode json")
}

// WriteCSV writes rows with a header derived from csv struct tags.
func WriteCSV(w io.Writer, rows any) error {
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return eris.Wrap(err, "export: marshal csv")
	}
	_, err = w.Write(data)
	return eris.Wrap(err, "export: write csv")
}

// WriteXLSX writes rows as a single-sheet workbook. The table is built from
// the same csv tags as WriteCSV, so the two formats always agree on columns.
func WriteXLSX(w io.Writer, sheetName string, rows any) error {
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return eris.Wrap(err, "export: marshal rows")
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return eris.Wrap(err, "export: reread rows")
	}

	if sheetName == "" {
		sheetName = "results"
	}
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}
	for _, record := range records {
		row := sheet.AddRow()
		for _, value := range record {
			row.AddCell().Value = value
		}
	}
	return eris.Wrap(f.Write(w), "export: write xlsx")
}
