// Package fetcher streams rows out of the raw CSV and JSON payloads the
// dataset loaders and the Socrata client consume.
package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter rune // default ','
	Comment   rune // comment character (0 = none)
	TrimSpace bool
}

// Row is one CSV record keyed by lowercased header column name.
type Row map[string]string

// Get returns the value for a header name, case-insensitively.
func (r Row) Get(key string) string {
	return r[strings.ToLower(key)]
}

// StreamCSV reads a headered CSV document and sends one Row per record.
// The first record is taken as the header; rows shorter than the header are
// padded with empty values, longer ones are truncated. Caller must consume
// the row channel. Both channels are closed when processing completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan Row, <-chan error) {
	rowCh := make(chan Row, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		if opts.Comment != 0 {
			reader.Comment = opts.Comment
		}
		reader.FieldsPerRecord = -1 // allow variable fields

		header, err := reader.Read()
		if err == io.EOF {
			return
		}
		if err != nil {
			errCh <- eris.Wrap(err, "csv: read header")
			return
		}
		for i, col := range header {
			header[i] = strings.ToLower(strings.TrimSpace(col))
		}

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			row := make(Row, len(header))
			for i, col := range header {
				var val string
				if i < len(record) {
					val = record[i]
				}
				if opts.TrimSpace {
					val = strings.TrimSpace(val)
				}
				row[col] = val
			}

			select {
			case rowCh <- row:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled sending row")
				return
			}
		}
	}()

	return rowCh, errCh
}
