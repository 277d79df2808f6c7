package fetcher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectRows(t *testing.T, rowCh <-chan Row, errCh <-chan error) []Row {
	t.Helper()
	var rows []Row
	for row := range rowCh {
		rows = append(rows, row)
	}
	require.NoError(t, <-errCh)
	return rows
}

func TestStreamCSV(t *testing.T) {
	input := "ID,Street,Lat\n1,Broadway,40.75\n2,Canal St,40.72\n"

	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	rows := collectRows(t, rowCh, errCh)

	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0].Get("id"))
	assert.Equal(t, "Broadway", rows[0].Get("Street"))
	assert.Equal(t, "40.72", rows[1].Get("LAT"))
}

func TestStreamCSVTrimSpace(t *testing.T) {
	input := "id, street \n1,  Broadway  \n"

	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{TrimSpace: true})
	rows := collectRows(t, rowCh, errCh)

	require.Len(t, rows, 1)
	assert.Equal(t, "Broadway", rows[0].Get("street"))
}

func TestStreamCSVShortAndLongRows(t *testing.T) {
	input := "a,b,c\n1,2\n1,2,3,4\n"

	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	rows := collectRows(t, rowCh, errCh)

	require.Len(t, rows, 2)
	assert.Equal(t, "", rows[0].Get("c"))
	assert.Equal(t, "3", rows[1].Get("c"))
}

func TestStreamCSVDelimiter(t *testing.T) {
	input := "a;b\n1;2\n"

	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{Delimiter: ';'})
	rows := collectRows(t, rowCh, errCh)

	require.Len(t, rows, 1)
	assert.Equal(t, "2", rows[0].Get("b"))
}

func TestStreamCSVEmptyInput(t *testing.T) {
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(""), CSVOptions{})
	rows := collectRows(t, rowCh, errCh)
	assert.Empty(t, rows)
}

func TestStreamCSVCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := "a\n1\n2\n"
	rowCh, errCh := StreamCSV(ctx, strings.NewReader(input), CSVOptions{})

	for range rowCh {
	}
	assert.Error(t, <-errCh)
}
