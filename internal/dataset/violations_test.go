package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkscout-nyc/parkscout/internal/store"
)

func TestParseViolation(t *testing.T) {
	valid := violationRow{
		SummonsNumber: "8001234567",
		Code:          "21",
		Description:   "NO PARKING-STREET CLEANING",
		FineAmount:    "$65",
		IssueDate:     "2026-03-14T00:00:00.000",
		Street:        "W  45th St",
		Latitude:      "40.7580",
		Longitude:     "-73.9855",
	}

	t.Run("valid row", func(t *testing.T) {
		v, ok := parseViolation(valid)
		require.True(t, ok)
		assert.Equal(t, "8001234567", v.ID)
		assert.Equal(t, 65.0, v.FineAmount)
		assert.Equal(t, "W 45TH ST", v.Street)
		assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), v.IssuedAt)
	})

	t.Run("fine without dollar sign", func(t *testing.T) {
		row := valid
		row.FineAmount = "115.00"
		v, ok := parseViolation(row)
		require.True(t, ok)
		assert.Equal(t, 115.0, v.FineAmount)
	})

	t.Run("unparseable fine kept as zero", func(t *testing.T) {
		row := valid
		row.FineAmount = "waived"
		v, ok := parseViolation(row)
		require.True(t, ok)
		assert.Zero(t, v.FineAmount)
	})

	t.Run("missing summons number", func(t *testing.T) {
		row := valid
		row.SummonsNumber = ""
		_, ok := parseViolation(row)
		assert.False(t, ok)
	})

	t.Run("bad issue date", func(t *testing.T) {
		row := valid
		row.IssueDate = "yesterday"
		_, ok := parseViolation(row)
		assert.False(t, ok)
	})

	t.Run("missing coordinate", func(t *testing.T) {
		row := valid
		row.Latitude = "0"
		row.Longitude = "0"
		_, ok := parseViolation(row)
		assert.False(t, ok)
	})
}

func TestParseIssueDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		ok       bool
	}{
		{
			name:     "floating timestamp",
			input:    "2026-03-14T12:30:00.000",
			expected: time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "date only",
			input:    "2026-03-14",
			expected: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "csv export format",
			input:    "03/14/2026",
			expected: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
			ok:       true,
		},
		{name: "empty", input: "", ok: false},
		{name: "garbage", input: "not a date", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseIssueDate(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

const violationsCSV = `summons_number,violation_code,violation_description,fine_amount,issue_date,street_name,latitude,longitude
8001,21,NO PARKING-STREET CLEANING,$65,2026-01-05,Broadway,40.7580,-73.9855
8002,38,FAILURE TO DISPLAY METER RECEIPT,$35,2026-02-10,Flatbush Ave,40.6782,-73.9442
8003,21,NO PARKING-STREET CLEANING,$65,bad-date,Main St,40.7282,-73.7949
`

func TestViolationsSyncFromCSV(t *testing.T) {
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "violations.csv")
	require.NoError(t, os.WriteFile(path, []byte(violationsCSV), 0o644))

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "parkscout.db"))
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.Migrate(ctx))

	d, err := testRegistry().Get("violations")
	require.NoError(t, err)

	res, err := d.Sync(ctx, Source{FilePath: path}, st)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Fetched)
	assert.Equal(t, 2, res.Loaded)
	assert.Equal(t, 1, res.Rejected)
}
