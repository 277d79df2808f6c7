package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkscout-nyc/parkscout/internal/store"
)

func TestParseMeter(t *testing.T) {
	valid := meterRow{
		MeterNumber: "M-4478",
		Borough:     "Queens",
		OnStreet:    "Steinway  St",
		Status:      "Active",
		Rate:        "$4.50 per hour",
		HoursActive: "Mon-Sat 8am-7pm",
		Latitude:    "40.7614",
		Longitude:   "-73.9200",
	}

	t.Run("valid row", func(t *testing.T) {
		m, ok := parseMeter(valid)
		require.True(t, ok)
		assert.Equal(t, "M-4478", m.ID)
		assert.Equal(t, "QUEENS", m.Borough)
		assert.Equal(t, "STEINWAY ST", m.Street)
		assert.Equal(t, "$4.50 per hour", m.Rate)
	})

	t.Run("missing meter number", func(t *testing.T) {
		row := valid
		row.MeterNumber = ""
		_, ok := parseMeter(row)
		assert.False(t, ok)
	})

	t.Run("missing coordinate", func(t *testing.T) {
		row := valid
		row.Longitude = "n/a"
		_, ok := parseMeter(row)
		assert.False(t, ok)
	})
}

const metersCSV = `meter_number,borough,on_street,status,meter_hours,hours_in_effect,latitude,longitude
M-100,Manhattan,Broadway,Active,$4.50 per hour,Mon-Sat 8am-7pm,40.7580,-73.9855
M-200,Brooklyn,Flatbush Ave,Inactive,$1.50 per hour,Mon-Fri 9am-6pm,40.6782,-73.9442
,Queens,Main St,Active,$1.00 per hour,Mon-Sat,40.7282,-73.7949
`

func TestMetersSyncFromCSV(t *testing.T) {
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "meters.csv")
	require.NoError(t, os.WriteFile(path, []byte(metersCSV), 0o644))

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "parkscout.db"))
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.Migrate(ctx))

	d, err := testRegistry().Get("meters")
	require.NoError(t, err)

	res, err := d.Sync(ctx, Source{FilePath: path}, st)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Fetched)
	assert.Equal(t, 2, res.Loaded)
	assert.Equal(t, 1, res.Rejected)

	meters, err := st.Meters(ctx)
	require.NoError(t, err)
	assert.Len(t, meters, 2)
}
