package climate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d0ren/climatesearch/internal/climate"
)

func TestParseDateKey(t *testing.T) {
	date, err := climate.ParseDateKey("20230115")
	require.NoError(t, err)
	assert.Equal(t, 2023, date.Year())
	assert.Equal(t, time.January, date.Month())
	assert.Equal(t, 15, date.Day())
	assert.Equal(t, time.UTC, date.Location())
	assert.True(t, date.Equal(time.Date(2023, time.January, 15, 0, 0, 0, 0, time.UTC)))
}

func TestParseDateKeyRejectsMalformedKeys(t *testing.T) {
	cases := []struct {
		name string
		key  string
	}{
		{"too short", "2023011"},
		{"too long", "202301155"},
		{"non numeric", "2023ab15"},
		{"month out of range", "20231315"},
		{"day out of range", "20230132"},
		{"empty", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := climate.ParseDateKey(tc.key)
			assert.Error(t, err)
		})
	}
}

func TestReshapeCompleteSeries(t *testing.T) {
	series := climate.DailySeries{
		climate.VarTemperature: {
			"20230101": 4.2,
			"20230102": 5.1,
			"20230103": 3.8,
		},
		climate.VarPrecipitation: {
			"20230101": 0.0,
			"20230102": 2.4,
			"20230103": 0.7,
		},
	}
	location := climate.NewPoint(-95.7129, 37.0902)

	records, err := climate.Reshape(series, location)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Ordered by date ascending.
	assert.True(t, records[0].Date.Before(records[1].Date))
	assert.True(t, records[1].Date.Before(records[2].Date))

	for _, rec := range records {
		require.NotNil(t, rec.Temperature)
		require.NotNil(t, rec.Precipitation)
		assert.Nil(t, rec.Humidity)
		assert.Nil(t, rec.Solar)
	}

	assert.Equal(t, 4.2, *records[0].Temperature)
	assert.Equal(t, 2.4, *records[1].Precipitation)
}

func TestReshapeCoordinatesAreLonLat(t *testing.T) {
	series := climate.DailySeries{
		climate.VarTemperature: {"20230101": 1.0},
	}
	lon, lat := -95.7129, 37.0902

	records, err := climate.Reshape(series, climate.NewPoint(lon, lat))
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "Point", records[0].Location.Type)
	require.Len(t, records[0].Location.Coordinates, 2)
	assert.Equal(t, lon, records[0].Location.Coordinates[0])
	assert.Equal(t, lat, records[0].Location.Coordinates[1])
}

func TestReshapeReconcilesMismatchedCoverage(t *testing.T) {
	// Variables disagree on date coverage: the union of keys wins, and a
	// variable missing a day yields a nil field for that day.
	series := climate.DailySeries{
		climate.VarTemperature: {
			"20230101": 4.2,
			"20230102": 5.1,
		},
		climate.VarHumidity: {
			"20230102": 71.0,
			"20230103": 68.5,
		},
	}

	records, err := climate.Reshape(series, climate.NewPoint(0, 0))
	require.NoError(t, err)
	require.Len(t, records, 3)

	// 2023-01-01: temperature only.
	require.NotNil(t, records[0].Temperature)
	assert.Nil(t, records[0].Humidity)

	// 2023-01-02: both.
	require.NotNil(t, records[1].Temperature)
	require.NotNil(t, records[1].Humidity)

	// 2023-01-03: humidity only.
	assert.Nil(t, records[2].Temperature)
	require.NotNil(t, records[2].Humidity)
	assert.Equal(t, 68.5, *records[2].Humidity)
}

func TestReshapeRejectsBadDateKey(t *testing.T) {
	series := climate.DailySeries{
		climate.VarTemperature: {"not-a-date": 4.2},
	}

	_, err := climate.Reshape(series, climate.NewPoint(0, 0))
	assert.Error(t, err)
}

func TestReshapeEmptySeries(t *testing.T) {
	records, err := climate.Reshape(climate.DailySeries{}, climate.NewPoint(0, 0))
	require.NoError(t, err)
	assert.Empty(t, records)
}
