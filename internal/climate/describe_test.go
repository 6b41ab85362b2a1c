package climate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/d0ren/climatesearch/internal/climate"
)

func TestDescribeRecord(t *testing.T) {
	temp, precip := 4.25, 0.0
	rec := climate.Record{
		Date:          time.Date(2023, time.January, 15, 0, 0, 0, 0, time.UTC),
		Temperature:   &temp,
		Precipitation: &precip,
	}

	sentence := climate.DescribeRecord(rec)

	assert.Contains(t, sentence, "January 15, 2023")
	assert.Contains(t, sentence, "4.25 degrees Celsius")
	assert.Contains(t, sentence, "0.00 millimeters")
	// Humidity and solar were never measured that day.
	assert.Contains(t, sentence, "unavailable")
}
