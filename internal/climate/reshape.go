package climate

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Provider variable codes for the daily series we ingest.
const (
	VarTemperature   = "T2M"
	VarPrecipitation = "PRECTOTCORR"
	VarHumidity      = "RH2M"
	VarSolar         = "ALLSKY_SFC_SW_DWN"
)

// DefaultVariables is the standard variable set requested from the provider,
// in the order they map onto Record fields.
var DefaultVariables = []string{VarTemperature, VarPrecipitation, VarHumidity, VarSolar}

// ParseDateKey parses an 8-digit YYYYMMDD key into a midnight-UTC calendar
// date. Parsing is a plain digit split, independent of locale.
func ParseDateKey(key string) (time.Time, error) {
	if len(key) != 8 {
		return time.Time{}, fmt.Errorf("date key %q: want 8 digits (YYYYMMDD)", key)
	}
	year, err := strconv.Atoi(key[:4])
	if err != nil {
		return time.Time{}, fmt.Errorf("date key %q: bad year: %w", key, err)
	}
	month, err := strconv.Atoi(key[4:6])
	if err != nil {
		return time.Time{}, fmt.Errorf("date key %q: bad month: %w", key, err)
	}
	day, err := strconv.Atoi(key[6:8])
	if err != nil {
		return time.Time{}, fmt.Errorf("date key %q: bad day: %w", key, err)
	}
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("date key %q: month out of range", key)
	}
	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("date key %q: day out of range", key)
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// Reshape turns a per-variable daily series into one Record per calendar day
// at the given location, ordered by date ascending.
//
// Date coverage is reconciled across all variables by union: a day present
// for any variable produces a record, and variables missing that day stay
// nil. Provider fill values (e.g. -999) are passed through unvalidated.
func Reshape(series DailySeries, location GeoPoint) ([]Record, error) {
	keySet := make(map[string]struct{})
	for _, values := range series {
		for key := range values {
			keySet[key] = struct{}{}
		}
	}

	keys := make([]string, 0, len(keySet))
	for key := range keySet {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	records := make([]Record, 0, len(keys))
	for _, key := range keys {
		date, err := ParseDateKey(key)
		if err != nil {
			return nil, err
		}
		records = append(records, Record{
			Date:          date,
			Temperature:   lookup(series, VarTemperature, key),
			Precipitation: lookup(series, VarPrecipitation, key),
			Humidity:      lookup(series, VarHumidity, key),
			Solar:         lookup(series, VarSolar, key),
			Location:      location,
		})
	}
	return records, nil
}

func lookup(series DailySeries, variable, key string) *float64 {
	values, ok := series[variable]
	if !ok {
		return nil
	}
	v, ok := values[key]
	if !ok {
		return nil
	}
	return &v
}
