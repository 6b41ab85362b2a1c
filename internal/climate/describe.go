package climate

import "fmt"

// DescribeRecord renders the fixed-template sentence embedded for a record.
// The template is part of the search contract: changing it invalidates every
// stored document embedding.
func DescribeRecord(r Record) string {
	return fmt.Sprintf(
		"On %s the average temperature was %s, precipitation totaled %s, relative humidity was %s, and solar irradiance was %s.",
		r.Date.Format("January 2, 2006"),
		measurement(r.Temperature, "degrees Celsius"),
		measurement(r.Precipitation, "millimeters"),
		measurement(r.Humidity, "percent"),
		measurement(r.Solar, "kilowatt-hours per square meter"),
	)
}

func measurement(v *float64, unit string) string {
	if v == nil {
		return "unavailable"
	}
	return fmt.Sprintf("%.2f %s", *v, unit)
}
