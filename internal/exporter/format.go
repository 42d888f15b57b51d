package exporter

import (
	"strconv"
)

// formatFloat formats a float64 with the fewest digits that parse back to
// the same value
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// formatNullable formats a nullable float, empty for nil
func formatNullable(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

// formatInt formats an int value
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// cellValue converts a nullable float for the workbook writer. Nil leaves
// the cell empty.
func cellValue(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
