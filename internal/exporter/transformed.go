package exporter

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"drivertree/pkg/contracts/domain"
)

// ErrUnsupportedFormat is returned for output files that are neither .xlsx
// nor .csv.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// WriteTransformed writes records with the domain.TransformedColumns header.
// The format is chosen by the extension of filePath.
func WriteTransformed(filePath string, records []domain.YoYRecord) error {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".xlsx":
		rows := make([][]interface{}, len(records))
		for i, rec := range records {
			rows[i] = transformedCells(rec)
		}
		return NewXLSXWriter().WriteXLSX(filePath, domain.TransformedColumns, rows)
	case ".csv":
		rows := make([][]string, len(records))
		for i, rec := range records {
			rows[i] = transformedStrings(rec)
		}
		return NewCSVWriter().WriteSimpleCSV(filePath, domain.TransformedColumns, rows)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filePath))
	}
}

func transformedCells(rec domain.YoYRecord) []interface{} {
	return []interface{}{
		rec.Cohort,
		rec.Channel,
		rec.Values,
		rec.TimePeriod,
		rec.FiscalWeek,
		cellValue(rec.Value),
		cellValue(rec.Runrate),
		cellValue(rec.YearOnYearGrowth),
		cellValue(rec.YearOnYearRunrateGrowth),
	}
}

func transformedStrings(rec domain.YoYRecord) []string {
	return []string{
		rec.Cohort,
		rec.Channel,
		rec.Values,
		rec.TimePeriod,
		formatInt(rec.FiscalWeek),
		formatNullable(rec.Value),
		formatNullable(rec.Runrate),
		formatNullable(rec.YearOnYearGrowth),
		formatNullable(rec.YearOnYearRunrateGrowth),
	}
}
