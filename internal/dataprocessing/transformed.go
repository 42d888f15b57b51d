package dataprocessing

import (
	"fmt"
	"log/slog"

	"drivertree/pkg/contracts/domain"
)

// ReadTransformed loads a sheet written by the transform command. The
// identity, FiscalWeek and Value columns are required; the run-rate and
// growth columns are read when present. Rows without a fiscal week are
// skipped.
func ReadTransformed(path string) ([]domain.YoYRecord, error) {
	sheet, err := LoadSheet(path)
	if err != nil {
		return nil, err
	}

	required := append(append([]string{}, domain.IdentityColumns...), domain.ColumnFiscalWeek, domain.ColumnValue)
	columns, err := sheet.RequireColumns(required...)
	if err != nil {
		return nil, err
	}

	optional := func(name string) int {
		j, ok := sheet.ColumnIndex(name)
		if !ok {
			return -1
		}
		return j
	}
	runrateCol := optional(domain.ColumnRunrate)
	growthCol := optional(domain.ColumnYearOnYearGrowth)
	runrateGrowthCol := optional(domain.ColumnYearOnYearRunrateGrowth)

	records := make([]domain.YoYRecord, 0, len(sheet.Rows))
	var skipped int
	for i, row := range sheet.Rows {
		if blankRow(row) {
			continue
		}

		week, ok := parseNumber(cell(row, columns[domain.ColumnFiscalWeek]))
		if !ok || week != float64(int(week)) {
			skipped++
			slog.Debug("Skipping row without fiscal week",
				slog.String("file", path),
				slog.Int("row", i+2))
			continue
		}

		records = append(records, domain.YoYRecord{
			RunrateRecord: domain.RunrateRecord{
				LongRecord: domain.LongRecord{
					SeriesKey: domain.SeriesKey{
						Cohort:  cell(row, columns[domain.ColumnCohort]),
						Channel: cell(row, columns[domain.ColumnChannel]),
						Values:  cell(row, columns[domain.ColumnValues]),
					},
					TimePeriod: cell(row, columns[domain.ColumnTimePeriod]),
					FiscalWeek: int(week),
					Value:      nullableNumber(row, columns[domain.ColumnValue]),
				},
				Runrate: nullableNumber(row, runrateCol),
			},
			YearOnYearGrowth:        nullableNumber(row, growthCol),
			YearOnYearRunrateGrowth: nullableNumber(row, runrateGrowthCol),
		})
	}

	if skipped > 0 {
		slog.Warn("Rows without fiscal week skipped",
			slog.String("file", path),
			slog.Int("count", skipped))
	}
	if len(records) == 0 && len(sheet.Rows) > 0 {
		return records, fmt.Errorf("no readable rows in %s", path)
	}

	return records, nil
}

func nullableNumber(row []string, j int) *float64 {
	v, ok := parseNumber(cell(row, j))
	if !ok {
		return nil
	}
	return domain.Float(v)
}
