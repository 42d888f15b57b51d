package dataprocessing

import (
	"fmt"
	"slices"
	"strconv"

	"drivertree/pkg/contracts/domain"
)

// How fiscal week columns were matched in a header.
const (
	WeekMatchNumeric = "numeric"
	WeekMatchText    = "text"
)

// WeekColumns maps fiscal weeks to column positions of a wide sheet.
type WeekColumns struct {
	Index map[int]int
	// Weeks lists the resolved weeks in ascending order.
	Weeks []int
	// Missing lists weeks in the requested range with no column.
	Missing []int
	// Match is WeekMatchNumeric or WeekMatchText.
	Match string
}

// ResolveWeekColumns finds the columns for weeks first..last. Headers stored
// as numbers are tried first; only when none match are text headers such as
// "1" or "52" used. The first column for a week wins.
func ResolveWeekColumns(header []HeaderCell, first, last int) (WeekColumns, error) {
	cols := resolveWeeks(header, first, last, true)
	if len(cols.Index) == 0 {
		cols = resolveWeeks(header, first, last, false)
	}
	if len(cols.Index) == 0 {
		return cols, fmt.Errorf("%w: expected columns %d..%d", ErrNoWeekColumns, first, last)
	}
	return cols, nil
}

func resolveWeeks(header []HeaderCell, first, last int, numeric bool) WeekColumns {
	cols := WeekColumns{Index: make(map[int]int), Match: WeekMatchText}
	if numeric {
		cols.Match = WeekMatchNumeric
	}

	for j, h := range header {
		if numeric != h.Numeric {
			continue
		}
		week, ok := weekNumber(h.Text, numeric)
		if !ok || week < first || week > last {
			continue
		}
		if _, seen := cols.Index[week]; !seen {
			cols.Index[week] = j
		}
	}

	for week := first; week <= last; week++ {
		if _, ok := cols.Index[week]; ok {
			cols.Weeks = append(cols.Weeks, week)
		} else {
			cols.Missing = append(cols.Missing, week)
		}
	}
	return cols
}

// weekNumber parses a header as a week. Numeric headers may carry a decimal
// form like "3.0"; text headers must be the plain integer.
func weekNumber(text string, numeric bool) (int, bool) {
	if !numeric {
		week, err := strconv.Atoi(text)
		return week, err == nil && strconv.Itoa(week) == text
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// ParseReport counts rows and cells ParseWide had to discard or coerce.
type ParseReport struct {
	BlankRows       int
	NonNumericCells int
}

// ParseWide converts the rows of a wide sheet to records. The identity
// columns must be present. Week cells that are empty or not numeric become
// nil values. Entirely blank rows are skipped.
func ParseWide(sheet *Sheet, weeks WeekColumns) ([]domain.WideRecord, ParseReport, error) {
	var report ParseReport

	columns, err := sheet.RequireColumns(domain.IdentityColumns...)
	if err != nil {
		return nil, report, err
	}

	records := make([]domain.WideRecord, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if blankRow(row) {
			report.BlankRows++
			continue
		}

		rec := domain.WideRecord{
			SeriesKey: domain.SeriesKey{
				Cohort:  cell(row, columns[domain.ColumnCohort]),
				Channel: cell(row, columns[domain.ColumnChannel]),
				Values:  cell(row, columns[domain.ColumnValues]),
			},
			TimePeriod: cell(row, columns[domain.ColumnTimePeriod]),
			Weeks:      make(map[int]*float64, len(weeks.Weeks)),
		}

		for _, week := range weeks.Weeks {
			raw := cell(row, weeks.Index[week])
			v, ok := parseNumber(raw)
			if !ok {
				if raw != "" {
					report.NonNumericCells++
				}
				rec.Weeks[week] = nil
				continue
			}
			rec.Weeks[week] = domain.Float(v)
		}

		records = append(records, rec)
	}

	return records, report, nil
}

// Unpivot emits one long record per wide record and week, in the order of
// the input rows and then ascending weeks.
func Unpivot(records []domain.WideRecord, weeks []int) []domain.LongRecord {
	weeks = slices.Sorted(slices.Values(weeks))

	out := make([]domain.LongRecord, 0, len(records)*len(weeks))
	for _, rec := range records {
		for _, week := range weeks {
			out = append(out, domain.LongRecord{
				SeriesKey:  rec.SeriesKey,
				TimePeriod: rec.TimePeriod,
				FiscalWeek: week,
				Value:      rec.Weeks[week],
			})
		}
	}
	return out
}
