package dataprocessing

import (
	"slices"

	"drivertree/pkg/contracts/domain"
)

// FilterRecentWeeks keeps the records of the n most recent fiscal weeks that
// have at least one positive Value. All records of a selected week are kept,
// including zero and null values. The selected weeks are returned newest
// first.
func FilterRecentWeeks(records []domain.YoYRecord, n int) ([]domain.YoYRecord, []int) {
	seen := make(map[int]struct{})
	for _, rec := range records {
		if domain.Positive(rec.Value) {
			seen[rec.FiscalWeek] = struct{}{}
		}
	}

	weeks := make([]int, 0, len(seen))
	for week := range seen {
		weeks = append(weeks, week)
	}
	slices.Sort(weeks)
	slices.Reverse(weeks)
	if n >= 0 && len(weeks) > n {
		weeks = weeks[:n]
	}

	keep := make(map[int]struct{}, len(weeks))
	for _, week := range weeks {
		keep[week] = struct{}{}
	}

	out := make([]domain.YoYRecord, 0, len(records))
	for _, rec := range records {
		if _, ok := keep[rec.FiscalWeek]; ok {
			out = append(out, rec)
		}
	}
	return out, weeks
}
