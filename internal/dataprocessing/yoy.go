package dataprocessing

import (
	"fmt"

	"drivertree/pkg/contracts/domain"
)

// YoYReport describes how the year-on-year join went.
type YoYReport struct {
	// Skipped is set when either period had no rows. The records are then
	// passed through unfiltered with nil growth.
	Skipped bool
	Reason  string
	// Matched counts output rows, Unmatched current rows with no prior row.
	Matched   int
	Unmatched int
}

type joinKey struct {
	domain.SeriesKey
	week int
}

// YoYJoiner pairs current-period records with the prior-period records of
// the same series and week.
type YoYJoiner struct {
	Current  string
	Previous string
}

// NewYoYJoiner creates a new year-on-year joiner
func NewYoYJoiner(current, previous string) *YoYJoiner {
	return &YoYJoiner{Current: current, Previous: previous}
}

// Join keeps only current-period records that have a prior-period match
// and computes growth against it. Input order is kept. A current record
// with several prior matches yields one output row per match.
func (j *YoYJoiner) Join(records []domain.RunrateRecord) ([]domain.YoYRecord, YoYReport) {
	var report YoYReport

	prior := make(map[joinKey][]domain.RunrateRecord)
	var currentRows int
	for _, rec := range records {
		switch rec.TimePeriod {
		case j.Previous:
			k := joinKey{rec.SeriesKey, rec.FiscalWeek}
			prior[k] = append(prior[k], rec)
		case j.Current:
			currentRows++
		}
	}

	if currentRows == 0 || len(prior) == 0 {
		missing := j.Current
		if currentRows > 0 {
			missing = j.Previous
		}
		report.Skipped = true
		report.Reason = fmt.Sprintf("no rows for period %s", missing)
		return passThrough(records), report
	}

	out := make([]domain.YoYRecord, 0, currentRows)
	for _, rec := range records {
		if rec.TimePeriod != j.Current {
			continue
		}
		matches := prior[joinKey{rec.SeriesKey, rec.FiscalWeek}]
		if len(matches) == 0 {
			report.Unmatched++
			continue
		}
		for _, prev := range matches {
			out = append(out, domain.YoYRecord{
				RunrateRecord:           rec,
				YearOnYearGrowth:        growth(rec.Value, prev.Value),
				YearOnYearRunrateGrowth: growth(rec.Runrate, prev.Runrate),
			})
		}
	}
	report.Matched = len(out)

	return out, report
}

// growth returns current/prior - 1, or nil when either side is missing or
// the prior is zero.
func growth(current, prior *float64) *float64 {
	if current == nil || prior == nil || *prior == 0 {
		return nil
	}
	return domain.Float(*current / *prior - 1)
}

func passThrough(records []domain.RunrateRecord) []domain.YoYRecord {
	out := make([]domain.YoYRecord, len(records))
	for i, rec := range records {
		out[i] = domain.YoYRecord{RunrateRecord: rec}
	}
	return out
}
