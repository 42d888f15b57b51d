package dataprocessing

import (
	"cmp"
	"slices"

	"drivertree/pkg/contracts/domain"
)

// RunrateOptions configures the trailing mean.
type RunrateOptions struct {
	// YearOffsets maps a TimePeriod label to its year index. The global week
	// of a record is offset*WeeksInYear + FiscalWeek.
	YearOffsets map[string]int
	WeeksInYear int
	// Window is the number of observations in the trailing window.
	Window int
	// MinPeriods is the number of non-null values needed for a mean.
	MinPeriods int
}

// RunrateReport lists the periods that had no year offset.
type RunrateReport struct {
	UnmappedPeriods []string
}

// RunrateCalculator computes a rolling mean of Value per series, continuing
// across fiscal year boundaries.
type RunrateCalculator struct {
	opts RunrateOptions
}

// NewRunrateCalculator creates a new run-rate calculator
func NewRunrateCalculator(opts RunrateOptions) *RunrateCalculator {
	if opts.Window < 1 {
		opts.Window = 1
	}
	if opts.MinPeriods < 1 {
		opts.MinPeriods = 1
	}
	if opts.MinPeriods > opts.Window {
		opts.MinPeriods = opts.Window
	}
	return &RunrateCalculator{opts: opts}
}

type globalRow struct {
	rec        domain.LongRecord
	mapped     bool
	globalWeek int
}

// Calculate returns the records ordered by series and global week, each with
// the mean of the last Window observations of its series ending at the
// record. Windows never cross into another series. Records whose period has
// no year offset are placed at the end of their series with a nil run-rate
// and are not part of any window.
func (c *RunrateCalculator) Calculate(records []domain.LongRecord) ([]domain.RunrateRecord, RunrateReport) {
	var report RunrateReport
	unmapped := make(map[string]struct{})

	rows := make([]globalRow, len(records))
	for i, rec := range records {
		offset, ok := c.opts.YearOffsets[rec.TimePeriod]
		if !ok {
			unmapped[rec.TimePeriod] = struct{}{}
		}
		rows[i] = globalRow{
			rec:        rec,
			mapped:     ok,
			globalWeek: offset*c.opts.WeeksInYear + rec.FiscalWeek,
		}
	}

	slices.SortStableFunc(rows, func(a, b globalRow) int {
		if k := a.rec.SeriesKey.Compare(b.rec.SeriesKey); k != 0 {
			return k
		}
		if a.mapped != b.mapped {
			if a.mapped {
				return -1
			}
			return 1
		}
		if !a.mapped {
			return 0
		}
		return cmp.Compare(a.globalWeek, b.globalWeek)
	})

	out := make([]domain.RunrateRecord, len(rows))
	start := 0
	for i, row := range rows {
		out[i] = domain.RunrateRecord{LongRecord: row.rec}
		if i > 0 && rows[i-1].rec.SeriesKey != row.rec.SeriesKey {
			start = i
		}
		if !row.mapped {
			continue
		}
		out[i].Runrate = c.windowMean(rows, max(start, i-c.opts.Window+1), i)
	}

	for period := range unmapped {
		report.UnmappedPeriods = append(report.UnmappedPeriods, period)
	}
	slices.Sort(report.UnmappedPeriods)

	return out, report
}

// windowMean averages the non-null values of rows[from..to].
func (c *RunrateCalculator) windowMean(rows []globalRow, from, to int) *float64 {
	var sum float64
	var n int
	for _, row := range rows[from : to+1] {
		if row.rec.Value == nil {
			continue
		}
		sum += *row.rec.Value
		n++
	}
	if n < c.opts.MinPeriods {
		return nil
	}
	return domain.Float(sum / float64(n))
}
