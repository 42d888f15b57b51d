package domain

import (
	"cmp"
	"math"
)

// Column headers shared by the wide input sheet, the transformed output sheet
// and the presentation layer. The transformed sheet uses exactly these names
// so it can be read back by the web command.
const (
	ColumnCohort                  = "Cohort"
	ColumnChannel                 = "Channel"
	ColumnValues                  = "Values"
	ColumnTimePeriod              = "TimePeriod"
	ColumnFiscalWeek              = "FiscalWeek"
	ColumnValue                   = "Value"
	ColumnRunrate                 = "Runrate"
	ColumnYearOnYearGrowth        = "YearOnYearGrowth"
	ColumnYearOnYearRunrateGrowth = "YearOnYearRunrateGrowth"
)

// IdentityColumns are the columns every wide input sheet must carry besides
// the fiscal week columns.
var IdentityColumns = []string{ColumnCohort, ColumnChannel, ColumnValues, ColumnTimePeriod}

// TransformedColumns is the column order of the transformed output sheet.
var TransformedColumns = []string{
	ColumnCohort,
	ColumnChannel,
	ColumnValues,
	ColumnTimePeriod,
	ColumnFiscalWeek,
	ColumnValue,
	ColumnRunrate,
	ColumnYearOnYearGrowth,
	ColumnYearOnYearRunrateGrowth,
}

// AnalysisColumns is the column order of the markdown table handed to the
// hosted model. TimePeriod is omitted because the table only ever holds the
// current period.
var AnalysisColumns = []string{
	ColumnCohort,
	ColumnChannel,
	ColumnValues,
	ColumnFiscalWeek,
	ColumnValue,
	ColumnRunrate,
	ColumnYearOnYearGrowth,
	ColumnYearOnYearRunrateGrowth,
}

// SeriesKey identifies one measured series in the driver tree.
//
// Cohort is a customer segment (e.g. "New", "Lapsed"), Channel a sales
// channel (e.g. "Online", "Store") and Values the measure name
// (e.g. "SUM of SALES", "Customers"). Run-rates are computed per SeriesKey and
// the year-on-year join matches on SeriesKey plus FiscalWeek.
type SeriesKey struct {
	Cohort  string `json:"cohort" csv:"Cohort"`
	Channel string `json:"channel" csv:"Channel"`
	Values  string `json:"values" csv:"Values"`
}

// Compare orders keys by Cohort, then Channel, then Values.
func (k SeriesKey) Compare(other SeriesKey) int {
	if c := cmp.Compare(k.Cohort, other.Cohort); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Channel, other.Channel); c != 0 {
		return c
	}
	return cmp.Compare(k.Values, other.Values)
}

// WideRecord is one row of the wide input sheet: a series for one fiscal year
// with one column per fiscal week.
//
// Weeks only holds the week columns that were resolved in the sheet header.
// A nil value means the cell was empty or not numeric.
type WideRecord struct {
	SeriesKey
	TimePeriod string           `json:"time_period" csv:"TimePeriod"`
	Weeks      map[int]*float64 `json:"weeks"`
}

// LongRecord is one (series, period, week) observation after unpivoting.
//
// Exactly one LongRecord exists for each WideRecord and resolved week column.
// FiscalWeek is 1-based and never larger than the configured weeks per year.
type LongRecord struct {
	SeriesKey
	TimePeriod string   `json:"time_period" csv:"TimePeriod"`
	FiscalWeek int      `json:"fiscal_week" csv:"FiscalWeek"`
	Value      *float64 `json:"value" csv:"Value"`
}

// RunrateRecord is a LongRecord enriched with the trailing mean of Value.
//
// Runrate is nil when fewer than the required number of observations are in
// the window, or when the record's TimePeriod has no year offset.
type RunrateRecord struct {
	LongRecord
	Runrate *float64 `json:"runrate" csv:"Runrate"`
}

// YoYRecord is a current-period RunrateRecord with fractional growth against
// the same series and week one year earlier.
//
// Growth is current/prior - 1, so 0.10 means ten percent up. Either growth is
// nil when an operand is missing or the prior value is zero.
type YoYRecord struct {
	RunrateRecord
	YearOnYearGrowth        *float64 `json:"year_on_year_growth" csv:"YearOnYearGrowth"`
	YearOnYearRunrateGrowth *float64 `json:"year_on_year_runrate_growth" csv:"YearOnYearRunrateGrowth"`
}

// Float returns a pointer to v, or nil when v is NaN or infinite.
func Float(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Positive reports whether v holds a value greater than zero.
func Positive(v *float64) bool {
	return v != nil && *v > 0
}
