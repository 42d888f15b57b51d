package analysis

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"drivertree/pkg/contracts/domain"
)

// RenderMarkdown renders rows as a markdown table with the
// domain.AnalysisColumns header. Values and run-rates have two decimals,
// growth is shown in percent. Missing numbers are left blank.
func RenderMarkdown(rows []domain.YoYRecord) string {
	w := table.NewWriter()

	header := make(table.Row, len(domain.AnalysisColumns))
	for i, c := range domain.AnalysisColumns {
		header[i] = c
	}
	w.AppendHeader(header)

	for _, rec := range rows {
		w.AppendRow(table.Row{
			rec.Cohort,
			rec.Channel,
			rec.Values,
			strconv.Itoa(rec.FiscalWeek),
			formatNumber(rec.Value),
			formatNumber(rec.Runrate),
			formatPercent(rec.YearOnYearGrowth),
			formatPercent(rec.YearOnYearRunrateGrowth),
		})
	}

	return w.RenderMarkdown()
}

func formatNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func formatPercent(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v*100, 'f', 1, 64) + "%"
}
