package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// F returns a pointer to v for nullable fields in test tables.
func F(v float64) *float64 {
	return &v
}

// WideHeader returns the header of a wide sheet with numeric week columns
// 1..weeks, as written by spreadsheet tools.
func WideHeader(weeks int) []interface{} {
	header := []interface{}{"Cohort", "Channel", "Values", "TimePeriod"}
	for w := 1; w <= weeks; w++ {
		header = append(header, w)
	}
	return header
}

// WideRow builds a wide row whose week values come from value(week).
// A nil return leaves the cell empty.
func WideRow(cohort, channel, values, period string, weeks int, value func(week int) interface{}) []interface{} {
	row := []interface{}{cohort, channel, values, period}
	for w := 1; w <= weeks; w++ {
		row = append(row, value(w))
	}
	return row
}

// WriteWideWorkbook writes header and rows to the first sheet of a new
// workbook in a temp dir and returns its path.
func WriteWideWorkbook(t *testing.T, header []interface{}, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "driver_tree.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

// WriteCSV writes records to a CSV file in a temp dir and returns its path.
func WriteCSV(t *testing.T, records [][]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "driver_tree.csv")
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	w := csv.NewWriter(file)
	require.NoError(t, w.WriteAll(records))
	return path
}

// WideCSVHeader is WideHeader as strings.
func WideCSVHeader(weeks int) []string {
	header := []string{"Cohort", "Channel", "Values", "TimePeriod"}
	for w := 1; w <= weeks; w++ {
		header = append(header, strconv.Itoa(w))
	}
	return header
}
