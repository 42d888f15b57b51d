package dataprocessing

import (
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivertree/internal/shared/testutil"
)

func TestLoadSheet_Workbook(t *testing.T) {
	header := testutil.WideHeader(3)
	header = append(header, "53 wk")
	rows := [][]interface{}{
		testutil.WideRow("New", "Online", "SUM of SALES", "FY2025", 3, func(w int) interface{} {
			if w == 2 {
				return nil
			}
			return float64(w * 10)
		}),
	}
	path := testutil.WriteWideWorkbook(t, header, rows)

	sheet, err := LoadSheet(path)
	require.NoError(t, err)

	require.Len(t, sheet.Header, 8)
	assert.Equal(t, HeaderCell{Text: "Cohort"}, sheet.Header[0])
	assert.Equal(t, HeaderCell{Text: "1", Numeric: true}, sheet.Header[4])
	assert.Equal(t, HeaderCell{Text: "3", Numeric: true}, sheet.Header[6])
	assert.Equal(t, HeaderCell{Text: "53 wk"}, sheet.Header[7])

	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, "New", sheet.Rows[0][0])
	assert.Equal(t, "10", sheet.Rows[0][4])
	assert.Equal(t, "", cell(sheet.Rows[0], 5))
	assert.Equal(t, "30", sheet.Rows[0][6])
}

func TestLoadSheet_WorkbookTextWeekHeaders(t *testing.T) {
	header := []interface{}{"Cohort", "Channel", "Values", "TimePeriod", "1", "2"}
	path := testutil.WriteWideWorkbook(t, header, nil)

	sheet, err := LoadSheet(path)
	require.NoError(t, err)

	for _, h := range sheet.Header {
		assert.False(t, h.Numeric, "header %q", h.Text)
	}
}

func TestLoadSheet_CSV(t *testing.T) {
	header := testutil.WideCSVHeader(2)
	header[0] = "\ufeff" + header[0]
	path := testutil.WriteCSV(t, [][]string{
		header,
		{"New", "Online", "SUM of SALES", "FY2025", "1,200", ""},
	})

	sheet, err := LoadSheet(path)
	require.NoError(t, err)

	assert.Equal(t, "driver_tree", sheet.Name)
	assert.Equal(t, "Cohort", sheet.Header[0].Text)
	assert.False(t, sheet.Header[4].Numeric)
	require.Len(t, sheet.Rows, 1)

	v, ok := parseNumber(sheet.Rows[0][4])
	assert.True(t, ok)
	assert.Equal(t, 1200.0, v)
}

func TestLoadSheet_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{
			name:    "unsupported extension",
			path:    filepath.Join(t.TempDir(), "driver_tree.txt"),
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:    "missing workbook",
			path:    filepath.Join(t.TempDir(), "missing.xlsx"),
			wantErr: fs.ErrNotExist,
		},
		{
			name:    "missing csv",
			path:    filepath.Join(t.TempDir(), "missing.csv"),
			wantErr: fs.ErrNotExist,
		},
		{
			name:    "empty csv",
			path:    testutil.WriteCSV(t, nil),
			wantErr: ErrEmptySheet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSheet(tt.path)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSheet_RequireColumns(t *testing.T) {
	sheet := &Sheet{Header: []HeaderCell{{Text: "Cohort"}, {Text: "Values"}, {Text: "Cohort"}}}

	columns, err := sheet.RequireColumns("Cohort", "Values")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Cohort": 0, "Values": 1}, columns)

	_, err = sheet.RequireColumns("Cohort", "Channel", "TimePeriod")
	require.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "Channel, TimePeriod")
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"12.5", 12.5, true},
		{" 1,000 ", 1000, true},
		{"-3", -3, true},
		{"1e3", 1000, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"#DIV/0!", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseNumber(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
