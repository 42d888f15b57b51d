package exporter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivertree/internal/dataprocessing"
	"drivertree/internal/shared/testutil"
	"drivertree/pkg/contracts/domain"
)

func sampleRecords() []domain.YoYRecord {
	key := domain.SeriesKey{Cohort: "New", Channel: "Online", Values: "SUM of SALES"}
	return []domain.YoYRecord{
		{
			RunrateRecord: domain.RunrateRecord{
				LongRecord: domain.LongRecord{SeriesKey: key, TimePeriod: "FY2025", FiscalWeek: 9, Value: testutil.F(1234.5678)},
				Runrate:    testutil.F(1000.0 / 3),
			},
			YearOnYearGrowth:        testutil.F(0.1),
			YearOnYearRunrateGrowth: testutil.F(-0.0425),
		},
		{
			RunrateRecord: domain.RunrateRecord{
				LongRecord: domain.LongRecord{SeriesKey: key, TimePeriod: "FY2025", FiscalWeek: 10, Value: nil},
			},
		},
	}
}

func TestWriteTransformed_RoundTrip(t *testing.T) {
	for _, ext := range []string{".xlsx", ".csv"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out", "driver_tree_transformed"+ext)
			records := sampleRecords()

			require.NoError(t, WriteTransformed(path, records))

			got, err := dataprocessing.ReadTransformed(path)
			require.NoError(t, err)
			assert.Equal(t, records, got)
		})
	}
}

func TestWriteTransformed_Header(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteTransformed(path, sampleRecords()))

	sheet, err := dataprocessing.LoadSheet(path)
	require.NoError(t, err)

	header := make([]string, len(sheet.Header))
	for i, h := range sheet.Header {
		header[i] = h.Text
	}
	assert.Equal(t, domain.TransformedColumns, header)
}

func TestWriteTransformed_CSVHasBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteTransformed(path, sampleRecords()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(data), "\ufeffCohort,Channel,Values,TimePeriod,FiscalWeek"))
	assert.Contains(t, string(data), "New,Online,SUM of SALES,FY2025,10,,,,\n")
}

func TestWriteTransformed_Unsupported(t *testing.T) {
	err := WriteTransformed(filepath.Join(t.TempDir(), "out.json"), sampleRecords())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFormatNullable(t *testing.T) {
	assert.Equal(t, "", formatNullable(nil))
	assert.Equal(t, "0.1", formatNullable(testutil.F(0.1)))
	assert.Equal(t, "333.3333333333333", formatNullable(testutil.F(1000.0/3)))
	assert.Equal(t, "1e+21", formatNullable(testutil.F(1e21)))
}
