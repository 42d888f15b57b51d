// Package shared holds helpers used across the driver tree packages that do
// not belong to a single layer.
//
// The testutil subpackage provides:
//
//	- BufferedSlogHandler for asserting on structured log output
//	- Workbook and CSV fixture writers for wide driver tree sheets
//	- Small constructors for nullable values in table-driven tests
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    path := testutil.WriteWideWorkbook(t, testutil.WideHeader(52), rows)
//	    ...
//	    testutil.AssertLogContains(t, logs, slog.LevelWarn, "missing week columns")
//	}
package shared
