package exporter

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"drivertree/internal/config"
)

// XLSXWriter writes a single-sheet workbook row by row.
type XLSXWriter struct {
	// ColumnWidth applies to every column. Zero keeps the default width.
	ColumnWidth float64
}

// NewXLSXWriter creates a new workbook writer
func NewXLSXWriter() *XLSXWriter {
	return &XLSXWriter{ColumnWidth: 16}
}

// WriteXLSX writes headers in bold followed by rows to filePath, replacing
// any existing file. Nil values leave their cell empty.
func (w *XLSXWriter) WriteXLSX(filePath string, headers []string, rows [][]interface{}) error {
	slog.Info("Writing workbook",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(rows)))

	if err := config.EnsureParentDir(filePath); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	if w.ColumnWidth > 0 && len(headers) > 0 {
		if err := sw.SetColWidth(1, len(headers), w.ColumnWidth); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	headerRow := make([]interface{}, len(headers))
	for i, h := range headers {
		headerRow[i] = excelize.Cell{StyleID: bold, Value: h}
	}
	if err := sw.SetRow("A1", headerRow); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush workbook: %w", err)
	}
	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
