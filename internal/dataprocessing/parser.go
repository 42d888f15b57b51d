package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// HeaderCell is one cell of a sheet's header row.
type HeaderCell struct {
	Text string
	// Numeric is set when the workbook stores the cell as a number rather
	// than text. CSV headers are never numeric.
	Numeric bool
}

// Sheet is the first worksheet of a spreadsheet file: a header row and the
// raw cell values below it.
type Sheet struct {
	Source string
	Name   string
	Header []HeaderCell
	Rows   [][]string
}

// LoadSheet reads the first sheet of an .xlsx or .csv file. Cell values are
// returned unformatted so numbers keep full precision.
func LoadSheet(path string) (*Sheet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return loadWorkbook(path)
	case ".csv":
		return loadCSV(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func loadWorkbook(path string) (*Sheet, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", ErrEmptySheet, path)
	}
	name := sheets[0]

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySheet, path)
	}

	header := make([]HeaderCell, len(rows[0]))
	for j, text := range rows[0] {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return nil, err
		}
		cellType, err := f.GetCellType(name, cell)
		if err != nil {
			return nil, fmt.Errorf("failed to read header cell %s: %w", cell, err)
		}

		text = strings.TrimSpace(text)
		_, parseErr := strconv.ParseFloat(text, 64)
		header[j] = HeaderCell{
			Text:    text,
			Numeric: parseErr == nil && (cellType == excelize.CellTypeNumber || cellType == excelize.CellTypeUnset),
		}
	}

	slog.Debug("Loaded workbook",
		slog.String("file", path),
		slog.String("sheet", name),
		slog.Int("columns", len(header)),
		slog.Int("rows", len(rows)-1))

	return &Sheet{Source: path, Name: name, Header: header, Rows: rows[1:]}, nil
}

func loadCSV(path string) (*Sheet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv %s: %w", path, err)
		}
		rows = append(rows, record)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySheet, path)
	}

	// Files written by the exporter start with a UTF-8 BOM
	if len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}

	header := make([]HeaderCell, len(rows[0]))
	for j, text := range rows[0] {
		header[j] = HeaderCell{Text: strings.TrimSpace(text)}
	}

	return &Sheet{
		Source: path,
		Name:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Header: header,
		Rows:   rows[1:],
	}, nil
}

// ColumnIndex returns the position of the first header cell named name.
func (s *Sheet) ColumnIndex(name string) (int, bool) {
	for j, cell := range s.Header {
		if cell.Text == name {
			return j, true
		}
	}
	return -1, false
}

// RequireColumns maps every name to its column position, failing with
// ErrMissingColumns listing all absent names.
func (s *Sheet) RequireColumns(names ...string) (map[string]int, error) {
	columns := make(map[string]int, len(names))
	var missing []string
	for _, name := range names {
		j, ok := s.ColumnIndex(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		columns[name] = j
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return columns, nil
}

// cell returns the trimmed value at column j of row, or "" past the row end.
func cell(row []string, j int) string {
	if j < 0 || j >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[j])
}

// parseNumber parses a numeric cell. Empty and non-numeric cells are
// reported as not ok; thousands separators are tolerated.
func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// blankRow reports whether every cell of row is empty.
func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
