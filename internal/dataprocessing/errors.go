package dataprocessing

import "errors"

// Sheet and pipeline errors. ErrNoWeekColumns and ErrMissingColumns are
// configuration errors: the input does not have the expected shape.
var (
	ErrNoWeekColumns     = errors.New("no fiscal week columns found in header")
	ErrMissingColumns    = errors.New("required columns missing from header")
	ErrEmptySheet        = errors.New("sheet has no header row")
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
)
