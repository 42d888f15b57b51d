package services

import "errors"

// Service errors
var (
	// Transform errors
	ErrInputNotFound = errors.New("input spreadsheet not found")

	// Analysis errors
	ErrTransformedNotFound = errors.New("transformed spreadsheet not found")
	ErrNoAnalysisData      = errors.New("no analysable data for the current period")
	ErrQuestionTooLong     = errors.New("question is too long")
)
