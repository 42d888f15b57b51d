// Package services implements the business logic between the commands, the
// HTTP handlers and the processing packages.
//
// TransformService runs the driver tree pipeline from the input spreadsheet
// to the transformed spreadsheet. AnalysisService wraps the analysis session
// the web command serves: the cached weekly summary and one model call per
// question. HealthService backs the health and version endpoints.
//
// Errors returned to handlers are *errors.AppError values so the central
// error handler can map them to RFC 7807 responses:
//
//	CONFIG      missing or malformed input, fatal for the commands
//	DATA        nothing to analyse for the current period
//	VALIDATION  blank or oversized question
//	EXTERNAL    hosted model failure
//	STORAGE     output could not be written
package services
