// Package http implements the HTTP handlers of the web command. Handlers
// stay thin: they parse the request, call a service and render the result.
//
// # Routes
//
//	GET  /                         analysis summary tab
//	GET  /ask                      question tab
//	POST /ask                      question form submission
//	GET  /api/analysis             summary as JSON
//	POST /api/analysis/questions   {"question": "..."} -> {"question", "answer"}
//	GET  /api/health[/ready|/live] health checks
//	GET  /api/version              build and runtime information
//
// JSON errors are RFC 7807 problem details written by errors.ErrorHandler.
// The HTML tabs never fail on a model error; the message is shown in place
// of the summary or answer.
package http
