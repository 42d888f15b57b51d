// Package app wires the analysis web application together and manages its
// lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration from defaults, the YAML file and environment
//  2. Initialize logging
//  3. Read the credentials file (fatal before any spreadsheet is read)
//  4. Initialize OpenTelemetry and the business metrics
//  5. Create the Gemini client
//  6. Read the transformed file once and prepare the analysed week
//  7. Generate the summary, then set up the router and HTTP server
//
// # Graceful Shutdown
//
// Run serves until its context is cancelled or SIGINT or SIGTERM arrives.
// In-flight requests are given ShutdownTimeout to finish and telemetry is
// flushed before Run returns.
//
// # Error Handling
//
// Initialization errors are returned to the caller. The package never
// calls os.Exit, the command decides the exit code.
package app
