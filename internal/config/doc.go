// Package config provides configuration management for the driver tree tools.
// It loads settings from defaults, an optional YAML file and the environment,
// validates them, and loads the hosted-model credentials file.
//
// # Configuration Sources
//
// Configuration is applied in the following order, later sources winning:
//
//	1. Default values (Default)
//	2. YAML file (config.yaml or configs/config.yaml, or DRIVERTREE_CONFIG)
//	3. Environment variables with the DRIVERTREE_ prefix
//
// # Environment Variables
//
//	DRIVERTREE_SERVER_PORT=7860
//	DRIVERTREE_LOGGING_LEVEL=debug
//	DRIVERTREE_PATHS_INPUT_FILE=data/driver_tree.xlsx
//	DRIVERTREE_TRANSFORM_YEAR_OFFSETS=FY2024:0,FY2025:1
//	DRIVERTREE_MODEL_NAME=gemini-1.5-flash-latest
//
// # Credentials
//
// The API key for the hosted model lives in a separate JSON file so it never
// ends up in the YAML config:
//
//	creds, err := config.LoadCredentials(cfg.Paths.CredentialsFile)
//
// A missing file, malformed JSON, an empty key or the shipped placeholder key
// are all reported as errors and must stop the process.
package config
