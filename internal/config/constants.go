package config

import (
	"time"

	"drivertree/pkg/contracts"
)

// Application constants
const (
	AppName    = "Driver Tree"
	AppVersion = contracts.Version

	// EnvPrefix namespaces every environment variable read by Load.
	EnvPrefix = "DRIVERTREE"

	// ConfigFileEnv points Load at an explicit YAML file.
	ConfigFileEnv = "DRIVERTREE_CONFIG"
)

// Default file names, relative to Paths.BaseDir.
const (
	DefaultInputFile       = "driver_tree.xlsx"
	DefaultOutputFile      = "driver_tree_transformed.xlsx"
	DefaultCredentialsFile = "keys.json"
	DefaultLogFile         = "logs/drivertree.log"
)

// Transform defaults. Fiscal years have 52 weeks and the run-rate is a
// four week trailing mean that needs all four weeks present.
const (
	DefaultFirstWeek      = 1
	DefaultWeeksInYear    = 52
	DefaultWindow         = 4
	DefaultMinPeriods     = 4
	DefaultRecentWeeks    = 4
	DefaultCurrentPeriod  = "FY2025"
	DefaultPreviousPeriod = "FY2024"
	DefaultVariation      = 0.30
)

// Hosted model defaults
const (
	DefaultModelName    = "gemini-1.5-flash-latest"
	DefaultModelTimeout = 90 * time.Second
	DefaultPersona      = "the retired Woolworths CEO Brad Banducci, a little grumpy about his retirement"

	// PlaceholderAPIKey is the value shipped in the sample credentials file.
	PlaceholderAPIKey = "YOUR_GEMINI_API_KEY_HERE"
)

// Server defaults. The web form is local-only by default.
const (
	DefaultHost              = "127.0.0.1"
	DefaultPort              = 7860
	DefaultMaxQuestionLength = 2000
)
