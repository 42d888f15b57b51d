package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Transform TransformConfig `yaml:"transform" envconfig:"TRANSFORM"`
	Model     ModelConfig     `yaml:"model" envconfig:"MODEL"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST" validate:"required"`
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" validate:"gt=0"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
}

// Address returns the host:port the server listens on.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimit         RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	MaxQuestionLength int             `yaml:"max_question_length" envconfig:"MAX_QUESTION_LENGTH" validate:"min=1"`
}

// RateLimitConfig limits how fast questions can be sent to the hosted model.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gt=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"min=1"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains the files read and written by the tools.
// Relative paths are resolved against BaseDir, which defaults to the
// working directory.
type PathsConfig struct {
	BaseDir         string `yaml:"base_dir" envconfig:"BASE_DIR"`
	InputFile       string `yaml:"input_file" envconfig:"INPUT_FILE" validate:"required"`
	OutputFile      string `yaml:"output_file" envconfig:"OUTPUT_FILE" validate:"required"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE" validate:"required"`
}

// TransformConfig contains the parameters of the reshaping pipeline.
type TransformConfig struct {
	FirstWeek      int            `yaml:"first_week" envconfig:"FIRST_WEEK" validate:"min=1,ltefield=WeeksInYear"`
	WeeksInYear    int            `yaml:"weeks_in_year" envconfig:"WEEKS_IN_YEAR" validate:"min=1"`
	Window         int            `yaml:"window" envconfig:"WINDOW" validate:"min=1"`
	MinPeriods     int            `yaml:"min_periods" envconfig:"MIN_PERIODS" validate:"min=1,ltefield=Window"`
	RecentWeeks    int            `yaml:"recent_weeks" envconfig:"RECENT_WEEKS" validate:"min=1"`
	CurrentPeriod  string         `yaml:"current_period" envconfig:"CURRENT_PERIOD" validate:"required"`
	PreviousPeriod string         `yaml:"previous_period" envconfig:"PREVIOUS_PERIOD" validate:"required,nefield=CurrentPeriod"`
	YearOffsets    map[string]int `yaml:"year_offsets" envconfig:"YEAR_OFFSETS" validate:"required,min=1"`
	Randomize      bool           `yaml:"randomize" envconfig:"RANDOMIZE"`
	Variation      float64        `yaml:"variation" envconfig:"VARIATION" validate:"gte=0,lte=1"`
	Seed           uint64         `yaml:"seed" envconfig:"SEED"`
}

// ModelConfig contains hosted model settings. The API key is not part of
// the config, see LoadCredentials.
type ModelConfig struct {
	Name    string        `yaml:"name" envconfig:"NAME" validate:"required"`
	Persona string        `yaml:"persona" envconfig:"PERSONA" validate:"required"`
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
}

// TelemetryConfig contains OpenTelemetry settings.
type TelemetryConfig struct {
	ServiceName     string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	TracingExporter string `yaml:"tracing_exporter" envconfig:"TRACING_EXPORTER" validate:"oneof=stdout none"`
	MetricsEnabled  bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// Load loads configuration from defaults, the config file if one is found,
// and environment variables.
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit config file. An empty path skips the
// file layer.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields without a matching variable keep their current value, so the
	// environment only overrides what it sets.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile decodes a YAML file on top of cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	// yaml.v2 merges into non-nil maps; a file's year offsets replace the
	// defaults instead.
	defaults := cfg.Transform.YearOffsets
	cfg.Transform.YearOffsets = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	if cfg.Transform.YearOffsets == nil {
		cfg.Transform.YearOffsets = defaults
	}
	return nil
}

// Validate checks struct constraints and normalizes logging settings.
func (c *Config) Validate() error {
	c.Logging.Level = strings.ToLower(c.Logging.Level)

	if err := validator.New().Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%s", strings.Join(msgs, "; "))
		}
		return err
	}

	for period := range c.Transform.YearOffsets {
		if strings.TrimSpace(period) == "" {
			return fmt.Errorf("transform year offsets contain an empty period label")
		}
	}

	// Logs are always JSON
	c.Logging.Format = "json"
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(ConfigFileEnv); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    2 * time.Minute, // questions wait on the hosted model
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     1,
				Burst:   5,
			},
			MaxQuestionLength: DefaultMaxQuestionLength,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "console",
		},
		Paths: PathsConfig{
			InputFile:       DefaultInputFile,
			OutputFile:      DefaultOutputFile,
			CredentialsFile: DefaultCredentialsFile,
		},
		Transform: TransformConfig{
			FirstWeek:      DefaultFirstWeek,
			WeeksInYear:    DefaultWeeksInYear,
			Window:         DefaultWindow,
			MinPeriods:     DefaultMinPeriods,
			RecentWeeks:    DefaultRecentWeeks,
			CurrentPeriod:  DefaultCurrentPeriod,
			PreviousPeriod: DefaultPreviousPeriod,
			YearOffsets: map[string]int{
				DefaultPreviousPeriod: 0,
				DefaultCurrentPeriod:  1,
			},
			Variation: DefaultVariation,
		},
		Model: ModelConfig{
			Name:    DefaultModelName,
			Persona: DefaultPersona,
			Timeout: DefaultModelTimeout,
		},
		Telemetry: TelemetryConfig{
			ServiceName:     "drivertree",
			TracingExporter: "none",
			MetricsEnabled:  true,
		},
	}
}
