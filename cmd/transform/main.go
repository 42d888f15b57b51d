package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"drivertree/internal/config"
	"drivertree/internal/dataprocessing"
	"drivertree/internal/infrastructure"
	"drivertree/internal/services"
	"drivertree/pkg/contracts"
)

// options holds the command line flags
type options struct {
	configFile string
	input      string
	output     string
	randomize  bool
	seed       uint64
	seedSet    bool
	version    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		slog.Error("Transform failed", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("transform", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configFile, "config", "", "path to a YAML config file")
	fs.StringVar(&opts.input, "input", "", "wide driver tree spreadsheet (.xlsx or .csv)")
	fs.StringVar(&opts.output, "output", "", "transformed spreadsheet to write (.xlsx or .csv)")
	fs.BoolVar(&opts.randomize, "randomize", false, "perturb values before the run-rate stage")
	fs.Uint64Var(&opts.seed, "seed", 0, "seed for -randomize")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			opts.seedSet = true
		}
	})
	return opts, nil
}

// loadConfig loads the configuration and applies the flags on top.
func loadConfig(opts *options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configFile != "" {
		cfg, err = config.LoadFile(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if opts.input != "" {
		if cfg.Paths.InputFile, err = filepath.Abs(opts.input); err != nil {
			return nil, err
		}
	}
	if opts.output != "" {
		if cfg.Paths.OutputFile, err = filepath.Abs(opts.output); err != nil {
			return nil, err
		}
	}
	if opts.randomize {
		cfg.Transform.Randomize = true
	}
	if opts.seedSet {
		cfg.Transform.Seed = opts.seed
	}

	return cfg, cfg.Validate()
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return nil
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer func() {
		if err := providers.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}()

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	ctx = infrastructure.EnsureTraceID(ctx)
	logger.InfoContext(ctx, "Starting driver tree transform",
		slog.String("version", config.AppVersion),
		slog.String("input_file", cfg.Paths.InputFile),
		slog.String("output_file", cfg.Paths.OutputFile),
		slog.Bool("randomize", cfg.Transform.Randomize))

	service := services.NewTransformService(cfg, logger,
		dataprocessing.WithTracer(providers.Tracer),
		dataprocessing.WithMetrics(metrics))

	result, err := service.Run(ctx)
	if err != nil {
		return err
	}

	logWarnings(ctx, logger, result.Diagnostics)

	logger.InfoContext(ctx, "Transformed spreadsheet written",
		slog.String("output_file", result.OutputFile),
		slog.Int("rows", result.Rows),
		slog.Any("recent_weeks", result.Diagnostics.RecentWeeks),
		slog.Duration("duration", result.Duration))
	return nil
}

// logWarnings logs data completeness findings in a stable order
func logWarnings(ctx context.Context, logger *slog.Logger, d dataprocessing.Diagnostics) {
	warnings := d.Warnings()
	kinds := make([]string, 0, len(warnings))
	for kind := range warnings {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	for _, kind := range kinds {
		logger.WarnContext(ctx, warnings[kind], slog.String("kind", kind))
	}
}
