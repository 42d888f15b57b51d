package services

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"drivertree/internal/config"
	"drivertree/internal/dataprocessing"
	apperrors "drivertree/internal/errors"
	"drivertree/internal/exporter"
	"drivertree/internal/infrastructure"
	"drivertree/internal/validation"
)

// TransformResult summarizes one transform run.
type TransformResult struct {
	InputFile   string                     `json:"input_file"`
	OutputFile  string                     `json:"output_file"`
	Rows        int                        `json:"rows"`
	Diagnostics dataprocessing.Diagnostics `json:"diagnostics"`
	Duration    time.Duration              `json:"duration"`
}

// TransformService reads the wide driver tree sheet, runs the pipeline and
// writes the transformed sheet.
type TransformService struct {
	inputFile  string
	outputFile string
	pipeline   *dataprocessing.Pipeline
	files      *validation.FileValidator
	logger     *slog.Logger
}

// NewTransformService creates a transform service for the configured input
// and output files.
func NewTransformService(cfg *config.Config, logger *slog.Logger, options ...dataprocessing.PipelineOption) *TransformService {
	if logger == nil {
		logger = slog.Default()
	}
	opts := dataprocessing.OptionsFromConfig(cfg.Transform)
	return &TransformService{
		inputFile:  cfg.Paths.InputFile,
		outputFile: cfg.Paths.OutputFile,
		pipeline:   dataprocessing.NewPipeline(opts, logger, options...),
		files:      validation.NewFileValidator(logger),
		logger:     infrastructure.WithComponent(logger, "transform_service"),
	}
}

// Run executes the transform. Both files are checked before the input is
// read. Input problems come back as CONFIG errors, write failures as
// STORAGE errors.
func (s *TransformService) Run(ctx context.Context) (*TransformResult, error) {
	start := time.Now()
	logger := s.logger.With(
		slog.String("input_file", s.inputFile),
		slog.String("output_file", s.outputFile),
	)
	logger.InfoContext(ctx, "Starting transform")

	if err := s.files.ValidateInputFile(s.inputFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewConfigError("input spreadsheet not found", errors.Join(ErrInputNotFound, err)).
				WithContext("path", s.inputFile)
		}
		return nil, apperrors.NewConfigError("input spreadsheet cannot be used", err).
			WithContext("path", s.inputFile)
	}
	if err := s.files.ValidateOutputFile(s.outputFile); err != nil {
		return nil, apperrors.NewConfigError("output spreadsheet cannot be written", err).
			WithContext("path", s.outputFile)
	}

	sheet, err := dataprocessing.LoadSheet(s.inputFile)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to read input spreadsheet", err).
			WithContext("path", s.inputFile)
	}

	logger.InfoContext(ctx, "Input loaded",
		slog.String("sheet", sheet.Name),
		slog.Int("rows", len(sheet.Rows)),
		slog.Int("columns", len(sheet.Header)))

	result, err := s.pipeline.Run(ctx, sheet)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, apperrors.NewConfigError("input spreadsheet has an unexpected layout", err).
			WithContext("path", s.inputFile)
	}

	if err := exporter.WriteTransformed(s.outputFile, result.Records); err != nil {
		return nil, apperrors.NewStorageError("failed to write transformed spreadsheet", err).
			WithContext("path", s.outputFile)
	}

	out := &TransformResult{
		InputFile:   s.inputFile,
		OutputFile:  s.outputFile,
		Rows:        len(result.Records),
		Diagnostics: result.Diagnostics,
		Duration:    time.Since(start),
	}

	logger.InfoContext(ctx, "Transform completed",
		slog.Int("rows", out.Rows),
		slog.Any("recent_weeks", out.Diagnostics.RecentWeeks),
		slog.Duration("duration", out.Duration))

	return out, nil
}
