package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"drivertree/internal/config"
	"drivertree/internal/infrastructure"
	"drivertree/pkg/contracts/domain"
)

// Pipeline stage names used in spans, metrics and logs.
const (
	StageParse   = "parse"
	StageUnpivot = "unpivot"
	StagePerturb = "perturb"
	StageRunrate = "runrate"
	StageYoY     = "yoy"
	StageRecency = "recency"
)

// Options configures a pipeline run.
type Options struct {
	FirstWeek      int
	LastWeek       int
	Runrate        RunrateOptions
	CurrentPeriod  string
	PreviousPeriod string
	RecentWeeks    int

	// Randomize scales every value by a seeded random factor before the
	// run-rate is computed.
	Randomize bool
	Variation float64
	Seed      uint64
}

// DefaultOptions returns the options for a 52 week fiscal year comparing
// FY2025 with FY2024.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default().Transform)
}

// OptionsFromConfig converts the transform configuration.
func OptionsFromConfig(cfg config.TransformConfig) Options {
	offsets := make(map[string]int, len(cfg.YearOffsets))
	for period, offset := range cfg.YearOffsets {
		offsets[period] = offset
	}
	return Options{
		FirstWeek: cfg.FirstWeek,
		LastWeek:  cfg.WeeksInYear,
		Runrate: RunrateOptions{
			YearOffsets: offsets,
			WeeksInYear: cfg.WeeksInYear,
			Window:      cfg.Window,
			MinPeriods:  cfg.MinPeriods,
		},
		CurrentPeriod:  cfg.CurrentPeriod,
		PreviousPeriod: cfg.PreviousPeriod,
		RecentWeeks:    cfg.RecentWeeks,
		Randomize:      cfg.Randomize,
		Variation:      cfg.Variation,
		Seed:           cfg.Seed,
	}
}

// Diagnostics reports data completeness findings of a run. None of them
// stop the pipeline.
type Diagnostics struct {
	SourceRows      int      `json:"source_rows"`
	BlankRows       int      `json:"blank_rows"`
	NonNumericCells int      `json:"non_numeric_cells"`
	WeekMatch       string   `json:"week_match"`
	MissingWeeks    []int    `json:"missing_weeks,omitempty"`
	LongRows        int      `json:"long_rows"`
	Randomized      bool     `json:"randomized"`
	UnmappedPeriods []string `json:"unmapped_periods,omitempty"`
	YoYSkipped      bool     `json:"yoy_skipped"`
	YoYSkipReason   string   `json:"yoy_skip_reason,omitempty"`
	UnmatchedRows   int      `json:"unmatched_rows"`
	RecentWeeks     []int    `json:"recent_weeks"`
	OutputRows      int      `json:"output_rows"`
}

// Warning kinds recorded as metrics.
const (
	WarningMissingWeeks    = "missing_weeks"
	WarningNonNumeric      = "non_numeric_cells"
	WarningUnmappedPeriods = "unmapped_periods"
	WarningYoYSkipped      = "yoy_skipped"
	WarningUnmatchedRows   = "unmatched_rows"
	WarningNoRecentWeeks   = "no_recent_weeks"
)

// Warnings returns a human readable line per finding, keyed by kind.
func (d Diagnostics) Warnings() map[string]string {
	w := make(map[string]string)
	if len(d.MissingWeeks) > 0 {
		w[WarningMissingWeeks] = fmt.Sprintf("%d week columns missing: %v", len(d.MissingWeeks), d.MissingWeeks)
	}
	if d.NonNumericCells > 0 {
		w[WarningNonNumeric] = fmt.Sprintf("%d non-numeric week cells treated as empty", d.NonNumericCells)
	}
	if len(d.UnmappedPeriods) > 0 {
		w[WarningUnmappedPeriods] = fmt.Sprintf("periods without a year offset have no run-rate: %v", d.UnmappedPeriods)
	}
	if d.YoYSkipped {
		w[WarningYoYSkipped] = "year-on-year growth not computed: " + d.YoYSkipReason
	}
	if d.UnmatchedRows > 0 {
		w[WarningUnmatchedRows] = fmt.Sprintf("%d current rows had no prior-year match and were dropped", d.UnmatchedRows)
	}
	if len(d.RecentWeeks) == 0 {
		w[WarningNoRecentWeeks] = "no week has a positive value"
	}
	return w
}

// Result is the output of a pipeline run.
type Result struct {
	Records     []domain.YoYRecord
	Diagnostics Diagnostics
}

// Pipeline turns a wide driver tree sheet into the transformed long table:
// unpivot, optional perturbation, run-rate, year-on-year join and recency
// filter.
type Pipeline struct {
	opts    Options
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.BusinessMetrics
}

// PipelineOption customizes a Pipeline.
type PipelineOption func(*Pipeline)

// WithTracer sets the tracer used for stage spans.
func WithTracer(tracer trace.Tracer) PipelineOption {
	return func(p *Pipeline) {
		if tracer != nil {
			p.tracer = tracer
		}
	}
}

// WithMetrics records stage metrics.
func WithMetrics(metrics *infrastructure.BusinessMetrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = metrics }
}

// NewPipeline creates a new pipeline
func NewPipeline(opts Options, logger *slog.Logger, options ...PipelineOption) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		opts:   opts,
		logger: infrastructure.WithComponent(logger, "pipeline"),
		tracer: otel.Tracer(infrastructure.ServiceName),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Run executes all stages on sheet. Only a sheet without week or identity
// columns fails; data gaps are reported in the diagnostics.
func (p *Pipeline) Run(ctx context.Context, sheet *Sheet) (result *Result, err error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("sheet", sheet.Name),
		attribute.String("period.current", p.opts.CurrentPeriod),
		attribute.String("period.previous", p.opts.PreviousPeriod),
	))
	defer func() {
		if err != nil {
			infrastructure.RecordError(ctx, err)
		}
		infrastructure.RecordPipelineRun(ctx, p.metrics, err)
		span.End()
	}()

	var diag Diagnostics
	diag.SourceRows = len(sheet.Rows)

	var wide []domain.WideRecord
	var weeks WeekColumns
	err = p.stage(ctx, StageParse, func(context.Context) (int, error) {
		var err error
		weeks, err = ResolveWeekColumns(sheet.Header, p.opts.FirstWeek, p.opts.LastWeek)
		if err != nil {
			return 0, err
		}
		var report ParseReport
		wide, report, err = ParseWide(sheet, weeks)
		if err != nil {
			return 0, err
		}
		diag.WeekMatch = weeks.Match
		diag.MissingWeeks = weeks.Missing
		diag.BlankRows = report.BlankRows
		diag.NonNumericCells = report.NonNumericCells
		return len(wide), nil
	})
	if err != nil {
		return nil, err
	}

	var long []domain.LongRecord
	if err = p.stage(ctx, StageUnpivot, func(context.Context) (int, error) {
		long = Unpivot(wide, weeks.Weeks)
		diag.LongRows = len(long)
		return len(long), nil
	}); err != nil {
		return nil, err
	}
	logSample(ctx, p.logger, StageUnpivot, long)

	if p.opts.Randomize {
		if err = p.stage(ctx, StagePerturb, func(context.Context) (int, error) {
			long = NewPerturber(p.opts.Variation, p.opts.Seed).Apply(long)
			diag.Randomized = true
			return len(long), nil
		}); err != nil {
			return nil, err
		}
	}

	var withRunrate []domain.RunrateRecord
	if err = p.stage(ctx, StageRunrate, func(context.Context) (int, error) {
		var report RunrateReport
		withRunrate, report = NewRunrateCalculator(p.opts.Runrate).Calculate(long)
		diag.UnmappedPeriods = report.UnmappedPeriods
		return len(withRunrate), nil
	}); err != nil {
		return nil, err
	}

	var joined []domain.YoYRecord
	if err = p.stage(ctx, StageYoY, func(context.Context) (int, error) {
		var report YoYReport
		joined, report = NewYoYJoiner(p.opts.CurrentPeriod, p.opts.PreviousPeriod).Join(withRunrate)
		diag.YoYSkipped = report.Skipped
		diag.YoYSkipReason = report.Reason
		diag.UnmatchedRows = report.Unmatched
		return len(joined), nil
	}); err != nil {
		return nil, err
	}

	var recent []domain.YoYRecord
	if err = p.stage(ctx, StageRecency, func(context.Context) (int, error) {
		recent, diag.RecentWeeks = FilterRecentWeeks(joined, p.opts.RecentWeeks)
		diag.OutputRows = len(recent)
		return len(recent), nil
	}); err != nil {
		return nil, err
	}
	logSample(ctx, p.logger, StageRecency, recent)

	for kind, msg := range diag.Warnings() {
		infrastructure.RecordPipelineWarning(ctx, p.metrics, kind)
		p.logger.WarnContext(ctx, "Data completeness warning",
			slog.String("kind", kind),
			slog.String("detail", msg))
	}

	p.logger.InfoContext(ctx, "Pipeline completed",
		slog.Int("source_rows", diag.SourceRows),
		slog.Int("output_rows", diag.OutputRows),
		slog.Any("recent_weeks", diag.RecentWeeks))

	return &Result{Records: recent, Diagnostics: diag}, nil
}

// stage runs fn in its own span and records its row count and duration.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) (int, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, span := p.tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	start := time.Now()
	rows, err := fn(ctx)
	duration := time.Since(start)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return fmt.Errorf("%s stage: %w", name, err)
	}

	span.SetAttributes(attribute.Int("rows", rows))
	infrastructure.RecordStageMetrics(ctx, p.metrics, name, rows, duration)
	p.logger.DebugContext(ctx, "Stage completed",
		slog.String("stage", name),
		slog.Int("rows", rows),
		slog.Duration("duration", duration))
	return nil
}

// logSample logs the first and last few records of a stage at debug level.
func logSample[T any](ctx context.Context, logger *slog.Logger, stage string, records []T) {
	if !logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	const n = 5
	head := records[:min(n, len(records))]
	tail := records[max(0, len(records)-n):]
	logger.DebugContext(ctx, "Stage sample",
		slog.String("stage", stage),
		slog.Any("head", head),
		slog.Any("tail", tail))
}
