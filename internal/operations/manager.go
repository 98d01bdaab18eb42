package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"pricecharts/internal/charts"
	"pricecharts/internal/config"
	"pricecharts/internal/dataprocessing"
	apperrors "pricecharts/internal/errors"
	"pricecharts/internal/exporter"
	"pricecharts/internal/infrastructure"
	"pricecharts/internal/validation"
)

// RunResult summarizes a finished run
type RunResult struct {
	RunID     string
	Status    OperationStatus
	Duration  time.Duration
	Rows      int
	Clean     dataprocessing.CleanStats
	Artifacts []charts.Artifact
	Tables    []string
	Workbook  string
	Cache     dataprocessing.CacheStats
	Steps     []*StepState
}

// Manager orchestrates runs of the chart pipeline
type Manager struct {
	cfg       config.PipelineConfig
	paths     *config.Paths
	telemetry *infrastructure.Telemetry
	tracer    *OperationTracer
	renderer  charts.Renderer
	loader    *dataprocessing.Loader
	cleaner   *dataprocessing.Cleaner
	validator *validation.FileValidator
	logger    *slog.Logger
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithRenderer replaces the default gonum renderer
func WithRenderer(r charts.Renderer) ManagerOption {
	return func(m *Manager) {
		m.renderer = r
	}
}

// WithLogger sets the logger of the manager and its steps
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a manager for the given pipeline configuration.
// A nil telemetry records nothing.
func NewManager(cfg config.PipelineConfig, paths *config.Paths, tel *infrastructure.Telemetry, opts ...ManagerOption) (*Manager, error) {
	if paths == nil {
		return nil, apperrors.NewConfigError("paths are required", nil)
	}
	if tel == nil {
		tel = infrastructure.NoopTelemetry()
	}

	m := &Manager{
		cfg:       cfg,
		paths:     paths,
		telemetry: tel,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = infrastructure.WithComponent(tel.Logger, "operations")
	}
	if m.renderer == nil {
		m.renderer = charts.NewGonumRenderer(paths.OutputDir, infrastructure.WithComponent(m.logger, "charts"))
	}
	if m.cfg.Workers < 1 {
		m.cfg.Workers = 1
	}

	loaderCfg, err := LoaderConfig(cfg)
	if err != nil {
		return nil, err
	}
	m.loader = dataprocessing.NewLoader(infrastructure.WithComponent(m.logger, "loader"), loaderCfg)
	m.validator = validation.NewFileValidator(infrastructure.WithComponent(m.logger, "validation"))
	m.cleaner = dataprocessing.NewCleaner(infrastructure.WithComponent(m.logger, "cleaner"), cfg.DateLayouts)

	tracer, err := NewOperationTracer(tel)
	if err != nil {
		return nil, err
	}
	m.tracer = tracer

	return m, nil
}

// LoaderConfig converts the pipeline configuration into loader options
func LoaderConfig(cfg config.PipelineConfig) (dataprocessing.LoaderConfig, error) {
	out := dataprocessing.LoaderConfig{
		Sheet:       cfg.Sheet,
		NullMarkers: cfg.NullMarkers,
		DateLayouts: cfg.DateLayouts,
		Schema:      make(map[string]dataprocessing.ColumnType, len(cfg.Schema)),
	}

	if cfg.Delimiter != "" {
		r, size := utf8.DecodeRuneInString(cfg.Delimiter)
		if r == utf8.RuneError || size != len(cfg.Delimiter) {
			return out, apperrors.NewConfigError(fmt.Sprintf("delimiter %q must be a single character", cfg.Delimiter), nil)
		}
		out.Delimiter = r
	}

	for col, name := range cfg.Schema {
		t, err := dataprocessing.ParseColumnType(name)
		if err != nil {
			return out, apperrors.NewConfigError(fmt.Sprintf("schema of column %q", col), err)
		}
		out.Schema[col] = t
	}
	return out, nil
}

// plan registers the steps of one run in execution order
func (m *Manager) plan() (*Registry, error) {
	registry := NewRegistry()
	metrics := m.tracer.Metrics()

	if err := registry.Register(NewLoadStep(m.loader, metrics, m.logger)); err != nil {
		return nil, err
	}
	if err := registry.Register(NewCleanStep(m.cleaner, m.cfg.DateColumn, metrics, m.tracer.RecordLookup)); err != nil {
		return nil, err
	}

	var csv *exporter.CSVWriter
	if m.cfg.ExportCSV {
		csv = exporter.NewCSVWriter(infrastructure.WithComponent(m.logger, "exporter"))
	}

	names := make([]string, 0, len(m.cfg.Charts))
	for _, spec := range m.cfg.Charts {
		step := NewChartStep(spec, m.renderer, csv, m.paths, metrics, m.logger)
		if err := registry.Register(step); err != nil {
			return nil, apperrors.NewConfigError("duplicate chart job", err)
		}
		names = append(names, spec.Name)
	}

	if m.cfg.ExportWorkbook && len(names) > 0 {
		wb := exporter.NewWorkbookWriter(infrastructure.WithComponent(m.logger, "exporter"))
		if err := registry.Register(NewExportStep(wb, m.paths.WorkbookFile, names)); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// Run executes load and clean once, every chart job, then the workbook export.
// The first failure aborts the run; artifacts already written stay on disk.
func (m *Manager) Run(ctx context.Context, inputPath string) (*RunResult, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	runID := infrastructure.GetRunID(ctx)

	if err := m.validator.ValidateOutputDirectory(m.paths.OutputDir); err != nil {
		return nil, err
	}

	registry, err := m.plan()
	if err != nil {
		return nil, err
	}
	steps := registry.List()
	chartSteps := registry.Charts()

	state := NewOperationState(runID, inputPath)
	for _, step := range steps {
		state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	ctx, span := m.tracer.TraceRun(ctx, runID, inputPath)
	state.Start()

	m.logger.InfoContext(ctx, "run started",
		slog.String("input", inputPath),
		slog.String("trace_id", infrastructure.TraceIDFromContext(ctx)),
		slog.Int("steps", len(steps)),
		slog.Int("charts", len(chartSteps)),
		slog.Int("workers", m.cfg.Workers))

	err = m.execute(ctx, state, registry)

	switch {
	case err == nil:
		state.Complete()
	case IsCancellation(err):
		state.Cancel(err)
	default:
		state.Fail(err)
	}
	if err != nil {
		m.skipPending(ctx, state, steps)
	}

	m.tracer.RecordRunCompletion(ctx, span, state.GetStatus(), state.Duration(), err)

	if werr := m.telemetry.WriteMetrics(m.paths.MetricsFile); werr != nil {
		m.logger.WarnContext(ctx, "failed to write metrics",
			slog.String("path", m.paths.MetricsFile),
			slog.String("error", werr.Error()))
	}

	result := m.result(state, steps)
	if err != nil {
		m.logger.ErrorContext(ctx, "run failed",
			slog.String("status", string(result.Status)),
			slog.Duration("duration", result.Duration),
			slog.String("error", err.Error()))
		return result, err
	}

	m.logger.InfoContext(ctx, "run completed",
		slog.Duration("duration", result.Duration),
		slog.Int("charts", len(result.Artifacts)),
		slog.Int64("cache_hits", result.Cache.Hits),
		slog.Int64("cache_misses", result.Cache.Misses))
	return result, nil
}

// execute runs the sequential head, the chart steps on the worker pool and the tail
func (m *Manager) execute(ctx context.Context, state *OperationState, registry *Registry) error {
	for _, id := range []string{StepIDLoad, StepIDClean} {
		step, err := registry.Get(id)
		if err != nil {
			return err
		}
		if err := m.executeStep(ctx, state, step); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Workers)
	for _, step := range registry.Charts() {
		g.Go(func() error {
			return m.executeStep(gctx, state, step)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if step, err := registry.Get(StepIDExport); err == nil {
		return m.executeStep(ctx, state, step)
	}
	return nil
}

// executeStep validates and runs one step inside its own span
func (m *Manager) executeStep(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStage(step.ID())
	if stepState == nil {
		return NewInvalidStateError(step.ID(), "step state not found")
	}

	if err := ctx.Err(); err != nil {
		return NewCancellationError(step.ID(), err)
	}

	ctx, span := m.tracer.TraceStep(ctx, state.ID, step)
	logger := infrastructure.WithStep(m.logger, step.ID())
	start := time.Now()

	if err := step.Validate(state); err != nil {
		opErr := NewValidationError(step.ID(), err)
		stepState.Fail(opErr)
		logger.ErrorContext(ctx, "step validation failed",
			slog.String("error", err.Error()))
		m.tracer.RecordStepCompletion(ctx, span, step.ID(), time.Since(start), opErr)
		return opErr
	}

	stepState.Start()
	logger.InfoContext(ctx, "step started",
		slog.String("name", step.Name()))

	err := step.Execute(ctx, state)
	duration := time.Since(start)

	if err != nil {
		opErr := NewExecutionError(step.ID(), err)
		if IsCancellation(err) {
			opErr = NewCancellationError(step.ID(), err)
		}
		stepState.Fail(opErr)
		logger.ErrorContext(ctx, "step failed",
			slog.Duration("duration", duration),
			slog.String("error_type", string(apperrors.TypeOf(err))),
			slog.String("error", err.Error()))
		m.tracer.RecordStepCompletion(ctx, span, step.ID(), duration, opErr)
		return opErr
	}

	stepState.Complete()
	logger.InfoContext(ctx, "step completed",
		slog.Duration("duration", duration))
	m.tracer.RecordStepCompletion(ctx, span, step.ID(), duration, nil)
	return nil
}

// skipPending marks every step that never started as skipped
func (m *Manager) skipPending(ctx context.Context, state *OperationState, steps []Step) {
	for _, step := range steps {
		st := state.GetStage(step.ID())
		if st != nil && st.Skip("run aborted") {
			m.logger.DebugContext(ctx, "step skipped", slog.String("step", step.ID()))
		}
	}
}

func (m *Manager) result(state *OperationState, steps []Step) *RunResult {
	result := &RunResult{
		RunID:     state.ID,
		Status:    state.GetStatus(),
		Duration:  state.Duration(),
		Clean:     state.CleanStats(),
		Artifacts: state.Artifacts(),
		Tables:    state.Tables(),
		Workbook:  state.Workbook(),
	}
	if raw := state.Raw(); raw != nil {
		result.Rows = raw.Len()
	}
	if sel := state.Selector(); sel != nil {
		result.Cache = sel.Stats()
	}
	for _, step := range steps {
		result.Steps = append(result.Steps, state.GetStage(step.ID()))
	}
	return result
}
