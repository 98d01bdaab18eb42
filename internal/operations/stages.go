package operations

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"pricecharts/internal/charts"
	"pricecharts/internal/config"
	"pricecharts/internal/dataprocessing"
	apperrors "pricecharts/internal/errors"
	"pricecharts/internal/exporter"
	"pricecharts/internal/infrastructure"
	"pricecharts/pkg/contracts/domain"
)

// Step IDs
const (
	StepIDLoad   = "load"
	StepIDClean  = "clean"
	StepIDExport = "export"

	chartStepPrefix = "chart:"
)

// ChartStepID returns the step ID of a chart job
func ChartStepID(chart string) string {
	return chartStepPrefix + chart
}

// LoadStep reads the input file into the raw table
type LoadStep struct {
	BaseStage
	loader  *dataprocessing.Loader
	metrics *infrastructure.PipelineMetrics
	logger  *slog.Logger
}

// NewLoadStep creates the load step
func NewLoadStep(loader *dataprocessing.Loader, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *LoadStep {
	return &LoadStep{
		BaseStage: NewBaseStage(StepIDLoad, "Load input"),
		loader:    loader,
		metrics:   metrics,
		logger:    logger,
	}
}

// Validate checks that an input path was given
func (s *LoadStep) Validate(state *OperationState) error {
	if state.InputPath == "" {
		return apperrors.NewNotFoundError(state.InputPath, fmt.Errorf("no input path"))
	}
	return nil
}

// Execute loads the input file
func (s *LoadStep) Execute(ctx context.Context, state *OperationState) error {
	table, err := s.loader.Load(ctx, state.InputPath)
	if err != nil {
		return err
	}

	state.SetRaw(table)
	if st := state.GetStage(s.ID()); st != nil {
		st.SetMetadata("rows", table.Len())
		st.SetMetadata("columns", len(table.Columns))
	}
	if s.metrics != nil {
		s.metrics.RowsLoaded.Add(ctx, int64(table.Len()))
	}
	infrastructure.AddSpanEvent(ctx, "table.loaded",
		attribute.Int("rows", table.Len()),
		attribute.Int("columns", len(table.Columns)))
	return nil
}

// CleanStep coerces the date column, forward-fills the raw table and opens the
// selector every chart step reads through
type CleanStep struct {
	BaseStage
	cleaner    *dataprocessing.Cleaner
	dateColumn string
	metrics    *infrastructure.PipelineMetrics
	onLookup   func(ctx context.Context, hit bool)
}

// NewCleanStep creates the clean step. onLookup, when set, observes every selector lookup.
func NewCleanStep(cleaner *dataprocessing.Cleaner, dateColumn string, metrics *infrastructure.PipelineMetrics, onLookup func(ctx context.Context, hit bool)) *CleanStep {
	return &CleanStep{
		BaseStage:  NewBaseStage(StepIDClean, "Clean table"),
		cleaner:    cleaner,
		dateColumn: dateColumn,
		metrics:    metrics,
		onLookup:   onLookup,
	}
}

// Validate checks that the table was loaded
func (s *CleanStep) Validate(state *OperationState) error {
	if state.Raw() == nil {
		return NewInvalidStateError(s.ID(), "input table not loaded")
	}
	return nil
}

// Execute cleans the raw table
func (s *CleanStep) Execute(ctx context.Context, state *OperationState) error {
	cleaned, stats, err := s.cleaner.CleanWithStats(ctx, state.Raw(), s.dateColumn)
	if err != nil {
		return err
	}

	var opts []dataprocessing.SelectorOption
	if s.onLookup != nil {
		opts = append(opts, dataprocessing.WithLookupHook(s.onLookup))
	}
	state.SetCleaned(cleaned, stats, dataprocessing.NewSelector(cleaned, opts...))

	if st := state.GetStage(s.ID()); st != nil {
		st.SetMetadata("dates_parsed", stats.DatesParsed)
		st.SetMetadata("cells_filled", stats.CellsFilled)
	}
	if s.metrics != nil {
		s.metrics.CellsFilled.Add(ctx, int64(stats.CellsFilled))
	}
	return nil
}

// ChartStep derives the view of one chart job from the cleaned table, draws it
// and optionally writes the view as CSV
type ChartStep struct {
	BaseStage
	spec     domain.ChartSpec
	renderer charts.Renderer
	csv      *exporter.CSVWriter
	paths    *config.Paths
	metrics  *infrastructure.PipelineMetrics
	logger   *slog.Logger
}

// NewChartStep creates the step of a chart job. A nil csv writer disables the CSV export.
func NewChartStep(spec domain.ChartSpec, renderer charts.Renderer, csv *exporter.CSVWriter, paths *config.Paths, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *ChartStep {
	return &ChartStep{
		BaseStage: NewBaseStage(ChartStepID(spec.Name), fmt.Sprintf("Chart %s", spec.Name)),
		spec:      spec,
		renderer:  renderer,
		csv:       csv,
		paths:     paths,
		metrics:   metrics,
		logger:    logger,
	}
}

// Spec returns the chart job
func (s *ChartStep) Spec() domain.ChartSpec {
	return s.spec
}

// Validate checks the chart job against the cleaned table
func (s *ChartStep) Validate(state *OperationState) error {
	if err := s.spec.RequiredColumns(); err != nil {
		return apperrors.NewConfigError("invalid chart job", err)
	}

	cleaned := state.Cleaned()
	if cleaned == nil || state.Selector() == nil {
		return NewInvalidStateError(s.ID(), "cleaned table not available")
	}

	columns := []string{s.spec.X, s.spec.Group}
	columns = append(columns, s.spec.Y...)
	for col := range s.spec.Filter {
		columns = append(columns, col)
	}
	for _, col := range columns {
		if col == "" {
			continue
		}
		if _, err := cleaned.ColumnIndex(col); err != nil {
			return err
		}
	}
	return nil
}

// Execute renders the chart job
func (s *ChartStep) Execute(ctx context.Context, state *OperationState) (err error) {
	defer func() {
		infrastructure.RecordChartMetrics(ctx, s.metrics, s.spec.Name, string(s.spec.Kind), err)
	}()

	sub, err := state.Selector().Select(ctx, dataprocessing.Predicates(s.spec.Filter))
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RowsSelected.Add(ctx, int64(sub.Len()))
	}

	req, frame, err := s.derive(sub)
	if err != nil {
		return err
	}

	artifact, err := s.renderer.Render(ctx, req)
	if err != nil {
		return err
	}
	state.AddArtifact(artifact)
	state.SetFrame(s.spec.Name, frame)

	if st := state.GetStage(s.ID()); st != nil {
		st.SetMetadata("rows_selected", sub.Len())
		st.SetMetadata("path", artifact.Path)
		st.SetMetadata("no_data", artifact.NoData)
	}

	if s.csv != nil {
		path := s.paths.GetTablePath(s.spec.Name)
		if err := s.csv.WriteFrame(ctx, path, frame); err != nil {
			return err
		}
		state.AddTable(path)
	}

	s.logger.InfoContext(ctx, "chart job finished",
		slog.String("chart", s.spec.Name),
		slog.String("kind", string(s.spec.Kind)),
		slog.String("filter", s.spec.FilterKey()),
		slog.Int("rows_selected", sub.Len()),
		slog.Bool("no_data", artifact.NoData))
	return nil
}

// derive computes the view the chart kind draws and its flattened form
func (s *ChartStep) derive(sub *dataprocessing.Table) (charts.Request, exporter.Frame, error) {
	spec := s.spec
	req := charts.Request{
		Name:   spec.Name,
		Kind:   spec.Kind,
		Title:  spec.Title,
		XLabel: spec.XLabel,
		YLabel: spec.YLabel,
	}
	value := spec.Y[0]

	switch spec.Kind {
	case domain.ChartKindTimeSeries, domain.ChartKindScatter:
		series, err := s.series(sub)
		if err != nil {
			return req, exporter.Frame{}, err
		}
		req.Series = series
		return req, exporter.SeriesFrame(spec.Name, series), nil

	case domain.ChartKindGroupedBar:
		grouped, err := dataprocessing.GroupMean(sub, spec.Group, value)
		if err != nil {
			return req, exporter.Frame{}, err
		}
		req.Grouped = grouped
		return req, exporter.GroupedFrame(spec.Name, grouped), nil

	case domain.ChartKindBoxPlot:
		dist, err := dataprocessing.Distribute(sub, spec.Group, value)
		if err != nil {
			return req, exporter.Frame{}, err
		}
		req.Distribution = dist
		return req, exporter.DistributionFrame(spec.Name, dist), nil

	case domain.ChartKindHeatmap:
		pivot, err := dataprocessing.Pivot(sub, spec.Group, spec.X, value)
		if err != nil {
			return req, exporter.Frame{}, err
		}
		req.Pivot = pivot
		return req, exporter.PivotFrame(spec.Name, pivot), nil
	}

	return req, exporter.Frame{}, apperrors.NewConfigError(fmt.Sprintf("chart %s: unknown kind %q", spec.Name, spec.Kind), nil)
}

// series returns one series per Y column, or one per group key of Y[0] when a group is set
func (s *ChartStep) series(sub *dataprocessing.Table) ([]*dataprocessing.Series, error) {
	if s.spec.Group != "" {
		return dataprocessing.XYByGroup(sub, s.spec.X, s.spec.Y[0], s.spec.Group)
	}

	out := make([]*dataprocessing.Series, 0, len(s.spec.Y))
	for _, y := range s.spec.Y {
		series, err := dataprocessing.XY(sub, s.spec.X, y)
		if err != nil {
			return nil, err
		}
		out = append(out, series)
	}
	return out, nil
}

// ExportStep writes the views of every chart job into one workbook
type ExportStep struct {
	BaseStage
	writer *exporter.WorkbookWriter
	path   string
	charts []string
}

// NewExportStep creates the workbook step for the given chart jobs, in sheet order
func NewExportStep(writer *exporter.WorkbookWriter, path string, charts []string) *ExportStep {
	return &ExportStep{
		BaseStage: NewBaseStage(StepIDExport, "Export workbook"),
		writer:    writer,
		path:      path,
		charts:    charts,
	}
}

// Validate checks that every chart job produced its view
func (s *ExportStep) Validate(state *OperationState) error {
	for _, name := range s.charts {
		if _, ok := state.Frame(name); !ok {
			return NewInvalidStateError(s.ID(), fmt.Sprintf("view of chart %s not available", name))
		}
	}
	return nil
}

// Execute writes the workbook
func (s *ExportStep) Execute(ctx context.Context, state *OperationState) error {
	frames := make([]exporter.Frame, 0, len(s.charts))
	for _, name := range s.charts {
		frame, _ := state.Frame(name)
		frames = append(frames, frame)
	}

	if err := s.writer.Write(ctx, s.path, frames); err != nil {
		return err
	}
	state.SetWorkbook(s.path)
	return nil
}
