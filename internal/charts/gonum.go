package charts

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"pricecharts/internal/dataprocessing"
	apperrors "pricecharts/internal/errors"
	"pricecharts/pkg/contracts/domain"
)

// figure sizes per kind
var figureSizes = map[domain.ChartKind][2]vg.Length{
	domain.ChartKindTimeSeries: {14 * vg.Inch, 7 * vg.Inch},
	domain.ChartKindGroupedBar: {14 * vg.Inch, 8 * vg.Inch},
	domain.ChartKindBoxPlot:    {14 * vg.Inch, 8 * vg.Inch},
	domain.ChartKindHeatmap:    {14 * vg.Inch, 10 * vg.Inch},
	domain.ChartKindScatter:    {12 * vg.Inch, 8 * vg.Inch},
}

const heatmapColors = 64

// GonumRenderer draws charts with gonum/plot and saves them as PNG files in a directory
type GonumRenderer struct {
	outputDir string
	logger    *slog.Logger
}

// NewGonumRenderer creates a renderer writing to outputDir
func NewGonumRenderer(outputDir string, logger *slog.Logger) *GonumRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &GonumRenderer{
		outputDir: outputDir,
		logger:    logger,
	}
}

// Path returns the file a chart of the given name is written to
func (r *GonumRenderer) Path(name string) string {
	return filepath.Join(r.outputDir, name+".png")
}

// Render draws req and writes <name>.png. Empty views produce a "no data"
// chart rather than an error.
func (r *GonumRenderer) Render(ctx context.Context, req Request) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}
	if req.Name == "" {
		return Artifact{}, apperrors.NewRenderError(req.Name, fmt.Errorf("chart name is empty"))
	}

	p := plot.New()
	p.Title.Text = req.Title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = req.XLabel
	p.Y.Label.Text = req.YLabel

	var (
		drawn bool
		err   error
	)
	switch req.Kind {
	case domain.ChartKindTimeSeries:
		drawn, err = drawLines(p, req.Series)
	case domain.ChartKindGroupedBar:
		drawn, err = drawBars(p, req.Grouped)
	case domain.ChartKindBoxPlot:
		drawn, err = drawBoxes(p, req.Distribution)
	case domain.ChartKindHeatmap:
		drawn, err = drawHeatMap(p, req.Pivot)
	case domain.ChartKindScatter:
		drawn, err = drawScatter(p, req.Series)
	default:
		err = fmt.Errorf("unsupported chart kind %q", req.Kind)
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "chart drawing failed",
			slog.String("chart", req.Name),
			slog.String("kind", string(req.Kind)),
			slog.String("error", err.Error()))
		return Artifact{}, apperrors.NewRenderError(req.Name, err)
	}

	if !drawn {
		p = noDataPlot(req)
	}

	path := r.Path(req.Name)
	size, ok := figureSizes[req.Kind]
	if !ok {
		size = [2]vg.Length{12 * vg.Inch, 8 * vg.Inch}
	}
	if err := p.Save(size[0], size[1], path); err != nil {
		return Artifact{}, apperrors.NewStorageError(fmt.Sprintf("failed to save chart %s", path), err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Artifact{}, apperrors.NewStorageError(fmt.Sprintf("failed to stat chart %s", path), err)
	}

	r.logger.InfoContext(ctx, "chart rendered",
		slog.String("chart", req.Name),
		slog.String("kind", string(req.Kind)),
		slog.String("path", path),
		slog.Bool("no_data", !drawn))

	return Artifact{
		Name:   req.Name,
		Kind:   req.Kind,
		Path:   path,
		Bytes:  info.Size(),
		NoData: !drawn,
	}, nil
}

// noDataPlot is the placeholder drawn for empty views
func noDataPlot(req Request) *plot.Plot {
	p := plot.New()
	p.Title.Text = req.Title
	p.X.Label.Text = req.XLabel
	p.Y.Label.Text = req.YLabel
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.HideAxes()

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    []plotter.XY{{X: 0.5, Y: 0.5}},
		Labels: []string{"no data"},
	})
	if err == nil {
		labels.TextStyle[0].Font.Size = vg.Points(24)
		labels.TextStyle[0].XAlign = draw.XCenter
		p.Add(labels)
	}
	return p
}

func toXYs(points []dataprocessing.Point) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = pt.X
		xys[i].Y = pt.Y
	}
	return xys
}

// drawLines adds one line per series; time x axes get date ticks
func drawLines(p *plot.Plot, series []*dataprocessing.Series) (bool, error) {
	drawn := false
	for i, s := range series {
		if s == nil || len(s.Points) == 0 {
			continue
		}
		line, err := plotter.NewLine(toXYs(s.Points))
		if err != nil {
			return false, err
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(s.Label, line)
		drawn = true

		if s.XType == dataprocessing.TypeTime {
			p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
		} else if s.XType == dataprocessing.TypeString {
			p.NominalX(s.Categories...)
		}
	}
	if drawn {
		p.Add(plotter.NewGrid())
		p.Legend.Top = true
	}
	return drawn, nil
}

// drawBars adds one bar per group with a mean; absent means are left out
func drawBars(p *plot.Plot, grouped *dataprocessing.GroupedResult) (bool, error) {
	if grouped == nil {
		return false, nil
	}

	var (
		values plotter.Values
		names  []string
	)
	for _, g := range grouped.Groups {
		if !g.Valid {
			continue
		}
		values = append(values, g.Mean)
		names = append(names, g.Key.String())
	}
	if len(values) == 0 {
		return false, nil
	}

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return false, err
	}
	bars.Color = color.RGBA{R: 135, G: 206, B: 235, A: 255}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)

	p.NominalX(names...)
	rotateXLabels(p)
	p.Y.Min = math.Min(0, p.Y.Min)
	return true, nil
}

// drawBoxes adds one box per key with values
func drawBoxes(p *plot.Plot, dist *dataprocessing.Distribution) (bool, error) {
	if dist == nil {
		return false, nil
	}

	var names []string
	for _, box := range dist.Boxes {
		if !box.Valid {
			continue
		}
		b, err := plotter.NewBoxPlot(vg.Points(20), float64(len(names)), plotter.Values(box.Values))
		if err != nil {
			return false, err
		}
		b.FillColor = plotutil.Color(len(names))
		p.Add(b)
		names = append(names, box.Key.String())
	}
	if len(names) == 0 {
		return false, nil
	}

	p.NominalX(names...)
	rotateXLabels(p)
	return true, nil
}

// drawScatter adds one glyph set per series; categorical x axes are nominal
func drawScatter(p *plot.Plot, series []*dataprocessing.Series) (bool, error) {
	drawn := false
	for i, s := range series {
		if s == nil || len(s.Points) == 0 {
			continue
		}
		scatter, err := plotter.NewScatter(toXYs(s.Points))
		if err != nil {
			return false, err
		}
		scatter.GlyphStyle.Color = plotutil.Color(i)
		scatter.GlyphStyle.Shape = plotutil.Shape(i)
		scatter.GlyphStyle.Radius = vg.Points(4)
		p.Add(scatter)
		p.Legend.Add(s.Label, scatter)

		if !drawn && s.XType == dataprocessing.TypeString {
			p.NominalX(s.Categories...)
		}
		if !drawn && s.XType == dataprocessing.TypeTime {
			p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
		}
		drawn = true
	}
	if drawn {
		p.Add(plotter.NewGrid())
		p.Legend.Top = true
	}
	return drawn, nil
}

// drawHeatMap colours every present pivot cell and prints its mean
func drawHeatMap(p *plot.Plot, m *dataprocessing.PivotMatrix) (bool, error) {
	if m == nil {
		return false, nil
	}
	grid := newPivotGrid(m)
	if !grid.valid {
		return false, nil
	}

	cm := moreland.SmoothBlueRed()
	cm.SetMin(grid.min)
	cm.SetMax(grid.max)
	if grid.min == grid.max {
		cm.SetMax(grid.max + 1)
	}

	h := plotter.NewHeatMap(grid, cm.Palette(heatmapColors))
	h.Min = cm.Min()
	h.Max = cm.Max()
	h.NaN = color.Transparent
	p.Add(h)

	var (
		xys    plotter.XYs
		labels []string
	)
	rows, cols := m.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cell, ok := m.At(r, c)
			if !ok {
				continue
			}
			xys = append(xys, plotter.XY{X: float64(c), Y: float64(r)})
			labels = append(labels, fmt.Sprintf("%.1f", cell.Mean))
		}
	}
	annotations, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return false, err
	}
	for i := range annotations.TextStyle {
		annotations.TextStyle[i].XAlign = draw.XCenter
		annotations.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(annotations)

	colNames := make([]string, cols)
	for c, k := range m.ColKeys {
		colNames[c] = k.String()
	}
	rowNames := make([]string, rows)
	for r, k := range m.RowKeys {
		rowNames[r] = k.String()
	}
	p.NominalX(colNames...)
	p.NominalY(rowNames...)
	rotateXLabels(p)
	return true, nil
}

func rotateXLabels(p *plot.Plot) {
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
}

// pivotGrid adapts a PivotMatrix to plotter.GridXYZ. Absent cells are NaN.
type pivotGrid struct {
	m        *dataprocessing.PivotMatrix
	min, max float64
	valid    bool
}

func newPivotGrid(m *dataprocessing.PivotMatrix) *pivotGrid {
	g := &pivotGrid{m: m, min: math.Inf(1), max: math.Inf(-1)}
	rows, cols := m.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if cell, ok := m.At(r, c); ok {
				g.min = math.Min(g.min, cell.Mean)
				g.max = math.Max(g.max, cell.Mean)
				g.valid = true
			}
		}
	}
	return g
}

func (g *pivotGrid) Dims() (c, r int) {
	rows, cols := g.m.Dims()
	return cols, rows
}

func (g *pivotGrid) Z(c, r int) float64 {
	if cell, ok := g.m.At(r, c); ok {
		return cell.Mean
	}
	return math.NaN()
}

func (g *pivotGrid) X(c int) float64 { return float64(c) }

func (g *pivotGrid) Y(r int) float64 { return float64(r) }

func (g *pivotGrid) Min() float64 { return g.min }

func (g *pivotGrid) Max() float64 { return g.max }
