// Package charts draws the derived views of a run as image files.
//
// The pipeline only depends on the Renderer interface; GonumRenderer is the
// implementation used by the CLI.
package charts

import (
	"context"

	"pricecharts/internal/dataprocessing"
	"pricecharts/pkg/contracts/domain"
)

// Request carries one prepared view and how to label it. Exactly the input
// matching Kind is read:
//
//	time_series  Series (one line per series)
//	grouped_bar  Grouped
//	boxplot      Distribution
//	heatmap      Pivot
//	scatter      Series (one glyph set per series)
type Request struct {
	Name   string
	Kind   domain.ChartKind
	Title  string
	XLabel string
	YLabel string

	Series       []*dataprocessing.Series
	Grouped      *dataprocessing.GroupedResult
	Distribution *dataprocessing.Distribution
	Pivot        *dataprocessing.PivotMatrix
}

// Artifact describes a written chart
type Artifact struct {
	Name   string
	Kind   domain.ChartKind
	Path   string
	Bytes  int64
	NoData bool // the view was empty and a placeholder was drawn
}

// Renderer turns a prepared view into an image artifact
type Renderer interface {
	Render(ctx context.Context, req Request) (Artifact, error)
}
