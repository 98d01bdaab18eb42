package domain

import (
	"fmt"
	"sort"
	"strings"
)

// ChartKind selects the visual encoding a chart job is rendered with
type ChartKind string

const (
	ChartKindTimeSeries ChartKind = "time_series"
	ChartKindGroupedBar ChartKind = "grouped_bar"
	ChartKindBoxPlot    ChartKind = "boxplot"
	ChartKindHeatmap    ChartKind = "heatmap"
	ChartKindScatter    ChartKind = "scatter"
)

// ChartSpec describes one derived view and the chart drawn from it.
//
// Column roles per kind:
//
//	time_series  X = time column, Y = one or more numeric columns (one line each)
//	grouped_bar  Group = categorical column, Y[0] = numeric column averaged per group
//	boxplot      Group = categorical column, Y[0] = numeric column distributed per group
//	heatmap      Group = row dimension, X = column dimension, Y[0] = numeric measure
//	scatter      X = x column (numeric or categorical), Y[0] = numeric column, Group = optional series column
type ChartSpec struct {
	Name   string            `yaml:"name" json:"name" validate:"required,excludesall=/\\"`
	Kind   ChartKind         `yaml:"kind" json:"kind" validate:"required,oneof=time_series grouped_bar boxplot heatmap scatter"`
	Title  string            `yaml:"title" json:"title,omitempty"`
	Filter map[string]string `yaml:"filter" json:"filter,omitempty"`
	X      string            `yaml:"x" json:"x,omitempty"`
	Y      []string          `yaml:"y" json:"y" validate:"required,min=1,dive,required"`
	Group  string            `yaml:"group" json:"group,omitempty"`
	XLabel string            `yaml:"x_label" json:"x_label,omitempty"`
	YLabel string            `yaml:"y_label" json:"y_label,omitempty"`
}

// RequiredColumns checks that the columns the kind needs are set.
func (c ChartSpec) RequiredColumns() error {
	switch c.Kind {
	case ChartKindTimeSeries:
		if c.X == "" {
			return fmt.Errorf("chart %s: time_series requires x", c.Name)
		}
	case ChartKindGroupedBar, ChartKindBoxPlot:
		if c.Group == "" {
			return fmt.Errorf("chart %s: %s requires group", c.Name, c.Kind)
		}
	case ChartKindHeatmap:
		if c.Group == "" || c.X == "" {
			return fmt.Errorf("chart %s: heatmap requires group and x", c.Name)
		}
	case ChartKindScatter:
		if c.X == "" {
			return fmt.Errorf("chart %s: scatter requires x", c.Name)
		}
	}
	return nil
}

// FilterKey returns a canonical representation of the filter, stable across map orderings.
func (c ChartSpec) FilterKey() string {
	return PredicateKey(c.Filter)
}

// PredicateKey renders column=value pairs sorted by column.
func PredicateKey(p map[string]string) string {
	if len(p) == 0 {
		return ""
	}
	cols := make([]string, 0, len(p))
	for col := range p {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = fmt.Sprintf("%q=%q", col, p[col])
	}
	return strings.Join(parts, ",")
}
