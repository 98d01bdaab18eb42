package dataprocessing

import (
	apperrors "pricecharts/internal/errors"
)

// Point is one (x, y) observation
type Point struct {
	X float64
	Y float64
}

// Series is an ordered list of points drawn from two columns. When the x
// column holds strings, X is the index of the row's label in Categories.
type Series struct {
	Label      string
	XColumn    string
	YColumn    string
	XType      ColumnType
	Categories []string
	Points     []Point
}

// XY returns the points of xColumn against yColumn in row order, skipping rows
// where either value is missing. Time x values are Unix seconds.
func XY(t *Table, xColumn, yColumn string) (*Series, error) {
	series, err := XYByGroup(t, xColumn, yColumn, "")
	if err != nil {
		return nil, err
	}
	return series[0], nil
}

// XYByGroup is XY split into one series per key of groupColumn, sorted by key.
// Categorical x positions are shared by all series. An empty groupColumn
// yields a single series labelled with yColumn.
func XYByGroup(t *Table, xColumn, yColumn, groupColumn string) ([]*Series, error) {
	xIdx, err := t.ColumnIndex(xColumn)
	if err != nil {
		return nil, err
	}
	yIdx, err := t.numericColumnIndex(yColumn)
	if err != nil {
		return nil, err
	}
	if yIdx == xIdx {
		return nil, apperrors.NewInvalidColumnError(yColumn, "is used for both axes")
	}

	gIdx := -1
	if groupColumn != "" {
		if gIdx, err = t.ColumnIndex(groupColumn); err != nil {
			return nil, err
		}
	}

	xType := t.Columns[xIdx].Type
	var categories []string
	catPos := map[string]int{}
	if xType == TypeString {
		for i, v := range distinctAt(t, xIdx) {
			categories = append(categories, v.String())
			catPos[v.key()] = i
		}
	}

	newSeries := func(label string) *Series {
		return &Series{
			Label:      label,
			XColumn:    xColumn,
			YColumn:    yColumn,
			XType:      xType,
			Categories: categories,
			Points:     []Point{},
		}
	}

	if gIdx < 0 {
		s := newSeries(yColumn)
		for _, row := range t.Rows {
			if p, ok := point(row[xIdx], row[yIdx], catPos); ok {
				s.Points = append(s.Points, p)
			}
		}
		return []*Series{s}, nil
	}

	keys := distinctAt(t, gIdx)
	pos := positions(keys)
	out := make([]*Series, len(keys))
	for i, k := range keys {
		out[i] = newSeries(k.String())
	}
	for _, row := range t.Rows {
		k := row[gIdx]
		if !k.Valid {
			continue
		}
		if p, ok := point(row[xIdx], row[yIdx], catPos); ok {
			s := out[pos[k.key()]]
			s.Points = append(s.Points, p)
		}
	}
	return out, nil
}

func point(x, y Value, catPos map[string]int) (Point, bool) {
	if !x.Valid || !y.Valid {
		return Point{}, false
	}
	if x.Type == TypeString {
		return Point{X: float64(catPos[x.key()]), Y: y.Num}, true
	}
	xf, _ := x.Float()
	return Point{X: xf, Y: y.Num}, true
}
