package exporter

import (
	"fmt"
	"strconv"
	"time"

	"pricecharts/internal/dataprocessing"
)

// Frame is a flattened view: one header row and rows of cells. A cell is nil
// (absent), string, float64, int or time.Time.
type Frame struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// GroupedFrame flattens a group-mean result, one row per group
func GroupedFrame(name string, g *dataprocessing.GroupedResult) Frame {
	frame := Frame{
		Name:    name,
		Headers: []string{g.GroupColumn, "mean " + g.ValueColumn, "rows", "values"},
	}
	for _, grp := range g.Groups {
		var mean interface{}
		if grp.Valid {
			mean = grp.Mean
		}
		frame.Rows = append(frame.Rows, []interface{}{cellValue(grp.Key), mean, grp.Rows, grp.Count})
	}
	return frame
}

// PivotFrame flattens a pivot matrix, one row per row key and one column per column key
func PivotFrame(name string, m *dataprocessing.PivotMatrix) Frame {
	frame := Frame{
		Name:    name,
		Headers: []string{m.RowColumn + " / " + m.ColColumn},
	}
	for _, k := range m.ColKeys {
		frame.Headers = append(frame.Headers, k.String())
	}

	rows, cols := m.Dims()
	for r := 0; r < rows; r++ {
		row := make([]interface{}, 0, cols+1)
		row = append(row, cellValue(m.RowKeys[r]))
		for c := 0; c < cols; c++ {
			if cell, ok := m.At(r, c); ok {
				row = append(row, cell.Mean)
			} else {
				row = append(row, nil)
			}
		}
		frame.Rows = append(frame.Rows, row)
	}
	return frame
}

// DistributionFrame flattens box statistics, one row per key
func DistributionFrame(name string, d *dataprocessing.Distribution) Frame {
	frame := Frame{
		Name:    name,
		Headers: []string{d.GroupColumn, "count", "min", "q1", "median", "q3", "max"},
	}
	for _, box := range d.Boxes {
		row := []interface{}{cellValue(box.Key), len(box.Values), nil, nil, nil, nil, nil}
		if box.Valid {
			row[2], row[3], row[4], row[5], row[6] = box.Min, box.Q1, box.Median, box.Q3, box.Max
		}
		frame.Rows = append(frame.Rows, row)
	}
	return frame
}

// SeriesFrame flattens series into long form: series label, x, y
func SeriesFrame(name string, series []*dataprocessing.Series) Frame {
	frame := Frame{Name: name, Headers: []string{"series", "x", "y"}}
	if len(series) > 0 {
		frame.Headers[1] = series[0].XColumn
		frame.Headers[2] = series[0].YColumn
	}
	for _, s := range series {
		for _, pt := range s.Points {
			frame.Rows = append(frame.Rows, []interface{}{s.Label, seriesX(s, pt.X), pt.Y})
		}
	}
	return frame
}

// TableFrame flattens a table as is
func TableFrame(name string, t *dataprocessing.Table) Frame {
	frame := Frame{Name: name, Headers: t.ColumnNames()}
	for _, row := range t.Rows {
		out := make([]interface{}, len(row))
		for j, v := range row {
			out[j] = cellValue(v)
		}
		frame.Rows = append(frame.Rows, out)
	}
	return frame
}

// seriesX maps a plotted x back to the value it came from
func seriesX(s *dataprocessing.Series, x float64) interface{} {
	switch s.XType {
	case dataprocessing.TypeString:
		i := int(x)
		if i >= 0 && i < len(s.Categories) {
			return s.Categories[i]
		}
		return nil
	case dataprocessing.TypeTime:
		return time.Unix(int64(x), 0).UTC()
	default:
		return x
	}
}

func cellValue(v dataprocessing.Value) interface{} {
	if !v.Valid {
		return nil
	}
	switch v.Type {
	case dataprocessing.TypeNumber:
		return v.Num
	case dataprocessing.TypeTime:
		return v.Time
	default:
		return v.Str
	}
}

// formatCell renders a frame cell as CSV text. Absent cells are empty.
func formatCell(c interface{}) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return formatFloat(v)
	case int:
		return strconv.Itoa(v)
	case time.Time:
		return dataprocessing.TimeValue(v).String()
	default:
		return fmt.Sprint(v)
	}
}

// formatFloat uses the shortest representation that round-trips
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatRecord renders a frame row as CSV text
func formatRecord(row []interface{}) []string {
	record := make([]string, len(row))
	for i, c := range row {
		record[i] = formatCell(c)
	}
	return record
}
