package dataprocessing

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Box summarises the present values of one key
type Box struct {
	Key    Value
	Values []float64 // sorted ascending
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
	Valid  bool // false when the key has no present values
}

// Distribution holds one box per distinct present key, sorted by key
type Distribution struct {
	GroupColumn string
	ValueColumn string
	Boxes       []Box
}

// Distribute collects the present values of valueColumn per key of groupColumn
// and computes their quartiles with linear interpolation.
func Distribute(t *Table, groupColumn, valueColumn string) (*Distribution, error) {
	gIdx, err := t.ColumnIndex(groupColumn)
	if err != nil {
		return nil, err
	}
	vIdx, err := t.numericColumnIndex(valueColumn)
	if err != nil {
		return nil, err
	}

	keys := distinctAt(t, gIdx)
	pos := positions(keys)
	values := make([][]float64, len(keys))
	for _, row := range t.Rows {
		k, v := row[gIdx], row[vIdx]
		if !k.Valid || !v.Valid {
			continue
		}
		i := pos[k.key()]
		values[i] = append(values[i], v.Num)
	}

	d := &Distribution{
		GroupColumn: groupColumn,
		ValueColumn: valueColumn,
		Boxes:       make([]Box, len(keys)),
	}
	for i, key := range keys {
		d.Boxes[i] = newBox(key, values[i])
	}
	return d, nil
}

func newBox(key Value, vs []float64) Box {
	box := Box{Key: key, Values: vs}
	if len(vs) == 0 {
		return box
	}
	sort.Float64s(vs)
	box.Valid = true
	box.Min = vs[0]
	box.Max = vs[len(vs)-1]
	box.Q1 = stat.Quantile(0.25, stat.LinInterp, vs, nil)
	box.Median = stat.Quantile(0.5, stat.LinInterp, vs, nil)
	box.Q3 = stat.Quantile(0.75, stat.LinInterp, vs, nil)
	return box
}
