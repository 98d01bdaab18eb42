package dataprocessing

import (
	"gonum.org/v1/gonum/stat"
)

// Cell is one pivot aggregate. Valid == false marks an absent cell, which is
// distinct from a mean of zero.
type Cell struct {
	Mean  float64
	Count int
	Valid bool
}

// PivotMatrix is a dense cross-tabulation: every (row key, column key) pair has a slot
type PivotMatrix struct {
	RowColumn   string
	ColColumn   string
	ValueColumn string
	RowKeys     []Value
	ColKeys     []Value
	cells       []Cell
}

// Dims returns the number of row and column keys
func (m *PivotMatrix) Dims() (rows, cols int) {
	return len(m.RowKeys), len(m.ColKeys)
}

// At returns the cell at row r and column c. The bool is false when the cell
// is absent or the position is out of range.
func (m *PivotMatrix) At(r, c int) (Cell, bool) {
	if r < 0 || r >= len(m.RowKeys) || c < 0 || c >= len(m.ColKeys) {
		return Cell{}, false
	}
	cell := m.cells[r*len(m.ColKeys)+c]
	return cell, cell.Valid
}

// Lookup returns the cell addressed by the canonical text of its keys
func (m *PivotMatrix) Lookup(rowKey, colKey string) (Cell, bool) {
	r, c := indexOf(m.RowKeys, rowKey), indexOf(m.ColKeys, colKey)
	if r < 0 || c < 0 {
		return Cell{}, false
	}
	return m.At(r, c)
}

func indexOf(keys []Value, text string) int {
	for i, k := range keys {
		if k.String() == text {
			return i
		}
	}
	return -1
}

// Pivot cross-tabulates rowColumn against colColumn with the mean of
// valueColumn. Row and column keys are the sorted distinct present values of
// their columns across the whole table.
func Pivot(t *Table, rowColumn, colColumn, valueColumn string) (*PivotMatrix, error) {
	rIdx, err := t.ColumnIndex(rowColumn)
	if err != nil {
		return nil, err
	}
	cIdx, err := t.ColumnIndex(colColumn)
	if err != nil {
		return nil, err
	}
	vIdx, err := t.numericColumnIndex(valueColumn)
	if err != nil {
		return nil, err
	}

	m := &PivotMatrix{
		RowColumn:   rowColumn,
		ColColumn:   colColumn,
		ValueColumn: valueColumn,
		RowKeys:     distinctAt(t, rIdx),
		ColKeys:     distinctAt(t, cIdx),
	}
	m.cells = make([]Cell, len(m.RowKeys)*len(m.ColKeys))
	if len(m.cells) == 0 {
		return m, nil
	}

	rowPos := positions(m.RowKeys)
	colPos := positions(m.ColKeys)
	values := make([][]float64, len(m.cells))

	for _, row := range t.Rows {
		rk, ck, v := row[rIdx], row[cIdx], row[vIdx]
		if !rk.Valid || !ck.Valid {
			continue
		}
		slot := rowPos[rk.key()]*len(m.ColKeys) + colPos[ck.key()]
		if v.Valid {
			values[slot] = append(values[slot], v.Num)
		}
	}

	for i, vs := range values {
		if len(vs) == 0 {
			continue
		}
		m.cells[i] = Cell{Mean: stat.Mean(vs, nil), Count: len(vs), Valid: true}
	}

	return m, nil
}

func positions(keys []Value) map[string]int {
	pos := make(map[string]int, len(keys))
	for i, k := range keys {
		pos[k.key()] = i
	}
	return pos
}
