package dataprocessing

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "pricecharts/internal/errors"
)

// ColumnType is the declared type of every value in a column
type ColumnType int

const (
	TypeString ColumnType = iota
	TypeNumber
	TypeTime
)

// String returns the config spelling of the type
func (t ColumnType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeTime:
		return "time"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// ParseColumnType maps a config spelling to a ColumnType
func ParseColumnType(s string) (ColumnType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string":
		return TypeString, nil
	case "number":
		return TypeNumber, nil
	case "time":
		return TypeTime, nil
	default:
		return TypeString, fmt.Errorf("unknown column type %q", s)
	}
}

// Value is one cell. Valid == false marks a missing cell; a missing cell still
// carries the type of its column.
type Value struct {
	Type  ColumnType
	Str   string
	Num   float64
	Time  time.Time
	Raw   string
	Valid bool
}

// StringValue returns a present string cell
func StringValue(s string) Value {
	return Value{Type: TypeString, Str: s, Raw: s, Valid: true}
}

// NumberValue returns a present numeric cell
func NumberValue(f float64) Value {
	return Value{Type: TypeNumber, Num: f, Raw: strconv.FormatFloat(f, 'f', -1, 64), Valid: true}
}

// TimeValue returns a present date/time cell
func TimeValue(t time.Time) Value {
	v := Value{Type: TypeTime, Time: t, Valid: true}
	v.Raw = v.String()
	return v
}

// Missing returns a missing cell of the given type
func Missing(t ColumnType) Value {
	return Value{Type: t}
}

// String returns the canonical text of the value. Numbers use the shortest
// representation ("24", "1.5"), dates without a clock part render as
// 2006-01-02 and other times as RFC 3339. Missing values render as "".
func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	switch v.Type {
	case TypeNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case TypeTime:
		if isMidnightUTC(v.Time) {
			return v.Time.Format("2006-01-02")
		}
		return v.Time.Format(time.RFC3339)
	default:
		return v.Str
	}
}

// Float returns the value on a numeric axis: numbers as is, times as Unix seconds
func (v Value) Float() (float64, bool) {
	if !v.Valid {
		return 0, false
	}
	switch v.Type {
	case TypeNumber:
		return v.Num, true
	case TypeTime:
		return float64(v.Time.Unix()), true
	default:
		return 0, false
	}
}

// key identifies the value within a single-typed column
func (v Value) key() string {
	if v.Valid && v.Type == TypeTime {
		return strconv.FormatInt(v.Time.UnixNano(), 10)
	}
	return v.String()
}

func isMidnightUTC(t time.Time) bool {
	if t.Location() != time.UTC {
		return false
	}
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}

// Compare orders values: missing first, then numbers numerically, times
// chronologically and strings lexically. Mixed types order by type.
func Compare(a, b Value) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return -1
	case !b.Valid:
		return 1
	}
	if a.Type != b.Type {
		if a.Type < b.Type {
			return -1
		}
		return 1
	}
	switch a.Type {
	case TypeNumber:
		switch {
		case a.Num < b.Num:
			return -1
		case a.Num > b.Num:
			return 1
		}
		return 0
	case TypeTime:
		return a.Time.Compare(b.Time)
	default:
		return strings.Compare(a.Str, b.Str)
	}
}

// Column names and types one table column
type Column struct {
	Name string
	Type ColumnType
}

// Table is an ordered sequence of rows over typed columns.
// Every row holds exactly len(Columns) values, each of its column's type.
type Table struct {
	Columns []Column
	Rows    [][]Value
}

// NewTable creates an empty table with the given columns
func NewTable(columns []Column) *Table {
	cols := make([]Column, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols, Rows: [][]Value{}}
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnNames returns the column names in order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the position of the named column, or an InvalidColumn error
func (t *Table) ColumnIndex(name string) (int, error) {
	for i, c := range t.Columns {
		if c.Name == name {
			return i, nil
		}
	}
	return -1, apperrors.NewInvalidColumnError(name, "does not exist in table")
}

// numericColumnIndex is ColumnIndex for columns that must hold numbers
func (t *Table) numericColumnIndex(name string) (int, error) {
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return -1, err
	}
	if t.Columns[idx].Type != TypeNumber {
		return -1, apperrors.NewInvalidColumnError(name,
			fmt.Sprintf("is not numeric (type %s)", t.Columns[idx].Type))
	}
	return idx, nil
}

// AppendRow adds a row after checking its width and cell types
func (t *Table) AppendRow(row []Value) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(row), len(t.Columns))
	}
	for j, v := range row {
		if v.Type != t.Columns[j].Type {
			return fmt.Errorf("column %q: value of type %s in %s column", t.Columns[j].Name, v.Type, t.Columns[j].Type)
		}
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	out := NewTable(t.Columns)
	out.Rows = make([][]Value, len(t.Rows))
	for i, row := range t.Rows {
		out.Rows[i] = append([]Value(nil), row...)
	}
	return out
}

// Values returns the cells of the named column in row order
func (t *Table) Values(name string) ([]Value, error) {
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// Distinct returns the sorted distinct non-missing values of the named column
func (t *Table) Distinct(name string) ([]Value, error) {
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	return distinctAt(t, idx), nil
}

func distinctAt(t *Table, idx int) []Value {
	seen := make(map[string]bool)
	var keys []Value
	for _, row := range t.Rows {
		v := row[idx]
		if !v.Valid || seen[v.key()] {
			continue
		}
		seen[v.key()] = true
		keys = append(keys, v)
	}
	sortValues(keys)
	return keys
}

func sortValues(vs []Value) {
	sort.SliceStable(vs, func(i, j int) bool {
		return Compare(vs[i], vs[j]) < 0
	})
}

// MissingCount returns the number of missing cells per column
func (t *Table) MissingCount() map[string]int {
	counts := make(map[string]int, len(t.Columns))
	for _, c := range t.Columns {
		counts[c.Name] = 0
	}
	for _, row := range t.Rows {
		for j, v := range row {
			if !v.Valid {
				counts[t.Columns[j].Name]++
			}
		}
	}
	return counts
}
