package dataprocessing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var testNullMarkers = []string{"NA", "N/A", "NaN", "nan", "null", "NULL", "None"}

// writeFile writes content to name inside a fresh temp dir and returns the path
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// mustTable builds a table from columns and rows, failing the test on a bad row
func mustTable(t *testing.T, columns []Column, rows ...[]Value) *Table {
	t.Helper()
	table := NewTable(columns)
	for _, row := range rows {
		require.NoError(t, table.AppendRow(row))
	}
	return table
}

// num returns a present number, or a missing one for nil
func num(f *float64) Value {
	if f == nil {
		return Missing(TypeNumber)
	}
	return NumberValue(*f)
}

func f64(f float64) *float64 { return &f }

func str(s string) Value {
	if s == "" {
		return Missing(TypeString)
	}
	return StringValue(s)
}

// priceTable is the ten-row city/price table used across the derivation tests:
// cities alternate A, B and the fourth price is missing.
func priceTable(t *testing.T) *Table {
	t.Helper()
	prices := []*float64{f64(1), f64(2), f64(3), nil, f64(5), f64(6), f64(7), f64(8), f64(9), f64(10)}
	columns := []Column{
		{Name: "City Name", Type: TypeString},
		{Name: "Variety", Type: TypeString},
		{Name: "Low Price", Type: TypeNumber},
	}
	rows := make([][]Value, len(prices))
	for i, p := range prices {
		city := "A"
		if i%2 == 1 {
			city = "B"
		}
		rows[i] = []Value{str(city), str("HOWDEN TYPE"), num(p)}
	}
	return mustTable(t, columns, rows...)
}
