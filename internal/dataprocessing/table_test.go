package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pricecharts/internal/errors"
)

func TestValue_String(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"integer number", NumberValue(24), "24"},
		{"fractional number", NumberValue(1.5), "1.5"},
		{"string", StringValue("BOSTON"), "BOSTON"},
		{"date", TimeValue(time.Date(2016, 9, 24, 0, 0, 0, 0, time.UTC)), "2016-09-24"},
		{"timestamp", TimeValue(time.Date(2016, 9, 24, 13, 5, 0, 0, time.UTC)), "2016-09-24T13:05:00Z"},
		{"missing", Missing(TypeNumber), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.String())
		})
	}
}

func TestCompare(t *testing.T) {
	early := TimeValue(time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC))
	late := TimeValue(time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, -1, Compare(NumberValue(2), NumberValue(10)), "numbers compare numerically")
	assert.Equal(t, 1, Compare(StringValue("b"), StringValue("a")))
	assert.Equal(t, -1, Compare(early, late))
	assert.Equal(t, 0, Compare(NumberValue(3), NumberValue(3)))
	assert.Equal(t, -1, Compare(Missing(TypeNumber), NumberValue(-100)), "missing sorts first")
	assert.Equal(t, 0, Compare(Missing(TypeString), Missing(TypeString)))
}

func TestParseColumnType(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want ColumnType
	}{
		{"string", TypeString},
		{"Number", TypeNumber},
		{" time ", TypeTime},
	} {
		got, err := ParseColumnType(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, got.String(), tt.want.String())
	}

	_, err := ParseColumnType("blob")
	assert.Error(t, err)
}

func TestTable_AppendRow(t *testing.T) {
	table := NewTable([]Column{{Name: "a", Type: TypeString}, {Name: "b", Type: TypeNumber}})

	assert.NoError(t, table.AppendRow([]Value{StringValue("x"), Missing(TypeNumber)}))
	assert.Error(t, table.AppendRow([]Value{StringValue("x")}), "short row")
	assert.Error(t, table.AppendRow([]Value{StringValue("x"), StringValue("1")}), "wrong type")
	assert.Equal(t, 1, table.Len())
}

func TestTable_ColumnLookups(t *testing.T) {
	table := priceTable(t)

	idx, err := table.ColumnIndex("Low Price")
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	_, err = table.ColumnIndex("High Price")
	assert.ErrorIs(t, err, apperrors.ErrInvalidColumn)

	distinct, err := table.Distinct("City Name")
	require.NoError(t, err)
	assert.Equal(t, []Value{StringValue("A"), StringValue("B")}, distinct)

	values, err := table.Values("Low Price")
	require.NoError(t, err)
	assert.Len(t, values, 10)
	assert.False(t, values[3].Valid)

	assert.Equal(t, map[string]int{"City Name": 0, "Variety": 0, "Low Price": 1}, table.MissingCount())
	assert.Equal(t, []string{"City Name", "Variety", "Low Price"}, table.ColumnNames())
}

func TestTable_CloneIsDeep(t *testing.T) {
	table := priceTable(t)
	clone := table.Clone()

	clone.Rows[0][0] = StringValue("Z")
	clone.Columns[0].Name = "renamed"

	assert.Equal(t, "A", table.Rows[0][0].String())
	assert.Equal(t, "City Name", table.Columns[0].Name)
}
