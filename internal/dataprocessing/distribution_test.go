package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pricecharts/internal/errors"
)

func TestDistribute(t *testing.T) {
	d, err := Distribute(priceTable(t), "City Name", "Low Price")
	require.NoError(t, err)
	require.Len(t, d.Boxes, 2)

	a := d.Boxes[0]
	assert.Equal(t, "A", a.Key.String())
	assert.True(t, a.Valid)
	assert.Equal(t, []float64{1, 3, 5, 7, 9}, a.Values)
	assert.Equal(t, 1.0, a.Min)
	assert.Equal(t, 9.0, a.Max)
	assert.LessOrEqual(t, a.Min, a.Q1)
	assert.LessOrEqual(t, a.Q1, a.Median)
	assert.LessOrEqual(t, a.Median, a.Q3)
	assert.LessOrEqual(t, a.Q3, a.Max)

	b := d.Boxes[1]
	assert.Equal(t, []float64{2, 6, 8, 10}, b.Values, "missing values are dropped")
}

func TestDistribute_EmptyAndAbsent(t *testing.T) {
	table := mustTable(t, []Column{{Name: "g", Type: TypeString}, {Name: "v", Type: TypeNumber}},
		[]Value{str("x"), Missing(TypeNumber)},
	)

	d, err := Distribute(table, "g", "v")
	require.NoError(t, err)
	require.Len(t, d.Boxes, 1)
	assert.False(t, d.Boxes[0].Valid)

	d, err = Distribute(NewTable(table.Columns), "g", "v")
	require.NoError(t, err)
	assert.Empty(t, d.Boxes)

	_, err = Distribute(table, "g", "g")
	assert.ErrorIs(t, err, apperrors.ErrInvalidColumn)
}
