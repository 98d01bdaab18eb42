package dataprocessing

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "pricecharts/internal/errors"
	"pricecharts/internal/shared/testutil"
)

const pumpkinCSV = `City Name,Type,Package,Variety,Date,Low Price,High Price
BOSTON,,24 inch bins,HOWDEN TYPE,9/24/16,90,100
BOSTON,,36 inch bins,HOWDEN TYPE,9/24/16,NA,
NEW YORK,,24 inch bins,HOWDEN TYPE,9/30/16,120,150
`

func newTestLoader(t *testing.T, config LoaderConfig) *Loader {
	logger, _ := testutil.NewTestLogger(t)
	if config.NullMarkers == nil {
		config.NullMarkers = testNullMarkers
	}
	return NewLoader(logger, config)
}

func TestLoader_LoadCSV(t *testing.T) {
	path := writeFile(t, "US-pumpkins.csv", pumpkinCSV)

	table, err := newTestLoader(t, LoaderConfig{}).Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"City Name", "Type", "Package", "Variety", "Date", "Low Price", "High Price"}, table.ColumnNames())

	types := map[string]ColumnType{}
	for _, c := range table.Columns {
		types[c.Name] = c.Type
	}
	assert.Equal(t, TypeString, types["City Name"])
	assert.Equal(t, TypeString, types["Type"], "all-missing column stays string")
	assert.Equal(t, TypeString, types["Date"], "dates are not coerced at load time")
	assert.Equal(t, TypeNumber, types["Low Price"])
	assert.Equal(t, TypeNumber, types["High Price"])

	low, err := table.Values("Low Price")
	require.NoError(t, err)
	assert.Equal(t, 90.0, low[0].Num)
	assert.False(t, low[1].Valid, "NA is a null marker")
	assert.Equal(t, "NA", low[1].Raw)

	high, err := table.Values("High Price")
	require.NoError(t, err)
	assert.False(t, high[1].Valid, "empty field is missing")
	assert.Equal(t, TypeNumber, high[1].Type, "missing cells carry the column type")
}

func TestLoader_Options(t *testing.T) {
	t.Run("delimiter and BOM", func(t *testing.T) {
		path := writeFile(t, "prices.tsv", "\ufeffCity Name\tLow Price\nBOSTON\t5\n")

		table, err := newTestLoader(t, LoaderConfig{Delimiter: '\t'}).Load(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, []string{"City Name", "Low Price"}, table.ColumnNames())
	})

	t.Run("schema overrides inference", func(t *testing.T) {
		path := writeFile(t, "prices.csv", "Package,Low Price,Date\n24,5,2016-09-24\n36,6,2016-09-25\n")

		table, err := newTestLoader(t, LoaderConfig{
			Schema: map[string]ColumnType{"Package": TypeString, "Date": TypeTime},
		}).Load(context.Background(), path)
		require.NoError(t, err)

		assert.Equal(t, TypeString, table.Columns[0].Type)
		assert.Equal(t, TypeNumber, table.Columns[1].Type)
		assert.Equal(t, TypeTime, table.Columns[2].Type)
		assert.Equal(t, "2016-09-25", table.Rows[1][2].String())
	})

	t.Run("custom null markers", func(t *testing.T) {
		path := writeFile(t, "prices.csv", "Low Price\n-\n4\n")

		table, err := newTestLoader(t, LoaderConfig{NullMarkers: []string{"-"}}).Load(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, TypeNumber, table.Columns[0].Type)
		assert.False(t, table.Rows[0][0].Valid)
	})
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		config   LoaderConfig
		wantType *apperrors.AppError
		contains string
	}{
		{
			name:     "short row",
			content:  "a,b\n1,2\n3\n",
			wantType: apperrors.ErrMalformedInput,
			contains: "row 2",
		},
		{
			name:     "long row",
			content:  "a,b\n1,2,3\n",
			wantType: apperrors.ErrMalformedInput,
			contains: "row 1",
		},
		{
			name:     "empty file",
			content:  "",
			wantType: apperrors.ErrMalformedInput,
			contains: "missing header",
		},
		{
			name:     "duplicate header",
			content:  "a,a\n1,2\n",
			wantType: apperrors.ErrMalformedInput,
			contains: "duplicate",
		},
		{
			name:     "empty header name",
			content:  "a,\n1,2\n",
			wantType: apperrors.ErrMalformedInput,
		},
		{
			name:     "bad quoting",
			content:  "a,b\n\"1,2\n",
			wantType: apperrors.ErrMalformedInput,
		},
		{
			name:     "declared numeric column with text",
			content:  "a,Low Price\nx,1\ny,cheap\n",
			config:   LoaderConfig{Schema: map[string]ColumnType{"Low Price": TypeNumber}},
			wantType: apperrors.ErrTypeCoercion,
			contains: `"cheap"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "input.csv", tt.content)

			_, err := newTestLoader(t, tt.config).Load(context.Background(), path)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantType)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestLoader_NotFound(t *testing.T) {
	loader := newTestLoader(t, LoaderConfig{})

	_, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = loader.Load(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLoader_LoadWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.xlsx")

	f := excelize.NewFile()
	sheet := "Prices"
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	rows := [][]interface{}{
		{"City Name", "Variety", "Low Price", "Note"},
		{"BOSTON", "HOWDEN TYPE", 90, "first"},
		{"BOSTON", "HOWDEN TYPE", 100},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := newTestLoader(t, LoaderConfig{}).Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, TypeNumber, table.Columns[2].Type)
	assert.Equal(t, 100.0, table.Rows[1][2].Num)
	assert.False(t, table.Rows[1][3].Valid, "short workbook rows are padded with missing cells")

	_, err = newTestLoader(t, LoaderConfig{Sheet: "Nope"}).Load(context.Background(), path)
	assert.ErrorIs(t, err, apperrors.ErrMalformedInput)
}

func TestLoader_DeclaredNumericWithoutValues(t *testing.T) {
	schema := map[string]ColumnType{"Low Price": TypeNumber}

	tests := []struct {
		name     string
		csv      string
		wantRows int
	}{
		{
			name:     "every price missing",
			csv:      "City Name,Date,Low Price\nA,4/29/17,NA\nB,4/29/17,\n",
			wantRows: 2,
		},
		{
			name:     "header only",
			csv:      "City Name,Date,Low Price\n",
			wantRows: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "prices.csv", tt.csv)
			table, err := newTestLoader(t, LoaderConfig{Schema: schema}).Load(context.Background(), path)
			require.NoError(t, err)
			require.Equal(t, tt.wantRows, table.Len())

			idx, err := table.ColumnIndex("Low Price")
			require.NoError(t, err)
			assert.Equal(t, TypeNumber, table.Columns[idx].Type)

			cleaned, err := NewCleaner(nil, nil).Clean(context.Background(), table, "Date")
			require.NoError(t, err)

			grouped, err := GroupMean(cleaned, "City Name", "Low Price")
			require.NoError(t, err)
			assert.Len(t, grouped.Groups, tt.wantRows)
			for _, g := range grouped.Groups {
				assert.False(t, g.Valid, "group %s has no present prices", g.Key)
			}

			pivot, err := Pivot(cleaned, "City Name", "Date", "Low Price")
			require.NoError(t, err)
			rows, _ := pivot.Dims()
			assert.Equal(t, tt.wantRows, rows)

			dist, err := Distribute(cleaned, "City Name", "Low Price")
			require.NoError(t, err)
			for _, b := range dist.Boxes {
				assert.False(t, b.Valid)
			}
		})
	}
}
