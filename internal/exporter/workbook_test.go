package exporter

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pricecharts/internal/dataprocessing"
	apperrors "pricecharts/internal/errors"
	"pricecharts/internal/shared/testutil"
	"pricecharts/pkg/contracts"
)

func TestWorkbookWriter_Write(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	table := priceTable(t)

	grouped, err := dataprocessing.GroupMean(table, "City Name", "Low Price")
	require.NoError(t, err)
	pivot, err := dataprocessing.Pivot(table, "City Name", "Variety", "Low Price")
	require.NoError(t, err)

	frames := []Frame{
		GroupedFrame("bar_chart", grouped),
		PivotFrame("heatmap", pivot),
	}

	path := filepath.Join(t.TempDir(), "summary.xlsx")
	require.NoError(t, NewWorkbookWriter(logger).Write(context.Background(), path, frames))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"bar_chart", "heatmap"}, f.GetSheetList())

	props, err := f.GetDocProps()
	require.NoError(t, err)
	assert.Equal(t, contracts.DataFormatVersion, props.Version)
	assert.Contains(t, props.Creator, contracts.Version)

	rows, err := f.GetRows("bar_chart")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"City Name", "mean Low Price", "rows", "values"}, rows[0])
	assert.Equal(t, "BOSTON", rows[1][0])
	assert.Equal(t, "135", rows[1][1])

	// numeric cells carry no string type
	cellType, err := f.GetCellType("bar_chart", "B2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, cellType)
	assert.NotEqual(t, excelize.CellTypeInlineString, cellType)
	raw, err := f.GetCellValue("bar_chart", "B2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "135", raw)

	rows, err = f.GetRows("heatmap")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	// absent pivot cells stay blank
	assert.Equal(t, []string{"BOSTON", "135"}, rows[1])

	testutil.AssertLogContains(t, handler, slog.LevelInfo, "workbook exported")
}

func TestWorkbookWriter_WriteStorageError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := NewWorkbookWriter(nil).Write(context.Background(), filepath.Join(blocker, "summary.xlsx"),
		[]Frame{{Name: "a", Headers: []string{"x"}}})
	assert.ErrorIs(t, err, apperrors.ErrStorage)
}

func TestUniqueSheetName(t *testing.T) {
	used := map[string]bool{}

	assert.Equal(t, "bar_chart", uniqueSheetName("bar_chart", 0, used))
	assert.Equal(t, "Bar_Chart_2", uniqueSheetName("Bar_Chart", 1, used))
	assert.Equal(t, "a_b_c", uniqueSheetName("a/b:c", 2, used))
	assert.Equal(t, "view_4", uniqueSheetName("  ", 3, used))

	long := strings.Repeat("x", 40)
	first := uniqueSheetName(long, 4, used)
	second := uniqueSheetName(long, 5, used)
	assert.Len(t, first, maxSheetName)
	assert.Len(t, second, maxSheetName)
	assert.NotEqual(t, first, second)
}

func TestUniqueSheetName_MultiByte(t *testing.T) {
	used := map[string]bool{}

	name := uniqueSheetName(strings.Repeat("南瓜", 8), 0, used)
	assert.True(t, utf8.ValidString(name))
	assert.Equal(t, strings.Repeat("南瓜", 8), name)

	long := strings.Repeat("南瓜", 20)
	first := uniqueSheetName(long, 1, used)
	second := uniqueSheetName(long, 2, used)
	assert.True(t, utf8.ValidString(first))
	assert.True(t, utf8.ValidString(second))
	assert.Equal(t, maxSheetName, utf8.RuneCountInString(first))
	assert.Equal(t, maxSheetName, utf8.RuneCountInString(second))
	assert.True(t, strings.HasSuffix(second, "_2"))
}

func TestWorkbookWriter_WriteMultiByteSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	name := strings.Repeat("南瓜", 20)
	require.NoError(t, NewWorkbookWriter(nil).Write(context.Background(), path,
		[]Frame{{Name: name, Headers: []string{"x"}, Rows: [][]interface{}{{1.5}}}}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Len(t, sheets, 1)
	assert.True(t, utf8.ValidString(sheets[0]))
	assert.Equal(t, string([]rune(name)[:maxSheetName]), sheets[0])
}
