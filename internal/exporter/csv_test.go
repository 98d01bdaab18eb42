package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricecharts/internal/dataprocessing"
	apperrors "pricecharts/internal/errors"
	"pricecharts/internal/shared/testutil"
)

// readCSV returns the records of a BOM-prefixed CSV file
func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(content, utf8BOM), "file should start with a BOM")

	records, err := csv.NewReader(bytes.NewReader(content[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	writer := NewCSVWriter(logger)
	tempDir := t.TempDir()

	tests := []struct {
		name     string
		filePath string
		options  WriteOptions
		validate func(t *testing.T, filePath string)
	}{
		{
			name:     "basic write with headers",
			filePath: "basic.csv",
			options: WriteOptions{
				Headers: []string{"City Name", "Low Price"},
				Records: [][]string{
					{"BOSTON", "130"},
					{"NEW YORK", "150.5"},
				},
			},
			validate: func(t *testing.T, filePath string) {
				content, err := os.ReadFile(filePath)
				require.NoError(t, err)

				lines := strings.Split(strings.TrimSpace(string(content)), "\n")
				assert.Len(t, lines, 3)
				assert.Equal(t, "City Name,Low Price", lines[0])
				assert.Equal(t, "BOSTON,130", lines[1])
			},
		},
		{
			name:     "write with BOM prefix",
			filePath: "bom.csv",
			options: WriteOptions{
				Headers:   []string{"Variety"},
				Records:   [][]string{{"HOWDEN TYPE"}},
				BOMPrefix: true,
			},
			validate: func(t *testing.T, filePath string) {
				records := readCSV(t, filePath)
				assert.Equal(t, [][]string{{"Variety"}, {"HOWDEN TYPE"}}, records)
			},
		},
		{
			name:     "nested directory is created",
			filePath: filepath.Join("nested", "dir", "out.csv"),
			options: WriteOptions{
				Records: [][]string{{"a", "b"}},
			},
			validate: func(t *testing.T, filePath string) {
				content, err := os.ReadFile(filePath)
				require.NoError(t, err)
				assert.Equal(t, "a,b\n", string(content))
			},
		},
		{
			name:     "special characters are quoted",
			filePath: "special.csv",
			options: WriteOptions{
				Headers:   []string{"Package", "Notes"},
				Records:   [][]string{{"1 1/9 bushel cartons", "said \"fair\", then\nsold"}},
				BOMPrefix: true,
			},
			validate: func(t *testing.T, filePath string) {
				records := readCSV(t, filePath)
				require.Len(t, records, 2)
				assert.Equal(t, "said \"fair\", then\nsold", records[1][1])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tempDir, tt.filePath)
			require.NoError(t, writer.WriteCSV(context.Background(), path, tt.options))
			tt.validate(t, path)
		})
	}
}

func TestCSVWriter_WriteCSVReplacesFile(t *testing.T) {
	writer := NewCSVWriter(nil)
	path := filepath.Join(t.TempDir(), "out.csv")

	require.NoError(t, writer.WriteCSV(context.Background(), path, WriteOptions{Records: [][]string{{"old"}, {"old"}}}))
	require.NoError(t, writer.WriteCSV(context.Background(), path, WriteOptions{Records: [][]string{{"new"}}}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(content))
}

func TestCSVWriter_WriteFrame(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	writer := NewCSVWriter(logger)

	grouped, err := dataprocessing.GroupMean(priceTable(t), "City Name", "Low Price")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "bar_chart.csv")
	require.NoError(t, writer.WriteFrame(context.Background(), path, GroupedFrame("bar_chart", grouped)))

	records := readCSV(t, path)
	assert.Equal(t, [][]string{
		{"City Name", "mean Low Price", "rows", "values"},
		{"BOSTON", "135", "2", "2"},
		{"NEW YORK", "150.5", "2", "1"},
	}, records)

	testutil.AssertLogContains(t, handler, slog.LevelInfo, "table exported")
	testutil.AssertLogAttr(t, handler, "view", "bar_chart")
}

func TestCSVWriter_ConcurrentWrites(t *testing.T) {
	writer := NewCSVWriter(nil)
	tempDir := t.TempDir()
	frame := TableFrame("data", priceTable(t))

	const numGoroutines = 8

	var wg sync.WaitGroup
	errChan := make(chan error, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			path := filepath.Join(tempDir, "file_"+string(rune('A'+id))+".csv")
			if err := writer.WriteFrame(context.Background(), path, frame); err != nil {
				errChan <- err
			}
		}(i)
	}
	wg.Wait()
	close(errChan)

	for err := range errChan {
		assert.NoError(t, err)
	}
	for i := 0; i < numGoroutines; i++ {
		records := readCSV(t, filepath.Join(tempDir, "file_"+string(rune('A'+i))+".csv"))
		assert.Len(t, records, 5)
	}
}

func TestCSVWriter_ErrorScenarios(t *testing.T) {
	writer := NewCSVWriter(nil)

	// a regular file where a directory is expected
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := writer.WriteCSV(context.Background(), filepath.Join(blocker, "out.csv"), WriteOptions{
		Records: [][]string{{"Data"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStorage)
}
