package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	apperrors "pricecharts/internal/errors"
	"pricecharts/pkg/contracts"
)

const (
	maxSheetName     = 31
	defaultSheetName = "Sheet1"
)

// WorkbookWriter writes frames as the sheets of one xlsx workbook
type WorkbookWriter struct {
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{logger: logger}
}

// Write replaces filePath with a workbook holding one sheet per frame, in order.
// Numbers are stored as numbers and absent cells are left blank.
func (w *WorkbookWriter) Write(ctx context.Context, filePath string, frames []Frame) error {
	f := excelize.NewFile()
	defer f.Close()

	used := make(map[string]bool, len(frames))
	first := ""
	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := uniqueSheetName(frame.Name, i, used)
		if first == "" {
			first = name
			if err := f.SetSheetName(defaultSheetName, name); err != nil {
				return apperrors.NewStorageError("failed to name sheet", err).WithContext("sheet", name)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return apperrors.NewStorageError("failed to add sheet", err).WithContext("sheet", name)
		}

		if err := writeSheet(f, name, frame); err != nil {
			return apperrors.NewStorageError("failed to write sheet", err).WithContext("sheet", name)
		}
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Creator:  "pricecharts " + contracts.Version,
		Title:    "Price chart views",
		Version:  contracts.DataFormatVersion,
		Category: "summary",
	}); err != nil {
		return apperrors.NewStorageError("failed to set workbook properties", err)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory", err).WithContext("path", filePath)
	}
	if err := f.SaveAs(filePath); err != nil {
		return apperrors.NewStorageError("failed to save workbook", err).WithContext("path", filePath)
	}

	w.logger.InfoContext(ctx, "workbook exported",
		slog.String("path", filePath),
		slog.Int("sheets", len(frames)))
	return nil
}

func writeSheet(f *excelize.File, sheet string, frame Frame) error {
	header := make([]interface{}, len(frame.Headers))
	for i, h := range frame.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, row := range frame.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, c := range row {
			values[j] = sheetCell(c)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

// sheetCell keeps numbers numeric and renders dates as text
func sheetCell(c interface{}) interface{} {
	switch c.(type) {
	case nil:
		return nil
	case float64, int, string:
		return c
	default:
		return formatCell(c)
	}
}

// uniqueSheetName makes name a valid, unused sheet name
func uniqueSheetName(name string, index int, used map[string]bool) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = fmt.Sprintf("view_%d", index+1)
	}
	name = truncateRunes(name, maxSheetName)

	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf("_%d", n)
		candidate = truncateRunes(name, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

// truncateRunes cuts s to at most n characters without splitting a rune
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
