package dataprocessing

import (
	"context"
	"encoding/csv"
	goerrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "pricecharts/internal/errors"
	"pricecharts/internal/validation"
)

const utf8BOM = "\ufeff"

// LoaderConfig holds configuration options for the Loader
type LoaderConfig struct {
	Delimiter   rune                  // Field separator for delimited files, default ','
	Sheet       string                // Worksheet of .xlsx input, default the first sheet
	NullMarkers []string              // Cell texts read as missing in addition to ""
	Schema      map[string]ColumnType // Declared column types; undeclared columns are inferred
	DateLayouts []string              // Layouts for columns declared as time
}

// Loader reads a delimited file or workbook with a header row into a Table
type Loader struct {
	logger    *slog.Logger
	validator *validation.FileValidator
	config    LoaderConfig
	nulls     map[string]bool
	dates     DateParser
}

// NewLoader creates a new loader with the given configuration
func NewLoader(logger *slog.Logger, config LoaderConfig) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Delimiter == 0 {
		config.Delimiter = ','
	}

	nulls := make(map[string]bool, len(config.NullMarkers))
	for _, m := range config.NullMarkers {
		nulls[m] = true
	}

	return &Loader{
		logger:    logger,
		validator: validation.NewFileValidator(logger),
		config:    config,
		nulls:     nulls,
		dates:     NewDateParser(config.DateLayouts),
	}
}

// Load reads path into a Table.
// It fails with NotFound when path is not a readable file, MalformedInput on
// structural problems and TypeCoercion when a declared column cannot be parsed.
func (l *Loader) Load(ctx context.Context, path string) (*Table, error) {
	if err := l.validator.ValidateInputFile(path); err != nil {
		return nil, err
	}

	format, err := l.validator.DetectFormat(path)
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "loading input",
		slog.String("path", path),
		slog.String("format", string(format)))

	var records [][]string
	switch format {
	case validation.FormatWorkbook:
		records, err = l.readWorkbook(ctx, path)
	default:
		records, err = l.readDelimited(ctx, path)
	}
	if err != nil {
		return nil, err
	}

	table, err := l.buildTable(ctx, path, records, format == validation.FormatWorkbook)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to build table",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, err
	}

	l.logger.InfoContext(ctx, "input loaded",
		slog.String("path", path),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Columns)))

	return table, nil
}

// readDelimited returns every record of a delimited file, header first
func (l *Loader) readDelimited(ctx context.Context, path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewNotFoundError(path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = l.config.Delimiter
	// Field counts are checked in buildTable so the error names the data row
	reader.FieldsPerRecord = -1

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if goerrors.As(err, &parseErr) {
				return nil, apperrors.NewMalformedInputError(path, len(records),
					fmt.Sprintf("line %d: %v", parseErr.Line, parseErr.Err))
			}
			return nil, apperrors.NewMalformedInputError(path, len(records), err.Error())
		}
		records = append(records, record)

		if len(records)%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}

	return records, nil
}

// readWorkbook returns every non-empty row of the configured worksheet
func (l *Loader) readWorkbook(ctx context.Context, path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewMalformedInputError(path, 0, fmt.Sprintf("cannot open workbook: %v", err))
	}
	defer f.Close()

	sheet := l.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewMalformedInputError(path, 0, "workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewMalformedInputError(path, 0, fmt.Sprintf("cannot read sheet %q: %v", sheet, err))
	}

	l.logger.DebugContext(ctx, "read worksheet",
		slog.String("sheet", sheet),
		slog.Int("rows", len(rows)))

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		records = append(records, row)
	}
	return records, nil
}

// buildTable types the raw records. Workbook rows may be short because
// trailing empty cells are not stored; they are padded with missing cells.
func (l *Loader) buildTable(ctx context.Context, path string, records [][]string, padShort bool) (*Table, error) {
	if len(records) == 0 {
		return nil, apperrors.NewMalformedInputError(path, 0, "missing header row")
	}

	header, err := parseHeader(path, records[0])
	if err != nil {
		return nil, err
	}

	body := records[1:]
	for i, record := range body {
		if len(record) == len(header) {
			continue
		}
		if padShort && len(record) < len(header) {
			padded := make([]string, len(header))
			copy(padded, record)
			body[i] = padded
			continue
		}
		return nil, apperrors.NewMalformedInputError(path, i+1,
			fmt.Sprintf("expected %d fields, got %d", len(header), len(record)))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	columns := make([]Column, len(header))
	for j, name := range header {
		columns[j] = Column{Name: name, Type: l.columnType(name, body, j)}
	}

	table := NewTable(columns)
	table.Rows = make([][]Value, len(body))
	for i, record := range body {
		row := make([]Value, len(columns))
		for j, col := range columns {
			v, err := l.parseCell(record[j], col.Type)
			if err != nil {
				return nil, apperrors.NewTypeCoercionError(col.Name, i+1, strings.TrimSpace(record[j]), err).
					WithContext("path", path)
			}
			row[j] = v
		}
		table.Rows[i] = row
	}

	return table, nil
}

// parseHeader trims the header names and rejects empty or duplicate ones
func parseHeader(path string, record []string) ([]string, error) {
	header := make([]string, len(record))
	seen := make(map[string]bool, len(record))
	for j, name := range record {
		if j == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, apperrors.NewMalformedInputError(path, 0, fmt.Sprintf("header field %d is empty", j+1))
		}
		if seen[name] {
			return nil, apperrors.NewMalformedInputError(path, 0, fmt.Sprintf("duplicate column %q", name))
		}
		seen[name] = true
		header[j] = name
	}
	return header, nil
}

// columnType returns the declared type, or number when every present cell parses as one
func (l *Loader) columnType(name string, body [][]string, j int) ColumnType {
	if declared, ok := l.config.Schema[name]; ok {
		return declared
	}

	present := 0
	for _, record := range body {
		text := strings.TrimSpace(record[j])
		if l.isMissing(text) {
			continue
		}
		if _, err := strconv.ParseFloat(text, 64); err != nil {
			return TypeString
		}
		present++
	}
	if present == 0 {
		return TypeString
	}
	return TypeNumber
}

func (l *Loader) isMissing(text string) bool {
	return text == "" || l.nulls[text]
}

// parseCell converts one field to a value of type t
func (l *Loader) parseCell(field string, t ColumnType) (Value, error) {
	text := strings.TrimSpace(field)
	if l.isMissing(text) {
		v := Missing(t)
		v.Raw = text
		return v, nil
	}

	switch t {
	case TypeNumber:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: TypeNumber, Num: f, Raw: text, Valid: true}, nil
	case TypeTime:
		ts, err := l.dates.Parse(text)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: TypeTime, Time: ts, Raw: text, Valid: true}, nil
	default:
		return Value{Type: TypeString, Str: text, Raw: text, Valid: true}, nil
	}
}
