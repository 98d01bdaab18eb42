package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "pricecharts/internal/errors"
)

// DefaultDateLayouts are tried in order when no layouts are configured
var DefaultDateLayouts = []string{
	"1/2/06",
	"1/2/2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// DateParser parses date text strictly against a fixed list of layouts
type DateParser struct {
	layouts []string
}

// NewDateParser returns a parser for layouts, or for DefaultDateLayouts when empty
func NewDateParser(layouts []string) DateParser {
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}
	return DateParser{layouts: append([]string(nil), layouts...)}
}

// Parse returns the time of the first layout that consumes the whole text
func (p DateParser) Parse(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	for _, layout := range p.layouts {
		if ts, err := time.Parse(layout, text); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("no layout of %v matches", p.layouts)
}

// CleanStats describes what a Clean call changed
type CleanStats struct {
	Rows         int
	DatesParsed  int
	MissingDates int            // date cells still missing after the fill
	CellsFilled  int            // missing cells replaced by forward fill, all columns
	LeadingGaps  map[string]int // per column, missing cells before the first present one
}

// Cleaner coerces the date column and forward-fills missing values
type Cleaner struct {
	logger *slog.Logger
	dates  DateParser
}

// NewCleaner creates a cleaner that parses dates with layouts (default layouts when empty)
func NewCleaner(logger *slog.Logger, layouts []string) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{
		logger: logger,
		dates:  NewDateParser(layouts),
	}
}

// Clean returns a new table with dateColumn converted to time values and every
// column forward-filled. The input table is left untouched.
func (c *Cleaner) Clean(ctx context.Context, t *Table, dateColumn string) (*Table, error) {
	out, _, err := c.CleanWithStats(ctx, t, dateColumn)
	return out, err
}

// CleanWithStats is Clean that also reports what changed
func (c *Cleaner) CleanWithStats(ctx context.Context, t *Table, dateColumn string) (*Table, CleanStats, error) {
	c.logger.InfoContext(ctx, "cleaning table",
		slog.String("date_column", dateColumn),
		slog.Int("rows", t.Len()))

	coerced, parsed, err := CoerceDates(t, dateColumn, c.dates)
	if err != nil {
		c.logger.ErrorContext(ctx, "date coercion failed",
			slog.String("date_column", dateColumn),
			slog.String("error", err.Error()))
		return nil, CleanStats{}, err
	}

	if err := ctx.Err(); err != nil {
		return nil, CleanStats{}, err
	}

	filled, count := ForwardFill(coerced)

	stats := CleanStats{
		Rows:        filled.Len(),
		DatesParsed: parsed,
		CellsFilled: count,
		LeadingGaps: filled.MissingCount(),
	}
	for name, n := range stats.LeadingGaps {
		if n == 0 {
			delete(stats.LeadingGaps, name)
		}
	}
	stats.MissingDates = stats.LeadingGaps[dateColumn]

	c.logger.InfoContext(ctx, "table cleaned",
		slog.Int("rows", stats.Rows),
		slog.Int("dates_parsed", stats.DatesParsed),
		slog.Int("cells_filled", stats.CellsFilled),
		slog.Int("columns_with_leading_gaps", len(stats.LeadingGaps)))

	return filled, stats, nil
}

// CoerceDates returns a copy of t with column converted to TypeTime. Every
// present cell must parse; missing cells stay missing. It also returns the
// number of cells parsed.
func CoerceDates(t *Table, column string, parser DateParser) (*Table, int, error) {
	idx, err := t.ColumnIndex(column)
	if err != nil {
		return nil, 0, err
	}

	out := t.Clone()
	out.Columns[idx].Type = TypeTime

	parsed := 0
	for i, row := range out.Rows {
		v := row[idx]
		if !v.Valid {
			row[idx] = Value{Type: TypeTime, Raw: v.Raw}
			continue
		}
		if v.Type == TypeTime {
			continue
		}

		text := v.Raw
		if text == "" {
			text = v.String()
		}
		ts, err := parser.Parse(text)
		if err != nil {
			return nil, 0, apperrors.NewTypeCoercionError(column, i+1, text, err)
		}
		row[idx] = Value{Type: TypeTime, Time: ts, Raw: v.Raw, Valid: true}
		parsed++
	}

	return out, parsed, nil
}

// ForwardFill returns a copy of t where every missing cell takes the nearest
// preceding present value of its column, in stored row order. Missing cells
// before a column's first present value stay missing. It also returns the
// number of cells filled.
func ForwardFill(t *Table) (*Table, int) {
	out := t.Clone()
	last := make([]Value, len(out.Columns))
	filled := 0

	for _, row := range out.Rows {
		for j, v := range row {
			if v.Valid {
				last[j] = v
				continue
			}
			if last[j].Valid {
				row[j] = last[j]
				filled++
			}
		}
	}

	return out, filled
}
