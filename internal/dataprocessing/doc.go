// Package dataprocessing turns a price export into the derived views charts are drawn from.
//
// # Architecture
//
// The package is organized around an immutable, explicitly typed Table:
//
// 1. Loader: reads a delimited file or .xlsx workbook and types every column
// 2. Cleaner: coerces the date column strictly and forward-fills missing cells
// 3. Select / Selector: equality filters, optionally cached per predicate set
// 4. GroupMean, Pivot, Distribute, XY: the derivations behind each chart kind
//
// # Usage
//
//	loader := dataprocessing.NewLoader(logger, dataprocessing.LoaderConfig{NullMarkers: markers})
//	raw, err := loader.Load(ctx, "US-pumpkins.csv")
//	if err != nil {
//	    return err
//	}
//
//	cleaned, err := dataprocessing.NewCleaner(logger, nil).Clean(ctx, raw, "Date")
//	if err != nil {
//	    return err
//	}
//
//	selector := dataprocessing.NewSelector(cleaned)
//	howden, err := selector.Select(ctx, dataprocessing.Predicates{"Variety": "HOWDEN TYPE"})
//	byCity, err := dataprocessing.GroupMean(howden, "City Name", "Low Price")
//
// # Data Flow
//
//	File → Loader → Table → Cleaner → Table → Select → GroupMean | Pivot | Distribute | XY
//
// # Missing Values
//
// A cell is missing when its text is empty or a configured null marker. Missing
// cells keep their column's type. Means ignore missing values; a group or pivot
// cell without any present value is absent (Valid == false), never zero.
//
// # Error Handling
//
// Failures are *errors.AppError values: NOT_FOUND for unreadable input,
// MALFORMED_INPUT for structural problems, TYPE_COERCION for unparsable cells and
// INVALID_COLUMN for unknown or non-numeric columns. Empty selections are not errors.
package dataprocessing
