// Package exporter writes the derived views of a run as files.
//
// A view is first flattened into a Frame: a header row plus typed rows.
// CSVWriter writes one Frame per file with a UTF-8 BOM so spreadsheet tools
// detect the encoding. WorkbookWriter writes many Frames as the sheets of a
// single xlsx workbook.
//
// Example usage:
//
//	frame := exporter.GroupedFrame(result)
//	err := exporter.NewCSVWriter(logger).WriteFrame(ctx, "output/bar_chart.csv", frame)
//
//	wb := exporter.NewWorkbookWriter(logger)
//	err = wb.Write(ctx, "output/summary.xlsx", frames)
package exporter
