package config

// Application constants
const (
	AppName = "pricecharts"

	// EnvPrefix namespaces every environment variable, e.g. PRICECHARTS_LOGGING_LEVEL
	EnvPrefix = "PRICECHARTS"

	// File Paths (relative to the working directory)
	DefaultOutputDir = "output"
	DefaultLogsDir   = "logs"

	// Well-known output files
	WorkbookFileName = "summary.xlsx"
	MetricsFileName  = "metrics.prom"
	TracesFileName   = "traces.json"
	LogFileName      = "pricecharts.log"
	ChartExtension   = ".png"
	TableExtension   = ".csv"
)

// Column names of the USDA pumpkin price export
const (
	ColumnDate      = "Date"
	ColumnCity      = "City Name"
	ColumnVariety   = "Variety"
	ColumnPackage   = "Package"
	ColumnLowPrice  = "Low Price"
	ColumnHighPrice = "High Price"

	DefaultVariety = "HOWDEN TYPE"
	DefaultCity    = "BOSTON"
)

// DefaultNullMarkers are cell values read as missing, in addition to the empty string
var DefaultNullMarkers = []string{"NA", "N/A", "NaN", "nan", "null", "NULL", "None"}

// DefaultDateLayouts are tried in order when coercing the date column
var DefaultDateLayouts = []string{
	"1/2/06",
	"1/2/2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
}
