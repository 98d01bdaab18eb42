package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "pricecharts/internal/errors"
	"pricecharts/pkg/contracts/domain"
)

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"` // default <logs_dir>/pricecharts.log
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// PipelineConfig controls loading, cleaning and the chart jobs derived from the cleaned table
type PipelineConfig struct {
	DateColumn     string             `yaml:"date_column" envconfig:"DATE_COLUMN" validate:"required"`
	Delimiter      string             `yaml:"delimiter" envconfig:"DELIMITER" validate:"len=1"`
	Sheet          string             `yaml:"sheet" envconfig:"SHEET"`
	NullMarkers    []string           `yaml:"null_markers" envconfig:"NULL_MARKERS"`
	DateLayouts    []string           `yaml:"date_layouts" envconfig:"DATE_LAYOUTS" validate:"min=1"`
	Schema         map[string]string  `yaml:"schema" envconfig:"SCHEMA" validate:"dive,oneof=string number time"`
	Workers        int                `yaml:"workers" envconfig:"WORKERS" validate:"min=1,max=32"`
	ExportCSV      bool               `yaml:"export_csv" envconfig:"EXPORT_CSV"`
	ExportWorkbook bool               `yaml:"export_workbook" envconfig:"EXPORT_WORKBOOK"`
	Charts         []domain.ChartSpec `yaml:"charts" ignored:"true" validate:"dive"`
}

// TelemetryConfig selects the tracing and metrics exporters
type TelemetryConfig struct {
	ServiceName string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Tracing     string  `yaml:"tracing" envconfig:"TRACING" validate:"oneof=stdout none"`
	Metrics     string  `yaml:"metrics" envconfig:"METRICS" validate:"oneof=prometheus none"`
	SampleRatio float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"min=0,max=1"`
}

// Load loads configuration from the defaults, the config file (if any) and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file path. An empty path skips the file.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("failed to load config from %s", configFile), err)
		}
	}

	// Only variables that are set override; unset ones leave the value alone
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, apperrors.NewConfigError("config validation failed", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	v := validator.New()
	v.RegisterStructValidation(chartSpecStructLevel, domain.ChartSpec{})

	if err := v.Struct(c); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Pipeline.Charts))
	for _, chart := range c.Pipeline.Charts {
		if seen[chart.Name] {
			return fmt.Errorf("duplicate chart name: %s", chart.Name)
		}
		seen[chart.Name] = true
	}

	// Log files are always JSON
	c.Logging.Format = "json"

	return nil
}

// chartSpecStructLevel applies the per-kind column requirements
func chartSpecStructLevel(sl validator.StructLevel) {
	spec := sl.Current().Interface().(domain.ChartSpec)
	if err := spec.RequiredColumns(); err != nil {
		sl.ReportError(spec.Kind, "Kind", "kind", "columns", err.Error())
	}
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		return path
	}

	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "both",
		},
		Paths: PathsConfig{
			OutputDir: DefaultOutputDir,
			LogsDir:   DefaultLogsDir,
		},
		Pipeline: PipelineConfig{
			DateColumn:     ColumnDate,
			Delimiter:      ",",
			NullMarkers:    append([]string(nil), DefaultNullMarkers...),
			DateLayouts:    append([]string(nil), DefaultDateLayouts...),
			Schema:         DefaultSchema(),
			Workers:        1,
			ExportCSV:      true,
			ExportWorkbook: true,
			Charts:         DefaultCharts(),
		},
		Telemetry: TelemetryConfig{
			ServiceName: AppName,
			Tracing:     "none",
			Metrics:     "prometheus",
			SampleRatio: 1.0,
		},
	}
}

// DefaultSchema declares the price columns numeric so that a column with no
// present values still aggregates to absent means
func DefaultSchema() map[string]string {
	return map[string]string{
		ColumnLowPrice:  "number",
		ColumnHighPrice: "number",
	}
}

// DefaultCharts returns the chart jobs of the pumpkin price report.
func DefaultCharts() []domain.ChartSpec {
	howden := func() map[string]string {
		return map[string]string{ColumnVariety: DefaultVariety}
	}
	return []domain.ChartSpec{
		{
			Name:   "time_series_plot",
			Kind:   domain.ChartKindTimeSeries,
			Title:  "Pumpkin Prices Over Time in Boston",
			Filter: map[string]string{ColumnVariety: DefaultVariety, ColumnCity: DefaultCity},
			X:      ColumnDate,
			Y:      []string{ColumnLowPrice, ColumnHighPrice},
			XLabel: "Date",
			YLabel: "Price ($)",
		},
		{
			Name:   "bar_chart",
			Kind:   domain.ChartKindGroupedBar,
			Title:  "Average Low Price of Howden Type Pumpkins by City",
			Filter: howden(),
			Group:  ColumnCity,
			Y:      []string{ColumnLowPrice},
			XLabel: "City",
			YLabel: "Average Low Price ($)",
		},
		{
			Name:   "box_plot",
			Kind:   domain.ChartKindBoxPlot,
			Title:  "Distribution of Low Prices for Howden Type Pumpkins by City",
			Filter: howden(),
			Group:  ColumnCity,
			Y:      []string{ColumnLowPrice},
			XLabel: "City",
			YLabel: "Low Price ($)",
		},
		{
			Name:   "heatmap",
			Kind:   domain.ChartKindHeatmap,
			Title:  "Average Low Price of Different Pumpkin Varieties by City",
			Group:  ColumnCity,
			X:      ColumnVariety,
			Y:      []string{ColumnLowPrice},
			XLabel: "Variety",
			YLabel: "City",
		},
		{
			Name:   "scatter_plot",
			Kind:   domain.ChartKindScatter,
			Title:  "Relationship Between Package Size and Low Price",
			Filter: howden(),
			X:      ColumnPackage,
			Y:      []string{ColumnLowPrice},
			Group:  ColumnCity,
			XLabel: "Package Size",
			YLabel: "Low Price ($)",
		},
	}
}

// String renders the non-secret parts of the configuration for logging
func (c *Config) String() string {
	names := make([]string, len(c.Pipeline.Charts))
	for i, chart := range c.Pipeline.Charts {
		names[i] = chart.Name
	}
	return fmt.Sprintf("output=%s date_column=%s workers=%d charts=[%s]",
		c.Paths.OutputDir, c.Pipeline.DateColumn, c.Pipeline.Workers, strings.Join(names, ","))
}
