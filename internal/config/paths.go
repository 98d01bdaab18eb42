package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the output paths of a run
// This is the single source of truth for ALL file paths the pipeline writes
type Paths struct {
	OutputDir string
	LogsDir   string

	// Well-known output files
	WorkbookFile string
	MetricsFile  string
	TracesFile   string
}

// GetPaths resolves the configured directories against the working directory
func GetPaths(cfg PathsConfig) (*Paths, error) {
	outputDir, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}

	logsDir := cfg.LogsDir
	if logsDir == "" {
		logsDir = DefaultLogsDir
	}
	logsDir, err = filepath.Abs(logsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve logs directory: %w", err)
	}

	return &Paths{
		OutputDir:    outputDir,
		LogsDir:      logsDir,
		WorkbookFile: filepath.Join(outputDir, WorkbookFileName),
		MetricsFile:  filepath.Join(outputDir, MetricsFileName),
		TracesFile:   filepath.Join(outputDir, TracesFileName),
	}, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.OutputDir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}

		logger.Debug("Ensured directory exists",
			slog.String("directory", dir))
	}

	return nil
}

// GetChartPath returns the image path for a chart job
func (p *Paths) GetChartPath(name string) string {
	return filepath.Join(p.OutputDir, name+ChartExtension)
}

// GetTablePath returns the CSV path for the derived view of a chart job
func (p *Paths) GetTablePath(name string) string {
	return filepath.Join(p.OutputDir, name+TableExtension)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	wd, _ := os.Getwd()
	logger.Info("Path resolution summary",
		slog.String("working_dir", wd),
		slog.Group("directories",
			slog.String("output", p.OutputDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("report_files",
			slog.String("workbook", p.WorkbookFile),
			slog.String("metrics", p.MetricsFile),
			slog.String("traces", p.TracesFile),
		))
}
