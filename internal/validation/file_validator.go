package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "pricecharts/internal/errors"
)

// InputFormat identifies how an input file is parsed
type InputFormat string

const (
	FormatDelimited InputFormat = "delimited"
	FormatWorkbook  InputFormat = "workbook"
)

// FileValidator checks input files and output directories before the pipeline touches them
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInputFile checks that path is a readable regular file.
// Any failure is reported as a NotFound error.
func (v *FileValidator) ValidateInputFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		v.logger.Error("Input file is not accessible",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewNotFoundError(path, err)
	}
	if info.IsDir() {
		v.logger.Error("Input path is a directory, not a file",
			slog.String("path", path))
		return apperrors.NewNotFoundError(path, fmt.Errorf("%s is a directory", path))
	}

	// Check if file is readable by opening it
	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("Input file is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewNotFoundError(path, err)
	}
	file.Close()

	v.logger.Debug("Input file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// DetectFormat picks the parser for path from its extension.
// Anything that is not an Excel workbook is read as delimited text.
func (v *FileValidator) DetectFormat(path string) (InputFormat, error) {
	base := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".xlsx", ".xlsm":
		if strings.HasPrefix(base, "~$") {
			v.logger.Warn("Refusing temporary Excel file",
				slog.String("file", path))
			return "", apperrors.NewMalformedInputError(path, 0, "temporary Excel lock file")
		}
		return FormatWorkbook, nil
	case ".xls":
		return "", apperrors.NewMalformedInputError(path, 0, "legacy .xls workbooks are not supported")
	default:
		return FormatDelimited, nil
	}
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}
