// Package main provides the CLI entry point for pricecharts.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pricecharts/internal/config"
	apperrors "pricecharts/internal/errors"
	"pricecharts/internal/infrastructure"
	"pricecharts/internal/operations"
	"pricecharts/pkg/contracts"
)

type options struct {
	configFile string
	outputDir  string
	workers    int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "pricecharts: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "pricecharts <input.csv|input.xlsx>",
		Short: "Render price charts from a commodity price table",
		Long: `pricecharts loads a commodity price table, coerces its date column,
forward-fills missing values and writes one PNG chart per configured chart job,
plus the derived tables as CSV and a summary.xlsx workbook.`,
		Version:       contracts.GetFullVersionString(),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "Config file (default: $PRICECHARTS_CONFIG, ./config.yaml or ./configs/config.yaml)")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "Output directory (overrides paths.output_dir)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Chart jobs rendered concurrently (overrides pipeline.workers)")

	return cmd
}

func run(ctx context.Context, inputPath string, opts *options, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		cfg *config.Config
		err error
	)
	if opts.configFile != "" {
		cfg, err = config.LoadFrom(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if opts.outputDir != "" {
		cfg.Paths.OutputDir = opts.outputDir
	}
	if opts.workers != 0 {
		if opts.workers < 1 {
			return apperrors.NewConfigError(fmt.Sprintf("workers must be at least 1, got %d", opts.workers), nil)
		}
		cfg.Pipeline.Workers = opts.workers
	}

	paths, err := config.GetPaths(cfg.Paths)
	if err != nil {
		return apperrors.NewConfigError("failed to resolve paths", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return apperrors.NewStorageError("failed to create output directories", err)
	}

	if cfg.Logging.FilePath == "" {
		cfg.Logging.FilePath = paths.GetLogPath(config.LogFileName)
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx = infrastructure.EnsureRunID(ctx)
	logger.InfoContext(ctx, "Starting pricecharts",
		slog.String("version", contracts.Version),
		slog.String("input", inputPath),
		slog.String("config", cfg.String()))
	paths.LogPathResolution(logger)

	var traceOut io.Writer
	if cfg.Telemetry.Tracing == "stdout" {
		f, err := os.Create(paths.TracesFile)
		if err != nil {
			return apperrors.NewStorageError("failed to create trace file", err)
		}
		defer f.Close()
		traceOut = f
	}

	tel, err := infrastructure.InitializeTelemetry(cfg.Telemetry, traceOut, logger)
	if err != nil {
		return apperrors.NewConfigError("failed to initialize telemetry", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	manager, err := operations.NewManager(cfg.Pipeline, paths, tel, operations.WithLogger(logger))
	if err != nil {
		return err
	}

	result, err := manager.Run(ctx, inputPath)
	if err != nil {
		return err
	}

	for _, a := range result.Artifacts {
		fmt.Fprintf(stdout, "chart\t%s\n", a.Path)
	}
	for _, p := range result.Tables {
		fmt.Fprintf(stdout, "table\t%s\n", p)
	}
	if result.Workbook != "" {
		fmt.Fprintf(stdout, "workbook\t%s\n", result.Workbook)
	}
	return nil
}
