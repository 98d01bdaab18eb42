// Package config provides centralized configuration management for pricecharts.
// It loads configuration from multiple sources, validates it, and provides a
// type-safe API for the pipeline, logging and telemetry settings.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern PRICECHARTS_* for namespacing:
//
//	PRICECHARTS_LOGGING_LEVEL=debug
//	PRICECHARTS_PATHS_OUTPUT_DIR=/tmp/charts
//	PRICECHARTS_PIPELINE_WORKERS=4
//	PRICECHARTS_PIPELINE_NULL_MARKERS=NA,-
//	PRICECHARTS_TELEMETRY_TRACING=stdout
//
// The config file location can be set with PRICECHARTS_CONFIG; otherwise
// config.yaml and configs/config.yaml are tried.
//
// # Chart Jobs
//
// Chart jobs can only be set from the config file. When none are given the
// five jobs of the pumpkin price report are used (see DefaultCharts).
//
// # Path Management
//
// All output locations are derived from PathsConfig through the Paths type:
//
//	paths, err := config.GetPaths(cfg.Paths)
//	chart := paths.GetChartPath("bar_chart")
package config
