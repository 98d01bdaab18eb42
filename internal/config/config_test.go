package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pricecharts/internal/errors"
	"pricecharts/pkg/contracts/domain"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestLoadFrom tests the layering of defaults, file and environment
func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults without file or env",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, DefaultOutputDir, cfg.Paths.OutputDir)
				assert.Equal(t, ColumnDate, cfg.Pipeline.DateColumn)
				assert.Equal(t, 1, cfg.Pipeline.Workers)
				assert.Equal(t, DefaultNullMarkers, cfg.Pipeline.NullMarkers)
				assert.Len(t, cfg.Pipeline.Charts, 5)
				assert.Equal(t, map[string]string{ColumnLowPrice: "number", ColumnHighPrice: "number"}, cfg.Pipeline.Schema)
				assert.Equal(t, "none", cfg.Telemetry.Tracing)
			},
		},
		{
			name: "file overrides defaults",
			file: `
logging:
  level: debug
paths:
  output_dir: charts
pipeline:
  workers: 3
  charts:
    - name: lows
      kind: grouped_bar
      group: City Name
      y: [Low Price]
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "charts", cfg.Paths.OutputDir)
				assert.Equal(t, 3, cfg.Pipeline.Workers)
				require.Len(t, cfg.Pipeline.Charts, 1)
				assert.Equal(t, domain.ChartKindGroupedBar, cfg.Pipeline.Charts[0].Kind)
				// untouched sections keep their defaults
				assert.Equal(t, ColumnDate, cfg.Pipeline.DateColumn)
			},
		},
		{
			name: "env overrides file",
			file: "pipeline:\n  workers: 3\n",
			env: map[string]string{
				"PRICECHARTS_PIPELINE_WORKERS":      "5",
				"PRICECHARTS_PIPELINE_NULL_MARKERS": "NA,-",
				"PRICECHARTS_PIPELINE_SCHEMA":       "Package:string,Low Price:number",
				"PRICECHARTS_LOGGING_FORMAT":        "text",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 5, cfg.Pipeline.Workers)
				assert.Equal(t, []string{"NA", "-"}, cfg.Pipeline.NullMarkers)
				assert.Equal(t, "string", cfg.Pipeline.Schema["Package"])
				assert.Equal(t, "number", cfg.Pipeline.Schema["Low Price"])
				assert.Equal(t, "json", cfg.Logging.Format, "log format is always json")
			},
		},
		{
			name:    "invalid log level",
			env:     map[string]string{"PRICECHARTS_LOGGING_LEVEL": "verbose"},
			wantErr: true,
		},
		{
			name:    "workers out of range",
			env:     map[string]string{"PRICECHARTS_PIPELINE_WORKERS": "0"},
			wantErr: true,
		},
		{
			name:    "unknown schema type",
			file:    "pipeline:\n  schema:\n    Package: blob\n",
			wantErr: true,
		},
		{
			name: "chart missing required column",
			file: `
pipeline:
  charts:
    - name: ts
      kind: time_series
      y: [Low Price]
`,
			wantErr: true,
		},
		{
			name: "chart name with path separator",
			file: `
pipeline:
  charts:
    - name: a/b
      kind: grouped_bar
      group: City Name
      y: [Low Price]
`,
			wantErr: true,
		},
		{
			name: "duplicate chart names",
			file: `
pipeline:
  charts:
    - {name: a, kind: grouped_bar, group: City Name, y: [Low Price]}
    - {name: a, kind: boxplot, group: City Name, y: [Low Price]}
`,
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "pipeline: [\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			cfg, err := LoadFrom(path)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.ErrTypeConfig, apperrors.TypeOf(err))
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConfig)
}

func TestLoad_UsesConfigEnvVar(t *testing.T) {
	path := writeConfigFile(t, "paths:\n  output_dir: from-env-file\n")
	t.Setenv("PRICECHARTS_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env-file", cfg.Paths.OutputDir)
}

func TestDefaultCharts(t *testing.T) {
	charts := DefaultCharts()

	names := make([]string, len(charts))
	for i, c := range charts {
		names[i] = c.Name
		assert.NoError(t, c.RequiredColumns(), c.Name)
	}
	assert.Equal(t, []string{"time_series_plot", "bar_chart", "box_plot", "heatmap", "scatter_plot"}, names)

	// filters are independent maps
	charts[1].Filter["extra"] = "x"
	_, shared := charts[2].Filter["extra"]
	assert.False(t, shared)
}

func TestConfig_String(t *testing.T) {
	s := Default().String()
	assert.Contains(t, s, "output=output")
	assert.Contains(t, s, "bar_chart")
}
