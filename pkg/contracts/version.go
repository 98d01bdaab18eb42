package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the release of pricecharts
	Version = "0.3.0"

	// DataFormatVersion is bumped whenever the layout of the exported CSV
	// files or workbook sheets changes
	DataFormatVersion = "v1"
)

// Set with -ldflags "-X pricecharts/pkg/contracts.GitCommit=..."
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo describes the running binary
type VersionInfo struct {
	Version    string `json:"version"`
	BuildTime  string `json:"build_time"`
	GitCommit  string `json:"git_commit"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
	DataFormat string `json:"data_format"`
}

// GetVersionInfo returns the version of the running binary
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:    Version,
		BuildTime:  BuildTime,
		GitCommit:  GitCommit,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
		DataFormat: DataFormatVersion,
	}
}

// String renders the info as printed by pricecharts --version
func (v VersionInfo) String() string {
	return fmt.Sprintf("%s (data format %s, commit %s, built %s, %s %s)",
		v.Version, v.DataFormat, v.GitCommit, v.BuildTime, v.GoVersion, v.Platform)
}

// GetFullVersionString returns GetVersionInfo().String()
func GetFullVersionString() string {
	return GetVersionInfo().String()
}
