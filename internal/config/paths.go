package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains every resolved path a run touches.
// This is the single source of truth for file locations.
type Paths struct {
	BaseDir string
	DataDir string
	LogsDir string

	// Inputs
	MetadataFile     string
	FlowsFile        string
	RegionsShapefile string

	// Outputs
	TotalsCSV       string
	OutputShapefile string
	OutputGeoJSON   string
}

// NewPaths resolves cfg against its base directory. Absolute entries are
// kept as they are.
func NewPaths(cfg PathsConfig) *Paths {
	base := cfg.BaseDir
	if base == "" {
		base = DefaultBaseDir()
	}
	p := &Paths{BaseDir: base}

	p.DataDir = p.Resolve(DefaultDataDir)
	logsDir := cfg.LogsDir
	if logsDir == "" {
		logsDir = DefaultLogsDir
	}
	p.LogsDir = p.Resolve(logsDir)

	p.MetadataFile = p.Resolve(cfg.MetadataFile)
	p.FlowsFile = p.Resolve(cfg.FlowsFile)
	p.RegionsShapefile = p.Resolve(cfg.RegionsShapefile)
	p.TotalsCSV = p.Resolve(cfg.TotalsCSV)
	p.OutputShapefile = p.Resolve(cfg.OutputShapefile)
	if cfg.OutputGeoJSON != "" {
		p.OutputGeoJSON = p.Resolve(cfg.OutputGeoJSON)
	}
	return p
}

// Resolve joins a relative path onto the base directory.
func (p *Paths) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.BaseDir, path)
}

// EnsureDirectories creates the base data and logs directories.
// Output subdirectories are created by the writers that need them.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LogPathResolution logs all resolved paths at debug level.
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Resolved paths",
		slog.String("base_dir", p.BaseDir),
		slog.String("metadata_file", p.MetadataFile),
		slog.String("flows_file", p.FlowsFile),
		slog.String("regions_shapefile", p.RegionsShapefile),
		slog.String("totals_csv", p.TotalsCSV),
		slog.String("output_shapefile", p.OutputShapefile),
		slog.String("output_geojson", p.OutputGeoJSON))
}
