package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Geocode   GeocodeConfig   `yaml:"geocode" envconfig:"GEOCODE"`
}

// PathsConfig contains file system locations. Relative entries are resolved
// against BaseDir.
type PathsConfig struct {
	BaseDir          string `yaml:"base_dir" envconfig:"BASE_DIR" validate:"required"`
	MetadataFile     string `yaml:"metadata_file" envconfig:"METADATA_FILE" validate:"required"`
	FlowsFile        string `yaml:"flows_file" envconfig:"FLOWS_FILE" validate:"required"`
	RegionsShapefile string `yaml:"regions_shapefile" envconfig:"REGIONS_SHAPEFILE" validate:"required"`
	TotalsCSV        string `yaml:"totals_csv" envconfig:"TOTALS_CSV" validate:"required"`
	OutputShapefile  string `yaml:"output_shapefile" envconfig:"OUTPUT_SHAPEFILE" validate:"required"`
	OutputGeoJSON    string `yaml:"output_geojson" envconfig:"OUTPUT_GEOJSON"`
	LogsDir          string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PipelineConfig controls what a run reads and writes.
type PipelineConfig struct {
	// Year picks the tons_<Year> column of the flow table.
	Year int `yaml:"year" envconfig:"YEAR" validate:"gte=2012,lte=2050"`
	// Limit caps the number of flow rows read; zero reads everything.
	Limit int `yaml:"limit" envconfig:"LIMIT" validate:"gte=0"`
	// TradeType keeps only flow rows with this trade_type code when set.
	TradeType string `yaml:"trade_type" envconfig:"TRADE_TYPE"`
	// ReuseTotals loads a previously written totals CSV instead of aggregating.
	ReuseTotals bool `yaml:"reuse_totals" envconfig:"REUSE_TOTALS"`
	// WriteGeoJSON additionally writes the joined layer as GeoJSON.
	WriteGeoJSON bool `yaml:"write_geojson" envconfig:"WRITE_GEOJSON"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	Environment   string `yaml:"environment" envconfig:"ENVIRONMENT"`
	EnableTracing bool   `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	EnableMetrics bool   `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	MetricsFile   string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// GeocodeConfig contains settings for the place-name lookup client
type GeocodeConfig struct {
	BaseURL           string        `yaml:"base_url" envconfig:"BASE_URL" validate:"required,url"`
	UserAgent         string        `yaml:"user_agent" envconfig:"USER_AGENT" validate:"required"`
	RequestsPerSecond float64       `yaml:"requests_per_second" envconfig:"REQUESTS_PER_SECOND" validate:"gt=0"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
}

// Load builds the configuration from defaults, an optional YAML file and
// FAF_* environment variables. An empty filePath searches the usual locations.
func Load(filePath string) (*Config, error) {
	cfg := Default()

	if filePath == "" {
		filePath = getConfigFilePath()
	}
	if filePath != "" {
		if err := loadFromFile(filePath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Variables that are not set leave the value from the file or defaults.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg. Keys missing from the file
// keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks field constraints and normalizes logging settings.
func (c *Config) Validate() error {
	if c.Logging.Level == "warning" {
		c.Logging.Level = "warn"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}
	return validator.New().Struct(c)
}

// getConfigFilePath returns the first config file found, or ""
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// DefaultBaseDir returns the parent of the working directory.
func DefaultBaseDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return ".."
	}
	return filepath.Dir(wd)
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			BaseDir:          DefaultBaseDir(),
			MetadataFile:     DefaultMetadataFile,
			FlowsFile:        DefaultFlowsFile,
			RegionsShapefile: DefaultRegionsShapefile,
			TotalsCSV:        DefaultTotalsCSV,
			OutputShapefile:  DefaultOutputShapefile,
			OutputGeoJSON:    DefaultOutputGeoJSON,
			LogsDir:          DefaultLogsDir,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Pipeline: PipelineConfig{
			Year: DefaultYear,
		},
		Telemetry: TelemetryConfig{
			Environment:   "development",
			EnableTracing: false,
			TraceExporter: "stdout",
			EnableMetrics: false,
			MetricsFile:   DefaultMetricsFile,
		},
		Geocode: GeocodeConfig{
			BaseURL:           DefaultGeocodeURL,
			UserAgent:         DefaultGeocodeUserAgent,
			RequestsPerSecond: DefaultGeocodeRPS,
			Timeout:           DefaultGeocodeTimeout,
		},
	}
}
