package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"faftonnage/internal/config"
	"faftonnage/internal/geometry"
	"faftonnage/internal/infrastructure"
	"faftonnage/internal/pipeline"
	"faftonnage/pkg/contracts"
)

// options holds the command line flags. Only flags given explicitly override
// the loaded configuration.
type options struct {
	configFile  string
	baseDir     string
	year        int
	limit       int
	tradeType   string
	reuseTotals bool
	geoJSON     bool
	version     bool

	set map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{set: make(map[string]bool)}

	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configFile, "config", "", "path to a YAML config file")
	fs.StringVar(&opts.baseDir, "base", "", "base directory holding data/ (defaults to the parent of the working directory)")
	fs.IntVar(&opts.year, "year", config.DefaultYear, "flow year, selects the tons_<year> column")
	fs.IntVar(&opts.limit, "limit", 0, "read at most this many flow rows (0 reads all)")
	fs.StringVar(&opts.tradeType, "trade-type", "", "keep only flows of this trade type code")
	fs.BoolVar(&opts.reuseTotals, "reuse-totals", false, "load the totals CSV of an earlier run instead of aggregating")
	fs.BoolVar(&opts.geoJSON, "geojson", false, "also write the joined regions as GeoJSON")
	fs.BoolVar(&opts.version, "version", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// apply overlays the explicitly set flags onto cfg
func (o *options) apply(cfg *config.Config) {
	if o.set["base"] {
		cfg.Paths.BaseDir = o.baseDir
	}
	if o.set["year"] {
		cfg.Pipeline.Year = o.year
	}
	if o.set["limit"] {
		cfg.Pipeline.Limit = o.limit
	}
	if o.set["trade-type"] {
		cfg.Pipeline.TradeType = o.tradeType
	}
	if o.set["reuse-totals"] {
		cfg.Pipeline.ReuseTotals = o.reuseTotals
	}
	if o.set["geojson"] {
		cfg.Pipeline.WriteGeoJSON = o.geoJSON
	}
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if opts.version {
		fmt.Println(contracts.GetFullVersionString(config.AppName))
		return
	}

	if err := run(context.Background(), opts); err != nil {
		if errors.Is(err, geometry.ErrInvalidShapefileSuffix) {
			slog.Error("Output must be a shapefile, nothing written", "error", err)
		} else {
			slog.Error("Run failed", "error", err)
		}
		infrastructure.CloseLogFile()
		os.Exit(1)
	}
	infrastructure.CloseLogFile()
}

func run(ctx context.Context, opts *options) error {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	paths := config.NewPaths(cfg.Paths)
	if err := paths.EnsureDirectories(); err != nil {
		return err
	}

	cfg.Logging.FilePath = paths.Resolve(cfg.Logging.FilePath)
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	ctx = infrastructure.WithRunID(ctx, infrastructure.GenerateRunID())
	logger.InfoContext(ctx, "Starting FAF5 regional tonnage run",
		slog.String("version", config.AppVersion),
		slog.String("base_dir", paths.BaseDir),
		slog.Int("year", cfg.Pipeline.Year))

	runner := pipeline.NewRunner(cfg.Pipeline, paths,
		pipeline.WithLogger(logger),
		pipeline.WithTracer(providers.Tracer),
		pipeline.WithMetrics(metrics),
	)
	summary, runErr := runner.Run(ctx)

	if cfg.Telemetry.EnableMetrics {
		metricsFile := paths.Resolve(cfg.Telemetry.MetricsFile)
		if err := providers.WriteMetricsFile(metricsFile); err != nil {
			logger.WarnContext(ctx, "Failed to write metrics file", slog.String("error", err.Error()))
		}
	}

	if runErr != nil {
		return runErr
	}

	logger.InfoContext(ctx, "Run summary",
		slog.Int("regions", summary.Regions),
		slog.Int("flow_records", summary.FlowRecords),
		slog.Int("unmatched_origins", summary.UnmatchedOrigins),
		slog.Int("unmatched_destinations", summary.UnmatchedDestinations),
		slog.Float64("total_import", summary.TotalImport),
		slog.Float64("total_export", summary.TotalExport),
		slog.Int("features", summary.Features),
		slog.Int("matched_features", summary.MatchedFeatures),
		slog.String("totals_csv", summary.TotalsCSV),
		slog.String("shapefile", summary.Shapefile),
		slog.String("geojson", summary.GeoJSON),
		slog.Duration("duration", summary.Duration))
	return nil
}
