package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"faftonnage/internal/config"
	"faftonnage/internal/geocode"
	"faftonnage/internal/infrastructure"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	userAgent := flag.String("user-agent", "", "User-Agent sent to the geocoding service")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: geocode [flags] place [place ...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *userAgent != "" {
		cfg.Geocode.UserAgent = *userAgent
	}

	logger, err := infrastructure.InitializeLogger(config.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: "console",
	})
	if err != nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := geocode.NewClient(cfg.Geocode, logger)
	if err := lookupAll(ctx, client, flag.Args(), os.Stdout); err != nil {
		slog.Error("Geocoding failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// lookupAll prints "lon lat" for each query, one per line. Queries without a
// match are reported and skipped; any other error stops the run.
func lookupAll(ctx context.Context, client *geocode.Client, queries []string, out io.Writer) error {
	missing := 0
	for _, q := range queries {
		p, err := client.Geocode(ctx, q)
		if errors.Is(err, geocode.ErrNoResults) {
			slog.Warn("No match", "query", q)
			missing++
			continue
		}
		if err != nil {
			return fmt.Errorf("%q: %w", q, err)
		}
		fmt.Fprintf(out, "%s\t%g %g\n", strings.TrimSpace(q), p.Lon(), p.Lat())
	}
	if missing == len(queries) {
		return geocode.ErrNoResults
	}
	return nil
}
