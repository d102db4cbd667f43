package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"faftonnage/internal/aggregate"
	"faftonnage/internal/config"
	"faftonnage/internal/exporter"
	"faftonnage/internal/flows"
	"faftonnage/internal/geometry"
	"faftonnage/internal/infrastructure"
	"faftonnage/internal/metadata"
	"faftonnage/internal/validation"
	"faftonnage/pkg/contracts/domain"
)

var ErrUnknownTradeType = errors.New("trade type not listed in metadata")

// Summary reports the outcome of a run.
type Summary struct {
	RunID string

	Regions     int
	FlowRecords int
	// Unmatched counts are zero when totals were reused.
	UnmatchedOrigins      int
	UnmatchedDestinations int
	UnmatchedTons         float64
	TotalImport           float64
	TotalExport           float64

	Features        int
	MatchedFeatures int
	ReusedTotals    bool

	TotalsCSV string
	Shapefile string
	GeoJSON   string

	Steps    []*StepState
	Duration time.Duration
}

// Step returns the state of the step with id, or nil.
func (s *Summary) Step(id string) *StepState {
	for _, st := range s.Steps {
		if st.ID == id {
			return st
		}
	}
	return nil
}

// Runner executes one pipeline run.
type Runner struct {
	cfg     config.PipelineConfig
	paths   *config.Paths
	csv     *exporter.CSVWriter
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
	logger  *slog.Logger
}

// Option configures a Runner
type Option func(*Runner)

// WithTracer sets the tracer used for run and step spans.
func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) { r.tracer = t }
}

// WithMetrics sets the instruments a run records on.
func WithMetrics(m *infrastructure.PipelineMetrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a runner over the resolved paths.
func NewRunner(cfg config.PipelineConfig, paths *config.Paths, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		paths:  paths,
		csv:    exporter.NewCSVWriter(paths),
		tracer: tracenoop.NewTracerProvider().Tracer(infrastructure.MeterName),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		// noop instruments never fail to build
		r.metrics, _ = infrastructure.CreatePipelineMetrics(metricnoop.NewMeterProvider().Meter(infrastructure.MeterName))
	}
	r.logger = infrastructure.WithComponent(r.logger, "pipeline")
	return r
}

// plan lists the steps of a run in order
func (r *Runner) plan() []*StepState {
	var ids []string
	if r.cfg.ReuseTotals {
		ids = []string{StepLoadTotals}
	} else {
		ids = []string{StepMetadata, StepFlows, StepAggregate, StepWriteTotals}
	}
	ids = append(ids, StepReadRegions, StepMerge, StepWriteShapefile, StepWriteGeoJSON)

	steps := make([]*StepState, len(ids))
	for i, id := range ids {
		steps[i] = NewStepState(id)
	}
	return steps
}

// Run executes the pipeline. The returned summary is non-nil even on
// failure and shows how far the run got.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	start := time.Now()

	summary := &Summary{
		RunID:        infrastructure.GetRunID(ctx),
		ReusedTotals: r.cfg.ReuseTotals,
		Steps:        r.plan(),
	}
	defer func() { summary.Duration = time.Since(start) }()

	ctx, span := r.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("run_id", summary.RunID),
		attribute.Int("year", r.cfg.Year),
		attribute.Bool("reuse_totals", r.cfg.ReuseTotals),
	))
	defer span.End()

	// fail before any read or write when the output cannot be a shapefile
	if err := geometry.ValidateShapefilePath(r.paths.OutputShapefile); err != nil {
		infrastructure.RecordError(ctx, err)
		return summary, err
	}

	if err := validation.NewInputValidator(r.logger).ValidateInputs(r.paths, r.cfg.ReuseTotals); err != nil {
		infrastructure.RecordError(ctx, err)
		return summary, err
	}

	r.logger.InfoContext(ctx, "Pipeline started",
		slog.Int("year", r.cfg.Year),
		slog.Int("limit", r.cfg.Limit),
		slog.String("trade_type", r.cfg.TradeType),
		slog.Bool("reuse_totals", r.cfg.ReuseTotals))

	table, err := r.totals(ctx, summary)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return summary, err
	}

	if err := r.regions(ctx, summary, table); err != nil {
		infrastructure.RecordError(ctx, err)
		return summary, err
	}

	r.logger.InfoContext(ctx, "Pipeline completed",
		slog.Int("regions", summary.Regions),
		slog.Int("flow_records", summary.FlowRecords),
		slog.Int("features", summary.Features),
		slog.Int("matched_features", summary.MatchedFeatures),
		slog.String("shapefile", summary.Shapefile),
		slog.Duration("duration", time.Since(start)))

	return summary, nil
}

// totals produces the zone totals table, computed or reloaded
func (r *Runner) totals(ctx context.Context, summary *Summary) ([]domain.ZoneTotals, error) {
	var table []domain.ZoneTotals

	if r.cfg.ReuseTotals {
		err := r.runStep(ctx, summary.Step(StepLoadTotals), func(ctx context.Context) error {
			var err error
			table, err = r.csv.ReadZoneTotals(r.paths.TotalsCSV)
			if err != nil {
				return fmt.Errorf("failed to load totals: %w", err)
			}
			summary.TotalsCSV = r.paths.TotalsCSV
			return nil
		})
		r.tally(summary, table)
		return table, err
	}

	var meta *metadata.Metadata
	err := r.runStep(ctx, summary.Step(StepMetadata), func(ctx context.Context) error {
		var err error
		meta, err = metadata.Load(r.paths.MetadataFile)
		if err != nil {
			return fmt.Errorf("failed to load metadata: %w", err)
		}
		if r.cfg.TradeType != "" && !meta.HasTradeType(r.cfg.TradeType) {
			return fmt.Errorf("%w: %q", ErrUnknownTradeType, r.cfg.TradeType)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var records []domain.FlowRecord
	err = r.runStep(ctx, summary.Step(StepFlows), func(ctx context.Context) error {
		var err error
		records, err = flows.Read(r.paths.FlowsFile, flows.ReadOptions{
			Year:      r.cfg.Year,
			Limit:     r.cfg.Limit,
			TradeType: r.cfg.TradeType,
		})
		if err != nil {
			return fmt.Errorf("failed to read flows: %w", err)
		}
		summary.FlowRecords = len(records)
		r.metrics.FlowRecords.Add(ctx, int64(len(records)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.runStep(ctx, summary.Step(StepAggregate), func(ctx context.Context) error {
		res := aggregate.Totals(meta.Regions, records)
		table = res.Table

		summary.UnmatchedOrigins = res.UnmatchedOrigins
		summary.UnmatchedDestinations = res.UnmatchedDestinations
		summary.UnmatchedTons = res.UnmatchedTons
		r.tally(summary, table)

		if unmatched := res.UnmatchedOrigins + res.UnmatchedDestinations; unmatched > 0 {
			r.logger.DebugContext(ctx, "Flow records with unknown zones excluded",
				slog.Int("unmatched_origins", res.UnmatchedOrigins),
				slog.Int("unmatched_destinations", res.UnmatchedDestinations),
				slog.Float64("unmatched_tons", res.UnmatchedTons))
			r.metrics.UnmatchedRecords.Add(ctx, int64(unmatched))
		}
		r.metrics.Regions.Add(ctx, int64(len(table)))
		r.metrics.Tons.Add(ctx, summary.TotalImport, metric.WithAttributes(attribute.String("direction", "import")))
		r.metrics.Tons.Add(ctx, summary.TotalExport, metric.WithAttributes(attribute.String("direction", "export")))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.runStep(ctx, summary.Step(StepWriteTotals), func(ctx context.Context) error {
		if err := r.csv.WriteZoneTotals(r.paths.TotalsCSV, table); err != nil {
			return fmt.Errorf("failed to write totals: %w", err)
		}
		summary.TotalsCSV = r.paths.TotalsCSV
		return nil
	})
	return table, err
}

// regions joins the totals onto the region layer and writes the outputs
func (r *Runner) regions(ctx context.Context, summary *Summary, table []domain.ZoneTotals) error {
	var layer *geometry.Layer
	err := r.runStep(ctx, summary.Step(StepReadRegions), func(ctx context.Context) error {
		var err error
		layer, err = geometry.ReadShapefile(r.paths.RegionsShapefile)
		if err != nil {
			return fmt.Errorf("failed to read regions: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	var merged *geometry.Layer
	err = r.runStep(ctx, summary.Step(StepMerge), func(ctx context.Context) error {
		var err error
		merged, err = geometry.Merge(layer, table, domain.ZoneKey)
		if err != nil {
			return fmt.Errorf("failed to merge totals: %w", err)
		}
		summary.Features = merged.Len()
		summary.MatchedFeatures = merged.Matched()
		return nil
	})
	if err != nil {
		return err
	}

	err = r.runStep(ctx, summary.Step(StepWriteShapefile), func(ctx context.Context) error {
		if err := geometry.WriteShapefile(r.paths.OutputShapefile, merged); err != nil {
			return fmt.Errorf("failed to write shapefile: %w", err)
		}
		summary.Shapefile = r.paths.OutputShapefile
		r.metrics.FeaturesWritten.Add(ctx, int64(merged.Len()))
		return nil
	})
	if err != nil {
		return err
	}

	geoStep := summary.Step(StepWriteGeoJSON)
	if !r.cfg.WriteGeoJSON || r.paths.OutputGeoJSON == "" {
		geoStep.Skip("geojson output disabled")
		return nil
	}
	return r.runStep(ctx, geoStep, func(ctx context.Context) error {
		if err := geometry.WriteGeoJSON(r.paths.OutputGeoJSON, merged); err != nil {
			return fmt.Errorf("failed to write geojson: %w", err)
		}
		summary.GeoJSON = r.paths.OutputGeoJSON
		return nil
	})
}

// runStep wraps fn in a span, state transitions and a duration metric.
// A cancelled context fails the step before fn runs.
func (r *Runner) runStep(ctx context.Context, step *StepState, fn func(context.Context) error) error {
	ctx, span := r.tracer.Start(ctx, "pipeline."+step.ID,
		trace.WithAttributes(attribute.String("step", step.ID)))
	defer span.End()

	step.Start()
	r.logger.DebugContext(ctx, "Step started", slog.String("step", step.ID))

	err := ctx.Err()
	if err == nil {
		err = fn(ctx)
	}

	if err != nil {
		step.Fail(err)
		infrastructure.RecordError(ctx, err)
		attrs := []any{slog.String("step", step.ID), slog.String("error", err.Error())}
		if traceID := infrastructure.TraceIDFromContext(ctx); traceID != "" {
			attrs = append(attrs, slog.String("trace_id", traceID))
		}
		r.logger.ErrorContext(ctx, "Step failed", attrs...)
	} else {
		step.Complete()
		r.logger.InfoContext(ctx, "Step completed",
			slog.String("step", step.ID),
			slog.Duration("duration", step.Duration()))
	}

	r.metrics.RecordStage(ctx, step.ID, step.Duration(), err)
	return err
}

// tally sums the table into the summary
func (r *Runner) tally(summary *Summary, table []domain.ZoneTotals) {
	summary.Regions = len(table)
	summary.TotalImport, summary.TotalExport = 0, 0
	for _, t := range table {
		summary.TotalImport += t.TotalImport
		summary.TotalExport += t.TotalExport
	}
}
