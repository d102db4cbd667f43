package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"faftonnage/internal/config"
	"faftonnage/internal/geometry"
	"faftonnage/internal/infrastructure"
	"faftonnage/internal/shared/testutil"
	"faftonnage/internal/validation"
	"faftonnage/pkg/contracts/domain"
)

const wantTotalsCSV = "FAF_Zone,Short Description,Long Description,Total Import,Total Export\n" +
	"011,Birmingham AL,\"Birmingham-Hoover-Talladega, AL CFS Area\",30.75,4.25\n" +
	"012,Mobile AL,\"Mobile-Daphne-Fairhope, AL CFS Area\",3.5,30\n" +
	"019,Rest of AL,Remainder of Alabama,0,4\n" +
	"020,Alaska,Alaska,0,0\n"

func pipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{Year: 2020}
}

func TestRunner_Run(t *testing.T) {
	paths := testutil.WriteDataset(t, t.TempDir())
	logger, logs := testutil.NewTestLogger(t)

	summary, err := NewRunner(pipelineConfig(), paths, WithLogger(logger)).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 4, summary.Regions)
	assert.Equal(t, 4, summary.FlowRecords)
	assert.Equal(t, 0, summary.UnmatchedOrigins)
	assert.Equal(t, 1, summary.UnmatchedDestinations)
	assert.Equal(t, 4.0, summary.UnmatchedTons)
	assert.InDelta(t, 34.25, summary.TotalImport, 1e-9)
	assert.InDelta(t, 38.25, summary.TotalExport, 1e-9)
	assert.Equal(t, 5, summary.Features)
	assert.Equal(t, 4, summary.MatchedFeatures)
	assert.False(t, summary.ReusedTotals)
	assert.Equal(t, paths.TotalsCSV, summary.TotalsCSV)
	assert.Equal(t, paths.OutputShapefile, summary.Shapefile)
	assert.Empty(t, summary.GeoJSON)

	for _, st := range summary.Steps {
		if st.ID == StepWriteGeoJSON {
			assert.Equal(t, StepStatusSkipped, st.Status)
			continue
		}
		assert.Equal(t, StepStatusCompleted, st.Status, st.ID)
	}
	assert.Nil(t, summary.Step(StepLoadTotals))

	content, err := os.ReadFile(paths.TotalsCSV)
	require.NoError(t, err)
	assert.Equal(t, wantTotalsCSV, string(content))

	layer, err := geometry.ReadShapefile(paths.OutputShapefile)
	require.NoError(t, err)
	require.Equal(t, 5, layer.Len())
	assert.NotEmpty(t, layer.Projection)

	source := &geometry.Layer{Fields: layer.Fields[:2], JoinKey: domain.ZoneKey}
	imp := geometry.DBFName(source, domain.ImportColumn)
	exp := geometry.DBFName(source, domain.ExportColumn)
	want := map[string][2]float64{
		"011": {30.75, 4.25},
		"012": {3.5, 30},
		"019": {0, 4},
		"020": {0, 0},
	}
	for _, f := range layer.Features {
		zone := f.Attributes["FAF_Zone"]
		w, ok := want[zone]
		if !ok {
			assert.Equal(t, "999", zone)
			assert.Empty(t, f.Attributes[imp], "unmatched zone has null tonnage")
			assert.Empty(t, f.Attributes[exp])
			continue
		}
		assert.InDelta(t, w[0], parse(t, f.Attributes[imp]), 1e-9, zone)
		assert.InDelta(t, w[1], parse(t, f.Attributes[exp]), 1e-9, zone)
	}

	testutil.AssertLogAttr(t, logs, "component", "pipeline")
	testutil.AssertLogContains(t, logs, slog.LevelDebug, "unknown zones")
	testutil.AssertLogContains(t, logs, slog.LevelInfo, "Pipeline completed")
	testutil.AssertNoErrors(t, logs)
}

func TestRunner_ReuseTotals(t *testing.T) {
	paths := testutil.WriteDataset(t, t.TempDir())

	_, err := NewRunner(pipelineConfig(), paths).Run(context.Background())
	require.NoError(t, err)

	// a reused run must not touch the inputs of the aggregation
	require.NoError(t, os.Remove(paths.FlowsFile))
	require.NoError(t, os.Remove(paths.MetadataFile))
	require.NoError(t, os.RemoveAll(filepath.Dir(paths.OutputShapefile)))

	cfg := pipelineConfig()
	cfg.ReuseTotals = true
	summary, err := NewRunner(cfg, paths).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.ReusedTotals)
	assert.Equal(t, 4, summary.Regions)
	assert.Zero(t, summary.FlowRecords)
	assert.Equal(t, 4, summary.MatchedFeatures)
	assert.Nil(t, summary.Step(StepMetadata))
	assert.Equal(t, StepStatusCompleted, summary.Step(StepLoadTotals).Status)
	assert.FileExists(t, paths.OutputShapefile)
}

func TestRunner_ReuseTotalsMissing(t *testing.T) {
	paths := testutil.WriteDataset(t, t.TempDir())

	cfg := pipelineConfig()
	cfg.ReuseTotals = true
	summary, err := NewRunner(cfg, paths).Run(context.Background())
	require.ErrorIs(t, err, validation.ErrMissingInput)

	assert.Equal(t, StepStatusPending, summary.Step(StepLoadTotals).Status)
	assert.NoFileExists(t, paths.OutputShapefile)
}

func TestRunner_MissingRegionsWritesNothing(t *testing.T) {
	paths := testutil.WriteDataset(t, t.TempDir())
	require.NoError(t, os.Remove(paths.RegionsShapefile))

	summary, err := NewRunner(pipelineConfig(), paths).Run(context.Background())
	require.ErrorIs(t, err, validation.ErrMissingInput)

	for _, st := range summary.Steps {
		assert.Equal(t, StepStatusPending, st.Status, st.ID)
	}
	assert.NoFileExists(t, paths.TotalsCSV)
}

func TestRunner_MalformedFlows(t *testing.T) {
	paths := testutil.WriteDataset(t, t.TempDir())
	require.NoError(t, os.WriteFile(paths.FlowsFile,
		[]byte("dms_orig,dms_dest,tons_2020\n11,12,lots\n"), 0644))

	summary, err := NewRunner(pipelineConfig(), paths).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Equal(t, StepStatusCompleted, summary.Step(StepMetadata).Status)
	assert.Equal(t, StepStatusFailed, summary.Step(StepFlows).Status)
	assert.Equal(t, StepStatusPending, summary.Step(StepAggregate).Status)
}

func TestRunner_FailedStepLogsTraceID(t *testing.T) {
	paths := testutil.WriteDataset(t, t.TempDir())
	require.NoError(t, os.WriteFile(paths.FlowsFile,
		[]byte("dms_orig,dms_dest,tons_2020\n11,12,lots\n"), 0644))

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	logger, logs := testutil.NewTestLogger(t)

	_, err := NewRunner(pipelineConfig(), paths,
		WithTracer(tp.Tracer("test")),
		WithLogger(logger),
	).Run(context.Background())
	require.Error(t, err)

	var traceID string
	for _, s := range recorder.Ended() {
		if s.Name() == "pipeline.flows" {
			traceID = s.SpanContext().TraceID().String()
		}
	}
	require.NotEmpty(t, traceID)

	failed := logs.GetRecordsByLevel(slog.LevelError)
	require.NotEmpty(t, failed)
	assert.Equal(t, "Step failed", failed[0].Message)
	assert.Equal(t, StepFlows, failed[0].Attrs["step"])
	assert.Equal(t, traceID, failed[0].Attrs["trace_id"])
}

func TestRunner_InvalidShapefileSuffix(t *testing.T) {
	base := t.TempDir()
	paths := testutil.WriteDataset(t, base)
	paths.OutputShapefile = filepath.Join(base, "data", "out", "regions.csv")

	summary, err := NewRunner(pipelineConfig(), paths).Run(context.Background())
	require.ErrorIs(t, err, geometry.ErrInvalidShapefileSuffix)

	for _, st := range summary.Steps {
		assert.Equal(t, StepStatusPending, st.Status, st.ID)
	}
	assert.NoFileExists(t, paths.TotalsCSV, "nothing is written")
	assert.NoDirExists(t, filepath.Join(base, "data", "out"))
}

func TestRunner_TradeType(t *testing.T) {
	t.Run("filters flows", func(t *testing.T) {
		paths := testutil.WriteDataset(t, t.TempDir())
		cfg := pipelineConfig()
		cfg.TradeType = "2"

		summary, err := NewRunner(cfg, paths).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, summary.FlowRecords)
		assert.InDelta(t, 0.75, summary.TotalImport, 1e-9)
		assert.InDelta(t, 0.75, summary.TotalExport, 1e-9)
	})

	t.Run("unknown code", func(t *testing.T) {
		paths := testutil.WriteDataset(t, t.TempDir())
		cfg := pipelineConfig()
		cfg.TradeType = "9"

		summary, err := NewRunner(cfg, paths).Run(context.Background())
		require.ErrorIs(t, err, ErrUnknownTradeType)
		assert.Equal(t, StepStatusFailed, summary.Step(StepMetadata).Status)
		assert.Equal(t, StepStatusPending, summary.Step(StepFlows).Status)
	})
}

func TestRunner_Limit(t *testing.T) {
	paths := testutil.WriteDataset(t, t.TempDir())
	cfg := pipelineConfig()
	cfg.Limit = 2

	summary, err := NewRunner(cfg, paths).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.FlowRecords)
	assert.InDelta(t, 33.5, summary.TotalImport, 1e-9)
	assert.Zero(t, summary.UnmatchedDestinations)
}

func TestRunner_Year(t *testing.T) {
	paths := testutil.WriteDataset(t, t.TempDir())
	cfg := pipelineConfig()
	cfg.Year = 2018

	summary, err := NewRunner(cfg, paths).Run(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1.5+10+0.25, summary.TotalImport, 1e-9)
}

func TestRunner_MissingYearColumn(t *testing.T) {
	paths := testutil.WriteDataset(t, t.TempDir())
	cfg := pipelineConfig()
	cfg.Year = 2030

	summary, err := NewRunner(cfg, paths).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StepStatusFailed, summary.Step(StepFlows).Status)
	assert.NoFileExists(t, paths.TotalsCSV)
}

func TestRunner_GeoJSON(t *testing.T) {
	paths := testutil.WriteDataset(t, t.TempDir())
	cfg := pipelineConfig()
	cfg.WriteGeoJSON = true

	summary, err := NewRunner(cfg, paths).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, paths.OutputGeoJSON, summary.GeoJSON)
	assert.Equal(t, StepStatusCompleted, summary.Step(StepWriteGeoJSON).Status)
	assert.FileExists(t, paths.OutputGeoJSON)
}

func TestRunner_Cancelled(t *testing.T) {
	paths := testutil.WriteDataset(t, t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := NewRunner(pipelineConfig(), paths).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StepStatusFailed, summary.Step(StepMetadata).Status)
}

func TestRunner_KeepsRunID(t *testing.T) {
	paths := testutil.WriteDataset(t, t.TempDir())
	ctx := infrastructure.WithRunID(context.Background(), "run-42")

	summary, err := NewRunner(pipelineConfig(), paths).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-42", summary.RunID)
}

func TestRunner_Telemetry(t *testing.T) {
	paths := testutil.WriteDataset(t, t.TempDir())

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := infrastructure.CreatePipelineMetrics(mp.Meter("test"))
	require.NoError(t, err)

	_, err = NewRunner(pipelineConfig(), paths,
		WithTracer(tp.Tracer("test")),
		WithMetrics(metrics),
	).Run(context.Background())
	require.NoError(t, err)

	spans := map[string]bool{}
	for _, s := range recorder.Ended() {
		spans[s.Name()] = true
	}
	for _, name := range []string{"pipeline.run", "pipeline.metadata", "pipeline.aggregate", "pipeline.write_shapefile"} {
		assert.True(t, spans[name], "missing span %s", name)
	}
	assert.False(t, spans["pipeline.write_geojson"], "skipped step has no span")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := map[string]int64{}
	histograms := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			case metricdata.Histogram[float64]:
				histograms[m.Name] = true
			}
		}
	}
	assert.Equal(t, int64(4), sums["faf_flow_records_total"])
	assert.Equal(t, int64(1), sums["faf_unmatched_records_total"])
	assert.Equal(t, int64(4), sums["faf_regions_total"])
	assert.Equal(t, int64(5), sums["faf_features_written_total"])
	assert.True(t, histograms["faf_stage_duration_seconds"])
}

func parse(t *testing.T, raw string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(raw, 64)
	require.NoError(t, err, "value %q", raw)
	return v
}
