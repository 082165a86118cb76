package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"ilgcli/internal/config"
)

const (
	MeterName = "ilgcli"
)

// Export outcomes recorded on lead_export_runs_total
const (
	OutcomeExported = "exported"
	OutcomeEmpty    = "empty"
	OutcomeFailed   = "failed"
)

// Telemetry holds the OpenTelemetry providers for one process run.
// Tracer and Meter are always usable; they are no-ops when disabled.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *prometheus.Registry

	metricsFile string
	logger      *slog.Logger
}

// InitializeTelemetry sets up tracing and metrics per configuration.
// Spans are written synchronously to traceOut.
func InitializeTelemetry(cfg config.TelemetryConfig, traceOut io.Writer, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	t := &Telemetry{
		Tracer:      tracenoop.NewTracerProvider().Tracer(MeterName),
		Meter:       metricnoop.NewMeterProvider().Meter(MeterName),
		metricsFile: cfg.MetricsFile,
		logger:      logger,
	}

	if !cfg.Tracing && !cfg.Metrics {
		return t, nil
	}

	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if cfg.Tracing {
		if err := t.initializeTracing(cfg, res, traceOut); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.Metrics {
		if err := t.initializeMetrics(res); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	logger.Debug("OpenTelemetry initialization complete",
		slog.Bool("tracing_enabled", cfg.Tracing),
		slog.Bool("metrics_enabled", cfg.Metrics),
		slog.String("metrics_file", cfg.MetricsFile))

	return t, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg config.TelemetryConfig) (*resource.Resource, error) {
	name := cfg.ServiceName
	if name == "" {
		name = config.AppName
	}
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(name),
		semconv.ServiceVersion(config.AppVersion),
	), nil
}

// initializeTracing sets up OpenTelemetry tracing
func (t *Telemetry) initializeTracing(cfg config.TelemetryConfig, res *resource.Resource, out io.Writer) error {
	if cfg.TraceExporter == "none" {
		return nil
	}
	if cfg.TraceExporter != "stdout" {
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(out),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	// A one-shot CLI exits right after the run; export spans as they end.
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)

	t.TracerProvider = tp
	t.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(config.AppVersion))
	return nil
}

// initializeMetrics sets up OpenTelemetry metrics read through a private
// Prometheus registry
func (t *Telemetry) initializeMetrics(res *resource.Resource) error {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	t.Registry = registry
	t.MeterProvider = mp
	t.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(config.AppVersion))
	return nil
}

// WriteMetrics writes the current metric values to path in the Prometheus
// text exposition format.
func (t *Telemetry) WriteMetrics(path string) error {
	if t.Registry == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, t.Registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}

// Shutdown flushes metrics to the configured textfile and shuts down the
// providers. Metrics are written before the meter provider stops.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.metricsFile != "" {
		if err := t.WriteMetrics(t.metricsFile); err != nil {
			errs = append(errs, err)
		}
	}

	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}
	return nil
}

// ExportMetrics holds the instruments recorded for each export run
type ExportMetrics struct {
	Runs     metric.Int64Counter
	Rows     metric.Int64Counter
	Duration metric.Float64Histogram
}

// NewExportMetrics creates the export instruments on meter
func NewExportMetrics(meter metric.Meter) (*ExportMetrics, error) {
	runs, err := meter.Int64Counter(
		"lead_export_runs",
		metric.WithDescription("Total number of lead export runs by outcome"),
	)
	if err != nil {
		return nil, err
	}

	rows, err := meter.Int64Counter(
		"lead_export_rows",
		metric.WithDescription("Total number of lead rows written to export files"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"lead_export_duration",
		metric.WithDescription("Lead export run duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &ExportMetrics{Runs: runs, Rows: rows, Duration: duration}, nil
}

// RecordRun records the outcome, row count and duration of one export run
func (m *ExportMetrics) RecordRun(ctx context.Context, outcome, category string, rows int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("category", category),
	)
	m.Runs.Add(ctx, 1, attrs)
	m.Rows.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("category", category)))
	m.Duration.Record(ctx, duration.Seconds(), attrs)
}

// TraceIDFromContext extracts trace ID from context for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
