package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"ilgcli/internal/config"
	apperrors "ilgcli/internal/errors"
	"ilgcli/internal/exporter"
	"ilgcli/internal/infrastructure"
	"ilgcli/internal/storage"
	"ilgcli/internal/validation"
)

// ExportResult describes a finished export run. Path is empty when no
// leads matched and no file was written.
type ExportResult struct {
	Count    int
	Path     string
	Format   string
	Duration time.Duration
}

// LeadExportService exports scored leads from the database to a file
type LeadExportService struct {
	config   *config.Config
	paths    *config.Paths
	files    *validation.FileValidator
	requests *validation.RequestValidator
	tracer   trace.Tracer
	metrics  *infrastructure.ExportMetrics
	logger   *slog.Logger
	now      func() time.Time
	newSink  func(path string, opts exporter.CSVOptions, logger *slog.Logger) (exporter.LeadSink, error)
}

// NewLeadExportService creates an export service. A nil telemetry disables
// tracing and metrics.
func NewLeadExportService(cfg *config.Config, tel *infrastructure.Telemetry, logger *slog.Logger) (*LeadExportService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	paths, err := config.GetPaths(cfg.Paths)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to resolve paths", err)
	}

	tracer := tracenoop.NewTracerProvider().Tracer(infrastructure.MeterName)
	var metrics *infrastructure.ExportMetrics
	if tel != nil {
		tracer = tel.Tracer
		metrics, err = infrastructure.NewExportMetrics(tel.Meter)
		if err != nil {
			return nil, fmt.Errorf("failed to create export metrics: %w", err)
		}
	}

	logger = infrastructure.WithComponent(logger, "lead_export")
	logger.Debug("LeadExportService initialized with paths",
		slog.String("database_file", paths.DatabaseFile),
		slog.String("exports_dir", paths.ExportsDir),
		slog.Bool("streaming", cfg.Export.Streaming))

	return &LeadExportService{
		config:   cfg,
		paths:    paths,
		files:    validation.NewFileValidator(logger),
		requests: validation.NewRequestValidator(),
		tracer:   tracer,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
		newSink:  exporter.OpenSink,
	}, nil
}

// Paths returns the resolved locations the service reads and writes
func (s *LeadExportService) Paths() *config.Paths {
	return s.paths
}

// Export runs one export. Zero matching leads is a successful run that
// creates no file. The database connection is closed on every path.
func (s *LeadExportService) Export(ctx context.Context, req validation.ExportRequest) (result *ExportResult, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "export_leads",
		trace.WithAttributes(attribute.String("lead.category", req.Category)))
	defer span.End()

	outcome := infrastructure.OutcomeFailed
	defer func() {
		rows := 0
		if result != nil {
			rows = result.Count
		}
		if err != nil {
			infrastructure.RecordError(ctx, err)
		}
		span.SetAttributes(
			attribute.String("lead.outcome", outcome),
			attribute.Int("lead.rows", rows))
		s.metrics.RecordRun(ctx, outcome, req.Category, rows, time.Since(start))
	}()

	if err := s.requests.Validate(req); err != nil {
		return nil, err
	}

	if err := s.files.ValidateDatastore(s.paths.DatabaseFile); err != nil {
		return nil, err
	}

	if err := s.paths.EnsureExportsDir(); err != nil {
		return nil, apperrors.NewFileSystemError("create exports directory", err).
			WithContext(apperrors.ContextKeyPath, s.paths.ExportsDir)
	}

	store, err := storage.Open(ctx, s.paths.DatabaseFile)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	s.logger.DebugContext(ctx, "Querying scored leads",
		slog.String("category", req.Category),
		slog.String("database_file", store.Path()))

	var path string
	var count int
	if s.config.Export.Streaming {
		path, count, err = s.stream(ctx, store, req)
	} else {
		path, count, err = s.materialize(ctx, store, req)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Lead export failed",
			slog.String("category", req.Category),
			slog.String("error", err.Error()))
		return nil, err
	}

	result = &ExportResult{Count: count, Path: path, Duration: time.Since(start)}
	if count == 0 {
		outcome = infrastructure.OutcomeEmpty
		s.logger.InfoContext(ctx, "No scored leads matched",
			slog.String("category", req.Category))
		return result, nil
	}

	outcome = infrastructure.OutcomeExported
	result.Format = exporter.FormatForPath(path)
	s.logger.InfoContext(ctx, "Lead export completed",
		slog.String("category", req.Category),
		slog.Int("rows", count),
		slog.String("output_path", path),
		slog.String("format", result.Format),
		slog.Duration("duration", result.Duration))
	return result, nil
}

// stream writes leads as they are scanned. The file is created on the
// first row, so an empty result leaves nothing behind.
func (s *LeadExportService) stream(ctx context.Context, store *storage.Store, req validation.ExportRequest) (string, int, error) {
	var sink exporter.LeadSink

	err := store.EachLead(ctx, req.Category, func(l storage.Lead) error {
		if sink == nil {
			var err error
			if sink, err = s.openSink(req); err != nil {
				return err
			}
		}
		if err := sink.Write(l); err != nil {
			return apperrors.NewFileSystemError("write export file", err).
				WithContext(apperrors.ContextKeyPath, sink.Path())
		}
		return nil
	})

	if sink == nil {
		return "", 0, err
	}
	if err != nil {
		s.abort(ctx, sink)
		return "", 0, err
	}
	if err := sink.Close(); err != nil {
		s.abort(ctx, sink)
		return "", 0, apperrors.NewFileSystemError("finish export file", err).
			WithContext(apperrors.ContextKeyPath, sink.Path())
	}
	return sink.Path(), sink.Rows(), nil
}

// materialize reads every matching lead before writing any of them
func (s *LeadExportService) materialize(ctx context.Context, store *storage.Store, req validation.ExportRequest) (string, int, error) {
	leads, err := store.ListLeads(ctx, req.Category)
	if err != nil {
		return "", 0, err
	}
	if len(leads) == 0 {
		return "", 0, nil
	}

	path := s.outputPath(req)
	if err := s.files.ValidateOutputFile(path); err != nil {
		return "", 0, err
	}

	n, err := exporter.WriteLeads(path, leads, s.csvOptions(), s.logger)
	if err != nil {
		return "", 0, apperrors.NewFileSystemError("write export file", err).
			WithContext(apperrors.ContextKeyPath, path)
	}
	return path, n, nil
}

func (s *LeadExportService) openSink(req validation.ExportRequest) (exporter.LeadSink, error) {
	path := s.outputPath(req)
	if err := s.files.ValidateOutputFile(path); err != nil {
		return nil, err
	}

	sink, err := s.newSink(path, s.csvOptions(), s.logger)
	if err != nil {
		return nil, apperrors.NewFileSystemError("create export file", err).
			WithContext(apperrors.ContextKeyPath, path)
	}
	return sink, nil
}

func (s *LeadExportService) abort(ctx context.Context, sink exporter.LeadSink) {
	if err := sink.Abort(); err != nil {
		s.logger.WarnContext(ctx, "Failed to remove partial export file",
			slog.String("output_path", sink.Path()),
			slog.String("error", err.Error()))
	}
}

// outputPath returns the requested path, or a timestamped name in the
// exports directory
func (s *LeadExportService) outputPath(req validation.ExportRequest) string {
	if req.OutputPath != "" {
		return req.OutputPath
	}
	name := config.DefaultExportFileName(s.config.Export, req.Category, s.now())
	return s.paths.GetExportPath(name)
}

func (s *LeadExportService) csvOptions() exporter.CSVOptions {
	return exporter.CSVOptions{
		UseCRLF: s.config.Export.UseCRLF,
		BOM:     s.config.Export.BOM,
	}
}
