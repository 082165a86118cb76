package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"ilgcli/internal/config"
)

var (
	globalLogger     *slog.Logger
	globalLoggerOnce sync.Once

	// logFileMu guards globalLogFile
	logFileMu     sync.Mutex
	globalLogFile *os.File
)

type contextKey string

// TraceIDContextKey carries the per-run correlation ID
const TraceIDContextKey contextKey = "trace_id"

// InitializeLogger builds the process logger from cfg and installs it as
// the slog default. Later calls return the first logger unchanged.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	var err error
	globalLoggerOnce.Do(func() {
		var out io.Writer
		out, err = logOutput(cfg, os.Stdout, os.Stderr)
		if err != nil {
			return
		}
		globalLogger = NewLogger(cfg, out)
		slog.SetDefault(globalLogger)
	})
	return globalLogger, err
}

// GetLogger returns the process logger, or slog.Default before
// InitializeLogger has run
func GetLogger() *slog.Logger {
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}

// NewLogger builds a logger writing to w without touching global state
func NewLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLogLevel(cfg.Level),
		AddSource: parseLogLevel(cfg.Level) == slog.LevelDebug,
	}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(&traceHandler{Handler: h})
}

// logOutput picks the writer for cfg.Output. stdout is reserved for the
// export summary, so the console default is stderr.
func logOutput(cfg config.LoggingConfig, stdout, stderr io.Writer) (io.Writer, error) {
	output := strings.ToLower(cfg.Output)
	switch output {
	case "stdout":
		return stdout, nil
	case "file", "both":
	default:
		return stderr, nil
	}

	file, err := openLogFile(cfg.FilePath)
	if err != nil {
		return nil, err
	}

	logFileMu.Lock()
	globalLogFile = file
	logFileMu.Unlock()

	if output == "both" {
		return io.MultiWriter(stderr, file), nil
	}
	return file, nil
}

// traceHandler adds the run's trace_id and, inside an OpenTelemetry span,
// its span_id to every record
type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetTraceID(ctx); id != "" {
		r.AddAttrs(slog.String("trace_id", id))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(slog.String("span_id", sc.SpanID().String()))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}

// parseLogLevel accepts slog level names (case-insensitive) plus "warning".
// Anything unrecognized logs at info.
func parseLogLevel(level string) slog.Level {
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// WithTraceID returns ctx carrying traceID
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

// GetTraceID returns the trace ID stored in ctx, or ""
func GetTraceID(ctx context.Context) string {
	id, _ := ctx.Value(TraceIDContextKey).(string)
	return id
}

// CloseLogFile closes the log file opened by InitializeLogger, if any
func CloseLogFile() error {
	logFileMu.Lock()
	defer logFileMu.Unlock()

	if globalLogFile == nil {
		return nil
	}
	err := globalLogFile.Close()
	globalLogFile = nil
	return err
}

// ResetLoggerForTesting clears the process logger so tests can initialize
// it again
func ResetLoggerForTesting() {
	_ = CloseLogFile()
	globalLogger = nil
	globalLoggerOnce = sync.Once{}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), config.DirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create log directory for %s: %w", path, err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, config.FilePermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return file, nil
}
