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

	"ilgcli/internal/config"
	apperrors "ilgcli/internal/errors"
	"ilgcli/internal/infrastructure"
	"ilgcli/internal/services"
	"ilgcli/internal/validation"
)

const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one export and returns the process exit code. Console
// messages go to stdout; logs, traces and other errors go to stderr.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("export-leads", flag.ContinueOnError)
	fs.SetOutput(stderr)
	root := fs.String("root", "", "project root containing db/ and exports/ (defaults to ILG_PATHS_ROOT or the working directory)")
	configFile := fs.String("config", "", "config file (defaults to <root>/ilg.yaml or <root>/config/ilg.yaml)")
	version := fs.Bool("version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: export-leads [flags] [category] [output_path]\n\n")
		fmt.Fprintf(fs.Output(), "Exports scored leads to CSV, ordered by composite score.\n")
		fmt.Fprintf(fs.Output(), "Without a category every vertical is exported. Without an output path\n")
		fmt.Fprintf(fs.Output(), "the file is written to <root>/exports/leads[_<category>]_YYYYMMDD_HHMMSS.csv\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return apperrors.ExitOK
		}
		return apperrors.ExitUsage
	}

	if *version {
		fmt.Fprintf(stdout, "%s %s\n", config.AppName, config.AppVersion)
		return apperrors.ExitOK
	}

	positional := fs.Args()
	if len(positional) > 2 {
		fmt.Fprintf(stderr, "ERROR: expected at most 2 arguments, got %d\n", len(positional))
		fs.Usage()
		return apperrors.ExitUsage
	}

	req := validation.ExportRequest{}
	if len(positional) > 0 {
		req.Category = positional[0]
	}
	if len(positional) > 1 {
		req.OutputPath = positional[1]
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{Root: *root, ConfigFile: *configFile})
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.DefaultForRoot(*root)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx := infrastructure.ContextWithTraceID(context.Background())

	tel, err := infrastructure.InitializeTelemetry(cfg.Telemetry, stderr, logger)
	if err != nil {
		logger.WarnContext(ctx, "Failed to initialize telemetry, continuing without it",
			slog.String("error", err.Error()))
		tel = nil
	}
	if tel != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := tel.Shutdown(shutdownCtx); err != nil {
				logger.WarnContext(ctx, "Telemetry shutdown failed", slog.String("error", err.Error()))
			}
		}()
	}

	svc, err := services.NewLeadExportService(cfg, tel, logger)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return apperrors.ExitCode(err)
	}
	svc.Paths().LogPathResolution()

	logger.InfoContext(ctx, "Starting lead export",
		slog.String("version", config.AppVersion),
		slog.String("category", req.Category),
		slog.String("output_path", req.OutputPath))

	result, err := svc.Export(ctx, req)
	if err != nil {
		return reportError(err, stdout, stderr, fs)
	}

	if result.Count == 0 {
		fmt.Fprintln(stdout, "No scored leads found.")
		return apperrors.ExitOK
	}

	fmt.Fprintf(stdout, "Exported %d leads to %s\n", result.Count, result.Path)
	return apperrors.ExitOK
}

// reportError prints err in the console format for its type and returns
// the exit code
func reportError(err error, stdout, stderr io.Writer, fs *flag.FlagSet) int {
	switch {
	case apperrors.IsNotFound(err):
		fmt.Fprintf(stdout, "ERROR: Database not found at %s\n", apperrors.PathOf(err))
	case apperrors.IsType(err, apperrors.ErrTypeValidation):
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		fs.Usage()
	default:
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
	}
	return apperrors.ExitCode(err)
}
