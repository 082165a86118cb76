package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Paths contains all the application paths, resolved to absolute form.
// This is the single source of truth for file locations in the exporter.
type Paths struct {
	Root         string
	DatabaseFile string
	ExportsDir   string
	LogsDir      string
}

// GetPaths resolves the configured paths against the project root
func GetPaths(cfg PathsConfig) (*Paths, error) {
	root := cfg.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %v", err)
		}
		root = wd
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %v", err)
	}

	// Directory structure:
	// <root>/
	//   ├── db/ilg.db     (scored leads, populated elsewhere)
	//   ├── exports/      (generated lead files)
	//   └── logs/         (application logs, when logging to file)
	return &Paths{
		Root:         root,
		DatabaseFile: resolveUnder(root, cfg.DatabaseFile),
		ExportsDir:   resolveUnder(root, cfg.ExportsDir),
		LogsDir:      resolveUnder(root, cfg.LogsDir),
	}, nil
}

func resolveUnder(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// EnsureExportsDir creates the exports directory if it does not exist.
// It is idempotent.
func (p *Paths) EnsureExportsDir() error {
	if err := os.MkdirAll(p.ExportsDir, DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %v", p.ExportsDir, err)
	}
	slog.Default().Debug("Ensured directory exists",
		slog.String("directory", p.ExportsDir))
	return nil
}

// GetExportPath returns the path of a file inside the exports directory
func (p *Paths) GetExportPath(filename string) string {
	return filepath.Join(p.ExportsDir, filename)
}

// GetLogPath returns the path of a file inside the logs directory
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// DefaultExportFileName builds "<prefix>[_<category>]_<timestamp>.<ext>".
func DefaultExportFileName(cfg ExportConfig, category string, now time.Time) string {
	var b strings.Builder
	b.WriteString(cfg.FilePrefix)
	if category != "" {
		b.WriteString("_")
		b.WriteString(category)
	}
	b.WriteString("_")
	b.WriteString(now.Format(cfg.TimestampLayout))
	b.WriteString(".")
	b.WriteString(strings.ToLower(cfg.Format))
	return b.String()
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs every resolved path at debug level
func (p *Paths) LogPathResolution() {
	slog.Default().Debug("Path resolution",
		slog.String("root", p.Root),
		slog.String("database_file", p.DatabaseFile),
		slog.String("exports_dir", p.ExportsDir),
		slog.String("logs_dir", p.LogsDir))
}
