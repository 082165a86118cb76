package validation

import (
	"log/slog"
	"os"
	"path/filepath"

	"ilgcli/internal/config"
	apperrors "ilgcli/internal/errors"
)

// FileValidator checks the files and directories an export run touches
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateDatastore checks that the database file exists and is a regular
// file. A missing file yields a NOT_FOUND error carrying the path.
func (v *FileValidator) ValidateDatastore(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Database file does not exist",
			slog.String("file", path))
		return apperrors.NewNotFoundError("database").
			WithContext(apperrors.ContextKeyPath, path)
	}
	if err != nil {
		v.logger.Error("Failed to stat database file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewFileSystemError("stat database", err).
			WithContext(apperrors.ContextKeyPath, path)
	}
	if info.IsDir() {
		v.logger.Error("Database path is a directory",
			slog.String("path", path))
		return apperrors.NewNotFoundError("database").
			WithContext(apperrors.ContextKeyPath, path)
	}

	v.logger.Debug("Database file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures dir exists or can be created, and that
// files can be created in it
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, config.DirPermissions); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewFileSystemError("create output directory", err).
			WithContext(apperrors.ContextKeyPath, dir)
	}

	// Verify it's writable by creating a test file
	testFile, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewFileSystemError("write output directory", err).
			WithContext(apperrors.ContextKeyPath, dir)
	}
	name := testFile.Name()
	testFile.Close()
	os.Remove(name)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateOutputFile checks that path can be used as an export target: it
// must not be a directory, and its parent directory must be writable.
func (v *FileValidator) ValidateOutputFile(path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		v.logger.Error("Output path is a directory",
			slog.String("path", path))
		return apperrors.NewValidationError("output path is a directory", nil).
			WithContext(apperrors.ContextKeyPath, path)
	}

	return v.ValidateOutputDirectory(filepath.Dir(path))
}
