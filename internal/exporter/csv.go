package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"

	"ilgcli/internal/config"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions controls the byte-level layout of CSV output
type CSVOptions struct {
	UseCRLF bool // terminate records with \r\n
	BOM     bool // add UTF-8 BOM for Excel compatibility
}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	opts   CSVOptions
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(opts CSVOptions, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{opts: opts, logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers []string
	Records [][]string
}

// WriteCSV writes a complete CSV file, replacing any existing file
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	w.logger.Debug("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)))

	stream, err := w.CreateStreamWriter(filePath, options.Headers)
	if err != nil {
		return err
	}

	for i, record := range options.Records {
		if err := stream.WriteRecord(record); err != nil {
			stream.Abort()
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	return stream.Close()
}

// StreamWriter writes CSV records one at a time
type StreamWriter struct {
	path   string
	file   *os.File
	writer *csv.Writer
	rows   int
}

// CreateStreamWriter creates filePath and writes the optional BOM and the
// header row. The parent directory must already exist.
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	w.logger.Debug("Creating CSV stream writer",
		slog.String("file_path", filePath),
		slog.Int("header_count", len(headers)))

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, config.FilePermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	s := &StreamWriter{path: filePath, file: file, writer: csv.NewWriter(file)}
	s.writer.UseCRLF = w.opts.UseCRLF

	if w.opts.BOM {
		if _, err := file.Write(utf8BOM); err != nil {
			s.Abort()
			return nil, fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	if len(headers) > 0 {
		if err := s.writer.Write(headers); err != nil {
			s.Abort()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	return s, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	if err := s.writer.Write(record); err != nil {
		return err
	}
	s.rows++
	return nil
}

// Rows returns the number of records written, excluding the header
func (s *StreamWriter) Rows() int {
	return s.rows
}

// Path returns the file being written
func (s *StreamWriter) Path() string {
	return s.path
}

// Close flushes and closes the stream writer
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return s.file.Close()
}

// Abort closes the stream and removes the partially written file
func (s *StreamWriter) Abort() error {
	s.file.Close()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove partial file: %w", err)
	}
	return nil
}
