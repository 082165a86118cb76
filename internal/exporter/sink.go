package exporter

import (
	"log/slog"
	"path/filepath"
	"strings"

	"ilgcli/internal/config"
	"ilgcli/internal/storage"
)

// LeadSink receives leads for one export file. The file format is chosen
// when the sink is opened.
type LeadSink interface {
	Write(l storage.Lead) error
	Rows() int
	Path() string
	// Close finishes the file. Abort discards it instead.
	Close() error
	Abort() error
}

// FormatForPath returns the export format implied by a file extension.
// Anything other than .xlsx is written as CSV.
func FormatForPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), "."+config.FormatXLSX) {
		return config.FormatXLSX
	}
	return config.FormatCSV
}

// OpenSink creates the export file at path and writes its header row
func OpenSink(path string, opts CSVOptions, logger *slog.Logger) (LeadSink, error) {
	if FormatForPath(path) == config.FormatXLSX {
		x, err := CreateXLSXStreamWriter(path, LeadHeaders, logger)
		if err != nil {
			return nil, err
		}
		return &xlsxLeadSink{x}, nil
	}

	s, err := NewCSVWriter(opts, logger).CreateStreamWriter(path, LeadHeaders)
	if err != nil {
		return nil, err
	}
	return &csvLeadSink{s}, nil
}

// WriteLeads writes a materialized result set to path in one pass and
// returns the number of rows written. A failed write removes the file.
func WriteLeads(path string, leads []storage.Lead, opts CSVOptions, logger *slog.Logger) (int, error) {
	sink, err := OpenSink(path, opts, logger)
	if err != nil {
		return 0, err
	}

	for _, l := range leads {
		if err := sink.Write(l); err != nil {
			sink.Abort()
			return 0, err
		}
	}

	if err := sink.Close(); err != nil {
		return 0, err
	}
	return sink.Rows(), nil
}

type csvLeadSink struct {
	*StreamWriter
}

func (s *csvLeadSink) Write(l storage.Lead) error {
	return s.WriteRecord(LeadRecord(l))
}

type xlsxLeadSink struct {
	*XLSXStreamWriter
}

func (s *xlsxLeadSink) Write(l storage.Lead) error {
	return s.WriteRow(LeadCells(l))
}
