package exporter

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet lead exports are written to
const SheetName = "Sheet1"

// XLSXStreamWriter writes rows into a single-sheet workbook. Nothing is
// written to disk until Close.
type XLSXStreamWriter struct {
	path   string
	file   *excelize.File
	stream *excelize.StreamWriter
	row    int
	rows   int
}

// CreateXLSXStreamWriter starts a workbook for filePath with a header row
func CreateXLSXStreamWriter(filePath string, headers []string, logger *slog.Logger) (*XLSXStreamWriter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Creating XLSX stream writer",
		slog.String("file_path", filePath),
		slog.Int("header_count", len(headers)))

	f := excelize.NewFile()
	stream, err := f.NewStreamWriter(SheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet stream: %w", err)
	}

	x := &XLSXStreamWriter{path: filePath, file: f, stream: stream, row: 1}

	if len(headers) > 0 {
		cells := make([]interface{}, len(headers))
		for i, h := range headers {
			cells[i] = h
		}
		if err := x.setRow(cells); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	return x, nil
}

// WriteRow appends one row of typed cells
func (x *XLSXStreamWriter) WriteRow(cells []interface{}) error {
	if err := x.setRow(cells); err != nil {
		return err
	}
	x.rows++
	return nil
}

func (x *XLSXStreamWriter) setRow(cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, x.row)
	if err != nil {
		return err
	}
	if err := x.stream.SetRow(cell, cells); err != nil {
		return err
	}
	x.row++
	return nil
}

// Rows returns the number of data rows written, excluding the header
func (x *XLSXStreamWriter) Rows() int {
	return x.rows
}

// Path returns the workbook destination
func (x *XLSXStreamWriter) Path() string {
	return x.path
}

// Close flushes the sheet and saves the workbook
func (x *XLSXStreamWriter) Close() error {
	defer x.file.Close()

	if err := x.stream.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if err := x.file.SaveAs(x.path); err != nil {
		os.Remove(x.path)
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// Abort discards the workbook. The destination was never written, so it
// is left as it was.
func (x *XLSXStreamWriter) Abort() error {
	return x.file.Close()
}
