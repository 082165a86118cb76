// Package exporter writes scored leads to export files.
//
// This package contains three main components:
//
// CSVWriter: Core CSV writing with a header row, streaming, optional CRLF
// record endings and an optional UTF-8 BOM for Excel compatibility.
//
// XLSXStreamWriter: Single-sheet workbook output through the excelize
// stream writer, keeping scores as numeric cells.
//
// LeadSink: The per-file view the export service writes to. OpenSink picks
// CSV or XLSX from the file extension.
//
// Field conventions are fixed so output is byte-for-byte reproducible:
// booleans are written as 1 and 0, floats use the shortest round-trip form
// with at least one decimal digit (92.5, 0.8, 92.0), and NULL columns are
// empty fields.
//
// Example usage:
//
//	sink, err := exporter.OpenSink("exports/leads.csv", exporter.CSVOptions{UseCRLF: true}, logger)
//	if err != nil {
//	    return err
//	}
//	for _, lead := range leads {
//	    if err := sink.Write(lead); err != nil {
//	        sink.Abort()
//	        return err
//	    }
//	}
//	return sink.Close()
package exporter
