// Package export encodes claim records as CSV, XLSX or JSON.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/a3tai/mcp-remit-reader/internal/claims"
)

// Format is an output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// SheetName is the worksheet that holds the records in XLSX output.
const SheetName = "Claims"

// Formats lists the supported formats.
var Formats = []Format{FormatCSV, FormatXLSX, FormatJSON}

// ParseFormat parses a case-insensitive format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported export format %q (want csv, xlsx or json)", s)
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string { return string(f) }

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	default:
		return "text/csv"
	}
}

// Write encodes records to w in format f.
func Write(w io.Writer, f Format, records []claims.ClaimRecord) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatXLSX:
		return WriteXLSX(w, records)
	case FormatJSON:
		return WriteJSON(w, records)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// WriteCSV writes a header row in record field order followed by one row
// per record. The header is written even when records is empty.
func WriteCSV(w io.Writer, records []claims.ClaimRecord) error {
	if records == nil {
		records = []claims.ClaimRecord{}
	}
	if err := gocsv.Marshal(records, w); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}
	return nil
}

// WriteXLSX writes a single-sheet workbook with columns in report order.
func WriteXLSX(w io.Writer, records []claims.ClaimRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	header := make([]any, len(claims.ReportFields))
	for i, field := range claims.ReportFields {
		header[i] = string(field)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("xlsx header: %w", err)
	}

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		_ = f.SetCellStyle(SheetName, "A1", last, style)
	}

	for i, rec := range records {
		values := rec.Values(claims.ReportFields)
		row := make([]any, len(values))
		for j, v := range values {
			row[j] = v
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("xlsx row %d: %w", i+2, err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(header))
	_ = f.SetColWidth(SheetName, "A", lastCol, 18)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

// WriteJSON writes records as an indented JSON array keyed by field name.
func WriteJSON(w io.Writer, records []claims.ClaimRecord) error {
	if records == nil {
		records = []claims.ClaimRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("json write: %w", err)
	}
	return nil
}

// AttachmentName returns the download name for a parsed upload, e.g.
// "remit.pdf" becomes "remit_parsed.csv".
func AttachmentName(source string, f Format) string {
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "claims"
	}
	return base + "_parsed." + f.Extension()
}

// OutputPath replaces the extension of input with the one for f.
func OutputPath(input string, f Format) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + "." + f.Extension()
}
