// Package export writes a combined dataset in formats other than the
// canonical CSV artifact.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/goccy/go-yaml"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/csvmerge/internal/core"
)

const (
	XLSXName        = "combined-data.xlsx"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	JSONName        = "combined-data.json"
	JSONContentType = "application/json"
	YAMLName        = "combined-data.yaml"
	YAMLContentType = "application/yaml"

	// SheetName is the worksheet holding the combined rows.
	SheetName = "Combined"

	maxColWidth = 60
	minColWidth = 8
)

// Format selects an artifact encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatCSV, FormatXLSX, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want csv, xlsx, json or yaml)", s)
	}
}

// Write encodes t to w in the given format.
func Write(w io.Writer, f Format, t core.Table) error {
	switch f {
	case FormatCSV:
		return core.WriteCSV(w, t)
	case FormatXLSX:
		return WriteXLSX(w, t)
	case FormatJSON:
		return WriteJSON(w, t)
	case FormatYAML:
		return WriteYAML(w, t)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// WriteXLSX writes t as a single-sheet workbook. The header row is bold and
// column widths follow the widest value, within limits. Every cell is
// written as text; no number or date inference is applied. Empty values
// leave the cell unset.
func WriteXLSX(w io.Writer, t core.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	for i, width := range columnWidths(t) {
		if err := sw.SetColWidth(i+1, i+1, width); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}

	if len(t.Columns) > 0 {
		header := make([]interface{}, len(t.Columns))
		for i, c := range t.Columns {
			header[i] = excelize.Cell{Value: c, StyleID: headerStyle}
		}
		if err := sw.SetRow("A1", header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for r, row := range t.Rows {
		values := make([]interface{}, len(row))
		for i, v := range row {
			if v != "" {
				values[i] = v
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("write row %d: %w", r+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	return f.Write(w)
}

func columnWidths(t core.Table) []float64 {
	widths := make([]float64, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = float64(utf8.RuneCountInString(c))
	}
	for _, row := range t.Rows {
		for i, v := range row {
			if n := float64(utf8.RuneCountInString(v)); i < len(widths) && n > widths[i] {
				widths[i] = n
			}
		}
	}
	for i, wd := range widths {
		widths[i] = min(max(wd+2, minColWidth), maxColWidth)
	}
	return widths
}

// jsonTable keeps column order, which a slice of maps would lose.
type jsonTable struct {
	Columns []string   `json:"columns"`
	Rows    []core.Row `json:"rows"`
}

// WriteJSON writes t as {"columns": [...], "rows": [[...], ...]}.
func WriteJSON(w io.Writer, t core.Table) error {
	out := jsonTable{Columns: t.Columns, Rows: t.Rows}
	if out.Columns == nil {
		out.Columns = []string{}
	}
	if out.Rows == nil {
		out.Rows = []core.Row{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// WriteYAML writes t as a sequence of records, one mapping per row with
// keys in column order.
func WriteYAML(w io.Writer, t core.Table) error {
	records := make([]yaml.MapSlice, len(t.Rows))
	for r, row := range t.Rows {
		rec := make(yaml.MapSlice, len(t.Columns))
		for i, c := range t.Columns {
			rec[i] = yaml.MapItem{Key: c, Value: row[i]}
		}
		records[r] = rec
	}
	return yaml.NewEncoder(w).Encode(records)
}
