package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// utf8BOM makes spreadsheet applications read accented headers such as "Sección" as UTF-8.
const utf8BOM = "\xef\xbb\xbf"

// Dataset is the tabular content of an export. Notes carry the summary lines of the selection.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
	Notes   []string
}

// CSVExporter writes a Dataset as CSV.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render writes the table, then an empty separator row and one row per note in the first column.
// Every record has as many fields as there are headers so strict readers accept the file.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	width := len(data.Headers)
	if width == 0 {
		return nil, fmt.Errorf("csv export has no columns")
	}

	var buf bytes.Buffer
	buf.WriteString(utf8BOM)
	w := csv.NewWriter(&buf)

	records := make([][]string, 0, len(data.Rows)+len(data.Notes)+2)
	records = append(records, data.Headers)
	for _, row := range data.Rows {
		record := make([]string, width)
		for i, column := range data.Headers {
			record[i] = row[column]
		}
		records = append(records, record)
	}
	if len(data.Notes) > 0 {
		records = append(records, make([]string, width))
		for _, note := range data.Notes {
			record := make([]string, width)
			record[0] = note
			records = append(records, record)
		}
	}

	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("write csv export: %w", err)
	}
	return buf.Bytes(), nil
}
