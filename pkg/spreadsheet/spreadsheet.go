// Package spreadsheet turns xlsx and csv workbooks into plain string tables.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format names a supported workbook encoding.
type Format string

const (
	FormatAuto Format = "auto"
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ErrEmpty is returned when the sheet has no header row.
var ErrEmpty = errors.New("spreadsheet has no header row")

var zipMagic = []byte("PK\x03\x04")

// Table is a header row plus data rows. Rows may be shorter than the header.
type Table struct {
	Sheet  string
	Header []string
	Rows   [][]string
}

// Cell returns the trimmed value at row/column, empty when out of range.
func (t *Table) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// ParseFormat maps a config value to a Format, defaulting to auto.
func ParseFormat(raw string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatXLSX, "xlsm", "excel":
		return FormatXLSX
	case FormatCSV:
		return FormatCSV
	default:
		return FormatAuto
	}
}

// DetectFormat guesses the encoding from the file name, the content type and finally the payload.
func DetectFormat(name, contentType string, data []byte) Format {
	switch strings.ToLower(path.Ext(strings.SplitN(name, "?", 2)[0])) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".csv", ".txt":
		return FormatCSV
	}
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "spreadsheetml"), strings.Contains(ct, "ms-excel"):
		return FormatXLSX
	case strings.Contains(ct, "text/csv"):
		return FormatCSV
	}
	if bytes.HasPrefix(data, zipMagic) {
		return FormatXLSX
	}
	return FormatCSV
}

// Parse decodes data in the given format. sheet selects an xlsx sheet; empty means the first one.
func Parse(data []byte, format Format, sheet string) (*Table, error) {
	if format == FormatAuto || format == "" {
		format = DetectFormat("", "", data)
	}
	switch format {
	case FormatXLSX:
		return parseXLSX(data, sheet)
	case FormatCSV:
		return parseCSV(data)
	default:
		return nil, fmt.Errorf("unsupported spreadsheet format %q", format)
	}
}

func parseXLSX(data []byte, sheet string) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmpty
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return newTable(sheet, rows)
}

func parseCSV(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, record)
	}
	return newTable("", rows)
}

// sniffDelimiter prefers ';' when the header uses it, as spreadsheets exported with a comma decimal separator do.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

func newTable(sheet string, rows [][]string) (*Table, error) {
	for len(rows) > 0 && isBlank(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	body := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		body = append(body, row)
	}
	return &Table{Sheet: sheet, Header: header, Rows: body}, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
