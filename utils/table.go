package utils

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned when an uploaded file is neither CSV nor XLSX
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyTable is returned when a file has no header row
	ErrEmptyTable = errors.New("no header row found in file")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

// Table is a decoded upload: a header row and the data rows beneath it.
// Every data row has exactly len(Headers) cells.
type Table struct {
	Headers []string
	Rows    [][]string
	Lines   []int // file line each row starts on
}

// Line returns the 1-based file line row i starts on. Tables built without
// line information assume one line per row after a single header line.
func (t Table) Line(i int) int {
	if i < len(t.Lines) {
		return t.Lines[i]
	}
	return i + 2
}

// Column returns the index of the named header, or -1
func (t Table) Column(name string) int {
	for i, header := range t.Headers {
		if header == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named header is present
func (t Table) HasColumn(name string) bool {
	return t.Column(name) >= 0
}

// RenameColumn renames a header in place when from exists and to does not
func (t *Table) RenameColumn(from, to string) {
	if t.HasColumn(to) {
		return
	}
	if idx := t.Column(from); idx >= 0 {
		t.Headers[idx] = to
	}
}

// Record returns row i as a header -> value map
func (t Table) Record(i int) map[string]string {
	record := make(map[string]string, len(t.Headers))
	for col, header := range t.Headers {
		record[header] = t.Rows[i][col]
	}
	return record
}

// ParseTable decodes an upload by file extension. Files without an
// extension are read as CSV.
func ParseTable(fileName string, payload []byte) (Table, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv", "":
		return ParseCSV(payload)
	case ".xlsx":
		return ParseXLSX(payload)
	default:
		return Table{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// ParseCSV reads comma separated data with a header row. Quoted fields may
// contain separators and newlines. Blank lines are skipped.
func ParseCSV(payload []byte) (Table, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1

	var records [][]string
	var lines []int
	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("failed to read csv: %w", err)
		}
		line, _ := csvReader.FieldPos(0)
		records = append(records, record)
		lines = append(lines, line)
	}

	return normalizeTable(records, lines)
}

// ParseXLSX reads the first sheet of an Excel workbook
func ParseXLSX(payload []byte) (Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return Table{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}

	// GetRows keeps blank rows between data, so sheet rows map to indexes
	return normalizeTable(rows, nil)
}

// normalizeTable splits off the header row. lines holds the file line of
// each record; nil means record i sits on line i+1.
func normalizeTable(records [][]string, lines []int) (Table, error) {
	if len(records) == 0 {
		return Table{}, ErrEmptyTable
	}

	headers := make([]string, len(records[0]))
	for i, value := range records[0] {
		headers[i] = strings.TrimSpace(value)
	}

	rows := make([][]string, 0, len(records)-1)
	rowLines := make([]int, 0, len(records)-1)
	for i, record := range records[1:] {
		rows = append(rows, padRow(record, len(headers)))
		if lines != nil {
			rowLines = append(rowLines, lines[i+1])
		} else {
			rowLines = append(rowLines, i+2)
		}
	}

	return Table{Headers: headers, Rows: rows, Lines: rowLines}, nil
}

func padRow(row []string, length int) []string {
	padded := make([]string, length)
	for i := 0; i < length && i < len(row); i++ {
		padded[i] = strings.TrimSpace(row[i])
	}
	return padded
}
