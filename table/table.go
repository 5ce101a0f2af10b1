// Package table reads an uploaded spreadsheet (CSV or XLSX) into named
// columns and selects the URL column a fetch run works on.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported table format")
	ErrColumnNotFound    = errors.New("column not found")
	ErrEmptyTable        = errors.New("table has no header row")
)

// Table is a rectangular grid with a header row. Every row has
// len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Read parses path by extension: .csv or .xlsx (first sheet).
func Read(path string) (*Table, error) {
	f, err := os.Open(path) //nolint:gosec // user-supplied input file
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return ReadCSV(f)
	case ".xlsx":
		return ReadXLSX(f)
	default:
		return nil, fmt.Errorf("%w: %q (expected .csv or .xlsx)", ErrUnsupportedFormat, ext)
	}
}

// ReadCSV parses comma-separated input. Ragged rows are tolerated.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return fromRecords(records)
}

// ReadXLSX parses the first sheet of a workbook.
func ReadXLSX(r io.Reader) (*Table, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close() //nolint:errcheck

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyTable
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return fromRecords(rows)
}

func fromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrEmptyTable
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	width := len(header)
	for _, rec := range records[1:] {
		width = max(width, len(rec))
	}
	for i := len(header); i < width; i++ {
		header = append(header, fmt.Sprintf("column_%d", i+1))
	}

	t := &Table{Columns: header, Rows: make([][]string, 0, len(records)-1)}
	for _, rec := range records[1:] {
		row := make([]string, width)
		copy(row, rec)
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Column returns every cell of the first column named name.
func (t *Table) Column(name string) ([]string, error) {
	idx := -1
	for i, c := range t.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrColumnNotFound, name, strings.Join(t.Columns, ", "))
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// GuessURLColumn picks the first column whose header mentions "url".
func (t *Table) GuessURLColumn() (string, error) {
	for _, c := range t.Columns {
		if strings.Contains(strings.ToLower(c), "url") {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: no header mentions \"url\" (have %s)", ErrColumnNotFound, strings.Join(t.Columns, ", "))
}

// Preview returns at most n rows.
func (t *Table) Preview(n int) [][]string {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Rows[:max(n, 0)]
}

// UniqueNonEmpty trims values, drops blanks and keeps the first occurrence
// of each remaining value, in input order.
func UniqueNonEmpty(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
