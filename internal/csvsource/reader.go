// Package csvsource loads a delimited text file into the in-memory table
// structure the normalizer works on.
//
// All cells are read as strings; empty cells become null. Typed coercion
// (dates, integers) is the pipeline's job, after normalization decides which
// columns survive.
package csvsource

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/Murray-Assal/csv-to-postgresql-injestion/internal/table"
)

// DefaultMaxFileSize is the maximum accepted CSV file size (100MB).
var DefaultMaxFileSize int64 = 100 * 1024 * 1024

// Read loads the CSV file at path into a table. The first row supplies
// column names; rows shorter than the header are padded with nulls and fully
// empty rows are skipped. maxSize <= 0 falls back to DefaultMaxFileSize.
func Read(path string, maxSize int64) (*table.Table, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat csv %s: %w", path, err)
	}
	if info.Size() > maxSize {
		return nil, fmt.Errorf("csv %s is %d bytes, exceeds %d byte limit", path, info.Size(), maxSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}

	return Parse(data)
}

// Parse builds a table from raw CSV bytes.
func Parse(data []byte) (*table.Table, error) {
	records, err := parseCSV(sanitizeUTF8(data))
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv has no header row")
	}

	header := records[0]
	cols := make([]table.Column, len(header))
	for i, h := range header {
		name := CleanCell(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		cols[i] = table.Column{Name: name}
	}

	for _, row := range records[1:] {
		if emptyRow(row) {
			continue
		}
		for i := range cols {
			var v table.Value
			if i < len(row) && strings.TrimSpace(row[i]) != "" {
				v = table.String(strings.TrimSpace(row[i]))
			} else {
				v = table.Null()
			}
			cols[i].Values = append(cols[i].Values, v)
		}
	}

	return table.New(cols...)
}

// parseCSV reads all records leniently: ragged rows and stray quotes are
// common in real exports.
func parseCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// sanitizeUTF8 replaces invalid byte sequences with the Unicode replacement
// character so downstream string handling is safe.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}

// CleanCell removes common CSV artifacts from a header cell:
// BOM, whitespace, Excel formula prefix (="..."), and surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}

func emptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
