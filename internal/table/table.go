// Package table reads the input table row by row and streams the output CSV.
package table

import (
	"errors"
	"path/filepath"
	"strings"
)

// Common errors for table access.
var (
	ErrFileAccess     = errors.New("file is not accessible")
	ErrMalformedTable = errors.New("malformed table")
)

// Record is a single data row of the input table.
type Record struct {
	Line   int      // Line is the 1-based position of the row in the source file.
	Fields []string // Fields holds the cell values in header order.
}

// Field returns the value at idx, or an empty string when the row is shorter.
func (r Record) Field(idx int) string {
	if idx < 0 || idx >= len(r.Fields) {
		return ""
	}
	return r.Fields[idx]
}

// Reader iterates the data rows of an input table after its header.
// Next returns io.EOF once every row has been read.
type Reader interface {
	Header() []string
	Next() (Record, error)
	Close() error
}

// Open opens the input table at path and reads its header.
// Files with an .xlsx extension are read from their first sheet, anything else is parsed as CSV.
func Open(path string) (Reader, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		reader, err := openXLSX(path)
		if err != nil {
			return nil, err
		}
		return reader, nil
	}

	reader, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	return reader, nil
}
