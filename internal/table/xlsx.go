package table

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
)

type xlsxReader struct {
	file   *excelize.File
	rows   *excelize.Rows
	header []string
	line   int
}

func openXLSX(path string) (*xlsxReader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileAccess, err)
	}

	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open workbook %s: %w", ErrMalformedTable, path, err)
	}

	sheet := file.GetSheetName(0)
	if sheet == "" {
		file.Close()
		return nil, fmt.Errorf("%w: no sheets found in %s", ErrMalformedTable, path)
	}

	rows, err := file.Rows(sheet)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: failed to read sheet %q: %w", ErrMalformedTable, sheet, err)
	}

	reader := &xlsxReader{file: file, rows: rows}

	if !rows.Next() {
		reader.Close()
		return nil, fmt.Errorf("%w: %s has no header row", ErrMalformedTable, path)
	}
	reader.line = 1
	if reader.header, err = rows.Columns(); err != nil {
		reader.Close()
		return nil, fmt.Errorf("%w: failed to read header of %s: %w", ErrMalformedTable, path, err)
	}

	return reader, nil
}

func (r *xlsxReader) Header() []string {
	return r.header
}

// Next pads each row to the header width because excelize omits trailing empty cells.
func (r *xlsxReader) Next() (Record, error) {
	if !r.rows.Next() {
		if err := r.rows.Error(); err != nil {
			return Record{}, fmt.Errorf("%w: %w", ErrMalformedTable, err)
		}
		return Record{}, io.EOF
	}
	r.line++

	cells, err := r.rows.Columns()
	if err != nil {
		return Record{}, fmt.Errorf("%w: row %d: %w", ErrMalformedTable, r.line, err)
	}

	if len(cells) < len(r.header) {
		padded := make([]string, len(r.header))
		copy(padded, cells)
		cells = padded
	}

	return Record{Line: r.line, Fields: cells}, nil
}

func (r *xlsxReader) Close() error {
	if err := r.rows.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}
