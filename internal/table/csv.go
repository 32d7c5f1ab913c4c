package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// utf8BOM is written by Excel and other spreadsheet tools at the start of exported CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type csvReader struct {
	file   *os.File
	reader *csv.Reader
	header []string
}

func openCSV(path string) (*csvReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileAccess, err)
	}

	buffered := bufio.NewReader(file)
	if prefix, _ := buffered.Peek(len(utf8BOM)); bytes.Equal(prefix, utf8BOM) {
		_, _ = buffered.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(buffered)

	header, err := reader.Read()
	if err != nil {
		file.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s has no header row", ErrMalformedTable, path)
		}
		return nil, fmt.Errorf("%w: failed to read header of %s: %w", ErrMalformedTable, path, err)
	}

	return &csvReader{file: file, reader: reader, header: header}, nil
}

func (r *csvReader) Header() []string {
	return r.header
}

func (r *csvReader) Next() (Record, error) {
	fields, err := r.reader.Read()
	if errors.Is(err, io.EOF) {
		return Record{}, io.EOF
	}
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrMalformedTable, err)
	}

	line, _ := r.reader.FieldPos(0)

	return Record{Line: line, Fields: fields}, nil
}

func (r *csvReader) Close() error {
	return r.file.Close()
}

// Writer streams rows into a CSV file, making each row durable before the next one is accepted.
type Writer struct {
	file   *os.File
	writer *csv.Writer
}

// Create creates or truncates the CSV file at path and writes header as its first row.
func Create(path string, header []string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileAccess, err)
	}

	wrt := &Writer{file: file, writer: csv.NewWriter(file)}
	if err = wrt.Write(header); err != nil {
		file.Close()
		return nil, err
	}

	return wrt, nil
}

// Write appends one row, flushes it and syncs the file to stable storage.
func (w *Writer) Write(fields []string) error {
	if err := w.writer.Write(fields); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}

	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush row: %w", err)
	}

	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync output: %w", err)
	}

	return nil
}

// Close flushes any buffered data and closes the file.
func (w *Writer) Close() error {
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return w.file.Close()
}
