// Package record holds the parsed chat record and its CSV encoding.
package record

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	errs "github.com/edgard/chatstats/internal/errors"
)

// Header is the first CSV row written and expected by this package.
var Header = []string{"Date", "Hour", "Name"}

// Record is one chat message that contained the marker.
type Record struct {
	Date string // as written in the export, e.g. 01/02/23
	Time string // HH:MM
	Name string
}

// Writer encodes records as CSV rows.
type Writer struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewWriter returns a Writer that emits the header before the first row.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: csv.NewWriter(w)}
}

// WriteHeader writes the header row if it has not been written yet.
func (w *Writer) WriteHeader() error {
	if w.wroteHeader {
		return nil
	}
	w.wroteHeader = true
	if err := w.w.Write(Header); err != nil {
		return errs.NewIOError("failed to write csv header", err)
	}
	return nil
}

// Write appends one record.
func (w *Writer) Write(r Record) error {
	if err := w.WriteHeader(); err != nil {
		return err
	}
	if err := w.w.Write([]string{r.Date, r.Time, r.Name}); err != nil {
		return errs.NewIOError("failed to write csv row", err)
	}
	return nil
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		return errs.NewIOError("failed to flush csv", err)
	}
	return nil
}

// Reader decodes records written by Writer.
type Reader struct {
	r          *csv.Reader
	readHeader bool
	line       int
}

// NewReader returns a Reader over CSV input with a Date,Hour,Name header.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)
	cr.ReuseRecord = true
	return &Reader{r: cr}
}

// Read returns the next record, or io.EOF when the input is exhausted.
func (r *Reader) Read() (Record, error) {
	if !r.readHeader {
		r.readHeader = true
		row, err := r.r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Record{}, errs.NewParseError("missing csv header", nil)
			}
			return Record{}, r.rowError(err)
		}
		row[0] = strings.TrimPrefix(row[0], "\ufeff")
		for i, want := range Header {
			if row[i] != want {
				return Record{}, errs.NewParseError(
					fmt.Sprintf("unexpected csv header %q, want %q", row, Header), nil)
			}
		}
	}

	row, err := r.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, r.rowError(err)
	}
	r.line, _ = r.r.FieldPos(0)
	return Record{Date: row[0], Time: row[1], Name: row[2]}, nil
}

// Line reports the input line of the last row returned by Read.
func (r *Reader) Line() int {
	return r.line
}

func (r *Reader) rowError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return errs.NewParseError("invalid csv", &errs.LineError{Line: pe.Line, Err: pe.Err})
	}
	return errs.NewIOError("failed to read csv", err)
}

// ReadAll drains r.
func ReadAll(r io.Reader) ([]Record, error) {
	rd := NewReader(r)
	var out []Record
	for {
		rec, err := rd.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}
