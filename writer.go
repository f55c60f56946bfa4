package nullcsv

import (
	"bufio"
	"errors"
	"io"
)

var (
	errNilWriter      = errors.New("nullcsv: writer is nil")
	errWriterNoTarget = errors.New("nullcsv: writer destination cannot be nil")
	errEmptyRecord    = errors.New("nullcsv: record would encode to a blank line, which reads back as end of data")
)

// Writer emits marker, header, and data lines in the format Reader consumes.
type Writer struct {
	dst *bufio.Writer

	// UseCRLF writes records terminated with \r\n when set.
	UseCRLF bool

	scratch []byte
	err     error
}

// NewWriter creates a new Writer with internal buffering tuned for bulk writes.
func NewWriter(w io.Writer) *Writer {
	if w == nil {
		panic(errWriterNoTarget.Error())
	}
	return &Writer{
		dst: bufio.NewWriterSize(w, defaultBufferSize),
	}
}

// Reset updates the underlying writer while preserving the configuration flags.
func (w *Writer) Reset(dst io.Writer) {
	if w == nil {
		panic(errNilWriter.Error())
	}
	if dst == nil {
		panic(errWriterNoTarget.Error())
	}
	if w.dst == nil {
		w.dst = bufio.NewWriterSize(dst, defaultBufferSize)
	} else {
		w.dst.Reset(dst)
	}
	w.err = nil
}

// WriteMarker writes the "TABLE <name>" marker line.
func (w *Writer) WriteMarker(table string) error {
	if err := w.check(); err != nil {
		return err
	}
	w.scratch = append(append(w.scratch[:0], MarkerPrefix...), table...)
	return w.writeLine(w.scratch)
}

// WriteHeader writes a header line naming the columns.
func (w *Writer) WriteHeader(names []string) error {
	record := make([]Field, len(names))
	for i, name := range names {
		record[i] = TextString(name)
	}
	return w.Write(record)
}

// Write emits a single record terminated with the configured newline sequence.
//
// An empty record, or one made of a single NULL field, encodes to a blank line,
// which readers take as the end of data, so it is rejected.
func (w *Writer) Write(record []Field) error {
	if err := w.check(); err != nil {
		return err
	}
	if len(record) == 0 || (len(record) == 1 && record[0].IsNull()) {
		return errEmptyRecord
	}

	buf := w.scratch[:0]
	for i := range record {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = AppendEncode(buf, record[i])
	}
	w.scratch = buf
	return w.writeLine(buf)
}

// WriteStrings writes record as text fields; empty strings become "".
func (w *Writer) WriteStrings(record []string) error {
	fields := make([]Field, len(record))
	for i, s := range record {
		fields[i] = TextString(s)
	}
	return w.Write(fields)
}

// WriteAll writes multiple records, stopping at the first error.
func (w *Writer) WriteAll(records [][]Field) error {
	if w == nil {
		return errNilWriter
	}
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// WriteEnd writes the blank end-of-data line so a reader stops without waiting
// for the stream to close.
func (w *Writer) WriteEnd() error {
	if err := w.check(); err != nil {
		return err
	}
	return w.writeLine(nil)
}

// Flush flushes pending buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.check(); err != nil {
		return err
	}
	if err := w.dst.Flush(); err != nil {
		w.err = err
		return err
	}
	return nil
}

// Error reports the first error encountered by the writer.
func (w *Writer) Error() error {
	if w == nil {
		return errNilWriter
	}
	return w.err
}

func (w *Writer) check() error {
	if w == nil {
		return errNilWriter
	}
	if w.dst == nil {
		return errWriterNoTarget
	}
	return w.err
}

func (w *Writer) writeLine(line []byte) error {
	if _, err := w.dst.Write(line); err != nil {
		w.err = err
		return err
	}
	if w.UseCRLF {
		if err := w.dst.WriteByte('\r'); err != nil {
			w.err = err
			return err
		}
	}
	if err := w.dst.WriteByte('\n'); err != nil {
		w.err = err
		return err
	}
	return nil
}
