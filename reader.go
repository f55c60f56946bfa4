package nullcsv

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
)

// MarkerPrefix starts the optional marker line that names the table.
const MarkerPrefix = "TABLE "

var (
	// ErrMissingMarker is returned when ExpectMarker is set and the first line does not start with "TABLE ".
	ErrMissingMarker = errors.New("nullcsv: first line should start with TABLE")
	// ErrMissingHeader is returned when ExpectHeader is set and the source ends before a header line.
	ErrMissingHeader = errors.New("nullcsv: CSV header line missing")
	// ErrPrematureEnd describes a source that ended inside an open quote. It is informational:
	// the trailing bytes are still returned as a final row and Reader.Truncated reports it.
	ErrPrematureEnd = errors.New("nullcsv: source ended inside a quoted field")
)

// ParseError contains location information for errors found while reading the marker or header.
type ParseError struct {
	Line int
	Err  error
}

// Error formats the parse error message with the stored Line and Err values.
func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("nullcsv: parse error on line %d: %v", e.Line, e.Err)
}

// Unwrap returns the underlying Err so ParseError participates in errors.Unwrap.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// State is the position of a Reader in its marker, header, rows sequence.
type State uint8

const (
	StateInit State = iota
	StateExpectMarker
	StateExpectHeader
	StateStreaming
	StateDone
	StateError
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateExpectMarker:
		return "expect-marker"
	case StateExpectHeader:
		return "expect-header"
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Reader reads rows from a stream that may start with a marker line and a header.
//
// A blank line, or one holding only "\r", ends the data even if the source has more
// bytes. Rows are not checked against the header width; compare len(Row()) with
// len(Header()) if that matters.
type Reader struct {
	lines *LineReader

	// ExpectMarker requires the first line to start with "TABLE ".
	ExpectMarker bool
	// ExpectHeader reads the line after the marker as column names. Header names
	// are always dequoted.
	ExpectHeader bool
	// Raw disables dequoting of data rows; fields keep their surrounding quotes.
	Raw bool

	state     State
	err       error
	marker    string
	header    []Field
	row       []Field
	truncated bool
}

// NewReader creates a Reader that consumes CSV data from r, panicking if r is nil.
// Configure the exported fields before the first call to Next, Read, or Header.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		lines: NewLineReader(r),
		row:   make([]Field, 0, 16),
	}
}

// Next advances to the next row, returning false once the data ends or setup fails.
// After a false return, Err distinguishes a clean end from a failure.
func (r *Reader) Next() bool {
	r.setup()
	if r.state != StateStreaming {
		r.row = r.row[:0]
		return false
	}
	return r.readRow()
}

func (r *Reader) readMarker() {
	if !r.ExpectMarker {
		r.state = StateExpectHeader
		return
	}
	line, status := r.lines.ReadLine()
	if status == LineEnd || !bytes.HasPrefix(line, []byte(MarkerPrefix)) {
		r.fail(status, ErrMissingMarker)
		return
	}
	r.marker = string(line)
	r.state = StateExpectHeader
}

func (r *Reader) readHeader() {
	if !r.ExpectHeader {
		r.state = StateStreaming
		return
	}
	line, status := r.lines.ReadLine()
	if status == LineEnd {
		r.fail(status, ErrMissingHeader)
		return
	}
	// The header outlives the buffer generation it was read in.
	fields := SplitLine(nil, bytes.Clone(line), true)
	r.header = fields
	r.state = StateStreaming
}

func (r *Reader) readRow() bool {
	line, status := r.lines.ReadLine()
	if status == LineEnd || len(line) == 0 || (len(line) == 1 && line[0] == '\r') {
		r.finish()
		return false
	}
	r.truncated = status == LinePartial && r.lines.Unbalanced()
	r.row = SplitLine(r.row, line, !r.Raw)
	return true
}

func (r *Reader) fail(status LineStatus, err error) {
	line := r.lines.Line()
	if status == LineEnd {
		line++
	}
	r.state = StateError
	r.err = &ParseError{Line: line, Err: err}
	r.row = r.row[:0]
}

func (r *Reader) finish() {
	r.state = StateDone
	r.truncated = false
	r.row = r.row[:0]
	if err := r.lines.Err(); err != nil {
		r.err = err
	}
}

// Row returns the fields of the current row. The slice and the field bytes are
// reused by the next call to Next.
func (r *Reader) Row() []Field { return r.row }

// Read returns the next row, or io.EOF once the data ends. Setup failures are
// returned as *ParseError on every call.
func (r *Reader) Read() ([]Field, error) {
	if r.Next() {
		return r.row, nil
	}
	if r.err != nil {
		return nil, r.err
	}
	return nil, io.EOF
}

// ReadAll reads the remaining rows, returning copies that stay valid after the
// Reader is discarded.
func (r *Reader) ReadAll() (rows [][]Field, err error) {
	for {
		row, err := r.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, CloneRow(row))
	}
}

// Rows returns an iterator over the remaining rows. Each yielded slice is only
// valid during its iteration step.
func (r *Reader) Rows() iter.Seq[[]Field] {
	return func(yield func([]Field) bool) {
		for r.Next() {
			if !yield(r.row) {
				return
			}
		}
	}
}

// Header returns the dequoted header fields, reading the marker and header first
// if that has not happened yet. It returns nil when ExpectHeader is unset or setup failed.
func (r *Reader) Header() []Field {
	r.setup()
	return r.header
}

// HeaderNames returns the header fields as strings, NULL names becoming "".
// Duplicate names are kept as they are.
func (r *Reader) HeaderNames() []string {
	header := r.Header()
	if header == nil {
		return nil
	}
	names := make([]string, len(header))
	for i, f := range header {
		names[i] = f.String()
	}
	return names
}

// Marker returns the full marker line, or "" if none was read.
func (r *Reader) Marker() string {
	r.setup()
	return r.marker
}

// TableName returns the part of the marker line after "TABLE ".
func (r *Reader) TableName() string {
	m := r.Marker()
	if len(m) < len(MarkerPrefix) {
		return ""
	}
	return m[len(MarkerPrefix):]
}

// setup runs the marker and header states without consuming a data row.
func (r *Reader) setup() {
	for {
		switch r.state {
		case StateInit:
			r.state = StateExpectMarker
		case StateExpectMarker:
			r.readMarker()
		case StateExpectHeader:
			r.readHeader()
		default:
			return
		}
	}
}

// State returns the current state.
func (r *Reader) State() State { return r.state }

// Err returns the setup error that stopped the Reader, or a non-EOF error from the
// source. It returns nil after a clean end of data.
func (r *Reader) Err() error { return r.err }

// Truncated reports whether the current row was cut short because the source
// ended inside a quoted field (ErrPrematureEnd).
func (r *Reader) Truncated() bool { return r.truncated }

// Line returns the physical line number on which the current row started.
func (r *Reader) Line() int { return r.lines.Line() }

// CloneRow returns a deep copy of row.
func CloneRow(row []Field) []Field {
	out := make([]Field, len(row))
	for i, f := range row {
		out[i] = f.Clone()
	}
	return out
}
