package nullcsv

import (
	"bytes"
	"io"
	"slices"
)

const (
	defaultBufferSize = 1 << 10 // 1024 bytes
	minReadSize       = 512

	maxConsecutiveEmptyReads = 100
)

// LineStatus describes the outcome of LineReader.ReadLine.
type LineStatus uint8

const (
	// LineEnd means the source is exhausted and no bytes remain.
	LineEnd LineStatus = iota
	// LineComplete is a line that was terminated by an unquoted newline.
	LineComplete
	// LinePartial is the unterminated remainder of the source, returned once
	// before LineEnd.
	LinePartial
)

func (s LineStatus) String() string {
	switch s {
	case LineEnd:
		return "end"
	case LineComplete:
		return "complete"
	case LinePartial:
		return "partial"
	default:
		return "unknown"
	}
}

// LineReader assembles quote-balanced logical lines from a byte source.
//
// Newlines inside double quotes do not end a line. The quote state is recomputed
// from the start of the unread data on every attempt, so it does not matter how
// many reads it took to collect a line.
type LineReader struct {
	src io.Reader

	// buf[start:] holds bytes that have been read but not yet returned.
	buf   []byte
	start int

	exhausted  bool
	finished   bool
	unbalanced bool
	err        error
	empties    int

	gen      uint64
	lines    int
	lastLine int
}

// NewLineReader returns a LineReader that pulls bytes from r, panicking if r is nil.
func NewLineReader(r io.Reader) *LineReader {
	if r == nil {
		panic("nullcsv: reader source cannot be nil")
	}
	return &LineReader{
		src: r,
		buf: make([]byte, 0, defaultBufferSize),
	}
}

// ReadLine returns the next logical line with its "\n" or "\r\n" terminator
// removed. The line may contain raw CR and LF bytes that were inside quotes.
//
// Once the source is exhausted, any leftover bytes are returned as-is with
// status LinePartial; every call after that returns LineEnd. The returned slice
// aliases internal storage and is only valid until the next call.
func (r *LineReader) ReadLine() ([]byte, LineStatus) {
	r.gen++
	r.unbalanced = false
	if r.finished {
		return nil, LineEnd
	}

	for {
		if i := indexLineEnd(r.buf[r.start:]); i >= 0 {
			line := r.buf[r.start : r.start+i]
			r.consume(i + 1)
			if n := len(line); n > 0 && line[n-1] == '\r' {
				line = line[:n-1]
			}
			return line[:len(line):len(line)], LineComplete
		}
		if r.exhausted {
			break
		}
		r.fill()
	}

	r.finished = true
	if r.start == len(r.buf) {
		return nil, LineEnd
	}
	line := r.buf[r.start:]
	r.unbalanced = bytes.Count(line, []byte{'"'})%2 == 1
	r.consume(len(line))
	return line[:len(line):len(line)], LinePartial
}

// Generation counts ReadLine calls. A line is valid only while Generation still
// returns the value it had right after the line was read.
func (r *LineReader) Generation() uint64 { return r.gen }

// Line returns the 1-based physical line number on which the most recently
// returned logical line started.
func (r *LineReader) Line() int { return r.lastLine }

// Unbalanced reports whether the last line returned was a final partial line
// that ended inside an open quote.
func (r *LineReader) Unbalanced() bool { return r.unbalanced }

// Err returns the first read error other than io.EOF. The source is treated as
// exhausted after any error.
func (r *LineReader) Err() error { return r.err }

// Buffered returns the number of bytes read from the source but not yet returned.
func (r *LineReader) Buffered() int { return len(r.buf) - r.start }

func (r *LineReader) consume(n int) {
	r.lastLine = r.lines + 1
	r.lines += bytes.Count(r.buf[r.start:r.start+n], []byte{'\n'})
	r.start += n
}

// fill compacts unread bytes to the front of the buffer, grows it if needed, and
// performs a single read from the source.
func (r *LineReader) fill() {
	if r.start > 0 {
		n := copy(r.buf, r.buf[r.start:])
		r.buf = r.buf[:n]
		r.start = 0
	}
	if cap(r.buf)-len(r.buf) < minReadSize {
		r.buf = slices.Grow(r.buf, max(minReadSize, cap(r.buf)))
	}

	n, err := r.src.Read(r.buf[len(r.buf):cap(r.buf)])
	r.buf = r.buf[:len(r.buf)+n]
	switch {
	case err != nil:
		r.exhausted = true
		if err != io.EOF {
			r.err = err
		}
	case n == 0:
		r.empties++
		if r.empties >= maxConsecutiveEmptyReads {
			r.exhausted = true
			r.err = io.ErrNoProgress
		}
	default:
		r.empties = 0
	}
}

// indexLineEnd returns the index of the first newline in b that is outside
// double quotes, or -1.
func indexLineEnd(b []byte) int {
	inQuotes := false
	for i := 0; i < len(b); i++ {
		switch b[i] {
		case '"':
			inQuotes = !inQuotes
		case '\n':
			if !inQuotes {
				return i
			}
		}
	}
	return -1
}
