// # NullCSV: A Streaming, Null-Aware CSV Codec for Go
//
// NullCSV reads and writes comma-separated records over arbitrary byte streams. It
// assembles quote-balanced logical lines incrementally, splits and dequotes fields in
// place, and keeps SQL-style NULL distinct from the empty string using nothing but
// ASCII punctuation: an unquoted empty field is NULL, while `""` is an empty string.
//
// # Features
//
// - `LineReader` pulls chunks from any io.Reader and returns one logical line at a time,
// even when quoted fields contain raw newlines split across reads.
// - `SplitLine` and `Decode` split and dequote fields in place without allocating.
// - `Encode`, `Quote`, and `Writer` produce the same format, quoting only when needed.
// - `Reader` sequences an optional `TABLE <name>` marker line, an optional header, and the
// data rows, stopping cleanly at a blank end-of-data line.
//
// # Validity of returned slices
//
// Lines, rows, and fields returned by this package alias the reader's internal buffer.
// They stay valid until the next call that advances the reader; use Field.Clone or
// Reader.ReadAll to keep data around longer.
package nullcsv
