package nullcsv

import (
	"bytes"
	"fmt"
)

const (
	// QuoteNull is the encoded form of a NULL field.
	QuoteNull = ""
	// QuoteEmpty is the encoded form of an empty string.
	QuoteEmpty = `""`
)

// FieldKind distinguishes NULL, empty, and text field values.
type FieldKind uint8

const (
	KindNull FieldKind = iota
	KindEmpty
	KindText
)

// String returns a readable name for k.
func (k FieldKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindEmpty:
		return "empty"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("FieldKind(%d)", uint8(k))
	}
}

// Field is a single CSV value. The zero Field is NULL.
//
// A Field produced by Decode, SplitLine, or Reader borrows its bytes from the
// buffer it was decoded from; Clone detaches it.
type Field struct {
	kind FieldKind
	b    []byte
}

// Null returns the NULL field.
func Null() Field { return Field{} }

// Empty returns the empty-string field.
func Empty() Field { return Field{kind: KindEmpty} }

// Text returns a text field backed by b. Text(nil) is a zero-length text value,
// which encodes the same way as Empty.
func Text(b []byte) Field { return Field{kind: KindText, b: b} }

// TextString returns a text field holding a copy of s.
func TextString(s string) Field { return Field{kind: KindText, b: []byte(s)} }

func (f Field) Kind() FieldKind { return f.kind }

func (f Field) IsNull() bool { return f.kind == KindNull }

// Bytes returns the field contents. NULL and empty fields return nil.
func (f Field) Bytes() []byte {
	if f.kind != KindText {
		return nil
	}
	return f.b
}

// String returns the field contents as a string; NULL yields "".
func (f Field) String() string {
	return string(f.Bytes())
}

func (f Field) Len() int { return len(f.Bytes()) }

// Clone returns a copy of f that does not share memory with any reader buffer.
func (f Field) Clone() Field {
	if f.kind != KindText {
		return f
	}
	return Field{kind: KindText, b: bytes.Clone(f.b)}
}

// Equal reports whether f and g hold the same value. Empty and zero-length text
// are the same value; NULL equals only NULL.
func (f Field) Equal(g Field) bool {
	if f.IsNull() || g.IsNull() {
		return f.IsNull() == g.IsNull()
	}
	return bytes.Equal(f.Bytes(), g.Bytes())
}

// NeedsQuote reports whether b contains a byte that forces quoting.
func NeedsQuote(b []byte) bool {
	return bytes.IndexAny(b, ",\"\r\n") >= 0
}

// Encode returns the CSV form of f.
func Encode(f Field) []byte {
	return AppendEncode(nil, f)
}

// AppendEncode appends the CSV form of f to dst and returns the extended slice.
// NULL appends nothing, empty appends `""`, and text is quoted only if it holds a
// comma, quote, CR, or LF, with inner quotes doubled.
func AppendEncode(dst []byte, f Field) []byte {
	switch f.kind {
	case KindNull:
		return dst
	case KindEmpty:
		return append(dst, '"', '"')
	}
	b := f.b
	if len(b) == 0 {
		return append(dst, '"', '"')
	}
	if !NeedsQuote(b) {
		return append(dst, b...)
	}

	dst = append(dst, '"')
	start := 0
	for i := 0; i < len(b); i++ {
		if b[i] == '"' {
			dst = append(dst, b[start:i+1]...)
			dst = append(dst, '"')
			start = i + 1
		}
	}
	dst = append(dst, b[start:]...)
	return append(dst, '"')
}

// Quote encodes s as a text field.
func Quote(s string) string {
	return string(AppendEncode(nil, TextString(s)))
}

// Quotef formats according to format and encodes the result as a text field.
func Quotef(format string, args ...any) string {
	return Quote(fmt.Sprintf(format, args...))
}

// Decode reverses Encode for a single, already isolated token. It rewrites token
// in place; the returned field aliases token and is never longer than it.
//
// A zero-length token is NULL and `""` is empty. Otherwise one leading quote is
// dropped, `""` collapses to `"`, and any other lone quote is discarded. Malformed
// input never fails; bytes after a closing quote are kept under the same rules.
func Decode(token []byte) Field {
	switch {
	case len(token) == 0:
		return Null()
	case len(token) == 2 && token[0] == '"' && token[1] == '"':
		return Empty()
	}

	in := 0
	if token[0] == '"' {
		in++
	}
	out := 0
	for ; in < len(token); in++ {
		c := token[in]
		if c == '"' {
			if in+1 < len(token) && token[in+1] == '"' {
				in++
				token[out] = '"'
				out++
			}
			continue
		}
		token[out] = c
		out++
	}
	return Text(token[:out])
}
