package sqlsink

import (
	"math"
	"strconv"

	"github.com/oleg578/nullcsv"
)

// Infer converts a field to the value bound for it. NULL becomes nil. Text made
// only of ASCII digits becomes int64 when it fits. Text that parses as a float and
// formats back to exactly the same string becomes float64. Everything else,
// including the empty string, stays text.
func Infer(f nullcsv.Field) any {
	switch f.Kind() {
	case nullcsv.KindNull:
		return nil
	case nullcsv.KindEmpty:
		return ""
	}

	s := f.String()
	if isDigits(s) {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(v, 0) && !math.IsNaN(v) {
		if strconv.FormatFloat(v, 'g', -1, 64) == s {
			return v
		}
	}
	return s
}

// Bind converts row into driver arguments, appending to dst[:0]. Without infer,
// every non-NULL field is bound as text. The result holds copies, never
// references into the reader's buffer.
func Bind(dst []any, row []nullcsv.Field, infer bool) []any {
	dst = dst[:0]
	for _, f := range row {
		switch {
		case f.IsNull():
			dst = append(dst, nil)
		case infer:
			dst = append(dst, Infer(f))
		default:
			dst = append(dst, f.String())
		}
	}
	return dst
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
