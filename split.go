package nullcsv

// SplitLine splits one logical line into fields on commas that are outside
// quotes, appending them to dst[:0] and returning the result.
//
// With dequote set, each token is decoded in place with Decode, so line is
// modified. Otherwise every token is returned as raw text, quotes included.
// The result always has one more field than there are unquoted commas; an
// empty line yields a single NULL (or empty raw) field.
func SplitLine(dst []Field, line []byte, dequote bool) []Field {
	dst = dst[:0]

	inQuotes := false
	start := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				dst = append(dst, splitToken(line[start:i:i], dequote))
				start = i + 1
			}
		}
	}
	return append(dst, splitToken(line[start:], dequote))
}

func splitToken(token []byte, dequote bool) Field {
	if dequote {
		return Decode(token)
	}
	return Text(token)
}

// SplitString is a convenience wrapper that splits and decodes a copy of s.
func SplitString(s string) []Field {
	return SplitLine(nil, []byte(s), true)
}
