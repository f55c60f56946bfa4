package nullcsv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fieldStrings(row []Field) []string {
	out := make([]string, len(row))
	for i, f := range row {
		if f.IsNull() {
			out[i] = "<null>"
			continue
		}
		out[i] = f.String()
	}
	return out
}

func TestSplitLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		line    string
		dequote bool
		want    []string
	}{
		{name: "simple", line: "a,b,c", dequote: true, want: []string{"a", "b", "c"}},
		{name: "quotedComma", line: `a,"b,c",d`, dequote: true, want: []string{"a", "b,c", "d"}},
		{name: "nullsAndEmpty", line: `,"",x,`, dequote: true, want: []string{"<null>", "", "x", "<null>"}},
		{name: "emptyLine", line: "", dequote: true, want: []string{"<null>"}},
		{name: "embeddedNewline", line: "\"a\nb\",c", dequote: true, want: []string{"a\nb", "c"}},
		{name: "escapedQuotes", line: `"x""y",z`, dequote: true, want: []string{`x"y`, "z"}},
		{name: "rawKeepsQuotes", line: `a,"b,c",""`, dequote: false, want: []string{"a", `"b,c"`, `""`}},
		{name: "rawEmptyLine", line: "", dequote: false, want: []string{""}},
		{name: "unbalancedQuoteSwallowsCommas", line: `a,"b,c`, dequote: true, want: []string{"a", "b,c"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := SplitLine(nil, []byte(tc.line), tc.dequote)
			require.Equal(t, tc.want, fieldStrings(got))
		})
	}
}

func TestSplitLineRawEmptyIsText(t *testing.T) {
	t.Parallel()

	got := SplitLine(nil, []byte(","), false)
	require.Len(t, got, 2)
	require.Equal(t, KindText, got[0].Kind())
	require.Equal(t, 0, got[0].Len())
}

func TestSplitLineReusesDst(t *testing.T) {
	t.Parallel()

	dst := make([]Field, 0, 8)
	first := SplitLine(dst, []byte("a,b"), true)
	second := SplitLine(first, []byte("c,d,e"), true)

	require.Same(t, &first[0], &second[0], "backing array should be reused")
	require.Equal(t, []string{"c", "d", "e"}, fieldStrings(second))
}

func TestSplitLineArity(t *testing.T) {
	t.Parallel()

	lines := []string{"", ",", ",,", `",",`, `"a""b",c,"d,e,f"`, "x"}
	wants := []int{1, 2, 3, 2, 3, 1}
	for i, line := range lines {
		require.Len(t, SplitLine(nil, []byte(line), true), wants[i], "line %q", line)
	}
}

func TestSplitString(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"id", "name", "name"}, fieldStrings(SplitString("id,name,name")))
}
