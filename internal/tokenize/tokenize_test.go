package tokenize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitAndTrim(t *testing.T) {
	got := Tokenize("Hello, World! foo|bar\tbaz", FullText)
	require.Equal(t, []string{"hello", "world", "foo", "bar", "baz"}, got)
}

func TestAlphanumericRejectsNonAlnum(t *testing.T) {
	got := Tokenize("café abå 123", Alphanumeric)
	require.Equal(t, []string{"abå", "123"}, got)
}

func TestRejectsEmptyAndOverlong(t *testing.T) {
	long := ""
	for i := 0; i < 31; i++ {
		long += "a"
	}
	got := Tokenize("   ,,, "+long+" ok", FullText)
	require.Equal(t, []string{"ok"}, got)
}

func TestStopwordsVariantFilters(t *testing.T) {
	got := Tokenize("the cat and the hat", AlphanumericNoStopwords)
	require.Equal(t, []string{"cat", "hat"}, got)
}

func TestHashIsStableAndDeterministic(t *testing.T) {
	h1 := Hash("apple")
	h2 := Hash("apple")
	require.Equal(t, h1, h2)
	require.NotEqual(t, h1, Hash("banana"))
}

func TestTokenizeIdempotence(t *testing.T) {
	input := "The Quick, Brown! Fox|Jumps"
	first := Tokenize(input, FullText)
	stringified := joinSpace(first)
	second := Tokenize(stringified, FullText)
	require.Equal(t, first, second)
}

func joinSpace(toks []string) string {
	out := ""
	for i, t := range toks {
		if i > 0 {
			out += " "
		}
		out += t
	}
	return out
}
