package language

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type tokenShape struct {
	Kind   string
	Value  string
	Start  int
	End    int
	Line   int
	Column int
}

func shapes(first *Token) []tokenShape {
	var out []tokenShape
	for tok := first; tok != nil; tok = tok.Next {
		out = append(out, tokenShape{tok.Kind.Name(), tok.Value, tok.Start, tok.End, tok.Line, tok.Column})
	}
	return out
}

func TestTokenize(t *testing.T) {
	first, err := Tokenize("query {\n  a\n}")
	require.NoError(t, err)

	want := []tokenShape{
		{"Name", "query", 0, 5, 1, 1},
		{"BraceL", "", 6, 7, 1, 7},
		{"Name", "a", 10, 11, 2, 3},
		{"BraceR", "", 12, 13, 3, 1},
		{"EOF", "", 13, 13, 3, 2},
	}
	if diff := cmp.Diff(want, shapes(first)); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeLinks(t *testing.T) {
	first, err := Tokenize("{ a b }")
	require.NoError(t, err)
	require.Nil(t, first.Prev)
	var last *Token
	for tok := first; tok != nil; tok = tok.Next {
		require.Equal(t, last, tok.Prev)
		last = tok
	}
	require.Equal(t, TokenEOF, last.Kind)
}

func TestTokenizeError(t *testing.T) {
	first, err := Tokenize("{ a ' }")
	require.Error(t, err)
	require.NotNil(t, first)
	require.Equal(t, TokenBraceL, first.Kind)
}

func TestFieldExtent(t *testing.T) {
	src := `{ u: user(id: "1") @include(if: true) { name friends { name } } other }`
	doc, err := ParseQuery(src)
	require.NoError(t, err)
	first, err := Tokenize(src)
	require.NoError(t, err)

	sel := doc.Operations[0].SelectionSet
	user := sel[0].(*Field)
	start, end, ok := FieldExtent(first, user.Position)
	require.True(t, ok)
	require.Equal(t, `u: user(id: "1") @include(if: true) { name friends { name } }`, string([]rune(src)[start:end]))

	other := sel[1].(*Field)
	start, end, ok = FieldExtent(first, other.Position)
	require.True(t, ok)
	require.Equal(t, "other", string([]rune(src)[start:end]))
}

func TestFieldExtentUnknownPosition(t *testing.T) {
	first, err := Tokenize("{ a }")
	require.NoError(t, err)

	_, _, ok := FieldExtent(first, nil)
	require.False(t, ok)
	_, _, ok = FieldExtent(first, &Position{Start: 1})
	require.False(t, ok)
}

func TestTokenizeStringPositions(t *testing.T) {
	first, err := Tokenize(`{ a(s: "xy") }`)
	require.NoError(t, err)

	var str *Token
	for tok := first; tok != nil; tok = tok.Next {
		if tok.Kind == TokenString {
			str = tok
		}
	}
	require.NotNil(t, str)
	if diff := cmp.Diff(tokenShape{"String", "xy", 7, 11, 1, 8}, shapes(str)[0]); diff != "" {
		t.Fatalf("string token mismatch (-want +got):\n%s", diff)
	}
}
