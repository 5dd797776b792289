package instrument

import (
	"math"
	"strings"

	language "github.com/hanpama/gqltrace/internal/language"
)

// redacted replaces literal values when values are not allowed.
const redacted = "*"

// Excerpt renders the whole token stream starting at first. See ExcerptRange.
func Excerpt(first *language.Token, allowValues bool) string {
	return ExcerptRange(first, allowValues, 0, math.MaxInt)
}

// ExcerptRange renders the tokens lying within [start, end] with their
// original line breaks and indentation. Numbers and strings are replaced by
// "*" unless allowValues is set. Comments are dropped.
func ExcerptRange(first *language.Token, allowValues bool, start, end int) string {
	var b strings.Builder
	previousLine := 1
	for tok := first; tok != nil; tok = tok.Next {
		if tok.Start < start || tok.End > end {
			if tok.Next != nil {
				previousLine = tok.Next.Line
			}
			continue
		}
		if tok.Kind == language.TokenComment {
			continue
		}

		value := tok.Value
		if value == "" {
			value = tok.Kind.String()
		}
		switch tok.Kind {
		case language.TokenInt, language.TokenFloat, language.TokenString, language.TokenBlockString:
			if !allowValues {
				value = redacted
			} else if tok.Kind == language.TokenString {
				value = `"` + value + `"`
			}
		case language.TokenEOF:
			value = ""
		}

		switch {
		case tok.Line > previousLine:
			b.WriteString(strings.Repeat("\n", tok.Line-previousLine))
			previousLine = tok.Line
			if tok.Column > 1 {
				b.WriteString(strings.Repeat(" ", tok.Column-1))
			}
		case tok.Prev != nil && tok.Prev.Line == tok.Line:
			if gap := tok.Start - tok.Prev.End; gap > 0 {
				b.WriteString(strings.Repeat(" ", gap))
			}
		}
		b.WriteString(value)
	}
	return b.String()
}

// FieldExcerpt renders the source of the field node at pos. It reports false
// when the node cannot be located in the stream.
func FieldExcerpt(first *language.Token, pos *language.Position, allowValues bool) (string, bool) {
	start, end, ok := language.FieldExtent(first, pos)
	if !ok {
		return "", false
	}
	return ExcerptRange(first, allowValues, start, end), true
}
