package language

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/lexer"
)

type TokenKind = lexer.Type

const (
	TokenEOF         TokenKind = lexer.EOF
	TokenParenL      TokenKind = lexer.ParenL
	TokenParenR      TokenKind = lexer.ParenR
	TokenColon       TokenKind = lexer.Colon
	TokenAt          TokenKind = lexer.At
	TokenBraceL      TokenKind = lexer.BraceL
	TokenBraceR      TokenKind = lexer.BraceR
	TokenName        TokenKind = lexer.Name
	TokenInt         TokenKind = lexer.Int
	TokenFloat       TokenKind = lexer.Float
	TokenString      TokenKind = lexer.String
	TokenBlockString TokenKind = lexer.BlockString
	TokenComment     TokenKind = lexer.Comment
)

// Token is one lexical unit of a query source. Offsets are in runes, End is
// exclusive. Tokens are linked in source order and never mutated after
// Tokenize returns.
type Token struct {
	Kind   TokenKind
	Value  string
	Start  int
	End    int
	Line   int
	Column int
	Prev   *Token
	Next   *Token
}

// Tokenize lexes source into a linked token stream terminated by an EOF
// token. On a lexical error the stream read so far is returned with the error.
func Tokenize(source string) (*Token, error) {
	lx := lexer.New(&ast.Source{Input: source})
	var first, last *Token
	for {
		t, err := lx.ReadToken()
		if err != nil {
			return first, err
		}
		tok := &Token{
			Kind:   t.Kind,
			Value:  t.Value,
			Start:  t.Pos.Start,
			End:    t.Pos.End,
			Line:   t.Pos.Line,
			Column: t.Pos.Column,
			Prev:   last,
		}
		// String positions cover the quotes but the lexer reports the column
		// of the first character inside them.
		switch t.Kind {
		case lexer.String:
			tok.Column--
		case lexer.BlockString:
			tok.Column -= 3
		}
		if last == nil {
			first = tok
		} else {
			last.Next = tok
		}
		last = tok
		if t.Kind == lexer.EOF {
			return first, nil
		}
	}
}

// FieldExtent returns the character range covered by the field that starts at
// pos: alias, name, arguments, directives and selection set. ok is false when
// no token starts at pos.
func FieldExtent(first *Token, pos *Position) (start, end int, ok bool) {
	if pos == nil {
		return 0, 0, false
	}
	tok := first
	for tok != nil && tok.Start < pos.Start {
		tok = tok.Next
	}
	if tok == nil || tok.Start != pos.Start || tok.Kind != TokenName {
		return 0, 0, false
	}
	start, end = tok.Start, tok.End
	next := significant(tok.Next)

	if next != nil && next.Kind == TokenColon {
		name := significant(next.Next)
		if name == nil || name.Kind != TokenName {
			return start, end, true
		}
		end = name.End
		next = significant(name.Next)
	}
	if next != nil && next.Kind == TokenParenL {
		closing := matching(next, TokenParenL, TokenParenR)
		if closing == nil {
			return start, end, true
		}
		end = closing.End
		next = significant(closing.Next)
	}
	for next != nil && next.Kind == TokenAt {
		name := significant(next.Next)
		if name == nil || name.Kind != TokenName {
			return start, end, true
		}
		end = name.End
		next = significant(name.Next)
		if next != nil && next.Kind == TokenParenL {
			closing := matching(next, TokenParenL, TokenParenR)
			if closing == nil {
				return start, end, true
			}
			end = closing.End
			next = significant(closing.Next)
		}
	}
	if next != nil && next.Kind == TokenBraceL {
		if closing := matching(next, TokenBraceL, TokenBraceR); closing != nil {
			end = closing.End
		}
	}
	return start, end, true
}

func significant(tok *Token) *Token {
	for tok != nil && tok.Kind == TokenComment {
		tok = tok.Next
	}
	return tok
}

// matching returns the token closing the group opened by open.
func matching(open *Token, left, right TokenKind) *Token {
	depth := 0
	for tok := open; tok != nil; tok = tok.Next {
		switch tok.Kind {
		case left:
			depth++
		case right:
			depth--
			if depth == 0 {
				return tok
			}
		}
	}
	return nil
}
