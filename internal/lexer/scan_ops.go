package lexer

import (
	"fmt"

	"memoc/internal/diag"
	"memoc/internal/token"
)

// scanOperatorOrPunct scans operators and punctuation, longest match first.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Off
	ch := lx.cursor.Peek()
	c1 := lx.cursor.PeekAt(1)
	c2 := lx.cursor.PeekAt(2)
	c3 := lx.cursor.PeekAt(3)

	kind := token.Invalid
	n := uint32(1)

	switch ch {
	case '(':
		kind = token.LParen
	case ')':
		kind = token.RParen
	case '{':
		kind = token.LBrace
	case '}':
		kind = token.RBrace
	case '[':
		kind = token.LBracket
	case ']':
		kind = token.RBracket
	case ';':
		kind = token.Semicolon
	case ',':
		kind = token.Comma
	case ':':
		kind = token.Colon
	case '~':
		kind = token.Tilde
	case '.':
		if c1 == '.' && c2 == '.' {
			kind, n = token.DotDotDot, 3
		} else {
			kind = token.Dot
		}
	case '?':
		switch {
		case c1 == '?':
			kind, n = token.QuestionQuestion, 2
		case c1 == '.':
			kind, n = token.QuestionDot, 2
		default:
			kind = token.Question
		}
	case '+':
		switch c1 {
		case '+':
			kind, n = token.PlusPlus, 2
		case '=':
			kind, n = token.PlusAssign, 2
		default:
			kind = token.Plus
		}
	case '-':
		switch c1 {
		case '-':
			kind, n = token.MinusMinus, 2
		case '=':
			kind, n = token.MinusAssign, 2
		default:
			kind = token.Minus
		}
	case '*':
		if c1 == '=' {
			kind, n = token.StarAssign, 2
		} else {
			kind = token.Star
		}
	case '/':
		if c1 == '=' {
			kind, n = token.SlashAssign, 2
		} else {
			kind = token.Slash
		}
	case '%':
		if c1 == '=' {
			kind, n = token.PercentAssign, 2
		} else {
			kind = token.Percent
		}
	case '=':
		switch {
		case c1 == '=' && c2 == '=':
			kind, n = token.EqEqEq, 3
		case c1 == '=':
			kind, n = token.EqEq, 2
		case c1 == '>':
			kind, n = token.Arrow, 2
		default:
			kind = token.Assign
		}
	case '!':
		switch {
		case c1 == '=' && c2 == '=':
			kind, n = token.BangEqEq, 3
		case c1 == '=':
			kind, n = token.BangEq, 2
		default:
			kind = token.Bang
		}
	case '<':
		switch {
		case c1 == '<' && c2 == '=':
			kind, n = token.ShlAssign, 3
		case c1 == '<':
			kind, n = token.Shl, 2
		case c1 == '=':
			kind, n = token.LtEq, 2
		default:
			kind = token.Lt
		}
	case '>':
		switch {
		case c1 == '>' && c2 == '>' && c3 == '=':
			kind, n = token.UShrAssign, 4
		case c1 == '>' && c2 == '>':
			kind, n = token.UShr, 3
		case c1 == '>' && c2 == '=':
			kind, n = token.ShrAssign, 3
		case c1 == '>':
			kind, n = token.Shr, 2
		case c1 == '=':
			kind, n = token.GtEq, 2
		default:
			kind = token.Gt
		}
	case '&':
		switch c1 {
		case '&':
			kind, n = token.AndAnd, 2
		case '=':
			kind, n = token.AmpAssign, 2
		default:
			kind = token.Amp
		}
	case '|':
		switch c1 {
		case '|':
			kind, n = token.OrOr, 2
		case '=':
			kind, n = token.PipeAssign, 2
		default:
			kind = token.Pipe
		}
	case '^':
		if c1 == '=' {
			kind, n = token.CaretAssign, 2
		} else {
			kind = token.Caret
		}
	}

	for i := uint32(0); i < n; i++ {
		lx.cursor.Bump()
	}

	if kind == token.Invalid {
		diag.ReportError(lx.opts.Reporter, diag.LexUnknownChar,
			lx.cursor.Span(start), fmt.Sprintf("unknown character %q", ch))
	}

	return token.Token{
		Kind: kind,
		Span: lx.cursor.Span(start),
		Text: lx.cursor.Text(start),
	}
}
