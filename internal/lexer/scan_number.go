package lexer

import (
	"memoc/internal/diag"
	"memoc/internal/token"
)

func isHex(ch byte) bool {
	return isDec(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// scanNumber handles decimal, hex (0x), octal (0o), binary (0b) and float
// forms with exponents. Numeric separators are not supported.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Off
	kind := token.IntLit

	if lx.cursor.Peek() == '0' {
		next := lx.cursor.PeekAt(1)
		if next == 'x' || next == 'X' {
			lx.cursor.Bump()
			lx.cursor.Bump()
			if !isHex(lx.cursor.Peek()) {
				diag.ReportError(lx.opts.Reporter, diag.LexBadNumber,
					lx.cursor.Span(start), "missing hex digits")
			}
			for isHex(lx.cursor.Peek()) {
				lx.cursor.Bump()
			}
			return lx.numberToken(start, token.IntLit)
		}
		if next == 'o' || next == 'O' || next == 'b' || next == 'B' {
			lx.cursor.Bump()
			lx.cursor.Bump()
			for isDec(lx.cursor.Peek()) {
				lx.cursor.Bump()
			}
			return lx.numberToken(start, token.IntLit)
		}
	}

	for isDec(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	if lx.cursor.Peek() == '.' {
		kind = token.FloatLit
		lx.cursor.Bump()
		for isDec(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
	}
	if ch := lx.cursor.Peek(); ch == 'e' || ch == 'E' {
		kind = token.FloatLit
		lx.cursor.Bump()
		if ch := lx.cursor.Peek(); ch == '+' || ch == '-' {
			lx.cursor.Bump()
		}
		if !isDec(lx.cursor.Peek()) {
			diag.ReportError(lx.opts.Reporter, diag.LexBadNumber,
				lx.cursor.Span(start), "missing exponent digits")
		}
		for isDec(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
	}
	return lx.numberToken(start, kind)
}

func (lx *Lexer) numberToken(start uint32, kind token.Kind) token.Token {
	return token.Token{
		Kind: kind,
		Span: lx.cursor.Span(start),
		Text: lx.cursor.Text(start),
	}
}
