package lexer

import (
	"memoc/internal/token"
)

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' ||
		(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || isDec(ch)
}

func isDec(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Off
	for !lx.cursor.EOF() && isIdentContinue(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	text := lx.cursor.Text(start)
	return token.Token{
		Kind: token.LookupKeyword(text),
		Span: lx.cursor.Span(start),
		Text: text,
	}
}
