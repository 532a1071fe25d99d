package lexer

import (
	"strings"

	"memoc/internal/diag"
	"memoc/internal/token"
)

// scanString scans a single- or double-quoted string literal.
// Text keeps the raw form (quotes included), Cooked the decoded value.
func (lx *Lexer) scanString(quote byte) token.Token {
	start := lx.cursor.Off
	lx.cursor.Bump() // opening quote

	var cooked strings.Builder
	terminated := false
	for !lx.cursor.EOF() {
		ch := lx.cursor.Peek()
		if ch == quote {
			lx.cursor.Bump()
			terminated = true
			break
		}
		if ch == '\n' {
			break
		}
		if ch == '\\' {
			lx.cursor.Bump()
			cooked.WriteString(lx.scanEscape())
			continue
		}
		cooked.WriteByte(ch)
		lx.cursor.Bump()
	}
	if !terminated {
		diag.ReportError(lx.opts.Reporter, diag.LexUnterminatedString,
			lx.cursor.Span(start), "unterminated string literal")
	}
	return token.Token{
		Kind:   token.StringLit,
		Span:   lx.cursor.Span(start),
		Text:   lx.cursor.Text(start),
		Cooked: cooked.String(),
	}
}

// scanTemplate scans a template literal chunk. When afterBrace is false the
// cursor sits on the opening backtick; otherwise it sits right after the `}`
// of a substitution. The chunk ends at a closing backtick (NoSubTemplate /
// TemplateTail) or at `${` (TemplateHead / TemplateMiddle).
func (lx *Lexer) scanTemplate(afterBrace bool) token.Token {
	start := lx.cursor.Off
	if !afterBrace {
		lx.cursor.Bump() // opening backtick
	}

	var cooked strings.Builder
	for !lx.cursor.EOF() {
		ch := lx.cursor.Peek()
		if ch == '`' {
			lx.cursor.Bump()
			kind := token.NoSubTemplate
			if afterBrace {
				kind = token.TemplateTail
			}
			return token.Token{
				Kind:   kind,
				Span:   lx.cursor.Span(start),
				Text:   lx.cursor.Text(start),
				Cooked: cooked.String(),
			}
		}
		if ch == '$' && lx.cursor.PeekAt(1) == '{' {
			lx.cursor.Bump()
			lx.cursor.Bump()
			kind := token.TemplateHead
			if afterBrace {
				kind = token.TemplateMiddle
			}
			return token.Token{
				Kind:   kind,
				Span:   lx.cursor.Span(start),
				Text:   lx.cursor.Text(start),
				Cooked: cooked.String(),
			}
		}
		if ch == '\\' {
			lx.cursor.Bump()
			cooked.WriteString(lx.scanEscape())
			continue
		}
		cooked.WriteByte(ch)
		lx.cursor.Bump()
	}

	diag.ReportError(lx.opts.Reporter, diag.LexUnterminatedTemplate,
		lx.cursor.Span(start), "unterminated template literal")
	return token.Token{
		Kind:   token.Invalid,
		Span:   lx.cursor.Span(start),
		Text:   lx.cursor.Text(start),
		Cooked: cooked.String(),
	}
}

// scanEscape decodes one escape sequence; the leading backslash is consumed.
func (lx *Lexer) scanEscape() string {
	if lx.cursor.EOF() {
		return ""
	}
	ch := lx.cursor.Peek()
	lx.cursor.Bump()
	switch ch {
	case 'n':
		return "\n"
	case 'r':
		return "\r"
	case 't':
		return "\t"
	case '0':
		return "\x00"
	case 'b':
		return "\b"
	case 'f':
		return "\f"
	case 'v':
		return "\v"
	case 'x':
		return lx.scanHexEscape(2)
	case 'u':
		return lx.scanHexEscape(4)
	case '\n':
		return "" // line continuation
	default:
		// \\ \' \" \` \$ and anything else map to the char itself.
		return string(ch)
	}
}

func (lx *Lexer) scanHexEscape(n int) string {
	start := lx.cursor.Off
	v := rune(0)
	for i := 0; i < n; i++ {
		ch := lx.cursor.Peek()
		if !isHex(ch) {
			diag.ReportError(lx.opts.Reporter, diag.LexBadEscape,
				lx.cursor.Span(start), "invalid hex escape")
			return ""
		}
		v = v*16 + rune(hexVal(ch))
		lx.cursor.Bump()
	}
	return string(v)
}

func hexVal(ch byte) byte {
	switch {
	case ch >= '0' && ch <= '9':
		return ch - '0'
	case ch >= 'a' && ch <= 'f':
		return ch - 'a' + 10
	default:
		return ch - 'A' + 10
	}
}
