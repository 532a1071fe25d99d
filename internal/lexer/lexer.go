package lexer

import (
	"memoc/internal/diag"
	"memoc/internal/source"
	"memoc/internal/token"
)

// Options configures a Lexer.
type Options struct {
	Reporter diag.Reporter
}

// Lexer produces tokens for the supported JavaScript subset.
type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	look   *token.Token // 1-token lookahead buffer
}

func New(file *source.File, opts Options) *Lexer {
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	return &Lexer{
		file:   file,
		cursor: NewCursor(file),
		opts:   opts,
	}
}

// Next returns the next significant token. After EOF it always returns EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	lx.skipTrivia()

	if lx.cursor.EOF() {
		return token.Token{Kind: token.EOF, Span: lx.cursor.Span(lx.cursor.Off)}
	}

	ch := lx.cursor.Peek()
	switch {
	case isIdentStart(ch):
		return lx.scanIdentOrKeyword()
	case isDec(ch):
		return lx.scanNumber()
	case ch == '.' && isDec(lx.cursor.PeekAt(1)):
		return lx.scanNumber()
	case ch == '"' || ch == '\'':
		return lx.scanString(ch)
	case ch == '`':
		return lx.scanTemplate(false)
	default:
		return lx.scanOperatorOrPunct()
	}
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

// ScanTemplateContinue rescans a template literal after a `}` closing a
// substitution. The parser must have consumed the RBrace without peeking
// further, so the cursor sits right after it.
func (lx *Lexer) ScanTemplateContinue() token.Token {
	if lx.look != nil {
		// A buffered token means the parser peeked past the brace;
		// template continuation is undefined there.
		lx.look = nil
	}
	return lx.scanTemplate(true)
}

// State snapshots the lexer position for speculative parsing.
type State struct {
	off  uint32
	look *token.Token
}

// Save captures the current position and lookahead buffer.
func (lx *Lexer) Save() State {
	return State{off: lx.cursor.Off, look: lx.look}
}

// Restore rewinds the lexer to a saved state.
func (lx *Lexer) Restore(s State) {
	lx.cursor.Off = s.off
	lx.look = s.look
}

// EmptySpan returns a zero-length span at the current position.
func (lx *Lexer) EmptySpan() source.Span {
	return lx.cursor.Span(lx.cursor.Off)
}

// skipTrivia consumes whitespace and comments.
func (lx *Lexer) skipTrivia() {
	for !lx.cursor.EOF() {
		ch := lx.cursor.Peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			lx.cursor.Bump()
		case ch == '/' && lx.cursor.PeekAt(1) == '/':
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				lx.cursor.Bump()
			}
		case ch == '/' && lx.cursor.PeekAt(1) == '*':
			start := lx.cursor.Off
			lx.cursor.Bump()
			lx.cursor.Bump()
			closed := false
			for !lx.cursor.EOF() {
				if lx.cursor.Peek() == '*' && lx.cursor.PeekAt(1) == '/' {
					lx.cursor.Bump()
					lx.cursor.Bump()
					closed = true
					break
				}
				lx.cursor.Bump()
			}
			if !closed {
				diag.ReportError(lx.opts.Reporter, diag.LexUnterminatedComment,
					lx.cursor.Span(start), "unterminated block comment")
			}
		default:
			return
		}
	}
}
