package lexer

import (
	"testing"

	"memoc/internal/source"
	"memoc/internal/token"
)

func lexAll(t *testing.T, input string) []token.Token {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.AddVirtual("test.js", []byte(input))
	lx := New(f, Options{})
	var out []token.Token
	for {
		tok := lx.Next()
		if tok.Kind == token.EOF {
			return out
		}
		out = append(out, tok)
	}
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexKeywordsAndIdents(t *testing.T) {
	toks := lexAll(t, "const x = foo; let of")
	want := []token.Kind{
		token.KwConst, token.Ident, token.Assign, token.Ident,
		token.Semicolon, token.KwLet, token.Ident,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
	if toks[6].Text != "of" {
		t.Errorf("contextual keyword lexed as %q", toks[6].Text)
	}
}

func TestLexNumbers(t *testing.T) {
	cases := []struct {
		input string
		kind  token.Kind
	}{
		{"42", token.IntLit},
		{"0x1F", token.IntLit},
		{"3.14", token.FloatLit},
		{".5", token.FloatLit},
		{"1e9", token.FloatLit},
		{"2.5e-3", token.FloatLit},
	}
	for _, tc := range cases {
		toks := lexAll(t, tc.input)
		if len(toks) != 1 || toks[0].Kind != tc.kind || toks[0].Text != tc.input {
			t.Errorf("%q: got %+v", tc.input, toks)
		}
	}
}

func TestLexStringEscapes(t *testing.T) {
	toks := lexAll(t, `"a\nb\t\"q\""`)
	if len(toks) != 1 || toks[0].Kind != token.StringLit {
		t.Fatalf("got %+v", toks)
	}
	if toks[0].Cooked != "a\nb\t\"q\"" {
		t.Errorf("cooked = %q", toks[0].Cooked)
	}
}

func TestLexOperatorsLongestMatch(t *testing.T) {
	toks := lexAll(t, "a >>> b >>>= c === d !== e ?. f ?? g => h")
	want := []token.Kind{
		token.Ident, token.UShr, token.Ident, token.UShrAssign, token.Ident,
		token.EqEqEq, token.Ident, token.BangEqEq, token.Ident,
		token.QuestionDot, token.Ident, token.QuestionQuestion, token.Ident,
		token.Arrow, token.Ident,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexTemplate(t *testing.T) {
	fs := source.NewFileSet()
	f := fs.AddVirtual("t.js", []byte("`a${x}b${y}c`"))
	lx := New(f, Options{})

	head := lx.Next()
	if head.Kind != token.TemplateHead || head.Cooked != "a" {
		t.Fatalf("head = %+v", head)
	}
	if x := lx.Next(); x.Kind != token.Ident || x.Text != "x" {
		t.Fatalf("x = %+v", x)
	}
	if rb := lx.Next(); rb.Kind != token.RBrace {
		t.Fatalf("rbrace = %+v", rb)
	}
	mid := lx.ScanTemplateContinue()
	if mid.Kind != token.TemplateMiddle || mid.Cooked != "b" {
		t.Fatalf("mid = %+v", mid)
	}
	if y := lx.Next(); y.Kind != token.Ident || y.Text != "y" {
		t.Fatalf("y = %+v", y)
	}
	if rb := lx.Next(); rb.Kind != token.RBrace {
		t.Fatalf("rbrace2 = %+v", rb)
	}
	tail := lx.ScanTemplateContinue()
	if tail.Kind != token.TemplateTail || tail.Cooked != "c" {
		t.Fatalf("tail = %+v", tail)
	}
}

func TestLexNoSubTemplate(t *testing.T) {
	toks := lexAll(t, "`plain`")
	if len(toks) != 1 || toks[0].Kind != token.NoSubTemplate || toks[0].Cooked != "plain" {
		t.Fatalf("got %+v", toks)
	}
}

func TestLexComments(t *testing.T) {
	toks := lexAll(t, "a // line\n/* block */ b")
	got := kinds(toks)
	if len(got) != 2 || got[0] != token.Ident || got[1] != token.Ident {
		t.Errorf("got %v", got)
	}
}
