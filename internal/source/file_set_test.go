package source

import (
	"testing"
)

func TestToLineCol(t *testing.T) {
	content := []byte("let a = 1;\nlet b = 2;\nreturn a + b;")
	idx := buildLineIndex(content)

	cases := []struct {
		off  uint32
		line uint32
		col  uint32
	}{
		{0, 1, 1},
		{4, 1, 5},
		{10, 1, 11}, // the newline itself belongs to line 1
		{11, 2, 1},
		{15, 2, 5},
		{22, 3, 1},
	}
	for _, tc := range cases {
		got := toLineCol(idx, tc.off)
		if got.Line != tc.line || got.Col != tc.col {
			t.Errorf("off %d: got %d:%d, want %d:%d", tc.off, got.Line, got.Col, tc.line, tc.col)
		}
	}
}

func TestFileSetVirtual(t *testing.T) {
	fs := NewFileSet()
	f := fs.AddVirtual("input.js", []byte("function f() {}\n"))
	if f.ID != 0 {
		t.Fatalf("first file id = %d, want 0", f.ID)
	}
	if f.Flags&FileVirtual == 0 {
		t.Error("virtual flag not set")
	}

	path, lc := fs.Position(Span{File: f.ID, Start: 9, End: 10})
	if path != "input.js" || lc.Line != 1 || lc.Col != 10 {
		t.Errorf("position = %s %d:%d", path, lc.Line, lc.Col)
	}
	if got := fs.Snippet(Span{File: f.ID, Start: 0, End: 8}); got != "function" {
		t.Errorf("snippet = %q", got)
	}
	if got := fs.Line(f.ID, 1); got != "function f() {}" {
		t.Errorf("line = %q", got)
	}
}

func TestNormalizeCRLF(t *testing.T) {
	fs := NewFileSet()
	f := fs.AddVirtual("crlf.js", []byte("a\r\nb"))
	if string(f.Content) != "a\nb" {
		t.Errorf("content = %q", f.Content)
	}
	if f.Flags&FileNormalizedCRLF == 0 {
		t.Error("CRLF flag not set")
	}
}
