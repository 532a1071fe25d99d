package diagfmt

import (
	"strings"
	"testing"

	"memoc/internal/diag"
	"memoc/internal/source"
)

func TestRenderOne(t *testing.T) {
	fs := source.NewFileSet()
	f := fs.AddVirtual("app.js", []byte("const x = §;\n"))

	d := diag.NewError(diag.LexUnknownChar, source.Span{File: f.ID, Start: 10, End: 12}, "unknown character")

	var sb strings.Builder
	RenderOne(&sb, fs, d, Options{Context: true})
	out := sb.String()

	if !strings.Contains(out, "app.js:1:11") {
		t.Errorf("missing position: %q", out)
	}
	if !strings.Contains(out, "ERROR[MC1001]") {
		t.Errorf("missing code: %q", out)
	}
	if !strings.Contains(out, "const x = ") {
		t.Errorf("missing source line: %q", out)
	}
	if !strings.Contains(out, "^") {
		t.Errorf("missing caret: %q", out)
	}
}
