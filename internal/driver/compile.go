// Package driver orchestrates the compile pipeline: parse, lower, SSA,
// liveness, reactive scopes, tree reconstruction and emission.
package driver

import (
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"memoc/internal/ast"
	"memoc/internal/codegen"
	"memoc/internal/diag"
	"memoc/internal/hir"
	"memoc/internal/lexer"
	"memoc/internal/parser"
	"memoc/internal/reactive"
	"memoc/internal/source"
)

// Options configures one compilation.
type Options struct {
	// FileType selects the parser dialect: js, jsx, ts or tsx. The shared
	// JS subset is parsed for all of them; the flag is carried for
	// interface compatibility. Empty means js.
	FileType string
	// PassThrough returns the original source (with Success=false) when an
	// unsupported construct is hit, instead of failing outright.
	PassThrough bool
	// MaxDiagnostics caps the parser diagnostics collected per file.
	MaxDiagnostics int
	// Jobs bounds the per-function parallelism; <=0 means one goroutine
	// per function.
	Jobs int
}

func (o Options) withDefaults() Options {
	if o.FileType == "" {
		o.FileType = "js"
	}
	if o.MaxDiagnostics <= 0 {
		o.MaxDiagnostics = 100
	}
	return o
}

// Result is one compiled file.
type Result struct {
	Code string
	Bag  *diag.Bag
}

// CompileSource compiles every top-level function declaration of the file
// and returns the transformed source. Functions compile independently and
// in parallel; each invocation owns its own derived structures.
func CompileSource(fs *source.FileSet, file *source.File, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	bag := diag.NewBag(opts.MaxDiagnostics)
	rep := diag.BagReporter{Bag: bag}

	lx := lexer.New(file, lexer.Options{Reporter: rep})
	parsed := parser.ParseFile(lx, parser.Options{
		MaxErrors: uint(opts.MaxDiagnostics),
		Reporter:  rep,
	})
	if bag.HasErrors() {
		bag.Sort()
		first := bag.Items()[0]
		return &Result{Bag: bag}, &Error{
			Kind:    KindParse,
			Span:    first.Primary,
			Message: first.Message,
		}
	}

	fns := parsed.Program.Functions()
	if len(fns) == 0 {
		return &Result{Code: "", Bag: bag}, nil
	}

	outputs := make([]string, len(fns))
	var g errgroup.Group
	if opts.Jobs > 0 {
		g.SetLimit(opts.Jobs)
	}
	for i, fn := range fns {
		g.Go(func() error {
			code, err := CompileFunction(fn)
			if err != nil {
				return err
			}
			outputs[i] = code
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var cerr *Error
		if errors.As(err, &cerr) {
			return &Result{Bag: bag}, cerr
		}
		return &Result{Bag: bag}, err
	}

	var sb strings.Builder
	for _, code := range outputs {
		sb.WriteString(code)
		if !strings.HasSuffix(code, "\n") {
			sb.WriteByte('\n')
		}
	}
	return &Result{Code: sb.String(), Bag: bag}, nil
}

// CompileFunction runs the core pipeline on one parsed function.
func CompileFunction(fn *ast.Function) (string, error) {
	f, err := hir.Lower(fn)
	if err != nil {
		var unsup *hir.UnsupportedError
		if errors.As(err, &unsup) {
			return "", &Error{Kind: KindUnsupportedSyntax, Span: unsup.Span, Message: unsup.Error()}
		}
		return "", &Error{Kind: KindInvalidIR, Message: err.Error()}
	}
	if err := hir.Validate(f); err != nil {
		return "", &Error{Kind: KindInvalidIR, Span: f.Span, Message: err.Error()}
	}

	hir.EnterSSA(f)
	hir.EliminateRedundantPhis(f)
	if err := hir.ValidateSSA(f); err != nil {
		return "", &Error{Kind: KindInvalidIR, Span: f.Span, Message: err.Error()}
	}

	lv := hir.InferLiveness(f)
	scopes := hir.ConstructScopes(f, lv)
	if err := hir.ValidateScopes(scopes, lv); err != nil {
		return "", &Error{Kind: KindInvalidIR, Span: f.Span, Message: err.Error()}
	}

	tree, err := reactive.Build(f, scopes)
	if err != nil {
		return "", &Error{Kind: KindEmission, Span: f.Span, Message: err.Error()}
	}
	code, err := codegen.Generate(tree)
	if err != nil {
		return "", &Error{Kind: KindEmission, Span: f.Span, Message: err.Error()}
	}
	return code, nil
}

// CompileString is the FFI-shaped entry: source text in, code out. In
// pass-through mode an unsupported construct returns the original source
// with the error attached.
func CompileString(src string, opts Options) (code string, compileErr error) {
	fs := source.NewFileSet()
	file := fs.AddVirtual("input."+opts.withDefaults().FileType, []byte(src))

	res, err := CompileSource(fs, file, opts)
	if err != nil {
		var cerr *Error
		if opts.PassThrough && errors.As(err, &cerr) && cerr.Kind == KindUnsupportedSyntax {
			return src, cerr
		}
		return "", err
	}
	return res.Code, nil
}
