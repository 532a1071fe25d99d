package parser_test

import (
	"testing"

	"memoc/internal/ast"
	"memoc/internal/diag"
	"memoc/internal/lexer"
	"memoc/internal/parser"
	"memoc/internal/source"
)

func parse(t *testing.T, input string) (*ast.Program, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.AddVirtual("test.js", []byte(input))
	bag := diag.NewBag(50)
	rep := diag.BagReporter{Bag: bag}
	lx := lexer.New(f, lexer.Options{Reporter: rep})
	res := parser.ParseFile(lx, parser.Options{MaxErrors: 20, Reporter: rep})
	return res.Program, bag
}

func parseOK(t *testing.T, input string) *ast.Program {
	t.Helper()
	prog, bag := parse(t, input)
	if bag.HasErrors() {
		for _, d := range bag.Items() {
			t.Logf("diag: %s %s", d.Code, d.Message)
		}
		t.Fatalf("unexpected parse errors for %q", input)
	}
	return prog
}

func onlyFunction(t *testing.T, input string) *ast.Function {
	t.Helper()
	prog := parseOK(t, input)
	fns := prog.Functions()
	if len(fns) != 1 {
		t.Fatalf("expected 1 function, got %d", len(fns))
	}
	return fns[0]
}

func TestParseSimpleFunction(t *testing.T) {
	fn := onlyFunction(t, "function f(a, b) { return a + b; }")
	if fn.Name != "f" || len(fn.Params) != 2 || len(fn.Body) != 1 {
		t.Fatalf("fn = %+v", fn)
	}
	ret, ok := fn.Body[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("body[0] = %T", fn.Body[0])
	}
	bin, ok := ret.Value.(*ast.Binary)
	if !ok {
		t.Fatalf("return value = %T", ret.Value)
	}
	if _, ok := bin.L.(*ast.Ident); !ok {
		t.Errorf("left = %T", bin.L)
	}
}

func TestParsePrecedence(t *testing.T) {
	fn := onlyFunction(t, "function f() { return 1 + 2 * 3; }")
	ret := fn.Body[0].(*ast.ReturnStmt)
	add := ret.Value.(*ast.Binary)
	if _, ok := add.R.(*ast.Binary); !ok {
		t.Fatalf("multiplication did not bind tighter: %T", add.R)
	}
}

func TestParseTernaryAndLogical(t *testing.T) {
	fn := onlyFunction(t, "function f(x) { return x > 3 ? x && 1 : x ?? 2; }")
	ret := fn.Body[0].(*ast.ReturnStmt)
	cond, ok := ret.Value.(*ast.Conditional)
	if !ok {
		t.Fatalf("value = %T", ret.Value)
	}
	if _, ok := cond.Cons.(*ast.Logical); !ok {
		t.Errorf("cons = %T", cond.Cons)
	}
	if _, ok := cond.Alt.(*ast.Logical); !ok {
		t.Errorf("alt = %T", cond.Alt)
	}
}

func TestParseForClassic(t *testing.T) {
	fn := onlyFunction(t, "function f() { for (let i = 0; i < 3; i++) {} }")
	loop, ok := fn.Body[0].(*ast.ForStmt)
	if !ok {
		t.Fatalf("body[0] = %T", fn.Body[0])
	}
	if loop.Init == nil || loop.Test == nil || loop.Update == nil {
		t.Errorf("for clauses: %+v", loop)
	}
}

func TestParseForOfIn(t *testing.T) {
	fn := onlyFunction(t, "function f(xs, o) { for (const x of xs) {} for (let k in o) {} }")
	fo, ok := fn.Body[0].(*ast.ForInStmt)
	if !ok || !fo.Of {
		t.Fatalf("body[0] = %#v", fn.Body[0])
	}
	fi, ok := fn.Body[1].(*ast.ForInStmt)
	if !ok || fi.Of {
		t.Fatalf("body[1] = %#v", fn.Body[1])
	}
}

func TestParseSwitch(t *testing.T) {
	fn := onlyFunction(t, `function f(x) {
		switch (x) {
			case 0: return 1;
			case 1: break;
			default: return 2;
		}
	}`)
	sw, ok := fn.Body[0].(*ast.SwitchStmt)
	if !ok {
		t.Fatalf("body[0] = %T", fn.Body[0])
	}
	if len(sw.Cases) != 3 {
		t.Fatalf("cases = %d", len(sw.Cases))
	}
	if sw.Cases[2].Test != nil {
		t.Error("default case has a test")
	}
}

func TestParseTemplate(t *testing.T) {
	fn := onlyFunction(t, "function f(x) { return `a${x}b`; }")
	ret := fn.Body[0].(*ast.ReturnStmt)
	tpl, ok := ret.Value.(*ast.TemplateLit)
	if !ok {
		t.Fatalf("value = %T", ret.Value)
	}
	if len(tpl.Quasis) != 2 || len(tpl.Exprs) != 1 {
		t.Fatalf("quasis=%d exprs=%d", len(tpl.Quasis), len(tpl.Exprs))
	}
	if tpl.Quasis[0].Cooked != "a" || tpl.Quasis[1].Cooked != "b" {
		t.Errorf("quasis = %+v", tpl.Quasis)
	}
}

func TestParseArrowFunctions(t *testing.T) {
	fn := onlyFunction(t, "function f(xs) { const g = x => x + 1; const h = (a, b) => { return a; }; return xs.map(g); }")
	decl := fn.Body[0].(*ast.VarDecl)
	fe, ok := decl.Decls[0].Init.(*ast.FunctionExpr)
	if !ok || !fe.Fn.Arrow || fe.Fn.ExprBody == nil {
		t.Fatalf("init = %#v", decl.Decls[0].Init)
	}
	decl2 := fn.Body[1].(*ast.VarDecl)
	fe2, ok := decl2.Decls[0].Init.(*ast.FunctionExpr)
	if !ok || !fe2.Fn.Arrow || len(fe2.Fn.Params) != 2 || fe2.Fn.ExprBody != nil {
		t.Fatalf("init2 = %#v", decl2.Decls[0].Init)
	}
}

func TestParseDestructuring(t *testing.T) {
	fn := onlyFunction(t, "function f(p) { const {a, b: c = 1, ...rest} = p; const [x, , y = 2, ...zs] = p.list; }")
	d1 := fn.Body[0].(*ast.VarDecl)
	op, ok := d1.Decls[0].Target.(*ast.ObjectPat)
	if !ok || len(op.Props) != 2 || op.Rest == nil {
		t.Fatalf("object pattern = %#v", d1.Decls[0].Target)
	}
	d2 := fn.Body[1].(*ast.VarDecl)
	ap, ok := d2.Decls[0].Target.(*ast.ArrayPat)
	if !ok || len(ap.Elems) != 4 {
		t.Fatalf("array pattern = %#v", d2.Decls[0].Target)
	}
	if ap.Elems[1].Target != nil {
		t.Error("hole not preserved")
	}
	if !ap.Elems[3].Rest {
		t.Error("rest not detected")
	}
}

func TestParseOptionalChain(t *testing.T) {
	fn := onlyFunction(t, "function f(o) { return o?.a?.[0]?.(); }")
	ret := fn.Body[0].(*ast.ReturnStmt)
	call, ok := ret.Value.(*ast.Call)
	if !ok || !call.Optional {
		t.Fatalf("value = %#v", ret.Value)
	}
}

func TestParseLabeledBreak(t *testing.T) {
	fn := onlyFunction(t, "function f() { outer: for (;;) { for (;;) { break outer; } } }")
	lbl, ok := fn.Body[0].(*ast.LabeledStmt)
	if !ok || lbl.Label != "outer" {
		t.Fatalf("body[0] = %#v", fn.Body[0])
	}
}

func TestParseErrorsRecover(t *testing.T) {
	_, bag := parse(t, "function f( { return }")
	if !bag.HasErrors() {
		t.Fatal("expected errors")
	}
}
