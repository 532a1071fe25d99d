package hir_test

import (
	"errors"
	"testing"

	"memoc/internal/ast"
	"memoc/internal/diag"
	"memoc/internal/hir"
	"memoc/internal/lexer"
	"memoc/internal/parser"
	"memoc/internal/source"
)

func parseFunc(t *testing.T, src string) *ast.Function {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.AddVirtual("test.js", []byte(src))
	bag := diag.NewBag(50)
	rep := diag.BagReporter{Bag: bag}
	lx := lexer.New(f, lexer.Options{Reporter: rep})
	res := parser.ParseFile(lx, parser.Options{MaxErrors: 20, Reporter: rep})
	if bag.HasErrors() {
		for _, d := range bag.Items() {
			t.Logf("diag: %s %s", d.Code, d.Message)
		}
		t.Fatalf("parse failed for %q", src)
	}
	fns := res.Program.Functions()
	if len(fns) == 0 {
		t.Fatalf("no function in %q", src)
	}
	return fns[0]
}

func lowerSrc(t *testing.T, src string) *hir.Func {
	t.Helper()
	f, err := hir.Lower(parseFunc(t, src))
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	if err := hir.Validate(f); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return f
}

func TestLowerStraightLine(t *testing.T) {
	f := lowerSrc(t, "function f(a, b) { const c = a + b; return c; }")
	if f.Name != "f" || len(f.Params) != 2 {
		t.Fatalf("func = %+v", f)
	}
	entry := f.Block(f.Entry)
	if entry.Term.Kind != hir.TermReturn || !entry.Term.Return.HasValue {
		t.Errorf("entry terminator = %+v", entry.Term)
	}
	// a + b lowers through two loads and a binary op.
	var sawBinary bool
	for _, in := range entry.Instrs {
		if in.Val.Kind == hir.ValBinary && in.Val.Binary.Op == hir.BinAdd {
			sawBinary = true
		}
	}
	if !sawBinary {
		t.Error("no Add instruction in entry block")
	}
}

func TestLowerIfCreatesDiamond(t *testing.T) {
	f := lowerSrc(t, "function f(x) { let a = 1; if (x) { a = 2; } else { a = 3; } return a; }")
	var branch *hir.Block
	for _, b := range f.Blocks {
		if b.Term.Kind == hir.TermIf {
			branch = b
			break
		}
	}
	if branch == nil {
		t.Fatal("no If terminator")
	}
	term := branch.Term.If
	if term.Merge == hir.NoBlockID {
		t.Fatal("statement If has no merge block")
	}
	if f.Block(term.Then).Term.Kind != hir.TermGoto || f.Block(term.Then).Term.Goto.Target != term.Merge {
		t.Errorf("then arm does not join the merge block")
	}
	if f.Block(term.Merge).Kind != hir.BlockMerge {
		t.Errorf("merge block kind = %v", f.Block(term.Merge).Kind)
	}
}

func TestLowerWhileShape(t *testing.T) {
	f := lowerSrc(t, "function f() { let i = 0; while (i < 3) { i = i + 1; } return i; }")
	if len(f.Loops) != 1 {
		t.Fatalf("loops = %d", len(f.Loops))
	}
	loop := f.Loops[0]
	if !f.LoopHeaders[loop.Header] {
		t.Error("header not marked")
	}
	if loop.Latch != hir.NoBlockID {
		t.Errorf("while loop has a latch: %v", loop.Latch)
	}
	header := f.Block(loop.Header)
	if header.Kind != hir.BlockLoopHeader || header.Term.Kind != hir.TermIf {
		t.Errorf("header = kind %v term %v", header.Kind, header.Term.Kind)
	}
	// The back-edge exists: some block jumps to the header.
	f.RecomputePreds()
	if len(header.Preds) < 2 {
		t.Errorf("header preds = %v, want preheader plus back-edge", header.Preds)
	}
}

func TestLowerForShape(t *testing.T) {
	f := lowerSrc(t, "function f() { let s = 0; for (let i = 0; i < 3; i++) { s += i; } return s; }")
	if len(f.Loops) != 1 {
		t.Fatalf("loops = %d", len(f.Loops))
	}
	loop := f.Loops[0]
	if loop.Latch == hir.NoBlockID {
		t.Fatal("for loop lost its latch")
	}
	latch := f.Block(loop.Latch)
	if latch.Kind != hir.BlockLoopLatch {
		t.Errorf("latch kind = %v", latch.Kind)
	}
	if latch.Term.Kind != hir.TermGoto || latch.Term.Goto.Target != loop.Header {
		t.Errorf("latch does not close the back-edge: %+v", latch.Term)
	}
}

func TestLowerSwitchFallThrough(t *testing.T) {
	f := lowerSrc(t, "function f(x) { let a = 0; switch (x) { case 0: a = 1; case 1: a = 2; break; default: a = 3; } return a; }")
	var sw *hir.Block
	for _, b := range f.Blocks {
		if b.Term.Kind == hir.TermSwitch {
			sw = b
			break
		}
	}
	if sw == nil {
		t.Fatal("no Switch terminator")
	}
	term := sw.Term.Switch
	if len(term.Cases) != 2 {
		t.Fatalf("cases = %d", len(term.Cases))
	}
	// Fall-through: case 0's body jumps to case 1's body, not the exit.
	case0 := f.Block(term.Cases[0].Target)
	if case0.Term.Kind != hir.TermGoto || case0.Term.Goto.Target != term.Cases[1].Target {
		t.Errorf("case 0 does not fall through: %+v", case0.Term)
	}
	// Break: case 1's body jumps to the merge.
	case1 := f.Block(term.Cases[1].Target)
	if case1.Term.Kind != hir.TermGoto || case1.Term.Goto.Target != term.Merge {
		t.Errorf("case 1 break does not reach the exit: %+v", case1.Term)
	}
	if term.Default == term.Merge {
		t.Error("default body missing")
	}
}

func TestLowerForOfIteratorShape(t *testing.T) {
	f := lowerSrc(t, "function f(xs) { let s = 0; for (const x of xs) { s += x; } return s; }")
	var sawInit, sawNext, sawDone bool
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			switch in.Val.Kind {
			case hir.ValIterInit:
				sawInit = in.Val.IterInit.Mode == hir.IterOf
			case hir.ValIterNext:
				sawNext = true
			case hir.ValPropertyLoad:
				if in.Val.PropertyLoad.Property == "done" {
					sawDone = true
				}
			}
		}
	}
	if !sawInit || !sawNext || !sawDone {
		t.Errorf("iterator protocol incomplete: init=%v next=%v done=%v", sawInit, sawNext, sawDone)
	}
}

func TestLowerTryTagsHandler(t *testing.T) {
	f := lowerSrc(t, "function f(x) { let a = 0; try { a = x.y; } catch (e) { a = 1; } return a; }")
	if len(f.TryRegions) != 1 {
		t.Fatalf("try regions = %d", len(f.TryRegions))
	}
	tr := f.TryRegions[0]
	if tr.Handler == hir.NoBlockID || tr.CatchName != "e" {
		t.Fatalf("region = %+v", tr)
	}
	if f.Block(tr.Body).Handler != tr.Handler {
		t.Error("protected block not tagged with its handler")
	}
}

func TestLowerBreakOutsideLoopFails(t *testing.T) {
	_, err := hir.Lower(parseFunc(t, "function f() { break; }"))
	var unsup *hir.UnsupportedError
	if !errors.As(err, &unsup) {
		t.Fatalf("err = %v, want UnsupportedError", err)
	}
}

func TestLowerUpdateExpressionOrder(t *testing.T) {
	// b = ++a must store before yielding the new value; c = a++ yields the
	// old one. Both shapes produce load, add-1, store.
	f := lowerSrc(t, "function f(x) { let a = x; let b = ++a; let c = a++; return b + c; }")
	adds := 0
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			if in.Val.Kind == hir.ValBinary && in.Val.Binary.Op == hir.BinAdd {
				adds++
			}
		}
	}
	if adds < 3 {
		t.Errorf("adds = %d, want at least 3 (two updates plus b+c)", adds)
	}
}

func TestLowerLogicalDiamond(t *testing.T) {
	f := lowerSrc(t, "function f(a, b) { return a && b; }")
	branches := 0
	for _, b := range f.Blocks {
		if b.Term.Kind == hir.TermIf {
			branches++
		}
	}
	if branches != 1 {
		t.Errorf("branches = %d, want 1 for &&", branches)
	}
}

func TestLowerNullishUsesIsNullish(t *testing.T) {
	f := lowerSrc(t, "function f(a, b) { return a ?? b; }")
	found := false
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			if in.Val.Kind == hir.ValUnary && in.Val.Unary.Op == hir.UnIsNullish {
				found = true
			}
		}
	}
	if !found {
		t.Error("?? did not lower through IsNullish")
	}
}

func TestLowerTemplateAsAdditionChain(t *testing.T) {
	f := lowerSrc(t, "function f(x) { return `a${x}b`; }")
	adds, consts := 0, 0
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			if in.Val.Kind == hir.ValBinary && in.Val.Binary.Op == hir.BinAdd {
				adds++
			}
			if in.Val.Kind == hir.ValConst && in.Val.Const.Kind == hir.ConstString {
				consts++
			}
		}
	}
	if adds != 2 || consts != 2 {
		t.Errorf("adds=%d consts=%d, want 2 and 2", adds, consts)
	}
}

func TestLowerDestructuring(t *testing.T) {
	f := lowerSrc(t, "function f(p) { const {a, b = 1} = p; const [x, ...rest] = p.list; return a; }")
	var propLoads, computedLoads, sliceCalls int
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			switch in.Val.Kind {
			case hir.ValPropertyLoad:
				propLoads++
			case hir.ValCall:
				if in.Val.Call.IsMethod && in.Val.Call.Property == "slice" {
					sliceCalls++
				}
			case hir.ValComputedLoad:
				computedLoads++
			}
		}
	}
	if propLoads < 3 { // a, b, list
		t.Errorf("property loads = %d", propLoads)
	}
	if computedLoads < 1 || sliceCalls != 1 {
		t.Errorf("computed=%d slice=%d", computedLoads, sliceCalls)
	}
}

func TestLowerNestedFunctionValue(t *testing.T) {
	f := lowerSrc(t, "function f(xs) { return xs.map(x => x * 2); }")
	var inner *hir.Func
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			if in.Val.Kind == hir.ValFunction {
				inner = in.Val.Function.Func
			}
		}
	}
	if inner == nil {
		t.Fatal("no FunctionValue instruction")
	}
	if len(inner.Params) != 1 || inner.Params[0].Name != "x" {
		t.Errorf("inner params = %+v", inner.Params)
	}
}
