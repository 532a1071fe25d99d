package reactive_test

import (
	"testing"

	"memoc/internal/diag"
	"memoc/internal/hir"
	"memoc/internal/lexer"
	"memoc/internal/parser"
	"memoc/internal/reactive"
	"memoc/internal/source"
)

func buildTree(t *testing.T, src string) *reactive.Function {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.AddVirtual("test.js", []byte(src))
	bag := diag.NewBag(50)
	rep := diag.BagReporter{Bag: bag}
	lx := lexer.New(f, lexer.Options{Reporter: rep})
	res := parser.ParseFile(lx, parser.Options{MaxErrors: 20, Reporter: rep})
	if bag.HasErrors() {
		t.Fatalf("parse failed for %q", src)
	}
	fns := res.Program.Functions()
	if len(fns) == 0 {
		t.Fatal("no functions")
	}

	fn, err := hir.Lower(fns[0])
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	hir.EnterSSA(fn)
	hir.EliminateRedundantPhis(fn)
	lv := hir.InferLiveness(fn)
	scopes := hir.ConstructScopes(fn, lv)

	tree, err := reactive.Build(fn, scopes)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return tree
}

func find[T reactive.Node](nodes []reactive.Node) []T {
	var out []T
	var walk func([]reactive.Node)
	walk = func(ns []reactive.Node) {
		for _, n := range ns {
			if v, ok := n.(T); ok {
				out = append(out, v)
			}
			switch node := n.(type) {
			case *reactive.IfNode:
				walk(node.Then)
				walk(node.Else)
			case *reactive.WhileNode:
				walk(node.Body)
			case *reactive.SwitchNode:
				for _, c := range node.Cases {
					walk(c.Body)
				}
			case *reactive.TryNode:
				walk(node.Body)
				walk(node.Catch)
			case *reactive.ScopeNode:
				walk(node.Body)
			}
		}
	}
	walk(nodes)
	return out
}

func TestBuildStraightLine(t *testing.T) {
	tree := buildTree(t, "function f(a) { return a + 1; }")
	rets := find[*reactive.ReturnNode](tree.Body)
	if len(rets) == 0 || !rets[0].HasValue {
		t.Fatalf("returns = %+v", rets)
	}
}

func TestBuildIfElse(t *testing.T) {
	tree := buildTree(t, "function f(x) { let a = 0; if (x) { a = 1; } else { a = 2; } return a; }")
	ifs := find[*reactive.IfNode](tree.Body)
	if len(ifs) != 1 {
		t.Fatalf("ifs = %d", len(ifs))
	}
	if len(ifs[0].Then) == 0 || len(ifs[0].Else) == 0 {
		t.Errorf("arms empty: then=%d else=%d", len(ifs[0].Then), len(ifs[0].Else))
	}
	// Exactly one return, after the merge.
	if rets := find[*reactive.ReturnNode](tree.Body); len(rets) != 1 {
		t.Errorf("returns = %d, want 1 (no tail duplication)", len(rets))
	}
}

func TestBuildWhileLoop(t *testing.T) {
	tree := buildTree(t, "function f() { let i = 0; while (i < 3) { i = i + 1; } return i; }")
	loops := find[*reactive.WhileNode](tree.Body)
	if len(loops) != 1 {
		t.Fatalf("loops = %d", len(loops))
	}
	if breaks := find[*reactive.BreakNode](loops[0].Body); len(breaks) == 0 {
		t.Error("loop body has no exit break")
	}
}

func TestBuildNestedLoopsBreakContinue(t *testing.T) {
	tree := buildTree(t, `function n() {
		let c = 0;
		for (let i = 0; i < 3; i++) {
			for (let j = 0; j < 3; j++) {
				if (i === 1) break;
				if (j === 1) continue;
				c = c + 1;
			}
		}
		return c;
	}`)
	loops := find[*reactive.WhileNode](tree.Body)
	if len(loops) != 2 {
		t.Fatalf("loops = %d, want 2", len(loops))
	}
	conts := find[*reactive.ContinueNode](tree.Body)
	if len(conts) == 0 {
		t.Error("no continue nodes")
	}
}

func TestBuildSwitch(t *testing.T) {
	tree := buildTree(t, `function m(x) {
		let r = 0;
		switch (x) {
			case 0: r = 1; break;
			case 1: r = 10;
			default: r = 100;
		}
		return r;
	}`)
	sws := find[*reactive.SwitchNode](tree.Body)
	if len(sws) != 1 {
		t.Fatalf("switches = %d", len(sws))
	}
	sw := sws[0]
	if len(sw.Cases) != 3 {
		t.Fatalf("cases = %d", len(sw.Cases))
	}
	if sw.Cases[2].Value != nil {
		t.Error("default case not last")
	}
	// Case 0 breaks; case 1 falls through (no break node).
	if breaks := find[*reactive.BreakNode](sw.Cases[0].Body); len(breaks) != 1 {
		t.Errorf("case 0 breaks = %d", len(breaks))
	}
	if breaks := find[*reactive.BreakNode](sw.Cases[1].Body); len(breaks) != 0 {
		t.Errorf("case 1 gained a break, losing fall-through")
	}
}

func TestBuildTry(t *testing.T) {
	tree := buildTree(t, "function f(x) { let a = 0; try { a = x.y; } catch (e) { a = 1; } return a; }")
	tries := find[*reactive.TryNode](tree.Body)
	if len(tries) != 1 {
		t.Fatalf("tries = %d", len(tries))
	}
	if !tries[0].HasCatch || tries[0].CatchName != "e" {
		t.Errorf("catch = %+v", tries[0])
	}
}

func TestBuildScopeWrapping(t *testing.T) {
	tree := buildTree(t, "function s(x) { const a = x * 2; const b = a + 1; return b; }")
	scopes := find[*reactive.ScopeNode](tree.Body)
	if len(scopes) != 1 {
		t.Fatalf("scope nodes = %d, want 1", len(scopes))
	}
	if len(scopes[0].Scope.Dependencies) == 0 || len(scopes[0].Scope.Declarations) == 0 {
		t.Errorf("scope incomplete: %+v", scopes[0].Scope)
	}
	// The return stays outside the cached region.
	if rets := find[*reactive.ReturnNode](scopes[0].Body); len(rets) != 0 {
		t.Error("return leaked inside the scope body")
	}
}

func TestBuildLabeledBreak(t *testing.T) {
	tree := buildTree(t, `function f() {
		let c = 0;
		outer: for (let i = 0; i < 3; i++) {
			for (let j = 0; j < 3; j++) {
				if (j === 1) break outer;
				c = c + 1;
			}
		}
		return c;
	}`)
	loops := find[*reactive.WhileNode](tree.Body)
	var labeled *reactive.WhileNode
	for _, l := range loops {
		if l.Label != "" {
			labeled = l
		}
	}
	if labeled == nil {
		t.Fatal("no labeled loop")
	}
	breaks := find[*reactive.BreakNode](tree.Body)
	found := false
	for _, br := range breaks {
		if br.Label == labeled.Label {
			found = true
		}
	}
	if !found {
		t.Errorf("no break targeting label %q", labeled.Label)
	}
}
