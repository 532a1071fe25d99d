package hir_test

import (
	"testing"

	"memoc/internal/hir"
)

func findPhis(f *hir.Func, name string) []*hir.Instr {
	var out []*hir.Instr
	for _, b := range f.Blocks {
		for i := range b.Instrs {
			if b.Instrs[i].IsPhi() && b.Instrs[i].Lvalue.Ident.Name == name {
				out = append(out, &b.Instrs[i])
			}
		}
	}
	return out
}

func TestSSAPlacesPhiAtJoin(t *testing.T) {
	f := lowerSrc(t, "function f(x) { let a = 1; if (x) { a = 2; } else { a = 3; } return a; }")
	hir.EnterSSA(f)

	phis := findPhis(f, "a")
	if len(phis) != 1 {
		t.Fatalf("phis for a = %d, want 1", len(phis))
	}
	ops := phis[0].Val.Phi.Operands
	if len(ops) != 2 {
		t.Fatalf("phi operands = %d", len(ops))
	}
	if ops[0].Src.Ident.Version == ops[1].Src.Ident.Version {
		t.Errorf("phi operands share a version: %+v", ops)
	}

	if err := hir.ValidateSSA(f); err != nil {
		t.Fatalf("ssa validation: %v", err)
	}
}

func TestSSASingleDefinition(t *testing.T) {
	f := lowerSrc(t, "function f(x) { let a = x; a = a + 1; a = a * 2; return a; }")
	hir.EnterSSA(f)
	hir.EliminateRedundantPhis(f)
	if err := hir.ValidateSSA(f); err != nil {
		t.Fatalf("ssa validation: %v", err)
	}

	// Three stores, three versions.
	versions := make(map[int]bool)
	for _, b := range f.Blocks {
		for i := range b.Instrs {
			in := &b.Instrs[i]
			if in.Lvalue.Ident.Name == "a" {
				versions[in.Lvalue.Ident.Version] = true
			}
		}
	}
	if len(versions) != 3 {
		t.Errorf("versions of a = %v, want 3", versions)
	}
}

func TestSSANoPhiForSingleDefName(t *testing.T) {
	f := lowerSrc(t, "function f(x) { let a = 1; if (x) { x = 2; } return a; }")
	hir.EnterSSA(f)
	if phis := findPhis(f, "a"); len(phis) != 0 {
		t.Errorf("unexpected phis for a: %d", len(phis))
	}
	// x is reassigned in one arm, so it does need a phi.
	if phis := findPhis(f, "x"); len(phis) != 1 {
		t.Errorf("phis for x = %d, want 1", len(phis))
	}
}

func TestSSALoopPhi(t *testing.T) {
	f := lowerSrc(t, "function f() { let i = 0; while (i < 3) { i = i + 1; } return i; }")
	hir.EnterSSA(f)
	hir.EliminateRedundantPhis(f)
	if err := hir.ValidateSSA(f); err != nil {
		t.Fatalf("ssa validation: %v", err)
	}

	phis := findPhis(f, "i")
	if len(phis) == 0 {
		t.Fatal("loop-carried i lost its phi")
	}
	// The header phi merges the entry version and the latch version.
	var headerPhi *hir.Instr
	for _, p := range phis {
		if len(p.Val.Phi.Operands) == 2 {
			headerPhi = p
		}
	}
	if headerPhi == nil {
		t.Fatalf("no two-operand phi for i: %+v", phis)
	}
}

func TestPhiOnlyForReassignedNames(t *testing.T) {
	f := lowerSrc(t, "function f(x) { let a = 1; let b = 1; if (x) { b = 2; } else { b = 3; } return a + b; }")
	hir.EnterSSA(f)
	hir.EliminateRedundantPhis(f)

	if phis := findPhis(f, "a"); len(phis) != 0 {
		t.Errorf("phi for single-definition a: %d", len(phis))
	}
	if phis := findPhis(f, "b"); len(phis) != 1 {
		t.Errorf("phis for b = %d, want 1", len(phis))
	}
	if err := hir.ValidateSSA(f); err != nil {
		t.Fatalf("ssa validation: %v", err)
	}
}

func TestEliminateRedundantPhis(t *testing.T) {
	// Hand-build a phi whose incoming values are pairwise identical; the
	// pass must remove it and substitute its uses.
	f := &hir.Func{LoopHeaders: make(map[hir.BlockID]bool)}
	b0 := f.NewBlock(hir.BlockEntry)
	b1 := f.NewBlock(hir.BlockMerge)
	f.Entry = b0.ID

	xv1 := hir.Identifier{Name: "x", Version: 1}
	b0.Instrs = append(b0.Instrs, hir.Instr{
		ID:     0,
		Lvalue: hir.Place{Ident: xv1, Effect: hir.EffectStore},
		Val:    hir.Value{Kind: hir.ValConst, Const: hir.Const{Kind: hir.ConstInt, IntValue: 1}},
		Scope:  hir.NoScopeID,
	})
	b0.Term = hir.Terminator{Kind: hir.TermGoto, Goto: hir.GotoTerm{Target: b1.ID}}

	phiLv := hir.Identifier{Name: "x", Version: 2}
	b1.Instrs = append(b1.Instrs, hir.Instr{
		ID:     1,
		Lvalue: hir.Place{Ident: phiLv, Effect: hir.EffectStore},
		Val: hir.Value{Kind: hir.ValPhi, Phi: hir.PhiValue{Operands: []hir.PhiOperand{
			{Pred: b0.ID, Src: hir.Place{Ident: xv1}},
			{Pred: b0.ID, Src: hir.Place{Ident: xv1}},
		}}},
		Scope: hir.NoScopeID,
	})
	b1.Term = hir.Terminator{Kind: hir.TermReturn, Return: hir.ReturnTerm{
		HasValue: true, Value: hir.Place{Ident: phiLv},
	}}

	hir.EliminateRedundantPhis(f)

	if phis := findPhis(f, "x"); len(phis) != 0 {
		t.Fatalf("redundant phi survived: %d", len(phis))
	}
	ret := f.Block(b1.ID).Term.Return
	if ret.Value.Ident.Version != 1 {
		t.Errorf("return use not substituted: %+v", ret.Value.Ident)
	}
}
