package hir_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"memoc/internal/hir"
)

// diamond builds bb0 -> (bb1|bb2) -> bb3 by hand.
func diamond(t *testing.T) *hir.Func {
	t.Helper()
	f := &hir.Func{LoopHeaders: make(map[hir.BlockID]bool)}
	b0 := f.NewBlock(hir.BlockEntry)
	b1 := f.NewBlock(hir.BlockBody)
	b2 := f.NewBlock(hir.BlockBody)
	b3 := f.NewBlock(hir.BlockMerge)
	f.Entry = b0.ID

	test := hir.Place{Ident: hir.Identifier{Name: "t0"}}
	b0.Term = hir.Terminator{Kind: hir.TermIf, If: hir.IfTerm{Test: test, Then: b1.ID, Else: b2.ID, Merge: b3.ID}}
	b1.Term = hir.Terminator{Kind: hir.TermGoto, Goto: hir.GotoTerm{Target: b3.ID}}
	b2.Term = hir.Terminator{Kind: hir.TermGoto, Goto: hir.GotoTerm{Target: b3.ID}}
	b3.Term = hir.Terminator{Kind: hir.TermReturn}
	f.RecomputePreds()
	return f
}

func TestDominatorsDiamond(t *testing.T) {
	f := diamond(t)
	dt := hir.ComputeDominators(f)

	// The join is dominated by the branch, not by either arm.
	want := map[hir.BlockID]hir.BlockID{0: 0, 1: 0, 2: 0, 3: 0}
	if diff := cmp.Diff(want, dt.IDom); diff != "" {
		t.Errorf("idoms mismatch (-want +got):\n%s", diff)
	}

	// Both arms have the join in their frontier; the entry does not.
	for _, arm := range []hir.BlockID{1, 2} {
		fr := dt.Frontiers[arm]
		if len(fr) != 1 || fr[0] != 3 {
			t.Errorf("DF(bb%d) = %v, want [bb3]", arm, fr)
		}
	}
	if len(dt.Frontiers[0]) != 0 {
		t.Errorf("DF(entry) = %v, want empty", dt.Frontiers[0])
	}
}

func TestDominatorsLoop(t *testing.T) {
	// bb0 -> bb1(header) -> bb2(body) -> bb1, bb1 -> bb3(exit)
	f := &hir.Func{LoopHeaders: make(map[hir.BlockID]bool)}
	b0 := f.NewBlock(hir.BlockEntry)
	b1 := f.NewBlock(hir.BlockLoopHeader)
	b2 := f.NewBlock(hir.BlockBody)
	b3 := f.NewBlock(hir.BlockMerge)
	f.Entry = b0.ID

	test := hir.Place{Ident: hir.Identifier{Name: "t0"}}
	b0.Term = hir.Terminator{Kind: hir.TermGoto, Goto: hir.GotoTerm{Target: b1.ID}}
	b1.Term = hir.Terminator{Kind: hir.TermIf, If: hir.IfTerm{Test: test, Then: b2.ID, Else: b3.ID, Merge: hir.NoBlockID}}
	b2.Term = hir.Terminator{Kind: hir.TermGoto, Goto: hir.GotoTerm{Target: b1.ID}}
	b3.Term = hir.Terminator{Kind: hir.TermReturn}
	f.RecomputePreds()

	dt := hir.ComputeDominators(f)
	if dt.IDom[1] != 0 || dt.IDom[2] != 1 || dt.IDom[3] != 1 {
		t.Errorf("idoms = %v", dt.IDom)
	}
	// The header is in its own frontier via the back-edge.
	fr := dt.Frontiers[1]
	if len(fr) != 1 || fr[0] != 1 {
		t.Errorf("DF(header) = %v, want [bb1]", fr)
	}
	if !dt.Dominates(1, 2) || dt.Dominates(2, 3) {
		t.Error("dominance queries wrong")
	}
}
