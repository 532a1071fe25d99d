package hir_test

import (
	"testing"

	"memoc/internal/hir"
)

func analyze(t *testing.T, src string) (*hir.Func, *hir.Liveness) {
	t.Helper()
	f := lowerSrc(t, src)
	hir.EnterSSA(f)
	hir.EliminateRedundantPhis(f)
	if err := hir.ValidateSSA(f); err != nil {
		t.Fatalf("ssa: %v", err)
	}
	return f, hir.InferLiveness(f)
}

func TestLivenessRanges(t *testing.T) {
	f, lv := analyze(t, "function f(x) { const a = x * 2; const b = a + 1; return b; }")
	_ = f

	key := hir.IdentKey{Name: "a", Version: 1}
	r, ok := lv.Ranges[key]
	if !ok {
		t.Fatal("no range for a_1")
	}
	if r[1]-r[0] <= 1 {
		t.Errorf("a_1 range %v is trivial; it is used after its definition", r)
	}
	def, ok := lv.DefIndex[key]
	if !ok || def < r[0] || def >= r[1] {
		t.Errorf("def index %d outside range %v", def, r)
	}
}

func TestLivenessParamInLiveIn(t *testing.T) {
	f, lv := analyze(t, "function f(x) { return x + 1; }")
	entryIn := lv.LiveIn[f.Entry]
	if !entryIn[hir.IdentKey{Name: "x", Version: 0}] {
		t.Errorf("param x not live into entry: %v", entryIn)
	}
}

func TestLivenessAcrossBranch(t *testing.T) {
	f, lv := analyze(t, "function f(x) { const a = x * 2; if (x) { return a; } return 0; }")

	// a_1 is defined in the entry block and used in the then arm: it must
	// be live out of the entry block and marked escaping.
	key := hir.IdentKey{Name: "a", Version: 1}
	if !lv.LiveOut[f.Entry][key] {
		t.Errorf("a_1 not live out of entry: %v", lv.LiveOut[f.Entry])
	}
	if !lv.Escapes[key] {
		t.Error("a_1 not marked as escaping its block")
	}
}

func TestLivenessMutableRangeSpansVersions(t *testing.T) {
	_, lv := analyze(t, "function f(x) { let a = 1; a = a + x; return a; }")

	// All versions of a alias through the copies; their merged range must
	// span from the first definition to the last use.
	k1 := hir.IdentKey{Name: "a", Version: 1}
	k2 := hir.IdentKey{Name: "a", Version: 2}
	r1, ok1 := lv.Ranges[k1]
	r2, ok2 := lv.Ranges[k2]
	if !ok1 || !ok2 {
		t.Fatalf("missing ranges: %v %v", ok1, ok2)
	}
	if r1 != r2 {
		t.Errorf("versions of a have split ranges: %v vs %v", r1, r2)
	}
	if !lv.Alias(k1, k2) {
		t.Error("versions of a not aliased")
	}
}

func TestLivenessTermUses(t *testing.T) {
	_, lv := analyze(t, "function f(x) { const b = x + 1; return b; }")
	found := false
	for k := range lv.TermUses {
		if k.Name != "" {
			found = true
		}
	}
	if !found {
		t.Error("return operand not recorded as terminator use")
	}
}
