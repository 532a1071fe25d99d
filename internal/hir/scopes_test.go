package hir_test

import (
	"testing"

	"memoc/internal/hir"
)

func buildScopes(t *testing.T, src string) (*hir.Func, *hir.Liveness, *hir.ScopeResult) {
	t.Helper()
	f, lv := analyze(t, src)
	res := hir.ConstructScopes(f, lv)
	if err := hir.ValidateScopes(res, lv); err != nil {
		t.Fatalf("scope validation: %v", err)
	}
	return f, lv, res
}

func TestScopesStraightLineChain(t *testing.T) {
	_, lv, res := buildScopes(t, "function s(x) { const a = x * 2; const b = a + 1; return b; }")

	if len(res.Scopes) != 1 {
		t.Fatalf("scopes = %d, want 1 (a and b entangle)", len(res.Scopes))
	}
	s := res.Scopes[0]
	if len(s.Dependencies) == 0 {
		t.Fatal("scope has no dependencies; the x load must be one")
	}
	if len(s.Declarations) == 0 {
		t.Fatal("scope has no outputs; the returned value must be one")
	}
	// Every dependency is defined before the scope.
	for _, d := range s.Dependencies {
		if idx, ok := lv.DefIndex[d.Ident.Key()]; ok && idx >= s.Range[0] {
			t.Errorf("dependency %s defined inside scope", d.Ident)
		}
	}
}

func TestScopesDisjoint(t *testing.T) {
	_, _, res := buildScopes(t, `function f(x, y) {
		const a = x * 2;
		const b = a + 1;
		const c = y * 3;
		const d = c + b;
		return d;
	}`)
	for i := 0; i < len(res.Scopes); i++ {
		for j := i + 1; j < len(res.Scopes); j++ {
			a, b := res.Scopes[i].Range, res.Scopes[j].Range
			if a[0] < b[1] && b[0] < a[1] {
				t.Errorf("scopes %d and %d overlap: %v %v", i, j, a, b)
			}
		}
	}
}

func TestScopesConstantsNotDeps(t *testing.T) {
	_, lv, res := buildScopes(t, "function f(x) { const a = x + 1; const b = a * 2; return b; }")
	for _, s := range res.Scopes {
		for _, d := range s.Dependencies {
			idx, ok := lv.DefIndex[d.Ident.Key()]
			if !ok {
				continue
			}
			if lv.Order[idx].Instr.Val.Kind == hir.ValConst {
				t.Errorf("compile-time constant %s leaked into deps", d.Ident)
			}
		}
	}
}

func TestScopesWidenOverBranch(t *testing.T) {
	// a's live range crosses the ternary diamond; alignment must widen its
	// scope to the whole branch region rather than splitting it.
	_, lv, res := buildScopes(t, "function f(x) { const a = x > 3 ? x * 2 : x + 1; return a; }")
	if len(res.Scopes) == 0 {
		t.Fatal("no scopes")
	}
	if err := hir.ValidateScopes(res, lv); err != nil {
		t.Fatal(err)
	}
}

func TestScopesRefuseProtectedCrossing(t *testing.T) {
	f, lv, res := buildScopes(t, `function f(x) {
		let a = x * 2;
		try { a = a + risky(); } catch (e) { a = 0; }
		return a;
	}`)
	if len(f.TryRegions) != 1 {
		t.Fatalf("try regions = %d", len(f.TryRegions))
	}
	tr := f.TryRegions[0]
	start := lv.BlockRange[tr.Body][0]
	end := lv.BlockRange[tr.Exit][0]
	for _, s := range res.Scopes {
		overlaps := s.Range[0] < end && start < s.Range[1]
		inside := start <= s.Range[0] && s.Range[1] <= end
		if overlaps && !inside {
			t.Errorf("scope %v straddles the protected region [%d,%d)", s.Range, start, end)
		}
	}
}

func TestScopesInstructionTagging(t *testing.T) {
	_, lv, res := buildScopes(t, "function s(x) { const a = x * 2; const b = a + 1; return b; }")
	for idx, id := range res.ByIndex {
		if lv.Order[idx].Instr.Scope != id {
			t.Errorf("instr at %d not tagged with scope %d", idx, id)
		}
	}
}
