package hir

import (
	"sort"
	"strings"
)

// ReactiveScope is a contiguous linear-instruction range whose outputs are
// cached keyed on its dependencies.
type ReactiveScope struct {
	ID ScopeID
	// Range is [first, last) in the linearized instruction stream.
	Range [2]int
	// Dependencies are the places read inside the range but defined before
	// it, in deterministic order.
	Dependencies []Place
	// Declarations are the identifiers defined inside the range that are
	// used after it, in deterministic order.
	Declarations []Identifier
	// Reassignments lists base names with more than one SSA version inside
	// the range.
	Reassignments []string
}

// ScopeResult carries the constructed scopes and the instruction mapping.
type ScopeResult struct {
	Scopes []ReactiveScope
	// ByIndex maps linear instruction index to the owning scope, if any.
	ByIndex map[int]ScopeID
}

// ConstructScopes partitions the instruction stream into reactive scopes:
// infer candidates from escaping values, align to block boundaries, merge
// overlaps, then propagate dependencies.
func ConstructScopes(f *Func, lv *Liveness) *ScopeResult {
	scopes := inferScopes(f, lv)
	scopes = alignScopes(f, lv, scopes)
	scopes = mergeScopes(scopes)
	scopes = dropProtectedCrossers(f, lv, scopes)
	propagateDependencies(f, lv, scopes)

	byIndex := make(map[int]ScopeID)
	for _, s := range scopes {
		for i := s.Range[0]; i < s.Range[1]; i++ {
			byIndex[i] = s.ID
		}
	}
	for i := range lv.Order {
		if id, ok := byIndex[i]; ok {
			lv.Order[i].Instr.Scope = id
		}
	}
	return &ScopeResult{Scopes: scopes, ByIndex: byIndex}
}

// isTempName recognizes the lowering's synthetic temporaries.
func isTempName(name string) bool {
	if len(name) < 2 || name[0] != 't' {
		return false
	}
	for _, c := range name[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isSyntheticName(name string) bool {
	return isTempName(name) || strings.HasPrefix(name, "_m") ||
		strings.HasPrefix(name, "_iter") || strings.HasPrefix(name, "_step")
}

// inferScopes seeds one scope per user-visible value whose live range
// extends past its definition, whether or not it leaves its block.
// Temporaries, merge/iterator bindings and values never read afterwards
// stay unscoped.
func inferScopes(f *Func, lv *Liveness) []ReactiveScope {
	type cand struct {
		key   IdentKey
		r     [2]int
	}
	var cands []cand
	seen := make(map[IdentKey]bool)
	for key, r := range lv.Ranges {
		if r[1]-r[0] <= 1 {
			continue
		}
		if isSyntheticName(key.Name) || isTempName(key.Name) {
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		cands = append(cands, cand{key: key, r: r})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].r[0] != cands[j].r[0] {
			return cands[i].r[0] < cands[j].r[0]
		}
		if cands[i].key.Name != cands[j].key.Name {
			return cands[i].key.Name < cands[j].key.Name
		}
		return cands[i].key.Version < cands[j].key.Version
	})

	var scopes []ReactiveScope
	next := ScopeID(0)
	for _, c := range cands {
		scopes = append(scopes, ReactiveScope{ID: next, Range: c.r})
		next++
	}
	f.NextScope = next
	return scopes
}

// alignScopes widens every scope so it never straddles a control-flow
// region boundary: a scope overlapping part of a branch diamond or loop is
// grown to cover the whole region. Iterates to a fixed point because one
// widening can reach the next region.
func alignScopes(f *Func, lv *Liveness, scopes []ReactiveScope) []ReactiveScope {
	regions := controlRegions(f, lv)
	for changed := true; changed; {
		changed = false
		for i := range scopes {
			for _, reg := range regions {
				s := &scopes[i]
				overlaps := s.Range[0] < reg[1] && reg[0] < s.Range[1]
				contains := s.Range[0] <= reg[0] && reg[1] <= s.Range[1]
				if overlaps && !contains {
					if reg[0] < s.Range[0] {
						s.Range[0] = reg[0]
						changed = true
					}
					if reg[1] > s.Range[1] {
						s.Range[1] = reg[1]
						changed = true
					}
				}
			}
		}
	}
	return scopes
}

// controlRegions computes the linear index range of every branch diamond
// and loop.
func controlRegions(f *Func, lv *Liveness) [][2]int {
	var regions [][2]int

	// Branch diamonds: from the first branch arm to the merge block.
	for _, b := range f.Blocks {
		if b.Term.Kind == TermIf && b.Term.If.Merge != NoBlockID {
			start := regionStart(lv, b.Term.If.Then, b.Term.If.Else)
			end := lv.BlockRange[b.Term.If.Merge][0]
			if start < end {
				regions = append(regions, [2]int{start, end})
			}
		}
		if b.Term.Kind == TermSwitch && b.Term.Switch.Merge != NoBlockID {
			targets := make([]BlockID, 0, len(b.Term.Switch.Cases)+1)
			for _, c := range b.Term.Switch.Cases {
				targets = append(targets, c.Target)
			}
			targets = append(targets, b.Term.Switch.Default)
			start := regionStart(lv, targets...)
			end := lv.BlockRange[b.Term.Switch.Merge][0]
			if start < end {
				regions = append(regions, [2]int{start, end})
			}
		}
	}

	// Loops: the whole region from header to exit.
	for _, loop := range f.Loops {
		start := lv.BlockRange[loop.Header][0]
		end := lv.BlockRange[loop.Exit][0]
		if start < end {
			regions = append(regions, [2]int{start, end})
		}
	}
	return regions
}

func regionStart(lv *Liveness, blocks ...BlockID) int {
	start := -1
	for _, b := range blocks {
		r, ok := lv.BlockRange[b]
		if !ok {
			continue
		}
		if start == -1 || r[0] < start {
			start = r[0]
		}
	}
	return start
}

// mergeScopes merges scopes with intersecting ranges to a fixed point.
// Scope ranges are pairwise disjoint afterwards.
func mergeScopes(scopes []ReactiveScope) []ReactiveScope {
	if len(scopes) == 0 {
		return scopes
	}
	sort.Slice(scopes, func(i, j int) bool { return scopes[i].Range[0] < scopes[j].Range[0] })

	merged := scopes[:0]
	for _, s := range scopes {
		if len(merged) > 0 {
			last := &merged[len(merged)-1]
			if s.Range[0] < last.Range[1] {
				if s.Range[1] > last.Range[1] {
					last.Range[1] = s.Range[1]
				}
				continue
			}
		}
		merged = append(merged, s)
	}

	// Renumber densely after merging.
	for i := range merged {
		merged[i].ID = ScopeID(i)
	}
	return merged
}

// dropProtectedCrossers refuses scopes that straddle a protected-region
// boundary; scopes fully inside a try body are kept.
func dropProtectedCrossers(f *Func, lv *Liveness, scopes []ReactiveScope) []ReactiveScope {
	if len(f.TryRegions) == 0 {
		return scopes
	}
	var regions [][2]int
	for _, tr := range f.TryRegions {
		start := lv.BlockRange[tr.Body][0]
		end := lv.BlockRange[tr.Exit][0]
		if start < end {
			regions = append(regions, [2]int{start, end})
		}
	}

	kept := scopes[:0]
	for _, s := range scopes {
		crosses := false
		for _, reg := range regions {
			overlaps := s.Range[0] < reg[1] && reg[0] < s.Range[1]
			inside := reg[0] <= s.Range[0] && s.Range[1] <= reg[1]
			if overlaps && !inside {
				crosses = true
				break
			}
		}
		if !crosses {
			kept = append(kept, s)
		}
	}
	for i := range kept {
		kept[i].ID = ScopeID(i)
	}
	return kept
}

// propagateDependencies computes, for every scope, the places read inside
// its range but defined before it, and the identifiers it declares that are
// used after it.
func propagateDependencies(f *Func, lv *Liveness, scopes []ReactiveScope) {
	params := make(map[string]bool, len(f.Params))
	for _, p := range f.Params {
		params[p.Name] = true
	}

	for si := range scopes {
		s := &scopes[si]
		deps := make(map[IdentKey]bool)
		decls := make(map[IdentKey]Identifier)
		versions := make(map[string]map[int]bool)

		for idx := s.Range[0]; idx < s.Range[1] && idx < len(lv.Order); idx++ {
			in := lv.Order[idx].Instr

			key := in.Lvalue.Ident.Key()
			decls[key] = in.Lvalue.Ident
			if !isTempName(key.Name) && !isSyntheticName(key.Name) {
				if versions[key.Name] == nil {
					versions[key.Name] = make(map[int]bool)
				}
				versions[key.Name][key.Version] = true
			}

			// Constants are reactive-invariant and never become deps.
			if in.Val.Kind == ValConst {
				continue
			}
			in.Val.EachOperand(func(p *Place) {
				used := p.Ident.Key()
				defIdx, hasDef := lv.DefIndex[used]
				if !hasDef {
					// Defined nowhere: a parameter or a global. Parameters
					// are legitimate dependencies; globals are not tracked.
					if params[used.Name] && used.Version == 0 {
						deps[used] = true
					}
					return
				}
				if defIdx >= s.Range[0] {
					return
				}
				// Compile-time constants are reactive-invariant.
				if lv.Order[defIdx].Instr.Val.Kind == ValConst {
					return
				}
				deps[used] = true
			})
		}

		s.Dependencies = sortedDeps(deps, lv)
		s.Declarations = sortedDecls(decls, lv, s)
		s.Reassignments = reassigned(versions)
	}
}

func sortedDeps(deps map[IdentKey]bool, lv *Liveness) []Place {
	keys := make([]IdentKey, 0, len(deps))
	for k := range deps {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].Version < keys[j].Version
	})
	out := make([]Place, 0, len(keys))
	for _, k := range keys {
		out = append(out, Place{Ident: Identifier{Name: k.Name, Version: k.Version}, Effect: EffectRead})
	}
	return out
}

// sortedDecls keeps declarations whose value is observable beyond the scope
// — used after its range or read by a terminator. These are the scope's
// outputs and get cache slots.
func sortedDecls(decls map[IdentKey]Identifier, lv *Liveness, s *ReactiveScope) []Identifier {
	var keys []IdentKey
	for k := range decls {
		r, ok := lv.Ranges[k]
		if !ok {
			continue
		}
		if r[1] > s.Range[1] || lv.TermUses[k] {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].Version < keys[j].Version
	})
	out := make([]Identifier, 0, len(keys))
	for _, k := range keys {
		out = append(out, decls[k])
	}
	return out
}

func reassigned(versions map[string]map[int]bool) []string {
	var out []string
	for name, vs := range versions {
		if len(vs) > 1 {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
