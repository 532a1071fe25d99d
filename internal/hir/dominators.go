package hir

// DominatorTree holds immediate dominators and dominance frontiers for the
// reachable blocks of a function, computed with the iterative
// Cooper-Harvey-Kennedy algorithm over reverse post order.
type DominatorTree struct {
	// IDom maps each reachable block to its immediate dominator; the entry
	// maps to itself.
	IDom map[BlockID]BlockID
	// Frontiers maps each block to its dominance frontier.
	Frontiers map[BlockID][]BlockID

	rpoIndex map[BlockID]int
}

// ComputeDominators builds the dominator tree. Predecessors must be current
// (RecomputePreds).
func ComputeDominators(f *Func) *DominatorTree {
	rpo := f.RPO()
	rpoIndex := make(map[BlockID]int, len(rpo))
	for i, id := range rpo {
		rpoIndex[id] = i
	}

	idom := make(map[BlockID]BlockID, len(rpo))
	idom[f.Entry] = f.Entry

	intersect := func(b1, b2 BlockID) BlockID {
		i1, i2 := rpoIndex[b1], rpoIndex[b2]
		for i1 != i2 {
			for i1 > i2 {
				b1 = idom[b1]
				i1 = rpoIndex[b1]
			}
			for i2 > i1 {
				b2 = idom[b2]
				i2 = rpoIndex[b2]
			}
		}
		return b1
	}

	changed := true
	for changed {
		changed = false
		for _, b := range rpo {
			if b == f.Entry {
				continue
			}
			newIdom := NoBlockID
			for _, p := range f.Block(b).Preds {
				if _, ok := idom[p]; !ok {
					continue
				}
				if newIdom == NoBlockID {
					newIdom = p
				} else {
					newIdom = intersect(newIdom, p)
				}
			}
			if cur, ok := idom[b]; newIdom != NoBlockID && (!ok || cur != newIdom) {
				idom[b] = newIdom
				changed = true
			}
		}
	}

	// Dominance frontiers: walk each join block's predecessors up to the
	// block's immediate dominator.
	frontierSets := make(map[BlockID]map[BlockID]bool, len(rpo))
	for _, b := range rpo {
		frontierSets[b] = nil
	}
	for _, b := range rpo {
		preds := f.Block(b).Preds
		if len(preds) < 2 {
			continue
		}
		bIdom, ok := idom[b]
		if !ok {
			continue
		}
		for _, p := range preds {
			runner := p
			if _, ok := idom[runner]; !ok {
				continue
			}
			for runner != bIdom {
				if frontierSets[runner] == nil {
					frontierSets[runner] = make(map[BlockID]bool)
				}
				frontierSets[runner][b] = true
				next, ok := idom[runner]
				if !ok || next == runner {
					break
				}
				runner = next
			}
		}
	}

	frontiers := make(map[BlockID][]BlockID, len(frontierSets))
	for _, b := range rpo {
		set := frontierSets[b]
		if len(set) == 0 {
			frontiers[b] = nil
			continue
		}
		out := make([]BlockID, 0, len(set))
		for _, cand := range rpo {
			if set[cand] {
				out = append(out, cand)
			}
		}
		frontiers[b] = out
	}

	return &DominatorTree{IDom: idom, Frontiers: frontiers, rpoIndex: rpoIndex}
}

// Children returns the dominator-tree children of a block in RPO order.
func (dt *DominatorTree) Children(parent BlockID) []BlockID {
	type child struct {
		id  BlockID
		idx int
	}
	var out []child
	for b, p := range dt.IDom {
		if p == parent && b != parent {
			out = append(out, child{id: b, idx: dt.rpoIndex[b]})
		}
	}
	// Deterministic order keeps renaming and output stable.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].idx < out[j-1].idx; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	ids := make([]BlockID, len(out))
	for i, c := range out {
		ids[i] = c.id
	}
	return ids
}

// Dominates reports whether a dominates b (reflexively).
func (dt *DominatorTree) Dominates(a, b BlockID) bool {
	for {
		if a == b {
			return true
		}
		next, ok := dt.IDom[b]
		if !ok || next == b {
			return false
		}
		b = next
	}
}
