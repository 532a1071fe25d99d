package hir

// Liveness carries the results of the backward dataflow pass and the
// linearized live ranges used by reactive-scope construction.
type Liveness struct {
	// Order is the linearized instruction stream in RPO block order.
	Order []LinearInstr
	// Index maps instruction ids to their linear position.
	Index map[InstrID]int
	// Ranges maps each SSA identifier to its [def, lastUse+1) linear range,
	// widened across copy/phi aliases so a reassigned base name spans all
	// of its versions.
	Ranges map[IdentKey][2]int
	// LiveIn and LiveOut are the classic per-block live sets.
	LiveIn  map[BlockID]map[IdentKey]bool
	LiveOut map[BlockID]map[IdentKey]bool
	// Escapes marks identifiers whose value leaves the defining block:
	// used in another block or flowing through a phi.
	Escapes map[IdentKey]bool
	// DefBlock records the defining block of each identifier.
	DefBlock map[IdentKey]BlockID
	// DefIndex records the linear index of each identifier's definition.
	DefIndex map[IdentKey]int
	// TermUses marks identifiers read by any block terminator.
	TermUses map[IdentKey]bool
	// BlockRange maps each block to the [first, after-last) linear index
	// range of its instructions.
	BlockRange map[BlockID][2]int

	aliases *disjointSet
}

// LinearInstr is one instruction with its owning block.
type LinearInstr struct {
	Block BlockID
	Instr *Instr
}

// InferLiveness runs the backward dataflow and builds the merged live
// ranges.
func InferLiveness(f *Func) *Liveness {
	rpo := f.RPO()

	lv := &Liveness{
		Index:      make(map[InstrID]int),
		Ranges:     make(map[IdentKey][2]int),
		LiveIn:     make(map[BlockID]map[IdentKey]bool),
		LiveOut:    make(map[BlockID]map[IdentKey]bool),
		Escapes:    make(map[IdentKey]bool),
		DefBlock:   make(map[IdentKey]BlockID),
		DefIndex:   make(map[IdentKey]int),
		TermUses:   make(map[IdentKey]bool),
		BlockRange: make(map[BlockID][2]int),
		aliases:    newDisjointSet(),
	}

	// Linearize and record definitions.
	idx := 0
	// A reassigned identifier is one name with several SSA versions; its
	// mutable range is the union of the versions' ranges, so the versions
	// share one alias class.
	baseSeen := make(map[string]IdentKey)
	for _, blockID := range rpo {
		b := f.Block(blockID)
		start := idx
		for i := range b.Instrs {
			in := &b.Instrs[i]
			lv.Order = append(lv.Order, LinearInstr{Block: blockID, Instr: in})
			lv.Index[in.ID] = idx
			key := in.Lvalue.Ident.Key()
			lv.Ranges[key] = [2]int{idx, idx + 1}
			lv.DefBlock[key] = blockID
			lv.DefIndex[key] = idx

			name := in.Lvalue.Ident.Name
			if !isSyntheticName(name) && in.Lvalue.Ident.Version > 0 {
				if prev, ok := baseSeen[name]; ok {
					lv.aliases.union(key, prev)
				} else {
					baseSeen[name] = key
				}
			}

			// Copies and phis alias their operands with the lvalue so the
			// mutable range of a reassigned name covers all versions.
			switch in.Val.Kind {
			case ValLoadLocal:
				lv.aliases.union(key, in.Val.LoadLocal.Src.Ident.Key())
			case ValPhi:
				for _, op := range in.Val.Phi.Operands {
					lv.aliases.union(key, op.Src.Ident.Key())
				}
			}
			idx++
		}
		lv.BlockRange[blockID] = [2]int{start, idx}
	}

	// Mark uses and escapes.
	for pos, li := range lv.Order {
		blockID := li.Block
		isPhi := li.Instr.IsPhi()
		li.Instr.Val.EachOperand(func(p *Place) {
			key := p.Ident.Key()
			if r, ok := lv.Ranges[key]; ok {
				if pos+1 > r[1] {
					r[1] = pos + 1
					lv.Ranges[key] = r
				}
				if lv.DefBlock[key] != blockID || isPhi {
					lv.Escapes[key] = true
				}
			}
		})
	}
	for _, blockID := range rpo {
		b := f.Block(blockID)
		end := lv.BlockRange[blockID][1]
		b.Term.EachOperand(func(p *Place) {
			key := p.Ident.Key()
			lv.TermUses[key] = true
			if r, ok := lv.Ranges[key]; ok {
				if end > r[1] {
					r[1] = end
					lv.Ranges[key] = r
				}
			}
		})
	}

	lv.dataflow(f, rpo)
	lv.mergeAliasRanges()
	return lv
}

// dataflow computes live-in/live-out per block by worklist iteration:
// liveIn = use ∪ (liveOut \ def), liveOut = ∪ liveIn(succ).
func (lv *Liveness) dataflow(f *Func, rpo []BlockID) {
	use := make(map[BlockID]map[IdentKey]bool)
	def := make(map[BlockID]map[IdentKey]bool)
	for _, blockID := range rpo {
		b := f.Block(blockID)
		u := make(map[IdentKey]bool)
		d := make(map[IdentKey]bool)
		for i := range b.Instrs {
			in := &b.Instrs[i]
			in.Val.EachOperand(func(p *Place) {
				key := p.Ident.Key()
				if !d[key] {
					u[key] = true
				}
			})
			d[in.Lvalue.Ident.Key()] = true
		}
		b.Term.EachOperand(func(p *Place) {
			key := p.Ident.Key()
			if !d[key] {
				u[key] = true
			}
		})
		use[blockID] = u
		def[blockID] = d
		lv.LiveIn[blockID] = make(map[IdentKey]bool)
		lv.LiveOut[blockID] = make(map[IdentKey]bool)
	}

	worklist := make([]BlockID, len(rpo))
	copy(worklist, rpo)
	inWorklist := make(map[BlockID]bool, len(rpo))
	for _, b := range rpo {
		inWorklist[b] = true
	}

	for len(worklist) > 0 {
		blockID := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		inWorklist[blockID] = false

		b := f.Block(blockID)
		out := make(map[IdentKey]bool)
		for _, succ := range b.Successors() {
			for k := range lv.LiveIn[succ] {
				out[k] = true
			}
		}
		in := make(map[IdentKey]bool, len(use[blockID]))
		for k := range use[blockID] {
			in[k] = true
		}
		for k := range out {
			if !def[blockID][k] {
				in[k] = true
			}
		}

		lv.LiveOut[blockID] = out
		if !sameSet(in, lv.LiveIn[blockID]) {
			lv.LiveIn[blockID] = in
			for _, pred := range b.Preds {
				if !inWorklist[pred] {
					inWorklist[pred] = true
					worklist = append(worklist, pred)
				}
			}
		}
	}
}

func sameSet(a, b map[IdentKey]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// mergeAliasRanges unions the ranges of aliased identifiers so every member
// carries the full extent.
func (lv *Liveness) mergeAliasRanges() {
	merged := make(map[IdentKey][2]int)
	for key, r := range lv.Ranges {
		root := lv.aliases.find(key)
		if m, ok := merged[root]; ok {
			if r[0] < m[0] {
				m[0] = r[0]
			}
			if r[1] > m[1] {
				m[1] = r[1]
			}
			merged[root] = m
		} else {
			merged[root] = r
		}
	}
	for key := range lv.Ranges {
		root := lv.aliases.find(key)
		lv.Ranges[key] = merged[root]
	}
}

// Alias reports whether two identifiers share a value chain (copy or phi).
func (lv *Liveness) Alias(a, b IdentKey) bool {
	return lv.aliases.find(a) == lv.aliases.find(b)
}

// disjointSet is a union-find over identifier keys.
type disjointSet struct {
	parents map[IdentKey]IdentKey
}

func newDisjointSet() *disjointSet {
	return &disjointSet{parents: make(map[IdentKey]IdentKey)}
}

func (ds *disjointSet) find(k IdentKey) IdentKey {
	parent, ok := ds.parents[k]
	if !ok {
		ds.parents[k] = k
		return k
	}
	if parent == k {
		return k
	}
	root := ds.find(parent)
	ds.parents[k] = root
	return root
}

func (ds *disjointSet) union(a, b IdentKey) {
	ra, rb := ds.find(a), ds.find(b)
	if ra != rb {
		ds.parents[ra] = rb
	}
}
