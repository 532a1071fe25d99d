package hir

import (
	"sort"
)

// EnterSSA rewrites the function into SSA form: phi placement on iterated
// dominance frontiers of every stored binding, then a renaming walk over
// the dominator tree. StoreLocal instructions become versioned copy
// definitions; LoadLocal uses are rewritten to the reaching version.
func EnterSSA(f *Func) *DominatorTree {
	f.RecomputePreds()
	dt := ComputeDominators(f)

	// Collect bindings and their defining blocks. Only StoreLocal targets
	// participate; temporaries are single-definition already.
	defBlocks := make(map[string]map[BlockID]bool)
	mutable := make(map[string]bool)
	var names []string
	for _, b := range f.Blocks {
		for i := range b.Instrs {
			in := &b.Instrs[i]
			if in.Val.Kind != ValStoreLocal {
				continue
			}
			name := in.Val.StoreLocal.Target.Ident.Name
			if defBlocks[name] == nil {
				defBlocks[name] = make(map[BlockID]bool)
				names = append(names, name)
			}
			defBlocks[name][b.ID] = true
			if in.Val.StoreLocal.Target.Ident.Mutable {
				mutable[name] = true
			}
		}
	}
	sort.Strings(names)

	// Phi placement over the iterated dominance frontier.
	type phiSlot struct {
		name string
		id   InstrID
	}
	placements := make(map[BlockID][]phiSlot)
	for _, name := range names {
		worklist := make([]BlockID, 0, len(defBlocks[name]))
		for b := range defBlocks[name] {
			worklist = append(worklist, b)
		}
		sort.Slice(worklist, func(i, j int) bool { return worklist[i] < worklist[j] })

		hasPhi := make(map[BlockID]bool)
		queued := make(map[BlockID]bool)
		for len(worklist) > 0 {
			b := worklist[len(worklist)-1]
			worklist = worklist[:len(worklist)-1]
			for _, d := range dt.Frontiers[b] {
				if hasPhi[d] {
					continue
				}
				hasPhi[d] = true
				placements[d] = append(placements[d], phiSlot{name: name, id: f.NextInstr})
				f.NextInstr++
				if !queued[d] {
					queued[d] = true
					worklist = append(worklist, d)
				}
			}
		}
	}

	for blockID, slots := range placements {
		b := f.Block(blockID)
		phis := make([]Instr, 0, len(slots))
		for _, slot := range slots {
			phis = append(phis, Instr{
				ID:     slot.id,
				Lvalue: Place{Ident: Identifier{Name: slot.name, Mutable: mutable[slot.name]}, Effect: EffectStore},
				Val:    Value{Kind: ValPhi},
				Scope:  NoScopeID,
			})
		}
		b.Instrs = append(phis, b.Instrs...)
	}

	// Renaming.
	rn := &renamer{
		f:        f,
		dt:       dt,
		stacks:   make(map[string][]int),
		counters: make(map[string]int),
	}
	for _, name := range names {
		// Version 0 is the entry value: a parameter or `undefined`.
		rn.stacks[name] = []int{0}
		rn.counters[name] = 1
	}
	rn.renameBlock(f.Entry)

	return dt
}

type renamer struct {
	f        *Func
	dt       *DominatorTree
	stacks   map[string][]int
	counters map[string]int
}

func (rn *renamer) tracked(name string) bool {
	_, ok := rn.stacks[name]
	return ok
}

func (rn *renamer) current(name string) int {
	s := rn.stacks[name]
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

func (rn *renamer) newVersion(name string) int {
	v := rn.counters[name]
	rn.counters[name] = v + 1
	rn.stacks[name] = append(rn.stacks[name], v)
	return v
}

func (rn *renamer) renameBlock(blockID BlockID) {
	b := rn.f.Block(blockID)
	var pushed []string

	for i := range b.Instrs {
		in := &b.Instrs[i]
		switch in.Val.Kind {
		case ValPhi:
			name := in.Lvalue.Ident.Name
			if rn.tracked(name) {
				in.Lvalue.Ident.Version = rn.newVersion(name)
				pushed = append(pushed, name)
			}
		case ValLoadLocal:
			name := in.Val.LoadLocal.Src.Ident.Name
			if rn.tracked(name) {
				in.Val.LoadLocal.Src.Ident.Version = rn.current(name)
			}
		case ValStoreLocal:
			// `x = value` becomes the copy definition `x_v = value`.
			target := in.Val.StoreLocal.Target
			value := in.Val.StoreLocal.Value
			name := target.Ident.Name
			version := rn.newVersion(name)
			in.Lvalue = Place{
				Ident: Identifier{
					Name:    name,
					ID:      target.Ident.ID,
					Version: version,
					Mutable: target.Ident.Mutable,
				},
				Effect: EffectStore,
			}
			in.Val = Value{Kind: ValLoadLocal, LoadLocal: LoadLocalValue{Src: value}}
			pushed = append(pushed, name)
		}
	}

	// Fill phi operands in successors with the versions reaching this exit.
	for _, succID := range b.Successors() {
		succ := rn.f.Block(succID)
		if succ == nil {
			continue
		}
		for i := range succ.Instrs {
			in := &succ.Instrs[i]
			if in.Val.Kind != ValPhi {
				break // phis sit at the head of the block
			}
			name := in.Lvalue.Ident.Name
			if !rn.tracked(name) {
				continue
			}
			in.Val.Phi.Operands = append(in.Val.Phi.Operands, PhiOperand{
				Pred: blockID,
				Src: Place{
					Ident:  Identifier{Name: name, Version: rn.current(name)},
					Effect: EffectRead,
				},
			})
		}
	}

	for _, child := range rn.dt.Children(blockID) {
		rn.renameBlock(child)
	}

	for _, name := range pushed {
		s := rn.stacks[name]
		rn.stacks[name] = s[:len(s)-1]
	}
}

// EliminateRedundantPhis removes phis whose incoming values are pairwise
// identical (or identical modulo the phi itself) and substitutes their uses
// with the surviving operand. Iterates to a fixed point.
func EliminateRedundantPhis(f *Func) {
	for {
		subst := make(map[IdentKey]IdentKey)
		for _, b := range f.Blocks {
			kept := b.Instrs[:0]
			for i := range b.Instrs {
				in := b.Instrs[i]
				if in.Val.Kind == ValPhi {
					if survivor, ok := redundantPhi(&in); ok {
						subst[in.Lvalue.Ident.Key()] = survivor
						continue
					}
				}
				kept = append(kept, in)
			}
			b.Instrs = kept
		}
		if len(subst) == 0 {
			return
		}
		resolve := func(k IdentKey) IdentKey {
			for {
				next, ok := subst[k]
				if !ok {
					return k
				}
				k = next
			}
		}
		for _, b := range f.Blocks {
			for i := range b.Instrs {
				b.Instrs[i].Val.EachOperand(func(p *Place) {
					r := resolve(p.Ident.Key())
					p.Ident.Name = r.Name
					p.Ident.Version = r.Version
				})
			}
			b.Term.EachOperand(func(p *Place) {
				r := resolve(p.Ident.Key())
				p.Ident.Name = r.Name
				p.Ident.Version = r.Version
			})
		}
	}
}

func redundantPhi(in *Instr) (IdentKey, bool) {
	self := in.Lvalue.Ident.Key()
	found := false
	var survivor IdentKey
	for _, op := range in.Val.Phi.Operands {
		k := op.Src.Ident.Key()
		if k == self {
			continue
		}
		if !found {
			survivor = k
			found = true
		} else if survivor != k {
			return IdentKey{}, false
		}
	}
	if !found {
		return IdentKey{}, false
	}
	return survivor, true
}
