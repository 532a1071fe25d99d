package reactive

import (
	"fmt"

	"memoc/internal/hir"
)

// BuildError reports a tree that cannot be serialized, e.g. an orphan region.
type BuildError struct {
	Block hir.BlockID
	Msg   string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("bb%d: %s", e.Block, e.Msg)
}

// Build reconstructs the structured tree from the annotated CFG.
func Build(f *hir.Func, scopes *hir.ScopeResult) (*Function, error) {
	b := &builder{
		f:      f,
		scopes: scopes,
		loops:  make(map[hir.BlockID]hir.LoopRegion),
		tries:  make(map[hir.BlockID]hir.TryRegion),
	}
	for _, loop := range f.Loops {
		b.loops[loop.Header] = loop
	}
	for _, tr := range f.TryRegions {
		b.tries[tr.Body] = tr
	}

	body, err := b.walk(f.Entry, hir.NoBlockID, hir.NoBlockID)
	if err != nil {
		return nil, err
	}
	body = wrapScopes(body, scopes)

	return &Function{
		Name:   f.Name,
		Params: f.Params,
		Body:   body,
		Scopes: scopes,
	}, nil
}

type loopCtx struct {
	header         hir.BlockID
	breakTarget    hir.BlockID
	continueTarget hir.BlockID
	// labelName is assigned when a jump from an inner frame targets this
	// construct and so must name it.
	labelName *string
}

type builder struct {
	f      *hir.Func
	scopes *hir.ScopeResult
	loops  map[hir.BlockID]hir.LoopRegion
	tries  map[hir.BlockID]hir.TryRegion

	loopStack []loopCtx
}

// walk builds nodes from `id` until it reaches `stop`, a loop boundary, or a
// region-closing terminator. `prev` is the incoming predecessor, used to
// materialize phi operands as explicit stores.
func (b *builder) walk(id, stop, prev hir.BlockID) ([]Node, error) {
	var out []Node

	for {
		if id == stop {
			return out, nil
		}
		block := b.f.Block(id)
		if block == nil {
			return nil, &BuildError{Block: id, Msg: "terminator target does not exist"}
		}

		if prev != hir.NoBlockID {
			out = append(out, phiStores(block, prev)...)
		}

		// Loop header: wrap the region in a While node. Phi stores for the
		// exit block are emitted on the break edges inside the loop.
		if b.f.LoopHeaders[id] && !b.inLoop(id) {
			nodes, exit, err := b.buildLoop(id)
			if err != nil {
				return nil, err
			}
			out = append(out, nodes...)
			if exit == stop {
				return out, nil
			}
			id, prev = exit, hir.NoBlockID
			continue
		}

		// Protected region entry.
		if tr, ok := b.tries[id]; ok && id == tr.Body {
			delete(b.tries, id) // the region renders once
			node, err := b.buildTry(tr, prev)
			if err != nil {
				return nil, err
			}
			out = append(out, node)
			id, prev = tr.Exit, hir.NoBlockID
			continue
		}

		for i := range block.Instrs {
			if block.Instrs[i].IsPhi() {
				continue
			}
			out = append(out, &InstrNode{Instr: block.Instrs[i]})
		}

		switch block.Term.Kind {
		case hir.TermReturn:
			out = append(out, &ReturnNode{
				HasValue: block.Term.Return.HasValue,
				Value:    block.Term.Return.Value,
			})
			return out, nil

		case hir.TermThrow:
			out = append(out, &ThrowNode{Value: block.Term.Throw.Value})
			return out, nil

		case hir.TermGoto:
			target := block.Term.Goto.Target
			if nodes, done := b.loopEdge(block.ID, target); done {
				return append(out, nodes...), nil
			}
			if target == stop {
				tb := b.f.Block(target)
				return append(out, phiStores(tb, block.ID)...), nil
			}
			id, prev = target, block.ID
			continue

		case hir.TermIf:
			term := block.Term.If
			if term.Merge == hir.NoBlockID {
				// A latch-style conditional jump: both arms leave the
				// region through loop edges (or short tail walks).
				thenNodes, err := b.edgeOrWalk(term.Then, block.ID, stop)
				if err != nil {
					return nil, err
				}
				elseNodes, err := b.edgeOrWalk(term.Else, block.ID, stop)
				if err != nil {
					return nil, err
				}
				out = append(out, &IfNode{Test: term.Test, Then: thenNodes, Else: elseNodes})
				return out, nil
			}
			thenNodes, err := b.walk(term.Then, term.Merge, block.ID)
			if err != nil {
				return nil, err
			}
			elseNodes, err := b.walk(term.Else, term.Merge, block.ID)
			if err != nil {
				return nil, err
			}
			out = append(out, &IfNode{Test: term.Test, Then: thenNodes, Else: elseNodes})
			if term.Merge == stop {
				return out, nil
			}
			id, prev = term.Merge, hir.NoBlockID
			continue

		case hir.TermSwitch:
			node, err := b.buildSwitch(block)
			if err != nil {
				return nil, err
			}
			out = append(out, node)
			merge := block.Term.Switch.Merge
			if merge == stop {
				return out, nil
			}
			id, prev = merge, hir.NoBlockID
			continue

		default:
			return nil, &BuildError{Block: id, Msg: "unterminated block reached during reconstruction"}
		}
	}
}

// edgeOrWalk resolves a conditional-jump arm: loop edges become
// break/continue, anything else is walked as a tail.
func (b *builder) edgeOrWalk(target, from, stop hir.BlockID) ([]Node, error) {
	if nodes, done := b.loopEdge(from, target); done {
		return nodes, nil
	}
	if target == stop {
		return phiStores(b.f.Block(target), from), nil
	}
	return b.walk(target, stop, from)
}

func (b *builder) inLoop(header hir.BlockID) bool {
	for _, ctx := range b.loopStack {
		if ctx.header == header {
			return true
		}
	}
	return false
}

// loopEdge classifies a goto against the loop stack: back-edges become
// Continue, exit edges become Break. Phi stores for the target block are
// emitted before the jump.
func (b *builder) loopEdge(from, target hir.BlockID) ([]Node, bool) {
	for i := len(b.loopStack) - 1; i >= 0; i-- {
		ctx := b.loopStack[i]
		if target == ctx.continueTarget {
			nodes := phiStores(b.f.Block(target), from)
			return append(nodes, &ContinueNode{Label: b.jumpLabel(i)}), true
		}
		if target == ctx.breakTarget {
			nodes := phiStores(b.f.Block(target), from)
			return append(nodes, &BreakNode{Label: b.jumpLabel(i)}), true
		}
	}
	return nil, false
}

// jumpLabel names the targeted construct when the jump crosses inner loop
// or switch frames; innermost jumps stay unlabeled.
func (b *builder) jumpLabel(idx int) string {
	if idx == len(b.loopStack)-1 {
		return ""
	}
	ctx := b.loopStack[idx]
	if *ctx.labelName == "" {
		*ctx.labelName = fmt.Sprintf("L%d", idx)
	}
	return *ctx.labelName
}

// buildLoop renders a loop region as `while (true) { ... }`: the header's
// test branch becomes an if whose exit arm breaks, back-edges become
// continue. One walk handles every header shape (while tests, for-in done
// tests, do-while bodies).
func (b *builder) buildLoop(header hir.BlockID) ([]Node, hir.BlockID, error) {
	region, ok := b.loops[header]
	if !ok {
		return nil, hir.NoBlockID, &BuildError{Block: header, Msg: "back-edge to unknown loop header"}
	}

	label := new(string)
	b.loopStack = append(b.loopStack, loopCtx{
		header:         header,
		breakTarget:    region.Exit,
		continueTarget: header,
		labelName:      label,
	})
	defer func() { b.loopStack = b.loopStack[:len(b.loopStack)-1] }()

	// With the loop context pushed, the header walks like any block: the
	// back-edge resolves to continue and the exit edge to break.
	body, err := b.walk(header, hir.NoBlockID, hir.NoBlockID)
	if err != nil {
		return nil, hir.NoBlockID, err
	}
	return []Node{&WhileNode{Body: body, Label: *label}}, region.Exit, nil
}

// buildSwitch renders the case chain. Fall-through is preserved by stopping
// each case body at the next case block without emitting a break.
func (b *builder) buildSwitch(block *hir.Block) (Node, error) {
	term := block.Term.Switch
	label := new(string)
	b.loopStack = append(b.loopStack, loopCtx{
		header:         hir.NoBlockID,
		breakTarget:    term.Merge,
		continueTarget: hir.NoBlockID,
		labelName:      label,
	})
	defer func() { b.loopStack = b.loopStack[:len(b.loopStack)-1] }()

	// Case bodies in syntactic order: block ids ascend in lowering order,
	// and the default sits at its syntactic position.
	type caseRef struct {
		value *hir.Place
		block hir.BlockID
	}
	refs := make([]caseRef, 0, len(term.Cases)+1)
	for i := range term.Cases {
		v := term.Cases[i].Value
		refs = append(refs, caseRef{value: &v, block: term.Cases[i].Target})
	}
	if term.Default != term.Merge {
		refs = append(refs, caseRef{value: nil, block: term.Default})
	}
	for i := 1; i < len(refs); i++ {
		for j := i; j > 0 && refs[j].block < refs[j-1].block; j-- {
			refs[j], refs[j-1] = refs[j-1], refs[j]
		}
	}

	node := &SwitchNode{Disc: term.Disc}
	defer func() { node.Label = *label }()
	for i, ref := range refs {
		next := term.Merge
		if i+1 < len(refs) {
			next = refs[i+1].block
		}
		body, err := b.walk(ref.block, next, block.ID)
		if err != nil {
			return nil, err
		}
		node.Cases = append(node.Cases, SwitchCase{Value: ref.value, Body: body})
	}
	return node, nil
}

func (b *builder) buildTry(tr hir.TryRegion, prev hir.BlockID) (Node, error) {
	body, err := b.walk(tr.Body, tr.Exit, prev)
	if err != nil {
		return nil, err
	}
	node := &TryNode{Body: body, CatchName: tr.CatchName}
	if tr.Handler != hir.NoBlockID {
		node.HasCatch = true
		catch, err := b.walk(tr.Handler, tr.Exit, hir.NoBlockID)
		if err != nil {
			return nil, err
		}
		node.Catch = catch
	}
	return node, nil
}

// phiStores materializes the phi operands flowing along the prev→block edge
// as explicit copy instructions.
func phiStores(block *hir.Block, prev hir.BlockID) []Node {
	if block == nil {
		return nil
	}
	var out []Node
	for i := range block.Instrs {
		in := &block.Instrs[i]
		if !in.IsPhi() {
			break
		}
		for _, op := range in.Val.Phi.Operands {
			if op.Pred != prev {
				continue
			}
			// Skip self-copies.
			if op.Src.Ident.Key() == in.Lvalue.Ident.Key() {
				continue
			}
			out = append(out, &InstrNode{Instr: hir.Instr{
				ID:     in.ID,
				Lvalue: in.Lvalue,
				Val: hir.Value{
					Kind:      hir.ValLoadLocal,
					LoadLocal: hir.LoadLocalValue{Src: op.Src},
				},
				Span:  in.Span,
				Scope: in.Scope,
			}})
		}
	}
	return out
}
