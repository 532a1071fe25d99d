package hir

import (
	"fmt"

	"memoc/internal/ast"
	"memoc/internal/source"
)

// UnsupportedError reports a surface construct the lowering does not cover.
type UnsupportedError struct {
	Construct string
	Span      source.Span
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported syntax: %s", e.Construct)
}

// LoopRegion records the canonical blocks of one lowered loop.
type LoopRegion struct {
	Header BlockID
	Latch  BlockID // NoBlockID when the loop has no update block
	Exit   BlockID
}

// loopInfo is one entry of the lowering loop stack. Switches push an entry
// with continueTarget == NoBlockID so `continue` skips them.
type loopInfo struct {
	breakTarget    BlockID
	continueTarget BlockID
	label          string
	finalizerDepth int
}

// lowerer builds a Func from one surface function.
type lowerer struct {
	fn      *Func
	current BlockID

	loopStack []loopInfo
	// finalizers holds the active finally blocks, innermost last; break,
	// continue and return duplicate them on their exit paths.
	finalizers []*ast.BlockStmt
	// handler is the catch block protecting newly created blocks, or
	// NoBlockID outside try regions.
	handler BlockID

	// idents assigns a stable pre-SSA id per user-visible base name.
	idents  map[string]IdentID
	mutable map[string]bool
	nextID  IdentID

	pendingLabel string
	err          error
}

// Lower converts one parsed function into HIR CFG form.
func Lower(astFn *ast.Function) (*Func, error) {
	lw := &lowerer{
		fn: &Func{
			Name:        astFn.Name,
			Span:        astFn.Sp,
			LoopHeaders: make(map[BlockID]bool),
		},
		handler: NoBlockID,
		idents:  make(map[string]IdentID),
		mutable: make(map[string]bool),
	}

	entry := lw.fn.NewBlock(BlockEntry)
	lw.fn.Entry = entry.ID
	lw.current = entry.ID

	lw.lowerParams(astFn)

	if astFn.ExprBody != nil {
		value := lw.lowerExpr(astFn.ExprBody)
		lw.terminate(Terminator{Kind: TermReturn, Return: ReturnTerm{HasValue: true, Value: value.asRead()}})
	} else {
		for _, stmt := range astFn.Body {
			lw.lowerStmt(stmt)
		}
	}

	lw.seal()
	lw.fn.RecomputePreds()

	if lw.err != nil {
		return nil, lw.err
	}
	return lw.fn, nil
}

func (lw *lowerer) lowerParams(astFn *ast.Function) {
	for i, param := range astFn.Params {
		if ip, ok := param.Target.(*ast.IdentPat); ok {
			id := lw.identFor(ip.Name)
			lw.fn.Params = append(lw.fn.Params, id)
			if param.Default != nil {
				cur := lw.push(Value{Kind: ValLoadLocal, LoadLocal: LoadLocalValue{Src: lw.readPlace(ip.Name)}}, ip.Sp)
				def := lw.lowerDefaulted(cur, param.Default, ip.Sp)
				lw.storeLocal(ip.Name, def, ip.Sp)
			}
			continue
		}
		// Destructured parameter: bind a synthetic name, then expand.
		name := fmt.Sprintf("_param%d", i)
		id := lw.identFor(name)
		lw.fn.Params = append(lw.fn.Params, id)
		src := lw.push(Value{Kind: ValLoadLocal, LoadLocal: LoadLocalValue{Src: lw.readPlace(name)}}, param.Target.Span())
		lw.lowerPattern(param.Target, src, param.Default)
	}
}

// seal gives every unterminated block an implicit `return` so the CFG is
// fully terminated even past early returns.
func (lw *lowerer) seal() {
	for _, b := range lw.fn.Blocks {
		if !b.Terminated() {
			b.Term = Terminator{Kind: TermReturn}
		}
	}
}

func (lw *lowerer) unsupported(construct string, sp source.Span) Place {
	if lw.err == nil {
		lw.err = &UnsupportedError{Construct: construct, Span: sp}
	}
	return lw.newTemp()
}

// identFor returns the stable identifier for a user-visible name,
// registering it on first use.
func (lw *lowerer) identFor(name string) Identifier {
	id, ok := lw.idents[name]
	if !ok {
		id = lw.nextID
		lw.nextID++
		lw.idents[name] = id
	}
	return Identifier{Name: name, ID: id, Mutable: lw.mutable[name]}
}

func (lw *lowerer) declare(name string, mutable bool) {
	lw.mutable[name] = mutable
	lw.identFor(name)
}

func (lw *lowerer) readPlace(name string) Place {
	return Place{Ident: lw.identFor(name), Effect: EffectRead}
}

func (lw *lowerer) storePlace(name string) Place {
	return Place{Ident: lw.identFor(name), Effect: EffectStore}
}

// newTemp allocates a fresh temporary place without emitting an instruction.
func (lw *lowerer) newTemp() Place {
	n := lw.fn.NextTemp
	lw.fn.NextTemp++
	id := lw.nextID
	lw.nextID++
	return Place{
		Ident:  Identifier{Name: fmt.Sprintf("t%d", n), ID: id},
		Effect: EffectRead,
	}
}

// push appends `temp = value` to the current block and returns the temp.
func (lw *lowerer) push(v Value, sp source.Span) Place {
	temp := lw.newTemp()
	lw.pushTo(temp, v, sp)
	return temp
}

func (lw *lowerer) pushTo(lvalue Place, v Value, sp source.Span) {
	b := lw.fn.Block(lw.current)
	b.Instrs = append(b.Instrs, Instr{
		ID:     lw.fn.NextInstr,
		Lvalue: lvalue,
		Val:    v,
		Span:   sp,
		Scope:  NoScopeID,
	})
	lw.fn.NextInstr++
}

// storeLocal emits `name = value`.
func (lw *lowerer) storeLocal(name string, value Place, sp source.Span) {
	lw.push(Value{
		Kind:       ValStoreLocal,
		StoreLocal: StoreLocalValue{Target: lw.storePlace(name), Value: value.asRead()},
	}, sp)
}

// pushConst emits a constant and returns its temp.
func (lw *lowerer) pushConst(c Const, sp source.Span) Place {
	return lw.push(Value{Kind: ValConst, Const: c}, sp)
}

func (p Place) asRead() Place {
	p.Effect = EffectRead
	return p
}

// newBlock creates a block inheriting the active exception handler.
func (lw *lowerer) newBlock(kind BlockKind) BlockID {
	b := lw.fn.NewBlock(kind)
	b.Handler = lw.handler
	return b.ID
}

func (lw *lowerer) startBlock(id BlockID) {
	lw.current = id
}

func (lw *lowerer) terminated(id BlockID) bool {
	return lw.fn.Block(id).Terminated()
}

// terminate seals the current block and starts a fresh one, mirroring
// straight-line lowering past returns and jumps. The fresh block may stay
// unreachable; seal() closes it at the end.
func (lw *lowerer) terminate(term Terminator) {
	b := lw.fn.Block(lw.current)
	if b.Terminated() {
		return
	}
	b.Term = term
	next := lw.newBlock(BlockBody)
	lw.startBlock(next)
}

func (lw *lowerer) gotoBlock(target BlockID) {
	lw.terminate(Terminator{Kind: TermGoto, Goto: GotoTerm{Target: target}})
}

func (lw *lowerer) startLoop(header, breakTarget, continueTarget BlockID) {
	lw.loopStack = append(lw.loopStack, loopInfo{
		breakTarget:    breakTarget,
		continueTarget: continueTarget,
		label:          lw.pendingLabel,
		finalizerDepth: len(lw.finalizers),
	})
	lw.pendingLabel = ""
	if header != NoBlockID {
		lw.fn.LoopHeaders[header] = true
	}
}

func (lw *lowerer) endLoop() {
	lw.loopStack = lw.loopStack[:len(lw.loopStack)-1]
}
