package hir

import (
	"memoc/internal/ast"
	"memoc/internal/source"
)

func (lw *lowerer) lowerStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		lw.lowerVarDecl(s)
	case *ast.ExprStmt:
		lw.lowerExpr(s.X)
	case *ast.BlockStmt:
		for _, inner := range s.Stmts {
			lw.lowerStmt(inner)
		}
	case *ast.IfStmt:
		lw.lowerIf(s)
	case *ast.WhileStmt:
		lw.lowerWhile(s)
	case *ast.DoWhileStmt:
		lw.lowerDoWhile(s)
	case *ast.ForStmt:
		lw.lowerFor(s)
	case *ast.ForInStmt:
		lw.lowerForIn(s)
	case *ast.SwitchStmt:
		lw.lowerSwitch(s)
	case *ast.BreakStmt:
		lw.lowerBreak(s)
	case *ast.ContinueStmt:
		lw.lowerContinue(s)
	case *ast.ReturnStmt:
		lw.lowerReturn(s)
	case *ast.ThrowStmt:
		value := lw.lowerExpr(s.Value)
		lw.terminate(Terminator{Kind: TermThrow, Throw: ThrowTerm{Value: value.asRead()}})
	case *ast.TryStmt:
		lw.lowerTry(s)
	case *ast.LabeledStmt:
		lw.pendingLabel = s.Label
		lw.lowerStmt(s.Stmt)
		lw.pendingLabel = ""
	case *ast.FunctionDecl:
		// A nested declaration binds the function value to its name.
		fnPlace := lw.lowerFunctionValue(s.Fn)
		lw.declare(s.Fn.Name, false)
		lw.storeLocal(s.Fn.Name, fnPlace, s.Fn.Sp)
	case *ast.EmptyStmt:
	default:
		lw.unsupported("statement", stmt.Span())
	}
}

func (lw *lowerer) lowerVarDecl(decl *ast.VarDecl) {
	mutable := decl.Kind != ast.DeclConst
	for _, d := range decl.Decls {
		if d.Init == nil {
			if ip, ok := d.Target.(*ast.IdentPat); ok {
				lw.declare(ip.Name, mutable)
				undef := lw.pushConst(Const{Kind: ConstUndefined}, ip.Sp)
				lw.storeLocal(ip.Name, undef, ip.Sp)
				continue
			}
			lw.unsupported("destructuring declaration without initializer", d.Target.Span())
			continue
		}
		value := lw.lowerExpr(d.Init)
		lw.declarePatternNames(d.Target, mutable)
		lw.lowerPattern(d.Target, value, nil)
	}
}

func (lw *lowerer) declarePatternNames(pat ast.Pattern, mutable bool) {
	switch p := pat.(type) {
	case *ast.IdentPat:
		lw.declare(p.Name, mutable)
	case *ast.ArrayPat:
		for _, e := range p.Elems {
			if e.Target != nil {
				lw.declarePatternNames(e.Target, mutable)
			}
		}
	case *ast.ObjectPat:
		for _, prop := range p.Props {
			lw.declarePatternNames(prop.Target, mutable)
		}
		if p.Rest != nil {
			lw.declare(p.Rest.Name, mutable)
		}
	}
}

func (lw *lowerer) lowerIf(s *ast.IfStmt) {
	test := lw.lowerExpr(s.Test)

	thenBlock := lw.newBlock(BlockBody)
	elseBlock := lw.newBlock(BlockBody)
	mergeBlock := lw.newBlock(BlockMerge)

	lw.terminate(Terminator{Kind: TermIf, If: IfTerm{
		Test: test.asRead(), Then: thenBlock, Else: elseBlock, Merge: mergeBlock,
	}})

	lw.startBlock(thenBlock)
	lw.lowerStmt(s.Then)
	lw.gotoBlock(mergeBlock)

	lw.startBlock(elseBlock)
	if s.Else != nil {
		lw.lowerStmt(s.Else)
	}
	lw.gotoBlock(mergeBlock)

	lw.startBlock(mergeBlock)
}

func (lw *lowerer) lowerWhile(s *ast.WhileStmt) {
	header := lw.newBlock(BlockLoopHeader)
	body := lw.newBlock(BlockBody)
	exit := lw.newBlock(BlockMerge)

	lw.gotoBlock(header)

	lw.startBlock(header)
	test := lw.lowerExpr(s.Test)
	lw.terminate(Terminator{Kind: TermIf, If: IfTerm{
		Test: test.asRead(), Then: body, Else: exit, Merge: NoBlockID,
	}})

	lw.startBlock(body)
	lw.startLoop(header, exit, header)
	lw.lowerStmt(s.Body)
	lw.endLoop()
	lw.gotoBlock(header)

	lw.fn.Loops = append(lw.fn.Loops, LoopRegion{Header: header, Latch: NoBlockID, Exit: exit})
	lw.startBlock(exit)
}

func (lw *lowerer) lowerDoWhile(s *ast.DoWhileStmt) {
	body := lw.newBlock(BlockBody)
	test := lw.newBlock(BlockLoopLatch)
	exit := lw.newBlock(BlockMerge)

	lw.gotoBlock(body)

	lw.startBlock(body)
	lw.fn.LoopHeaders[body] = true
	lw.startLoop(body, exit, test)
	lw.lowerStmt(s.Body)
	lw.endLoop()
	lw.gotoBlock(test)

	lw.startBlock(test)
	cond := lw.lowerExpr(s.Test)
	lw.terminate(Terminator{Kind: TermIf, If: IfTerm{
		Test: cond.asRead(), Then: body, Else: exit, Merge: NoBlockID,
	}})

	lw.fn.Loops = append(lw.fn.Loops, LoopRegion{Header: body, Latch: test, Exit: exit})
	lw.startBlock(exit)
}

func (lw *lowerer) lowerFor(s *ast.ForStmt) {
	if s.Init != nil {
		lw.lowerStmt(s.Init)
	}

	header := lw.newBlock(BlockLoopHeader)
	body := lw.newBlock(BlockBody)
	latch := lw.newBlock(BlockLoopLatch)
	exit := lw.newBlock(BlockMerge)

	lw.gotoBlock(header)

	lw.startBlock(header)
	var test Place
	if s.Test != nil {
		test = lw.lowerExpr(s.Test)
	} else {
		test = lw.pushConst(Const{Kind: ConstBool, BoolValue: true}, s.Sp)
	}
	lw.terminate(Terminator{Kind: TermIf, If: IfTerm{
		Test: test.asRead(), Then: body, Else: exit, Merge: NoBlockID,
	}})

	lw.startBlock(body)
	lw.startLoop(header, exit, latch)
	lw.lowerStmt(s.Body)
	lw.endLoop()
	lw.gotoBlock(latch)

	lw.startBlock(latch)
	if s.Update != nil {
		lw.lowerExpr(s.Update)
	}
	lw.gotoBlock(header)

	lw.fn.Loops = append(lw.fn.Loops, LoopRegion{Header: header, Latch: latch, Exit: exit})
	lw.startBlock(exit)
}

// lowerForIn lowers for-of and for-in through the iterator protocol shape:
// IterInit, then a header testing the step's done flag.
func (lw *lowerer) lowerForIn(s *ast.ForInStmt) {
	iterable := lw.lowerExpr(s.Object)
	mode := IterIn
	if s.Of {
		mode = IterOf
	}
	iter := lw.push(Value{Kind: ValIterInit, IterInit: IterInitValue{
		Mode: mode, Iterable: iterable.asRead(),
	}}, s.Sp)
	iterName := lw.freshBinding("iter", s.Sp, iter)

	header := lw.newBlock(BlockLoopHeader)
	body := lw.newBlock(BlockBody)
	exit := lw.newBlock(BlockMerge)

	lw.gotoBlock(header)

	lw.startBlock(header)
	step := lw.push(Value{Kind: ValIterNext, IterNext: IterNextValue{
		Iter: lw.readPlace(iterName),
	}}, s.Sp)
	done := lw.push(Value{Kind: ValPropertyLoad, PropertyLoad: PropertyLoadValue{
		Object: step.asRead(), Property: "done",
	}}, s.Sp)
	stepName := lw.freshBinding("step", s.Sp, step)
	lw.terminate(Terminator{Kind: TermIf, If: IfTerm{
		Test: done.asRead(), Then: exit, Else: body, Merge: NoBlockID,
	}})

	lw.startBlock(body)
	value := lw.push(Value{Kind: ValPropertyLoad, PropertyLoad: PropertyLoadValue{
		Object: lw.readPlace(stepName), Property: "value",
	}}, s.Sp)
	if s.Decl != nil {
		lw.declarePatternNames(s.Decl, s.Kind != ast.DeclConst)
		lw.lowerPattern(s.Decl, value, nil)
	} else {
		lw.lowerAssignTarget(s.Target, value)
	}
	lw.startLoop(header, exit, header)
	lw.lowerStmt(s.Body)
	lw.endLoop()
	lw.gotoBlock(header)

	lw.fn.Loops = append(lw.fn.Loops, LoopRegion{Header: header, Latch: NoBlockID, Exit: exit})
	lw.startBlock(exit)
}

// freshBinding stores value under a synthetic name and returns the name.
// The binding behaves like a reassignable local so SSA versions it across
// loop iterations.
func (lw *lowerer) freshBinding(prefix string, sp source.Span, value Place) string {
	name := lw.newTemp().Ident.Name
	name = "_" + prefix + name[1:]
	lw.declare(name, true)
	lw.storeLocal(name, value, sp)
	return name
}

// lowerSwitch builds the case chain: the discriminant and every case value
// are evaluated up front, the Switch terminator dispatches on strict
// equality, and each case body falls through to the next one.
func (lw *lowerer) lowerSwitch(s *ast.SwitchStmt) {
	disc := lw.lowerExpr(s.Disc)
	exit := lw.newBlock(BlockMerge)

	lw.startLoop(NoBlockID, exit, NoBlockID)

	type caseBlock struct {
		block BlockID
		body  []ast.Stmt
	}
	blocks := make([]caseBlock, 0, len(s.Cases))
	defaultTarget := exit
	var cases []SwitchCase

	for _, c := range s.Cases {
		kind := BlockCase
		if c.Test == nil {
			kind = BlockDefault
		}
		blk := lw.newBlock(kind)
		blocks = append(blocks, caseBlock{block: blk, body: c.Body})
		if c.Test == nil {
			defaultTarget = blk
			continue
		}
		value := lw.lowerExpr(c.Test)
		cases = append(cases, SwitchCase{Value: value.asRead(), Target: blk})
	}

	lw.terminate(Terminator{Kind: TermSwitch, Switch: SwitchTerm{
		Disc: disc.asRead(), Cases: cases, Default: defaultTarget, Merge: exit,
	}})

	for i, cb := range blocks {
		lw.startBlock(cb.block)
		for _, stmt := range cb.body {
			lw.lowerStmt(stmt)
		}
		// Fall through to the next case body, not the exit.
		next := exit
		if i+1 < len(blocks) {
			next = blocks[i+1].block
		}
		lw.gotoBlock(next)
	}

	lw.endLoop()
	lw.startBlock(exit)
}

func (lw *lowerer) lowerBreak(s *ast.BreakStmt) {
	for i := len(lw.loopStack) - 1; i >= 0; i-- {
		info := lw.loopStack[i]
		if s.Label != "" && info.label != s.Label {
			continue
		}
		lw.runFinalizers(info.finalizerDepth)
		lw.gotoBlock(info.breakTarget)
		return
	}
	lw.unsupported("break outside loop or switch", s.Sp)
}

func (lw *lowerer) lowerContinue(s *ast.ContinueStmt) {
	for i := len(lw.loopStack) - 1; i >= 0; i-- {
		info := lw.loopStack[i]
		if info.continueTarget == NoBlockID {
			continue
		}
		if s.Label != "" && info.label != s.Label {
			continue
		}
		lw.runFinalizers(info.finalizerDepth)
		lw.gotoBlock(info.continueTarget)
		return
	}
	lw.unsupported("continue outside loop", s.Sp)
}

func (lw *lowerer) lowerReturn(s *ast.ReturnStmt) {
	var term Terminator
	if s.Value != nil {
		value := lw.lowerExpr(s.Value)
		lw.runFinalizers(0)
		term = Terminator{Kind: TermReturn, Return: ReturnTerm{HasValue: true, Value: value.asRead()}}
	} else {
		lw.runFinalizers(0)
		term = Terminator{Kind: TermReturn}
	}
	lw.terminate(term)
}

// runFinalizers duplicates the active finally bodies (innermost first) down
// to the given stack depth on the current exit path.
func (lw *lowerer) runFinalizers(depth int) {
	for i := len(lw.finalizers) - 1; i >= depth; i-- {
		saved := lw.finalizers
		lw.finalizers = lw.finalizers[:i]
		for _, stmt := range saved[i].Stmts {
			lw.lowerStmt(stmt)
		}
		lw.finalizers = saved
	}
}

// lowerTry tags the protected region's blocks with the handler block id.
// Reactive scopes refuse to cross these boundaries.
func (lw *lowerer) lowerTry(s *ast.TryStmt) {
	bodyBlock := lw.newBlock(BlockBody)
	exit := lw.newBlock(BlockMerge)

	handlerBlock := NoBlockID
	catchName := ""
	if s.CatchBody != nil {
		handlerBlock = lw.newBlock(BlockBody)
		if ip, ok := s.CatchParam.(*ast.IdentPat); ok {
			catchName = ip.Name
		}
	}

	lw.gotoBlock(bodyBlock)
	lw.fn.Block(bodyBlock).Handler = handlerBlock

	lw.startBlock(bodyBlock)
	prevHandler := lw.handler
	lw.handler = handlerBlock
	if s.Finally != nil {
		lw.finalizers = append(lw.finalizers, s.Finally)
	}
	for _, stmt := range s.Block.Stmts {
		lw.lowerStmt(stmt)
	}
	if s.Finally != nil {
		lw.finalizers = lw.finalizers[:len(lw.finalizers)-1]
	}
	lw.handler = prevHandler
	if s.Finally != nil {
		for _, stmt := range s.Finally.Stmts {
			lw.lowerStmt(stmt)
		}
	}
	lw.gotoBlock(exit)

	if handlerBlock != NoBlockID {
		lw.startBlock(handlerBlock)
		if catchName != "" {
			lw.declare(catchName, false)
		}
		for _, stmt := range s.CatchBody.Stmts {
			lw.lowerStmt(stmt)
		}
		if s.Finally != nil {
			for _, stmt := range s.Finally.Stmts {
				lw.lowerStmt(stmt)
			}
		}
		lw.gotoBlock(exit)
	}

	lw.fn.TryRegions = append(lw.fn.TryRegions, TryRegion{
		Body:      bodyBlock,
		Handler:   handlerBlock,
		Exit:      exit,
		CatchName: catchName,
	})
	lw.startBlock(exit)
}
