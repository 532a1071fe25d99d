package hir

import (
	"memoc/internal/ast"
	"memoc/internal/source"
	"memoc/internal/token"
)

func (lw *lowerer) lowerExpr(expr ast.Expr) Place {
	switch e := expr.(type) {
	case *ast.NumberLit:
		if e.IsInt {
			return lw.pushConst(Const{Kind: ConstInt, IntValue: e.Int, Raw: e.Raw}, e.Sp)
		}
		return lw.pushConst(Const{Kind: ConstFloat, FloatValue: e.Float, Raw: e.Raw}, e.Sp)
	case *ast.StringLit:
		return lw.pushConst(Const{Kind: ConstString, StringValue: e.Value, Raw: e.Raw}, e.Sp)
	case *ast.BoolLit:
		return lw.pushConst(Const{Kind: ConstBool, BoolValue: e.Value}, e.Sp)
	case *ast.NullLit:
		return lw.pushConst(Const{Kind: ConstNull}, e.Sp)
	case *ast.UndefinedLit:
		return lw.pushConst(Const{Kind: ConstUndefined}, e.Sp)
	case *ast.Ident:
		return lw.push(Value{Kind: ValLoadLocal, LoadLocal: LoadLocalValue{Src: lw.readPlace(e.Name)}}, e.Sp)
	case *ast.Binary:
		return lw.lowerBinary(e)
	case *ast.Unary:
		return lw.lowerUnary(e)
	case *ast.Update:
		return lw.lowerUpdate(e)
	case *ast.Logical:
		return lw.lowerLogical(e)
	case *ast.Conditional:
		return lw.lowerConditional(e)
	case *ast.Assign:
		return lw.lowerAssign(e)
	case *ast.Call:
		return lw.lowerCall(e)
	case *ast.New:
		return lw.lowerNew(e)
	case *ast.Member:
		return lw.lowerMember(e)
	case *ast.Index:
		return lw.lowerIndex(e)
	case *ast.ObjectLit:
		return lw.lowerObjectLit(e)
	case *ast.ArrayLit:
		return lw.lowerArrayLit(e)
	case *ast.TemplateLit:
		return lw.lowerTemplate(e)
	case *ast.TaggedTemplate:
		return lw.lowerTaggedTemplate(e)
	case *ast.Sequence:
		var last Place
		for _, x := range e.Exprs {
			last = lw.lowerExpr(x)
		}
		return last
	case *ast.FunctionExpr:
		return lw.lowerFunctionValue(e.Fn)
	case *ast.ThisExpr:
		return lw.push(Value{Kind: ValLoadLocal, LoadLocal: LoadLocalValue{
			Src: Place{Ident: Identifier{Name: "this"}, Effect: EffectRead},
		}}, e.Sp)
	default:
		return lw.unsupported("expression", expr.Span())
	}
}

func binOpFor(k token.Kind) (BinOp, bool) {
	switch k {
	case token.Plus:
		return BinAdd, true
	case token.Minus:
		return BinSub, true
	case token.Star:
		return BinMul, true
	case token.Slash:
		return BinDiv, true
	case token.Percent:
		return BinMod, true
	case token.Lt:
		return BinLt, true
	case token.LtEq:
		return BinLtEq, true
	case token.Gt:
		return BinGt, true
	case token.GtEq:
		return BinGtEq, true
	case token.EqEq:
		return BinEq, true
	case token.BangEq:
		return BinNotEq, true
	case token.EqEqEq:
		return BinStrictEq, true
	case token.BangEqEq:
		return BinStrictNotEq, true
	case token.Amp:
		return BinBitAnd, true
	case token.Pipe:
		return BinBitOr, true
	case token.Caret:
		return BinBitXor, true
	case token.Shl:
		return BinShl, true
	case token.Shr:
		return BinShr, true
	case token.UShr:
		return BinUShr, true
	case token.KwInstanceof:
		return BinInstanceOf, true
	case token.KwIn:
		return BinIn, true
	default:
		return BinAdd, false
	}
}

// compoundOpFor maps `op=` tokens to the underlying binary operator.
func compoundOpFor(k token.Kind) (BinOp, bool) {
	switch k {
	case token.PlusAssign:
		return BinAdd, true
	case token.MinusAssign:
		return BinSub, true
	case token.StarAssign:
		return BinMul, true
	case token.SlashAssign:
		return BinDiv, true
	case token.PercentAssign:
		return BinMod, true
	case token.AmpAssign:
		return BinBitAnd, true
	case token.PipeAssign:
		return BinBitOr, true
	case token.CaretAssign:
		return BinBitXor, true
	case token.ShlAssign:
		return BinShl, true
	case token.ShrAssign:
		return BinShr, true
	case token.UShrAssign:
		return BinUShr, true
	default:
		return BinAdd, false
	}
}

func (lw *lowerer) lowerBinary(e *ast.Binary) Place {
	left := lw.lowerExpr(e.L)
	right := lw.lowerExpr(e.R)
	op, ok := binOpFor(e.Op)
	if !ok {
		return lw.unsupported("binary operator", e.Sp)
	}
	return lw.push(Value{Kind: ValBinary, Binary: BinaryValue{
		Op: op, Left: left.asRead(), Right: right.asRead(),
	}}, e.Sp)
}

func (lw *lowerer) lowerUnary(e *ast.Unary) Place {
	operand := lw.lowerExpr(e.Operand)
	var op UnOp
	switch e.Op {
	case token.Bang:
		op = UnNot
	case token.Minus:
		op = UnNegate
	case token.Plus:
		op = UnPlus
	case token.Tilde:
		op = UnBitNot
	case token.KwTypeof:
		op = UnTypeof
	case token.KwVoid:
		op = UnVoid
	case token.KwDelete:
		op = UnDelete
	default:
		return lw.unsupported("unary operator", e.Sp)
	}
	return lw.push(Value{Kind: ValUnary, Unary: UnaryValue{Op: op, Operand: operand.asRead()}}, e.Sp)
}

// lowerUpdate handles ++/-- with old-value-vs-new-value return semantics.
func (lw *lowerer) lowerUpdate(e *ast.Update) Place {
	op := BinAdd
	if e.Op == token.MinusMinus {
		op = BinSub
	}
	one := func() Place { return lw.pushConst(Const{Kind: ConstInt, IntValue: 1, Raw: "1"}, e.Sp) }

	switch target := e.Target.(type) {
	case *ast.Ident:
		current := lw.push(Value{Kind: ValLoadLocal, LoadLocal: LoadLocalValue{Src: lw.readPlace(target.Name)}}, e.Sp)
		next := lw.push(Value{Kind: ValBinary, Binary: BinaryValue{
			Op: op, Left: current.asRead(), Right: one(),
		}}, e.Sp)
		lw.storeLocal(target.Name, next, e.Sp)
		if e.Prefix {
			return next
		}
		return current
	case *ast.Member:
		object := lw.lowerExpr(target.Object)
		current := lw.push(Value{Kind: ValPropertyLoad, PropertyLoad: PropertyLoadValue{
			Object: object.asRead(), Property: target.Property,
		}}, e.Sp)
		next := lw.push(Value{Kind: ValBinary, Binary: BinaryValue{
			Op: op, Left: current.asRead(), Right: one(),
		}}, e.Sp)
		lw.push(Value{Kind: ValPropertyStore, PropertyStore: PropertyStoreValue{
			Object: Place{Ident: object.Ident, Effect: EffectMutate}, Property: target.Property, Value: next.asRead(),
		}}, e.Sp)
		if e.Prefix {
			return next
		}
		return current
	case *ast.Index:
		object := lw.lowerExpr(target.Object)
		prop := lw.lowerExpr(target.Prop)
		current := lw.push(Value{Kind: ValComputedLoad, ComputedLoad: ComputedLoadValue{
			Object: object.asRead(), Property: prop.asRead(),
		}}, e.Sp)
		next := lw.push(Value{Kind: ValBinary, Binary: BinaryValue{
			Op: op, Left: current.asRead(), Right: one(),
		}}, e.Sp)
		lw.push(Value{Kind: ValComputedStore, ComputedStore: ComputedStoreValue{
			Object: Place{Ident: object.Ident, Effect: EffectMutate}, Property: prop.asRead(), Value: next.asRead(),
		}}, e.Sp)
		if e.Prefix {
			return next
		}
		return current
	default:
		return lw.unsupported("update target", e.Sp)
	}
}

// lowerLogical lowers &&, || and ?? as an If diamond writing a shared merge
// place, the same shape ternary and optional chaining use.
func (lw *lowerer) lowerLogical(e *ast.Logical) Place {
	left := lw.lowerExpr(e.L)

	rightBlock := lw.newBlock(BlockBody)
	shortBlock := lw.newBlock(BlockBody)
	mergeBlock := lw.newBlock(BlockMerge)
	result := lw.mergeBinding(e.Sp)

	switch e.Op {
	case token.AndAnd:
		lw.terminate(Terminator{Kind: TermIf, If: IfTerm{
			Test: left.asRead(), Then: rightBlock, Else: shortBlock, Merge: mergeBlock,
		}})
	case token.OrOr:
		lw.terminate(Terminator{Kind: TermIf, If: IfTerm{
			Test: left.asRead(), Then: shortBlock, Else: rightBlock, Merge: mergeBlock,
		}})
	default: // ??
		isNullish := lw.push(Value{Kind: ValUnary, Unary: UnaryValue{
			Op: UnIsNullish, Operand: left.asRead(),
		}}, e.Sp)
		lw.terminate(Terminator{Kind: TermIf, If: IfTerm{
			Test: isNullish.asRead(), Then: rightBlock, Else: shortBlock, Merge: mergeBlock,
		}})
	}

	lw.startBlock(shortBlock)
	lw.storeLocal(result, left, e.Sp)
	lw.gotoBlock(mergeBlock)

	lw.startBlock(rightBlock)
	right := lw.lowerExpr(e.R)
	lw.storeLocal(result, right, e.Sp)
	lw.gotoBlock(mergeBlock)

	lw.startBlock(mergeBlock)
	return lw.push(Value{Kind: ValLoadLocal, LoadLocal: LoadLocalValue{Src: lw.readPlace(result)}}, e.Sp)
}

func (lw *lowerer) lowerConditional(e *ast.Conditional) Place {
	test := lw.lowerExpr(e.Test)

	thenBlock := lw.newBlock(BlockBody)
	elseBlock := lw.newBlock(BlockBody)
	mergeBlock := lw.newBlock(BlockMerge)
	result := lw.mergeBinding(e.Sp)

	lw.terminate(Terminator{Kind: TermIf, If: IfTerm{
		Test: test.asRead(), Then: thenBlock, Else: elseBlock, Merge: mergeBlock,
	}})

	lw.startBlock(thenBlock)
	thenVal := lw.lowerExpr(e.Cons)
	lw.storeLocal(result, thenVal, e.Sp)
	lw.gotoBlock(mergeBlock)

	lw.startBlock(elseBlock)
	elseVal := lw.lowerExpr(e.Alt)
	lw.storeLocal(result, elseVal, e.Sp)
	lw.gotoBlock(mergeBlock)

	lw.startBlock(mergeBlock)
	return lw.push(Value{Kind: ValLoadLocal, LoadLocal: LoadLocalValue{Src: lw.readPlace(result)}}, e.Sp)
}

// mergeBinding declares a reassignable synthetic local serving as the merge
// place of an If diamond.
func (lw *lowerer) mergeBinding(source.Span) string {
	name := lw.newTemp().Ident.Name
	name = "_m" + name[1:]
	lw.declare(name, true)
	return name
}

func (lw *lowerer) lowerAssign(e *ast.Assign) Place {
	if pe, ok := e.Target.(*ast.PatternExpr); ok {
		value := lw.lowerExpr(e.Value)
		lw.lowerPattern(pe.Pat, value, nil)
		return value
	}

	rightValue := lw.lowerExpr(e.Value)

	value := rightValue
	if op, isCompound := compoundOpFor(e.Op); isCompound {
		leftValue := lw.lowerReadOfTarget(e.Target)
		value = lw.push(Value{Kind: ValBinary, Binary: BinaryValue{
			Op: op, Left: leftValue.asRead(), Right: rightValue.asRead(),
		}}, e.Sp)
	}

	lw.lowerAssignTarget(e.Target, value)
	return value
}

func (lw *lowerer) lowerReadOfTarget(target ast.Expr) Place {
	switch t := target.(type) {
	case *ast.Ident:
		return lw.push(Value{Kind: ValLoadLocal, LoadLocal: LoadLocalValue{Src: lw.readPlace(t.Name)}}, t.Sp)
	case *ast.Member:
		object := lw.lowerExpr(t.Object)
		return lw.push(Value{Kind: ValPropertyLoad, PropertyLoad: PropertyLoadValue{
			Object: object.asRead(), Property: t.Property,
		}}, t.Sp)
	case *ast.Index:
		object := lw.lowerExpr(t.Object)
		prop := lw.lowerExpr(t.Prop)
		return lw.push(Value{Kind: ValComputedLoad, ComputedLoad: ComputedLoadValue{
			Object: object.asRead(), Property: prop.asRead(),
		}}, t.Sp)
	default:
		return lw.unsupported("compound assignment target", target.Span())
	}
}

func (lw *lowerer) lowerAssignTarget(target ast.Expr, value Place) {
	switch t := target.(type) {
	case *ast.Ident:
		lw.storeLocal(t.Name, value, t.Sp)
	case *ast.Member:
		object := lw.lowerExpr(t.Object)
		lw.push(Value{Kind: ValPropertyStore, PropertyStore: PropertyStoreValue{
			Object: Place{Ident: object.Ident, Effect: EffectMutate}, Property: t.Property, Value: value.asRead(),
		}}, t.Sp)
	case *ast.Index:
		object := lw.lowerExpr(t.Object)
		prop := lw.lowerExpr(t.Prop)
		lw.push(Value{Kind: ValComputedStore, ComputedStore: ComputedStoreValue{
			Object: Place{Ident: object.Ident, Effect: EffectMutate}, Property: prop.asRead(), Value: value.asRead(),
		}}, t.Sp)
	case *ast.PatternExpr:
		lw.lowerPattern(t.Pat, value, nil)
	default:
		lw.unsupported("assignment target", target.Span())
	}
}
