package hir

import (
	"memoc/internal/ast"
	"memoc/internal/source"
)

func (lw *lowerer) lowerArgs(args []ast.Arg) []Arg {
	out := make([]Arg, 0, len(args))
	for _, a := range args {
		place := lw.lowerExpr(a.Value)
		effect := EffectCapture
		out = append(out, Arg{Value: Place{Ident: place.Ident, Effect: effect}, Spread: a.Spread})
	}
	return out
}

func (lw *lowerer) lowerCall(e *ast.Call) Place {
	// Method calls keep their receiver so emission preserves `this`.
	if member, ok := e.Callee.(*ast.Member); ok && !member.Optional && !e.Optional {
		object := lw.lowerExpr(member.Object)
		args := lw.lowerArgs(e.Args)
		return lw.push(Value{Kind: ValCall, Call: CallValue{
			IsMethod: true, Object: object.asRead(), Property: member.Property, Args: args,
		}}, e.Sp)
	}
	if index, ok := e.Callee.(*ast.Index); ok && !index.Optional && !e.Optional {
		object := lw.lowerExpr(index.Object)
		prop := lw.lowerExpr(index.Prop)
		read := prop.asRead()
		args := lw.lowerArgs(e.Args)
		return lw.push(Value{Kind: ValCall, Call: CallValue{
			IsMethod: true, Object: object.asRead(), Computed: &read, Args: args,
		}}, e.Sp)
	}

	callee := lw.lowerExpr(e.Callee)
	if e.Optional {
		return lw.lowerOptionalGuard(callee, e.Sp, func() Place {
			args := lw.lowerArgs(e.Args)
			return lw.push(Value{Kind: ValCall, Call: CallValue{
				Callee: callee.asRead(), Args: args, Optional: true,
			}}, e.Sp)
		})
	}
	args := lw.lowerArgs(e.Args)
	return lw.push(Value{Kind: ValCall, Call: CallValue{
		Callee: callee.asRead(), Args: args,
	}}, e.Sp)
}

func (lw *lowerer) lowerNew(e *ast.New) Place {
	callee := lw.lowerExpr(e.Callee)
	args := lw.lowerArgs(e.Args)
	return lw.push(Value{Kind: ValNew, New: NewValue{
		Callee: callee.asRead(), Args: args,
	}}, e.Sp)
}

func (lw *lowerer) lowerMember(e *ast.Member) Place {
	object := lw.lowerExpr(e.Object)
	if e.Optional {
		return lw.lowerOptionalGuard(object, e.Sp, func() Place {
			return lw.push(Value{Kind: ValPropertyLoad, PropertyLoad: PropertyLoadValue{
				Object: object.asRead(), Property: e.Property,
			}}, e.Sp)
		})
	}
	return lw.push(Value{Kind: ValPropertyLoad, PropertyLoad: PropertyLoadValue{
		Object: object.asRead(), Property: e.Property,
	}}, e.Sp)
}

func (lw *lowerer) lowerIndex(e *ast.Index) Place {
	object := lw.lowerExpr(e.Object)
	if e.Optional {
		return lw.lowerOptionalGuard(object, e.Sp, func() Place {
			prop := lw.lowerExpr(e.Prop)
			return lw.push(Value{Kind: ValComputedLoad, ComputedLoad: ComputedLoadValue{
				Object: object.asRead(), Property: prop.asRead(),
			}}, e.Sp)
		})
	}
	prop := lw.lowerExpr(e.Prop)
	return lw.push(Value{Kind: ValComputedLoad, ComputedLoad: ComputedLoadValue{
		Object: object.asRead(), Property: prop.asRead(),
	}}, e.Sp)
}

// lowerOptionalGuard implements one `?.` step: test the subject for nullish
// and branch to an undefined merge value, otherwise evaluate the access.
func (lw *lowerer) lowerOptionalGuard(subject Place, sp source.Span, access func() Place) Place {
	isNullish := lw.push(Value{Kind: ValUnary, Unary: UnaryValue{
		Op: UnIsNullish, Operand: subject.asRead(),
	}}, sp)

	undefBlock := lw.newBlock(BlockBody)
	accessBlock := lw.newBlock(BlockBody)
	mergeBlock := lw.newBlock(BlockMerge)
	result := lw.mergeBinding(sp)

	lw.terminate(Terminator{Kind: TermIf, If: IfTerm{
		Test: isNullish.asRead(), Then: undefBlock, Else: accessBlock, Merge: mergeBlock,
	}})

	lw.startBlock(undefBlock)
	undef := lw.pushConst(Const{Kind: ConstUndefined}, sp)
	lw.storeLocal(result, undef, sp)
	lw.gotoBlock(mergeBlock)

	lw.startBlock(accessBlock)
	value := access()
	lw.storeLocal(result, value, sp)
	lw.gotoBlock(mergeBlock)

	lw.startBlock(mergeBlock)
	return lw.push(Value{Kind: ValLoadLocal, LoadLocal: LoadLocalValue{Src: lw.readPlace(result)}}, sp)
}

func (lw *lowerer) lowerObjectLit(e *ast.ObjectLit) Place {
	props := make([]ObjectProp, 0, len(e.Props))
	for _, p := range e.Props {
		if p.Spread {
			value := lw.lowerExpr(p.Value)
			props = append(props, ObjectProp{Value: Place{Ident: value.Ident, Effect: EffectCapture}, Spread: true})
			continue
		}
		key := PropKey{Name: p.Key.Name}
		if p.Key.Computed != nil {
			kp := lw.lowerExpr(p.Key.Computed)
			read := kp.asRead()
			key = PropKey{Computed: &read}
		}
		value := lw.lowerExpr(p.Value)
		props = append(props, ObjectProp{Key: key, Value: Place{Ident: value.Ident, Effect: EffectCapture}})
	}
	return lw.push(Value{Kind: ValObject, Object: ObjectValue{Props: props}}, e.Sp)
}

func (lw *lowerer) lowerArrayLit(e *ast.ArrayLit) Place {
	elems := make([]ArrayElem, 0, len(e.Elems))
	for _, el := range e.Elems {
		if el.Value == nil {
			elems = append(elems, ArrayElem{Hole: true})
			continue
		}
		value := lw.lowerExpr(el.Value)
		elems = append(elems, ArrayElem{Value: Place{Ident: value.Ident, Effect: EffectCapture}, Spread: el.Spread})
	}
	return lw.push(Value{Kind: ValArray, Array: ArrayValue{Elems: elems}}, e.Sp)
}

// lowerTemplate rewrites `a${x}b` into a left-associative string-addition
// chain over the cooked quasis: "a" + x + "b". The leading quasi, even when
// empty, forces string coercion.
func (lw *lowerer) lowerTemplate(e *ast.TemplateLit) Place {
	acc := lw.pushConst(Const{Kind: ConstString, StringValue: e.Quasis[0].Cooked, Raw: e.Quasis[0].Raw}, e.Sp)
	for i, expr := range e.Exprs {
		value := lw.lowerExpr(expr)
		acc = lw.push(Value{Kind: ValBinary, Binary: BinaryValue{
			Op: BinAdd, Left: acc.asRead(), Right: value.asRead(),
		}}, e.Sp)
		quasi := e.Quasis[i+1]
		if quasi.Cooked == "" {
			continue
		}
		part := lw.pushConst(Const{Kind: ConstString, StringValue: quasi.Cooked, Raw: quasi.Raw}, e.Sp)
		acc = lw.push(Value{Kind: ValBinary, Binary: BinaryValue{
			Op: BinAdd, Left: acc.asRead(), Right: part.asRead(),
		}}, e.Sp)
	}
	return acc
}

// lowerTaggedTemplate lowers tag`a${x}` as tag(["a", ""], x).
func (lw *lowerer) lowerTaggedTemplate(e *ast.TaggedTemplate) Place {
	tag := lw.lowerExpr(e.Tag)

	quasiElems := make([]ArrayElem, 0, len(e.Quasi.Quasis))
	for _, q := range e.Quasi.Quasis {
		c := lw.pushConst(Const{Kind: ConstString, StringValue: q.Cooked, Raw: q.Raw}, e.Sp)
		quasiElems = append(quasiElems, ArrayElem{Value: Place{Ident: c.Ident, Effect: EffectCapture}})
	}
	quasis := lw.push(Value{Kind: ValArray, Array: ArrayValue{Elems: quasiElems}}, e.Sp)

	args := []Arg{{Value: Place{Ident: quasis.Ident, Effect: EffectCapture}}}
	for _, expr := range e.Quasi.Exprs {
		value := lw.lowerExpr(expr)
		args = append(args, Arg{Value: Place{Ident: value.Ident, Effect: EffectCapture}})
	}
	return lw.push(Value{Kind: ValCall, Call: CallValue{
		Callee: tag.asRead(), Args: args,
	}}, e.Sp)
}

// lowerFunctionValue lowers a nested function with its own lowerer and
// references it through a FunctionValue instruction.
func (lw *lowerer) lowerFunctionValue(astFn *ast.Function) Place {
	inner, err := Lower(astFn)
	if err != nil {
		if lw.err == nil {
			lw.err = err
		}
		return lw.newTemp()
	}
	return lw.push(Value{Kind: ValFunction, Function: FunctionValue{Func: inner}}, astFn.Sp)
}
