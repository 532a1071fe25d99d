package hir

import (
	"strconv"

	"memoc/internal/ast"
	"memoc/internal/source"
)

// lowerPattern binds src to the pattern, recursively expanding destructuring
// forms into property loads and stores. An optional outer default applies to
// the whole pattern (parameter defaults).
func (lw *lowerer) lowerPattern(pat ast.Pattern, src Place, outerDefault ast.Expr) {
	if outerDefault != nil {
		src = lw.lowerDefaulted(src, outerDefault, pat.Span())
	}

	switch p := pat.(type) {
	case *ast.IdentPat:
		lw.storeLocal(p.Name, src, p.Sp)

	case *ast.ArrayPat:
		for i, elem := range p.Elems {
			if elem.Target == nil {
				continue // hole
			}
			if elem.Rest {
				// Rest binds the remaining elements as src.slice(i).
				from := lw.pushConst(Const{Kind: ConstInt, IntValue: int64(i), Raw: strconv.Itoa(i)}, p.Sp)
				rest := lw.push(Value{Kind: ValCall, Call: CallValue{
					IsMethod: true, Object: src.asRead(), Property: "slice",
					Args: []Arg{{Value: Place{Ident: from.Ident, Effect: EffectCapture}}},
				}}, p.Sp)
				lw.lowerPattern(elem.Target, rest, nil)
				continue
			}
			idx := lw.pushConst(Const{Kind: ConstInt, IntValue: int64(i), Raw: strconv.Itoa(i)}, p.Sp)
			value := lw.push(Value{Kind: ValComputedLoad, ComputedLoad: ComputedLoadValue{
				Object: src.asRead(), Property: idx.asRead(),
			}}, p.Sp)
			lw.lowerPattern(elem.Target, value, elem.Default)
		}

	case *ast.ObjectPat:
		for _, prop := range p.Props {
			value := lw.push(Value{Kind: ValPropertyLoad, PropertyLoad: PropertyLoadValue{
				Object: src.asRead(), Property: prop.Key,
			}}, p.Sp)
			lw.lowerPattern(prop.Target, value, prop.Default)
		}
		if p.Rest != nil {
			// Object rest is a runtime call site excluding the plucked keys.
			helper := lw.push(Value{Kind: ValLoadLocal, LoadLocal: LoadLocalValue{
				Src: Place{Ident: Identifier{Name: "_objRest"}, Effect: EffectRead},
			}}, p.Sp)
			keyElems := make([]ArrayElem, 0, len(p.Props))
			for _, prop := range p.Props {
				k := lw.pushConst(Const{Kind: ConstString, StringValue: prop.Key}, p.Sp)
				keyElems = append(keyElems, ArrayElem{Value: Place{Ident: k.Ident, Effect: EffectCapture}})
			}
			keys := lw.push(Value{Kind: ValArray, Array: ArrayValue{Elems: keyElems}}, p.Sp)
			rest := lw.push(Value{Kind: ValCall, Call: CallValue{
				Callee: helper.asRead(),
				Args: []Arg{
					{Value: Place{Ident: src.Ident, Effect: EffectCapture}},
					{Value: Place{Ident: keys.Ident, Effect: EffectCapture}},
				},
			}}, p.Sp)
			lw.storeLocal(p.Rest.Name, rest, p.Rest.Sp)
		}

	default:
		lw.unsupported("binding pattern", pat.Span())
	}
}

// lowerDefaulted applies a default value through a post-load IsNullish
// branch writing a shared merge place.
func (lw *lowerer) lowerDefaulted(value Place, def ast.Expr, sp source.Span) Place {
	isNullish := lw.push(Value{Kind: ValUnary, Unary: UnaryValue{
		Op: UnIsNullish, Operand: value.asRead(),
	}}, sp)

	defBlock := lw.newBlock(BlockBody)
	keepBlock := lw.newBlock(BlockBody)
	mergeBlock := lw.newBlock(BlockMerge)
	result := lw.mergeBinding(sp)

	lw.terminate(Terminator{Kind: TermIf, If: IfTerm{
		Test: isNullish.asRead(), Then: defBlock, Else: keepBlock, Merge: mergeBlock,
	}})

	lw.startBlock(defBlock)
	defValue := lw.lowerExpr(def)
	lw.storeLocal(result, defValue, sp)
	lw.gotoBlock(mergeBlock)

	lw.startBlock(keepBlock)
	lw.storeLocal(result, value, sp)
	lw.gotoBlock(mergeBlock)

	lw.startBlock(mergeBlock)
	return lw.push(Value{Kind: ValLoadLocal, LoadLocal: LoadLocalValue{Src: lw.readPlace(result)}}, sp)
}
