package hir

import (
	"fmt"
	"strings"
)

// Print renders a textual CFG dump for debugging and the `memoc hir`
// subcommand.
func Print(f *Func) string {
	var b strings.Builder
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Name
	}
	fmt.Fprintf(&b, "fn %s(%s) entry=bb%d\n", f.Name, strings.Join(params, ", "), f.Entry)

	for _, blk := range f.Blocks {
		fmt.Fprintf(&b, "bb%d [%s]", blk.ID, blk.Kind)
		if f.LoopHeaders[blk.ID] {
			b.WriteString(" loop-header")
		}
		if blk.Handler != NoBlockID {
			fmt.Fprintf(&b, " handler=bb%d", blk.Handler)
		}
		b.WriteString(":\n")
		for i := range blk.Instrs {
			in := &blk.Instrs[i]
			fmt.Fprintf(&b, "  %%%d %s = %s", in.ID, in.Lvalue.Ident, formatValue(&in.Val))
			if in.Scope != NoScopeID {
				fmt.Fprintf(&b, "  @scope%d", in.Scope)
			}
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "  %s\n", formatTerm(&blk.Term))
	}
	return b.String()
}

func formatValue(v *Value) string {
	switch v.Kind {
	case ValConst:
		return v.Const.JS()
	case ValLoadLocal:
		return fmt.Sprintf("load %s", v.LoadLocal.Src.Ident)
	case ValStoreLocal:
		return fmt.Sprintf("store %s = %s", v.StoreLocal.Target.Ident, v.StoreLocal.Value.Ident)
	case ValPropertyLoad:
		return fmt.Sprintf("%s.%s", v.PropertyLoad.Object.Ident, v.PropertyLoad.Property)
	case ValPropertyStore:
		return fmt.Sprintf("%s.%s = %s", v.PropertyStore.Object.Ident, v.PropertyStore.Property, v.PropertyStore.Value.Ident)
	case ValComputedLoad:
		return fmt.Sprintf("%s[%s]", v.ComputedLoad.Object.Ident, v.ComputedLoad.Property.Ident)
	case ValComputedStore:
		return fmt.Sprintf("%s[%s] = %s", v.ComputedStore.Object.Ident, v.ComputedStore.Property.Ident, v.ComputedStore.Value.Ident)
	case ValBinary:
		return fmt.Sprintf("%s %s %s", v.Binary.Left.Ident, v.Binary.Op, v.Binary.Right.Ident)
	case ValUnary:
		if v.Unary.Op == UnIsNullish {
			return fmt.Sprintf("is-nullish %s", v.Unary.Operand.Ident)
		}
		return fmt.Sprintf("%s%s", v.Unary.Op, v.Unary.Operand.Ident)
	case ValCall:
		if v.Call.IsMethod {
			return fmt.Sprintf("call %s.%s(%s)", v.Call.Object.Ident, v.Call.Property, formatArgs(v.Call.Args))
		}
		return fmt.Sprintf("call %s(%s)", v.Call.Callee.Ident, formatArgs(v.Call.Args))
	case ValNew:
		return fmt.Sprintf("new %s(%s)", v.New.Callee.Ident, formatArgs(v.New.Args))
	case ValObject:
		return fmt.Sprintf("object{%d props}", len(v.Object.Props))
	case ValArray:
		return fmt.Sprintf("array[%d elems]", len(v.Array.Elems))
	case ValIterInit:
		mode := "of"
		if v.IterInit.Mode == IterIn {
			mode = "in"
		}
		return fmt.Sprintf("iter-init(%s) %s", mode, v.IterInit.Iterable.Ident)
	case ValIterNext:
		return fmt.Sprintf("iter-next %s", v.IterNext.Iter.Ident)
	case ValFunction:
		return fmt.Sprintf("function %s", v.Function.Func.Name)
	case ValPhi:
		parts := make([]string, len(v.Phi.Operands))
		for i, op := range v.Phi.Operands {
			parts[i] = fmt.Sprintf("bb%d: %s", op.Pred, op.Src.Ident)
		}
		return fmt.Sprintf("phi(%s)", strings.Join(parts, ", "))
	}
	return "?"
}

func formatArgs(args []Arg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a.Spread {
			parts[i] = "..." + a.Value.Ident.String()
		} else {
			parts[i] = a.Value.Ident.String()
		}
	}
	return strings.Join(parts, ", ")
}

func formatTerm(t *Terminator) string {
	switch t.Kind {
	case TermNone:
		return "<unterminated>"
	case TermGoto:
		return fmt.Sprintf("goto bb%d", t.Goto.Target)
	case TermIf:
		return fmt.Sprintf("if %s then bb%d else bb%d", t.If.Test.Ident, t.If.Then, t.If.Else)
	case TermSwitch:
		parts := make([]string, len(t.Switch.Cases))
		for i, c := range t.Switch.Cases {
			parts[i] = fmt.Sprintf("%s: bb%d", c.Value.Ident, c.Target)
		}
		return fmt.Sprintf("switch %s [%s] default bb%d", t.Switch.Disc.Ident, strings.Join(parts, ", "), t.Switch.Default)
	case TermReturn:
		if t.Return.HasValue {
			return fmt.Sprintf("return %s", t.Return.Value.Ident)
		}
		return "return"
	case TermThrow:
		return fmt.Sprintf("throw %s", t.Throw.Value.Ident)
	}
	return "?"
}
