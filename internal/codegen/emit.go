// Package codegen serializes a reactive tree as JavaScript source with
// cache read/write wrappers around every reactive scope.
package codegen

import (
	"fmt"
	"sort"
	"strings"

	"memoc/internal/hir"
	"memoc/internal/reactive"
)

// Sentinel is the reserved value the host cache allocator fills slots with;
// it compares unequal to every ordinary value, forcing first-run execution.
const Sentinel = `Symbol.for("react.memo_cache_sentinel")`

// EmissionError reports a tree that cannot be serialized.
type EmissionError struct {
	Msg string
}

func (e *EmissionError) Error() string {
	return "emission: " + e.Msg
}

// Generate renders one reactive function as JavaScript.
func Generate(fn *reactive.Function) (string, error) {
	g := &generator{
		fn:           fn,
		ssa:          true,
		params:       make(map[string]bool),
		declared:     make(map[string]bool),
		declaredBase: make(map[string]bool),
		scopeTemps:   make(map[string]bool),
	}
	return g.function()
}

type generator struct {
	fn  *reactive.Function
	out strings.Builder

	indent   int
	ssa      bool
	nextSlot int

	params       map[string]bool
	declared     map[string]bool
	declaredBase map[string]bool
	// scopeTemps are temporaries that carry scope outputs: they must be
	// hoisted so the cache-hit path can assign them.
	scopeTemps map[string]bool
}

func (g *generator) function() (string, error) {
	for _, p := range g.fn.Params {
		g.params[p.Name] = true
	}

	paramNames := make([]string, len(g.fn.Params))
	for i, p := range g.fn.Params {
		paramNames[i] = p.Name
	}
	name := g.fn.Name
	if name == "" {
		name = "anonymous"
	}
	fmt.Fprintf(&g.out, "function %s(%s) {\n", name, strings.Join(paramNames, ", "))
	g.indent++

	// Cache preamble: one slot per dependency and per output of each scope.
	if g.fn.Scopes != nil && len(g.fn.Scopes.Scopes) > 0 {
		size := 0
		for _, s := range g.fn.Scopes.Scopes {
			size += len(s.Dependencies) + len(s.Declarations)
		}
		if size < 1 {
			size = 1
		}
		g.line("const $ = _c(%d);", size)
	}

	// Hoist user-visible bindings.
	for _, n := range g.fn.Body {
		g.collectDeclarations(n)
	}
	for p := range g.params {
		delete(g.declared, p)
	}
	if len(g.declared) > 0 {
		vars := make([]string, 0, len(g.declared))
		for v := range g.declared {
			vars = append(vars, v)
		}
		sort.Strings(vars)
		g.line("let %s;", strings.Join(vars, ", "))
	}

	for _, n := range g.fn.Body {
		if err := g.statement(n); err != nil {
			return "", err
		}
	}

	g.indent--
	g.out.WriteString("}\n")
	return g.out.String(), nil
}

func (g *generator) line(format string, args ...any) {
	for i := 0; i < g.indent; i++ {
		g.out.WriteString("  ")
	}
	fmt.Fprintf(&g.out, format, args...)
	g.out.WriteByte('\n')
}

func (g *generator) statement(n reactive.Node) error {
	switch node := n.(type) {
	case *reactive.InstrNode:
		g.instruction(&node.Instr)
		return nil

	case *reactive.ScopeNode:
		return g.scope(node)

	case *reactive.IfNode:
		test := g.name(node.Test.Ident)
		if len(node.Then) == 0 && len(node.Else) > 0 {
			g.line("if (!%s) {", test)
			g.indent++
			for _, s := range node.Else {
				if err := g.statement(s); err != nil {
					return err
				}
			}
			g.indent--
			g.line("}")
			return nil
		}
		g.line("if (%s) {", test)
		g.indent++
		for _, s := range node.Then {
			if err := g.statement(s); err != nil {
				return err
			}
		}
		g.indent--
		if len(node.Else) > 0 {
			g.line("} else {")
			g.indent++
			for _, s := range node.Else {
				if err := g.statement(s); err != nil {
					return err
				}
			}
			g.indent--
		}
		g.line("}")
		return nil

	case *reactive.WhileNode:
		head := "while (true) {"
		if node.Test != nil {
			head = fmt.Sprintf("while (%s) {", g.name(node.Test.Ident))
		}
		if node.Label != "" {
			head = node.Label + ": " + head
		}
		g.line("%s", head)
		g.indent++
		for _, s := range node.Body {
			if err := g.statement(s); err != nil {
				return err
			}
		}
		g.indent--
		g.line("}")
		return nil

	case *reactive.SwitchNode:
		if node.Label != "" {
			g.line("%s: switch (%s) {", node.Label, g.name(node.Disc.Ident))
		} else {
			g.line("switch (%s) {", g.name(node.Disc.Ident))
		}
		g.indent++
		for _, c := range node.Cases {
			if c.Value != nil {
				g.line("case %s: {", g.name(c.Value.Ident))
			} else {
				g.line("default: {")
			}
			g.indent++
			for _, s := range c.Body {
				if err := g.statement(s); err != nil {
					return err
				}
			}
			g.indent--
			g.line("}")
		}
		g.indent--
		g.line("}")
		return nil

	case *reactive.TryNode:
		if !node.HasCatch {
			// Finally-only regions already duplicated the finalizer on
			// every exit path; a bare `try {}` would not parse.
			for _, s := range node.Body {
				if err := g.statement(s); err != nil {
					return err
				}
			}
			return nil
		}
		g.line("try {")
		g.indent++
		for _, s := range node.Body {
			if err := g.statement(s); err != nil {
				return err
			}
		}
		g.indent--
		if node.HasCatch {
			if node.CatchName != "" {
				g.line("} catch (%s) {", node.CatchName)
			} else {
				g.line("} catch {")
			}
			g.indent++
			for _, s := range node.Catch {
				if err := g.statement(s); err != nil {
					return err
				}
			}
			g.indent--
		}
		g.line("}")
		return nil

	case *reactive.BreakNode:
		if node.Label != "" {
			g.line("break %s;", node.Label)
		} else {
			g.line("break;")
		}
		return nil
	case *reactive.ContinueNode:
		if node.Label != "" {
			g.line("continue %s;", node.Label)
		} else {
			g.line("continue;")
		}
		return nil
	case *reactive.ReturnNode:
		if node.HasValue {
			g.line("return %s;", g.name(node.Value.Ident))
		} else {
			g.line("return;")
		}
		return nil
	case *reactive.ThrowNode:
		g.line("throw %s;", g.name(node.Value.Ident))
		return nil
	default:
		return &EmissionError{Msg: fmt.Sprintf("unknown node %T", n)}
	}
}

// scope emits the read/compare/write cache pattern around a cached region.
func (g *generator) scope(node *reactive.ScopeNode) error {
	deps := node.Scope.Dependencies
	decls := node.Scope.Declarations
	base := g.nextSlot
	g.nextSlot += len(deps) + len(decls)

	if len(deps) == 0 {
		g.line("if ($[%d] === %s) {", base, Sentinel)
	} else {
		conds := make([]string, len(deps))
		for i, d := range deps {
			conds[i] = fmt.Sprintf("$[%d] !== %s", base+i, g.name(d.Ident))
		}
		g.line("if (%s) {", strings.Join(conds, " || "))
	}
	g.indent++
	for _, s := range node.Body {
		if err := g.statement(s); err != nil {
			return err
		}
	}
	for i, d := range deps {
		g.line("$[%d] = %s;", base+i, g.name(d.Ident))
	}
	for i, d := range decls {
		g.line("$[%d] = %s;", base+len(deps)+i, g.name(d))
	}
	g.indent--
	g.line("} else {")
	g.indent++
	for _, d := range decls {
		g.line("%s = $[%d];", g.name(d), g.slotOf(decls, deps, base, d))
	}
	g.indent--
	g.line("}")
	return nil
}

func (g *generator) slotOf(decls []hir.Identifier, deps []hir.Place, base int, d hir.Identifier) int {
	for i, cand := range decls {
		if cand.Key() == d.Key() {
			return base + len(deps) + i
		}
	}
	return base
}

func (g *generator) instruction(in *hir.Instr) {
	// Trivial copies collapse away when both sides resolve to one name.
	if in.Val.Kind == hir.ValLoadLocal {
		if g.name(in.Val.LoadLocal.Src.Ident) == g.name(in.Lvalue.Ident) {
			return
		}
	}

	// Pre-SSA stores keep their statement form.
	if in.Val.Kind == hir.ValStoreLocal {
		g.line("%s = %s;", g.name(in.Val.StoreLocal.Target.Ident), g.name(in.Val.StoreLocal.Value.Ident))
		return
	}

	// Stores are statements, not bindings.
	switch in.Val.Kind {
	case hir.ValPropertyStore, hir.ValComputedStore:
		g.line("%s;", g.value(&in.Val))
		return
	}

	lvalue := g.name(in.Lvalue.Ident)
	rvalue := g.value(&in.Val)
	if isTemp(in.Lvalue.Ident.Name) && !g.scopeTemps[in.Lvalue.Ident.Name] {
		g.line("const %s = %s;", lvalue, rvalue)
		return
	}
	g.line("%s = %s;", lvalue, rvalue)
}

func (g *generator) value(v *hir.Value) string {
	switch v.Kind {
	case hir.ValConst:
		return v.Const.JS()
	case hir.ValLoadLocal:
		return g.name(v.LoadLocal.Src.Ident)
	case hir.ValBinary:
		return fmt.Sprintf("%s %s %s", g.name(v.Binary.Left.Ident), v.Binary.Op, g.name(v.Binary.Right.Ident))
	case hir.ValUnary:
		if v.Unary.Op == hir.UnIsNullish {
			return fmt.Sprintf("(%s == null)", g.name(v.Unary.Operand.Ident))
		}
		return fmt.Sprintf("%s%s", v.Unary.Op, g.name(v.Unary.Operand.Ident))
	case hir.ValCall:
		if v.Call.IsMethod {
			if v.Call.Computed != nil {
				return fmt.Sprintf("%s[%s](%s)", g.name(v.Call.Object.Ident), g.name(v.Call.Computed.Ident), g.args(v.Call.Args))
			}
			return fmt.Sprintf("%s.%s(%s)", g.name(v.Call.Object.Ident), v.Call.Property, g.args(v.Call.Args))
		}
		return fmt.Sprintf("%s(%s)", g.name(v.Call.Callee.Ident), g.args(v.Call.Args))
	case hir.ValNew:
		return fmt.Sprintf("new %s(%s)", g.name(v.New.Callee.Ident), g.args(v.New.Args))
	case hir.ValObject:
		parts := make([]string, 0, len(v.Object.Props))
		for _, p := range v.Object.Props {
			switch {
			case p.Spread:
				parts = append(parts, "..."+g.name(p.Value.Ident))
			case p.Key.Computed != nil:
				parts = append(parts, fmt.Sprintf("[%s]: %s", g.name(p.Key.Computed.Ident), g.name(p.Value.Ident)))
			default:
				parts = append(parts, fmt.Sprintf("%s: %s", p.Key.Name, g.name(p.Value.Ident)))
			}
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case hir.ValArray:
		parts := make([]string, 0, len(v.Array.Elems))
		for _, e := range v.Array.Elems {
			switch {
			case e.Hole:
				parts = append(parts, "")
			case e.Spread:
				parts = append(parts, "..."+g.name(e.Value.Ident))
			default:
				parts = append(parts, g.name(e.Value.Ident))
			}
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case hir.ValPropertyLoad:
		return fmt.Sprintf("%s.%s", g.name(v.PropertyLoad.Object.Ident), v.PropertyLoad.Property)
	case hir.ValPropertyStore:
		return fmt.Sprintf("%s.%s = %s", g.name(v.PropertyStore.Object.Ident), v.PropertyStore.Property, g.name(v.PropertyStore.Value.Ident))
	case hir.ValComputedLoad:
		return fmt.Sprintf("%s[%s]", g.name(v.ComputedLoad.Object.Ident), g.name(v.ComputedLoad.Property.Ident))
	case hir.ValComputedStore:
		return fmt.Sprintf("%s[%s] = %s", g.name(v.ComputedStore.Object.Ident), g.name(v.ComputedStore.Property.Ident), g.name(v.ComputedStore.Value.Ident))
	case hir.ValIterInit:
		if v.IterInit.Mode == hir.IterIn {
			return fmt.Sprintf("Object.keys(%s)[Symbol.iterator]()", g.name(v.IterInit.Iterable.Ident))
		}
		return fmt.Sprintf("%s[Symbol.iterator]()", g.name(v.IterInit.Iterable.Ident))
	case hir.ValIterNext:
		return fmt.Sprintf("%s.next()", g.name(v.IterNext.Iter.Ident))
	case hir.ValFunction:
		return g.nestedFunction(v.Function.Func)
	case hir.ValPhi:
		if len(v.Phi.Operands) > 0 {
			return g.name(v.Phi.Operands[0].Src.Ident)
		}
		return "undefined"
	}
	return "undefined"
}

func (g *generator) args(args []hir.Arg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a.Spread {
			parts[i] = "..." + g.name(a.Value.Ident)
		} else {
			parts[i] = g.name(a.Value.Ident)
		}
	}
	return strings.Join(parts, ", ")
}

// nestedFunction emits an inner function expression without memoization:
// the cache contract applies to the outer component function only.
func (g *generator) nestedFunction(f *hir.Func) string {
	tree, err := reactive.Build(f, &hir.ScopeResult{})
	if err != nil {
		return "undefined /* unreachable nested function */"
	}
	inner := &generator{
		fn:           tree,
		ssa:          false,
		indent:       g.indent,
		params:       make(map[string]bool),
		declared:     make(map[string]bool),
		declaredBase: make(map[string]bool),
		scopeTemps:   make(map[string]bool),
	}
	src, err := inner.function()
	if err != nil {
		return "undefined /* unreachable nested function */"
	}
	src = strings.TrimSuffix(src, "\n")
	if f.Name == "" {
		src = strings.Replace(src, "function anonymous(", "function (", 1)
	}
	return "(" + src + ")"
}

func isTemp(name string) bool {
	if len(name) < 2 || name[0] != 't' {
		return false
	}
	for _, c := range name[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// name resolves an identifier to its emitted JavaScript name. Parameters and
// globals keep their source names; versioned bindings get a version suffix
// to stay collision-free; a version-0 read of a local binding is an
// uninitialized read and becomes `undefined`.
func (g *generator) name(id hir.Identifier) string {
	if isTemp(id.Name) {
		return id.Name
	}
	if g.params[id.Name] && id.Version == 0 {
		return id.Name
	}
	if id.Version == 0 {
		if g.ssa && g.declaredBase[id.Name] {
			return "undefined"
		}
		return id.Name
	}
	return fmt.Sprintf("%s_%d", id.Name, id.Version)
}

func (g *generator) declare(id hir.Identifier) {
	if isTemp(id.Name) || g.params[id.Name] {
		return
	}
	if id.Version == 0 && !g.ssa {
		g.declared[id.Name] = true
		g.declaredBase[id.Name] = true
		return
	}
	if id.Version == 0 {
		return
	}
	g.declared[fmt.Sprintf("%s_%d", id.Name, id.Version)] = true
	g.declaredBase[id.Name] = true
}

func (g *generator) collectDeclarations(n reactive.Node) {
	switch node := n.(type) {
	case *reactive.InstrNode:
		if node.Instr.Val.Kind == hir.ValStoreLocal {
			g.declare(node.Instr.Val.StoreLocal.Target.Ident)
			return
		}
		g.declare(node.Instr.Lvalue.Ident)
	case *reactive.ScopeNode:
		for _, d := range node.Scope.Declarations {
			if isTemp(d.Name) {
				g.scopeTemps[d.Name] = true
				g.declared[d.Name] = true
			}
		}
		for _, s := range node.Body {
			g.collectDeclarations(s)
		}
	case *reactive.IfNode:
		for _, s := range node.Then {
			g.collectDeclarations(s)
		}
		for _, s := range node.Else {
			g.collectDeclarations(s)
		}
	case *reactive.WhileNode:
		for _, s := range node.Body {
			g.collectDeclarations(s)
		}
	case *reactive.SwitchNode:
		for _, c := range node.Cases {
			for _, s := range c.Body {
				g.collectDeclarations(s)
			}
		}
	case *reactive.TryNode:
		for _, s := range node.Body {
			g.collectDeclarations(s)
		}
		for _, s := range node.Catch {
			g.collectDeclarations(s)
		}
	}
}
