package hir

import (
	"memoc/internal/source"
)

// ValueKind enumerates instruction value kinds.
type ValueKind uint8

const (
	// ValConst represents a constant value.
	ValConst ValueKind = iota
	// ValLoadLocal reads a local binding.
	ValLoadLocal
	// ValStoreLocal writes a local binding.
	ValStoreLocal
	// ValPropertyLoad reads a static property.
	ValPropertyLoad
	// ValPropertyStore writes a static property.
	ValPropertyStore
	// ValComputedLoad reads a computed property.
	ValComputedLoad
	// ValComputedStore writes a computed property.
	ValComputedStore
	// ValBinary is a binary operation.
	ValBinary
	// ValUnary is a unary operation.
	ValUnary
	// ValCall is a function call.
	ValCall
	// ValNew is a constructor call.
	ValNew
	// ValObject builds an object literal.
	ValObject
	// ValArray builds an array literal.
	ValArray
	// ValIterInit obtains an iterator for for-of / for-in.
	ValIterInit
	// ValIterNext advances an iterator, yielding a {done, value} step.
	ValIterNext
	// ValFunction references a nested function value.
	ValFunction
	// ValPhi merges values at a join block.
	ValPhi
)

// Value is the operation an instruction performs, a kind-tagged union.
type Value struct {
	Kind ValueKind

	Const         Const
	LoadLocal     LoadLocalValue
	StoreLocal    StoreLocalValue
	PropertyLoad  PropertyLoadValue
	PropertyStore PropertyStoreValue
	ComputedLoad  ComputedLoadValue
	ComputedStore ComputedStoreValue
	Binary        BinaryValue
	Unary         UnaryValue
	Call          CallValue
	New           NewValue
	Object        ObjectValue
	Array         ArrayValue
	IterInit      IterInitValue
	IterNext      IterNextValue
	Function      FunctionValue
	Phi           PhiValue
}

// LoadLocalValue reads from a place.
type LoadLocalValue struct {
	Src Place
}

// StoreLocalValue writes Value into the Target binding.
type StoreLocalValue struct {
	Target Place
	Value  Place
}

// PropertyLoadValue is object.property.
type PropertyLoadValue struct {
	Object   Place
	Property string
}

// PropertyStoreValue is object.property = value.
type PropertyStoreValue struct {
	Object   Place
	Property string
	Value    Place
}

// ComputedLoadValue is object[property].
type ComputedLoadValue struct {
	Object   Place
	Property Place
}

// ComputedStoreValue is object[property] = value.
type ComputedStoreValue struct {
	Object   Place
	Property Place
	Value    Place
}

// BinaryValue is left op right.
type BinaryValue struct {
	Op    BinOp
	Left  Place
	Right Place
}

// UnaryValue is op operand.
type UnaryValue struct {
	Op      UnOp
	Operand Place
}

// Arg is one call argument, possibly spread.
type Arg struct {
	Value  Place
	Spread bool
}

// CallValue is callee(args...). Optional marks `?.()` call sites. Method
// calls keep their receiver so emission preserves the `this` binding:
// IsMethod selects Object.Property(args) (or Object[Computed](args)) and
// leaves Callee unused.
type CallValue struct {
	Callee   Place
	Args     []Arg
	Optional bool

	IsMethod bool
	Object   Place
	Property string
	Computed *Place
}

// NewValue is new callee(args...).
type NewValue struct {
	Callee Place
	Args   []Arg
}

// PropKey is a static or computed object key.
type PropKey struct {
	Name     string
	Computed *Place // nil for static keys
}

// ObjectProp is one object-literal property. Spread properties set Spread
// and leave Key zero.
type ObjectProp struct {
	Key    PropKey
	Value  Place
	Spread bool
}

// ObjectValue builds an object literal.
type ObjectValue struct {
	Props []ObjectProp
}

// ArrayElem is one array-literal element. A Hole has no value.
type ArrayElem struct {
	Value  Place
	Spread bool
	Hole   bool
}

// ArrayValue builds an array literal.
type ArrayValue struct {
	Elems []ArrayElem
}

// IterMode distinguishes for-of value iteration from for-in key iteration.
type IterMode uint8

const (
	IterOf IterMode = iota
	IterIn
)

// IterInitValue obtains an iterator over Iterable.
type IterInitValue struct {
	Mode     IterMode
	Iterable Place
}

// IterNextValue advances Iter and yields its {done, value} step object.
type IterNextValue struct {
	Iter Place
}

// FunctionValue references a nested (arrow or expression) function.
type FunctionValue struct {
	Func *Func
}

// PhiOperand is one incoming (predecessor, value) pair of a phi.
type PhiOperand struct {
	Pred BlockID
	Src  Place
}

// PhiValue merges values from predecessor blocks. Operands are filled during
// SSA renaming.
type PhiValue struct {
	Operands []PhiOperand
}

// Instr is one HIR instruction: `lvalue = value`.
type Instr struct {
	ID     InstrID
	Lvalue Place
	Val    Value
	Span   source.Span
	Scope  ScopeID
}

// IsPhi reports whether the instruction is a phi node.
func (in *Instr) IsPhi() bool {
	return in.Val.Kind == ValPhi
}

// EachOperand invokes fn on every operand place of the value, in evaluation
// order. The pointers allow in-place rewriting by the SSA rename pass.
func (v *Value) EachOperand(fn func(*Place)) {
	switch v.Kind {
	case ValConst, ValFunction:
	case ValLoadLocal:
		fn(&v.LoadLocal.Src)
	case ValStoreLocal:
		fn(&v.StoreLocal.Value)
	case ValPropertyLoad:
		fn(&v.PropertyLoad.Object)
	case ValPropertyStore:
		fn(&v.PropertyStore.Object)
		fn(&v.PropertyStore.Value)
	case ValComputedLoad:
		fn(&v.ComputedLoad.Object)
		fn(&v.ComputedLoad.Property)
	case ValComputedStore:
		fn(&v.ComputedStore.Object)
		fn(&v.ComputedStore.Property)
		fn(&v.ComputedStore.Value)
	case ValBinary:
		fn(&v.Binary.Left)
		fn(&v.Binary.Right)
	case ValUnary:
		fn(&v.Unary.Operand)
	case ValCall:
		if v.Call.IsMethod {
			fn(&v.Call.Object)
			if v.Call.Computed != nil {
				fn(v.Call.Computed)
			}
		} else {
			fn(&v.Call.Callee)
		}
		for i := range v.Call.Args {
			fn(&v.Call.Args[i].Value)
		}
	case ValNew:
		fn(&v.New.Callee)
		for i := range v.New.Args {
			fn(&v.New.Args[i].Value)
		}
	case ValObject:
		for i := range v.Object.Props {
			if v.Object.Props[i].Key.Computed != nil {
				fn(v.Object.Props[i].Key.Computed)
			}
			fn(&v.Object.Props[i].Value)
		}
	case ValArray:
		for i := range v.Array.Elems {
			if !v.Array.Elems[i].Hole {
				fn(&v.Array.Elems[i].Value)
			}
		}
	case ValIterInit:
		fn(&v.IterInit.Iterable)
	case ValIterNext:
		fn(&v.IterNext.Iter)
	case ValPhi:
		for i := range v.Phi.Operands {
			fn(&v.Phi.Operands[i].Src)
		}
	}
}
