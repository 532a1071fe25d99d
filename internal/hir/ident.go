package hir

import (
	"fmt"
)

// Identifier names a value site. Before SSA an identifier is (Name, ID);
// after renaming (Name, Version) uniquely picks the defining instruction.
type Identifier struct {
	Name    string
	ID      IdentID
	Version int
	Mutable bool
}

// Key returns the post-SSA identity of the identifier.
func (id Identifier) Key() IdentKey {
	return IdentKey{Name: id.Name, Version: id.Version}
}

func (id Identifier) String() string {
	if id.Version > 0 {
		return fmt.Sprintf("%s_%d", id.Name, id.Version)
	}
	return id.Name
}

// IdentKey is the comparable (name, version) pair used as a map key.
type IdentKey struct {
	Name    string
	Version int
}

// Effect describes how an instruction touches an operand place.
type Effect uint8

const (
	// EffectRead observes the value.
	EffectRead Effect = iota
	// EffectCapture stores the value inside another value (argument,
	// literal element, closure).
	EffectCapture
	// EffectMutate may modify the referenced value in place.
	EffectMutate
	// EffectStore overwrites the binding itself.
	EffectStore
)

func (e Effect) String() string {
	switch e {
	case EffectRead:
		return "read"
	case EffectCapture:
		return "capture"
	case EffectMutate:
		return "mutate"
	case EffectStore:
		return "store"
	}
	return "?"
}

// Place is an identifier plus the effect the referencing instruction has
// on it.
type Place struct {
	Ident  Identifier
	Effect Effect
}
