// Package hir is the compiler core: a CFG-based intermediate representation
// of one surface function, plus the passes that run over it — lowering from
// the AST, dominator analysis, SSA construction, liveness and mutable-range
// inference, and reactive-scope construction.
//
// Blocks reference each other only by id; the Func owns the id-indexed block
// slice and the per-function id counters. Predecessor lists are recomputed
// from terminators on demand and are never a second source of truth.
package hir
