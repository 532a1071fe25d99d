package hir

import (
	"errors"
	"fmt"
)

// Validate checks the structural invariants of a lowered function.
// Violations are internal errors, annotated with the failing block or
// instruction id.
func Validate(f *Func) error {
	if f == nil {
		return nil
	}
	var errs []error

	if err := validateTerminated(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateTargets(f); err != nil {
		errs = append(errs, err)
	}
	if err := validatePreds(f); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ValidateSSA additionally checks the single-definition property after
// renaming.
func ValidateSSA(f *Func) error {
	var errs []error
	if err := Validate(f); err != nil {
		errs = append(errs, err)
	}

	seen := make(map[IdentKey]InstrID)
	for _, b := range f.Blocks {
		for i := range b.Instrs {
			in := &b.Instrs[i]
			key := in.Lvalue.Ident.Key()
			if prev, ok := seen[key]; ok {
				errs = append(errs, fmt.Errorf(
					"instr %d: %s_%d already defined at instr %d",
					in.ID, key.Name, key.Version, prev))
				continue
			}
			seen[key] = in.ID
		}
	}
	return errors.Join(errs...)
}

func validateTerminated(f *Func) error {
	var errs []error
	for _, b := range f.Blocks {
		if !b.Terminated() {
			errs = append(errs, fmt.Errorf("bb%d: unterminated block", b.ID))
		}
	}
	return errors.Join(errs...)
}

func validateTargets(f *Func) error {
	var errs []error
	for _, b := range f.Blocks {
		for _, t := range b.Successors() {
			if f.Block(t) == nil {
				errs = append(errs, fmt.Errorf("bb%d: terminator target bb%d does not exist", b.ID, t))
			}
		}
	}
	return errors.Join(errs...)
}

// validatePreds checks that every reachable non-entry block has a
// predecessor and that predecessor links match successor edges.
func validatePreds(f *Func) error {
	f.RecomputePreds()
	var errs []error

	reachable := make(map[BlockID]bool)
	for _, id := range f.RPO() {
		reachable[id] = true
	}

	for _, b := range f.Blocks {
		if !reachable[b.ID] || b.ID == f.Entry {
			continue
		}
		if len(b.Preds) == 0 {
			errs = append(errs, fmt.Errorf("bb%d: reachable non-entry block has no predecessors", b.ID))
		}
		for _, p := range b.Preds {
			pb := f.Block(p)
			if pb == nil {
				errs = append(errs, fmt.Errorf("bb%d: predecessor bb%d does not exist", b.ID, p))
				continue
			}
			linked := false
			for _, succ := range pb.Successors() {
				if succ == b.ID {
					linked = true
					break
				}
			}
			if !linked {
				errs = append(errs, fmt.Errorf("bb%d: predecessor bb%d does not link back", b.ID, p))
			}
		}
	}
	return errors.Join(errs...)
}

// ValidateScopes checks scope disjointness and dependency closure.
func ValidateScopes(res *ScopeResult, lv *Liveness) error {
	var errs []error
	for i := 0; i < len(res.Scopes); i++ {
		for j := i + 1; j < len(res.Scopes); j++ {
			a, b := res.Scopes[i].Range, res.Scopes[j].Range
			if a[0] < b[1] && b[0] < a[1] {
				errs = append(errs, fmt.Errorf("scope %d and %d ranges intersect", res.Scopes[i].ID, res.Scopes[j].ID))
			}
		}
	}
	for _, s := range res.Scopes {
		for _, dep := range s.Dependencies {
			if idx, ok := lv.DefIndex[dep.Ident.Key()]; ok {
				if idx >= s.Range[0] && idx < s.Range[1] {
					errs = append(errs, fmt.Errorf(
						"scope %d: dependency %s defined inside the scope", s.ID, dep.Ident))
				}
			}
		}
	}
	return errors.Join(errs...)
}
