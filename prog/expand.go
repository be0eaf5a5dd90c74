// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package prog

import (
	"fmt"
	"iter"
)

// CallSpec is one parsed template line.
type CallSpec struct {
	NR       uint64
	Name     string
	Tags     []*Tag
	NoOracle bool
	// Chained calls are appended to the case of the previous line.
	Chained bool
	Line    int
}

// CaseSpec is a sequence of call specifications encoded into the same replay files.
// The last call names the cases, the preceding ones set up state for it.
type CaseSpec struct {
	Calls    []*CallSpec
	NoOracle bool
	File     string
	Line     int
}

func (spec *CaseSpec) Primary() *CallSpec {
	return spec.Calls[len(spec.Calls)-1]
}

func (spec *CaseSpec) String() string {
	return fmt.Sprintf("%v:%v", spec.File, spec.Line)
}

// Expansion is the lazily enumerated product of all argument positions of a case specification.
type Expansion struct {
	Spec  *CaseSpec
	lists [][]Arg
	count uint64
}

// Expand resolves every argument position of every call of spec.
func (r *Resolver) Expand(spec *CaseSpec) (*Expansion, error) {
	e := &Expansion{Spec: spec}
	for _, call := range spec.Calls {
		for _, tag := range call.Tags {
			vals, err := r.Resolve(tag)
			if err != nil {
				return nil, fmt.Errorf("%v:%v: %w", spec.File, call.Line, err)
			}
			e.lists = append(e.lists, vals)
		}
	}
	count, ok := CrossCount(e.lists)
	if !ok {
		return nil, fmt.Errorf("%w: %v: too many combinations", ErrTemplateSyntax, spec)
	}
	e.count = count
	return e, nil
}

// Count returns the number of cases, i.e. the product of the number of values of all positions.
func (e *Expansion) Count() uint64 {
	return e.count
}

// Cases enumerates all cases in product order.
func (e *Expansion) Cases() iter.Seq2[uint64, *Case] {
	return func(yield func(uint64, *Case) bool) {
		for idx, tuple := range Cross(e.lists) {
			if !yield(idx, e.makeCase(idx, tuple)) {
				return
			}
		}
	}
}

// Case returns the case with the given index.
func (e *Expansion) Case(idx uint64) (*Case, bool) {
	tuple, ok := CrossAt(e.lists, idx)
	if !ok {
		return nil, false
	}
	return e.makeCase(idx, tuple), true
}

func (e *Expansion) makeCase(idx uint64, tuple []Arg) *Case {
	c := &Case{
		NoOracle: e.Spec.NoOracle,
		Index:    idx,
	}
	for _, spec := range e.Spec.Calls {
		c.Calls = append(c.Calls, &Call{
			NR:   spec.NR,
			Name: spec.Name,
			Args: tuple[:len(spec.Tags):len(spec.Tags)],
		})
		tuple = tuple[len(spec.Tags):]
	}
	return c
}
