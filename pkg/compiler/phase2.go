package compiler

import (
	"github.com/venusdb/sdl/pkg/ast"
	"github.com/venusdb/sdl/pkg/resolve"
)

// phase2 builds the implementation tree (spec.md §4.3 phase 2): elects
// a unique direct implementor per target, chases the chain to a final
// implementor, validates abstract/required/final constraints, and
// partitions declarations by final implementor.
func phase2(u *resolve.Universe, opts Options, diags *Diagnostics) {
	implementors := map[ast.DefID][]ast.DefID{}
	for _, id := range u.Arena.All() {
		d := u.Arena.Get(id)
		for _, target := range d.Implements {
			implementors[target] = append(implementors[target], id)
		}
	}

	// (a) multiple implementors.
	for target, declarers := range implementors {
		if len(declarers) > 1 {
			t := u.Arena.Get(target)
			diags.errorf(2001, t.Pos, defPath(u.Arena, target), "%s has multiple implementors", t.Name)
			continue
		}
		u.Arena.Get(target).DirectImplementor = declarers[0]
		u.Arena.Get(target).Implementations = declarers
	}

	// (b) forbid implementing a definition whose ancestors contain any
	// implementation-indirection name.
	for _, id := range u.Arena.All() {
		d := u.Arena.Get(id)
		for _, target := range d.Implements {
			t := u.Arena.Get(target)
			if anc := t.Property("ancestors"); anc != nil {
				for i := range anc.Values {
					if v := anc.Values[i]; v.Kind == ast.ValueName && v.Name.Indirect {
						diags.errorf(2002, d.Pos, defPath(u.Arena, id),
							"%s cannot implement %s: its ancestors list uses implementation-indirection", d.Name, t.Name)
					}
				}
			}
		}
	}

	// (c) compute final implementor by chasing DirectImplementor.
	for _, id := range u.Arena.All() {
		d := u.Arena.Get(id)
		cur := id
		for {
			next := u.Arena.Get(cur).DirectImplementor
			if next == ast.NoDef {
				break
			}
			cur = next
		}
		d.FinalImplementor = cur
	}

	// (d) abstract+required must have a non-self final implementor;
	// final cannot be implemented.
	for _, id := range u.Arena.All() {
		d := u.Arena.Get(id)
		if d.Modifiers.Has(ast.ModAbstract) && d.Modifiers.Has(ast.ModRequired) && d.FinalImplementor == d.ID {
			diags.errorf(2003, d.Pos, defPath(u.Arena, id), "%s is abstract and required but has no implementor", d.Name)
		}
		if d.Modifiers.Has(ast.ModFinal) && d.DirectImplementor != ast.NoDef {
			diags.errorf(2004, d.Pos, defPath(u.Arena, id), "%s is final and cannot be implemented", d.Name)
		}
	}

	// (e) partition by final implementor; validate no static
	// containment within a partition; populate Specifications.
	partitions := map[ast.DefID][]ast.DefID{}
	for _, id := range u.Arena.All() {
		f := u.Arena.Get(id).FinalImplementor
		partitions[f] = append(partitions[f], id)
	}
	for _, members := range partitions {
		for i, a := range members {
			for _, b := range members[i+1:] {
				if ast.StaticallyContains(u.Arena, a, b) || ast.StaticallyContains(u.Arena, b, a) {
					da, db := u.Arena.Get(a), u.Arena.Get(b)
					diags.errorf(2005, da.Pos, defPath(u.Arena, a),
						"%s and %s (same final implementor) statically contain one another", da.Name, db.Name)
				}
			}
		}
		for _, id := range members {
			u.Arena.Get(id).Specifications = members
		}
	}
}
