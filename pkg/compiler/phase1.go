package compiler

import (
	"github.com/venusdb/sdl/pkg/ast"
	"github.com/venusdb/sdl/pkg/resolve"
)

// reservedKeywords is the SDL surface keyword set (spec.md §6); a
// declaration's own name may not collide with one.
var reservedKeywords = map[string]bool{
	"schema": true, "fieldset": true, "field": true, "index": true,
	"constraint": true, "use": true, "require": true, "as": true,
	"final": true, "abstract": true, "required": true, "rename": true,
	"delete": true, "fields": true,
}

// phase1 is the per-definition lexical validation pass (spec.md
// §4.3 phase 1).
func phase1(u *resolve.Universe, opts Options, diags *Diagnostics) {
	for _, d := range allDefs(u) {
		phase1Uses(u, d, diags)
		phase1Names(u, d, diags)
		phase1Duplicates(u, d, diags)
		phase1Modifiers(d, diags)
		phase1Implements(u, d, diags)
	}
	phase1ImplementsCycles(u, diags)
}

// (a) use statements don't target self; each source used at most once
// per schema.
func phase1Uses(u *resolve.Universe, d *ast.Definition, diags *Diagnostics) {
	if d.Kind != ast.KindSchema {
		return
	}
	seen := map[ast.DefID]bool{}
	for _, use := range d.Imports {
		if use.Resolved == d.ID {
			diags.errorf(1001, use.Pos, defPath(u.Arena, d.ID), "schema %q cannot use itself", use.Schema)
			continue
		}
		if use.Resolved != ast.NoDef {
			if seen[use.Resolved] {
				diags.errorf(1002, use.Pos, defPath(u.Arena, d.ID), "duplicate use of %q in this schema", use.Schema)
			}
			seen[use.Resolved] = true
		}
	}
}

// (b)/(d) names don't contain "." (guaranteed by the parser), don't
// collide with reserved keywords, and don't collide with reserved
// property names (since a Definition's Name is never itself a
// property). "id" is forbidden outright.
func phase1Names(u *resolve.Universe, d *ast.Definition, diags *Diagnostics) {
	if d.Name == "" {
		return
	}
	if d.Name == "id" {
		diags.errorf(1003, d.Pos, defPath(u.Arena, d.ID), "%q is a forbidden identifier", d.Name)
		return
	}
	if reservedKeywords[d.Name] {
		diags.errorf(1004, d.Pos, defPath(u.Arena, d.ID), "%q collides with a reserved keyword", d.Name)
	}
	if ast.ReservedProperties[d.Name] {
		diags.errorf(1005, d.Pos, defPath(u.Arena, d.ID), "%q collides with a reserved property name", d.Name)
	}
}

// (c) no duplicate names in a container; aliases don't collide with
// own top-level names.
func phase1Duplicates(u *resolve.Universe, d *ast.Definition, diags *Diagnostics) {
	seen := map[string]bool{}
	for _, itemID := range d.Items {
		item := u.Arena.Get(itemID)
		if seen[item.Name] {
			diags.errorf(1006, item.Pos, defPath(u.Arena, itemID), "duplicate name %q in %s", item.Name, defPath(u.Arena, d.ID))
		}
		seen[item.Name] = true
	}
	if d.Kind != ast.KindSchema {
		return
	}
	top := map[string]bool{}
	for _, itemID := range d.Items {
		top[u.Arena.Get(itemID).Name] = true
	}
	for _, use := range d.Imports {
		if use.Alias != "" && top[use.Alias] {
			diags.errorf(1007, use.Pos, defPath(u.Arena, d.ID), "use alias %q collides with a top-level name", use.Alias)
		}
	}
}

// (e) abstract and final are mutually exclusive.
func phase1Modifiers(d *ast.Definition, diags *Diagnostics) {
	if d.Modifiers.Has(ast.ModAbstract) && d.Modifiers.Has(ast.ModFinal) {
		diags.errorf(1008, d.Pos, "", "%s cannot be both abstract and final", d.Name)
	}
}

// (f)/(g) flatten, bind, and validate the `implements` property.
func phase1Implements(u *resolve.Universe, d *ast.Definition, diags *Diagnostics) {
	prop := d.Property("implements")
	if prop == nil {
		return
	}
	path := defPath(u.Arena, d.ID)

	// (f) flatten: "all" expands to the declaring definition's own
	// (textual, unresolved) ancestors list at this point; the resolved
	// ancestor set is not computed until phase 3.
	var names []*ast.DottedName
	for i := range prop.Values {
		v := &prop.Values[i]
		switch v.Kind {
		case ast.ValueAll:
			if anc := d.Property("ancestors"); anc != nil {
				for j := range anc.Values {
					if anc.Values[j].Kind == ast.ValueName {
						names = append(names, anc.Values[j].Name)
					}
				}
			}
		case ast.ValueName:
			names = append(names, v.Name)
		default:
			diags.errorf(1009, v.Pos, path, "implements argument must be a dotted name")
		}
	}

	for _, name := range names {
		if name.Indirect {
			diags.errorf(1010, name.Pos, path, "implements target %q may not use implementation-indirection", name.Text)
			continue
		}
		name.Filter = d.Kind
		res := resolve.BindStatic(u, d.ID, name)
		if res == nil {
			diags.errorf(1011, name.Pos, path, "cannot resolve implements target %q", name.Text)
			continue
		}
		target := res.Path.Target()
		if target == d.ID {
			diags.errorf(1012, name.Pos, path, "%s cannot implement itself", d.Name)
			continue
		}
		if ast.StaticallyContains(u.Arena, d.ID, target) || ast.StaticallyContains(u.Arena, target, d.ID) {
			diags.errorf(1013, name.Pos, path, "%s cannot implement %s: static containment", d.Name, defPath(u.Arena, target))
			continue
		}
		d.Implements = append(d.Implements, target)
	}
}

// (h) no cycles in the implements relation.
func phase1ImplementsCycles(u *resolve.Universe, diags *Diagnostics) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[ast.DefID]int{}
	var visit func(id ast.DefID) bool
	visit = func(id ast.DefID) bool {
		switch color[id] {
		case gray:
			return true
		case black:
			return false
		}
		color[id] = gray
		for _, t := range u.Arena.Get(id).Implements {
			if visit(t) {
				return true
			}
		}
		color[id] = black
		return false
	}
	for _, id := range u.Arena.All() {
		if color[id] == white && visit(id) {
			d := u.Arena.Get(id)
			diags.errorf(1014, d.Pos, defPath(u.Arena, id), "cyclic implements relation involving %s", d.Name)
		}
	}
}
