package compiler

import (
	"github.com/venusdb/sdl/pkg/ast"
	"github.com/venusdb/sdl/pkg/resolve"
)

// phase4 binds every remaining dotted name (spec.md §4.3 phase 4):
// `references` on fields, index/constraint `fields` lists, constraint
// `check` field references, and any other dotted-name property value.
func phase4(u *resolve.Universe, opts Options, diags *Diagnostics) {
	for _, id := range u.Arena.All() {
		d := u.Arena.Get(id)
		switch d.Kind {
		case ast.KindField:
			phase4References(u, d, diags)
		case ast.KindIndex, ast.KindConstraint:
			phase4Fields(u, d, diags)
			if d.Kind == ast.KindConstraint {
				phase4Check(u, d, diags)
			}
		}
		phase4GenericNames(u, d, diags)
	}
}

// (a)/(c) references has at most one argument, filtered to FieldSet; a
// zero-argument references is a universal reference (glossary) —
// never realized-propagating (phase 5(ii)), and (per DESIGN.md's Open
// Questions §9(a)) an error if the field carrying it is ever realized.
func phase4References(u *resolve.Universe, d *ast.Definition, diags *Diagnostics) {
	prop := d.Property("references")
	if prop == nil {
		return
	}
	path := defPath(u.Arena, d.ID)
	if len(prop.Values) > 1 {
		diags.errorf(4001, prop.Pos, path, "references accepts at most one argument")
		return
	}
	if len(prop.Values) == 0 {
		d.Universal = true
		return
	}
	v := prop.Values[0]
	if v.Kind != ast.ValueName {
		diags.errorf(4002, v.Pos, path, "references argument must be a dotted name")
		return
	}
	name := v.Name
	name.Filter = ast.KindFieldSet
	res := resolve.Bind(u, d.ID, name)
	if res == nil {
		diags.errorf(4003, name.Pos, path, "cannot resolve references target %q", name.Text)
		return
	}
	target := u.Arena.Get(res.Path.Target()).FinalImplementor
	if !u.Arena.Get(target).TopLevel {
		diags.errorf(4004, name.Pos, path, "references target %q must be top-level", name.Text)
		return
	}
	d.ReferencesTarget = target
}

// (d) index/constraint fields: dotted names to fields or fieldsets,
// textually contained in the owning fieldset, no duplicates.
func phase4Fields(u *resolve.Universe, d *ast.Definition, diags *Diagnostics) {
	prop := d.Property("fields")
	if prop == nil {
		return
	}
	path := defPath(u.Arena, d.ID)
	seen := map[ast.DefID]bool{}
	for i := range prop.Values {
		v := &prop.Values[i]
		if v.Kind != ast.ValueName {
			diags.errorf(4005, v.Pos, path, "fields argument must be a dotted name")
			continue
		}
		name := v.Name
		res := resolve.Bind(u, d.ID, name)
		if res == nil {
			diags.errorf(4006, name.Pos, path, "cannot resolve field %q", name.Text)
			continue
		}
		target := res.Path.Target()
		k := u.Arena.Get(target).Kind
		if k != ast.KindField && k != ast.KindFieldSet {
			diags.errorf(4007, name.Pos, path, "%q must name a field or fieldset", name.Text)
			continue
		}
		if !ast.StaticallyContains(u.Arena, d.Owner, target) {
			diags.errorf(4008, name.Pos, path, "%q is not contained in %s", name.Text, defPath(u.Arena, d.Owner))
			continue
		}
		if seen[target] {
			diags.errorf(4009, name.Pos, path, "duplicate field %q", name.Text)
			continue
		}
		seen[target] = true
		name.Target = target
		name.Path = []ast.DefID(res.Path)
	}
}

// (e) constraint.check must be present and non-empty; its dotted-name
// arguments must be fields contained by the owning fieldset. Non-name
// tokens are the constraint's opaque expression content (spec.md §1
// Non-goals: SQL expression parsing is out of scope).
func phase4Check(u *resolve.Universe, d *ast.Definition, diags *Diagnostics) {
	prop := d.Property("check")
	path := defPath(u.Arena, d.ID)
	if prop == nil || len(prop.Values) == 0 {
		diags.errorf(4010, d.Pos, path, "constraint %s requires a non-empty check", d.Name)
		return
	}
	for i := range prop.Values {
		v := &prop.Values[i]
		if v.Kind != ast.ValueName {
			continue
		}
		res := resolve.Bind(u, d.ID, v.Name)
		if res == nil {
			diags.errorf(4011, v.Pos, path, "cannot resolve check reference %q", v.Name.Text)
			continue
		}
		target := res.Path.Target()
		if u.Arena.Get(target).Kind != ast.KindField {
			diags.errorf(4012, v.Pos, path, "check reference %q must name a field", v.Name.Text)
			continue
		}
		if !ast.StaticallyContains(u.Arena, d.Owner, target) {
			diags.errorf(4013, v.Pos, path, "check reference %q is not contained in %s", v.Name.Text, defPath(u.Arena, d.Owner))
			continue
		}
		v.Name.Target = target
		v.Name.Path = []ast.DefID(res.Path)
	}
}

// (b) dynamically bind every other dotted-name occurrence: property
// values on non-reserved (user) properties, which the model otherwise
// leaves unresolved.
func phase4GenericNames(u *resolve.Universe, d *ast.Definition, diags *Diagnostics) {
	skip := map[string]bool{"ancestors": true, "implements": true, "references": true, "fields": true, "check": true}
	path := defPath(u.Arena, d.ID)
	for _, prop := range d.Properties {
		if skip[prop.Name] || ast.ReservedProperties[prop.Name] {
			continue
		}
		for i := range prop.Values {
			v := &prop.Values[i]
			if v.Kind != ast.ValueName {
				continue
			}
			res := resolve.Bind(u, d.ID, v.Name)
			if res == nil {
				diags.errorf(4014, v.Pos, path, "cannot resolve %q", v.Name.Text)
				continue
			}
			v.Name.Target = res.Path.Target()
			v.Name.Path = []ast.DefID(res.Path)
		}
	}
}
