package compiler

import (
	"github.com/venusdb/sdl/pkg/ast"
	"github.com/venusdb/sdl/pkg/resolve"
)

// phase7 performs shape and property validation (spec.md §4.3 phase 7).
func phase7(u *resolve.Universe, opts Options, diags *Diagnostics) {
	arena := u.Arena
	guids := map[string]ast.DefID{}

	for _, id := range arena.All() {
		d := arena.Get(id)
		path := defPath(arena, id)

		if d.Kind == ast.KindFieldSet && d.Realized {
			phase7FieldsetShape(arena, d, path, diags)
		}
		if d.Kind == ast.KindField && d.TopLevel && d.Modifiers.Has(ast.ModRequired) {
			diags.warnf(7001, d.Pos, path, "top-level field %s should not be required", d.Name)
		}

		phase7PropertyShapes(arena, d, path, diags)
		phase7Cluster(u, d, path, diags)

		if d.Kind == ast.KindSchema {
			phase7GUID(d, path, guids, diags, true)
		}
		if d.Kind == ast.KindFieldSet && d.TopLevel && d.Realized && d.IsSelfImplementing() {
			phase7GUID(d, path, guids, diags, true)
		}
	}
}

// realized top-level fieldsets must contain >=1 realized field;
// non-top-level realized fieldsets should; realized top-level
// fieldsets should not have non-top-level specifications.
func phase7FieldsetShape(arena *ast.Arena, d *ast.Definition, path string, diags *Diagnostics) {
	fields := 0
	for _, m := range d.Members {
		item := arena.Get(m.Target)
		if item.Kind == ast.KindField && item.Realized {
			fields++
		}
	}
	if d.TopLevel {
		if fields == 0 {
			diags.errorf(7002, d.Pos, path, "realized top-level fieldset %s contains no realized field", d.Name)
		}
		for _, specID := range d.Specifications {
			spec := arena.Get(specID)
			if !spec.TopLevel {
				diags.warnf(7003, d.Pos, path, "realized top-level fieldset %s has a non-top-level specification %s", d.Name, spec.Name)
			}
		}
	} else if fields == 0 {
		diags.warnf(7004, d.Pos, path, "realized fieldset %s should contain at least one field", d.Name)
	}
}

type propRule struct {
	minArgs, maxArgs int // maxArgs<0 means unbounded
	kind             ast.ValueKind
	enum             []string
}

var propRules = map[string]propRule{
	"unique":    {0, 1, ast.ValueBool, nil},
	"type":      {1, 1, ast.ValueName, nil},
	"size":      {1, 1, ast.ValueInt, nil},
	"precision": {1, 1, ast.ValueInt, nil},
	"notnull":   {1, 1, ast.ValueBool, nil},
	"immutable": {1, 1, ast.ValueBool, nil},
	"default":   {1, 1, -1, nil},
	"reqlevel":  {1, 1, ast.ValueString, []string{"required", "desired", "optional"}},
	"ondelete":  {1, 1, ast.ValueString, []string{"cascade", "setnull", "noaction"}},
	"onupdate":  {1, 1, ast.ValueString, []string{"cascade", "setnull", "noaction"}},
	"guid":      {1, 1, ast.ValueString, nil},
	"language":  {1, 1, ast.ValueString, nil},
}

// property argument counts/types are checked against each reserved
// property's schema; notnull true is incompatible with
// ondelete/onupdate setnull.
func phase7PropertyShapes(arena *ast.Arena, d *ast.Definition, path string, diags *Diagnostics) {
	for _, prop := range d.Properties {
		rule, ok := propRules[prop.Name]
		if !ok {
			continue
		}
		if len(prop.Values) < rule.minArgs || (rule.maxArgs >= 0 && len(prop.Values) > rule.maxArgs) {
			diags.errorf(7005, prop.Pos, path, "%s takes between %d and %d arguments", prop.Name, rule.minArgs, rule.maxArgs)
			continue
		}
		if rule.kind == -1 {
			continue
		}
		for i := range prop.Values {
			v := &prop.Values[i]
			if v.Kind != rule.kind {
				diags.errorf(7006, v.Pos, path, "%s argument must be a %v", prop.Name, rule.kind)
				continue
			}
			if rule.kind == ast.ValueString && len(rule.enum) > 0 && !contains(rule.enum, v.Str) {
				diags.errorf(7007, v.Pos, path, "%s value %q is not one of %v", prop.Name, v.Str, rule.enum)
			}
		}
	}

	notnull := boolProp(d, "notnull")
	if notnull != nil && *notnull {
		if a := stringProp(d, "ondelete"); a != nil && *a == "setnull" {
			diags.errorf(7008, d.Pos, path, "%s: notnull true is incompatible with ondelete setnull", d.Name)
		}
		if a := stringProp(d, "onupdate"); a != nil && *a == "setnull" {
			diags.errorf(7009, d.Pos, path, "%s: notnull true is incompatible with onupdate setnull", d.Name)
		}
	}
}

// cluster points to an index at the same level.
func phase7Cluster(u *resolve.Universe, d *ast.Definition, path string, diags *Diagnostics) {
	prop := d.Property("cluster")
	if prop == nil || len(prop.Values) == 0 || prop.Values[0].Kind != ast.ValueName {
		return
	}
	name := prop.Values[0].Name
	name.Filter = ast.KindIndex
	res := resolve.BindStatic(u, d.ID, name)
	if res == nil || u.Arena.Get(res.Path.Target()).Kind != ast.KindIndex {
		diags.errorf(7010, name.Pos, path, "cluster must name an index at the same level")
	}
}

// GUID is required on schemas and self-realized top-level fieldsets;
// GUID values are globally unique in the compilation.
func phase7GUID(d *ast.Definition, path string, seen map[string]ast.DefID, diags *Diagnostics, required bool) {
	prop := d.Property("guid")
	if prop == nil || len(prop.Values) != 1 || prop.Values[0].Kind != ast.ValueString {
		if required {
			diags.errorf(7011, d.Pos, path, "%s requires a guid", d.Name)
		}
		return
	}
	guid := prop.Values[0].Str
	d.GUID = guid
	if other, ok := seen[guid]; ok && other != d.ID {
		diags.errorf(7012, d.Pos, path, "duplicate guid %q", guid)
		return
	}
	seen[guid] = d.ID
}

func boolProp(d *ast.Definition, name string) *bool {
	p := d.Property(name)
	if p == nil || len(p.Values) != 1 || p.Values[0].Kind != ast.ValueBool {
		return nil
	}
	return &p.Values[0].Bool
}

func stringProp(d *ast.Definition, name string) *string {
	p := d.Property(name)
	if p == nil || len(p.Values) != 1 || p.Values[0].Kind != ast.ValueString {
		return nil
	}
	return &p.Values[0].Str
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
