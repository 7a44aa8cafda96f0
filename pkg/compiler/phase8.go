package compiler

import (
	"github.com/venusdb/sdl/pkg/ast"
	"github.com/venusdb/sdl/pkg/resolve"
)

// phase8 resolves each realized field's logical type against the
// vendor's type map and validates size/precision requirements
// (spec.md §4.3 phase 8, §6). It only runs when Options.TypeMap is
// set; Compile skips it otherwise so a schema can be checked without
// committing to a vendor.
func phase8(u *resolve.Universe, opts Options, diags *Diagnostics) {
	arena := u.Arena
	for _, id := range arena.All() {
		d := arena.Get(id)
		if d.Kind != ast.KindField || !d.Realized {
			continue
		}
		path := defPath(arena, id)

		typeProp := d.Property("type")
		if typeProp == nil || len(typeProp.Values) != 1 || typeProp.Values[0].Kind != ast.ValueName {
			diags.errorf(8001, d.Pos, path, "realized field %s has no type", d.Name)
			continue
		}
		name := typeProp.Values[0].Name
		spec, ok := opts.TypeMap.Resolve(name.Text)
		if !ok {
			diags.errorf(8002, name.Pos, path, "%s: %s is not a known type for this vendor", d.Name, name.Text)
			continue
		}

		if spec.NeedsSize && d.Property("size") == nil {
			diags.errorf(8003, d.Pos, path, "%s: type %s requires a size", d.Name, name.Text)
		}
		if spec.NeedsPrecision && d.Property("precision") == nil {
			diags.errorf(8004, d.Pos, path, "%s: type %s requires a precision", d.Name, name.Text)
		}
	}
}
