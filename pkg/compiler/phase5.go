package compiler

import (
	"github.com/venusdb/sdl/pkg/ast"
	"github.com/venusdb/sdl/pkg/resolve"
)

// phase5 computes the realized set via fixed-point from the required
// roots (spec.md §4.3 phase 5).
func phase5(u *resolve.Universe, opts Options, diags *Diagnostics) {
	arena := u.Arena

	realizedSchema := map[ast.DefID]bool{}
	for _, src := range opts.mainSources {
		realizedSchema[src] = true
	}

	// Grow realized schemas by the closure over required imports.
	for changed := true; changed; {
		changed = false
		for id := range realizedSchema {
			for _, use := range arena.Get(id).Imports {
				if use.Required && use.Resolved != ast.NoDef && !realizedSchema[use.Resolved] {
					realizedSchema[use.Resolved] = true
					changed = true
				}
			}
		}
	}
	for id := range realizedSchema {
		arena.Get(id).Realized = true
	}

	realized := map[ast.DefID]bool{}
	for schemaID := range realizedSchema {
		schema := arena.Get(schemaID)
		for _, itemID := range schema.Items {
			item := arena.Get(itemID)
			if item.Kind == ast.KindFieldSet && item.Modifiers.Has(ast.ModRequired) {
				impl := arena.Get(item.FinalImplementor)
				if !impl.TopLevel {
					diags.errorf(5001, item.Pos, defPath(arena, itemID), "required fieldset %s's final implementor is not top-level", item.Name)
					continue
				}
				realized[impl.ID] = true
			}
		}
	}

	for changed := true; changed; {
		changed = false
		for id := range snapshotKeys(realized) {
			d := arena.Get(id)
			if d.Kind != ast.KindFieldSet {
				continue
			}
			for _, m := range d.Members {
				target := arena.Get(m.Target)
				if (target.Kind == ast.KindField || target.Kind == ast.KindFieldSet) && !realized[m.Target] {
					realized[m.Target] = true
					changed = true
				}
			}
		}
		for id := range snapshotKeys(realized) {
			d := arena.Get(id)
			if d.Kind == ast.KindField && !d.Universal && d.ReferencesTarget != ast.NoDef && !realized[d.ReferencesTarget] {
				realized[d.ReferencesTarget] = true
				changed = true
			}
		}
		// propagate realization to all specifications of realized
		// definitions.
		for id := range snapshotKeys(realized) {
			for _, spec := range arena.Get(id).Specifications {
				if !realized[spec] {
					realized[spec] = true
					changed = true
				}
			}
		}
	}

	for id := range realized {
		arena.Get(id).Realized = true
	}

	for id := range realized {
		d := arena.Get(id)
		if d.IsSelfImplementing() && d.Modifiers.Has(ast.ModAbstract) {
			diags.errorf(5002, d.Pos, defPath(arena, id), "%s is realized, self-implementing, and abstract", d.Name)
		}
		if d.Kind == ast.KindField && d.Universal {
			diags.errorf(5003, d.Pos, defPath(arena, id), "%s is realized with a removed/universal reference (open question, see DESIGN.md)", d.Name)
		}
	}
}

func snapshotKeys(m map[ast.DefID]bool) []ast.DefID {
	out := make([]ast.DefID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	return out
}
