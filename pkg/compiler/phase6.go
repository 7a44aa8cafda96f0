package compiler

import (
	"github.com/venusdb/sdl/pkg/ast"
	"github.com/venusdb/sdl/pkg/resolve"
)

// phase6 is the required-realization check (spec.md §4.3 phase 6): for
// every realized fieldset, every `required` member of any of its
// specifications must itself be realized.
func phase6(u *resolve.Universe, opts Options, diags *Diagnostics) {
	arena := u.Arena
	for _, id := range arena.All() {
		d := arena.Get(id)
		if d.Kind != ast.KindFieldSet || !d.Realized {
			continue
		}
		for _, specID := range d.Specifications {
			spec := arena.Get(specID)
			for _, itemID := range spec.Items {
				item := arena.Get(itemID)
				if item.Modifiers.Has(ast.ModRequired) && !item.Realized {
					diags.errorf(6001, item.Pos, defPath(arena, itemID),
						"%s is required by %s but is not realized", item.Name, defPath(arena, id))
				}
			}
		}
	}
}
