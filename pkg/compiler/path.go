package compiler

import (
	"strings"

	"github.com/venusdb/sdl/pkg/ast"
)

// defPath renders a definition's dotted path for diagnostics: the
// owning schema's package name followed by each Owner-chain segment's
// local name, e.g. "acme.app.widget.name".
func defPath(arena *ast.Arena, id ast.DefID) string {
	if id == ast.NoDef {
		return "<none>"
	}
	var segs []string
	for cur := id; cur != ast.NoDef; cur = arena.Get(cur).Owner {
		def := arena.Get(cur)
		if def.Kind == ast.KindSchema {
			segs = append([]string{def.PackageName}, segs...)
			break
		}
		segs = append([]string{def.Name}, segs...)
	}
	return strings.Join(segs, ".")
}
