package resolve

import (
	"strings"

	"github.com/venusdb/sdl/pkg/ast"
)

// Path is a resolution path: the chain of DefIDs traversed from (but
// not including) the lookup origin down to the resolved target. Two
// textually distinct routes through a shared sub-definition produce
// different Paths even when they end at the same DefID — this is what
// lets a containing fieldset distinguish two realizations of a common
// referenced fieldset (spec.md §4.2).
type Path []ast.DefID

// Target returns the final element of the path, or ast.NoDef for an
// empty path.
func (p Path) Target() ast.DefID {
	if len(p) == 0 {
		return ast.NoDef
	}
	return p[len(p)-1]
}

// Result is what a bind operation returns on success. Warning is set
// when the match was only reached via the origin-schema's own
// package-name-prefix fallback (spec.md §4.2, "tolerate ... with a
// warning").
type Result struct {
	Path    Path
	Warning string
}

// Universe is the read-only context a resolver needs beyond the arena
// itself: the set of loaded schemas, keyed by declared package name,
// so absolute names and `use` targets can be matched against package
// prefixes.
type Universe struct {
	Arena     *ast.Arena
	ByPackage map[string]ast.DefID
}

func splitName(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, ".")
}

func findChild(arena *ast.Arena, container ast.DefID, name string) ast.DefID {
	def := arena.Get(container)
	if def == nil {
		return ast.NoDef
	}
	for _, itemID := range def.Items {
		if item := arena.Get(itemID); item != nil && item.Name == name {
			return itemID
		}
	}
	return ast.NoDef
}

func findMember(arena *ast.Arena, container ast.DefID, name string) ast.DefID {
	def := arena.Get(container)
	if def == nil {
		return ast.NoDef
	}
	for _, m := range def.Members {
		if m.Name == name {
			return m.Target
		}
	}
	return ast.NoDef
}

// finalOf substitutes a member target for its final implementor
// (spec.md §4.2 "targets are replaced by their final implementors");
// falls back to the target itself if the implementation tree hasn't
// been computed yet (phase 2 hasn't run).
func finalOf(arena *ast.Arena, id ast.DefID) ast.DefID {
	def := arena.Get(id)
	if def == nil || def.FinalImplementor == ast.NoDef {
		return id
	}
	return def.FinalImplementor
}

// matchPackagePrefix finds the longest dotted prefix of segs that
// names a loaded schema's package, returning its DefID and how many
// segments it consumed.
func matchPackagePrefix(u *Universe, segs []string) (ast.DefID, int) {
	for n := len(segs); n >= 1; n-- {
		name := strings.Join(segs[:n], ".")
		if id, ok := u.ByPackage[name]; ok {
			return id, n
		}
	}
	return ast.NoDef, 0
}

func staticDescend(arena *ast.Arena, container ast.DefID, segs []string, filter ast.Kind) (Path, bool) {
	cur := container
	var path Path
	for _, seg := range segs {
		child := findChild(arena, cur, seg)
		if child == ast.NoDef {
			return nil, false
		}
		path = append(path, child)
		cur = child
	}
	if len(path) > 0 && !filter.Accepts(arena.Get(path.Target()).Kind) {
		return nil, false
	}
	return path, true
}

func dynamicDescend(arena *ast.Arena, container ast.DefID, segs []string, filter ast.Kind) (Path, bool) {
	cur := container
	var path Path
	for _, seg := range segs {
		target := findMember(arena, cur, seg)
		if target == ast.NoDef {
			return nil, false
		}
		final := finalOf(arena, target)
		path = append(path, final)
		cur = final
	}
	if len(path) > 0 && !filter.Accepts(arena.Get(path.Target()).Kind) {
		return nil, false
	}
	return path, true
}

// BindStatic implements spec.md §4.2's static binding: containment
// search upwards from origin, then alias/package-prefix search over
// origin's schema's imports, then (with a warning) origin's own
// package-name prefix. Absolute names instead start from the matching
// top-level schema.
func BindStatic(u *Universe, origin ast.DefID, name *ast.DottedName) *Result {
	segs := splitName(name.Text)
	if len(segs) == 0 {
		return nil
	}
	arena := u.Arena

	if name.Absolute {
		startID, consumed := matchPackagePrefix(u, segs)
		if startID == ast.NoDef {
			return nil
		}
		rest := segs[consumed:]
		if len(rest) == 0 {
			if !name.Filter.Accepts(arena.Get(startID).Kind) {
				return nil
			}
			return &Result{Path: Path{startID}}
		}
		p, ok := staticDescend(arena, startID, rest, name.Filter)
		if !ok {
			return nil
		}
		return &Result{Path: append(Path{startID}, p...)}
	}

	for cur := origin; cur != ast.NoDef; cur = arena.Get(cur).Owner {
		if p, ok := staticDescend(arena, cur, segs, name.Filter); ok {
			return &Result{Path: p}
		}
	}

	schemaID := arena.Get(origin).SchemaID
	schema := arena.Get(schemaID)
	for _, use := range schema.Imports {
		if use.Resolved == ast.NoDef {
			continue
		}
		var prefix []string
		if use.Alias != "" {
			prefix = []string{use.Alias}
		} else {
			prefix = splitName(use.Schema)
		}
		if len(segs) < len(prefix) || !hasPrefix(segs, prefix) {
			continue
		}
		rest := segs[len(prefix):]
		if len(rest) == 0 {
			if !name.Filter.Accepts(arena.Get(use.Resolved).Kind) {
				continue
			}
			return &Result{Path: Path{use.Resolved}}
		}
		if p, ok := staticDescend(arena, use.Resolved, rest, name.Filter); ok {
			return &Result{Path: append(Path{use.Resolved}, p...)}
		}
	}

	ownPrefix := splitName(schema.PackageName)
	if len(segs) >= len(ownPrefix) && hasPrefix(segs, ownPrefix) {
		rest := segs[len(ownPrefix):]
		if len(rest) == 0 {
			if name.Filter.Accepts(arena.Get(schemaID).Kind) {
				return &Result{Path: Path{schemaID}, Warning: "name resolved via own schema's package-name prefix"}
			}
		} else if p, ok := staticDescend(arena, schemaID, rest, name.Filter); ok {
			return &Result{Path: append(Path{schemaID}, p...), Warning: "name resolved via own schema's package-name prefix"}
		}
	}

	return nil
}

// Bind implements spec.md §4.2's dynamic binding: the same upward
// traversal as BindStatic, but candidates at each container come from
// its effective member list (inherited ∪ local, deletions removed)
// rather than its raw Items, and every matched target is replaced by
// its final implementor. When no dynamic match exists for the first
// segment, the first segment falls back to BindStatic and the
// remainder continues dynamically from there.
func Bind(u *Universe, origin ast.DefID, name *ast.DottedName) *Result {
	segs := splitName(name.Text)
	if len(segs) == 0 {
		return nil
	}
	arena := u.Arena

	if name.Absolute {
		startID, consumed := matchPackagePrefix(u, segs)
		if startID == ast.NoDef {
			return nil
		}
		rest := segs[consumed:]
		if len(rest) == 0 {
			if !name.Filter.Accepts(arena.Get(startID).Kind) {
				return nil
			}
			return &Result{Path: Path{startID}}
		}
		p, ok := dynamicDescend(arena, startID, rest, name.Filter)
		if !ok {
			return nil
		}
		return &Result{Path: append(Path{startID}, p...)}
	}

	for cur := origin; cur != ast.NoDef; cur = arena.Get(cur).Owner {
		if p, ok := dynamicDescend(arena, cur, segs, name.Filter); ok {
			return &Result{Path: p}
		}
	}

	firstFilter := ast.KindAny
	if len(segs) == 1 {
		firstFilter = name.Filter
	}
	staticFirst := BindStatic(u, origin, &ast.DottedName{Text: segs[0], Filter: firstFilter})
	if staticFirst == nil {
		return nil
	}
	if len(segs) == 1 {
		return staticFirst
	}
	firstID := staticFirst.Path.Target()
	rest := segs[1:]
	p, ok := dynamicDescend(arena, firstID, rest, name.Filter)
	if !ok {
		return nil
	}
	full := append(append(Path{}, staticFirst.Path...), p...)
	return &Result{Path: full, Warning: staticFirst.Warning}
}

func hasPrefix(segs, prefix []string) bool {
	if len(segs) < len(prefix) {
		return false
	}
	for i, p := range prefix {
		if segs[i] != p {
			return false
		}
	}
	return true
}
