package compiler

import (
	"github.com/venusdb/sdl/pkg/ast"
	"github.com/venusdb/sdl/pkg/resolve"
)

// phase3 builds the inheritance graph (spec.md §4.3 phase 3): binds
// `ancestors`, rejects cycles and mixed implements/ancestors-indirection
// declarations, computes connected inheritance classes, and merges
// each declaration's effective member list.
func phase3(u *resolve.Universe, opts Options, diags *Diagnostics) {
	phase3BindAncestors(u, diags)
	phase3Cycles(u, diags)
	phase3IndirectionVsImplements(u, diags)
	phase3Descendants(u)
	phase3Classes(u, diags)
	for _, id := range u.Arena.All() {
		effectiveMembers(u, id, diags, map[ast.DefID]bool{})
	}
}

// (a) statically bind each ancestors element, substituting the final
// implementor for implementation-indirected elements. The `all` token
// in an ancestors list is, per DESIGN.md's recorded Open Question
// decision, a no-op here (it has no prior ancestors list to expand
// into within the declaration's own property): it is accepted
// syntactically but contributes nothing.
func phase3BindAncestors(u *resolve.Universe, diags *Diagnostics) {
	for _, id := range u.Arena.All() {
		d := u.Arena.Get(id)
		prop := d.Property("ancestors")
		if prop == nil {
			continue
		}
		path := defPath(u.Arena, id)
		for i := range prop.Values {
			v := &prop.Values[i]
			if v.Kind == ast.ValueAll {
				continue
			}
			if v.Kind != ast.ValueName {
				diags.errorf(3001, v.Pos, path, "ancestors argument must be a dotted name")
				continue
			}
			name := v.Name
			name.Filter = d.Kind
			res := resolve.BindStatic(u, id, name)
			if res == nil {
				diags.errorf(3002, name.Pos, path, "cannot resolve ancestor %q", name.Text)
				continue
			}
			target := res.Path.Target()
			if target == id {
				diags.errorf(3003, name.Pos, path, "%s cannot inherit from itself", d.Name)
				continue
			}
			if ast.StaticallyContains(u.Arena, id, target) || ast.StaticallyContains(u.Arena, target, id) {
				diags.errorf(3004, name.Pos, path, "%s cannot inherit %s: static containment", d.Name, defPath(u.Arena, target))
				continue
			}
			if name.Indirect {
				target = u.Arena.Get(target).FinalImplementor
			}
			d.Ancestors = append(d.Ancestors, target)
		}
	}
}

// (b) no cycles in the inheritance graph.
func phase3Cycles(u *resolve.Universe, diags *Diagnostics) {
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
		for _, a := range u.Arena.Get(id).Ancestors {
			if visit(a) {
				return true
			}
		}
		color[id] = black
		return false
	}
	for _, id := range u.Arena.All() {
		if color[id] == white && visit(id) {
			d := u.Arena.Get(id)
			diags.errorf(3005, d.Pos, defPath(u.Arena, id), "cyclic ancestors relation involving %s", d.Name)
		}
	}
}

// (c) a declaration with any implementation-indirection in its
// ancestors may not itself implement.
func phase3IndirectionVsImplements(u *resolve.Universe, diags *Diagnostics) {
	for _, id := range u.Arena.All() {
		d := u.Arena.Get(id)
		anc := d.Property("ancestors")
		if anc == nil || len(d.Implements) == 0 {
			continue
		}
		for i := range anc.Values {
			if v := anc.Values[i]; v.Kind == ast.ValueName && v.Name.Indirect {
				diags.errorf(3006, d.Pos, defPath(u.Arena, id),
					"%s cannot both implement and inherit via implementation-indirection", d.Name)
				break
			}
		}
	}
}

// (d, descendants half) populate Descendants as the transitive closure
// of the ancestors relation, computed bottom-up (DESIGN NOTES "Monotone
// fixed points" — this is a transitive, non-reflexive closure, not a
// worklist, since phase3Cycles already proved the graph acyclic).
func phase3Descendants(u *resolve.Universe) {
	memo := map[ast.DefID]map[ast.DefID]bool{}
	var closure func(id ast.DefID) map[ast.DefID]bool
	closure = func(id ast.DefID) map[ast.DefID]bool {
		if c, ok := memo[id]; ok {
			return c
		}
		c := map[ast.DefID]bool{}
		memo[id] = c // break potential self-reference during computation
		for _, a := range u.Arena.Get(id).Ancestors {
			c[a] = true
			for anc := range closure(a) {
				c[anc] = true
			}
		}
		return c
	}
	for _, id := range u.Arena.All() {
		for anc := range closure(id) {
			u.Arena.Get(anc).Descendants[id] = true
		}
	}
}

// (e) connected inheritance-graph classes: no two declarations in the
// same class may statically contain each other.
func phase3Classes(u *resolve.Universe, diags *Diagnostics) {
	parent := map[ast.DefID]ast.DefID{}
	var find func(ast.DefID) ast.DefID
	find = func(x ast.DefID) ast.DefID {
		if _, ok := parent[x]; !ok {
			parent[x] = x
		}
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b ast.DefID) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	for _, id := range u.Arena.All() {
		find(id)
		for _, a := range u.Arena.Get(id).Ancestors {
			union(id, a)
		}
	}
	classes := map[ast.DefID][]ast.DefID{}
	for _, id := range u.Arena.All() {
		r := find(id)
		classes[r] = append(classes[r], id)
	}
	for _, members := range classes {
		for i, a := range members {
			for _, b := range members[i+1:] {
				if ast.StaticallyContains(u.Arena, a, b) || ast.StaticallyContains(u.Arena, b, a) {
					da, db := u.Arena.Get(a), u.Arena.Get(b)
					diags.errorf(3007, da.Pos, defPath(u.Arena, a),
						"%s and %s (same inheritance class) statically contain one another", da.Name, db.Name)
				}
			}
		}
	}
}

// effectiveMembers computes and caches d's effective member list
// (phase 3(f)): an order-preserving merge of inherited ancestor
// members, with deletions (and renames) applied, followed by locally
// declared items overriding by name. guard prevents infinite recursion
// if an earlier phase's cycle check somehow missed something.
func effectiveMembers(u *resolve.Universe, id ast.DefID, diags *Diagnostics, guard map[ast.DefID]bool) []ast.Member {
	d := u.Arena.Get(id)
	if d.MembersCached() {
		return d.Members
	}
	if guard[id] {
		return nil
	}
	guard[id] = true
	defer delete(guard, id)

	order := []string{}
	byName := map[string]ast.DefID{}
	put := func(name string, target ast.DefID) {
		if _, ok := byName[name]; !ok {
			order = append(order, name)
		}
		byName[name] = target
	}
	remove := func(name string) bool {
		if _, ok := byName[name]; !ok {
			return false
		}
		delete(byName, name)
		for i, n := range order {
			if n == name {
				order = append(order[:i], order[i+1:]...)
				break
			}
		}
		return true
	}

	for _, a := range d.Ancestors {
		for _, m := range effectiveMembers(u, a, diags, guard) {
			put(m.Name, m.Target)
		}
	}

	for _, del := range d.Deletions {
		if del.RenameTo != "" {
			target, ok := byName[del.Name]
			del.Used = remove(del.Name)
			if del.Used {
				put(del.RenameTo, target)
			}
			continue
		}
		del.Used = remove(del.Name)
	}

	for _, itemID := range d.Items {
		item := u.Arena.Get(itemID)
		put(item.Name, itemID)
	}

	members := make([]ast.Member, 0, len(order))
	for _, name := range order {
		members = append(members, ast.Member{Name: name, Target: byName[name]})
	}
	d.Members = members
	d.SetMembersCached()

	// (g) warn on unused deletions.
	for _, del := range d.Deletions {
		if !del.Used {
			diags.warnf(3008, del.Pos, defPath(u.Arena, id), "deletion of %q removed nothing", del.Name)
		}
	}
	return members
}
