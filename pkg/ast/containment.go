package ast

// StaticallyContains reports whether outer textually (syntactically)
// contains inner, i.e. inner is outer itself or reachable by following
// Owner links from inner up to the schema root. Used throughout
// pkg/compiler to reject self-containing ancestors/implements/reference
// targets (spec.md §3 "A declaration cannot statically contain its own
// specification, implementation, ancestor, or descendant").
func StaticallyContains(a *Arena, outer, inner DefID) bool {
	for cur := inner; cur != NoDef; {
		if cur == outer {
			return true
		}
		cur = a.Get(cur).Owner
	}
	return false
}

// Root walks Owner links to the top-level definition containing id
// (a Schema's top-level item, or the Schema itself).
func Root(a *Arena, id DefID) DefID {
	cur := id
	for {
		d := a.Get(cur)
		if d.Owner == NoDef || a.Get(d.Owner).Kind == KindSchema {
			return cur
		}
		cur = d.Owner
	}
}
