package ast

import "github.com/venusdb/sdl/pkg/compare"

// Equal reports whether two DottedNames denote the same reference,
// including their post-binding resolution (Target/Path) — used by
// Arena.Equal to check the round-trip law of spec.md §8 ("Serialize
// then deserialize yields a structurally equivalent compiled set").
func (d *DottedName) Equal(other *DottedName) bool {
	if eq, more := compare.NilCheck(d, other); !more {
		return eq
	}
	return d.Text == other.Text &&
		d.Absolute == other.Absolute &&
		d.Indirect == other.Indirect &&
		d.Filter == other.Filter &&
		d.Target == other.Target &&
		compare.Slices(d.Path, other.Path, func(a, b DefID) bool { return a == b })
}

// Equal reports whether two property Values are the same literal or
// name reference.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case ValueInt:
		return v.Int == other.Int
	case ValueFloat:
		return v.Float == other.Float
	case ValueBool:
		return v.Bool == other.Bool
	case ValueString:
		return v.Str == other.Str
	case ValueNull, ValueAll:
		return true
	case ValueName:
		return v.Name.Equal(other.Name)
	default:
		return false
	}
}

// Equal reports whether two Properties carry the same name and values.
func (p *Property) Equal(other *Property) bool {
	if eq, more := compare.NilCheck(p, other); !more {
		return eq
	}
	return p.Name == other.Name &&
		compare.Slices(p.Values, other.Values, func(a, b Value) bool { return a.Equal(b) })
}

// Equal reports whether two Use statements target the same resolved
// schema under the same alias/required modifier.
func (u *Use) Equal(other *Use) bool {
	if eq, more := compare.NilCheck(u, other); !more {
		return eq
	}
	return u.Schema == other.Schema &&
		u.Alias == other.Alias &&
		u.Required == other.Required &&
		u.Resolved == other.Resolved
}

// Equal reports whether two Deletions remove/rename the same member.
func (del *Deletion) Equal(other *Deletion) bool {
	if eq, more := compare.NilCheck(del, other); !more {
		return eq
	}
	return del.Name == other.Name && del.RenameTo == other.RenameTo && del.Used == other.Used
}

// Equal reports whether two Members are the same name pointing at the
// same target.
func (m Member) Equal(other Member) bool {
	return m.Name == other.Name && m.Target == other.Target
}

// Equal reports whether two Definitions are structurally identical:
// same identity fields, same derived compiler attributes (implementor
// chain, ancestors/descendants, effective members, realization), and
// same owned items/properties. It is the per-node building block for
// Arena.Equal, which checks the round-trip law from spec.md §8.
func (d *Definition) Equal(other *Definition) bool {
	if eq, more := compare.NilCheck(d, other); !more {
		return eq
	}
	if d.ID != other.ID || d.Kind != other.Kind || d.Name != other.Name ||
		d.Modifiers != other.Modifiers || d.Owner != other.Owner ||
		d.SchemaID != other.SchemaID || d.TopLevel != other.TopLevel ||
		d.PackageName != other.PackageName || d.GUID != other.GUID ||
		d.DirectImplementor != other.DirectImplementor ||
		d.FinalImplementor != other.FinalImplementor ||
		d.ReferencesTarget != other.ReferencesTarget ||
		d.Universal != other.Universal || d.Realized != other.Realized {
		return false
	}
	if !compare.Slices(d.Items, other.Items, func(a, b DefID) bool { return a == b }) {
		return false
	}
	if !compare.Slices(d.Properties, other.Properties, func(a, b *Property) bool { return a.Equal(b) }) {
		return false
	}
	if !compare.Slices(d.Deletions, other.Deletions, func(a, b *Deletion) bool { return a.Equal(b) }) {
		return false
	}
	if !compare.Slices(d.Imports, other.Imports, func(a, b *Use) bool { return a.Equal(b) }) {
		return false
	}
	if !compare.Slices(d.Implements, other.Implements, func(a, b DefID) bool { return a == b }) {
		return false
	}
	if !compare.Slices(d.Specifications, other.Specifications, func(a, b DefID) bool { return a == b }) {
		return false
	}
	if !compare.Slices(d.Implementations, other.Implementations, func(a, b DefID) bool { return a == b }) {
		return false
	}
	if !compare.Slices(d.Ancestors, other.Ancestors, func(a, b DefID) bool { return a == b }) {
		return false
	}
	if !compare.Maps(d.Descendants, other.Descendants) {
		return false
	}
	if !compare.Slices(d.Members, other.Members, func(a, b Member) bool { return a.Equal(b) }) {
		return false
	}
	return true
}

// Equal reports whether two Arenas hold structurally identical
// definitions in the same order — the compiled-set equivalence half of
// spec.md §8's serialize/deserialize round-trip law.
func (a *Arena) Equal(other *Arena) bool {
	if eq, more := compare.NilCheck(a, other); !more {
		return eq
	}
	return compare.Slices(a.Defs(), other.Defs(), func(x, y *Definition) bool { return x.Equal(y) })
}
