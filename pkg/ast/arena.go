package ast

// Arena owns every Definition produced by a compilation, keyed by a
// stable DefID. Storing cross-references as indices into this slice
// (rather than pointers) keeps the compiled tree free of reference
// cycles, so it can be walked, diffed and serialized (pkg/persist)
// without special-casing cycles anywhere.
type Arena struct {
	defs []*Definition
}

// NewArena returns an empty arena. Index 0 is reserved so NoDef never
// aliases a real definition.
func NewArena() *Arena {
	return &Arena{defs: make([]*Definition, 1, 64)}
}

// Add registers d, assigns its ID, and returns it.
func (a *Arena) Add(d *Definition) DefID {
	id := DefID(len(a.defs))
	d.ID = id
	a.defs = append(a.defs, d)
	return id
}

// Get returns the definition for id, or nil if id is NoDef or
// out of range.
func (a *Arena) Get(id DefID) *Definition {
	if id <= NoDef || int(id) >= len(a.defs) {
		return nil
	}
	return a.defs[id]
}

// Len returns the number of live definitions (excluding the reserved
// zero slot).
func (a *Arena) Len() int { return len(a.defs) - 1 }

// All returns every live DefID in allocation order.
func (a *Arena) All() []DefID {
	ids := make([]DefID, 0, a.Len())
	for i := 1; i < len(a.defs); i++ {
		ids = append(ids, DefID(i))
	}
	return ids
}

// Defs returns every live definition in allocation order (index 0 of
// the result is DefID 1), for pkg/persist to serialize directly
// without reaching into Arena's internals.
func (a *Arena) Defs() []*Definition {
	return a.defs[1:]
}

// FromDefs rebuilds an Arena from a slice previously returned by Defs,
// in the same order, so DefIDs round-trip unchanged.
func FromDefs(defs []*Definition) *Arena {
	a := &Arena{defs: make([]*Definition, 1, len(defs)+1)}
	a.defs = append(a.defs, defs...)
	return a
}

// Schemas returns every KindSchema definition in allocation order.
func (a *Arena) Schemas() []*Definition {
	var out []*Definition
	for i := 1; i < len(a.defs); i++ {
		if a.defs[i].Kind == KindSchema {
			out = append(out, a.defs[i])
		}
	}
	return out
}
