// Package instance is the Instance Engine (spec.md §4.5): given a
// compiled universe and a vendor adapter, it precomputes every
// realized object's physical name once and emits CREATE/DROP DDL in a
// fixed, vendor-agnostic order.
package instance

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/venusdb/sdl/pkg/ast"
	"github.com/venusdb/sdl/pkg/naming"
	"github.com/venusdb/sdl/pkg/resolve"
	"github.com/venusdb/sdl/pkg/vendor"
)

// ErrNotRealized is returned by a get_*_pname operation queried for an
// object that was never selected for realization (spec.md §4.5).
var ErrNotRealized = errors.New("object is not realized")

// Names precomputes and caches every realized object's physical name.
type Names struct {
	u      *resolve.Universe
	maxLen int

	schemas     map[ast.DefID]string
	tables      map[ast.DefID]string
	fields      map[ast.DefID]string
	primaryKeys map[ast.DefID]string // keyed by table
	indexes     map[ast.DefID]string
	constraints map[ast.DefID]string
	foreignKeys map[ast.DefID]string // keyed by referencing field
}

// NewNames precomputes physical names for every realized schema,
// realized top-level fieldset, the realized fields inside them, and
// their indexes, constraints, and reference-bearing foreign keys.
func NewNames(u *resolve.Universe, adapter vendor.Adapter) *Names {
	n := &Names{
		u:           u,
		maxLen:      adapter.MaxIdentifierLength(),
		schemas:     map[ast.DefID]string{},
		tables:      map[ast.DefID]string{},
		fields:      map[ast.DefID]string{},
		primaryKeys: map[ast.DefID]string{},
		indexes:     map[ast.DefID]string{},
		constraints: map[ast.DefID]string{},
		foreignKeys: map[ast.DefID]string{},
	}

	arena := u.Arena
	for _, id := range arena.All() {
		d := arena.Get(id)
		switch {
		case d.Kind == ast.KindSchema && d.Realized:
			n.schemas[id] = naming.SchemaName(n.maxLen, packageComponents(d))
		case d.Kind == ast.KindFieldSet && d.TopLevel && d.Realized:
			n.tables[id] = naming.TableName(n.maxLen, d.Name)
			n.primaryKeys[id] = naming.PrimaryKeyName(n.maxLen, n.tables[id])
		}
	}
	for _, id := range arena.All() {
		d := arena.Get(id)
		if d.Kind != ast.KindField || !d.Realized {
			continue
		}
		table := enclosingTable(arena, id)
		path := declPath(arena, table, id)
		n.fields[id] = naming.FieldName(n.maxLen, path)
		if !d.Universal && d.ReferencesTarget != ast.NoDef {
			n.foreignKeys[id] = naming.ForeignKeyName(n.maxLen, arena.Get(table).Name, path)
		}
	}
	for _, id := range arena.All() {
		d := arena.Get(id)
		if d.Kind == ast.KindIndex && d.Realized {
			table := enclosingTable(arena, id)
			n.indexes[id] = naming.IndexName(n.maxLen, arena.Get(table).Name, d.Name, indexFieldRefPaths(arena, table, d))
		}
		if d.Kind == ast.KindConstraint && d.Realized {
			table := enclosingTable(arena, id)
			n.constraints[id] = naming.ConstraintName(n.maxLen, arena.Get(table).Name, d.Name)
		}
	}
	return n
}

func packageComponents(schema *ast.Definition) []string {
	if schema.PackageName == "" {
		return []string{schema.Name}
	}
	return splitDots(schema.PackageName)
}

func splitDots(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

// enclosingTable walks Owner up from id to the nearest top-level
// fieldset.
func enclosingTable(arena *ast.Arena, id ast.DefID) ast.DefID {
	cur := id
	for {
		d := arena.Get(cur)
		if d.TopLevel && d.Kind == ast.KindFieldSet {
			return cur
		}
		if d.Owner == ast.NoDef {
			return cur
		}
		cur = d.Owner
	}
}

// declPath collects names from (but not including) the enclosing table
// down to and including id: a table-relative path, matching
// original_source's `ast.py` `itercontained` (which never yields self)
// feeding `instance.py`'s `get_field_pname`/`get_index_pname`. A field
// declared directly inside the table therefore yields a single-element
// path (just its own name), not `[table, field]`.
func declPath(arena *ast.Arena, table, id ast.DefID) []string {
	var rev []string
	for cur := id; cur != table; cur = arena.Get(cur).Owner {
		d := arena.Get(cur)
		rev = append(rev, d.Name)
		if d.Owner == ast.NoDef {
			break
		}
	}
	out := make([]string, len(rev))
	for i, n := range rev {
		out[len(rev)-1-i] = n
	}
	return out
}

func indexFieldRefPaths(arena *ast.Arena, table ast.DefID, index *ast.Definition) []string {
	prop := index.Property("fields")
	if prop == nil {
		return nil
	}
	var out []string
	for i := range prop.Values {
		name := prop.Values[i].Name
		if name == nil || name.Target == ast.NoDef {
			continue
		}
		out = append(out, declPath(arena, table, name.Target)...)
	}
	return out
}

func (n *Names) Schema(id ast.DefID) (string, error)     { return lookup(n.schemas, id) }
func (n *Names) Table(id ast.DefID) (string, error)       { return lookup(n.tables, id) }
func (n *Names) Field(id ast.DefID) (string, error)       { return lookup(n.fields, id) }
func (n *Names) PrimaryKey(table ast.DefID) (string, error) { return lookup(n.primaryKeys, table) }
func (n *Names) Index(id ast.DefID) (string, error)       { return lookup(n.indexes, id) }
func (n *Names) Constraint(id ast.DefID) (string, error)  { return lookup(n.constraints, id) }
func (n *Names) ForeignKey(field ast.DefID) (string, error) { return lookup(n.foreignKeys, field) }

// SchemaIDs returns every realized schema's DefID, in allocation order.
func (n *Names) SchemaIDs() []ast.DefID { return sortedKeys(n.schemas) }

// TableIDs returns every realized top-level fieldset's DefID, in
// allocation order.
func (n *Names) TableIDs() []ast.DefID { return sortedKeys(n.tables) }

// Arena exposes the bound universe's arena, for callers (pkg/upgrade)
// that need to walk a table's realized fields directly.
func (n *Names) Arena() *ast.Arena { return n.u.Arena }

func sortedKeys(m map[ast.DefID]string) []ast.DefID {
	ids := make([]ast.DefID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func lookup(m map[ast.DefID]string, id ast.DefID) (string, error) {
	if name, ok := m[id]; ok {
		return name, nil
	}
	return "", ErrNotRealized
}
