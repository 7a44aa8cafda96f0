// Package upgrade is the Upgrade Engine (spec.md §4.6): it compares an
// old compiled instance to an updated one along three axes — schemas,
// tables, and fields — identified by GUID (schemas and self-realized
// top-level fieldsets) and by physical name (fields within a matched
// table pair, which have no GUID of their own), then emits an ordered
// DDL plan that drops what's gone, alters what changed, and creates
// what's new.
package upgrade

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/venusdb/sdl/pkg/ast"
	"github.com/venusdb/sdl/pkg/instance"
)

// FieldChange identifies one field by its physical name and the
// DefIDs it resolves to on each side of the diff.
type FieldChange struct {
	PName string
	Old   ast.DefID
	New   ast.DefID
}

// TableChange is the field-level diff of one GUID-matched table pair.
type TableChange struct {
	GUID     string
	OldTable ast.DefID
	NewTable ast.DefID

	ToCreate      []FieldChange // updated-only pnames
	ToDrop        []FieldChange // old-only pnames
	ToRetype      []FieldChange // common pnames, type-spec string differs
	ToSetNotNull  []FieldChange // common pnames, notnull flipped false -> true
	ToDropNotNull []FieldChange // common pnames, notnull flipped true -> false

	HasChange bool
}

// Diff is the full three-axis comparison between two compiled
// instances, keyed by GUID for schemas/tables and by physical name for
// fields within a matched table.
type Diff struct {
	SchemasToCreate []ast.DefID // DefIDs in the updated instance
	SchemasToDrop   []ast.DefID // DefIDs in the old instance

	TablesToCreate []ast.DefID // DefIDs in the updated instance
	TablesToDrop   []ast.DefID // DefIDs in the old instance

	Changed []*TableChange // GUID-matched tables, sorted by GUID
}

// Compute builds the three-axis diff between old and updated. old and updated
// must each have had their physical names precomputed already.
func Compute(old, updated *instance.Names) (*Diff, error) {
	oldSchemas := guidIndex(old.Arena(), old.SchemaIDs())
	newSchemas := guidIndex(updated.Arena(), updated.SchemaIDs())

	d := &Diff{}
	for _, guid := range sortedGUIDs(newSchemas) {
		if _, ok := oldSchemas[guid]; !ok {
			d.SchemasToCreate = append(d.SchemasToCreate, newSchemas[guid])
		}
	}
	for _, guid := range sortedGUIDs(oldSchemas) {
		if _, ok := newSchemas[guid]; !ok {
			d.SchemasToDrop = append(d.SchemasToDrop, oldSchemas[guid])
		}
	}

	oldTables := guidIndex(old.Arena(), old.TableIDs())
	newTables := guidIndex(updated.Arena(), updated.TableIDs())

	for _, guid := range sortedGUIDs(newTables) {
		newID := newTables[guid]
		oldID, ok := oldTables[guid]
		if !ok {
			d.TablesToCreate = append(d.TablesToCreate, newID)
			continue
		}
		if err := sameSchema(old.Arena(), oldID, updated.Arena(), newID); err != nil {
			return nil, err
		}
		change, err := diffTable(old, updated, guid, oldID, newID)
		if err != nil {
			return nil, err
		}
		d.Changed = append(d.Changed, change)
	}
	for _, guid := range sortedGUIDs(oldTables) {
		if _, ok := newTables[guid]; !ok {
			d.TablesToDrop = append(d.TablesToDrop, oldTables[guid])
		}
	}
	return d, nil
}

func guidIndex(arena *ast.Arena, ids []ast.DefID) map[string]ast.DefID {
	out := make(map[string]ast.DefID, len(ids))
	for _, id := range ids {
		if guid := arena.Get(id).GUID; guid != "" {
			out[guid] = id
		}
	}
	return out
}

func sortedGUIDs(m map[string]ast.DefID) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sameSchema rejects a table whose enclosing schema GUID differs
// between compilations (spec.md §4.6: "tables changing schemas are
// disallowed").
func sameSchema(oldArena *ast.Arena, oldID ast.DefID, newArena *ast.Arena, newID ast.DefID) error {
	oldSchema := oldArena.Get(oldArena.Get(oldID).SchemaID)
	newSchema := newArena.Get(newArena.Get(newID).SchemaID)
	if oldSchema.GUID != newSchema.GUID {
		return errors.Errorf("table %s changed schema between compilations (not supported)", newArena.Get(newID).Name)
	}
	return nil
}

func diffTable(old, updated *instance.Names, guid string, oldID, newID ast.DefID) (*TableChange, error) {
	oldFields, err := pnameIndex(old, oldID)
	if err != nil {
		return nil, err
	}
	newFields, err := pnameIndex(updated, newID)
	if err != nil {
		return nil, err
	}

	tc := &TableChange{GUID: guid, OldTable: oldID, NewTable: newID}

	for _, pname := range sortedStrings(newFields) {
		if _, ok := oldFields[pname]; !ok {
			tc.ToCreate = append(tc.ToCreate, FieldChange{PName: pname, New: newFields[pname]})
		}
	}
	for _, pname := range sortedStrings(oldFields) {
		if _, ok := newFields[pname]; !ok {
			tc.ToDrop = append(tc.ToDrop, FieldChange{PName: pname, Old: oldFields[pname]})
		}
	}
	for _, pname := range sortedStrings(oldFields) {
		newID, ok := newFields[pname]
		if !ok {
			continue
		}
		oldID := oldFields[pname]
		oldField := old.Arena().Get(oldID)
		newField := updated.Arena().Get(newID)

		oldType, oldSize, oldPrec, err := instance.FieldType(oldField)
		if err != nil {
			return nil, err
		}
		newType, newSize, newPrec, err := instance.FieldType(newField)
		if err != nil {
			return nil, err
		}
		fc := FieldChange{PName: pname, Old: oldID, New: newID}
		if oldType != newType || intPtrDiffer(oldSize, newSize) || intPtrDiffer(oldPrec, newPrec) {
			tc.ToRetype = append(tc.ToRetype, fc)
		}

		oldNotNull := instance.FieldNotNull(oldField)
		newNotNull := instance.FieldNotNull(newField)
		if !oldNotNull && newNotNull {
			tc.ToSetNotNull = append(tc.ToSetNotNull, fc)
		} else if oldNotNull && !newNotNull {
			tc.ToDropNotNull = append(tc.ToDropNotNull, fc)
		}
	}

	tc.HasChange = len(tc.ToCreate) > 0 || len(tc.ToDrop) > 0 || len(tc.ToRetype) > 0 ||
		len(tc.ToSetNotNull) > 0 || len(tc.ToDropNotNull) > 0
	return tc, nil
}

func pnameIndex(names *instance.Names, table ast.DefID) (map[string]ast.DefID, error) {
	out := map[string]ast.DefID{}
	for _, id := range instance.RealizedFields(names.Arena(), table) {
		pname, err := names.Field(id)
		if err != nil {
			return nil, err
		}
		out[pname] = id
	}
	return out, nil
}

func sortedStrings(m map[string]ast.DefID) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func intPtrDiffer(a, b *int) bool {
	if (a == nil) != (b == nil) {
		return true
	}
	return a != nil && *a != *b
}
