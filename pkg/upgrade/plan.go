package upgrade

import (
	"github.com/venusdb/sdl/pkg/ast"
	"github.com/venusdb/sdl/pkg/instance"
)

// Plan is the ordered set of DDL statement groups an upgrade emits,
// following spec.md §4.6's nine-step ordering.
type Plan struct {
	BeforeAll          []string
	NewSchemas         []string
	NewTables          []string
	NewTableRawData    []string
	RetiredNotNull     []string // step 5
	RetiredConstraints []string // step 5
	RetiredIndexes     []string // step 5
	FieldsAdded        []string // step 6
	FieldsRetyped      []string // step 6
	FieldsDropped      []string // step 6
	RebuiltConstraints []string // step 7
	RebuiltNotNull     []string // step 7
	RebuiltIndexes     []string // step 7
	RebuiltComments    []string // step 7 (always empty: no comment source in this AST)
	RebuiltData        []string // step 7 (always empty: no data-load source in this AST)
	DroppedTables      []string // step 8
	DroppedSchemas     []string // step 8
	AfterAll           []string
}

// Order concatenates every group in the nine-step order spec.md §4.6
// specifies.
func (p *Plan) Order() []string {
	var out []string
	for _, g := range [][]string{
		p.BeforeAll, p.NewSchemas, p.NewTables, p.NewTableRawData,
		p.RetiredNotNull, p.RetiredConstraints, p.RetiredIndexes,
		p.FieldsAdded, p.FieldsRetyped, p.FieldsDropped,
		p.RebuiltConstraints, p.RebuiltNotNull, p.RebuiltIndexes,
		p.RebuiltComments, p.RebuiltData,
		p.DroppedTables, p.DroppedSchemas, p.AfterAll,
	} {
		out = append(out, g...)
	}
	return out
}

// Build renders diff into an ordered Plan. old and updated are the
// Instance pair the diff was computed from: old's adapter retires
// existing structure by name, updated's adapter recreates it.
func Build(diff *Diff, old, updated *instance.Instance) (*Plan, error) {
	p := &Plan{}

	for _, id := range diff.SchemasToCreate {
		stmt, err := updated.CreateSchemaStatement(id)
		if err != nil {
			return nil, err
		}
		p.NewSchemas = append(p.NewSchemas, stmt)
	}

	for _, id := range diff.TablesToCreate {
		stmt, err := updated.CreateTableStatement(id)
		if err != nil {
			return nil, err
		}
		p.NewTables = append(p.NewTables, stmt)
	}

	retireTables := changedOldTables(diff)
	retireTables = append(retireTables, diff.TablesToDrop...)

	for _, id := range retireTables {
		stmts, err := old.DropFieldNotNullStatements(id)
		if err != nil {
			return nil, err
		}
		p.RetiredNotNull = append(p.RetiredNotNull, stmts...)
	}
	for _, id := range retireTables {
		stmts, err := old.DropTableConstraintStatements(id)
		if err != nil {
			return nil, err
		}
		p.RetiredConstraints = append(p.RetiredConstraints, stmts...)
	}
	for _, id := range retireTables {
		stmts, err := old.DropIndexStatements(id)
		if err != nil {
			return nil, err
		}
		p.RetiredIndexes = append(p.RetiredIndexes, stmts...)
	}

	// Step 6: field mutations on retained (changed) tables, in the
	// fixed sub-order add / retype / drop.
	for _, tc := range diff.Changed {
		if !tc.HasChange {
			continue
		}
		for _, fc := range tc.ToCreate {
			stmt, err := updated.AddColumnStatement(tc.NewTable, fc.New)
			if err != nil {
				return nil, err
			}
			p.FieldsAdded = append(p.FieldsAdded, stmt)
		}
		for _, fc := range tc.ToRetype {
			stmt, err := updated.ChangeColumnTypeStatement(tc.NewTable, fc.New)
			if err != nil {
				return nil, err
			}
			p.FieldsRetyped = append(p.FieldsRetyped, stmt)
		}
		for _, fc := range tc.ToDrop {
			stmt, err := old.DropColumnStatement(tc.OldTable, fc.PName)
			if err != nil {
				return nil, err
			}
			p.FieldsDropped = append(p.FieldsDropped, stmt)
		}
	}

	// Step 7: rebuild structure on every changed table and every
	// wholly updated table.
	rebuildTables := changedNewTables(diff)
	rebuildTables = append(rebuildTables, diff.TablesToCreate...)

	for _, id := range rebuildTables {
		stmts, err := updated.CreateTableConstraintStatements(id)
		if err != nil {
			return nil, err
		}
		p.RebuiltConstraints = append(p.RebuiltConstraints, stmts...)
	}
	for _, id := range rebuildTables {
		stmts, err := updated.CreateFieldNotNullStatements(id)
		if err != nil {
			return nil, err
		}
		p.RebuiltNotNull = append(p.RebuiltNotNull, stmts...)
	}
	for _, id := range rebuildTables {
		p.RebuiltIndexes = append(p.RebuiltIndexes, updated.CreateIndexStatements(id, true)...)
	}

	for _, id := range diff.TablesToDrop {
		stmt, err := old.DropTableStatement(id)
		if err != nil {
			return nil, err
		}
		p.DroppedTables = append(p.DroppedTables, stmt)
	}
	for _, id := range diff.SchemasToDrop {
		stmt, err := old.DropSchemaStatement(id, false)
		if err != nil {
			return nil, err
		}
		p.DroppedSchemas = append(p.DroppedSchemas, stmt)
	}

	return p, nil
}

func changedOldTables(diff *Diff) []ast.DefID {
	var out []ast.DefID
	for _, tc := range diff.Changed {
		if tc.HasChange {
			out = append(out, tc.OldTable)
		}
	}
	return out
}

func changedNewTables(diff *Diff) []ast.DefID {
	var out []ast.DefID
	for _, tc := range diff.Changed {
		if tc.HasChange {
			out = append(out, tc.NewTable)
		}
	}
	return out
}
