package instance

import (
	"context"

	"github.com/pkg/errors"

	"github.com/venusdb/sdl/pkg/ast"
	"github.com/venusdb/sdl/pkg/resolve"
	"github.com/venusdb/sdl/pkg/vendor"
)

// identifierType is the logical type a realized field must declare to
// participate in its table's primary key (original_source's
// connection.py requires every type map to support an "identifier"
// type; this project treats that requirement as the PK convention).
const identifierType = "identifier"

// Instance is a compiled universe bound to one vendor connection,
// ready to emit ordered CREATE/DROP DDL (spec.md §4.5).
type Instance struct {
	u       *resolve.Universe
	adapter vendor.Adapter
	names   *Names
}

// New precomputes physical names and returns an Instance ready to
// build a create or drop plan.
func New(u *resolve.Universe, adapter vendor.Adapter) *Instance {
	return &Instance{u: u, adapter: adapter, names: NewNames(u, adapter)}
}

// Names exposes the precomputed physical-name cache (get_*_pname
// operations, spec.md §4.5).
func (i *Instance) Names() *Names { return i.names }

// Plan is an ordered set of DDL statement groups; Create/Drop
// concatenate the groups in the order spec.md §4.5 specifies.
type Plan struct {
	BeforeAll        []string
	Schemas          []string
	Tables           []string
	RawData          []string
	TableConstraints []string // table-level FK + CHECK
	FieldConstraints []string // field NOT NULL
	Indexes          []string
	Triggers         []string // no trigger construct in this AST; always empty
	Views            []string // no view construct in this AST; always empty
	Comments         []string
	Data             []string
	AfterAll         []string
}

// CreateOrder concatenates every group in create order (spec.md §4.5).
func (p *Plan) CreateOrder() []string {
	var out []string
	for _, g := range [][]string{
		p.BeforeAll, p.Schemas, p.Tables, p.RawData, p.TableConstraints,
		p.FieldConstraints, p.Indexes, p.Triggers, p.Views, p.Comments,
		p.Data, p.AfterAll,
	} {
		out = append(out, g...)
	}
	return out
}

// DropOrder concatenates every group in drop order (spec.md §4.5).
func (p *Plan) DropOrder() []string {
	var out []string
	for _, g := range [][]string{
		p.BeforeAll, p.Data, p.Comments, p.Views, p.Triggers,
		p.TableConstraints, p.FieldConstraints, p.Indexes, p.RawData,
		p.Tables, p.Schemas, p.AfterAll,
	} {
		out = append(out, g...)
	}
	return out
}

// Create builds the create plan for every realized object.
func (i *Instance) Create(ctx context.Context) (*Plan, error) {
	arena := i.u.Arena
	p := &Plan{}

	for _, schemaID := range i.names.SchemaIDs() {
		stmt, err := i.CreateSchemaStatement(schemaID)
		if err != nil {
			return nil, err
		}
		p.Schemas = append(p.Schemas, stmt)
	}

	for _, tableID := range i.names.TableIDs() {
		tableName, err := i.names.Table(tableID)
		if err != nil {
			return nil, err
		}
		table := arena.Get(tableID)
		cols, pkCols, err := i.columns(table)
		if err != nil {
			return nil, err
		}
		pkName, _ := i.names.PrimaryKey(tableID)
		p.Tables = append(p.Tables, i.adapter.CreateTable(tableName, cols, pkName, pkCols))

		stmts, err := i.tableConstraints(table, tableName)
		if err != nil {
			return nil, err
		}
		p.TableConstraints = append(p.TableConstraints, stmts...)

		stmts, err = i.fieldConstraints(table, tableName)
		if err != nil {
			return nil, err
		}
		p.FieldConstraints = append(p.FieldConstraints, stmts...)

		p.Indexes = append(p.Indexes, i.indexes(arena, table, tableName, true)...)
	}
	return p, nil
}

// CreateTableStatement formats the CREATE TABLE statement for one
// realized top-level fieldset. Exported for pkg/upgrade, which needs
// it only for tables that are wholly new.
func (i *Instance) CreateTableStatement(tableID ast.DefID) (string, error) {
	tableName, err := i.names.Table(tableID)
	if err != nil {
		return "", err
	}
	cols, pkCols, err := i.columns(i.u.Arena.Get(tableID))
	if err != nil {
		return "", err
	}
	pkName, _ := i.names.PrimaryKey(tableID)
	return i.adapter.CreateTable(tableName, cols, pkName, pkCols), nil
}

// DropTableStatement formats the DROP TABLE statement for one table.
func (i *Instance) DropTableStatement(tableID ast.DefID) (string, error) {
	tableName, err := i.names.Table(tableID)
	if err != nil {
		return "", err
	}
	return i.adapter.DropTable(tableName), nil
}

// CreateSchemaStatement formats the CREATE SCHEMA statement for one
// realized schema.
func (i *Instance) CreateSchemaStatement(schemaID ast.DefID) (string, error) {
	name, err := i.names.Schema(schemaID)
	if err != nil {
		return "", err
	}
	return i.adapter.CreateSchema(name), nil
}

// DropSchemaStatement formats the DROP SCHEMA statement for one
// schema.
func (i *Instance) DropSchemaStatement(schemaID ast.DefID, cascade bool) (string, error) {
	name, err := i.names.Schema(schemaID)
	if err != nil {
		return "", err
	}
	return i.adapter.DropSchema(name, cascade), nil
}

// CreateTableConstraintStatements formats ADD CONSTRAINT statements
// (foreign keys and checks) for one table.
func (i *Instance) CreateTableConstraintStatements(tableID ast.DefID) ([]string, error) {
	tableName, err := i.names.Table(tableID)
	if err != nil {
		return nil, err
	}
	return i.tableConstraints(i.u.Arena.Get(tableID), tableName)
}

// CreateFieldNotNullStatements formats ADD NOT NULL statements for
// every realized field of one table that declares `notnull true`.
func (i *Instance) CreateFieldNotNullStatements(tableID ast.DefID) ([]string, error) {
	tableName, err := i.names.Table(tableID)
	if err != nil {
		return nil, err
	}
	return i.fieldConstraints(i.u.Arena.Get(tableID), tableName)
}

// CreateIndexStatements formats CREATE INDEX statements for one
// table's realized indexes.
func (i *Instance) CreateIndexStatements(tableID ast.DefID, withCluster bool) []string {
	tableName, err := i.names.Table(tableID)
	if err != nil {
		return nil
	}
	return i.indexes(i.u.Arena, i.u.Arena.Get(tableID), tableName, withCluster)
}

// DropTableConstraintStatements formats DROP CONSTRAINT statements for
// one table's realized foreign keys and check constraints — the
// reverse of CreateTableConstraintStatements, used when retiring a
// table's existing structure ahead of an upgrade or drop.
func (i *Instance) DropTableConstraintStatements(tableID ast.DefID) ([]string, error) {
	arena := i.u.Arena
	table := arena.Get(tableID)
	tableName, err := i.names.Table(tableID)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, id := range realizedFields(arena, tableID) {
		f := arena.Get(id)
		if f.Universal || f.ReferencesTarget == ast.NoDef {
			continue
		}
		name, err := i.names.ForeignKey(id)
		if err != nil {
			continue
		}
		out = append(out, i.adapter.DropConstraint(tableName, name))
	}
	for _, itemID := range table.Items {
		item := arena.Get(itemID)
		if item.Kind != ast.KindConstraint || !item.Realized {
			continue
		}
		name, err := i.names.Constraint(itemID)
		if err != nil {
			continue
		}
		out = append(out, i.adapter.DropConstraint(tableName, name))
	}
	return out, nil
}

// DropFieldNotNullStatements formats DROP NOT NULL statements for
// every realized field of one table that currently declares `notnull
// true`, using each field's current type-spec string.
func (i *Instance) DropFieldNotNullStatements(tableID ast.DefID) ([]string, error) {
	arena := i.u.Arena
	tableName, err := i.names.Table(tableID)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, id := range realizedFields(arena, tableID) {
		f := arena.Get(id)
		if !FieldNotNull(f) {
			continue
		}
		pname, err := i.names.Field(id)
		if err != nil {
			return nil, err
		}
		typeName, size, precision, err := fieldType(f)
		if err != nil {
			return nil, err
		}
		spec, err := i.adapter.TypeSpecString(typeName, size, precision)
		if err != nil {
			return nil, err
		}
		out = append(out, i.adapter.DropNotNull(tableName, pname, spec))
	}
	return out, nil
}

// AddColumnStatement formats an ADD COLUMN statement for a single
// field being added to an already-existing table. Exported for
// pkg/upgrade's step-6 field mutations.
func (i *Instance) AddColumnStatement(tableID, fieldID ast.DefID) (string, error) {
	tableName, err := i.names.Table(tableID)
	if err != nil {
		return "", err
	}
	col, err := i.columnDef(fieldID)
	if err != nil {
		return "", err
	}
	return i.adapter.AddColumn(tableName, col), nil
}

// ChangeColumnTypeStatement formats a type-change statement for a
// field whose logical type, size, or precision differs between two
// compilations.
func (i *Instance) ChangeColumnTypeStatement(tableID, fieldID ast.DefID) (string, error) {
	tableName, err := i.names.Table(tableID)
	if err != nil {
		return "", err
	}
	col, err := i.columnDef(fieldID)
	if err != nil {
		return "", err
	}
	return i.adapter.ChangeColumnType(tableName, col.Name, col.TypeSpec), nil
}

// DropColumnStatement formats a DROP COLUMN statement for a field
// identified by its already-computed physical name (the table it
// belonged to may no longer have an arena entry for it by the time
// the statement runs, so this takes a name rather than a DefID).
func (i *Instance) DropColumnStatement(tableID ast.DefID, pname string) (string, error) {
	tableName, err := i.names.Table(tableID)
	if err != nil {
		return "", err
	}
	return i.adapter.DropColumn(tableName, pname), nil
}

func (i *Instance) columnDef(fieldID ast.DefID) (vendor.ColumnDef, error) {
	f := i.u.Arena.Get(fieldID)
	typeName, size, precision, err := fieldType(f)
	if err != nil {
		return vendor.ColumnDef{}, err
	}
	spec, err := i.adapter.TypeSpecString(typeName, size, precision)
	if err != nil {
		return vendor.ColumnDef{}, err
	}
	pname, err := i.names.Field(fieldID)
	if err != nil {
		return vendor.ColumnDef{}, err
	}
	return vendor.ColumnDef{Name: pname, TypeSpec: spec, NotNull: FieldNotNull(f)}, nil
}

// DropIndexStatements formats DROP INDEX statements for one table's
// realized indexes.
func (i *Instance) DropIndexStatements(tableID ast.DefID) ([]string, error) {
	arena := i.u.Arena
	table := arena.Get(tableID)
	tableName, err := i.names.Table(tableID)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, itemID := range table.Items {
		item := arena.Get(itemID)
		if item.Kind != ast.KindIndex || !item.Realized {
			continue
		}
		name, err := i.names.Index(itemID)
		if err != nil {
			continue
		}
		out = append(out, i.adapter.DropIndex(tableName, name))
	}
	return out, nil
}

// Drop builds the drop plan. When force is set, each realized schema
// is dropped with CASCADE and the detailed per-object order is
// skipped entirely (spec.md §4.5).
func (i *Instance) Drop(ctx context.Context, force bool) (*Plan, error) {
	p := &Plan{}
	if force {
		for _, name := range i.names.schemas {
			p.Schemas = append(p.Schemas, i.adapter.DropSchema(name, true))
		}
		return p, nil
	}

	for _, tableID := range i.names.TableIDs() {
		stmts, err := i.DropFieldNotNullStatements(tableID)
		if err != nil {
			return nil, err
		}
		p.FieldConstraints = append(p.FieldConstraints, stmts...)

		stmts, err = i.DropTableConstraintStatements(tableID)
		if err != nil {
			return nil, err
		}
		p.TableConstraints = append(p.TableConstraints, stmts...)

		stmts, err = i.DropIndexStatements(tableID)
		if err != nil {
			return nil, err
		}
		p.Indexes = append(p.Indexes, stmts...)
	}
	for _, tableID := range i.names.TableIDs() {
		stmt, err := i.DropTableStatement(tableID)
		if err != nil {
			return nil, err
		}
		p.Tables = append(p.Tables, stmt)
	}
	for _, schemaID := range i.names.SchemaIDs() {
		stmt, err := i.DropSchemaStatement(schemaID, false)
		if err != nil {
			return nil, err
		}
		p.Schemas = append(p.Schemas, stmt)
	}
	return p, nil
}

func (i *Instance) columns(table *ast.Definition) ([]vendor.ColumnDef, []string, error) {
	arena := i.u.Arena
	var cols []vendor.ColumnDef
	var pkCols []string
	for _, id := range realizedFields(arena, table.ID) {
		f := arena.Get(id)
		typeName, size, precision, err := fieldType(f)
		if err != nil {
			return nil, nil, err
		}
		spec, err := i.adapter.TypeSpecString(typeName, size, precision)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "field %s", f.Name)
		}
		pname, err := i.names.Field(id)
		if err != nil {
			return nil, nil, err
		}
		notnull := false
		if p := boolProp(f, "notnull"); p != nil {
			notnull = *p
		}
		cols = append(cols, vendor.ColumnDef{Name: pname, TypeSpec: spec, NotNull: notnull})
		if typeName == identifierType {
			pkCols = append(pkCols, pname)
		}
	}
	return cols, pkCols, nil
}

func (i *Instance) tableConstraints(table *ast.Definition, tableName string) ([]string, error) {
	arena := i.u.Arena
	var out []string
	for _, id := range realizedFields(arena, table.ID) {
		f := arena.Get(id)
		if f.Universal || f.ReferencesTarget == ast.NoDef {
			continue
		}
		refTableID := f.ReferencesTarget
		refTableName, err := i.names.Table(refTableID)
		if err != nil {
			continue
		}
		fkName, err := i.names.ForeignKey(id)
		if err != nil {
			return nil, err
		}
		fname, _ := i.names.Field(id)
		refPKCols := identifierColumns(arena, i.names, refTableID)
		out = append(out, i.adapter.AddForeignKey(tableName, fkName, []string{fname}, refTableName, refPKCols))
	}
	for _, itemID := range table.Items {
		item := arena.Get(itemID)
		if item.Kind != ast.KindConstraint || !item.Realized {
			continue
		}
		check := item.Property("check")
		if check == nil {
			continue
		}
		name, err := i.names.Constraint(itemID)
		if err != nil {
			continue
		}
		out = append(out, i.adapter.AddCheckConstraint(tableName, name, checkExpr(check)))
	}
	return out, nil
}

func (i *Instance) fieldConstraints(table *ast.Definition, tableName string) ([]string, error) {
	arena := i.u.Arena
	var out []string
	for _, id := range realizedFields(arena, table.ID) {
		f := arena.Get(id)
		if !FieldNotNull(f) {
			continue
		}
		pname, err := i.names.Field(id)
		if err != nil {
			return nil, err
		}
		typeName, size, precision, err := fieldType(f)
		if err != nil {
			return nil, err
		}
		spec, err := i.adapter.TypeSpecString(typeName, size, precision)
		if err != nil {
			return nil, err
		}
		out = append(out, i.adapter.AddNotNull(tableName, pname, spec))
	}
	return out, nil
}

func (i *Instance) indexes(arena *ast.Arena, table *ast.Definition, tableName string, withCluster bool) []string {
	clusterIdx := ast.NoDef
	if prop := table.Property("cluster"); prop != nil && len(prop.Values) == 1 && prop.Values[0].Kind == ast.ValueName {
		clusterIdx = prop.Values[0].Name.Target
	}
	var out []string
	for _, itemID := range table.Items {
		item := arena.Get(itemID)
		if item.Kind != ast.KindIndex || !item.Realized {
			continue
		}
		name, err := i.names.Index(itemID)
		if err != nil {
			continue
		}
		cols := indexColumns(arena, i.names, itemID)
		unique := false
		if p := boolProp(item, "unique"); p != nil {
			unique = *p
		}
		out = append(out, i.adapter.CreateIndex(tableName, name, cols, unique, withCluster && itemID == clusterIdx))
	}
	return out
}

func realizedFields(arena *ast.Arena, tableID ast.DefID) []ast.DefID {
	var out []ast.DefID
	var walk func(ast.DefID)
	walk = func(id ast.DefID) {
		for _, itemID := range arena.Get(id).Items {
			item := arena.Get(itemID)
			if !item.Realized {
				continue
			}
			switch item.Kind {
			case ast.KindField:
				out = append(out, itemID)
			case ast.KindFieldSet:
				walk(itemID)
			}
		}
	}
	walk(tableID)
	return out
}

func identifierColumns(arena *ast.Arena, names *Names, tableID ast.DefID) []string {
	var out []string
	for _, id := range realizedFields(arena, tableID) {
		f := arena.Get(id)
		if typeName, _, _, err := fieldType(f); err == nil && typeName == identifierType {
			if pname, err := names.Field(id); err == nil {
				out = append(out, pname)
			}
		}
	}
	return out
}

func indexColumns(arena *ast.Arena, names *Names, indexID ast.DefID) []string {
	index := arena.Get(indexID)
	table := enclosingTable(arena, indexID)
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
		_ = table
		if pname, err := names.Field(name.Target); err == nil {
			out = append(out, pname)
		}
	}
	return out
}

// RealizedFields returns every realized field owned, directly or
// through nested realized fieldsets, by the given top-level fieldset.
// Exported for pkg/upgrade, which needs the same walk to diff two
// independently compiled tables field by field.
func RealizedFields(arena *ast.Arena, table ast.DefID) []ast.DefID {
	return realizedFields(arena, table)
}

// FieldType returns a realized field's logical type name and optional
// size/precision, the same lookup plan.go uses to format a column's
// type-spec string. Exported for pkg/upgrade's retype comparison.
func FieldType(f *ast.Definition) (typeName string, size, precision *int, err error) {
	return fieldType(f)
}

// FieldNotNull reports whether a field declares `notnull true`.
// Exported for pkg/upgrade's notnull-flip comparison.
func FieldNotNull(f *ast.Definition) bool {
	p := boolProp(f, "notnull")
	return p != nil && *p
}

func fieldType(f *ast.Definition) (typeName string, size, precision *int, err error) {
	prop := f.Property("type")
	if prop == nil || len(prop.Values) != 1 || prop.Values[0].Kind != ast.ValueName {
		return "", nil, nil, errors.Errorf("field %s has no type", f.Name)
	}
	typeName = prop.Values[0].Name.Text
	if p := intProp(f, "size"); p != nil {
		size = p
	}
	if p := intProp(f, "precision"); p != nil {
		precision = p
	}
	return typeName, size, precision, nil
}

func boolProp(d *ast.Definition, name string) *bool {
	p := d.Property(name)
	if p == nil || len(p.Values) != 1 || p.Values[0].Kind != ast.ValueBool {
		return nil
	}
	return &p.Values[0].Bool
}

func intProp(d *ast.Definition, name string) *int {
	p := d.Property(name)
	if p == nil || len(p.Values) != 1 || p.Values[0].Kind != ast.ValueInt {
		return nil
	}
	v := int(p.Values[0].Int)
	return &v
}

// checkExpr renders a constraint's opaque check content back to text
// (spec.md §9(c): check content is passed through opaquely except for
// embedded field references, which render as their dotted text).
func checkExpr(prop *ast.Property) string {
	var out string
	for i, v := range prop.Values {
		if i > 0 {
			out += " "
		}
		if v.Kind == ast.ValueName && v.Name != nil {
			out += v.Name.Text
		} else {
			out += v.String()
		}
	}
	return out
}
