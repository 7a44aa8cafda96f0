package instance

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/venusdb/sdl/pkg/ast"
	"github.com/venusdb/sdl/pkg/compiler"
	"github.com/venusdb/sdl/pkg/resolve"
	"github.com/venusdb/sdl/pkg/vendor"
)

// fakeAdapter renders deterministic, easy-to-assert-on strings instead
// of real SQL; it exists purely to drive the ordering and lookup logic
// in this package without a live database.
type fakeAdapter struct{}

func (fakeAdapter) Connect(ctx context.Context, dsn string) error { return nil }
func (fakeAdapter) Disconnect(ctx context.Context) error          { return nil }
func (fakeAdapter) Exec(ctx context.Context, stmt string) error   { return nil }
func (fakeAdapter) Query(ctx context.Context, stmt string, args ...any) (vendor.Rows, error) {
	return nil, nil
}
func (fakeAdapter) Savepoint(ctx context.Context, name string) error        { return nil }
func (fakeAdapter) ReleaseSavepoint(ctx context.Context, name string) error { return nil }
func (fakeAdapter) RollbackTo(ctx context.Context, name string) error       { return nil }
func (fakeAdapter) SchemaExists(ctx context.Context, name string) (bool, error) { return false, nil }
func (fakeAdapter) TableExists(ctx context.Context, schema, table string) (bool, error) {
	return false, nil
}
func (fakeAdapter) ColumnExists(ctx context.Context, schema, table, column string) (bool, error) {
	return false, nil
}
func (fakeAdapter) IndexExists(ctx context.Context, schema, table, index string) (bool, error) {
	return false, nil
}
func (fakeAdapter) MaxIdentifierLength() int { return 31 }
func (fakeAdapter) ThreadSafetyLevel() int   { return 2 }
func (fakeAdapter) TypeMap() compiler.TypeMap { return nil }
func (fakeAdapter) TypeSpecString(typeName string, size, precision *int) (string, error) {
	if size != nil {
		return fmt.Sprintf("%s(%d)", typeName, *size), nil
	}
	return typeName, nil
}

func (fakeAdapter) CreateSchema(name string) string         { return "CREATE SCHEMA " + name }
func (fakeAdapter) DropSchema(name string, cascade bool) string {
	if cascade {
		return "DROP SCHEMA " + name + " CASCADE"
	}
	return "DROP SCHEMA " + name
}
func (fakeAdapter) CreateTable(name string, columns []vendor.ColumnDef, pkName string, pkColumns []string) string {
	var cols []string
	for _, c := range columns {
		cols = append(cols, c.Name+" "+c.TypeSpec)
	}
	s := "CREATE TABLE " + name + " (" + strings.Join(cols, ", ")
	if len(pkColumns) > 0 {
		s += fmt.Sprintf(", CONSTRAINT %s PRIMARY KEY (%s)", pkName, strings.Join(pkColumns, ", "))
	}
	return s + ")"
}
func (fakeAdapter) DropTable(name string) string { return "DROP TABLE " + name }
func (fakeAdapter) AddColumn(table string, col vendor.ColumnDef) string {
	return "ALTER TABLE " + table + " ADD COLUMN " + col.Name
}
func (fakeAdapter) DropColumn(table, column string) string {
	return "ALTER TABLE " + table + " DROP COLUMN " + column
}
func (fakeAdapter) ChangeColumnType(table, column, typeSpec string) string {
	return "ALTER TABLE " + table + " ALTER COLUMN " + column + " TYPE " + typeSpec
}
func (fakeAdapter) AddNotNull(table, column, typeSpec string) string {
	return "ALTER TABLE " + table + " ALTER COLUMN " + column + " SET NOT NULL"
}
func (fakeAdapter) DropNotNull(table, column, typeSpec string) string {
	return "ALTER TABLE " + table + " ALTER COLUMN " + column + " DROP NOT NULL"
}
func (fakeAdapter) CreateIndex(table, name string, columns []string, unique bool, cluster bool) string {
	kind := "INDEX"
	if unique {
		kind = "UNIQUE INDEX"
	}
	s := fmt.Sprintf("CREATE %s %s ON %s (%s)", kind, name, table, strings.Join(columns, ", "))
	if cluster {
		s += "; CLUSTER " + table + " USING " + name
	}
	return s
}
func (fakeAdapter) DropIndex(table, name string) string { return "DROP INDEX " + name }
func (fakeAdapter) AddForeignKey(table, name string, columns []string, refTable string, refColumns []string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		table, name, strings.Join(columns, ", "), refTable, strings.Join(refColumns, ", "))
}
func (fakeAdapter) AddCheckConstraint(table, name, expr string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s)", table, name, expr)
}
func (fakeAdapter) DropConstraint(table, name string) string {
	return "ALTER TABLE " + table + " DROP CONSTRAINT " + name
}
func (fakeAdapter) CreateComment(objectKind, objectName, comment string) string {
	return fmt.Sprintf("COMMENT ON %s %s IS %q", objectKind, objectName, comment)
}

var _ vendor.Adapter = fakeAdapter{}

func strProp(name, value string) *ast.Property {
	return &ast.Property{Name: name, Values: []ast.Value{{Kind: ast.ValueString, Str: value}}}
}

func typeProp(name string) *ast.Property {
	return &ast.Property{Name: "type", Values: []ast.Value{{Kind: ast.ValueName, Name: &ast.DottedName{Text: name}}}}
}

func boolPropVal(name string, v bool) *ast.Property {
	return &ast.Property{Name: name, Values: []ast.Value{{Kind: ast.ValueBool, Bool: v}}}
}

// buildFixture wires a single schema containing two tables: "accounts"
// (an identifier primary key, a required name field, and a unique
// index on name) and "orders" (an identifier primary key plus a
// reference field pointing back at accounts), without going through
// the parser or compiler phases, to exercise Names/Plan directly.
func buildFixture(t *testing.T) (*resolve.Universe, ast.DefID, ast.DefID) {
	t.Helper()
	arena := ast.NewArena()

	schema := ast.NewDefinition(ast.KindSchema, "bank", ast.Pos{})
	schema.PackageName = "bank"
	schema.Realized = true
	schema.GUID = "11111111-1111-1111-1111-111111111111"
	schemaID := arena.Add(schema)
	schema.SchemaID = schemaID

	accounts := ast.NewDefinition(ast.KindFieldSet, "accounts", ast.Pos{})
	accounts.Owner = schemaID
	accounts.SchemaID = schemaID
	accounts.TopLevel = true
	accounts.Realized = true
	accounts.FinalImplementor = 0
	accountsID := arena.Add(accounts)
	accounts.ID = accountsID
	accounts.FinalImplementor = accountsID
	schema.Items = append(schema.Items, accountsID)

	acctID := ast.NewDefinition(ast.KindField, "id", ast.Pos{})
	acctID.Owner = accountsID
	acctID.SchemaID = schemaID
	acctID.Realized = true
	acctID.Properties = []*ast.Property{typeProp("identifier")}
	acctIDID := arena.Add(acctID)
	accounts.Items = append(accounts.Items, acctIDID)

	acctName := ast.NewDefinition(ast.KindField, "name", ast.Pos{})
	acctName.Owner = accountsID
	acctName.SchemaID = schemaID
	acctName.Realized = true
	acctName.Properties = []*ast.Property{typeProp("varchar"), {Name: "size", Values: []ast.Value{{Kind: ast.ValueInt, Int: 64}}}, boolPropVal("notnull", true)}
	acctNameID := arena.Add(acctName)
	accounts.Items = append(accounts.Items, acctNameID)

	nameIndex := ast.NewDefinition(ast.KindIndex, "byname", ast.Pos{})
	nameIndex.Owner = accountsID
	nameIndex.SchemaID = schemaID
	nameIndex.Realized = true
	nameIndex.Properties = []*ast.Property{
		{Name: "fields", Values: []ast.Value{{Kind: ast.ValueName, Name: &ast.DottedName{Text: "name", Target: acctNameID}}}},
		boolPropVal("unique", true),
	}
	nameIndexID := arena.Add(nameIndex)
	accounts.Items = append(accounts.Items, nameIndexID)

	orders := ast.NewDefinition(ast.KindFieldSet, "orders", ast.Pos{})
	orders.Owner = schemaID
	orders.SchemaID = schemaID
	orders.TopLevel = true
	orders.Realized = true
	ordersID := arena.Add(orders)
	orders.ID = ordersID
	orders.FinalImplementor = ordersID
	schema.Items = append(schema.Items, ordersID)

	orderID := ast.NewDefinition(ast.KindField, "id", ast.Pos{})
	orderID.Owner = ordersID
	orderID.SchemaID = schemaID
	orderID.Realized = true
	orderID.Properties = []*ast.Property{typeProp("identifier")}
	orderIDID := arena.Add(orderID)
	orders.Items = append(orders.Items, orderIDID)

	acctRef := ast.NewDefinition(ast.KindField, "account", ast.Pos{})
	acctRef.Owner = ordersID
	acctRef.SchemaID = schemaID
	acctRef.Realized = true
	acctRef.ReferencesTarget = accountsID
	acctRef.Properties = []*ast.Property{typeProp("identifier")}
	acctRefID := arena.Add(acctRef)
	orders.Items = append(orders.Items, acctRefID)

	u := &resolve.Universe{Arena: arena, ByPackage: map[string]ast.DefID{"bank": schemaID}}
	return u, accountsID, ordersID
}

func TestNewNamesPrecomputesEveryRealizedObject(t *testing.T) {
	u, accountsID, ordersID := buildFixture(t)
	names := NewNames(u, fakeAdapter{})

	schemaName, err := names.Schema(u.ByPackage["bank"])
	require.NoError(t, err)
	require.Equal(t, "bank", schemaName)

	tableName, err := names.Table(accountsID)
	require.NoError(t, err)
	require.Equal(t, "accounts", tableName)

	pkName, err := names.PrimaryKey(accountsID)
	require.NoError(t, err)
	require.Contains(t, pkName, "pk")
	require.Contains(t, pkName, "accounts")

	_, err = names.Table(ordersID + 100)
	require.ErrorIs(t, err, ErrNotRealized)
}

func TestNewNamesForeignKeyOnlyForNonUniversalReference(t *testing.T) {
	u, _, ordersID := buildFixture(t)
	names := NewNames(u, fakeAdapter{})
	orders := u.Arena.Get(ordersID)

	var refFieldID ast.DefID
	for _, id := range orders.Items {
		if u.Arena.Get(id).Name == "account" {
			refFieldID = id
		}
	}
	require.NotZero(t, refFieldID)

	fkName, err := names.ForeignKey(refFieldID)
	require.NoError(t, err)
	require.Equal(t, "fk$orders$account", fkName)
}

func TestInstanceCreateOrdersStatementGroups(t *testing.T) {
	u, _, _ := buildFixture(t)
	inst := New(u, fakeAdapter{})

	plan, err := inst.Create(context.Background())
	require.NoError(t, err)

	require.Len(t, plan.Schemas, 1)
	require.Contains(t, plan.Schemas[0], "CREATE SCHEMA")
	require.Len(t, plan.Tables, 2)
	require.Equal(t, "CREATE TABLE accounts (id identifier, name varchar(64), CONSTRAINT pk$accounts PRIMARY KEY (id))", plan.Tables[0])
	require.Equal(t, "CREATE TABLE orders (id identifier, account identifier, CONSTRAINT pk$orders PRIMARY KEY (id, account))", plan.Tables[1])

	require.Equal(t, []string{
		"ALTER TABLE orders ADD CONSTRAINT fk$orders$account FOREIGN KEY (account) REFERENCES accounts (id)",
	}, plan.TableConstraints)

	require.NotEmpty(t, plan.FieldConstraints)
	require.Equal(t, []string{"CREATE UNIQUE INDEX accounts$byname$name ON accounts (name)"}, plan.Indexes)

	order := plan.CreateOrder()
	require.Equal(t, plan.Schemas[0], order[0])
}

func TestInstanceDropForceSkipsDetailedOrder(t *testing.T) {
	u, _, _ := buildFixture(t)
	inst := New(u, fakeAdapter{})

	plan, err := inst.Drop(context.Background(), true)
	require.NoError(t, err)
	require.Empty(t, plan.Tables)
	require.Len(t, plan.Schemas, 1)
	require.Contains(t, plan.Schemas[0], "CASCADE")
}

func TestInstanceDropWithoutForceOrdersConstraintsBeforeTables(t *testing.T) {
	u, _, _ := buildFixture(t)
	inst := New(u, fakeAdapter{})

	plan, err := inst.Drop(context.Background(), false)
	require.NoError(t, err)
	require.NotEmpty(t, plan.Tables)
	require.NotEmpty(t, plan.Schemas)

	order := plan.DropOrder()
	tableIdx := indexOf(order, plan.Tables[0])
	constraintIdx := -1
	if len(plan.TableConstraints) > 0 {
		constraintIdx = indexOf(order, plan.TableConstraints[0])
	}
	if constraintIdx >= 0 {
		require.Less(t, constraintIdx, tableIdx)
	}
}

func indexOf(haystack []string, needle string) int {
	for i, s := range haystack {
		if s == needle {
			return i
		}
	}
	return -1
}
