package resolve

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/venusdb/sdl/pkg/ast"
)

func addChild(a *ast.Arena, owner ast.DefID, kind ast.Kind, name string) ast.DefID {
	def := ast.NewDefinition(kind, name, ast.Pos{})
	def.Owner = owner
	def.SchemaID = a.Get(owner).SchemaID
	if def.SchemaID == ast.NoDef {
		def.SchemaID = owner
	}
	def.FinalImplementor = ast.NoDef
	id := a.Add(def)
	def.FinalImplementor = id
	ownerDef := a.Get(owner)
	ownerDef.Items = append(ownerDef.Items, id)
	return id
}

func addSchema(a *ast.Arena, pkg string) ast.DefID {
	def := ast.NewDefinition(ast.KindSchema, pkg, ast.Pos{})
	def.PackageName = pkg
	def.TopLevel = true
	id := a.Add(def)
	def.SchemaID = id
	def.FinalImplementor = id
	return id
}

func TestBindStaticContainmentUpward(t *testing.T) {
	a := ast.NewArena()
	schemaID := addSchema(a, "acme.app")
	fsID := addChild(a, schemaID, ast.KindFieldSet, "widget")
	fieldID := addChild(a, fsID, ast.KindField, "name")

	u := &Universe{Arena: a, ByPackage: map[string]ast.DefID{"acme.app": schemaID}}

	res := BindStatic(u, fieldID, &ast.DottedName{Text: "widget", Filter: ast.KindFieldSet})
	require.NotNil(t, res)
	require.Equal(t, fsID, res.Path.Target())

	res = BindStatic(u, fieldID, &ast.DottedName{Text: "widget.name", Filter: ast.KindField})
	require.NotNil(t, res)
	require.Equal(t, fieldID, res.Path.Target())
}

func TestBindStaticAbsolute(t *testing.T) {
	a := ast.NewArena()
	schemaID := addSchema(a, "acme.app")
	fsID := addChild(a, schemaID, ast.KindFieldSet, "widget")

	u := &Universe{Arena: a, ByPackage: map[string]ast.DefID{"acme.app": schemaID}}

	res := BindStatic(u, schemaID, &ast.DottedName{Text: "acme.app.widget", Absolute: true, Filter: ast.KindFieldSet})
	require.NotNil(t, res)
	require.Equal(t, fsID, res.Path.Target())
}

func TestBindStaticViaImportAlias(t *testing.T) {
	a := ast.NewArena()
	baseSchema := addSchema(a, "acme.base")
	baseFS := addChild(a, baseSchema, ast.KindFieldSet, "widget")

	appSchema := addSchema(a, "acme.app")
	appDef := a.Get(appSchema)
	appDef.Imports = append(appDef.Imports, &ast.Use{Schema: "acme.base", Alias: "base", Resolved: baseSchema})
	origin := addChild(a, appSchema, ast.KindFieldSet, "gadget")

	u := &Universe{Arena: a, ByPackage: map[string]ast.DefID{"acme.base": baseSchema, "acme.app": appSchema}}

	res := BindStatic(u, origin, &ast.DottedName{Text: "base.widget", Filter: ast.KindFieldSet})
	require.NotNil(t, res)
	require.Equal(t, baseFS, res.Path.Target())
}

func TestBindStaticOwnPackagePrefixWarns(t *testing.T) {
	a := ast.NewArena()
	schemaID := addSchema(a, "acme.app")
	fsID := addChild(a, schemaID, ast.KindFieldSet, "widget")
	origin := addChild(a, fsID, ast.KindField, "name")

	u := &Universe{Arena: a, ByPackage: map[string]ast.DefID{"acme.app": schemaID}}

	res := BindStatic(u, origin, &ast.DottedName{Text: "acme.app.widget", Filter: ast.KindFieldSet})
	require.NotNil(t, res)
	require.Equal(t, fsID, res.Path.Target())
	require.NotEmpty(t, res.Warning)
}

func TestBindDynamicUsesMembersAndFinalImplementor(t *testing.T) {
	a := ast.NewArena()
	schemaID := addSchema(a, "acme.app")

	base := addChild(a, schemaID, ast.KindFieldSet, "base")
	baseField := addChild(a, base, ast.KindField, "name")
	a.Get(base).Members = []ast.Member{{Name: "name", Target: baseField}}

	impl := addChild(a, schemaID, ast.KindFieldSet, "impl")
	implField := addChild(a, impl, ast.KindField, "name")
	a.Get(impl).Members = []ast.Member{{Name: "name", Target: implField}}
	a.Get(baseField).FinalImplementor = implField

	gadget := addChild(a, schemaID, ast.KindFieldSet, "gadget")
	a.Get(gadget).Members = []ast.Member{{Name: "base", Target: base}}

	origin := addChild(a, gadget, ast.KindField, "code")

	u := &Universe{Arena: a, ByPackage: map[string]ast.DefID{"acme.app": schemaID}}

	res := Bind(u, origin, &ast.DottedName{Text: "base.name", Filter: ast.KindField})
	require.NotNil(t, res)
	require.Equal(t, implField, res.Path.Target())
}

func TestBindFallsBackToStaticForFirstSegment(t *testing.T) {
	a := ast.NewArena()
	schemaID := addSchema(a, "acme.app")
	fsID := addChild(a, schemaID, ast.KindFieldSet, "widget")
	field := addChild(a, fsID, ast.KindField, "name")
	a.Get(fsID).Members = []ast.Member{{Name: "name", Target: field}}

	origin := addChild(a, fsID, ast.KindField, "code")

	u := &Universe{Arena: a, ByPackage: map[string]ast.DefID{"acme.app": schemaID}}

	res := Bind(u, origin, &ast.DottedName{Text: "widget.name", Filter: ast.KindField})
	require.NotNil(t, res)
	require.Equal(t, field, res.Path.Target())
}
