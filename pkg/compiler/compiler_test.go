package compiler_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/venusdb/sdl/pkg/ast"
	"github.com/venusdb/sdl/pkg/compiler"
	"github.com/venusdb/sdl/pkg/loader"
	"github.com/venusdb/sdl/pkg/vendor/postgres"
)

func writeSchema(t *testing.T, dir, rel, body string) string {
	t.Helper()
	fpath := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(fpath), 0o755))
	require.NoError(t, os.WriteFile(fpath, []byte(body), 0o644))
	return fpath
}

func mustLoad(t *testing.T, dir string, mains ...string) *loader.Result {
	t.Helper()
	res, err := loader.Load(mains, []string{dir})
	require.NoError(t, err)
	return res
}

func TestCompileMinimalRealization(t *testing.T) {
	dir := t.TempDir()
	main := writeSchema(t, dir, "acme/people.sdl", `
schema acme.people {
	guid "11111111-1111-1111-1111-111111111111";

	required fieldset person {
		guid "22222222-2222-2222-2222-222222222222";

		field name {
			type string;
			size 80;
			notnull true;
		}
	}
}
`)
	load := mustLoad(t, dir, main)

	res := compiler.Compile(load, compiler.Options{})
	require.True(t, res.Ok, "%v", res.Diagnostics)
	require.False(t, res.Diagnostics.HasErrors())

	peopleID := load.ByPackage["acme.people"]
	people := load.Arena.Get(peopleID)
	require.True(t, people.Realized, "source schema must be realized")

	personID := people.Items[0]
	person := load.Arena.Get(personID)
	require.Equal(t, "person", person.Name)
	require.True(t, person.Realized, "required top-level fieldset must be realized")

	require.Len(t, person.Members, 1)
	nameField := load.Arena.Get(person.Members[0].Target)
	require.True(t, nameField.Realized, "a realized fieldset's member field must itself be realized")
}

func TestCompileUnrealizedSchemaIsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "acme/unused.sdl", `
schema acme.unused {
	guid "00000000-0000-0000-0000-000000000001";

	fieldset widget {
		field name { type string; }
	}
}
`)
	main := writeSchema(t, dir, "acme/app.sdl", `
schema acme.app {
	use acme.unused as unused;

	guid "00000000-0000-0000-0000-000000000002";
}
`)
	load := mustLoad(t, dir, main)

	res := compiler.Compile(load, compiler.Options{})
	require.True(t, res.Ok, "%v", res.Diagnostics)

	unusedID := load.ByPackage["acme.unused"]
	unused := load.Arena.Get(unusedID)
	require.False(t, unused.Realized, "a non-required use must not be pulled into realization")
}

// TestCompileImplementationIndirection exercises spec.md §8's
// implementation-indirection scenario: a field referencing an
// abstract fieldset via "=" indirection resolves through the
// implements chain to whichever declaration actually implements it,
// and realizing the referencing field realizes that implementor.
func TestCompileImplementationIndirection(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "acme/iface.sdl", `
schema acme.iface {
	guid "33333333-3333-3333-3333-333333333333";

	abstract fieldset contact {
		field kind {
			type string;
		}
	}
}
`)
	main := writeSchema(t, dir, "acme/app.sdl", `
schema acme.app {
	use acme.iface as iface;

	guid "44444444-4444-4444-4444-444444444444";

	fieldset contact_info {
		implements iface.contact;
		guid "55555555-5555-5555-5555-555555555555";

		field email {
			type string;
			size 120;
		}
	}

	required fieldset account {
		guid "66666666-6666-6666-6666-666666666666";

		field name {
			type string;
			size 80;
		}
		field owner -> =iface.contact[fieldset] {
		}
	}
}
`)
	load := mustLoad(t, dir, main)

	res := compiler.Compile(load, compiler.Options{})
	require.True(t, res.Ok, "%v", res.Diagnostics)

	appID := load.ByPackage["acme.app"]
	app := load.Arena.Get(appID)

	var account, contactInfo *ast.Definition
	for _, itemID := range app.Items {
		item := load.Arena.Get(itemID)
		switch item.Name {
		case "account":
			account = item
		case "contact_info":
			contactInfo = item
		}
	}
	require.NotNil(t, account)
	require.NotNil(t, contactInfo)

	require.Len(t, account.Members, 2)
	ownerField := load.Arena.Get(account.Members[1].Target)
	require.Equal(t, "owner", ownerField.Name)
	require.Equal(t, contactInfo.ID, ownerField.ReferencesTarget,
		"indirect reference must resolve to the final implementor, not the abstract declaration")

	require.True(t, contactInfo.Realized, "realizing a field that references an implementor realizes it")
}

// TestCompileRenameByDeletionOverride exercises spec.md §8's
// rename-by-deletion scenario: "rename x as y" removes an inherited
// member from the effective list and reinserts it under the new name,
// and realization follows the renamed member back to the original
// declaration.
func TestCompileRenameByDeletionOverride(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "acme/base.sdl", `
schema acme.base {
	guid "77777777-7777-7777-7777-777777777777";

	abstract fieldset widget {
		field legacy_name {
			type string;
			size 80;
		}
	}
}
`)
	main := writeSchema(t, dir, "acme/app.sdl", `
schema acme.app {
	use acme.base as base;

	guid "88888888-8888-8888-8888-888888888888";

	required fieldset gadget : base.widget {
		guid "99999999-9999-9999-9999-999999999999";

		rename legacy_name as name;
	}
}
`)
	load := mustLoad(t, dir, main)

	res := compiler.Compile(load, compiler.Options{})
	require.True(t, res.Ok, "%v", res.Diagnostics)
	require.False(t, res.Diagnostics.HasWarnings(), "the rename must be recorded as used, not warned about")

	baseID := load.ByPackage["acme.base"]
	base := load.Arena.Get(baseID)
	widget := load.Arena.Get(base.Items[0])
	legacyField := load.Arena.Get(widget.Items[0])

	appID := load.ByPackage["acme.app"]
	app := load.Arena.Get(appID)
	gadget := load.Arena.Get(app.Items[0])

	require.Len(t, gadget.Members, 1)
	require.Equal(t, "name", gadget.Members[0].Name)
	require.Equal(t, legacyField.ID, gadget.Members[0].Target,
		"rename must keep pointing at the original field declaration")
	require.True(t, legacyField.Realized, "realization follows the rename back to the inherited field")
}

func TestCompileDuplicateUseIsAnError(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "acme/base.sdl", `
schema acme.base {
	fieldset widget { field name { type string; } }
}
`)
	main := writeSchema(t, dir, "acme/app.sdl", `
schema acme.app {
	use acme.base as one;
	use acme.base as two;
}
`)
	load := mustLoad(t, dir, main)

	res := compiler.Compile(load, compiler.Options{})
	require.False(t, res.Ok)
	require.True(t, res.Diagnostics.HasErrors())

	var found bool
	for _, d := range res.Diagnostics {
		if d.Code == 1002 {
			found = true
		}
	}
	require.True(t, found, "expected a duplicate-use diagnostic (1002), got %v", res.Diagnostics)
}

func TestCompileImplementsCycleIsAnError(t *testing.T) {
	dir := t.TempDir()
	main := writeSchema(t, dir, "acme/cycle.sdl", `
schema acme.cycle {
	fieldset a {
		implements b;
	}
	fieldset b {
		implements a;
	}
}
`)
	load := mustLoad(t, dir, main)

	res := compiler.Compile(load, compiler.Options{})
	require.False(t, res.Ok)

	var found bool
	for _, d := range res.Diagnostics {
		if d.Code == 1014 {
			found = true
		}
	}
	require.True(t, found, "expected a cyclic-implements diagnostic (1014), got %v", res.Diagnostics)
}

func TestCompileRequiredFieldsetMissingGUIDIsAnError(t *testing.T) {
	dir := t.TempDir()
	main := writeSchema(t, dir, "acme/app.sdl", `
schema acme.app {
	required fieldset person {
		field name { type string; size 80; }
	}
}
`)
	load := mustLoad(t, dir, main)

	res := compiler.Compile(load, compiler.Options{})
	require.False(t, res.Ok)

	var found bool
	for _, d := range res.Diagnostics {
		if d.Code == 7011 {
			found = true
		}
	}
	require.True(t, found, "expected a missing-guid diagnostic (7011), got %v", res.Diagnostics)
}

// TestCompileVendorTypeMap exercises phase 8 against the real Postgres
// type map: a field typed "varchar" without a size is an error, and a
// correctly sized one compiles clean.
func TestCompileVendorTypeMap(t *testing.T) {
	dir := t.TempDir()
	main := writeSchema(t, dir, "acme/app.sdl", `
schema acme.app {
	guid "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa";

	required fieldset person {
		guid "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb";

		field name {
			type varchar;
			size 80;
		}
		field bio {
			type varchar;
		}
	}
}
`)
	load := mustLoad(t, dir, main)
	typeMap := postgres.New().TypeMap()

	res := compiler.Compile(load, compiler.Options{TypeMap: typeMap})
	require.False(t, res.Ok)

	var found bool
	for _, d := range res.Diagnostics {
		if d.Code == 8003 {
			found = true
		}
	}
	require.True(t, found, "expected a missing-size diagnostic (8003) for the unsized varchar field, got %v", res.Diagnostics)
}

func TestCompileSkipsVendorPhaseWithoutTypeMap(t *testing.T) {
	dir := t.TempDir()
	main := writeSchema(t, dir, "acme/app.sdl", `
schema acme.app {
	guid "cccccccc-cccc-cccc-cccc-cccccccccccc";

	required fieldset person {
		guid "dddddddd-dddd-dddd-dddd-dddddddddddd";

		field name {
			type not_a_real_type;
		}
	}
}
`)
	load := mustLoad(t, dir, main)

	res := compiler.Compile(load, compiler.Options{})
	require.True(t, res.Ok, "phase 8 must not run when no TypeMap is configured: %v", res.Diagnostics)
}
