package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/venusdb/sdl/pkg/compiler"
	"github.com/venusdb/sdl/pkg/config"
	"github.com/venusdb/sdl/pkg/vendor"
)

func writeSchema(t *testing.T, dir, rel, body string) string {
	t.Helper()
	fpath := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(fpath), 0o755))
	require.NoError(t, os.WriteFile(fpath, []byte(body), 0o644))
	return fpath
}

// withConfig sets currentConfig for the duration of the test and
// restores it afterward, since every project-bound command reads the
// package-level variable Run's Before hook would otherwise populate.
func withConfig(t *testing.T, cfg *config.Config) {
	t.Helper()
	prev := currentConfig
	currentConfig = cfg
	t.Cleanup(func() { currentConfig = prev })
}

func TestRequireProjectFailsWithoutAConfig(t *testing.T) {
	withConfig(t, nil)
	err := requireProject(&cli.Command{})
	require.Error(t, err)
	require.Contains(t, err.Error(), configFile)
}

func TestRequireProjectSucceedsWithAConfig(t *testing.T) {
	withConfig(t, &config.Config{})
	require.NoError(t, requireProject(&cli.Command{}))
}

func TestCompileProjectSucceeds(t *testing.T) {
	dir := t.TempDir()
	main := writeSchema(t, dir, "app.sdl", `
schema acme.app {
	guid "11111111-1111-1111-1111-111111111111";

	required fieldset person {
		guid "22222222-2222-2222-2222-222222222222";

		field name {
			type string;
			size 80;
		}
	}
}
`)
	cfg := &config.Config{Entrypoint: main}

	res, err := compileProject(cfg, nil)
	require.NoError(t, err)
	require.True(t, res.Ok, "%v", res.Diagnostics)
}

func TestCompileProjectFailsOnMissingEntrypoint(t *testing.T) {
	cfg := &config.Config{Entrypoint: filepath.Join(t.TempDir(), "missing.sdl")}
	_, err := compileProject(cfg, nil)
	require.Error(t, err)
}

func TestCompileProjectReportsDiagnosticsForInvalidSchema(t *testing.T) {
	dir := t.TempDir()
	main := writeSchema(t, dir, "app.sdl", `
schema acme.app {
	required fieldset person {
		field name { type string; size 80; }
	}
}
`)
	cfg := &config.Config{Entrypoint: main}

	res, err := compileProject(cfg, nil)
	require.NoError(t, err)
	require.False(t, res.Ok)
	require.True(t, res.Diagnostics.HasErrors())
}

func TestPrintDiagnosticsWritesSortedOutput(t *testing.T) {
	dir := t.TempDir()
	main := writeSchema(t, dir, "app.sdl", `
schema acme.app {
	required fieldset person {
		field name { type string; size 80; }
	}
}
`)
	cfg := &config.Config{Entrypoint: main}
	res, err := compileProject(cfg, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	printDiagnostics(&buf, res.Diagnostics)
	require.NotEmpty(t, buf.String())
}

func TestDialVendorRejectsUnsupportedDriver(t *testing.T) {
	cfg := &config.Config{Vendor: config.Vendor{Driver: "mysql"}}
	_, err := dialVendor(context.Background(), cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "mysql")
}

func TestRunStatementsDryRunWritesFormattedStatements(t *testing.T) {
	var buf bytes.Buffer
	err := runStatements(context.Background(), &buf, nil, []string{"CREATE TABLE t (id bigint)"}, false, true)
	require.NoError(t, err)
	require.Equal(t, "CREATE TABLE t (id bigint);\n", buf.String())
}

// execRecordingAdapter is a minimal vendor.Adapter fake: every method
// but Exec is a no-op, and Exec records the statements it ran,
// optionally failing on one of them, so runStatements' direct
// (non-dry-run) path can be exercised without a live database.
type execRecordingAdapter struct {
	execs  []string
	failOn string
}

func (a *execRecordingAdapter) Connect(ctx context.Context, dsn string) error { return nil }
func (a *execRecordingAdapter) Disconnect(ctx context.Context) error         { return nil }
func (a *execRecordingAdapter) Exec(ctx context.Context, stmt string) error {
	a.execs = append(a.execs, stmt)
	if a.failOn != "" && stmt == a.failOn {
		return errors.New("boom")
	}
	return nil
}
func (a *execRecordingAdapter) Query(ctx context.Context, stmt string, args ...any) (vendor.Rows, error) {
	return nil, nil
}
func (a *execRecordingAdapter) Savepoint(ctx context.Context, name string) error        { return nil }
func (a *execRecordingAdapter) ReleaseSavepoint(ctx context.Context, name string) error { return nil }
func (a *execRecordingAdapter) RollbackTo(ctx context.Context, name string) error       { return nil }
func (a *execRecordingAdapter) SchemaExists(ctx context.Context, name string) (bool, error) {
	return false, nil
}
func (a *execRecordingAdapter) TableExists(ctx context.Context, schema, table string) (bool, error) {
	return false, nil
}
func (a *execRecordingAdapter) ColumnExists(ctx context.Context, schema, table, column string) (bool, error) {
	return false, nil
}
func (a *execRecordingAdapter) IndexExists(ctx context.Context, schema, table, index string) (bool, error) {
	return false, nil
}
func (a *execRecordingAdapter) MaxIdentifierLength() int          { return 63 }
func (a *execRecordingAdapter) ThreadSafetyLevel() int            { return 2 }
func (a *execRecordingAdapter) TypeMap() compiler.TypeMap         { return nil }
func (a *execRecordingAdapter) TypeSpecString(name string, size, precision *int) (string, error) {
	return name, nil
}
func (a *execRecordingAdapter) CreateSchema(name string) string            { return "" }
func (a *execRecordingAdapter) DropSchema(name string, cascade bool) string { return "" }
func (a *execRecordingAdapter) CreateTable(name string, columns []vendor.ColumnDef, pkName string, pkColumns []string) string {
	return ""
}
func (a *execRecordingAdapter) DropTable(name string) string                           { return "" }
func (a *execRecordingAdapter) AddColumn(table string, col vendor.ColumnDef) string    { return "" }
func (a *execRecordingAdapter) DropColumn(table, column string) string                 { return "" }
func (a *execRecordingAdapter) ChangeColumnType(table, column, typeSpec string) string { return "" }
func (a *execRecordingAdapter) AddNotNull(table, column, typeSpec string) string       { return "" }
func (a *execRecordingAdapter) DropNotNull(table, column, typeSpec string) string      { return "" }
func (a *execRecordingAdapter) CreateIndex(table, name string, columns []string, unique, cluster bool) string {
	return ""
}
func (a *execRecordingAdapter) DropIndex(table, name string) string { return "" }
func (a *execRecordingAdapter) AddForeignKey(table, name string, columns []string, refTable string, refColumns []string) string {
	return ""
}
func (a *execRecordingAdapter) AddCheckConstraint(table, name, expr string) string { return "" }
func (a *execRecordingAdapter) DropConstraint(table, name string) string          { return "" }
func (a *execRecordingAdapter) CreateComment(objectKind, objectName, comment string) string {
	return ""
}

var _ vendor.Adapter = (*execRecordingAdapter)(nil)

func TestRunStatementsStopsOnFirstErrorUnlessIgnoring(t *testing.T) {
	adapter := &execRecordingAdapter{failOn: "one"}
	err := runStatements(context.Background(), &bytes.Buffer{}, adapter, []string{"one", "two"}, false, false)
	require.Error(t, err)
	require.Equal(t, []string{"one"}, adapter.execs, "a failing statement must stop the run before the next one")
}

func TestRunStatementsIgnoreExceptionsRunsEveryStatement(t *testing.T) {
	adapter := &execRecordingAdapter{failOn: "one"}
	err := runStatements(context.Background(), &bytes.Buffer{}, adapter, []string{"one", "two"}, true, false)
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two"}, adapter.execs)
}

func TestNamingCommandPrintsManagedName(t *testing.T) {
	command := namingCmd()
	var buf bytes.Buffer
	app := &cli.Command{Name: "test", Flags: command.Flags, Action: command.Action, Writer: &buf}

	require.NoError(t, app.Run(context.Background(), []string{"test", "acme.app"}))
	require.Equal(t, "acme$app\n", buf.String())
}

func TestNamingCommandRequiresAPathArgument(t *testing.T) {
	command := namingCmd()
	app := &cli.Command{Name: "test", Flags: command.Flags, Action: command.Action}

	err := app.Run(context.Background(), []string{"test"})
	require.Error(t, err)
}

func TestNamingCommandRespectsMaxLenFlag(t *testing.T) {
	command := namingCmd()
	var buf bytes.Buffer
	app := &cli.Command{Name: "test", Flags: command.Flags, Action: command.Action, Writer: &buf}

	require.NoError(t, app.Run(context.Background(), []string{"test", "--max-len", "8", "a_very_long_dotted_path"}))
	require.Len(t, buf.String(), 9) // 8-char mangled name plus trailing newline
}

func TestCompileCommandFailsWithoutAProject(t *testing.T) {
	withConfig(t, nil)
	command := compileCmd()
	app := &cli.Command{Name: "test", Before: command.Before, Action: command.Action}

	err := app.Run(context.Background(), []string{"test"})
	require.Error(t, err)
	require.Contains(t, err.Error(), configFile)
}

func TestCompileCommandSucceeds(t *testing.T) {
	dir := t.TempDir()
	main := writeSchema(t, dir, "app.sdl", `
schema acme.app {
	guid "33333333-3333-3333-3333-333333333333";

	required fieldset person {
		guid "44444444-4444-4444-4444-444444444444";

		field name {
			type string;
			size 80;
		}
	}
}
`)
	withConfig(t, &config.Config{Entrypoint: main})

	command := compileCmd()
	var buf bytes.Buffer
	app := &cli.Command{Name: "test", Before: command.Before, Action: command.Action, Writer: &buf}

	require.NoError(t, app.Run(context.Background(), []string{"test"}))
	require.Contains(t, buf.String(), "compilation succeeded")
}

func TestCompileCommandReportsFailureExitCode(t *testing.T) {
	dir := t.TempDir()
	main := writeSchema(t, dir, "app.sdl", `
schema acme.app {
	required fieldset person {
		field name { type string; size 80; }
	}
}
`)
	withConfig(t, &config.Config{Entrypoint: main})

	command := compileCmd()
	var buf bytes.Buffer
	app := &cli.Command{Name: "test", Before: command.Before, Action: command.Action, Writer: &buf}

	err := app.Run(context.Background(), []string{"test"})
	require.Error(t, err)
	require.NotContains(t, buf.String(), "compilation succeeded")
}
