package pool_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/venusdb/sdl/pkg/compiler"
	"github.com/venusdb/sdl/pkg/pool"
	"github.com/venusdb/sdl/pkg/vendor"
)

// fakeAdapter is a minimal vendor.Adapter fake recording the
// statements and transaction-control calls this package issues,
// without a live database.
type fakeAdapter struct {
	execs        []string
	savepoints   []string
	released     []string
	rolledBackTo []string
	threadSafety int
	disconnected bool
}

func (a *fakeAdapter) Connect(ctx context.Context, dsn string) error { return nil }
func (a *fakeAdapter) Disconnect(ctx context.Context) error {
	a.disconnected = true
	return nil
}
func (a *fakeAdapter) Exec(ctx context.Context, stmt string) error {
	a.execs = append(a.execs, stmt)
	return nil
}
func (a *fakeAdapter) Query(ctx context.Context, stmt string, args ...any) (vendor.Rows, error) {
	return nil, nil
}
func (a *fakeAdapter) Savepoint(ctx context.Context, name string) error {
	a.savepoints = append(a.savepoints, name)
	return nil
}
func (a *fakeAdapter) ReleaseSavepoint(ctx context.Context, name string) error {
	a.released = append(a.released, name)
	return nil
}
func (a *fakeAdapter) RollbackTo(ctx context.Context, name string) error {
	a.rolledBackTo = append(a.rolledBackTo, name)
	return nil
}
func (a *fakeAdapter) SchemaExists(ctx context.Context, name string) (bool, error) {
	return false, nil
}
func (a *fakeAdapter) TableExists(ctx context.Context, schema, table string) (bool, error) {
	return false, nil
}
func (a *fakeAdapter) ColumnExists(ctx context.Context, schema, table, column string) (bool, error) {
	return false, nil
}
func (a *fakeAdapter) IndexExists(ctx context.Context, schema, table, index string) (bool, error) {
	return false, nil
}
func (a *fakeAdapter) MaxIdentifierLength() int  { return 63 }
func (a *fakeAdapter) ThreadSafetyLevel() int    { return a.threadSafety }
func (a *fakeAdapter) TypeMap() compiler.TypeMap { return nil }
func (a *fakeAdapter) TypeSpecString(name string, size, precision *int) (string, error) {
	return name, nil
}
func (a *fakeAdapter) CreateSchema(name string) string            { return "" }
func (a *fakeAdapter) DropSchema(name string, cascade bool) string { return "" }
func (a *fakeAdapter) CreateTable(name string, columns []vendor.ColumnDef, pkName string, pkColumns []string) string {
	return ""
}
func (a *fakeAdapter) DropTable(name string) string                           { return "" }
func (a *fakeAdapter) AddColumn(table string, col vendor.ColumnDef) string    { return "" }
func (a *fakeAdapter) DropColumn(table, column string) string                 { return "" }
func (a *fakeAdapter) ChangeColumnType(table, column, typeSpec string) string { return "" }
func (a *fakeAdapter) AddNotNull(table, column, typeSpec string) string       { return "" }
func (a *fakeAdapter) DropNotNull(table, column, typeSpec string) string      { return "" }
func (a *fakeAdapter) CreateIndex(table, name string, columns []string, unique, cluster bool) string {
	return ""
}
func (a *fakeAdapter) DropIndex(table, name string) string { return "" }
func (a *fakeAdapter) AddForeignKey(table, name string, columns []string, refTable string, refColumns []string) string {
	return ""
}
func (a *fakeAdapter) AddCheckConstraint(table, name, expr string) string { return "" }
func (a *fakeAdapter) DropConstraint(table, name string) string          { return "" }
func (a *fakeAdapter) CreateComment(objectKind, objectName, comment string) string {
	return ""
}

var _ vendor.Adapter = (*fakeAdapter)(nil)

type fakeRows struct {
	closed bool
}

func (r *fakeRows) Next() bool              { return false }
func (r *fakeRows) Scan(dest ...any) error  { return nil }
func (r *fakeRows) Close() error            { r.closed = true; return nil }
func (r *fakeRows) Err() error              { return nil }

func newConn() (*pool.Conn, *fakeAdapter) {
	a := &fakeAdapter{threadSafety: 2}
	return &pool.Conn{Adapter: a}, a
}

func TestConnBeginCommitLevelOneIsARealTransaction(t *testing.T) {
	conn, adapter := newConn()
	ctx := context.Background()

	require.NoError(t, conn.Begin(ctx))
	require.Equal(t, 1, conn.Level())
	require.NoError(t, conn.Commit(ctx, 1))
	require.Equal(t, 0, conn.Level())
	require.Equal(t, []string{"BEGIN", "COMMIT"}, adapter.execs)
}

func TestConnNestedBeginUsesSavepoints(t *testing.T) {
	conn, adapter := newConn()
	ctx := context.Background()

	require.NoError(t, conn.Begin(ctx))
	require.NoError(t, conn.Begin(ctx))
	require.Equal(t, 2, conn.Level())

	require.NoError(t, conn.Commit(ctx, 2))
	require.Equal(t, []string{"sdl_level_2"}, adapter.released)
	require.Equal(t, 1, conn.Level())

	require.NoError(t, conn.Commit(ctx, 1))
	require.Equal(t, []string{"BEGIN", "COMMIT"}, adapter.execs)
}

func TestConnRollbackUsesRollbackToForNestedLevel(t *testing.T) {
	conn, adapter := newConn()
	ctx := context.Background()

	require.NoError(t, conn.Begin(ctx))
	require.NoError(t, conn.Begin(ctx))
	require.NoError(t, conn.Rollback(ctx, 2))
	require.Equal(t, []string{"sdl_level_2"}, adapter.rolledBackTo)

	require.NoError(t, conn.Rollback(ctx, 1))
	require.Equal(t, []string{"BEGIN", "ROLLBACK"}, adapter.execs)
}

func TestConnEndingWrongLevelIsATransactionError(t *testing.T) {
	conn, _ := newConn()
	ctx := context.Background()
	require.NoError(t, conn.Begin(ctx))

	err := conn.Commit(ctx, 2)
	require.Error(t, err)
	var txErr *pool.TransactionError
	require.ErrorAs(t, err, &txErr)
	require.Equal(t, 2, txErr.Level)
	require.Equal(t, 1, txErr.AtLevel)
}

func TestConnEndLevelClosesTrackedCursors(t *testing.T) {
	conn, _ := newConn()
	ctx := context.Background()
	require.NoError(t, conn.Begin(ctx))

	rows := &fakeRows{}
	conn.TrackCursor(rows)
	require.NoError(t, conn.Commit(ctx, 1))
	require.True(t, rows.closed)
}

func TestWithTransactionCommitsOnSuccess(t *testing.T) {
	conn, adapter := newConn()
	err := pool.WithTransaction(context.Background(), conn, func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 0, conn.Level())
	require.Equal(t, []string{"BEGIN", "COMMIT"}, adapter.execs)
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	conn, adapter := newConn()
	sentinel := errors.New("boom")
	err := pool.WithTransaction(context.Background(), conn, func(ctx context.Context) error {
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	require.Equal(t, 0, conn.Level())
	require.Equal(t, []string{"BEGIN", "ROLLBACK"}, adapter.execs)
}

func TestWithTransactionReRaisesPanicAfterRollback(t *testing.T) {
	conn, adapter := newConn()

	require.Panics(t, func() {
		_ = pool.WithTransaction(context.Background(), conn, func(ctx context.Context) error {
			panic("boom")
		})
	})
	require.Equal(t, 0, conn.Level())
	require.Equal(t, []string{"BEGIN", "ROLLBACK"}, adapter.execs)
}

func TestPoolBorrowReusesReturnedConnection(t *testing.T) {
	dials := 0
	p, err := pool.New(context.Background(), pool.Options{
		Async: true,
		Dialer: func(ctx context.Context) (vendor.Adapter, error) {
			dials++
			return &fakeAdapter{threadSafety: 2}, nil
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, dials, "New dials one probe connection")

	conn, err := p.Borrow(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, dials, "the probe connection should be reused, not redialed")

	p.Return(context.Background(), conn)
	conn2, err := p.Borrow(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, dials)
	require.Same(t, conn, conn2)
}

func TestPoolRejectsUnsafeDriver(t *testing.T) {
	_, err := pool.New(context.Background(), pool.Options{
		Async: true,
		Dialer: func(ctx context.Context) (vendor.Adapter, error) {
			return &fakeAdapter{threadSafety: 0}, nil
		},
	})
	require.Error(t, err)
}

func TestPoolReturnClosesLowThreadSafetyConnection(t *testing.T) {
	p, err := pool.New(context.Background(), pool.Options{
		Async: true,
		Dialer: func(ctx context.Context) (vendor.Adapter, error) {
			return &fakeAdapter{threadSafety: 2}, nil
		},
	})
	require.NoError(t, err)

	unsafeAdapter := &fakeAdapter{threadSafety: 1}
	p.Return(context.Background(), &pool.Conn{Adapter: unsafeAdapter})
	require.True(t, unsafeAdapter.disconnected, "a connection below ThreadSafetyLevel 2 must be closed, not pooled")

	// the pool's own probe connection (ThreadSafetyLevel 2) is still
	// idle, so borrowing again must not reuse the closed one.
	dialed, err := p.Borrow(context.Background())
	require.NoError(t, err)
	require.NotSame(t, unsafeAdapter, dialed.Adapter)
}

func TestPoolMaxIdleEvictsOldestConnection(t *testing.T) {
	p, err := pool.New(context.Background(), pool.Options{
		Async:   true,
		MaxIdle: 1,
		Dialer: func(ctx context.Context) (vendor.Adapter, error) {
			return &fakeAdapter{threadSafety: 2}, nil
		},
	})
	require.NoError(t, err)

	probe, err := p.Borrow(context.Background())
	require.NoError(t, err)
	p.Return(context.Background(), probe)

	second := &pool.Conn{Adapter: &fakeAdapter{threadSafety: 2}}
	p.Return(context.Background(), second)

	require.True(t, probe.Adapter.(*fakeAdapter).disconnected,
		"returning a connection beyond MaxIdle must evict and disconnect the oldest")
}
