// Package pool implements the connection pool and reentrant
// transaction model described in spec.md §5: a thread-safe
// borrow/return interface over vendor.Adapter connections, a reaper
// that closes aged-out idle connections, and level-counted
// transactions backed by real BEGIN/COMMIT and nested SAVEPOINTs.
package pool

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/venusdb/sdl/pkg/vendor"
)

// TransactionError reports a reentrant-transaction level mismatch:
// committing or rolling back a level that isn't currently open.
type TransactionError struct {
	Op       string
	Level    int
	AtLevel  int
}

func (e *TransactionError) Error() string {
	return errors.Errorf("%s at level %d: connection is at level %d", e.Op, e.Level, e.AtLevel).Error()
}

// Dialer opens a fresh vendor connection for the pool to manage.
type Dialer func(ctx context.Context) (vendor.Adapter, error)

// Options configures a Pool.
type Options struct {
	Dialer  Dialer
	MaxIdle int
	MaxAge  time.Duration
	// Async disables the background reaper and the pool-level mutex;
	// the owner is responsible for serializing Borrow/Return and for
	// periodically calling Reap itself (spec.md §5 "async variant").
	Async bool
}

// Conn is a pooled connection: the vendor handle plus the reentrant
// transaction state spec.md §5 requires (a level counter and a stack
// of cursors opened at or above each level).
type Conn struct {
	Adapter vendor.Adapter

	txMu      sync.Mutex
	level     int
	cursors   [][]vendor.Rows // cursors[i] holds cursors opened while level == i+1
	createdAt time.Time
}

// Level reports the connection's current reentrant transaction depth
// (0 means no open transaction).
func (c *Conn) Level() int {
	c.txMu.Lock()
	defer c.txMu.Unlock()
	return c.level
}

// TrackCursor records a cursor as opened at the connection's current
// level, so Commit/Rollback at that level closes it.
func (c *Conn) TrackCursor(rows vendor.Rows) {
	c.txMu.Lock()
	defer c.txMu.Unlock()
	if c.level == 0 {
		return
	}
	idx := c.level - 1
	for len(c.cursors) <= idx {
		c.cursors = append(c.cursors, nil)
	}
	c.cursors[idx] = append(c.cursors[idx], rows)
}

func savepointName(level int) string {
	return "sdl_level_" + itoa(level)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}

// Begin starts a new reentrant transaction level: level 0 -> 1 issues
// a real transaction start, level N -> N+1 creates a savepoint named
// by the new level.
func (c *Conn) Begin(ctx context.Context) error {
	c.txMu.Lock()
	defer c.txMu.Unlock()
	if c.level == 0 {
		if err := c.Adapter.Exec(ctx, "BEGIN"); err != nil {
			return errors.Wrap(err, "failed to begin transaction")
		}
	} else {
		if err := c.Adapter.Savepoint(ctx, savepointName(c.level+1)); err != nil {
			return errors.Wrap(err, "failed to create savepoint")
		}
	}
	c.level++
	c.cursors = append(c.cursors, nil)
	return nil
}

// Commit ends the transaction at the given level: level 1 issues a
// real COMMIT, level N>1 releases the corresponding savepoint. Cursors
// opened at or above level are closed first. Committing a level other
// than the connection's current level is a TransactionError.
func (c *Conn) Commit(ctx context.Context, level int) error {
	return c.endLevel(ctx, level, false)
}

// Rollback ends the transaction at the given level with ROLLBACK (for
// level 1) or ROLLBACK TO SAVEPOINT (for level N>1), after closing
// cursors opened at or above level.
func (c *Conn) Rollback(ctx context.Context, level int) error {
	return c.endLevel(ctx, level, true)
}

func (c *Conn) endLevel(ctx context.Context, level int, rollback bool) error {
	c.txMu.Lock()
	defer c.txMu.Unlock()
	if level != c.level {
		return &TransactionError{Op: opName(rollback), Level: level, AtLevel: c.level}
	}

	idx := level - 1
	if idx >= 0 && idx < len(c.cursors) {
		for _, cur := range c.cursors[idx] {
			_ = cur.Close()
		}
		c.cursors = c.cursors[:idx]
	}

	var err error
	switch {
	case level == 1 && rollback:
		err = c.Adapter.Exec(ctx, "ROLLBACK")
	case level == 1 && !rollback:
		err = c.Adapter.Exec(ctx, "COMMIT")
	case level > 1 && rollback:
		err = c.Adapter.RollbackTo(ctx, savepointName(level))
	default:
		err = c.Adapter.ReleaseSavepoint(ctx, savepointName(level))
	}
	if err != nil {
		return errors.Wrapf(err, "failed to end transaction level %d", level)
	}
	c.level--
	return nil
}

func opName(rollback bool) string {
	if rollback {
		return "rollback"
	}
	return "commit"
}

// WithTransaction runs fn within a new reentrant transaction level on
// conn, guaranteeing commit on a nil return and rollback otherwise —
// including on panic, which it re-raises after rolling back.
func WithTransaction(ctx context.Context, conn *Conn, fn func(ctx context.Context) error) (err error) {
	if err = conn.Begin(ctx); err != nil {
		return err
	}
	level := conn.Level()
	defer func() {
		if r := recover(); r != nil {
			_ = conn.Rollback(ctx, level)
			panic(r)
		}
	}()
	if err = fn(ctx); err != nil {
		if rbErr := conn.Rollback(ctx, level); rbErr != nil {
			return errors.Wrap(rbErr, err.Error())
		}
		return err
	}
	return conn.Commit(ctx, level)
}

// Pool is a thread-safe borrow/return pool of vendor connections, with
// a reaper that closes idle connections older than MaxAge.
type Pool struct {
	opts Options

	mu    sync.Mutex
	idle  []*Conn
	total int

	stop chan struct{}
}

// New builds a Pool. It rejects a dialer whose first connection
// reports a ThreadSafetyLevel below 1 (spec.md §5).
func New(ctx context.Context, opts Options) (*Pool, error) {
	probe, err := opts.Dialer(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to dial probe connection")
	}
	if probe.ThreadSafetyLevel() < 1 {
		_ = probe.Disconnect(ctx)
		return nil, errors.New("driver reports unsupported threadsafety level")
	}

	p := &Pool{opts: opts}
	p.release(probe)

	if !opts.Async {
		interval := opts.MaxAge / 10
		if interval < time.Second {
			interval = time.Second
		}
		p.stop = make(chan struct{})
		go p.reap(interval)
	}
	return p, nil
}

// Borrow returns an idle connection or dials a fresh one.
func (p *Pool) Borrow(ctx context.Context) (*Conn, error) {
	if !p.opts.Async {
		p.mu.Lock()
	}
	if n := len(p.idle); n > 0 {
		c := p.idle[n-1]
		p.idle = p.idle[:n-1]
		if !p.opts.Async {
			p.mu.Unlock()
		}
		return c, nil
	}
	if !p.opts.Async {
		p.mu.Unlock()
	}

	adapter, err := p.opts.Dialer(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to dial connection")
	}
	return &Conn{Adapter: adapter, createdAt: time.Now()}, nil
}

// Return gives a connection back to the pool. A connection whose
// driver reports a ThreadSafetyLevel below 2 is closed instead of
// pooled, since sharing it across borrowers isn't safe.
func (p *Pool) Return(ctx context.Context, c *Conn) {
	if c.Adapter.ThreadSafetyLevel() < 2 {
		_ = c.Adapter.Disconnect(ctx)
		return
	}
	p.release(c)
}

func (p *Pool) release(adapterOrConn any) {
	var c *Conn
	switch v := adapterOrConn.(type) {
	case *Conn:
		c = v
	case vendor.Adapter:
		c = &Conn{Adapter: v, createdAt: time.Now()}
	}
	if !p.opts.Async {
		p.mu.Lock()
		defer p.mu.Unlock()
	}
	p.idle = append(p.idle, c)
	if p.opts.MaxIdle > 0 && len(p.idle) > p.opts.MaxIdle {
		stale := p.idle[0]
		p.idle = p.idle[1:]
		_ = stale.Adapter.Disconnect(context.Background())
	}
}

// Reap closes idle connections older than MaxAge. New runs it on a
// timer; callers of an Async pool should invoke it themselves.
func (p *Pool) Reap() {
	if p.opts.MaxAge <= 0 {
		return
	}
	if !p.opts.Async {
		p.mu.Lock()
		defer p.mu.Unlock()
	}
	cutoff := time.Now().Add(-p.opts.MaxAge)
	kept := p.idle[:0]
	for _, c := range p.idle {
		if c.createdAt.Before(cutoff) {
			_ = c.Adapter.Disconnect(context.Background())
			continue
		}
		kept = append(kept, c)
	}
	p.idle = kept
}

func (p *Pool) reap(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			p.Reap()
		case <-p.stop:
			return
		}
	}
}

// Close stops the reaper (if running) and disconnects every idle
// connection.
func (p *Pool) Close(ctx context.Context) {
	if p.stop != nil {
		close(p.stop)
	}
	if !p.opts.Async {
		p.mu.Lock()
		defer p.mu.Unlock()
	}
	for _, c := range p.idle {
		_ = c.Adapter.Disconnect(ctx)
	}
	p.idle = nil
}
