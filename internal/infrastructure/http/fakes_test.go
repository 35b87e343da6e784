package httpserver

import (
	"context"
	"errors"
	"sort"
	"sync"

	"leveltx-service/internal/application"
	"leveltx-service/internal/config"
	"leveltx-service/internal/domain"
)

var _ application.ConnFactory = (*memFactory)(nil)
var _ application.LevelRepo = (*memRepo)(nil)

// memDB is a tiny in-memory table with per-connection staging.
type memDB struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]string
}

type memFactory struct {
	db   *memDB
	down bool
}

func newMemFactory() *memFactory {
	return &memFactory{db: &memDB{rows: map[int64]string{}}}
}

func (f *memFactory) Acquire(context.Context, config.DataSource) (application.Conn, error) {
	if f.down {
		return nil, errors.New("dial tcp: connection refused")
	}
	return &memConn{db: f.db}, nil
}

type memConn struct {
	db     *memDB
	inTx   bool
	staged []func(rows map[int64]string)
}

func (c *memConn) Begin(context.Context) error { c.inTx = true; return nil }

func (c *memConn) Commit(context.Context) error {
	if !c.inTx {
		return application.ErrAutoCommit
	}
	c.db.mu.Lock()
	for _, fn := range c.staged {
		fn(c.db.rows)
	}
	c.db.mu.Unlock()
	c.staged, c.inTx = nil, false
	return nil
}

func (c *memConn) Rollback(context.Context) error {
	if !c.inTx {
		return application.ErrAutoCommit
	}
	c.staged, c.inTx = nil, false
	return nil
}

func (c *memConn) Close(context.Context) error {
	c.staged, c.inTx = nil, false
	return nil
}

type memRepo struct{}

func (memRepo) Insert(_ context.Context, conn application.Conn, name string) (int64, error) {
	c := conn.(*memConn)
	c.db.mu.Lock()
	c.db.nextID++
	id := c.db.nextID
	c.db.mu.Unlock()
	c.stage(func(rows map[int64]string) { rows[id] = name })
	return id, nil
}

func (memRepo) DeleteByID(_ context.Context, conn application.Conn, id int64) error {
	c := conn.(*memConn)
	if !c.exists(id) {
		return application.ErrNotFound
	}
	c.stage(func(rows map[int64]string) { delete(rows, id) })
	return nil
}

func (memRepo) UpdateByID(_ context.Context, conn application.Conn, id int64, name string) error {
	c := conn.(*memConn)
	if !c.exists(id) {
		return application.ErrNotFound
	}
	c.stage(func(rows map[int64]string) { rows[id] = name })
	return nil
}

func (memRepo) QueryAll(_ context.Context, conn application.Conn) ([]domain.Level, error) {
	c := conn.(*memConn)
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	out := make([]domain.Level, 0, len(c.db.rows))
	for id, name := range c.db.rows {
		out = append(out, domain.Level{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *memConn) stage(fn func(rows map[int64]string)) {
	if !c.inTx {
		c.db.mu.Lock()
		fn(c.db.rows)
		c.db.mu.Unlock()
		return
	}
	c.staged = append(c.staged, fn)
}

func (c *memConn) exists(id int64) bool {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	_, ok := c.db.rows[id]
	return ok
}

func resolveTest(name string) (config.DataSource, error) {
	switch name {
	case "", config.SourceEnv:
		return config.DataSource{Name: config.SourceEnv, Driver: config.DriverPGX, URL: "mem://"}, nil
	default:
		return config.DataSource{}, config.ErrUnknownSource
	}
}
