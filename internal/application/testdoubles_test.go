package application

import (
	"context"
	"errors"
	"fmt"

	"leveltx-service/internal/config"
	"leveltx-service/internal/domain"
)

var (
	ErrRepo = errors.New("repo error")
)

var testSource = config.DataSource{Name: "test", Driver: "fake", URL: "fake://"}

type fakeDB struct {
	rows   []domain.Level
	nextID int64
}

func (d *fakeDB) names() []string {
	out := make([]string, 0, len(d.rows))
	for _, r := range d.rows {
		out = append(out, r.Name)
	}
	return out
}

type fakeFactory struct {
	db          *fakeDB
	acquireErr  error
	failAcquire int // 1-based acquisition that fails; 0 disables
	beginErr    error
	commitErr   error
	rollbackErr error

	attempts int
	conns    []*fakeConn
}

func newFakeFactory() *fakeFactory { return &fakeFactory{db: &fakeDB{}} }

func (f *fakeFactory) Acquire(_ context.Context, _ config.DataSource) (Conn, error) {
	f.attempts++
	if f.acquireErr != nil && (f.failAcquire == 0 || f.failAcquire == f.attempts) {
		return nil, f.acquireErr
	}
	c := &fakeConn{db: f.db, beginErr: f.beginErr, commitErr: f.commitErr, rollbackErr: f.rollbackErr}
	f.conns = append(f.conns, c)
	return c, nil
}

func (f *fakeFactory) rollbacks() int {
	n := 0
	for _, c := range f.conns {
		n += c.rollbacks
	}
	return n
}

type fakeConn struct {
	db          *fakeDB
	beginErr    error
	commitErr   error
	rollbackErr error

	inTx    bool
	staged  []func(*fakeDB)
	begins  int
	commits int
	// rollbacks counts attempts, successful or not.
	rollbacks int
	closes    int
}

func (c *fakeConn) Begin(context.Context) error {
	c.begins++
	if c.beginErr != nil {
		return c.beginErr
	}
	c.inTx = true
	return nil
}

func (c *fakeConn) Commit(context.Context) error {
	if !c.inTx {
		return ErrAutoCommit
	}
	if c.commitErr != nil {
		return c.commitErr
	}
	for _, apply := range c.staged {
		apply(c.db)
	}
	c.staged, c.inTx = nil, false
	c.commits++
	return nil
}

func (c *fakeConn) Rollback(context.Context) error {
	c.rollbacks++
	if c.rollbackErr != nil {
		return c.rollbackErr
	}
	if !c.inTx {
		return ErrAutoCommit
	}
	c.staged, c.inTx = nil, false
	return nil
}

func (c *fakeConn) Close(context.Context) error {
	c.closes++
	c.staged, c.inTx = nil, false
	return nil
}

func (c *fakeConn) do(apply func(*fakeDB)) {
	if c.inTx {
		c.staged = append(c.staged, apply)
		return
	}
	apply(c.db)
}

type fakeLevelRepo struct {
	calls []string
	err   error
}

func (r *fakeLevelRepo) Insert(_ context.Context, conn Conn, name string) (int64, error) {
	r.calls = append(r.calls, "insert "+name)
	if r.err != nil {
		return 0, r.err
	}
	conn.(*fakeConn).do(func(db *fakeDB) {
		db.nextID++
		db.rows = append(db.rows, domain.Level{ID: db.nextID, Name: name})
	})
	return 0, nil
}

func (r *fakeLevelRepo) DeleteByID(_ context.Context, conn Conn, id int64) error {
	r.calls = append(r.calls, fmt.Sprintf("delete %d", id))
	if r.err != nil {
		return r.err
	}
	conn.(*fakeConn).do(func(db *fakeDB) {
		for i, row := range db.rows {
			if row.ID == id {
				db.rows = append(db.rows[:i], db.rows[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (r *fakeLevelRepo) UpdateByID(_ context.Context, conn Conn, id int64, name string) error {
	r.calls = append(r.calls, fmt.Sprintf("update %d %s", id, name))
	if r.err != nil {
		return r.err
	}
	conn.(*fakeConn).do(func(db *fakeDB) {
		for i := range db.rows {
			if db.rows[i].ID == id {
				db.rows[i].Name = name
			}
		}
	})
	return nil
}

func (r *fakeLevelRepo) QueryAll(_ context.Context, conn Conn) ([]domain.Level, error) {
	r.calls = append(r.calls, "query")
	if r.err != nil {
		return nil, r.err
	}
	c := conn.(*fakeConn)
	return append([]domain.Level(nil), c.db.rows...), nil
}

type fakeIdem struct{ seen map[string]bool }

func (f *fakeIdem) TryReserve(_ context.Context, k string) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[k] {
		return false, nil
	}
	f.seen[k] = true
	return true, nil
}

func (f *fakeIdem) Release(_ context.Context, k string) error {
	delete(f.seen, k)
	return nil
}
