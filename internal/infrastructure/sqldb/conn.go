package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"leveltx-service/internal/application"
)

var (
	ErrConnClosed = errors.New("sqldb: connection closed")
	ErrTxOpen     = errors.New("sqldb: transaction already open")
)

var _ application.Conn = (*Conn)(nil)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Conn struct {
	conn    *sql.Conn
	tx      *sql.Tx
	dialect Dialect
	source  string
}

func (c *Conn) InTx() bool { return c.tx != nil }

func (c *Conn) Begin(ctx context.Context) error {
	if c.conn == nil {
		return ErrConnClosed
	}
	if c.tx != nil {
		return ErrTxOpen
	}
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	c.tx = tx
	return nil
}

func (c *Conn) Commit(context.Context) error {
	if c.tx == nil {
		return application.ErrAutoCommit
	}
	if err := c.tx.Commit(); err != nil {
		return err
	}
	c.tx = nil
	return nil
}

func (c *Conn) Rollback(context.Context) error {
	if c.tx == nil {
		return application.ErrAutoCommit
	}
	err := c.tx.Rollback()
	c.tx = nil
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// Close ends an open transaction first; a *sql.Conn cannot be returned to
// the pool while a Tx still holds it.
func (c *Conn) Close(context.Context) error {
	if c.conn == nil {
		return nil
	}
	var errs []error
	if c.tx != nil {
		if err := c.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, fmt.Errorf("discard tx: %w", err))
		}
		c.tx = nil
	}
	if err := c.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		errs = append(errs, err)
	}
	c.conn = nil
	return errors.Join(errs...)
}

func (c *Conn) q() (querier, error) {
	switch {
	case c.conn == nil:
		return nil, ErrConnClosed
	case c.tx != nil:
		return c.tx, nil
	default:
		return c.conn, nil
	}
}

func asConn(conn application.Conn) (*Conn, error) {
	c, ok := conn.(*Conn)
	if !ok {
		return nil, fmt.Errorf("sqldb: unsupported connection %T", conn)
	}
	return c, nil
}
