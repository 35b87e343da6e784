package pg

import (
	"context"
	"errors"
	"fmt"

	"leveltx-service/internal/application"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrConnClosed = errors.New("pg: connection closed")
	ErrTxOpen     = errors.New("pg: transaction already open")
)

var _ application.Conn = (*Conn)(nil)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Conn is a pooled connection plus its open transaction, if any.
type Conn struct {
	conn   *pgxpool.Conn
	tx     pgx.Tx
	source string
}

func (c *Conn) InTx() bool { return c.tx != nil }

func (c *Conn) Begin(ctx context.Context) error {
	if c.conn == nil {
		return ErrConnClosed
	}
	if c.tx != nil {
		return ErrTxOpen
	}
	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return err
	}
	c.tx = tx
	return nil
}

// Commit keeps the tx handle on failure so a following Rollback can
// release it.
func (c *Conn) Commit(ctx context.Context) error {
	if c.tx == nil {
		return application.ErrAutoCommit
	}
	if err := c.tx.Commit(ctx); err != nil {
		return err
	}
	c.tx = nil
	return nil
}

func (c *Conn) Rollback(ctx context.Context) error {
	if c.tx == nil {
		return application.ErrAutoCommit
	}
	err := c.tx.Rollback(ctx)
	c.tx = nil
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// Close discards an open transaction and returns the connection to the pool.
func (c *Conn) Close(ctx context.Context) error {
	if c.conn == nil {
		return nil
	}
	var err error
	if c.tx != nil {
		if rbErr := c.tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			err = fmt.Errorf("discard tx: %w", rbErr)
		}
		c.tx = nil
	}
	c.conn.Release()
	c.conn = nil
	return err
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
		return nil, fmt.Errorf("pg: unsupported connection %T", conn)
	}
	return c, nil
}
