package application

import (
	"context"
	"fmt"

	"leveltx-service/internal/config"

	"go.uber.org/zap"
)

// RollbackMode selects which connection receives the recovery rollback.
type RollbackMode int

const (
	// RollbackSameConn rolls back the connection that ran the operations.
	RollbackSameConn RollbackMode = iota
	// RollbackFreshConn acquires a second connection and rolls that one
	// back. The staged writes are only discarded when the first
	// connection is closed.
	RollbackFreshConn
)

func (m RollbackMode) String() string {
	if m == RollbackFreshConn {
		return "fresh_conn"
	}
	return "same_conn"
}

// UnitOfWork runs a sequence of operations on one connection with
// auto-commit disabled and either commits all of them or none.
type UnitOfWork struct {
	factory ConnFactory
	mode    RollbackMode
	log     *zap.Logger
}

type UoWOption func(*UnitOfWork)

func WithRollbackMode(m RollbackMode) UoWOption { return func(u *UnitOfWork) { u.mode = m } }
func WithFreshConnRollback() UoWOption         { return WithRollbackMode(RollbackFreshConn) }
func WithLogger(l *zap.Logger) UoWOption       { return func(u *UnitOfWork) { u.log = l } }

func NewUnitOfWork(factory ConnFactory, opts ...UoWOption) *UnitOfWork {
	u := &UnitOfWork{factory: factory}
	for _, opt := range opts {
		opt(u)
	}
	if u.log == nil {
		u.log = zap.NewNop()
	}
	return u
}

// Run executes ops in order on a single connection from src.
//
// A nil result means every operation ran and the commit succeeded.
// Failures before the transaction started return *ConnectionError.
// Any later failure stops the sequence, triggers one rollback attempt and
// returns *TransactionError built from the first failure.
func (u *UnitOfWork) Run(ctx context.Context, src config.DataSource, ops ...Operation) error {
	log := u.log.With(zap.String("source", src.Name), zap.String("rollback_mode", u.mode.String()))

	conn, err := u.factory.Acquire(ctx, src)
	if err != nil {
		log.Error("uow.acquire_failed", zap.Error(err))
		return &ConnectionError{Source: src.Name, Err: err}
	}
	defer u.release(ctx, log, conn)

	if err := conn.Begin(ctx); err != nil {
		log.Error("uow.begin_failed", zap.Error(err))
		return &ConnectionError{Source: src.Name, Err: err}
	}

	cause := u.execute(ctx, log, conn, ops)
	if cause == nil {
		log.Info("uow.committed", zap.Int("operations", len(ops)))
		return nil
	}
	return &TransactionError{Cause: cause, Rollback: u.rollback(ctx, log, src, conn)}
}

func (u *UnitOfWork) execute(ctx context.Context, log *zap.Logger, conn Conn, ops []Operation) error {
	for i, op := range ops {
		if err := op(ctx, conn); err != nil {
			log.Warn("uow.operation_failed",
				zap.Int("step", i+1),
				zap.Int("skipped", len(ops)-i-1),
				zap.Error(err),
			)
			return err
		}
	}
	if err := conn.Commit(ctx); err != nil {
		log.Warn("uow.commit_failed", zap.Error(err))
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (u *UnitOfWork) rollback(ctx context.Context, log *zap.Logger, src config.DataSource, conn Conn) *RollbackError {
	target := conn
	if u.mode == RollbackFreshConn {
		fresh, err := u.factory.Acquire(ctx, src)
		if err != nil {
			log.Error("uow.rollback_failed", zap.Error(err))
			return &RollbackError{Err: &ConnectionError{Source: src.Name, Err: err}}
		}
		defer u.release(ctx, log, fresh)
		target = fresh
	}
	if err := target.Rollback(ctx); err != nil {
		log.Error("uow.rollback_failed", zap.Error(err))
		return &RollbackError{Err: err}
	}
	log.Info("uow.rolled_back")
	return nil
}

func (u *UnitOfWork) release(ctx context.Context, log *zap.Logger, conn Conn) {
	if err := conn.Close(ctx); err != nil {
		log.Warn("uow.close_failed", zap.Error(err))
	}
}
