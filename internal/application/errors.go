package application

import "errors"

var ErrNotFound = errors.New("not found")
var ErrConflict = errors.New("conflict")
var ErrBadRequest = errors.New("bad request")

// ErrAutoCommit is returned by Commit and Rollback on a connection that
// has no open transaction.
var ErrAutoCommit = errors.New("connection is in auto-commit mode")

// ConnectionError reports a failure to acquire or talk to the database
// before any write was staged.
type ConnectionError struct {
	Source string
	Err    error
}

func (e *ConnectionError) Error() string {
	return "connection " + e.Source + ": " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// OperationError is a failed write or validation step. Its message is the
// message of the underlying failure; Op only names the step.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string { return e.Err.Error() }

func (e *OperationError) Unwrap() error { return e.Err }

// RollbackError is a failed recovery rollback. It is reported next to the
// original failure and never replaces it.
type RollbackError struct {
	Err error
}

func (e *RollbackError) Error() string { return "rollback: " + e.Err.Error() }

func (e *RollbackError) Unwrap() error { return e.Err }

// TransactionError is what a failed unit of work returns to its caller.
type TransactionError struct {
	Cause    error
	Rollback *RollbackError
}

func (e *TransactionError) Error() string { return "transaction failed: " + e.Cause.Error() }

func (e *TransactionError) Unwrap() error { return e.Cause }

// RolledBack reports whether the recovery rollback succeeded.
func (e *TransactionError) RolledBack() bool { return e.Rollback == nil }
