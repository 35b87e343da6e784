package application

import (
	"context"
	"errors"
	"fmt"

	"leveltx-service/internal/domain"
)

// Operation is one step of a unit of work. All steps share conn.
type Operation func(ctx context.Context, conn Conn) error

// Validation is a pre-commit business check.
type Validation func(ctx context.Context) error

func InsertLevel(repo LevelRepo, name string) Operation {
	return func(ctx context.Context, conn Conn) error {
		if !domain.ValidateName(name) {
			return &OperationError{Op: "insert", Err: fmt.Errorf("invalid level name %q: %w", name, ErrBadRequest)}
		}
		if _, err := repo.Insert(ctx, conn, name); err != nil {
			return &OperationError{Op: "insert", Err: err}
		}
		return nil
	}
}

func DeleteLevel(repo LevelRepo, id int64) Operation {
	return func(ctx context.Context, conn Conn) error {
		if err := repo.DeleteByID(ctx, conn, id); err != nil {
			return &OperationError{Op: "delete", Err: err}
		}
		return nil
	}
}

func UpdateLevel(repo LevelRepo, id int64, name string) Operation {
	return func(ctx context.Context, conn Conn) error {
		if !domain.ValidateName(name) {
			return &OperationError{Op: "update", Err: fmt.Errorf("invalid level name %q: %w", name, ErrBadRequest)}
		}
		if err := repo.UpdateByID(ctx, conn, id, name); err != nil {
			return &OperationError{Op: "update", Err: err}
		}
		return nil
	}
}

// Check turns a validation into a step. A nil validation always passes.
func Check(name string, v Validation) Operation {
	return func(ctx context.Context, _ Conn) error {
		if v == nil {
			return nil
		}
		if err := v(ctx); err != nil {
			return &OperationError{Op: "check " + name, Err: err}
		}
		return nil
	}
}

// Fail is a validation that always rejects with msg.
func Fail(msg string) Validation {
	err := errors.New(msg)
	return func(context.Context) error { return err }
}
