package application

import (
	"context"

	"leveltx-service/internal/config"
	"leveltx-service/internal/domain"
)

// Conn is a live database session owned by one caller at a time.
// A fresh Conn is in auto-commit mode.
type Conn interface {
	// Begin disables auto-commit; later writes are staged until Commit.
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	// Close discards staged writes of an open transaction and releases
	// the session.
	Close(ctx context.Context) error
}

type ConnFactory interface {
	Acquire(ctx context.Context, src config.DataSource) (Conn, error)
}

type LevelRepo interface {
	Insert(ctx context.Context, conn Conn, name string) (int64, error)
	DeleteByID(ctx context.Context, conn Conn, id int64) error
	UpdateByID(ctx context.Context, conn Conn, id int64, name string) error
	QueryAll(ctx context.Context, conn Conn) ([]domain.Level, error)
}

// IdempotencyStore deduplicates retried batch requests.
type IdempotencyStore interface {
	// TryReserve returns true if key was absent and is now reserved.
	TryReserve(ctx context.Context, key string) (bool, error)
	// Release frees a reserved key so the request can be retried.
	Release(ctx context.Context, key string) error
}

// NoopIdempotency reserves every key; used when Redis is disabled.
type NoopIdempotency struct{}

func (NoopIdempotency) TryReserve(context.Context, string) (bool, error) { return true, nil }
func (NoopIdempotency) Release(context.Context, string) error             { return nil }
